package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ListingPublished   = "published"
	ListingUnpublished = "unpublished"
	ListingCompleted   = "completed"
)

type Listing struct {
	ID          uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Title       string
	Description string
	Category    string
	Status      string
	UserID      uuid.UUID
	CompanyID   *uuid.UUID

	// Days the listing stays published, unlimited if nil
	PublicationPeriod *int32
	PublishedAt       *time.Time
}
