package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ResponsePending  = "pending"
	ResponseAccepted = "accepted"
	ResponseRejected = "rejected"
)

type Response struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
	ListingID uuid.UUID
	UserID    uuid.UUID
	CompanyID *uuid.UUID
	Status    string
	Message   string
}
