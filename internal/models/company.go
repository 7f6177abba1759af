package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	CompanyStatusPending  = "pending"
	CompanyStatusApproved = "approved"
	CompanyStatusRejected = "rejected"
)

const DefaultMaxBalance int64 = 1000

// Company role of the member
const (
	MemberOwner    = "owner"
	MemberAdmin    = "admin"
	MemberManager  = "manager"
	MemberEmployee = "employee"
)

type Company struct {
	ID         uuid.UUID
	CreatedAt  time.Time
	Name       string
	BIN        string
	Status     string
	Balance    int64
	MaxBalance int64
}

type Membership struct {
	CompanyID uuid.UUID
	UserID    uuid.UUID
	Role      string
	CreatedAt time.Time
}
