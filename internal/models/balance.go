package models

import (
	"bytes"
	"time"

	"github.com/google/uuid"
)

const (
	TransactionDeposit    = "deposit"
	TransactionWithdrawal = "withdrawal"
	TransactionTransfer   = "transfer"
)

type AccountKind string

const (
	AccountCompany AccountKind = "company"
	AccountUser    AccountKind = "user"
)

// Reference to balance holding entity
type AccountRef struct {
	Kind AccountKind
	ID   uuid.UUID
}

func CompanyAccount(id uuid.UUID) AccountRef {
	return AccountRef{Kind: AccountCompany, ID: id}
}

func UserAccount(id uuid.UUID) AccountRef {
	return AccountRef{Kind: AccountUser, ID: id}
}

// Less defines the order accounts are locked in: companies first, then by id
func (a AccountRef) Less(b AccountRef) bool {
	if a.Kind != b.Kind {
		return a.Kind == AccountCompany
	}
	return bytes.Compare(a.ID[:], b.ID[:]) < 0
}

type AccountBalance struct {
	Account AccountRef
	Balance int64

	// Set for company accounts only
	Ceiling *int64
}

type Transaction struct {
	ID          int64
	CreatedAt   time.Time
	CompanyID   *uuid.UUID
	UserID      *uuid.UUID
	Amount      int64
	Kind        string
	Description string
}
