package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateResponse       = "create_response"
	ActionUpdateResponseStatus = "update_response_status"
	ActionDeleteResponse       = "delete_response"
	ActionDepositBalance       = "deposit_balance"
	ActionTransferBalance      = "transfer_balance"
	ActionUpdateMaxBalance     = "update_max_balance"
	ActionCreateCompany        = "create_company"
	ActionAddMember            = "add_member"
	ActionRemoveMember         = "remove_member"
	ActionUpdateCompanyStatus  = "update_company_status"
	ActionCreateListing        = "create_listing"
	ActionUpdateListingStatus  = "update_listing_status"
)

type Activity struct {
	ID          int64
	CreatedAt   time.Time
	UserID      uuid.UUID
	CompanyID   *uuid.UUID
	Action      string
	Description string
}
