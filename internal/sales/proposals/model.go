package proposals

import "time"

type ProposalStatus string

const (
	ProposalStatusDraft     ProposalStatus = "DRAFT"
	ProposalStatusSent      ProposalStatus = "SENT"
	ProposalStatusApproved  ProposalStatus = "APPROVED"
	ProposalStatusRejected  ProposalStatus = "REJECTED"
	ProposalStatusCancelled ProposalStatus = "CANCELLED"
)

// Valid reports whether the status is a known lifecycle state.
func (s ProposalStatus) Valid() bool {
	switch s {
	case ProposalStatusDraft, ProposalStatusSent, ProposalStatusApproved,
		ProposalStatusRejected, ProposalStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are allowed.
func (s ProposalStatus) Terminal() bool {
	switch s {
	case ProposalStatusApproved, ProposalStatusRejected, ProposalStatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether s may move to next.
func (s ProposalStatus) CanTransition(next ProposalStatus) bool {
	if s == next {
		return false
	}
	switch s {
	case ProposalStatusDraft:
		return next == ProposalStatusSent || next == ProposalStatusCancelled
	case ProposalStatusSent:
		return next == ProposalStatusApproved || next == ProposalStatusRejected || next == ProposalStatusCancelled
	}
	return false
}

type Proposal struct {
	ID              int64          `json:"id" db:"id"`
	Number          string         `json:"number" db:"number"`
	OwnerID         int64          `json:"owner_id" db:"owner_id"`
	ClientID        int64          `json:"client_id" db:"client_id"`
	Status          ProposalStatus `json:"status" db:"status"`
	ValidUntil      *time.Time     `json:"valid_until,omitempty" db:"valid_until"`
	Notes           *string        `json:"notes,omitempty" db:"notes"`
	Subtotal        float64        `json:"subtotal" db:"subtotal"`
	DiscountPercent float64        `json:"discount_percent" db:"discount_percent"`
	Total           float64        `json:"total" db:"total"`
	Items           []ProposalItem `json:"items,omitempty" db:"-"`
	CreatedAt       time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at" db:"updated_at"`
}

type ProposalItem struct {
	ID              int64   `json:"id" db:"id"`
	ProposalID      int64   `json:"proposal_id" db:"proposal_id"`
	ProductID       int64   `json:"product_id" db:"product_id"`
	ProductName     string  `json:"product_name,omitempty" db:"product_name"`
	Description     *string `json:"description,omitempty" db:"description"`
	Quantity        float64 `json:"quantity" db:"quantity"`
	UnitPrice       float64 `json:"unit_price" db:"unit_price"`
	DiscountPercent float64 `json:"discount_percent" db:"discount_percent"`
	Subtotal        float64 `json:"subtotal" db:"subtotal"`
	Total           float64 `json:"total" db:"total"`
	LineOrder       int     `json:"line_order" db:"line_order"`
}

type ProposalWithDetails struct {
	Proposal
	ClientName string `json:"client_name" db:"client_name"`
	OwnerName  string `json:"owner_name" db:"owner_name"`
}
