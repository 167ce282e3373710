package approvals

import "time"

type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "PENDING"
	ApprovalStatusApproved ApprovalStatus = "APPROVED"
	ApprovalStatusRejected ApprovalStatus = "REJECTED"
)

// Decided reports whether the status is terminal.
func (s ApprovalStatus) Decided() bool {
	return s == ApprovalStatusApproved || s == ApprovalStatusRejected
}

// Approval is a discount sign-off request. RequestedDiscount is a frozen
// snapshot of the proposal's discount at request time; the gate only honours
// approvals whose snapshot still matches the proposal.
type Approval struct {
	ID                int64          `json:"id" db:"id"`
	ProposalID        int64          `json:"proposal_id" db:"proposal_id"`
	RequestedDiscount float64        `json:"requested_discount" db:"requested_discount"`
	Total             float64        `json:"total" db:"total"`
	DiscountAmount    float64        `json:"discount_amount" db:"discount_amount"`
	DiscountedTotal   float64        `json:"discounted_total" db:"discounted_total"`
	RequestedBy       int64          `json:"requested_by" db:"requested_by"`
	Status            ApprovalStatus `json:"status" db:"status"`
	RejectionReason   *string        `json:"rejection_reason,omitempty" db:"rejection_reason"`
	DecidedBy         *int64         `json:"decided_by,omitempty" db:"decided_by"`
	DecidedAt         *time.Time     `json:"decided_at,omitempty" db:"decided_at"`
	CreatedAt         time.Time      `json:"created_at" db:"created_at"`
}
