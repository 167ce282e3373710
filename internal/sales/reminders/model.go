package reminders

import "time"

type Priority string

const (
	PriorityOverdue  Priority = "OVERDUE"
	PriorityDueToday Priority = "DUE_TODAY"
	PriorityUpcoming Priority = "UPCOMING"
)

func (p Priority) rank() int {
	switch p {
	case PriorityOverdue:
		return 0
	case PriorityDueToday:
		return 1
	default:
		return 2
	}
}

// Reminder is a derived, never persisted projection of a proposal whose
// validity date needs attention.
type Reminder struct {
	ProposalID int64     `json:"proposal_id"`
	Number     string    `json:"number"`
	OwnerID    int64     `json:"owner_id"`
	ClientName string    `json:"client_name"`
	ValidUntil time.Time `json:"valid_until"`
	Priority   Priority  `json:"priority"`
}

// PendingProposal is the storage row the projection works from.
type PendingProposal struct {
	ProposalID int64     `db:"proposal_id"`
	Number     string    `db:"number"`
	OwnerID    int64     `db:"owner_id"`
	ClientName string    `db:"client_name"`
	ValidUntil time.Time `db:"valid_until"`
}
