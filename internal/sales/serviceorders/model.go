package serviceorders

import "time"

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusInProgress OrderStatus = "IN_PROGRESS"
	OrderStatusCompleted  OrderStatus = "COMPLETED"
	OrderStatusPaused     OrderStatus = "PAUSED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

// Valid reports whether the status is a known state.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusInProgress, OrderStatusCompleted,
		OrderStatusPaused, OrderStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are allowed.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// CanTransition reports whether s may move to next.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	if s == next {
		return false
	}
	switch s {
	case OrderStatusPending:
		return next == OrderStatusInProgress || next == OrderStatusPaused || next == OrderStatusCancelled
	case OrderStatusInProgress:
		return next == OrderStatusCompleted || next == OrderStatusPaused || next == OrderStatusCancelled
	case OrderStatusPaused:
		return next == OrderStatusInProgress || next == OrderStatusCancelled
	}
	return false
}

type OrderPriority string

const (
	OrderPriorityLow    OrderPriority = "LOW"
	OrderPriorityNormal OrderPriority = "NORMAL"
	OrderPriorityHigh   OrderPriority = "HIGH"
)

// Valid reports whether the priority is a known value.
func (p OrderPriority) Valid() bool {
	return p == OrderPriorityLow || p == OrderPriorityNormal || p == OrderPriorityHigh
}

// ServiceOrder tracks the execution of exactly one approved proposal.
// The proposal reference is unique at the storage level.
type ServiceOrder struct {
	ID             int64         `json:"id" db:"id"`
	Number         string        `json:"number" db:"number"`
	ProposalID     int64         `json:"proposal_id" db:"proposal_id"`
	ClientID       int64         `json:"client_id" db:"client_id"`
	Status         OrderStatus   `json:"status" db:"status"`
	Priority       OrderPriority `json:"priority" db:"priority"`
	OpenDate       time.Time     `json:"open_date" db:"open_date"`
	ExpectedDate   *time.Time    `json:"expected_date,omitempty" db:"expected_date"`
	TotalItems     int           `json:"total_items" db:"total_items"`
	CompletedItems int           `json:"completed_items" db:"completed_items"`
	Items          []WorkItem    `json:"items,omitempty" db:"-"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at" db:"updated_at"`
}

// Progress returns completion as a percentage, 0 when there are no items.
func (o *ServiceOrder) Progress() float64 {
	if o.TotalItems == 0 {
		return 0
	}
	return float64(o.CompletedItems) / float64(o.TotalItems) * 100
}

// Overdue is a read-side flag, never stored: the expected date has passed
// and the order is not completed.
func (o *ServiceOrder) Overdue(now time.Time) bool {
	if o.ExpectedDate == nil || o.Status == OrderStatusCompleted {
		return false
	}
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return o.ExpectedDate.Before(today)
}

// WorkItem is a trackable copy of one proposal line item.
type WorkItem struct {
	ID          int64   `json:"id" db:"id"`
	OrderID     int64   `json:"order_id" db:"order_id"`
	ProductID   int64   `json:"product_id" db:"product_id"`
	Description *string `json:"description,omitempty" db:"description"`
	Quantity    float64 `json:"quantity" db:"quantity"`
	UnitPrice   float64 `json:"unit_price" db:"unit_price"`
	Total       float64 `json:"total" db:"total"`
	LineOrder   int     `json:"line_order" db:"line_order"`
}

// EligibleProposal is an approved proposal that has not spawned an order yet.
type EligibleProposal struct {
	ProposalID int64     `json:"proposal_id" db:"proposal_id"`
	Number     string    `json:"number" db:"number"`
	ClientID   int64     `json:"client_id" db:"client_id"`
	ClientName string    `json:"client_name" db:"client_name"`
	OwnerID    int64     `json:"owner_id" db:"owner_id"`
	Total      float64   `json:"total" db:"total"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
