package serviceorders

import "time"

type CreateServiceOrderRequest struct {
	ProposalID   int64          `json:"proposal_id" validate:"required,gt=0"`
	Priority     *OrderPriority `json:"priority,omitempty"`
	ExpectedDate *time.Time     `json:"expected_date,omitempty"`
}

type TransitionRequest struct {
	Status OrderStatus `json:"status" validate:"required"`
}

type UpdateProgressRequest struct {
	CompletedItems int `json:"completed_items" validate:"gte=0"`
}

type ListServiceOrdersRequest struct {
	// Search matches against the order number and client name.
	Search *string      `json:"search,omitempty"`
	Status *OrderStatus `json:"status,omitempty"`
	Limit  int          `json:"limit" validate:"gte=0,lte=1000"`
	Offset int          `json:"offset" validate:"gte=0"`
}

// ServiceOrderView augments an order with its derived read-side fields.
type ServiceOrderView struct {
	ServiceOrder
	ProgressPercent float64 `json:"progress_percent"`
	Overdue         bool    `json:"overdue"`
}

// NewView computes the derived fields at read time.
func NewView(o ServiceOrder, now time.Time) ServiceOrderView {
	return ServiceOrderView{
		ServiceOrder:    o,
		ProgressPercent: o.Progress(),
		Overdue:         o.Overdue(now),
	}
}
