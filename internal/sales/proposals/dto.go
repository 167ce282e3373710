package proposals

import "time"

type CreateProposalRequest struct {
	ClientID        int64                   `json:"client_id" validate:"required,gt=0"`
	ValidUntil      *time.Time              `json:"valid_until,omitempty"`
	Notes           *string                 `json:"notes,omitempty"`
	DiscountPercent float64                 `json:"discount_percent" validate:"gte=0,lte=100"`
	Items           []CreateProposalItemReq `json:"items" validate:"required,min=1,dive"`
}

type CreateProposalItemReq struct {
	ProductID       int64   `json:"product_id" validate:"required,gt=0"`
	Description     *string `json:"description,omitempty"`
	Quantity        float64 `json:"quantity" validate:"required,gt=0"`
	Price           float64 `json:"price" validate:"gte=0"`
	// UnitPrice falls back to Price when absent.
	UnitPrice       *float64 `json:"unit_price,omitempty" validate:"omitempty,gte=0"`
	DiscountPercent float64  `json:"discount_percent" validate:"gte=0,lte=100"`
	// Total falls back to the computed line subtotal minus the line discount.
	Total     *float64 `json:"total,omitempty" validate:"omitempty,gte=0"`
	LineOrder int      `json:"line_order" validate:"gte=0"`
}

type UpdateProposalRequest struct {
	ClientID        *int64                   `json:"client_id,omitempty" validate:"omitempty,gt=0"`
	Status          *ProposalStatus          `json:"status,omitempty"`
	ValidUntil      *time.Time               `json:"valid_until,omitempty"`
	Notes           *string                  `json:"notes,omitempty"`
	DiscountPercent *float64                 `json:"discount_percent,omitempty" validate:"omitempty,gte=0,lte=100"`
	Items           *[]CreateProposalItemReq `json:"items,omitempty" validate:"omitempty,min=1,dive"`
}

type ListProposalsRequest struct {
	// TargetUserID and All are honoured only for the privileged actor;
	// everyone else is silently narrowed to their own proposals.
	TargetUserID *int64          `json:"target_user_id,omitempty"`
	All          bool            `json:"all,omitempty"`
	Status       *ProposalStatus `json:"status,omitempty"`
	Limit        int             `json:"limit" validate:"gte=0,lte=1000"`
	Offset       int             `json:"offset" validate:"gte=0"`
}
