package approvals

type CreateApprovalRequest struct {
	ProposalID int64 `json:"proposal_id" validate:"required,gt=0"`
}

type DecideApprovalRequest struct {
	Decision ApprovalStatus `json:"decision" validate:"required,oneof=APPROVED REJECTED"`
	Reason   *string        `json:"reason,omitempty"`
}

type ListApprovalsRequest struct {
	ProposalID *int64          `json:"proposal_id,omitempty"`
	Status     *ApprovalStatus `json:"status,omitempty"`
	Limit      int             `json:"limit" validate:"gte=0,lte=1000"`
	Offset     int             `json:"offset" validate:"gte=0"`
}
