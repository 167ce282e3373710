package approvals

import (
	"context"
	"errors"
	"fmt"

	"github.com/vendaflow-erp/vendaflow/internal/authz"
	"github.com/vendaflow-erp/vendaflow/internal/platform/httpx"
	"github.com/vendaflow-erp/vendaflow/internal/sales/proposals"
	"github.com/vendaflow-erp/vendaflow/internal/sales/shared"
)

// ProposalGetter fetches a proposal with ownership checks applied.
type ProposalGetter interface {
	Get(ctx context.Context, actor authz.Actor, id int64) (*proposals.Proposal, error)
}

// Service owns the approval ledger and the discount gate decision.
type Service struct {
	repo      Repository
	getter    ProposalGetter
	threshold float64
	policy    authz.Policy
}

func NewService(repo Repository, getter ProposalGetter, threshold float64, policy authz.Policy) *Service {
	return &Service{repo: repo, getter: getter, threshold: threshold, policy: policy}
}

// CanGeneratePremiumArtifact decides whether discount-gated actions (premium
// document, digital signature) are permitted for the proposal. The decision
// is taken live against the ledger on every call; approvals can be revoked
// after the fact, so callers must not cache the result.
func (s *Service) CanGeneratePremiumArtifact(ctx context.Context, p *proposals.Proposal) (bool, error) {
	if p.DiscountPercent <= s.threshold {
		return true, nil
	}
	return s.repo.HasApprovedForDiscount(ctx, p.ID, p.DiscountPercent)
}

// Request creates a pending approval carrying a frozen snapshot of the
// proposal's current discount. Duplicate pending requests for the same
// proposal are tolerated; the gate only cares about approved records.
func (s *Service) Request(ctx context.Context, actor authz.Actor, proposalID int64) (*Approval, error) {
	p, err := s.getter.Get(ctx, actor, proposalID)
	if err != nil {
		return nil, err
	}

	if p.DiscountPercent <= s.threshold {
		return nil, fmt.Errorf("%w: discount %.2f%% does not require approval", httpx.ErrValidation, p.DiscountPercent)
	}

	discountAmount, discountedTotal := shared.ApplyDiscount(p.Subtotal, p.DiscountPercent)

	approval := Approval{
		ProposalID:        p.ID,
		RequestedDiscount: p.DiscountPercent,
		Total:             p.Subtotal,
		DiscountAmount:    discountAmount,
		DiscountedTotal:   discountedTotal,
		RequestedBy:       actor.ID,
		Status:            ApprovalStatusPending,
	}

	id, err := s.repo.Create(ctx, approval)
	if err != nil {
		return nil, fmt.Errorf("create approval: %w", err)
	}
	return s.get(ctx, id)
}

// List returns approvals matching the filter.
func (s *Service) List(ctx context.Context, req ListApprovalsRequest) ([]Approval, int, error) {
	return s.repo.List(ctx, req)
}

// Decide resolves a pending approval. Re-deciding a record to the state it
// already holds is a no-op; flipping an already decided record is an error.
// Rejection requires a non-empty reason.
func (s *Service) Decide(ctx context.Context, actor authz.Actor, id int64, decision ApprovalStatus, reason *string) (*Approval, error) {
	if !decision.Decided() {
		return nil, fmt.Errorf("%w: decision must be APPROVED or REJECTED", httpx.ErrValidation)
	}

	approval, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if approval.Status == decision {
		return approval, nil
	}
	if approval.Status.Decided() {
		return nil, fmt.Errorf("%w: approval already %s", httpx.ErrValidation, approval.Status)
	}

	if decision == ApprovalStatusRejected {
		if reason == nil || *reason == "" {
			return nil, fmt.Errorf("%w: rejection reason required", httpx.ErrValidation)
		}
	} else {
		reason = nil
	}

	if err := s.repo.UpdateDecision(ctx, id, decision, actor.ID, reason); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: approval %d", httpx.ErrNotFound, id)
		}
		return nil, fmt.Errorf("decide approval: %w", err)
	}
	return s.get(ctx, id)
}

// Delete removes an approval record. Privileged policy only: removing an
// approved record revokes the gate on its next evaluation.
func (s *Service) Delete(ctx context.Context, actor authz.Actor, id int64) error {
	if !s.policy.Allows(actor) {
		return fmt.Errorf("%w: approval delete", httpx.ErrForbidden)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: approval %d", httpx.ErrNotFound, id)
		}
		return fmt.Errorf("delete approval: %w", err)
	}
	return nil
}

func (s *Service) get(ctx context.Context, id int64) (*Approval, error) {
	approval, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: approval %d", httpx.ErrNotFound, id)
		}
		return nil, fmt.Errorf("get approval: %w", err)
	}
	return approval, nil
}
