package proposals

import (
	"context"
	"errors"
	"fmt"

	"github.com/vendaflow-erp/vendaflow/internal/authz"
	"github.com/vendaflow-erp/vendaflow/internal/platform/httpx"
	"github.com/vendaflow-erp/vendaflow/internal/sales/shared"
)

const proposalDocType = "VND"

// Service owns the proposal lifecycle: listing, ownership checks, creation
// with sequential numbering and status transition rules.
type Service struct {
	repo   Repository
	policy authz.Policy
}

func NewService(repo Repository, policy authz.Policy) *Service {
	return &Service{repo: repo, policy: policy}
}

// List returns proposals visible to the actor, newest first. Requests for
// "all" or another user's proposals are silently narrowed to the actor's own
// unless the actor satisfies the privileged policy.
func (s *Service) List(ctx context.Context, actor authz.Actor, req ListProposalsRequest) ([]ProposalWithDetails, int, error) {
	filter := ListFilter{Status: req.Status, Limit: req.Limit, Offset: req.Offset}

	owner := actor.ID
	if s.policy.Allows(actor) {
		switch {
		case req.All:
			filter.OwnerID = nil
		case req.TargetUserID != nil:
			owner = *req.TargetUserID
			filter.OwnerID = &owner
		default:
			filter.OwnerID = &owner
		}
	} else {
		filter.OwnerID = &owner
	}

	return s.repo.List(ctx, filter)
}

// Get returns a proposal or NotFound/Forbidden.
func (s *Service) Get(ctx context.Context, actor authz.Actor, id int64) (*Proposal, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: proposal %d", httpx.ErrNotFound, id)
		}
		return nil, fmt.Errorf("get proposal: %w", err)
	}
	if p.OwnerID != actor.ID && !s.policy.Allows(actor) {
		return nil, fmt.Errorf("%w: proposal %d", httpx.ErrForbidden, id)
	}
	return p, nil
}

// Create persists a proposal with its items as one transaction and assigns
// the next sequential number.
func (s *Service) Create(ctx context.Context, actor authz.Actor, req CreateProposalRequest) (*Proposal, error) {
	items, subtotal := buildItems(req.Items)
	_, total := shared.ApplyDiscount(subtotal, req.DiscountPercent)

	seq, err := s.repo.NextSequence(ctx, proposalDocType)
	if err != nil {
		return nil, fmt.Errorf("next proposal number: %w", err)
	}

	proposal := Proposal{
		Number:          fmt.Sprintf("%s-%06d", proposalDocType, seq),
		OwnerID:         actor.ID,
		ClientID:        req.ClientID,
		Status:          ProposalStatusDraft,
		ValidUntil:      req.ValidUntil,
		Notes:           req.Notes,
		Subtotal:        subtotal,
		DiscountPercent: req.DiscountPercent,
		Total:           total,
	}

	var proposalID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		id, err := repo.Create(ctx, proposal)
		if err != nil {
			return fmt.Errorf("create proposal: %w", err)
		}
		proposalID = id

		for _, item := range items {
			item.ProposalID = proposalID
			if _, err := repo.InsertItem(ctx, item); err != nil {
				return fmt.Errorf("insert proposal item: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.repo.Get(ctx, proposalID)
}

// Update applies a patch to mutable fields. The sequential number is never
// recomputed. Status changes follow the lifecycle transition table.
func (s *Service) Update(ctx context.Context, actor authz.Actor, id int64, req UpdateProposalRequest) (*Proposal, error) {
	existing, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})

	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, *req.Status)
		}
		if !existing.Status.CanTransition(*req.Status) {
			return nil, fmt.Errorf("%w: cannot move proposal from %s to %s", httpx.ErrValidation, existing.Status, *req.Status)
		}
		updates["status"] = *req.Status
	}

	editingFields := req.ClientID != nil || req.ValidUntil != nil || req.Notes != nil ||
		req.DiscountPercent != nil || req.Items != nil
	if editingFields && existing.Status.Terminal() {
		return nil, fmt.Errorf("%w: proposal %s is no longer editable", httpx.ErrValidation, existing.Status)
	}

	if req.ClientID != nil {
		updates["client_id"] = *req.ClientID
	}
	if req.ValidUntil != nil {
		updates["valid_until"] = *req.ValidUntil
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}

	subtotal := existing.Subtotal
	discountPercent := existing.DiscountPercent
	var itemsToInsert []ProposalItem

	if req.Items != nil {
		itemsToInsert, subtotal = buildItems(*req.Items)
		updates["subtotal"] = subtotal
	}
	if req.DiscountPercent != nil {
		discountPercent = *req.DiscountPercent
		updates["discount_percent"] = discountPercent
	}
	if req.Items != nil || req.DiscountPercent != nil {
		_, total := shared.ApplyDiscount(subtotal, discountPercent)
		updates["total"] = total
	}

	if len(updates) == 0 {
		return existing, nil
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.Update(ctx, id, updates); err != nil {
			return fmt.Errorf("update proposal: %w", err)
		}
		if req.Items != nil {
			if err := repo.DeleteItems(ctx, id); err != nil {
				return fmt.Errorf("delete proposal items: %w", err)
			}
			for _, item := range itemsToInsert {
				item.ProposalID = id
				if _, err := repo.InsertItem(ctx, item); err != nil {
					return fmt.Errorf("insert proposal item: %w", err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.repo.Get(ctx, id)
}

// buildItems materialises line items from the request, applying the
// price/total fallbacks, and returns the summed proposal subtotal.
func buildItems(reqs []CreateProposalItemReq) ([]ProposalItem, float64) {
	var items []ProposalItem
	var proposalSubtotal float64

	for i, req := range reqs {
		unitPrice := req.Price
		if req.UnitPrice != nil {
			unitPrice = *req.UnitPrice
		}

		subtotal, _, total := shared.CalculateLineTotals(req.Quantity, unitPrice, req.DiscountPercent)
		if req.Total != nil {
			total = *req.Total
		}

		item := ProposalItem{
			ProductID:       req.ProductID,
			Description:     req.Description,
			Quantity:        req.Quantity,
			UnitPrice:       unitPrice,
			DiscountPercent: req.DiscountPercent,
			Subtotal:        subtotal,
			Total:           total,
			LineOrder:       req.LineOrder,
		}
		if item.LineOrder == 0 {
			item.LineOrder = i + 1
		}

		proposalSubtotal += total
		items = append(items, item)
	}

	return items, proposalSubtotal
}
