package serviceorders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vendaflow-erp/vendaflow/internal/authz"
	"github.com/vendaflow-erp/vendaflow/internal/platform/httpx"
	"github.com/vendaflow-erp/vendaflow/internal/sales/proposals"
)

const orderDocType = "OS"

// ProposalSource reads proposals without authorization filtering; spawning
// an order is open to any authenticated user once the proposal is approved.
type ProposalSource interface {
	Get(ctx context.Context, id int64) (*proposals.Proposal, error)
}

// Service spawns service orders from approved proposals and drives their
// execution lifecycle.
type Service struct {
	repo      Repository
	proposals ProposalSource
	now       func() time.Time
}

func NewService(repo Repository, source ProposalSource) *Service {
	return &Service{repo: repo, proposals: source, now: time.Now}
}

// CreateFromProposal spawns the single service order for an approved
// proposal, copying its line items into trackable work items. The unique
// constraint on the proposal reference decides the winner under concurrency;
// the loser receives Conflict.
func (s *Service) CreateFromProposal(ctx context.Context, actor authz.Actor, req CreateServiceOrderRequest) (*ServiceOrder, error) {
	p, err := s.proposals.Get(ctx, req.ProposalID)
	if err != nil {
		if errors.Is(err, proposals.ErrNotFound) {
			return nil, fmt.Errorf("%w: proposal %d", httpx.ErrNotFound, req.ProposalID)
		}
		return nil, fmt.Errorf("get proposal: %w", err)
	}

	if p.Status != proposals.ProposalStatusApproved {
		return nil, fmt.Errorf("%w: only approved proposals can spawn a service order (current status %s)", httpx.ErrValidation, p.Status)
	}

	priority := OrderPriorityNormal
	if req.Priority != nil {
		if !req.Priority.Valid() {
			return nil, fmt.Errorf("%w: unknown priority %q", httpx.ErrValidation, *req.Priority)
		}
		priority = *req.Priority
	}

	seq, err := s.repo.NextSequence(ctx, orderDocType)
	if err != nil {
		return nil, fmt.Errorf("next order number: %w", err)
	}

	order := ServiceOrder{
		Number:         fmt.Sprintf("%s-%06d", orderDocType, seq),
		ProposalID:     p.ID,
		ClientID:       p.ClientID,
		Status:         OrderStatusPending,
		Priority:       priority,
		OpenDate:       s.now(),
		ExpectedDate:   req.ExpectedDate,
		TotalItems:     len(p.Items),
		CompletedItems: 0,
	}

	var orderID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		id, err := repo.Create(ctx, order)
		if err != nil {
			if errors.Is(err, ErrDuplicateProposal) {
				return fmt.Errorf("%w: %s", httpx.ErrConflict, ErrDuplicateProposal)
			}
			return fmt.Errorf("create service order: %w", err)
		}
		orderID = id

		for _, line := range p.Items {
			item := WorkItem{
				OrderID:     orderID,
				ProductID:   line.ProductID,
				Description: line.Description,
				Quantity:    line.Quantity,
				UnitPrice:   line.UnitPrice,
				Total:       line.Total,
				LineOrder:   line.LineOrder,
			}
			if _, err := repo.InsertItem(ctx, item); err != nil {
				return fmt.Errorf("insert work item: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, orderID)
}

// Get returns a service order with its work items.
func (s *Service) Get(ctx context.Context, id int64) (*ServiceOrder, error) {
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: service order %d", httpx.ErrNotFound, id)
		}
		return nil, fmt.Errorf("get service order: %w", err)
	}
	return o, nil
}

// List returns service orders matching the filter.
func (s *Service) List(ctx context.Context, req ListServiceOrdersRequest) ([]ServiceOrder, int, error) {
	return s.repo.List(ctx, ListFilter{
		Search: req.Search,
		Status: req.Status,
		Limit:  req.Limit,
		Offset: req.Offset,
	})
}

// ListEligible returns approved proposals still awaiting their service order.
func (s *Service) ListEligible(ctx context.Context) ([]EligibleProposal, error) {
	return s.repo.ListEligibleProposals(ctx)
}

// Transition moves the order to the next lifecycle state.
func (s *Service) Transition(ctx context.Context, id int64, next OrderStatus) (*ServiceOrder, error) {
	if !next.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, next)
	}

	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransition(next) {
		return nil, fmt.Errorf("%w: cannot move service order from %s to %s", httpx.ErrValidation, order.Status, next)
	}

	if err := s.repo.UpdateStatus(ctx, id, next); err != nil {
		return nil, fmt.Errorf("update service order status: %w", err)
	}
	return s.Get(ctx, id)
}

// UpdateProgress sets the completed item counter, clamped to the item count.
// Completing every item does not complete the order; that remains an
// explicit transition.
func (s *Service) UpdateProgress(ctx context.Context, id int64, completedItems int) (*ServiceOrder, error) {
	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status.Terminal() {
		return nil, fmt.Errorf("%w: service order is %s", httpx.ErrValidation, order.Status)
	}

	if completedItems < 0 {
		completedItems = 0
	}
	if completedItems > order.TotalItems {
		completedItems = order.TotalItems
	}

	if err := s.repo.UpdateProgress(ctx, id, completedItems); err != nil {
		return nil, fmt.Errorf("update service order progress: %w", err)
	}
	return s.Get(ctx, id)
}
