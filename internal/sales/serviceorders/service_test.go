package serviceorders

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vendaflow-erp/vendaflow/internal/authz"
	"github.com/vendaflow-erp/vendaflow/internal/platform/httpx"
	"github.com/vendaflow-erp/vendaflow/internal/sales/proposals"
)

type memoryOrderRepo struct {
	orders     map[int64]ServiceOrder
	items      map[int64][]WorkItem
	byProposal map[int64]int64
	seqs       map[string]int64
	nextID     int64
}

func newMemoryOrderRepo() *memoryOrderRepo {
	return &memoryOrderRepo{
		orders:     make(map[int64]ServiceOrder),
		items:      make(map[int64][]WorkItem),
		byProposal: make(map[int64]int64),
		seqs:       make(map[string]int64),
	}
}

func (r *memoryOrderRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, r)
}

func (r *memoryOrderRepo) Get(ctx context.Context, id int64) (*ServiceOrder, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	o.Items = append([]WorkItem(nil), r.items[id]...)
	return &o, nil
}

func (r *memoryOrderRepo) List(ctx context.Context, filter ListFilter) ([]ServiceOrder, int, error) {
	var result []ServiceOrder
	for _, o := range r.orders {
		if filter.Status != nil && o.Status != *filter.Status {
			continue
		}
		result = append(result, o)
	}
	return result, len(result), nil
}

func (r *memoryOrderRepo) Create(ctx context.Context, o ServiceOrder) (int64, error) {
	if _, exists := r.byProposal[o.ProposalID]; exists {
		return 0, ErrDuplicateProposal
	}
	r.nextID++
	o.ID = r.nextID
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	r.orders[o.ID] = o
	r.byProposal[o.ProposalID] = o.ID
	return o.ID, nil
}

func (r *memoryOrderRepo) InsertItem(ctx context.Context, item WorkItem) (int64, error) {
	r.nextID++
	item.ID = r.nextID
	r.items[item.OrderID] = append(r.items[item.OrderID], item)
	return item.ID, nil
}

func (r *memoryOrderRepo) UpdateStatus(ctx context.Context, id int64, status OrderStatus) error {
	o, ok := r.orders[id]
	if !ok {
		return ErrNotFound
	}
	o.Status = status
	r.orders[id] = o
	return nil
}

func (r *memoryOrderRepo) UpdateProgress(ctx context.Context, id int64, completedItems int) error {
	o, ok := r.orders[id]
	if !ok {
		return ErrNotFound
	}
	o.CompletedItems = completedItems
	r.orders[id] = o
	return nil
}

func (r *memoryOrderRepo) ListEligibleProposals(ctx context.Context) ([]EligibleProposal, error) {
	return nil, nil
}

func (r *memoryOrderRepo) NextSequence(ctx context.Context, docType string) (int64, error) {
	r.seqs[docType]++
	return r.seqs[docType], nil
}

type stubProposalSource struct {
	proposals map[int64]*proposals.Proposal
}

func (s *stubProposalSource) Get(ctx context.Context, id int64) (*proposals.Proposal, error) {
	p, ok := s.proposals[id]
	if !ok {
		return nil, proposals.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func newTestService() (*Service, *memoryOrderRepo, *stubProposalSource) {
	repo := newMemoryOrderRepo()
	source := &stubProposalSource{proposals: make(map[int64]*proposals.Proposal)}
	return NewService(repo, source), repo, source
}

func approvedProposal(id int64) *proposals.Proposal {
	desc := "installation"
	return &proposals.Proposal{
		ID:       id,
		Number:   "VND-000001",
		OwnerID:  1,
		ClientID: 10,
		Status:   proposals.ProposalStatusApproved,
		Subtotal: 300,
		Total:    300,
		Items: []proposals.ProposalItem{
			{ProductID: 1, Description: &desc, Quantity: 2, UnitPrice: 100, Total: 200, LineOrder: 1},
			{ProductID: 2, Quantity: 1, UnitPrice: 100, Total: 100, LineOrder: 2},
		},
	}
}

func TestCreateFromProposalCopiesItems(t *testing.T) {
	svc, _, source := newTestService()
	source.proposals[1] = approvedProposal(1)

	o, err := svc.CreateFromProposal(context.Background(), authz.Actor{ID: 2}, CreateServiceOrderRequest{ProposalID: 1})
	require.NoError(t, err)

	require.Equal(t, "OS-000001", o.Number)
	require.Equal(t, OrderStatusPending, o.Status)
	require.Equal(t, OrderPriorityNormal, o.Priority)
	require.Equal(t, int64(1), o.ProposalID)
	require.Equal(t, int64(10), o.ClientID)
	require.Equal(t, 2, o.TotalItems)
	require.Equal(t, 0, o.CompletedItems)
	require.Len(t, o.Items, 2)
	require.Equal(t, int64(1), o.Items[0].ProductID)
	require.InDelta(t, 200.0, o.Items[0].Total, 1e-9)
}

func TestCreateFromProposalRejectsSecondOrder(t *testing.T) {
	svc, _, source := newTestService()
	source.proposals[1] = approvedProposal(1)

	_, err := svc.CreateFromProposal(context.Background(), authz.Actor{ID: 2}, CreateServiceOrderRequest{ProposalID: 1})
	require.NoError(t, err)

	_, err = svc.CreateFromProposal(context.Background(), authz.Actor{ID: 2}, CreateServiceOrderRequest{ProposalID: 1})
	require.ErrorIs(t, err, httpx.ErrConflict)
}

func TestCreateFromProposalRequiresApprovedStatus(t *testing.T) {
	svc, _, source := newTestService()
	p := approvedProposal(1)
	p.Status = proposals.ProposalStatusSent
	source.proposals[1] = p

	_, err := svc.CreateFromProposal(context.Background(), authz.Actor{ID: 2}, CreateServiceOrderRequest{ProposalID: 1})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestCreateFromProposalUnknownProposal(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.CreateFromProposal(context.Background(), authz.Actor{ID: 2}, CreateServiceOrderRequest{ProposalID: 404})
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestCreateFromProposalHonoursPriority(t *testing.T) {
	svc, _, source := newTestService()
	source.proposals[1] = approvedProposal(1)

	high := OrderPriorityHigh
	o, err := svc.CreateFromProposal(context.Background(), authz.Actor{ID: 2}, CreateServiceOrderRequest{ProposalID: 1, Priority: &high})
	require.NoError(t, err)
	require.Equal(t, OrderPriorityHigh, o.Priority)
}

func TestTransitionLifecycle(t *testing.T) {
	svc, _, source := newTestService()
	source.proposals[1] = approvedProposal(1)

	o, err := svc.CreateFromProposal(context.Background(), authz.Actor{ID: 2}, CreateServiceOrderRequest{ProposalID: 1})
	require.NoError(t, err)

	o, err = svc.Transition(context.Background(), o.ID, OrderStatusInProgress)
	require.NoError(t, err)
	require.Equal(t, OrderStatusInProgress, o.Status)

	o, err = svc.Transition(context.Background(), o.ID, OrderStatusPaused)
	require.NoError(t, err)
	require.Equal(t, OrderStatusPaused, o.Status)

	// A paused order cannot complete without resuming first.
	_, err = svc.Transition(context.Background(), o.ID, OrderStatusCompleted)
	require.ErrorIs(t, err, httpx.ErrValidation)

	o, err = svc.Transition(context.Background(), o.ID, OrderStatusInProgress)
	require.NoError(t, err)
	o, err = svc.Transition(context.Background(), o.ID, OrderStatusCompleted)
	require.NoError(t, err)
	require.Equal(t, OrderStatusCompleted, o.Status)

	_, err = svc.Transition(context.Background(), o.ID, OrderStatusInProgress)
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestUpdateProgressClampsToItemCount(t *testing.T) {
	svc, _, source := newTestService()
	source.proposals[1] = approvedProposal(1)

	o, err := svc.CreateFromProposal(context.Background(), authz.Actor{ID: 2}, CreateServiceOrderRequest{ProposalID: 1})
	require.NoError(t, err)

	o, err = svc.UpdateProgress(context.Background(), o.ID, 5)
	require.NoError(t, err)
	require.Equal(t, 2, o.CompletedItems)

	o, err = svc.UpdateProgress(context.Background(), o.ID, -1)
	require.NoError(t, err)
	require.Equal(t, 0, o.CompletedItems)
}

func TestUpdateProgressDoesNotCompleteOrder(t *testing.T) {
	svc, _, source := newTestService()
	source.proposals[1] = approvedProposal(1)

	o, err := svc.CreateFromProposal(context.Background(), authz.Actor{ID: 2}, CreateServiceOrderRequest{ProposalID: 1})
	require.NoError(t, err)

	o, err = svc.UpdateProgress(context.Background(), o.ID, 2)
	require.NoError(t, err)
	require.Equal(t, 2, o.CompletedItems)
	require.Equal(t, OrderStatusPending, o.Status)
	require.InDelta(t, 100.0, o.Progress(), 1e-9)
}

func TestUpdateProgressRejectedOnTerminalOrder(t *testing.T) {
	svc, repo, source := newTestService()
	source.proposals[1] = approvedProposal(1)

	o, err := svc.CreateFromProposal(context.Background(), authz.Actor{ID: 2}, CreateServiceOrderRequest{ProposalID: 1})
	require.NoError(t, err)

	stored := repo.orders[o.ID]
	stored.Status = OrderStatusCancelled
	repo.orders[o.ID] = stored

	_, err = svc.UpdateProgress(context.Background(), o.ID, 1)
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestOverdueFlag(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)
	tomorrow := now.AddDate(0, 0, 1)

	o := ServiceOrder{Status: OrderStatusInProgress, ExpectedDate: &yesterday}
	require.True(t, o.Overdue(now))

	o.ExpectedDate = &tomorrow
	require.False(t, o.Overdue(now))

	// Today is not overdue yet.
	today := now.Add(-time.Hour)
	o.ExpectedDate = &today
	require.False(t, o.Overdue(now))

	o.ExpectedDate = &yesterday
	o.Status = OrderStatusCompleted
	require.False(t, o.Overdue(now))

	o.ExpectedDate = nil
	o.Status = OrderStatusInProgress
	require.False(t, o.Overdue(now))
}

func TestViewDerivedFields(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	past := now.AddDate(0, 0, -3)

	view := NewView(ServiceOrder{
		Status:         OrderStatusInProgress,
		ExpectedDate:   &past,
		TotalItems:     4,
		CompletedItems: 1,
	}, now)

	require.InDelta(t, 25.0, view.ProgressPercent, 1e-9)
	require.True(t, view.Overdue)
}
