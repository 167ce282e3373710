package proposals

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vendaflow-erp/vendaflow/internal/authz"
	"github.com/vendaflow-erp/vendaflow/internal/platform/httpx"
)

type memoryProposalRepo struct {
	proposals map[int64]Proposal
	items     map[int64][]ProposalItem
	details   map[int64]string
	seqs      map[string]int64
	nextID    int64
}

func newMemoryProposalRepo() *memoryProposalRepo {
	return &memoryProposalRepo{
		proposals: make(map[int64]Proposal),
		items:     make(map[int64][]ProposalItem),
		details:   make(map[int64]string),
		seqs:      make(map[string]int64),
	}
}

func (r *memoryProposalRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, r)
}

func (r *memoryProposalRepo) Get(ctx context.Context, id int64) (*Proposal, error) {
	p, ok := r.proposals[id]
	if !ok {
		return nil, ErrNotFound
	}
	p.Items = append([]ProposalItem(nil), r.items[id]...)
	return &p, nil
}

func (r *memoryProposalRepo) List(ctx context.Context, filter ListFilter) ([]ProposalWithDetails, int, error) {
	var result []ProposalWithDetails
	for id, p := range r.proposals {
		if filter.OwnerID != nil && p.OwnerID != *filter.OwnerID {
			continue
		}
		if filter.Status != nil && p.Status != *filter.Status {
			continue
		}
		p.Items = append([]ProposalItem(nil), r.items[id]...)
		result = append(result, ProposalWithDetails{Proposal: p, ClientName: r.details[id]})
	}
	return result, len(result), nil
}

func (r *memoryProposalRepo) Create(ctx context.Context, p Proposal) (int64, error) {
	r.nextID++
	p.ID = r.nextID
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	r.proposals[p.ID] = p
	return p.ID, nil
}

func (r *memoryProposalRepo) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	p, ok := r.proposals[id]
	if !ok {
		return ErrNotFound
	}
	if v, ok := updates["client_id"]; ok {
		p.ClientID = v.(int64)
	}
	if v, ok := updates["status"]; ok {
		p.Status = v.(ProposalStatus)
	}
	if v, ok := updates["valid_until"]; ok {
		t := v.(time.Time)
		p.ValidUntil = &t
	}
	if v, ok := updates["notes"]; ok {
		n := v.(string)
		p.Notes = &n
	}
	if v, ok := updates["subtotal"]; ok {
		p.Subtotal = v.(float64)
	}
	if v, ok := updates["discount_percent"]; ok {
		p.DiscountPercent = v.(float64)
	}
	if v, ok := updates["total"]; ok {
		p.Total = v.(float64)
	}
	p.UpdatedAt = time.Now()
	r.proposals[id] = p
	return nil
}

func (r *memoryProposalRepo) InsertItem(ctx context.Context, item ProposalItem) (int64, error) {
	r.nextID++
	item.ID = r.nextID
	r.items[item.ProposalID] = append(r.items[item.ProposalID], item)
	return item.ID, nil
}

func (r *memoryProposalRepo) DeleteItems(ctx context.Context, proposalID int64) error {
	delete(r.items, proposalID)
	return nil
}

func (r *memoryProposalRepo) NextSequence(ctx context.Context, docType string) (int64, error) {
	r.seqs[docType]++
	return r.seqs[docType], nil
}

var testPolicy = authz.Policy{RequiredRole: "MANAGER", RequiredUserID: 99}

func newTestService() (*Service, *memoryProposalRepo) {
	repo := newMemoryProposalRepo()
	return NewService(repo, testPolicy), repo
}

func createRequest(discount float64) CreateProposalRequest {
	return CreateProposalRequest{
		ClientID:        10,
		DiscountPercent: discount,
		Items: []CreateProposalItemReq{
			{ProductID: 1, Quantity: 2, Price: 100},
			{ProductID: 2, Quantity: 1, Price: 50},
		},
	}
}

func TestCreateAssignsSequentialNumbers(t *testing.T) {
	svc, _ := newTestService()
	seller := authz.Actor{ID: 1, Role: "SELLER"}

	first, err := svc.Create(context.Background(), seller, createRequest(0))
	require.NoError(t, err)
	require.Equal(t, "VND-000001", first.Number)
	require.Equal(t, ProposalStatusDraft, first.Status)

	second, err := svc.Create(context.Background(), seller, createRequest(0))
	require.NoError(t, err)
	require.Equal(t, "VND-000002", second.Number)
}

func TestCreateComputesTotals(t *testing.T) {
	svc, _ := newTestService()
	seller := authz.Actor{ID: 1, Role: "SELLER"}

	p, err := svc.Create(context.Background(), seller, createRequest(10))
	require.NoError(t, err)

	require.InDelta(t, 250.0, p.Subtotal, 1e-9)
	require.InDelta(t, 225.0, p.Total, 1e-9)
	require.Len(t, p.Items, 2)
	require.Equal(t, 1, p.Items[0].LineOrder)
	require.Equal(t, 2, p.Items[1].LineOrder)
}

func TestCreateAppliesLineDiscounts(t *testing.T) {
	svc, _ := newTestService()
	seller := authz.Actor{ID: 1, Role: "SELLER"}

	p, err := svc.Create(context.Background(), seller, CreateProposalRequest{
		ClientID: 10,
		Items: []CreateProposalItemReq{
			{ProductID: 1, Quantity: 4, Price: 25, DiscountPercent: 50},
		},
	})
	require.NoError(t, err)

	require.InDelta(t, 100.0, p.Items[0].Subtotal, 1e-9)
	require.InDelta(t, 50.0, p.Items[0].Total, 1e-9)
	require.InDelta(t, 50.0, p.Subtotal, 1e-9)
}

func TestGetEnforcesOwnership(t *testing.T) {
	svc, _ := newTestService()
	owner := authz.Actor{ID: 1, Role: "SELLER"}

	p, err := svc.Create(context.Background(), owner, createRequest(0))
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), authz.Actor{ID: 2, Role: "SELLER"}, p.ID)
	require.ErrorIs(t, err, httpx.ErrForbidden)

	// Role without the allow-listed identity grants nothing.
	_, err = svc.Get(context.Background(), authz.Actor{ID: 3, Role: "MANAGER"}, p.ID)
	require.ErrorIs(t, err, httpx.ErrForbidden)

	got, err := svc.Get(context.Background(), authz.Actor{ID: 99, Role: "MANAGER"}, p.ID)
	require.NoError(t, err)
	require.Equal(t, p.ID, got.ID)
}

func TestGetNotFound(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Get(context.Background(), authz.Actor{ID: 1}, 404)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestListNarrowsToOwnProposals(t *testing.T) {
	svc, _ := newTestService()
	alice := authz.Actor{ID: 1, Role: "SELLER"}
	bob := authz.Actor{ID: 2, Role: "SELLER"}

	_, err := svc.Create(context.Background(), alice, createRequest(0))
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), bob, createRequest(0))
	require.NoError(t, err)

	// An "all" request from a regular actor silently collapses to their own.
	list, total, err := svc.List(context.Background(), alice, ListProposalsRequest{All: true})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, alice.ID, list[0].OwnerID)

	// Same for a request targeting someone else.
	other := bob.ID
	list, _, err = svc.List(context.Background(), alice, ListProposalsRequest{TargetUserID: &other})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, alice.ID, list[0].OwnerID)
}

func TestListPrivilegedActorSeesAll(t *testing.T) {
	svc, _ := newTestService()
	alice := authz.Actor{ID: 1, Role: "SELLER"}
	bob := authz.Actor{ID: 2, Role: "SELLER"}
	supervisor := authz.Actor{ID: 99, Role: "MANAGER"}

	_, err := svc.Create(context.Background(), alice, createRequest(0))
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), bob, createRequest(0))
	require.NoError(t, err)

	_, total, err := svc.List(context.Background(), supervisor, ListProposalsRequest{All: true})
	require.NoError(t, err)
	require.Equal(t, 2, total)

	target := bob.ID
	list, _, err := svc.List(context.Background(), supervisor, ListProposalsRequest{TargetUserID: &target})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, bob.ID, list[0].OwnerID)
}

func TestUpdateStatusTransitions(t *testing.T) {
	svc, _ := newTestService()
	owner := authz.Actor{ID: 1, Role: "SELLER"}

	p, err := svc.Create(context.Background(), owner, createRequest(0))
	require.NoError(t, err)

	sent := ProposalStatusSent
	p, err = svc.Update(context.Background(), owner, p.ID, UpdateProposalRequest{Status: &sent})
	require.NoError(t, err)
	require.Equal(t, ProposalStatusSent, p.Status)

	// DRAFT is not reachable again.
	draft := ProposalStatusDraft
	_, err = svc.Update(context.Background(), owner, p.ID, UpdateProposalRequest{Status: &draft})
	require.ErrorIs(t, err, httpx.ErrValidation)

	approved := ProposalStatusApproved
	p, err = svc.Update(context.Background(), owner, p.ID, UpdateProposalRequest{Status: &approved})
	require.NoError(t, err)
	require.Equal(t, ProposalStatusApproved, p.Status)
}

func TestUpdateRejectsEditsOnTerminalProposal(t *testing.T) {
	svc, repo := newTestService()
	owner := authz.Actor{ID: 1, Role: "SELLER"}

	p, err := svc.Create(context.Background(), owner, createRequest(0))
	require.NoError(t, err)

	stored := repo.proposals[p.ID]
	stored.Status = ProposalStatusCancelled
	repo.proposals[p.ID] = stored

	notes := "late edit"
	_, err = svc.Update(context.Background(), owner, p.ID, UpdateProposalRequest{Notes: &notes})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestUpdateRecomputesTotals(t *testing.T) {
	svc, _ := newTestService()
	owner := authz.Actor{ID: 1, Role: "SELLER"}

	p, err := svc.Create(context.Background(), owner, createRequest(0))
	require.NoError(t, err)
	require.InDelta(t, 250.0, p.Total, 1e-9)

	discount := 20.0
	p, err = svc.Update(context.Background(), owner, p.ID, UpdateProposalRequest{DiscountPercent: &discount})
	require.NoError(t, err)
	require.InDelta(t, 250.0, p.Subtotal, 1e-9)
	require.InDelta(t, 200.0, p.Total, 1e-9)

	items := []CreateProposalItemReq{{ProductID: 3, Quantity: 1, Price: 500}}
	p, err = svc.Update(context.Background(), owner, p.ID, UpdateProposalRequest{Items: &items})
	require.NoError(t, err)
	require.InDelta(t, 500.0, p.Subtotal, 1e-9)
	require.InDelta(t, 400.0, p.Total, 1e-9)
	require.Len(t, p.Items, 1)
}

func TestUpdateKeepsNumber(t *testing.T) {
	svc, _ := newTestService()
	owner := authz.Actor{ID: 1, Role: "SELLER"}

	p, err := svc.Create(context.Background(), owner, createRequest(0))
	require.NoError(t, err)

	notes := "updated"
	updated, err := svc.Update(context.Background(), owner, p.ID, UpdateProposalRequest{Notes: &notes})
	require.NoError(t, err)
	require.Equal(t, p.Number, updated.Number)
}

func TestUpdateUnknownStatus(t *testing.T) {
	svc, _ := newTestService()
	owner := authz.Actor{ID: 1, Role: "SELLER"}

	p, err := svc.Create(context.Background(), owner, createRequest(0))
	require.NoError(t, err)

	bogus := ProposalStatus("SHIPPED")
	_, err = svc.Update(context.Background(), owner, p.ID, UpdateProposalRequest{Status: &bogus})
	require.ErrorIs(t, err, httpx.ErrValidation)
	require.False(t, errors.Is(err, httpx.ErrNotFound))
}
