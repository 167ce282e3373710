package docgen

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vendaflow-erp/vendaflow/internal/authz"
	"github.com/vendaflow-erp/vendaflow/internal/platform/httpx"
	"github.com/vendaflow-erp/vendaflow/internal/sales/proposals"
)

type stubGate struct {
	allowed bool
	calls   int
}

func (g *stubGate) CanGeneratePremiumArtifact(ctx context.Context, p *proposals.Proposal) (bool, error) {
	g.calls++
	return g.allowed, nil
}

func sampleProposal() *proposals.Proposal {
	return &proposals.Proposal{
		ID:              1,
		Number:          "VND-000042",
		OwnerID:         1,
		Status:          proposals.ProposalStatusSent,
		Subtotal:        1000,
		DiscountPercent: 10,
		Total:           900,
		Items: []proposals.ProposalItem{
			{ProductID: 1, ProductName: "Suporte anual", Quantity: 1, UnitPrice: 1000, Total: 1000, LineOrder: 1},
		},
	}
}

func TestRenderPremiumBlockedByGate(t *testing.T) {
	gate := &stubGate{allowed: false}
	svc, err := NewService(gate)
	require.NoError(t, err)

	_, err = svc.RenderPremium(context.Background(), sampleProposal())
	require.ErrorIs(t, err, httpx.ErrConflict)
	require.Contains(t, err.Error(), BlockedReason)
}

func TestRenderPremiumProducesDocument(t *testing.T) {
	gate := &stubGate{allowed: true}
	svc, err := NewService(gate)
	require.NoError(t, err)

	doc, err := svc.RenderPremium(context.Background(), sampleProposal())
	require.NoError(t, err)

	html := string(doc)
	require.Contains(t, html, "VND-000042")
	require.Contains(t, html, "Suporte anual")
	require.Contains(t, html, "R$")
}

func TestGateReEvaluatedOnEveryCall(t *testing.T) {
	gate := &stubGate{allowed: true}
	svc, err := NewService(gate)
	require.NoError(t, err)

	p := sampleProposal()
	_, err = svc.RenderPremium(context.Background(), p)
	require.NoError(t, err)

	// The approval was revoked between calls.
	gate.allowed = false
	_, err = svc.RenderPremium(context.Background(), p)
	require.ErrorIs(t, err, httpx.ErrConflict)
	require.Equal(t, 2, gate.calls)
}

func TestStartSignatureBlockedByGate(t *testing.T) {
	gate := &stubGate{allowed: false}
	svc, err := NewService(gate)
	require.NoError(t, err)

	_, err = svc.StartSignature(context.Background(), sampleProposal(), authz.Actor{ID: 7})
	require.ErrorIs(t, err, httpx.ErrConflict)
}

func TestStartSignatureOpensEnvelope(t *testing.T) {
	gate := &stubGate{allowed: true}
	svc, err := NewService(gate)
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC) }

	env, err := svc.StartSignature(context.Background(), sampleProposal(), authz.Actor{ID: 7})
	require.NoError(t, err)

	require.NotEmpty(t, strings.TrimSpace(env.ID.String()))
	require.Equal(t, int64(1), env.ProposalID)
	require.Equal(t, "VND-000042", env.ProposalNumber)
	require.Equal(t, int64(7), env.RequestedBy)
	require.Equal(t, 72*time.Hour, env.ExpiresAt.Sub(env.CreatedAt))
}
