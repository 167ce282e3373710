// Package docgen renders the premium proposal document and opens digital
// signature envelopes. Both actions are gated on discount approval and the
// gate is re-evaluated on every call; a revoked approval blocks the next
// request even if a document was generated before.
package docgen

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/vendaflow-erp/vendaflow/internal/authz"
	"github.com/vendaflow-erp/vendaflow/internal/platform/httpx"
	"github.com/vendaflow-erp/vendaflow/internal/sales/proposals"
)

// BlockedReason is surfaced to the UI so the disabled control can explain
// itself instead of failing silently.
const BlockedReason = "requires discount approval"

const signatureTTL = 72 * time.Hour

// Gate decides whether premium actions are permitted for a proposal.
type Gate interface {
	CanGeneratePremiumArtifact(ctx context.Context, p *proposals.Proposal) (bool, error)
}

// SignatureEnvelope is the handle returned when a signature flow starts.
// Delivery of the envelope to the signer is an external concern.
type SignatureEnvelope struct {
	ID             uuid.UUID `json:"id"`
	ProposalID     int64     `json:"proposal_id"`
	ProposalNumber string    `json:"proposal_number"`
	RequestedBy    int64     `json:"requested_by"`
	CreatedAt      time.Time `json:"created_at"`
	ExpiresAt      time.Time `json:"expires_at"`
}

type Service struct {
	gate    Gate
	tmpl    *template.Template
	printer *message.Printer
	now     func() time.Time
}

func NewService(gate Gate) (*Service, error) {
	printer := message.NewPrinter(language.BrazilianPortuguese)
	tmpl := template.New("premium").Funcs(template.FuncMap{
		"money": func(v float64) string {
			return printer.Sprintf("R$ %.2f", v)
		},
		"percent": func(v float64) string {
			return printer.Sprintf("%.2f%%", v)
		},
	})

	tmpl, err := tmpl.Parse(premiumTemplate)
	if err != nil {
		return nil, fmt.Errorf("docgen: parse template: %w", err)
	}

	return &Service{
		gate:    gate,
		tmpl:    tmpl,
		printer: printer,
		now:     time.Now,
	}, nil
}

// RenderPremium produces the formatted proposal document, or Conflict when
// the discount gate blocks it.
func (s *Service) RenderPremium(ctx context.Context, p *proposals.Proposal) ([]byte, error) {
	if err := s.checkGate(ctx, p); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, p); err != nil {
		return nil, fmt.Errorf("docgen: render: %w", err)
	}
	return buf.Bytes(), nil
}

// StartSignature opens a signature envelope for the proposal, or Conflict
// when the discount gate blocks it.
func (s *Service) StartSignature(ctx context.Context, p *proposals.Proposal, actor authz.Actor) (*SignatureEnvelope, error) {
	if err := s.checkGate(ctx, p); err != nil {
		return nil, err
	}

	now := s.now()
	return &SignatureEnvelope{
		ID:             uuid.New(),
		ProposalID:     p.ID,
		ProposalNumber: p.Number,
		RequestedBy:    actor.ID,
		CreatedAt:      now,
		ExpiresAt:      now.Add(signatureTTL),
	}, nil
}

func (s *Service) checkGate(ctx context.Context, p *proposals.Proposal) error {
	allowed, err := s.gate.CanGeneratePremiumArtifact(ctx, p)
	if err != nil {
		return fmt.Errorf("docgen: evaluate gate: %w", err)
	}
	if !allowed {
		return fmt.Errorf("%w: %s", httpx.ErrConflict, BlockedReason)
	}
	return nil
}

const premiumTemplate = `<!DOCTYPE html>
<html lang="pt-BR">
<head>
<meta charset="utf-8">
<title>Proposta {{.Number}}</title>
</head>
<body>
<h1>Proposta Comercial {{.Number}}</h1>
{{if .ValidUntil}}<p>Válida até {{.ValidUntil.Format "02/01/2006"}}</p>{{end}}
<table>
<thead>
<tr><th>Produto</th><th>Qtd.</th><th>Preço unitário</th><th>Desconto</th><th>Total</th></tr>
</thead>
<tbody>
{{range .Items}}
<tr>
<td>{{if .Description}}{{.Description}}{{else}}{{.ProductName}}{{end}}</td>
<td>{{.Quantity}}</td>
<td>{{money .UnitPrice}}</td>
<td>{{percent .DiscountPercent}}</td>
<td>{{money .Total}}</td>
</tr>
{{end}}
</tbody>
</table>
<p>Subtotal: {{money .Subtotal}}</p>
<p>Desconto: {{percent .DiscountPercent}}</p>
<p><strong>Total: {{money .Total}}</strong></p>
{{if .Notes}}<p>{{.Notes}}</p>{{end}}
</body>
</html>
`
