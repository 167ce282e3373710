package reminders

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	// ListPending returns open proposals (draft or sent) holding a validity date.
	ListPending(ctx context.Context) ([]PendingProposal, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) ListPending(ctx context.Context) ([]PendingProposal, error) {
	const query = `
		SELECT p.id, p.number, p.owner_id, c.name, p.valid_until
		FROM proposals p
		JOIN clients c ON p.client_id = c.id
		WHERE p.status IN ('DRAFT', 'SENT')
		  AND p.valid_until IS NOT NULL
		ORDER BY p.valid_until ASC, p.id ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []PendingProposal
	for rows.Next() {
		var p PendingProposal
		if err := rows.Scan(&p.ProposalID, &p.Number, &p.OwnerID, &p.ClientName, &p.ValidUntil); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}
