package proposals

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vendaflow-erp/vendaflow/internal/platform/db"
)

var ErrNotFound = errors.New("record not found")

type ListFilter struct {
	OwnerID *int64
	Status  *ProposalStatus
	Limit   int
	Offset  int
}

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Proposal, error)
	List(ctx context.Context, filter ListFilter) ([]ProposalWithDetails, int, error)
	Create(ctx context.Context, p Proposal) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]interface{}) error
	InsertItem(ctx context.Context, item ProposalItem) (int64, error)
	DeleteItems(ctx context.Context, proposalID int64) error
	NextSequence(ctx context.Context, docType string) (int64, error)
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

func (r *repository) Get(ctx context.Context, id int64) (*Proposal, error) {
	const query = `
		SELECT id, number, owner_id, client_id, status, valid_until, notes,
		       subtotal, discount_percent, total, created_at, updated_at
		FROM proposals
		WHERE id = $1`

	var p Proposal
	err := r.db.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Number, &p.OwnerID, &p.ClientID, &p.Status, &p.ValidUntil, &p.Notes,
		&p.Subtotal, &p.DiscountPercent, &p.Total, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	items, err := r.items(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Items = items
	return &p, nil
}

func (r *repository) items(ctx context.Context, proposalID int64) ([]ProposalItem, error) {
	const query = `
		SELECT i.id, i.proposal_id, i.product_id, pr.name, i.description,
		       i.quantity, i.unit_price, i.discount_percent, i.subtotal, i.total, i.line_order
		FROM proposal_items i
		JOIN products pr ON i.product_id = pr.id
		WHERE i.proposal_id = $1
		ORDER BY i.line_order, i.id`

	rows, err := r.db.Query(ctx, query, proposalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ProposalItem
	for rows.Next() {
		var item ProposalItem
		if err := rows.Scan(
			&item.ID, &item.ProposalID, &item.ProductID, &item.ProductName, &item.Description,
			&item.Quantity, &item.UnitPrice, &item.DiscountPercent, &item.Subtotal, &item.Total, &item.LineOrder,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]ProposalWithDetails, int, error) {
	conditions := []string{"1=1"}
	var args []interface{}
	argPos := 1

	if filter.OwnerID != nil {
		conditions = append(conditions, fmt.Sprintf("p.owner_id = $%d", argPos))
		args = append(args, *filter.OwnerID)
		argPos++
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("p.status = $%d", argPos))
		args = append(args, *filter.Status)
		argPos++
	}

	whereClause := "WHERE " + conditions[0]
	for i := 1; i < len(conditions); i++ {
		whereClause += " AND " + conditions[i]
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM proposals p %s", whereClause)
	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	query := fmt.Sprintf(`
		SELECT p.id, p.number, p.owner_id, p.client_id, p.status, p.valid_until, p.notes,
		       p.subtotal, p.discount_percent, p.total, p.created_at, p.updated_at,
		       c.name AS client_name,
		       u.full_name AS owner_name
		FROM proposals p
		JOIN clients c ON p.client_id = c.id
		JOIN users u ON p.owner_id = u.id
		%s
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $%d OFFSET $%d
	`, whereClause, argPos, argPos+1)
	args = append(args, limit, filter.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []ProposalWithDetails
	for rows.Next() {
		var p ProposalWithDetails
		if err := rows.Scan(
			&p.ID, &p.Number, &p.OwnerID, &p.ClientID, &p.Status, &p.ValidUntil, &p.Notes,
			&p.Subtotal, &p.DiscountPercent, &p.Total, &p.CreatedAt, &p.UpdatedAt,
			&p.ClientName, &p.OwnerName,
		); err != nil {
			return nil, 0, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for i := range result {
		items, err := r.items(ctx, result[i].ID)
		if err != nil {
			return nil, 0, err
		}
		result[i].Items = items
	}

	return result, total, nil
}

func (r *repository) Create(ctx context.Context, p Proposal) (int64, error) {
	const query = `
		INSERT INTO proposals (number, owner_id, client_id, status, valid_until, notes,
		                       subtotal, discount_percent, total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	var id int64
	err := r.db.QueryRow(ctx, query,
		p.Number, p.OwnerID, p.ClientID, p.Status, p.ValidUntil, p.Notes,
		p.Subtotal, p.DiscountPercent, p.Total,
	).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	query := "UPDATE proposals SET updated_at = NOW()"
	var args []interface{}
	argPos := 1

	for _, column := range []string{"client_id", "status", "valid_until", "notes", "subtotal", "discount_percent", "total"} {
		if v, ok := updates[column]; ok {
			query += fmt.Sprintf(", %s = $%d", column, argPos)
			args = append(args, v)
			argPos++
		}
	}

	query += fmt.Sprintf(" WHERE id = $%d", argPos)
	args = append(args, id)

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) InsertItem(ctx context.Context, item ProposalItem) (int64, error) {
	const query = `
		INSERT INTO proposal_items (proposal_id, product_id, description, quantity,
		                            unit_price, discount_percent, subtotal, total, line_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	var id int64
	err := r.db.QueryRow(ctx, query,
		item.ProposalID, item.ProductID, item.Description, item.Quantity,
		item.UnitPrice, item.DiscountPercent, item.Subtotal, item.Total, item.LineOrder,
	).Scan(&id)
	return id, err
}

func (r *repository) DeleteItems(ctx context.Context, proposalID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM proposal_items WHERE proposal_id = $1`, proposalID)
	return err
}

// NextSequence atomically advances the per-document-type counter. Safe under
// concurrent creation, unlike reading the last issued number back.
func (r *repository) NextSequence(ctx context.Context, docType string) (int64, error) {
	var seq int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO document_sequences (doc_type, seq)
		VALUES ($1, 1)
		ON CONFLICT (doc_type)
		DO UPDATE SET seq = document_sequences.seq + 1
		RETURNING seq
	`, docType).Scan(&seq)
	return seq, err
}
