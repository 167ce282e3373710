package serviceorders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vendaflow-erp/vendaflow/internal/platform/db"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateProposal is raised by the unique index on proposal_id.
	// Creation relies on this constraint, not on a pre-check, so concurrent
	// creations for the same proposal cannot both succeed.
	ErrDuplicateProposal = errors.New("proposal already has a service order")
)

const uniqueViolation = "23505"

type ListFilter struct {
	Search *string
	Status *OrderStatus
	Limit  int
	Offset int
}

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*ServiceOrder, error)
	List(ctx context.Context, filter ListFilter) ([]ServiceOrder, int, error)
	Create(ctx context.Context, o ServiceOrder) (int64, error)
	InsertItem(ctx context.Context, item WorkItem) (int64, error)
	UpdateStatus(ctx context.Context, id int64, status OrderStatus) error
	UpdateProgress(ctx context.Context, id int64, completedItems int) error
	ListEligibleProposals(ctx context.Context) ([]EligibleProposal, error)
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

func (r *repository) Get(ctx context.Context, id int64) (*ServiceOrder, error) {
	const query = `
		SELECT id, number, proposal_id, client_id, status, priority, open_date,
		       expected_date, total_items, completed_items, created_at, updated_at
		FROM service_orders
		WHERE id = $1`

	var o ServiceOrder
	err := r.db.QueryRow(ctx, query, id).Scan(
		&o.ID, &o.Number, &o.ProposalID, &o.ClientID, &o.Status, &o.Priority, &o.OpenDate,
		&o.ExpectedDate, &o.TotalItems, &o.CompletedItems, &o.CreatedAt, &o.UpdatedAt,
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
	o.Items = items
	return &o, nil
}

func (r *repository) items(ctx context.Context, orderID int64) ([]WorkItem, error) {
	const query = `
		SELECT id, order_id, product_id, description, quantity, unit_price, total, line_order
		FROM service_order_items
		WHERE order_id = $1
		ORDER BY line_order, id`

	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []WorkItem
	for rows.Next() {
		var item WorkItem
		if err := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductID, &item.Description,
			&item.Quantity, &item.UnitPrice, &item.Total, &item.LineOrder,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]ServiceOrder, int, error) {
	conditions := []string{"1=1"}
	var args []interface{}
	argPos := 1

	if filter.Search != nil && *filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(so.number ILIKE $%d OR EXISTS (SELECT 1 FROM clients c WHERE c.id = so.client_id AND c.name ILIKE $%d))",
			argPos, argPos))
		args = append(args, "%"+*filter.Search+"%")
		argPos++
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("so.status = $%d", argPos))
		args = append(args, *filter.Status)
		argPos++
	}

	whereClause := "WHERE " + conditions[0]
	for i := 1; i < len(conditions); i++ {
		whereClause += " AND " + conditions[i]
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM service_orders so %s", whereClause)
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	query := fmt.Sprintf(`
		SELECT so.id, so.number, so.proposal_id, so.client_id, so.status, so.priority,
		       so.open_date, so.expected_date, so.total_items, so.completed_items,
		       so.created_at, so.updated_at
		FROM service_orders so
		%s
		ORDER BY so.created_at DESC, so.id DESC
		LIMIT $%d OFFSET $%d
	`, whereClause, argPos, argPos+1)
	args = append(args, limit, filter.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []ServiceOrder
	for rows.Next() {
		var o ServiceOrder
		if err := rows.Scan(
			&o.ID, &o.Number, &o.ProposalID, &o.ClientID, &o.Status, &o.Priority,
			&o.OpenDate, &o.ExpectedDate, &o.TotalItems, &o.CompletedItems,
			&o.CreatedAt, &o.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		result = append(result, o)
	}
	return result, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, o ServiceOrder) (int64, error) {
	const query = `
		INSERT INTO service_orders (number, proposal_id, client_id, status, priority,
		                            open_date, expected_date, total_items, completed_items)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	var id int64
	err := r.db.QueryRow(ctx, query,
		o.Number, o.ProposalID, o.ClientID, o.Status, o.Priority,
		o.OpenDate, o.ExpectedDate, o.TotalItems, o.CompletedItems,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return 0, ErrDuplicateProposal
		}
		return 0, err
	}
	return id, nil
}

func (r *repository) InsertItem(ctx context.Context, item WorkItem) (int64, error) {
	const query = `
		INSERT INTO service_order_items (order_id, product_id, description, quantity,
		                                 unit_price, total, line_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	var id int64
	err := r.db.QueryRow(ctx, query,
		item.OrderID, item.ProductID, item.Description, item.Quantity,
		item.UnitPrice, item.Total, item.LineOrder,
	).Scan(&id)
	return id, err
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, status OrderStatus) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE service_orders SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) UpdateProgress(ctx context.Context, id int64, completedItems int) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE service_orders SET completed_items = $1, updated_at = NOW() WHERE id = $2`, completedItems, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListEligibleProposals returns approved proposals that no service order
// references yet.
func (r *repository) ListEligibleProposals(ctx context.Context) ([]EligibleProposal, error) {
	const query = `
		SELECT p.id, p.number, p.client_id, c.name, p.owner_id, p.total, p.created_at
		FROM proposals p
		JOIN clients c ON p.client_id = c.id
		WHERE p.status = 'APPROVED'
		  AND NOT EXISTS (SELECT 1 FROM service_orders so WHERE so.proposal_id = p.id)
		ORDER BY p.created_at DESC, p.id DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []EligibleProposal
	for rows.Next() {
		var e EligibleProposal
		if err := rows.Scan(&e.ProposalID, &e.Number, &e.ClientID, &e.ClientName, &e.OwnerID, &e.Total, &e.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

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
