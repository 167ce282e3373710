package approvals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("record not found")

// discountEpsilon bounds the float comparison between a proposal's discount
// and the snapshot stored on an approval. Values are persisted as
// NUMERIC(5,2) so anything below a hundredth of a percent is noise.
const discountEpsilon = 1e-6

type Repository interface {
	Create(ctx context.Context, a Approval) (int64, error)
	Get(ctx context.Context, id int64) (*Approval, error)
	List(ctx context.Context, req ListApprovalsRequest) ([]Approval, int, error)
	UpdateDecision(ctx context.Context, id int64, status ApprovalStatus, decidedBy int64, reason *string) error
	Delete(ctx context.Context, id int64) error
	HasApprovedForDiscount(ctx context.Context, proposalID int64, discountPercent float64) (bool, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Create(ctx context.Context, a Approval) (int64, error) {
	const query = `
		INSERT INTO discount_approvals (proposal_id, requested_discount, total,
		                                discount_amount, discounted_total, requested_by, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	var id int64
	err := r.pool.QueryRow(ctx, query,
		a.ProposalID, a.RequestedDiscount, a.Total,
		a.DiscountAmount, a.DiscountedTotal, a.RequestedBy, a.Status,
	).Scan(&id)
	return id, err
}

func (r *repository) Get(ctx context.Context, id int64) (*Approval, error) {
	const query = `
		SELECT id, proposal_id, requested_discount, total, discount_amount, discounted_total,
		       requested_by, status, rejection_reason, decided_by, decided_at, created_at
		FROM discount_approvals
		WHERE id = $1`

	var a Approval
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&a.ID, &a.ProposalID, &a.RequestedDiscount, &a.Total, &a.DiscountAmount, &a.DiscountedTotal,
		&a.RequestedBy, &a.Status, &a.RejectionReason, &a.DecidedBy, &a.DecidedAt, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *repository) List(ctx context.Context, req ListApprovalsRequest) ([]Approval, int, error) {
	conditions := []string{"1=1"}
	var args []interface{}
	argPos := 1

	if req.ProposalID != nil {
		conditions = append(conditions, fmt.Sprintf("proposal_id = $%d", argPos))
		args = append(args, *req.ProposalID)
		argPos++
	}
	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *req.Status)
		argPos++
	}

	whereClause := "WHERE " + conditions[0]
	for i := 1; i < len(conditions); i++ {
		whereClause += " AND " + conditions[i]
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM discount_approvals %s", whereClause)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}

	query := fmt.Sprintf(`
		SELECT id, proposal_id, requested_discount, total, discount_amount, discounted_total,
		       requested_by, status, rejection_reason, decided_by, decided_at, created_at
		FROM discount_approvals
		%s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, whereClause, argPos, argPos+1)
	args = append(args, limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Approval
	for rows.Next() {
		var a Approval
		if err := rows.Scan(
			&a.ID, &a.ProposalID, &a.RequestedDiscount, &a.Total, &a.DiscountAmount, &a.DiscountedTotal,
			&a.RequestedBy, &a.Status, &a.RejectionReason, &a.DecidedBy, &a.DecidedAt, &a.CreatedAt,
		); err != nil {
			return nil, 0, err
		}
		result = append(result, a)
	}
	return result, total, rows.Err()
}

func (r *repository) UpdateDecision(ctx context.Context, id int64, status ApprovalStatus, decidedBy int64, reason *string) error {
	const query = `
		UPDATE discount_approvals
		SET status = $1, decided_by = $2, decided_at = $3, rejection_reason = $4
		WHERE id = $5`

	tag, err := r.pool.Exec(ctx, query, status, decidedBy, time.Now(), reason, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM discount_approvals WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) HasApprovedForDiscount(ctx context.Context, proposalID int64, discountPercent float64) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM discount_approvals
			WHERE proposal_id = $1
			  AND status = 'APPROVED'
			  AND ABS(requested_discount - $2) < $3
		)`

	var exists bool
	err := r.pool.QueryRow(ctx, query, proposalID, discountPercent, discountEpsilon).Scan(&exists)
	return exists, err
}
