package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/girishpw/discount-app/internal/models"
)

// RequestRepository persists discount requests. Every state transition is a
// single conditional UPDATE guarded by the expected current status; zero rows
// affected surfaces as sql.ErrNoRows so callers can report a conflict instead
// of silently losing a concurrent decision.
type RequestRepository struct {
	db *sqlx.DB
}

// NewRequestRepository constructs the repository.
func NewRequestRepository(db *sqlx.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// Create inserts a new request in PENDING_L1.
func (r *RequestRepository) Create(ctx context.Context, req *models.DiscountRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.Status == "" {
		req.Status = models.StatusPendingL1
	}
	now := time.Now().UTC()
	if req.CreatedAt.IsZero() {
		req.CreatedAt = now
	}
	req.UpdatedAt = now

	const query = `INSERT INTO discount_requests
	(id, enquiry_no, student_name, mobile_no, branch_name, card_name, mrp, installment, discount_amount, discount_percentage,
	 reason, remarks, requester_email, requester_name, status, created_at, updated_at)
	VALUES (:id, :enquiry_no, :student_name, :mobile_no, :branch_name, :card_name, :mrp, :installment, :discount_amount, :discount_percentage,
	 :reason, :remarks, :requester_email, :requester_name, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, req); err != nil {
		return fmt.Errorf("create discount request: %w", err)
	}
	return nil
}

// GetByID fetches a request by identifier.
func (r *RequestRepository) GetByID(ctx context.Context, id string) (*models.DiscountRequest, error) {
	const query = `SELECT ` + requestColumns + ` FROM discount_requests WHERE id = $1`
	var req models.DiscountRequest
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		return nil, err
	}
	return &req, nil
}

// ExistsForEnquiry reports whether the requester already filed for the
// enquiry number.
func (r *RequestRepository) ExistsForEnquiry(ctx context.Context, enquiryNo, requesterEmail string) (bool, error) {
	const query = `SELECT COUNT(*) FROM discount_requests WHERE enquiry_no = $1 AND requester_email = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, enquiryNo, requesterEmail); err != nil {
		return false, fmt.Errorf("check duplicate request: %w", err)
	}
	return count > 0, nil
}

// ListByStatus returns requests in the given status, newest first.
func (r *RequestRepository) ListByStatus(ctx context.Context, status models.RequestStatus) ([]models.DiscountRequest, error) {
	const query = `SELECT ` + requestColumns + ` FROM discount_requests WHERE status = $1 ORDER BY created_at DESC`
	var requests []models.DiscountRequest
	if err := r.db.SelectContext(ctx, &requests, query, status); err != nil {
		return nil, fmt.Errorf("list requests by status: %w", err)
	}
	return requests, nil
}

// ListRecent returns the most recently created requests.
func (r *RequestRepository) ListRecent(ctx context.Context, limit int) ([]models.DiscountRequest, error) {
	if limit <= 0 {
		limit = 5
	}
	const query = `SELECT ` + requestColumns + ` FROM discount_requests ORDER BY created_at DESC LIMIT $1`
	var requests []models.DiscountRequest
	if err := r.db.SelectContext(ctx, &requests, query, limit); err != nil {
		return nil, fmt.Errorf("list recent requests: %w", err)
	}
	return requests, nil
}

// ListAll returns the full register, newest first.
func (r *RequestRepository) ListAll(ctx context.Context) ([]models.DiscountRequest, error) {
	const query = `SELECT ` + requestColumns + ` FROM discount_requests ORDER BY created_at DESC`
	var requests []models.DiscountRequest
	if err := r.db.SelectContext(ctx, &requests, query); err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	return requests, nil
}

// CountByStatus computes the dashboard rollup in one pass.
func (r *RequestRepository) CountByStatus(ctx context.Context) (total, pending, approved, rejected int, err error) {
	const query = `SELECT
		COUNT(*) AS total,
		COUNT(*) FILTER (WHERE status IN ($1, $2)) AS pending,
		COUNT(*) FILTER (WHERE status = $3) AS approved,
		COUNT(*) FILTER (WHERE status = $4) AS rejected
	FROM discount_requests`
	row := r.db.QueryRowxContext(ctx, query, models.StatusPendingL1, models.StatusPendingL2, models.StatusApproved, models.StatusRejected)
	if scanErr := row.Scan(&total, &pending, &approved, &rejected); scanErr != nil {
		return 0, 0, 0, 0, fmt.Errorf("count requests by status: %w", scanErr)
	}
	return total, pending, approved, rejected, nil
}

// ApprovalParams carries the audit fields recorded with a transition.
type ApprovalParams struct {
	ID             string
	ApproverEmail  string
	ApprovedAt     time.Time
	Comments       string
	ApprovedAmount float64
	MRP            float64
}

// ApproveL1 moves PENDING_L1 to PENDING_L2 and records the L1 decision.
func (r *RequestRepository) ApproveL1(ctx context.Context, params ApprovalParams) error {
	const query = `UPDATE discount_requests
	SET status = $1, discounted_fees = $2, net_discount = $3,
	    l1_approver = $4, l1_approved_at = $5, l1_comments = $6, updated_at = $5
	WHERE id = $7 AND status = $8`
	result, err := r.db.ExecContext(ctx, query,
		models.StatusPendingL2,
		params.ApprovedAmount,
		params.MRP-params.ApprovedAmount,
		params.ApproverEmail,
		params.ApprovedAt,
		params.Comments,
		params.ID,
		models.StatusPendingL1,
	)
	if err != nil {
		return fmt.Errorf("approve l1: %w", err)
	}
	return requireRow(result)
}

// ApproveL2 moves PENDING_L2 to APPROVED and records the L2 decision.
func (r *RequestRepository) ApproveL2(ctx context.Context, params ApprovalParams) error {
	const query = `UPDATE discount_requests
	SET status = $1, discounted_fees = $2, net_discount = $3,
	    l2_approver = $4, l2_approved_at = $5, l2_comments = $6, updated_at = $5
	WHERE id = $7 AND status = $8`
	result, err := r.db.ExecContext(ctx, query,
		models.StatusApproved,
		params.ApprovedAmount,
		params.MRP-params.ApprovedAmount,
		params.ApproverEmail,
		params.ApprovedAt,
		params.Comments,
		params.ID,
		models.StatusPendingL2,
	)
	if err != nil {
		return fmt.Errorf("approve l2: %w", err)
	}
	return requireRow(result)
}

// RejectL1 terminates a PENDING_L1 request and records the L1 decision.
func (r *RequestRepository) RejectL1(ctx context.Context, params ApprovalParams) error {
	const query = `UPDATE discount_requests
	SET status = $1, l1_approver = $2, l1_approved_at = $3, l1_comments = $4, updated_at = $3
	WHERE id = $5 AND status = $6`
	result, err := r.db.ExecContext(ctx, query,
		models.StatusRejected,
		params.ApproverEmail,
		params.ApprovedAt,
		params.Comments,
		params.ID,
		models.StatusPendingL1,
	)
	if err != nil {
		return fmt.Errorf("reject l1: %w", err)
	}
	return requireRow(result)
}

// RejectL2 terminates a PENDING_L2 request and records the L2 decision.
func (r *RequestRepository) RejectL2(ctx context.Context, params ApprovalParams) error {
	const query = `UPDATE discount_requests
	SET status = $1, l2_approver = $2, l2_approved_at = $3, l2_comments = $4, updated_at = $3
	WHERE id = $5 AND status = $6`
	result, err := r.db.ExecContext(ctx, query,
		models.StatusRejected,
		params.ApproverEmail,
		params.ApprovedAt,
		params.Comments,
		params.ID,
		models.StatusPendingL2,
	)
	if err != nil {
		return fmt.Errorf("reject l2: %w", err)
	}
	return requireRow(result)
}

const requestColumns = `id, enquiry_no, student_name, mobile_no, branch_name, card_name, mrp, installment, discount_amount, discount_percentage,
	reason, remarks, requester_email, requester_name, status, discounted_fees, net_discount,
	l1_approver, l1_approved_at, l1_comments, l2_approver, l2_approved_at, l2_comments, created_at, updated_at`

func requireRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check affected rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
