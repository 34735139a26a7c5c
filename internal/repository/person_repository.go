package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/girishpw/discount-app/internal/models"
)

// PersonRepository reads the authorized_persons table.
type PersonRepository struct {
	db *sqlx.DB
}

// NewPersonRepository constructs the repository.
func NewPersonRepository(db *sqlx.DB) *PersonRepository {
	return &PersonRepository{db: db}
}

// FindActiveByEmail fetches an active person by email. Inactive rows are
// filtered here so every caller fails closed.
func (r *PersonRepository) FindActiveByEmail(ctx context.Context, email string) (*models.Person, error) {
	const query = `SELECT id, email, full_name, password_hash, branch_scope, approver_level, can_request_discount, active, created_at, updated_at
	FROM authorized_persons WHERE email = $1 AND active = TRUE`
	var person models.Person
	if err := r.db.GetContext(ctx, &person, query, email); err != nil {
		return nil, err
	}
	return &person, nil
}

// ListApprovers returns active approvers holding the given level. When branch
// is non-empty the result is narrowed to approvers whose scope covers it,
// including the all-branches sentinel.
func (r *PersonRepository) ListApprovers(ctx context.Context, level models.ApproverLevel, branch string) ([]models.Person, error) {
	const base = `SELECT id, email, full_name, password_hash, branch_scope, approver_level, can_request_discount, active, created_at, updated_at
	FROM authorized_persons WHERE approver_level = $1 AND active = TRUE ORDER BY email`

	var approvers []models.Person
	if err := r.db.SelectContext(ctx, &approvers, base, level); err != nil {
		return nil, fmt.Errorf("list approvers: %w", err)
	}
	if branch == "" {
		return approvers, nil
	}

	scoped := approvers[:0]
	for i := range approvers {
		if approvers[i].ScopeIncludes(branch) {
			scoped = append(scoped, approvers[i])
		}
	}
	return scoped, nil
}
