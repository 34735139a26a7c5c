package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/girishpw/discount-app/internal/models"
)

// CourseRepository reads the authoritative branch/card pricing table.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// ListBranches returns distinct active branch names in order.
func (r *CourseRepository) ListBranches(ctx context.Context) ([]string, error) {
	const query = `SELECT DISTINCT branch_name FROM courses WHERE active = TRUE ORDER BY branch_name`
	var branches []string
	if err := r.db.SelectContext(ctx, &branches, query); err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	return branches, nil
}

// ListCards returns the ordered card names available for a branch.
func (r *CourseRepository) ListCards(ctx context.Context, branch string) ([]string, error) {
	const query = `SELECT DISTINCT card_name FROM courses WHERE branch_name = $1 AND active = TRUE ORDER BY card_name`
	var cards []string
	if err := r.db.SelectContext(ctx, &cards, query, branch); err != nil {
		return nil, fmt.Errorf("list cards for %s: %w", branch, err)
	}
	return cards, nil
}

// FindPricing fetches the active course row for a branch and card pair.
func (r *CourseRepository) FindPricing(ctx context.Context, branch, card string) (*models.Course, error) {
	const query = `SELECT id, branch_name, card_name, mrp, installment, active, created_at
	FROM courses WHERE branch_name = $1 AND card_name = $2 AND active = TRUE`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, branch, card); err != nil {
		return nil, err
	}
	return &course, nil
}
