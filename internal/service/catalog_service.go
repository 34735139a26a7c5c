package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/girishpw/discount-app/internal/dto"
	"github.com/girishpw/discount-app/internal/models"
	appErrors "github.com/girishpw/discount-app/pkg/errors"
)

type catalogRepository interface {
	ListBranches(ctx context.Context) ([]string, error)
	ListCards(ctx context.Context, branch string) ([]string, error)
	FindPricing(ctx context.Context, branch, card string) (*models.Course, error)
}

// CatalogService exposes the branch/card/pricing reference data that drives
// the submission form.
type CatalogService struct {
	courses catalogRepository
	logger  *zap.Logger
}

// NewCatalogService constructs the service.
func NewCatalogService(courses catalogRepository, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{courses: courses, logger: logger}
}

// Branches lists every active branch.
func (s *CatalogService) Branches(ctx context.Context) ([]string, error) {
	branches, err := s.courses.ListBranches(ctx)
	if err != nil {
		s.logger.Error("failed to list branches", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}
	if branches == nil {
		branches = []string{}
	}
	return branches, nil
}

// Cards lists the card names available for a branch.
func (s *CatalogService) Cards(ctx context.Context, branch string) ([]string, error) {
	if branch == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "branch is required")
	}
	cards, err := s.courses.ListCards(ctx, branch)
	if err != nil {
		s.logger.Error("failed to list cards", zap.String("branch", branch), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}
	if cards == nil {
		cards = []string{}
	}
	return cards, nil
}

// Pricing returns the MRP and installment for a branch/card pair. An unknown
// pair yields null fields rather than an error so the form can clear its
// price boxes.
func (s *CatalogService) Pricing(ctx context.Context, branch, card string) (*dto.PricingResponse, error) {
	if branch == "" || card == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "branch and card are required")
	}
	course, err := s.courses.FindPricing(ctx, branch, card)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &dto.PricingResponse{}, nil
		}
		s.logger.Error("failed to fetch pricing",
			zap.String("branch", branch),
			zap.String("card", card),
			zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}
	return &dto.PricingResponse{MRP: &course.MRP, Installment: &course.Installment}, nil
}
