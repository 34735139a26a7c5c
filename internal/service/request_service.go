package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/girishpw/discount-app/internal/dto"
	"github.com/girishpw/discount-app/internal/models"
	appErrors "github.com/girishpw/discount-app/pkg/errors"
)

type requestPersonRepository interface {
	FindActiveByEmail(ctx context.Context, email string) (*models.Person, error)
	ListApprovers(ctx context.Context, level models.ApproverLevel, branch string) ([]models.Person, error)
}

type coursePricingRepository interface {
	FindPricing(ctx context.Context, branch, card string) (*models.Course, error)
}

type submissionRepository interface {
	Create(ctx context.Context, req *models.DiscountRequest) error
	ExistsForEnquiry(ctx context.Context, enquiryNo, requesterEmail string) (bool, error)
}

type submissionNotifier interface {
	NotifySubmitted(req models.DiscountRequest, approvers []models.Person)
}

// RequestPolicy holds the submission business rules.
type RequestPolicy struct {
	MinDiscountPercent float64
	PriceTolerance     float64
}

// RequestService validates and persists new discount requests.
type RequestService struct {
	persons   requestPersonRepository
	courses   coursePricingRepository
	requests  submissionRepository
	notifier  submissionNotifier
	audit     auditWriter
	validator *validator.Validate
	logger    *zap.Logger
	policy    RequestPolicy
	now       func() time.Time
}

// NewRequestService constructs the service.
func NewRequestService(
	persons requestPersonRepository,
	courses coursePricingRepository,
	requests submissionRepository,
	notifier submissionNotifier,
	audit auditWriter,
	validate *validator.Validate,
	logger *zap.Logger,
	policy RequestPolicy,
) *RequestService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if policy.MinDiscountPercent <= 0 {
		policy.MinDiscountPercent = 30
	}
	if policy.PriceTolerance <= 0 {
		policy.PriceTolerance = 0.01
	}
	return &RequestService{
		persons:   persons,
		courses:   courses,
		requests:  requests,
		notifier:  notifier,
		audit:     audit,
		validator: validate,
		logger:    logger,
		policy:    policy,
		now:       time.Now,
	}
}

// Submit runs the fail-fast validation chain and persists the request in
// PENDING_L1, then fans out notifications to the branch's L1 approvers.
func (s *RequestService) Submit(ctx context.Context, actor *models.JWTClaims, req dto.SubmitRequest) (*models.DiscountRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload")
	}

	// Re-resolve the requester so a deactivated account fails closed even
	// while its token is still live.
	person, err := s.persons.FindActiveByEmail(ctx, actor.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrUnauthorized
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}
	if !person.CanRequest {
		return nil, appErrors.ErrUnauthorized
	}

	if !models.ValidEnquiryNo(req.EnquiryNo) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid enquiry number format, must be EN followed by 9 digits")
	}

	course, err := s.courses.FindPricing(ctx, req.BranchName, req.CardName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid branch and card combination")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}

	if math.Abs(req.MRP-course.MRP) > s.policy.PriceTolerance {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("MRP mismatch: expected %.2f, got %.2f", course.MRP, req.MRP))
	}
	if math.Abs(req.Installment-course.Installment) > s.policy.PriceTolerance {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("installment mismatch: expected %.2f, got %.2f", course.Installment, req.Installment))
	}

	percentage := req.DiscountAmount / course.Installment * 100
	if percentage <= s.policy.MinDiscountPercent {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("discounts up to %.0f%% are handled by the ERP; this portal handles discounts above %.0f%%",
				s.policy.MinDiscountPercent, s.policy.MinDiscountPercent))
	}

	duplicate, err := s.requests.ExistsForEnquiry(ctx, req.EnquiryNo, person.Email)
	if err != nil {
		s.logger.Error("duplicate check failed", zap.String("enquiry_no", req.EnquiryNo), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}
	if duplicate {
		return nil, appErrors.Clone(appErrors.ErrDuplicateRequest,
			fmt.Sprintf("a request for enquiry %s already exists", req.EnquiryNo))
	}

	request := &models.DiscountRequest{
		EnquiryNo:          req.EnquiryNo,
		StudentName:        req.StudentName,
		MobileNo:           req.MobileNo,
		BranchName:         req.BranchName,
		CardName:           req.CardName,
		MRP:                course.MRP,
		Installment:        course.Installment,
		DiscountAmount:     req.DiscountAmount,
		DiscountPercentage: percentage,
		Reason:             req.Reason,
		Remarks:            req.Remarks,
		RequesterEmail:     person.Email,
		RequesterName:      person.FullName,
		Status:             models.StatusPendingL1,
		CreatedAt:          s.now().UTC(),
	}

	if err := s.requests.Create(ctx, request); err != nil {
		s.logger.Error("failed to persist discount request",
			zap.String("enquiry_no", req.EnquiryNo),
			zap.String("requester", person.Email),
			zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}

	s.recordAudit(ctx, person.Email, models.AuditActionSubmit, request)
	s.notifyL1(ctx, request)

	return request, nil
}

func (s *RequestService) notifyL1(ctx context.Context, request *models.DiscountRequest) {
	if s.notifier == nil {
		return
	}
	approvers, err := s.persons.ListApprovers(ctx, models.LevelL1, request.BranchName)
	if err != nil {
		s.logger.Warn("failed to resolve L1 approvers",
			zap.String("branch", request.BranchName),
			zap.Error(err))
		return
	}
	s.notifier.NotifySubmitted(*request, approvers)
}

func (s *RequestService) recordAudit(ctx context.Context, actorEmail, action string, request *models.DiscountRequest) {
	if s.audit == nil {
		return
	}
	payload, _ := json.Marshal(map[string]interface{}{
		"enquiry_no": request.EnquiryNo,
		"branch":     request.BranchName,
		"status":     request.Status,
	})
	entry := &models.AuditLog{
		ActorEmail: actorEmail,
		Action:     action,
		ResourceID: &request.ID,
		Payload:    types.JSONText(payload),
	}
	if err := s.audit.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", action), zap.Error(err))
	}
}
