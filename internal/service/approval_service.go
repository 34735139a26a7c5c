package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/girishpw/discount-app/internal/dto"
	"github.com/girishpw/discount-app/internal/models"
	"github.com/girishpw/discount-app/internal/repository"
	appErrors "github.com/girishpw/discount-app/pkg/errors"
)

type approvalRequestRepository interface {
	GetByID(ctx context.Context, id string) (*models.DiscountRequest, error)
	ListByStatus(ctx context.Context, status models.RequestStatus) ([]models.DiscountRequest, error)
	ApproveL1(ctx context.Context, params repository.ApprovalParams) error
	ApproveL2(ctx context.Context, params repository.ApprovalParams) error
	RejectL1(ctx context.Context, params repository.ApprovalParams) error
	RejectL2(ctx context.Context, params repository.ApprovalParams) error
}

type approvalNotifier interface {
	NotifyAwaitingL2(req models.DiscountRequest, approvers []models.Person)
}

// ApprovalService applies approve/reject decisions to pending requests. A
// decision is a single conditional update, so the first of two racing
// approvers wins and the loser gets a status conflict.
type ApprovalService struct {
	persons   requestPersonRepository
	requests  approvalRequestRepository
	notifier  approvalNotifier
	audit     auditWriter
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewApprovalService constructs the service.
func NewApprovalService(
	persons requestPersonRepository,
	requests approvalRequestRepository,
	notifier approvalNotifier,
	audit auditWriter,
	validate *validator.Validate,
	logger *zap.Logger,
) *ApprovalService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApprovalService{
		persons:   persons,
		requests:  requests,
		notifier:  notifier,
		audit:     audit,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// ListPending returns the requests awaiting the actor's level, restricted to
// the actor's branch scope for L1 approvers.
func (s *ApprovalService) ListPending(ctx context.Context, actor *models.JWTClaims) ([]models.DiscountRequest, error) {
	person, err := s.resolveApprover(ctx, actor)
	if err != nil {
		return nil, err
	}

	var status models.RequestStatus
	switch person.ApproverLevel {
	case models.LevelL1:
		status = models.StatusPendingL1
	case models.LevelL2:
		status = models.StatusPendingL2
	default:
		return nil, appErrors.ErrForbidden
	}

	requests, err := s.requests.ListByStatus(ctx, status)
	if err != nil {
		s.logger.Error("failed to list pending requests", zap.String("status", string(status)), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}

	if person.ApproverLevel == models.LevelL1 {
		scoped := requests[:0]
		for _, req := range requests {
			if person.ScopeIncludes(req.BranchName) {
				scoped = append(scoped, req)
			}
		}
		requests = scoped
	}
	return requests, nil
}

// Decide applies an approve or reject decision to the request.
func (s *ApprovalService) Decide(ctx context.Context, actor *models.JWTClaims, requestID string, decision dto.DecisionRequest) (*models.DiscountRequest, error) {
	if err := s.validator.Struct(decision); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid decision payload")
	}

	person, err := s.resolveApprover(ctx, actor)
	if err != nil {
		return nil, err
	}

	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "discount request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}

	expected, ok := expectedStatus(person.ApproverLevel)
	if !ok {
		return nil, appErrors.ErrForbidden
	}
	if request.Status != expected {
		return nil, appErrors.Clone(appErrors.ErrStatusConflict,
			fmt.Sprintf("request is %s, not %s", request.Status, expected))
	}
	if person.ApproverLevel == models.LevelL1 && !person.ScopeIncludes(request.BranchName) {
		return nil, appErrors.Clone(appErrors.ErrForbidden,
			fmt.Sprintf("branch %s is outside your approval scope", request.BranchName))
	}

	params := repository.ApprovalParams{
		ID:            request.ID,
		ApproverEmail: person.Email,
		ApprovedAt:    s.now().UTC(),
		Comments:      decision.Comments,
		MRP:           request.MRP,
	}

	var action string
	switch decision.Action {
	case dto.ActionApprove:
		if decision.ApprovedAmount <= 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "approved amount must be greater than zero")
		}
		if decision.ApprovedAmount > request.MRP {
			return nil, appErrors.Clone(appErrors.ErrValidation, "approved amount cannot exceed the course MRP")
		}
		params.ApprovedAmount = decision.ApprovedAmount
		if person.ApproverLevel == models.LevelL1 {
			err = s.requests.ApproveL1(ctx, params)
			action = models.AuditActionApproveL1
		} else {
			err = s.requests.ApproveL2(ctx, params)
			action = models.AuditActionApproveL2
		}
	case dto.ActionReject:
		if person.ApproverLevel == models.LevelL1 {
			err = s.requests.RejectL1(ctx, params)
		} else {
			err = s.requests.RejectL2(ctx, params)
		}
		action = models.AuditActionReject
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown action")
	}

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Someone else decided first.
			return nil, appErrors.ErrStatusConflict
		}
		s.logger.Error("failed to apply decision",
			zap.String("request_id", request.ID),
			zap.String("action", decision.Action),
			zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}

	updated, err := s.requests.GetByID(ctx, request.ID)
	if err != nil {
		s.logger.Warn("failed to reload request after decision", zap.String("request_id", request.ID), zap.Error(err))
		updated = request
	}

	s.recordAudit(ctx, person.Email, action, updated, decision)

	if decision.Action == dto.ActionApprove && person.ApproverLevel == models.LevelL1 {
		s.notifyL2(ctx, updated)
	}

	return updated, nil
}

func (s *ApprovalService) resolveApprover(ctx context.Context, actor *models.JWTClaims) (*models.Person, error) {
	person, err := s.persons.FindActiveByEmail(ctx, actor.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrUnauthorized
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}
	if !person.IsApprover() {
		return nil, appErrors.ErrForbidden
	}
	return person, nil
}

func (s *ApprovalService) notifyL2(ctx context.Context, request *models.DiscountRequest) {
	if s.notifier == nil {
		return
	}
	approvers, err := s.persons.ListApprovers(ctx, models.LevelL2, request.BranchName)
	if err != nil {
		s.logger.Warn("failed to resolve L2 approvers",
			zap.String("branch", request.BranchName),
			zap.Error(err))
		return
	}
	s.notifier.NotifyAwaitingL2(*request, approvers)
}

func (s *ApprovalService) recordAudit(ctx context.Context, actorEmail, action string, request *models.DiscountRequest, decision dto.DecisionRequest) {
	if s.audit == nil {
		return
	}
	payload, _ := json.Marshal(map[string]interface{}{
		"enquiry_no":      request.EnquiryNo,
		"status":          request.Status,
		"approved_amount": decision.ApprovedAmount,
		"comments":        decision.Comments,
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

func expectedStatus(level models.ApproverLevel) (models.RequestStatus, bool) {
	switch level {
	case models.LevelL1:
		return models.StatusPendingL1, true
	case models.LevelL2:
		return models.StatusPendingL2, true
	default:
		return "", false
	}
}
