package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/girishpw/discount-app/internal/dto"
	"github.com/girishpw/discount-app/internal/models"
	"github.com/girishpw/discount-app/internal/repository"
	appErrors "github.com/girishpw/discount-app/pkg/errors"
)

type mockApprovalRepo struct {
	request    *models.DiscountRequest
	getErr     error
	listed     []models.DiscountRequest
	listErr    error
	decideErr  error
	lastParams repository.ApprovalParams
	lastCall   string
}

func (m *mockApprovalRepo) GetByID(ctx context.Context, id string) (*models.DiscountRequest, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.request, nil
}

func (m *mockApprovalRepo) ListByStatus(ctx context.Context, status models.RequestStatus) ([]models.DiscountRequest, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.listed, nil
}

func (m *mockApprovalRepo) apply(call string, params repository.ApprovalParams, next models.RequestStatus) error {
	m.lastCall = call
	m.lastParams = params
	if m.decideErr != nil {
		return m.decideErr
	}
	m.request.Status = next
	return nil
}

func (m *mockApprovalRepo) ApproveL1(ctx context.Context, params repository.ApprovalParams) error {
	return m.apply("ApproveL1", params, models.StatusPendingL2)
}

func (m *mockApprovalRepo) ApproveL2(ctx context.Context, params repository.ApprovalParams) error {
	return m.apply("ApproveL2", params, models.StatusApproved)
}

func (m *mockApprovalRepo) RejectL1(ctx context.Context, params repository.ApprovalParams) error {
	return m.apply("RejectL1", params, models.StatusRejected)
}

func (m *mockApprovalRepo) RejectL2(ctx context.Context, params repository.ApprovalParams) error {
	return m.apply("RejectL2", params, models.StatusRejected)
}

type mockApprovalNotifier struct {
	awaitingL2 []models.DiscountRequest
}

func (m *mockApprovalNotifier) NotifyAwaitingL2(req models.DiscountRequest, approvers []models.Person) {
	m.awaitingL2 = append(m.awaitingL2, req)
}

func l1Approver(scope string) *models.Person {
	return &models.Person{Email: "l1@pw.live", FullName: "L1 One", BranchScope: scope, ApproverLevel: models.LevelL1, Active: true}
}

func l2Approver() *models.Person {
	return &models.Person{Email: "l2@pw.live", FullName: "L2 One", BranchScope: models.AllBranches, ApproverLevel: models.LevelL2, Active: true}
}

func pendingL1Request() *models.DiscountRequest {
	return &models.DiscountRequest{
		ID:             "r1",
		EnquiryNo:      "EN000000001",
		BranchName:     "Delhi",
		MRP:            100000,
		Installment:    90000,
		DiscountAmount: 40000,
		Status:         models.StatusPendingL1,
	}
}

func newDecideService(persons *mockPersonRepo, requests *mockApprovalRepo, notifier *mockApprovalNotifier) *ApprovalService {
	return NewApprovalService(persons, requests, notifier, &mockAuditRepo{}, validator.New(), zap.NewNop())
}

func claimsFor(p *models.Person) *models.JWTClaims {
	return &models.JWTClaims{Email: p.Email, ApproverLevel: p.ApproverLevel, BranchScope: p.BranchScope}
}

func TestApprovalServiceL1Approve(t *testing.T) {
	persons := &mockPersonRepo{person: l1Approver("Delhi"), approvers: []models.Person{*l2Approver()}}
	requests := &mockApprovalRepo{request: pendingL1Request()}
	notifier := &mockApprovalNotifier{}
	svc := newDecideService(persons, requests, notifier)

	updated, err := svc.Decide(context.Background(), claimsFor(l1Approver("Delhi")), "r1", dto.DecisionRequest{
		Action:         dto.ActionApprove,
		ApprovedAmount: 70000,
		Comments:       "within band",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingL2, updated.Status)
	assert.Equal(t, "ApproveL1", requests.lastCall)
	assert.Equal(t, 70000.0, requests.lastParams.ApprovedAmount)

	require.Len(t, notifier.awaitingL2, 1)
	assert.Equal(t, models.LevelL2, persons.listedLevel)
}

func TestApprovalServiceL2Approve(t *testing.T) {
	req := pendingL1Request()
	req.Status = models.StatusPendingL2
	requests := &mockApprovalRepo{request: req}
	notifier := &mockApprovalNotifier{}
	svc := newDecideService(&mockPersonRepo{person: l2Approver()}, requests, notifier)

	updated, err := svc.Decide(context.Background(), claimsFor(l2Approver()), "r1", dto.DecisionRequest{
		Action:         dto.ActionApprove,
		ApprovedAmount: 70000,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, updated.Status)
	assert.Equal(t, "ApproveL2", requests.lastCall)
	assert.Empty(t, notifier.awaitingL2)
}

func TestApprovalServiceRejectFromEitherLevel(t *testing.T) {
	l1Requests := &mockApprovalRepo{request: pendingL1Request()}
	svc := newDecideService(&mockPersonRepo{person: l1Approver("Delhi")}, l1Requests, &mockApprovalNotifier{})

	updated, err := svc.Decide(context.Background(), claimsFor(l1Approver("Delhi")), "r1", dto.DecisionRequest{Action: dto.ActionReject, Comments: "too steep"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, updated.Status)
	assert.Equal(t, "RejectL1", l1Requests.lastCall)

	l2Req := pendingL1Request()
	l2Req.Status = models.StatusPendingL2
	l2Requests := &mockApprovalRepo{request: l2Req}
	svc = newDecideService(&mockPersonRepo{person: l2Approver()}, l2Requests, &mockApprovalNotifier{})

	updated, err = svc.Decide(context.Background(), claimsFor(l2Approver()), "r1", dto.DecisionRequest{Action: dto.ActionReject})
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, updated.Status)
	assert.Equal(t, "RejectL2", l2Requests.lastCall)
}

func TestApprovalServiceBranchScopeEnforced(t *testing.T) {
	requests := &mockApprovalRepo{request: pendingL1Request()}
	svc := newDecideService(&mockPersonRepo{person: l1Approver("Mumbai")}, requests, &mockApprovalNotifier{})

	_, err := svc.Decide(context.Background(), claimsFor(l1Approver("Mumbai")), "r1", dto.DecisionRequest{Action: dto.ActionApprove, ApprovedAmount: 70000})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, requests.lastCall)
}

func TestApprovalServiceLevelOrderingEnforced(t *testing.T) {
	// An L2 approver cannot decide a request still waiting on L1.
	requests := &mockApprovalRepo{request: pendingL1Request()}
	svc := newDecideService(&mockPersonRepo{person: l2Approver()}, requests, &mockApprovalNotifier{})

	_, err := svc.Decide(context.Background(), claimsFor(l2Approver()), "r1", dto.DecisionRequest{Action: dto.ActionApprove, ApprovedAmount: 70000})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrStatusConflict.Code, appErrors.FromError(err).Code)
}

func TestApprovalServiceTerminalStateImmutable(t *testing.T) {
	req := pendingL1Request()
	req.Status = models.StatusApproved
	svc := newDecideService(&mockPersonRepo{person: l1Approver("Delhi")}, &mockApprovalRepo{request: req}, &mockApprovalNotifier{})

	_, err := svc.Decide(context.Background(), claimsFor(l1Approver("Delhi")), "r1", dto.DecisionRequest{Action: dto.ActionReject})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrStatusConflict.Code, appErrors.FromError(err).Code)
}

func TestApprovalServiceConcurrentDecisionConflict(t *testing.T) {
	// The conditional update matched zero rows: someone decided first.
	requests := &mockApprovalRepo{request: pendingL1Request(), decideErr: sql.ErrNoRows}
	svc := newDecideService(&mockPersonRepo{person: l1Approver("Delhi")}, requests, &mockApprovalNotifier{})

	_, err := svc.Decide(context.Background(), claimsFor(l1Approver("Delhi")), "r1", dto.DecisionRequest{Action: dto.ActionApprove, ApprovedAmount: 70000})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrStatusConflict.Code, appErrors.FromError(err).Code)
}

func TestApprovalServiceApproveRequiresPositiveAmount(t *testing.T) {
	svc := newDecideService(&mockPersonRepo{person: l1Approver("Delhi")}, &mockApprovalRepo{request: pendingL1Request()}, &mockApprovalNotifier{})

	_, err := svc.Decide(context.Background(), claimsFor(l1Approver("Delhi")), "r1", dto.DecisionRequest{Action: dto.ActionApprove})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestApprovalServiceNonApproverForbidden(t *testing.T) {
	svc := newDecideService(&mockPersonRepo{person: requesterPerson()}, &mockApprovalRepo{request: pendingL1Request()}, &mockApprovalNotifier{})

	_, err := svc.Decide(context.Background(), &models.JWTClaims{Email: "staff@pw.live"}, "r1", dto.DecisionRequest{Action: dto.ActionApprove, ApprovedAmount: 70000})
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestApprovalServiceUnknownRequest(t *testing.T) {
	svc := newDecideService(&mockPersonRepo{person: l1Approver("Delhi")}, &mockApprovalRepo{getErr: sql.ErrNoRows}, &mockApprovalNotifier{})

	_, err := svc.Decide(context.Background(), claimsFor(l1Approver("Delhi")), "missing", dto.DecisionRequest{Action: dto.ActionReject})
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestApprovalServiceListPendingScopesL1(t *testing.T) {
	listed := []models.DiscountRequest{
		{ID: "r1", BranchName: "Delhi", Status: models.StatusPendingL1},
		{ID: "r2", BranchName: "Mumbai", Status: models.StatusPendingL1},
	}
	requests := &mockApprovalRepo{listed: listed}
	svc := newDecideService(&mockPersonRepo{person: l1Approver("Delhi")}, requests, &mockApprovalNotifier{})

	pending, err := svc.ListPending(context.Background(), claimsFor(l1Approver("Delhi")))
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "r1", pending[0].ID)
}

func TestApprovalServiceListPendingL2Unscoped(t *testing.T) {
	listed := []models.DiscountRequest{
		{ID: "r1", BranchName: "Delhi", Status: models.StatusPendingL2},
		{ID: "r2", BranchName: "Mumbai", Status: models.StatusPendingL2},
	}
	requests := &mockApprovalRepo{listed: listed}
	svc := newDecideService(&mockPersonRepo{person: l2Approver()}, requests, &mockApprovalNotifier{})

	pending, err := svc.ListPending(context.Background(), claimsFor(l2Approver()))
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}
