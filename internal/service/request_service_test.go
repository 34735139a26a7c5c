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
	appErrors "github.com/girishpw/discount-app/pkg/errors"
)

type mockPersonRepo struct {
	person       *models.Person
	findErr      error
	approvers    []models.Person
	approversErr error

	listedLevel  models.ApproverLevel
	listedBranch string
}

func (m *mockPersonRepo) FindActiveByEmail(ctx context.Context, email string) (*models.Person, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.person, nil
}

func (m *mockPersonRepo) ListApprovers(ctx context.Context, level models.ApproverLevel, branch string) ([]models.Person, error) {
	m.listedLevel = level
	m.listedBranch = branch
	if m.approversErr != nil {
		return nil, m.approversErr
	}
	return m.approvers, nil
}

type mockCourseRepo struct {
	course *models.Course
	err    error
}

func (m *mockCourseRepo) FindPricing(ctx context.Context, branch, card string) (*models.Course, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.course, nil
}

type mockSubmissionRepo struct {
	created   *models.DiscountRequest
	createErr error
	exists    bool
	existsErr error
}

func (m *mockSubmissionRepo) Create(ctx context.Context, req *models.DiscountRequest) error {
	if m.createErr != nil {
		return m.createErr
	}
	req.ID = "r1"
	m.created = req
	return nil
}

func (m *mockSubmissionRepo) ExistsForEnquiry(ctx context.Context, enquiryNo, requesterEmail string) (bool, error) {
	return m.exists, m.existsErr
}

type mockSubmissionNotifier struct {
	submitted []models.DiscountRequest
	approvers [][]models.Person
}

func (m *mockSubmissionNotifier) NotifySubmitted(req models.DiscountRequest, approvers []models.Person) {
	m.submitted = append(m.submitted, req)
	m.approvers = append(m.approvers, approvers)
}

func requesterPerson() *models.Person {
	return &models.Person{
		Email:      "staff@pw.live",
		FullName:   "Staff One",
		CanRequest: true,
		Active:     true,
	}
}

func validSubmission() dto.SubmitRequest {
	return dto.SubmitRequest{
		EnquiryNo:      "EN000000001",
		StudentName:    "Student A",
		MobileNo:       "9876543210",
		BranchName:     "Delhi",
		CardName:       "JEE Advanced",
		MRP:            100000,
		Installment:    90000,
		DiscountAmount: 40000,
		Reason:         "Merit scholarship",
	}
}

func delhiCourse() *models.Course {
	return &models.Course{BranchName: "Delhi", CardName: "JEE Advanced", MRP: 100000, Installment: 90000, Active: true}
}

func newSubmitService(persons *mockPersonRepo, courses *mockCourseRepo, requests *mockSubmissionRepo, notifier *mockSubmissionNotifier) *RequestService {
	return NewRequestService(persons, courses, requests, notifier, &mockAuditRepo{}, validator.New(), zap.NewNop(), RequestPolicy{MinDiscountPercent: 30, PriceTolerance: 0.01})
}

func TestRequestServiceSubmitSuccess(t *testing.T) {
	persons := &mockPersonRepo{person: requesterPerson(), approvers: []models.Person{{Email: "l1@pw.live", ApproverLevel: models.LevelL1}}}
	requests := &mockSubmissionRepo{}
	notifier := &mockSubmissionNotifier{}
	svc := newSubmitService(persons, &mockCourseRepo{course: delhiCourse()}, requests, notifier)

	created, err := svc.Submit(context.Background(), &models.JWTClaims{Email: "staff@pw.live"}, validSubmission())
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingL1, created.Status)
	assert.InDelta(t, 44.44, created.DiscountPercentage, 0.01)
	assert.Equal(t, "staff@pw.live", created.RequesterEmail)

	require.Len(t, notifier.submitted, 1)
	assert.Equal(t, models.LevelL1, persons.listedLevel)
	assert.Equal(t, "Delhi", persons.listedBranch)
}

func TestRequestServiceSubmitInvalidEnquiryNo(t *testing.T) {
	svc := newSubmitService(&mockPersonRepo{person: requesterPerson()}, &mockCourseRepo{course: delhiCourse()}, &mockSubmissionRepo{}, &mockSubmissionNotifier{})

	for _, enquiryNo := range []string{"EN12345678", "EN1234567890", "XX000000001", "en000000001"} {
		req := validSubmission()
		req.EnquiryNo = enquiryNo
		_, err := svc.Submit(context.Background(), &models.JWTClaims{Email: "staff@pw.live"}, req)
		require.Error(t, err, enquiryNo)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
}

func TestRequestServiceSubmitUnknownCourse(t *testing.T) {
	svc := newSubmitService(&mockPersonRepo{person: requesterPerson()}, &mockCourseRepo{err: sql.ErrNoRows}, &mockSubmissionRepo{}, &mockSubmissionNotifier{})

	_, err := svc.Submit(context.Background(), &models.JWTClaims{Email: "staff@pw.live"}, validSubmission())
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Message, "invalid branch and card")
}

func TestRequestServiceSubmitPriceMismatch(t *testing.T) {
	svc := newSubmitService(&mockPersonRepo{person: requesterPerson()}, &mockCourseRepo{course: delhiCourse()}, &mockSubmissionRepo{}, &mockSubmissionNotifier{})

	req := validSubmission()
	req.MRP = 95000
	_, err := svc.Submit(context.Background(), &models.JWTClaims{Email: "staff@pw.live"}, req)
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Message, "MRP mismatch")
}

func TestRequestServiceSubmitToleratesPennyDrift(t *testing.T) {
	persons := &mockPersonRepo{person: requesterPerson()}
	requests := &mockSubmissionRepo{}
	svc := newSubmitService(persons, &mockCourseRepo{course: delhiCourse()}, requests, &mockSubmissionNotifier{})

	req := validSubmission()
	req.MRP = 100000.009
	_, err := svc.Submit(context.Background(), &models.JWTClaims{Email: "staff@pw.live"}, req)
	require.NoError(t, err)
}

func TestRequestServiceSubmitLowDiscountRejected(t *testing.T) {
	svc := newSubmitService(&mockPersonRepo{person: requesterPerson()}, &mockCourseRepo{course: delhiCourse()}, &mockSubmissionRepo{}, &mockSubmissionNotifier{})

	// Exactly 30% of the installment is still below the portal's floor.
	req := validSubmission()
	req.DiscountAmount = 27000
	_, err := svc.Submit(context.Background(), &models.JWTClaims{Email: "staff@pw.live"}, req)
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Message, "ERP")
}

func TestRequestServiceSubmitDuplicate(t *testing.T) {
	svc := newSubmitService(&mockPersonRepo{person: requesterPerson()}, &mockCourseRepo{course: delhiCourse()}, &mockSubmissionRepo{exists: true}, &mockSubmissionNotifier{})

	_, err := svc.Submit(context.Background(), &models.JWTClaims{Email: "staff@pw.live"}, validSubmission())
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrDuplicateRequest.Code, appErr.Code)
	assert.Equal(t, 409, appErr.Status)
}

func TestRequestServiceSubmitRequiresCapability(t *testing.T) {
	person := requesterPerson()
	person.CanRequest = false
	svc := newSubmitService(&mockPersonRepo{person: person}, &mockCourseRepo{course: delhiCourse()}, &mockSubmissionRepo{}, &mockSubmissionNotifier{})

	_, err := svc.Submit(context.Background(), &models.JWTClaims{Email: "staff@pw.live"}, validSubmission())
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestRequestServiceSubmitDeactivatedAccount(t *testing.T) {
	svc := newSubmitService(&mockPersonRepo{findErr: sql.ErrNoRows}, &mockCourseRepo{course: delhiCourse()}, &mockSubmissionRepo{}, &mockSubmissionNotifier{})

	_, err := svc.Submit(context.Background(), &models.JWTClaims{Email: "gone@pw.live"}, validSubmission())
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestRequestServiceSubmitNotifyFailureDoesNotBlock(t *testing.T) {
	persons := &mockPersonRepo{person: requesterPerson(), approversErr: sql.ErrConnDone}
	requests := &mockSubmissionRepo{}
	svc := newSubmitService(persons, &mockCourseRepo{course: delhiCourse()}, requests, &mockSubmissionNotifier{})

	created, err := svc.Submit(context.Background(), &models.JWTClaims{Email: "staff@pw.live"}, validSubmission())
	require.NoError(t, err)
	assert.NotNil(t, created)
	assert.NotNil(t, requests.created)
}
