package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/girishpw/discount-app/internal/models"
	"github.com/girishpw/discount-app/pkg/jobs"
)

type notificationMailer interface {
	Send(to string, cc []string, subject, htmlBody string) error
	Enabled() bool
}

// NotificationConfig tunes dispatch behaviour.
type NotificationConfig struct {
	CC         []string
	PortalURL  string
	Workers    int
	BufferSize int
}

// NotificationService sends transition emails off the request path. Delivery
// is best-effort: one attempt per recipient per event, failures logged and
// swallowed so a dead SMTP endpoint never blocks an approval.
type NotificationService struct {
	mailer    notificationMailer
	queue     *jobs.Queue
	cc        []string
	portalURL string
	logger    *zap.Logger
	metrics   *MetricsService
}

type notificationPayload struct {
	Recipients []string
	Subject    string
	Body       string
}

// NewNotificationService constructs the dispatcher and its worker queue.
func NewNotificationService(mailer notificationMailer, metrics *MetricsService, logger *zap.Logger, cfg NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{
		mailer:    mailer,
		cc:        cfg.CC,
		portalURL: cfg.PortalURL,
		logger:    logger,
		metrics:   metrics,
	}
	s.queue = jobs.NewQueue("notifications", s.deliver, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		Logger:     logger,
	})
	return s
}

// Start launches the dispatch workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// NotifySubmitted informs branch L1 approvers about a freshly filed request.
func (s *NotificationService) NotifySubmitted(req models.DiscountRequest, approvers []models.Person) {
	subject := fmt.Sprintf("New Discount Request - %s", req.EnquiryNo)
	body := fmt.Sprintf(
		"<p>A new discount request has been submitted for <b>%s</b> (enquiry %s, branch %s).</p>"+
			"<p>Requested discount: %.2f (%.1f%% of installment %.2f).</p>"+
			"<p>Requested by %s. Please review at <a href=%q>%s</a>.</p>",
		req.StudentName, req.EnquiryNo, req.BranchName,
		req.DiscountAmount, req.DiscountPercentage, req.Installment,
		req.RequesterName, s.portalURL, s.portalURL,
	)
	s.enqueue(req, subject, body, approvers)
}

// NotifyAwaitingL2 informs L2 approvers after an L1 approval.
func (s *NotificationService) NotifyAwaitingL2(req models.DiscountRequest, approvers []models.Person) {
	subject := fmt.Sprintf("Discount Request for L2 Approval - %s", req.EnquiryNo)
	body := fmt.Sprintf(
		"<p>The discount request for <b>%s</b> (enquiry %s, branch %s) has been approved at L1.</p>"+
			"<p>Please review at <a href=%q>%s</a>.</p>",
		req.StudentName, req.EnquiryNo, req.BranchName,
		s.portalURL, s.portalURL,
	)
	s.enqueue(req, subject, body, approvers)
}

func (s *NotificationService) enqueue(req models.DiscountRequest, subject, body string, approvers []models.Person) {
	if len(approvers) == 0 {
		s.logger.Warn("no approvers to notify",
			zap.String("request_id", req.ID),
			zap.String("branch", req.BranchName))
		return
	}
	recipients := make([]string, 0, len(approvers))
	for _, approver := range approvers {
		recipients = append(recipients, approver.Email)
	}
	err := s.queue.Enqueue(jobs.Job{
		ID:   uuid.NewString(),
		Type: "email",
		Payload: notificationPayload{
			Recipients: recipients,
			Subject:    subject,
			Body:       body,
		},
	})
	if err != nil {
		s.logger.Warn("failed to enqueue notification",
			zap.String("request_id", req.ID),
			zap.Error(err))
	}
}

// deliver sends one message per recipient with the configured CC list. It
// always returns nil: a failed recipient is logged, not retried.
func (s *NotificationService) deliver(_ context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(notificationPayload)
	if !ok {
		s.logger.Error("unexpected notification payload", zap.String("job_id", job.ID))
		return nil
	}
	if s.mailer == nil || !s.mailer.Enabled() {
		s.logger.Info("mailer disabled, skipping notification",
			zap.String("subject", payload.Subject),
			zap.Int("recipients", len(payload.Recipients)))
		return nil
	}
	for _, recipient := range payload.Recipients {
		err := s.mailer.Send(recipient, s.cc, payload.Subject, payload.Body)
		s.metrics.RecordEmail(err == nil)
		if err != nil {
			s.logger.Warn("failed to send notification",
				zap.String("recipient", recipient),
				zap.String("subject", payload.Subject),
				zap.Error(err))
		}
	}
	return nil
}
