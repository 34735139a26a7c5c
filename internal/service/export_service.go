package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/girishpw/discount-app/internal/models"
	appErrors "github.com/girishpw/discount-app/pkg/errors"
	"github.com/girishpw/discount-app/pkg/export"
)

type exportRequestRepository interface {
	ListAll(ctx context.Context) ([]models.DiscountRequest, error)
}

// ExportResult carries a rendered export and its HTTP metadata.
type ExportResult struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ExportService renders the request register as CSV or PDF for approvers.
type ExportService struct {
	requests exportRequestRepository
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	logger   *zap.Logger
	now      func() time.Time
}

// NewExportService constructs the service.
func NewExportService(requests exportRequestRepository, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		requests: requests,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		logger:   logger,
		now:      time.Now,
	}
}

var exportHeaders = []string{
	"Enquiry No", "Student", "Branch", "Card", "MRP", "Installment",
	"Discount", "Discount %", "Status", "Requester", "L1 Approver", "L2 Approver", "Created",
}

// Export renders the full register in the requested format, csv or pdf.
func (s *ExportService) Export(ctx context.Context, format string) (*ExportResult, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "pdf" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	requests, err := s.requests.ListAll(ctx)
	if err != nil {
		s.logger.Error("failed to load requests for export", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}

	dataset := export.Dataset{Headers: exportHeaders, Rows: make([]map[string]string, 0, len(requests))}
	for _, req := range requests {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Enquiry No":  req.EnquiryNo,
			"Student":     req.StudentName,
			"Branch":      req.BranchName,
			"Card":        req.CardName,
			"MRP":         fmt.Sprintf("%.2f", req.MRP),
			"Installment": fmt.Sprintf("%.2f", req.Installment),
			"Discount":    fmt.Sprintf("%.2f", req.DiscountAmount),
			"Discount %":  fmt.Sprintf("%.1f", req.DiscountPercentage),
			"Status":      string(req.Status),
			"Requester":   req.RequesterName,
			"L1 Approver": derefString(req.L1Approver),
			"L2 Approver": derefString(req.L2Approver),
			"Created":     req.CreatedAt.Format("2006-01-02 15:04"),
		})
	}

	stamp := s.now().UTC().Format("20060102-150405")
	switch format {
	case "pdf":
		content, err := s.pdf.Render(dataset, "Discount Requests")
		if err != nil {
			s.logger.Error("failed to render pdf export", zap.Error(err))
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
		}
		return &ExportResult{
			Filename:    fmt.Sprintf("discount-requests-%s.pdf", stamp),
			ContentType: "application/pdf",
			Content:     content,
		}, nil
	default:
		content, err := s.csv.Render(dataset)
		if err != nil {
			s.logger.Error("failed to render csv export", zap.Error(err))
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
		}
		return &ExportResult{
			Filename:    fmt.Sprintf("discount-requests-%s.csv", stamp),
			ContentType: "text/csv",
			Content:     content,
		}, nil
	}
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
