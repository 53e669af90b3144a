package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sakda-dev/behavior-track-api/internal/models"
	appErrors "github.com/sakda-dev/behavior-track-api/pkg/errors"
	"github.com/sakda-dev/behavior-track-api/pkg/export"
)

type exportLogSource interface {
	ListAll(ctx context.Context, filter models.BehaviorLogFilter) ([]models.BehaviorLogDetail, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportFormat identifies a supported export format.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportResult holds a rendered export.
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders filtered behavior logs into downloadable files.
type ExportService struct {
	logs   exportLogSource
	csv    csvRenderer
	pdf    pdfRenderer
	logger *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(logs exportLogSource, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{logs: logs, csv: csv, pdf: pdf, logger: logger}
}

var exportHeaders = []string{"ID", "Student Number", "Student Name", "Classroom", "Teacher", "Behaviors", "Delta", "Status", "Created At"}

// BehaviorLogs exports every log matching the status filter, sorted by
// creation time, in the requested format. The fetch is unpaginated; a
// download is only useful when it holds the full filtered set.
func (s *ExportService) BehaviorLogs(ctx context.Context, format ExportFormat, status, sortOrder string) (*ExportResult, error) {
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
	if status == "" {
		status = "all"
	}

	details, err := s.logs.ListAll(ctx, models.BehaviorLogFilter{Status: status, SortOrder: sortOrder})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load logs for export")
	}

	dataset := export.Dataset{Headers: exportHeaders, Rows: make([]map[string]string, 0, len(details))}
	for _, detail := range details {
		names := make([]string, len(detail.BehaviorTypes))
		delta := 0
		for i, bt := range detail.BehaviorTypes {
			names[i] = bt.Name
			delta += bt.Score
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"ID":             fmt.Sprintf("%d", detail.ID),
			"Student Number": detail.Student.StudentNumber,
			"Student Name":   fmt.Sprintf("%s %s", detail.Student.FirstName, detail.Student.LastName),
			"Classroom":      detail.Student.ClassroomName,
			"Teacher":        detail.Teacher.Name,
			"Behaviors":      strings.Join(names, ", "),
			"Delta":          fmt.Sprintf("%d", delta),
			"Status":         string(detail.Status),
			"Created At":     detail.CreatedAt.Format("2006-01-02 15:04"),
		})
	}

	switch format {
	case ExportFormatPDF:
		data, err := s.pdf.Render(dataset, "Behavior Logs")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return &ExportResult{Filename: "behavior-logs.pdf", ContentType: "application/pdf", Data: data}, nil
	default:
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return &ExportResult{Filename: "behavior-logs.csv", ContentType: "text/csv", Data: data}, nil
	}
}
