package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/grama-voice/grama-voice-api/internal/models"
	appErrors "github.com/grama-voice/grama-voice-api/pkg/errors"
	"github.com/grama-voice/grama-voice-api/pkg/export"
	"github.com/grama-voice/grama-voice-api/pkg/storage"
)

type reportStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
}

// ReportFormat selects the export renderer.
type ReportFormat string

const (
	ReportFormatCSV ReportFormat = "csv"
	ReportFormatPDF ReportFormat = "pdf"
)

// Report is a rendered export plus metadata for the HTTP layer. When the
// copy was archived and a signer is configured, ArchiveToken allows
// re-downloading the exact file later without re-rendering.
type Report struct {
	Filename       string
	ContentType    string
	Data           []byte
	ArchiveToken   string
	ArchiveExpires time.Time
}

// ReportService renders the leaderboard into downloadable files. The
// exporters only consume the snapshot fields by name; they own no
// spreadsheet semantics.
type ReportService struct {
	leaderboard adminSnapshotter
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
	storage     reportStorage
	signer      *storage.SignedURLSigner
	logger      *zap.Logger
	now         func() time.Time
}

// NewReportService constructs the service. The signer is optional; without
// it reports are still rendered and archived but carry no download token.
func NewReportService(leaderboard adminSnapshotter, store reportStorage, signer *storage.SignedURLSigner, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		leaderboard: leaderboard,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		storage:     store,
		signer:      signer,
		logger:      logger,
		now:         time.Now,
	}
}

// PerformanceReport renders the current leaderboard in the requested format
// and archives a copy on disk.
func (s *ReportService) PerformanceReport(ctx context.Context, format ReportFormat) (*Report, error) {
	board, _, err := s.leaderboard.Leaderboard(ctx)
	if err != nil {
		return nil, err
	}
	dataset := leaderboardDataset(board.Entries)

	var (
		data        []byte
		contentType string
		ext         string
	)
	switch format {
	case ReportFormatCSV:
		data, err = s.csv.Render(dataset)
		contentType = "text/csv"
		ext = "csv"
	case ReportFormatPDF:
		data, err = s.pdf.Render(dataset, "Admin Performance Report")
		contentType = "application/pdf"
		ext = "pdf"
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}

	reportID := uuid.NewString()[:8]
	filename := fmt.Sprintf("performance-%s-%s.%s", s.now().UTC().Format("20060102"), reportID, ext)
	report := &Report{Filename: filename, ContentType: contentType, Data: data}
	if s.storage != nil {
		if _, err := s.storage.Save(filename, data); err != nil {
			s.logger.Warn("failed to archive report", zap.String("filename", filename), zap.Error(err))
		} else if s.signer != nil {
			token, expires, err := s.signer.Generate(reportID, filename)
			if err != nil {
				s.logger.Warn("failed to sign archive token", zap.String("filename", filename), zap.Error(err))
			} else {
				report.ArchiveToken = token
				report.ArchiveExpires = expires
			}
		}
	}
	return report, nil
}

// ArchivedReport resolves a signed token back to the archived file.
func (s *ReportService) ArchivedReport(token string) (*Report, error) {
	if s.signer == nil || s.storage == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "report archive is not enabled")
	}
	_, filename, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}

	file, err := s.storage.Open(filename)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "archived report no longer exists")
	}
	defer file.Close() //nolint:errcheck
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read archived report")
	}

	contentType := "text/csv"
	if strings.HasSuffix(filename, ".pdf") {
		contentType = "application/pdf"
	}
	return &Report{Filename: filename, ContentType: contentType, Data: data}, nil
}

func leaderboardDataset(entries []models.PerformanceSnapshot) export.Dataset {
	headers := []string{"Rank", "Admin", "Village", "Total", "Resolved", "Pending", "In Progress", "Rate (%)", "Avg Days", "Tier", "Score"}
	rows := make([]map[string]string, 0, len(entries))
	for i, entry := range entries {
		avgDays := ""
		if entry.AvgResolutionDays != nil {
			avgDays = strconv.FormatFloat(*entry.AvgResolutionDays, 'f', 1, 64)
		}
		rows = append(rows, map[string]string{
			"Rank":        strconv.Itoa(i + 1),
			"Admin":       entry.AdminName,
			"Village":     entry.Village,
			"Total":       strconv.Itoa(entry.TotalIssues),
			"Resolved":    strconv.Itoa(entry.Resolved),
			"Pending":     strconv.Itoa(entry.Pending),
			"In Progress": strconv.Itoa(entry.InProgress),
			"Rate (%)":    strconv.Itoa(entry.ResolutionRate),
			"Avg Days":    avgDays,
			"Tier":        string(entry.Tier),
			"Score":       strconv.Itoa(entry.Score),
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

// ParseReportFormat normalises the query parameter.
func ParseReportFormat(raw string) (ReportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "csv":
		return ReportFormatCSV, nil
	case "pdf":
		return ReportFormatPDF, nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}
