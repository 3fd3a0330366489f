package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grama-voice/grama-voice-api/internal/dto"
	"github.com/grama-voice/grama-voice-api/internal/models"
	"github.com/grama-voice/grama-voice-api/pkg/storage"
)

func reportBoard() *stubSnapshotter {
	avg := 2.5
	return &stubSnapshotter{board: &dto.LeaderboardResponse{Entries: []models.PerformanceSnapshot{
		{AdminID: 1, AdminName: "Busy Admin", Village: "Galle", TotalIssues: 12, Resolved: 10, Pending: 1, InProgress: 1, ResolutionRate: 83, AvgResolutionDays: &avg, Tier: models.TierActive, Score: 55},
		{AdminID: 2, AdminName: "New Admin", Village: "Kandy", Tier: models.TierNew},
	}}}
}

func reportFixture(t *testing.T) *ReportService {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	return NewReportService(reportBoard(), store, signer, nil)
}

func TestPerformanceReportCSV(t *testing.T) {
	svc := reportFixture(t)

	report, err := svc.PerformanceReport(context.Background(), ReportFormatCSV)
	require.NoError(t, err)

	assert.Equal(t, "text/csv", report.ContentType)
	assert.True(t, strings.HasSuffix(report.Filename, ".csv"))
	assert.NotEmpty(t, report.ArchiveToken)

	body := string(report.Data)
	assert.Contains(t, body, "Rank,Admin,Village")
	assert.Contains(t, body, "1,Busy Admin,Galle,12,10,1,1,83,2.5,Active,55")
	assert.Contains(t, body, "2,New Admin,Kandy")
}

func TestPerformanceReportPDF(t *testing.T) {
	svc := reportFixture(t)

	report, err := svc.PerformanceReport(context.Background(), ReportFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", report.ContentType)
	assert.True(t, strings.HasPrefix(string(report.Data), "%PDF"))
}

func TestArchivedReportRoundTrip(t *testing.T) {
	svc := reportFixture(t)

	original, err := svc.PerformanceReport(context.Background(), ReportFormatCSV)
	require.NoError(t, err)
	require.NotEmpty(t, original.ArchiveToken)

	archived, err := svc.ArchivedReport(original.ArchiveToken)
	require.NoError(t, err)
	assert.Equal(t, original.Filename, archived.Filename)
	assert.Equal(t, original.Data, archived.Data)
	assert.Equal(t, "text/csv", archived.ContentType)
}

func TestArchivedReportRejectsForgedToken(t *testing.T) {
	svc := reportFixture(t)

	_, err := svc.ArchivedReport("not.a.real.token")
	assert.Error(t, err)
}

func TestPerformanceReportRejectsUnknownFormat(t *testing.T) {
	svc := reportFixture(t)

	_, err := svc.PerformanceReport(context.Background(), "xlsx")
	assert.Error(t, err)
}

func TestParseReportFormat(t *testing.T) {
	format, err := ParseReportFormat("")
	require.NoError(t, err)
	assert.Equal(t, ReportFormatCSV, format)

	format, err = ParseReportFormat(" PDF ")
	require.NoError(t, err)
	assert.Equal(t, ReportFormatPDF, format)

	_, err = ParseReportFormat("doc")
	assert.Error(t, err)
}
