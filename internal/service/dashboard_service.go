package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/grama-voice/grama-voice-api/internal/dto"
	"github.com/grama-voice/grama-voice-api/internal/models"
	appErrors "github.com/grama-voice/grama-voice-api/pkg/errors"
)

type issueLister interface {
	List(ctx context.Context, filter models.IssueFilter) ([]models.Issue, int, error)
	AssignmentRows(ctx context.Context) ([]models.AssignmentRow, error)
}

type adminSnapshotter interface {
	SnapshotFor(ctx context.Context, adminID int64) (models.PerformanceSnapshot, error)
	Leaderboard(ctx context.Context) (*dto.LeaderboardResponse, bool, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL       time.Duration
	TopAdminsLimit int
	QueueLimit     int
}

// DashboardService composes the super-admin overview and the village-admin
// workbench from the metrics engine's output.
type DashboardService struct {
	issues      issueLister
	leaderboard adminSnapshotter
	metrics     *MetricsService
	cache       *CacheService
	logger      *zap.Logger
	now         func() time.Time
	cfg         DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(issues issueLister, leaderboard adminSnapshotter, metrics *MetricsService, cache *CacheService, logger *zap.Logger, cfg DashboardServiceConfig) *DashboardService {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.TopAdminsLimit <= 0 {
		cfg.TopAdminsLimit = 5
	}
	if cfg.QueueLimit <= 0 {
		cfg.QueueLimit = 20
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		issues:      issues,
		leaderboard: leaderboard,
		metrics:     metrics,
		cache:       cache,
		logger:      logger,
		now:         time.Now,
		cfg:         cfg,
	}
}

// Overview returns the super-admin dashboard and whether it came from cache.
func (s *DashboardService) Overview(ctx context.Context) (*dto.OverviewResponse, bool, error) {
	const cacheKey = "dash:overview"
	if s.cache != nil {
		var cached dto.OverviewResponse
		hit, err := s.cache.Get(ctx, cacheKey, &cached)
		if err != nil {
			return nil, false, err
		}
		if hit {
			return &cached, true, nil
		}
	}

	overview, err := s.composeOverview(ctx)
	if err != nil {
		return nil, false, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, overview, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.String("key", cacheKey), zap.Error(err))
		}
	}
	return overview, false, nil
}

// Admin returns a village admin's dashboard: their snapshot and their
// assigned queue ordered by triage urgency. Not cached; the queue must
// reflect their own writes immediately.
func (s *DashboardService) Admin(ctx context.Context, adminID int64) (*dto.AdminDashboardResponse, error) {
	if adminID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid admin id")
	}
	snapshot, err := s.leaderboard.SnapshotFor(ctx, adminID)
	if err != nil {
		return nil, err
	}
	started := time.Now()
	issues, _, err := s.issues.List(ctx, models.IssueFilter{AssignedTo: &adminID, PageSize: 100})
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("issues.list_assigned", time.Since(started))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load assigned issues")
	}
	return &dto.AdminDashboardResponse{
		Snapshot: snapshot,
		Queue:    s.prioritize(issues, s.cfg.QueueLimit),
	}, nil
}

func (s *DashboardService) composeOverview(ctx context.Context) (*dto.OverviewResponse, error) {
	started := time.Now()
	rows, err := s.issues.AssignmentRows(ctx)
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("issues.assignment_rows", time.Since(started))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load issues")
	}

	overview := &dto.OverviewResponse{
		Villages: SummarizeVillages(rows),
	}
	for _, row := range rows {
		overview.TotalIssues++
		switch row.Status {
		case models.IssuePending:
			overview.Pending++
		case models.IssueInProgress:
			overview.InProgress++
		case models.IssueResolved:
			overview.Resolved++
		}
	}

	pending := models.IssuePending
	started = time.Now()
	open, _, err := s.issues.List(ctx, models.IssueFilter{Status: &pending, PageSize: 100})
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("issues.list_pending", time.Since(started))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load pending issues")
	}
	overview.PriorityQueue = s.prioritize(open, s.cfg.QueueLimit)

	board, _, err := s.leaderboard.Leaderboard(ctx)
	if err != nil {
		return nil, err
	}
	top := board.Entries
	if len(top) > s.cfg.TopAdminsLimit {
		top = top[:s.cfg.TopAdminsLimit]
	}
	overview.TopAdmins = top

	if s.metrics != nil {
		overview.System = s.metrics.Snapshot()
	}
	return overview, nil
}

// prioritize classifies each issue and orders the result most urgent
// first, oldest first within a bucket.
func (s *DashboardService) prioritize(issues []models.Issue, limit int) []models.PrioritizedIssue {
	now := s.now().UTC()
	ranked := make([]models.PrioritizedIssue, 0, len(issues))
	for _, issue := range issues {
		ranked = append(ranked, models.PrioritizedIssue{
			Issue:    issue,
			Priority: ClassifyPriority(issue.Status, issue.CreatedAt, now),
			AgeDays:  AgeDays(issue.CreatedAt, now),
		})
	}
	weight := map[models.IssuePriority]int{
		models.PriorityCritical: 3,
		models.PriorityHigh:     2,
		models.PriorityMedium:   1,
		models.PriorityLow:      0,
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if weight[ranked[i].Priority] != weight[ranked[j].Priority] {
			return weight[ranked[i].Priority] > weight[ranked[j].Priority]
		}
		return ranked[i].Issue.CreatedAt.Before(ranked[j].Issue.CreatedAt)
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// Invalidate drops the cached overview after issue mutations.
func (s *DashboardService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, "dash:*"); err != nil {
		s.logger.Warn("dashboard cache invalidate failed", zap.Error(err))
	}
}
