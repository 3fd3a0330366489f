package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/grama-voice/grama-voice-api/internal/dto"
	"github.com/grama-voice/grama-voice-api/internal/models"
	appErrors "github.com/grama-voice/grama-voice-api/pkg/errors"
)

type assignmentRowLoader interface {
	AssignmentRows(ctx context.Context) ([]models.AssignmentRow, error)
}

type villageAdminLister interface {
	ListVillageAdmins(ctx context.Context) ([]models.User, error)
}

const leaderboardCacheKey = "leaderboard:admins"

// LeaderboardService ranks village admins by their derived performance
// snapshots. Snapshots are recomputed from raw issue rows on every cache
// miss; nothing derived is ever persisted.
type LeaderboardService struct {
	issues   assignmentRowLoader
	admins   villageAdminLister
	cache    *CacheService
	logger   *zap.Logger
	cacheTTL time.Duration
}

// NewLeaderboardService constructs the service.
func NewLeaderboardService(issues assignmentRowLoader, admins villageAdminLister, cache *CacheService, logger *zap.Logger, cacheTTL time.Duration) *LeaderboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	return &LeaderboardService{issues: issues, admins: admins, cache: cache, logger: logger, cacheTTL: cacheTTL}
}

// Leaderboard returns ranked snapshots for every village admin and whether
// the result came from cache.
func (s *LeaderboardService) Leaderboard(ctx context.Context) (*dto.LeaderboardResponse, bool, error) {
	if s.cache != nil {
		var cached dto.LeaderboardResponse
		hit, err := s.cache.Get(ctx, leaderboardCacheKey, &cached)
		if err != nil {
			return nil, false, err
		}
		if hit {
			return &cached, true, nil
		}
	}

	resp, err := s.compute(ctx)
	if err != nil {
		return nil, false, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, leaderboardCacheKey, resp, s.cacheTTL); err != nil {
			s.logger.Warn("leaderboard cache write failed", zap.Error(err))
		}
	}
	return resp, false, nil
}

// SnapshotFor computes one admin's snapshot directly, bypassing the cache.
func (s *LeaderboardService) SnapshotFor(ctx context.Context, adminID int64) (models.PerformanceSnapshot, error) {
	rows, err := s.issues.AssignmentRows(ctx)
	if err != nil {
		return models.PerformanceSnapshot{}, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load issues")
	}
	return ComputeSnapshot(adminID, rows), nil
}

// Invalidate drops the cached leaderboard after issue mutations.
func (s *LeaderboardService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, leaderboardCacheKey); err != nil {
		s.logger.Warn("leaderboard cache invalidate failed", zap.Error(err))
	}
}

func (s *LeaderboardService) compute(ctx context.Context) (*dto.LeaderboardResponse, error) {
	rows, err := s.issues.AssignmentRows(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load issues")
	}
	admins, err := s.admins.ListVillageAdmins(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load admins")
	}

	entries := make([]models.PerformanceSnapshot, 0, len(admins))
	for _, admin := range admins {
		snapshot := ComputeSnapshot(admin.ID, rows)
		snapshot.AdminName = admin.FullName
		if admin.Village != nil {
			snapshot.Village = *admin.Village
		}
		entries = append(entries, snapshot)
	}
	RankSnapshots(entries)
	return &dto.LeaderboardResponse{Entries: entries}, nil
}
