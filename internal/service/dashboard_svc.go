package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/mathieu-neron/creatordash/internal/metrics"
	"github.com/mathieu-neron/creatordash/internal/model"
	"github.com/mathieu-neron/creatordash/internal/repository"
)

// Refresh triggers, used as metric labels.
const (
	TriggerTimer   = "timer"
	TriggerLogin   = "login"
	TriggerManual  = "manual"
	TriggerStartup = "startup"
)

// ReportSource is the analytics report backend.
type ReportSource interface {
	RevenueTotals(ctx context.Context) (views int64, revenue float64, ok bool, err error)
	ViewsTotal(ctx context.Context) (int64, error)
	PerVideoMetrics(ctx context.Context) ([]model.MetricRow, error)
}

// MetadataSource supplies titles and engagement counts per video.
type MetadataSource interface {
	Metadata(ctx context.Context, ids []string) (map[string]model.VideoMetadata, error)
}

// Summarizer writes the AI channel summary.
type Summarizer interface {
	Summarize(ctx context.Context, totalVideos int, top []model.VideoMetricRecord) (string, error)
}

// DashboardService runs refresh cycles and owns the derived dashboard state:
// the revenue resolver, the ranking board and the AI summary.
//
// Every refresh takes a generation number. Results are applied per component
// only when their generation is newer than the last one applied, so a slow
// refresh can never overwrite the result of a later one.
type DashboardService struct {
	reports        ReportSource
	metadata       MetadataSource
	summarizer     Summarizer
	revenue        *RevenueResolver
	board          *RankingBoard
	conversionRate float64
	now            func() time.Time

	mu               sync.Mutex
	issued           uint64
	revenueApplied   uint64
	analyticsApplied uint64
	summaryApplied   uint64
	summary          string
	summaryErr       error
	updatedAt        time.Time
}

func NewDashboardService(reports ReportSource, metadata MetadataSource, summarizer Summarizer, revenue *RevenueResolver, board *RankingBoard, conversionRate float64) *DashboardService {
	return &DashboardService{
		reports:        reports,
		metadata:       metadata,
		summarizer:     summarizer,
		revenue:        revenue,
		board:          board,
		conversionRate: conversionRate,
		now:            time.Now,
	}
}

func (s *DashboardService) Revenue() *RevenueResolver { return s.revenue }

func (s *DashboardService) Board() *RankingBoard { return s.board }

func (s *DashboardService) nextGeneration() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued
}

// claim marks gen as applied for one component. It returns false when a newer
// generation already got there.
func (s *DashboardService) claim(applied *uint64, gen uint64) bool {
	if gen <= *applied {
		return false
	}
	*applied = gen
	return true
}

// Refresh fetches revenue and analytics concurrently. Fetch failures are
// absorbed into fallback state; only an authentication failure is returned.
func (s *DashboardService) Refresh(ctx context.Context, trigger string) error {
	gen := s.nextGeneration()
	start := time.Now()
	logger := log.With().Str("trigger", trigger).Uint64("generation", gen).Logger()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		snap, err := s.fetchRevenue(gctx)
		if repository.IsUnauthorized(err) {
			return err
		}
		s.applyRevenue(gen, snap)
		return nil
	})
	g.Go(func() error {
		return s.refreshAnalytics(gctx, gen)
	})

	err := g.Wait()
	outcome := "ok"
	if err != nil {
		outcome = "unauthorized"
		logger.Warn().Err(err).Msg("refresh aborted")
	} else {
		logger.Info().Dur("duration_ms", time.Since(start)).Msg("refresh complete")
	}
	metrics.RefreshTotal.WithLabelValues(trigger, outcome).Inc()
	return err
}

// fetchRevenue walks the fallback chain: revenue report, then views only,
// then nothing (nil snapshot).
func (s *DashboardService) fetchRevenue(ctx context.Context) (*model.RevenueSnapshot, error) {
	views, revenue, ok, err := s.reports.RevenueTotals(ctx)
	switch {
	case err == nil && ok:
		return &model.RevenueSnapshot{Views: views, ActualRevenue: &revenue, ConversionRate: s.conversionRate}, nil
	case repository.IsUnauthorized(err):
		return nil, err
	case err != nil:
		log.Warn().Err(err).Msg("revenue report failed, falling back to views only")
	}

	views, err = s.reports.ViewsTotal(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("views report failed, using empty snapshot")
		return nil, err
	}
	return &model.RevenueSnapshot{Views: views, ConversionRate: s.conversionRate}, nil
}

func (s *DashboardService) applyRevenue(gen uint64, snap *model.RevenueSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.claim(&s.revenueApplied, gen) {
		log.Debug().Uint64("generation", gen).Msg("discarding stale revenue result")
		return
	}
	s.revenue.IngestSnapshot(snap)
	s.updatedAt = s.now()
}

func (s *DashboardService) refreshAnalytics(ctx context.Context, gen uint64) error {
	rows, err := s.reports.PerVideoMetrics(ctx)
	if err != nil {
		s.failAnalytics(gen, err)
		if repository.IsUnauthorized(err) {
			return err
		}
		return nil
	}

	var meta map[string]model.VideoMetadata
	if len(rows) > 0 {
		ids := make([]string, len(rows))
		for i, r := range rows {
			ids[i] = r.VideoID
		}
		meta, err = s.metadata.Metadata(ctx, ids)
		if err != nil {
			s.failAnalytics(gen, err)
			if repository.IsUnauthorized(err) {
				return err
			}
			return nil
		}
	}

	if !s.applyAnalytics(gen, rows, meta) {
		return nil
	}
	s.refreshSummary(ctx, gen)
	return nil
}

func (s *DashboardService) failAnalytics(gen uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.claim(&s.analyticsApplied, gen) {
		return
	}
	log.Warn().Err(err).Msg("analytics fetch failed")
	s.board.Fail(err)
	s.summary = ""
	s.summaryErr = nil
}

// applyAnalytics rebuilds the board and reports whether a summary should
// follow.
func (s *DashboardService) applyAnalytics(gen uint64, rows []model.MetricRow, meta map[string]model.VideoMetadata) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.claim(&s.analyticsApplied, gen) {
		log.Debug().Uint64("generation", gen).Msg("discarding stale analytics result")
		return false
	}
	s.updatedAt = s.now()
	if err := s.board.Rebuild(rows, meta); err != nil {
		s.summary = ""
		s.summaryErr = nil
		return false
	}
	return true
}

func (s *DashboardService) refreshSummary(ctx context.Context, gen uint64) {
	if s.summarizer == nil {
		return
	}
	top := s.board.Top(summaryTopN)
	total := 0
	if views, err := s.board.Views(); err == nil && len(views) > 0 {
		total = len(views[0].Items)
	}

	text, err := s.summarizer.Summarize(ctx, total, top)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen < s.analyticsApplied || !s.claim(&s.summaryApplied, gen) {
		return
	}
	if err != nil {
		log.Warn().Err(err).Msg("AI summary failed")
	}
	s.summary = text
	s.summaryErr = err
}

// Summary returns the last AI summary and its error, if any.
func (s *DashboardService) Summary() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary, s.summaryErr
}

// Analytics assembles the analytics tab response.
func (s *DashboardService) Analytics() model.AnalyticsResponse {
	resp := model.AnalyticsResponse{Rankings: []model.RankingResponse{}}

	views, err := s.board.Views()
	if err != nil {
		resp.Error, resp.ErrorCode = analyticsErrorState(err)
	}
	for _, v := range views {
		resp.Rankings = append(resp.Rankings, ToResponse(v))
	}

	s.mu.Lock()
	resp.Summary = s.summary
	if s.summaryErr != nil {
		resp.SummaryErr = "AI summary generation failed"
	}
	if !s.updatedAt.IsZero() {
		t := s.updatedAt
		resp.UpdatedAt = &t
	}
	s.mu.Unlock()
	return resp
}

func analyticsErrorState(err error) (msg, code string) {
	if errors.Is(err, ErrEmptyDataset) {
		return "Not enough analytics data for the report window", "EMPTY_DATASET"
	}
	return "Failed to load analytics data", "UPSTREAM_ERROR"
}

// Reset clears all derived state and invalidates in-flight refreshes.
func (s *DashboardService) Reset() {
	s.mu.Lock()
	s.revenueApplied = s.issued
	s.analyticsApplied = s.issued
	s.summaryApplied = s.issued
	s.summary = ""
	s.summaryErr = nil
	s.updatedAt = time.Time{}
	s.mu.Unlock()

	s.revenue.Reset()
	s.board.Reset()
}
