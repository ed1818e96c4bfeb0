package service

import (
	"fmt"
	"sort"
	"sync"

	"github.com/mathieu-neron/creatordash/internal/model"
)

// Merge left-joins per-video metric rows with content metadata. The metric
// rows decide which videos appear and in what order; metadata only fills in
// the title and engagement counts. A missing title falls back to the video id.
// Repeated video ids keep their first row.
func Merge(rows []model.MetricRow, metadata map[string]model.VideoMetadata) ([]model.VideoMetricRecord, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyDataset
	}

	records := make([]model.VideoMetricRecord, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		if _, dup := seen[row.VideoID]; dup {
			continue
		}
		seen[row.VideoID] = struct{}{}

		rec := model.VideoMetricRecord{
			VideoID:      row.VideoID,
			Title:        row.VideoID,
			Views:        max(row.Views, 0),
			WatchMinutes: max(row.WatchMinutes, 0),
		}
		if meta, ok := metadata[row.VideoID]; ok {
			if meta.Title != "" {
				rec.Title = meta.Title
			}
			rec.Likes = max(meta.LikeCount, 0)
			rec.Comments = max(meta.CommentCount, 0)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Rank returns the full ranking for one metric, highest first. Equal values
// keep their input order.
func Rank(records []model.VideoMetricRecord, metric model.RankingMetric) model.RankingView {
	items := make([]model.VideoMetricRecord, len(records))
	copy(items, records)
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Value(metric) > items[j].Value(metric)
	})

	return model.RankingView{
		Metric: metric,
		Unit:   model.MetricUnits[metric],
		Items:  items,
	}
}

// ToggleExpansion flips the expanded flag without re-sorting.
func ToggleExpansion(view model.RankingView) model.RankingView {
	view.Expanded = !view.Expanded
	return view
}

// ParseMetric validates a metric name from a request path.
func ParseMetric(name string) (model.RankingMetric, error) {
	for _, m := range model.RankingMetrics {
		if string(m) == name {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: unknown metric %q", ErrInvalidInput, name)
}

// RankingBoard holds one ranking per metric for the current refresh cycle.
type RankingBoard struct {
	mu    sync.RWMutex
	views map[model.RankingMetric]model.RankingView
	err   error
}

func NewRankingBoard() *RankingBoard {
	return &RankingBoard{views: make(map[model.RankingMetric]model.RankingView)}
}

// Rebuild replaces every ranking from a fresh set of rows. All expanded flags
// are reset. On error the rankings are cleared and the error is kept for
// display.
func (b *RankingBoard) Rebuild(rows []model.MetricRow, metadata map[string]model.VideoMetadata) error {
	records, err := Merge(rows, metadata)

	views := make(map[model.RankingMetric]model.RankingView, len(model.RankingMetrics))
	if err == nil {
		for _, m := range model.RankingMetrics {
			views[m] = Rank(records, m)
		}
	}

	b.mu.Lock()
	b.views = views
	b.err = err
	b.mu.Unlock()
	return err
}

// Fail clears the rankings and records an upstream error.
func (b *RankingBoard) Fail(err error) {
	b.mu.Lock()
	b.views = make(map[model.RankingMetric]model.RankingView)
	b.err = err
	b.mu.Unlock()
}

// Toggle flips the expanded state of one ranking.
func (b *RankingBoard) Toggle(metric model.RankingMetric) (model.RankingView, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	view, ok := b.views[metric]
	if !ok {
		if b.err != nil {
			return model.RankingView{}, b.err
		}
		return model.RankingView{}, ErrEmptyDataset
	}
	view = ToggleExpansion(view)
	b.views[metric] = view
	return view, nil
}

// Views returns the rankings in display order, or the last rebuild error.
func (b *RankingBoard) Views() ([]model.RankingView, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.err != nil {
		return nil, b.err
	}
	out := make([]model.RankingView, 0, len(b.views))
	for _, m := range model.RankingMetrics {
		if v, ok := b.views[m]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

// Top returns up to n merged records ordered by views.
func (b *RankingBoard) Top(n int) []model.VideoMetricRecord {
	b.mu.RLock()
	defer b.mu.RUnlock()

	view, ok := b.views[model.MetricViews]
	if !ok {
		return nil
	}
	if len(view.Items) < n {
		n = len(view.Items)
	}
	out := make([]model.VideoMetricRecord, n)
	copy(out, view.Items[:n])
	return out
}

// Reset empties the board (used on logout).
func (b *RankingBoard) Reset() {
	b.mu.Lock()
	b.views = make(map[model.RankingMetric]model.RankingView)
	b.err = nil
	b.mu.Unlock()
}

// ToResponse converts a ranking into its API shape with 1-based ranks.
func ToResponse(view model.RankingView) model.RankingResponse {
	visible := view.Visible()
	items := make([]model.RankingItem, 0, len(visible))
	for i, rec := range visible {
		items = append(items, model.RankingItem{
			Rank:    i + 1,
			VideoID: rec.VideoID,
			Title:   rec.Title,
			Value:   rec.Value(view.Metric),
			URL:     model.WatchURL(rec.VideoID),
		})
	}
	return model.RankingResponse{
		Metric:   view.Metric,
		Unit:     view.Unit,
		Items:    items,
		Total:    len(view.Items),
		HasMore:  view.HasMore(),
		Expanded: view.Expanded,
	}
}
