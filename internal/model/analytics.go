package model

import "time"

// RankingMetric names a per-video metric that can be ranked.
type RankingMetric string

const (
	MetricViews        RankingMetric = "views"
	MetricWatchMinutes RankingMetric = "watchMinutes"
	MetricLikes        RankingMetric = "likes"
	MetricComments     RankingMetric = "comments"
)

// RankingMetrics lists the metrics in display order.
var RankingMetrics = []RankingMetric{MetricViews, MetricWatchMinutes, MetricLikes, MetricComments}

// MetricUnits are the unit labels shown next to ranked values.
var MetricUnits = map[RankingMetric]string{
	MetricViews:        "回",
	MetricWatchMinutes: "分",
	MetricLikes:        "件",
	MetricComments:     "件",
}

// RankingTopN is the number of items shown while a ranking is collapsed.
const RankingTopN = 5

// MetricRow is one per-video row from the analytics report.
type MetricRow struct {
	VideoID      string  `json:"videoId"`
	Views        int64   `json:"views"`
	WatchMinutes float64 `json:"watchMinutes"`
}

// VideoMetadata is the supplementary content metadata for a video.
type VideoMetadata struct {
	Title        string `json:"title"`
	LikeCount    int64  `json:"likeCount"`
	CommentCount int64  `json:"commentCount"`
}

// VideoMetricRecord is a merged per-video record.
type VideoMetricRecord struct {
	VideoID      string  `json:"videoId"`
	Title        string  `json:"title"`
	Views        int64   `json:"views"`
	WatchMinutes float64 `json:"watchMinutes"`
	Likes        int64   `json:"likes"`
	Comments     int64   `json:"comments"`
}

// Value returns the record's value for the given metric.
func (r VideoMetricRecord) Value(metric RankingMetric) float64 {
	switch metric {
	case MetricViews:
		return float64(r.Views)
	case MetricWatchMinutes:
		return r.WatchMinutes
	case MetricLikes:
		return float64(r.Likes)
	case MetricComments:
		return float64(r.Comments)
	default:
		return 0
	}
}

// RankingView is one metric's full sorted ranking plus its display state.
type RankingView struct {
	Metric   RankingMetric       `json:"metric"`
	Unit     string              `json:"unit"`
	Items    []VideoMetricRecord `json:"-"`
	Expanded bool                `json:"expanded"`
}

// Visible returns the items to display: the top entries when collapsed,
// everything when expanded.
func (v RankingView) Visible() []VideoMetricRecord {
	if v.Expanded || len(v.Items) <= RankingTopN {
		return v.Items
	}
	return v.Items[:RankingTopN]
}

// HasMore reports whether a show-more control is needed.
func (v RankingView) HasMore() bool {
	return len(v.Items) > RankingTopN
}

// RankingItem is a single displayed ranking entry.
type RankingItem struct {
	Rank    int     `json:"rank"`
	VideoID string  `json:"videoId"`
	Title   string  `json:"title"`
	Value   float64 `json:"value"`
	URL     string  `json:"url"`
}

// RankingResponse is the API response for one ranking card.
type RankingResponse struct {
	Metric   RankingMetric `json:"metric"`
	Unit     string        `json:"unit"`
	Items    []RankingItem `json:"items"`
	Total    int           `json:"total"`
	HasMore  bool          `json:"hasMore"`
	Expanded bool          `json:"expanded"`
}

// AnalyticsResponse is the API response for the analytics tab.
type AnalyticsResponse struct {
	Rankings   []RankingResponse `json:"rankings"`
	Error      string            `json:"error,omitempty"`
	ErrorCode  string            `json:"errorCode,omitempty"`
	Summary    string            `json:"summary,omitempty"`
	SummaryErr string            `json:"summaryError,omitempty"`
	UpdatedAt  *time.Time        `json:"updatedAt,omitempty"`
}
