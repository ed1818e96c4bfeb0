package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/api/youtubeanalytics/v2"

	"github.com/mathieu-neron/creatordash/internal/model"
)

const reportDateLayout = "2006-01-02"

// ReportRepo queries the YouTube Analytics API for the owner's channel over a
// trailing window ending today (UTC).
type ReportRepo struct {
	svc        *youtubeanalytics.Service
	windowDays int
	pageSize   int64
	now        func() time.Time
}

func NewReportRepo(svc *youtubeanalytics.Service, windowDays int, pageSize int64) *ReportRepo {
	return &ReportRepo{
		svc:        svc,
		windowDays: windowDays,
		pageSize:   pageSize,
		now:        time.Now,
	}
}

// Window returns the report start and end dates.
func (r *ReportRepo) Window() (start, end string) {
	endDate := r.now().UTC()
	startDate := endDate.AddDate(0, 0, -r.windowDays)
	return startDate.Format(reportDateLayout), endDate.Format(reportDateLayout)
}

func (r *ReportRepo) query(metrics string) *youtubeanalytics.ReportsQueryCall {
	start, end := r.Window()
	return r.svc.Reports.Query().
		Ids("channel==MINE").
		StartDate(start).
		EndDate(end).
		Metrics(metrics)
}

// RevenueTotals returns channel views and estimated revenue in the API's base
// currency. ok is false when the response has no revenue column or no rows,
// which happens for channels outside the partner program.
func (r *ReportRepo) RevenueTotals(ctx context.Context) (views int64, revenue float64, ok bool, err error) {
	resp, err := r.query("views,estimatedRevenue").Context(ctx).Do()
	if err != nil {
		return 0, 0, false, wrapUpstream("analytics.revenue", err)
	}
	if len(resp.ColumnHeaders) < 2 || len(resp.Rows) == 0 {
		return 0, 0, false, nil
	}

	cols := columnIndex(resp.ColumnHeaders)
	vi, hasViews := cols["views"]
	ri, hasRevenue := cols["estimatedRevenue"]
	if !hasViews || !hasRevenue {
		return 0, 0, false, nil
	}
	row := resp.Rows[0]
	return int64(cellNumber(row, vi)), cellNumber(row, ri), true, nil
}

// ViewsTotal returns channel views for the window. No rows means zero views.
func (r *ReportRepo) ViewsTotal(ctx context.Context) (int64, error) {
	resp, err := r.query("views").Context(ctx).Do()
	if err != nil {
		return 0, wrapUpstream("analytics.views", err)
	}
	if len(resp.Rows) == 0 {
		return 0, nil
	}
	return int64(cellNumber(resp.Rows[0], 0)), nil
}

// PerVideoMetrics returns per-video views and watch minutes, most viewed first.
func (r *ReportRepo) PerVideoMetrics(ctx context.Context) ([]model.MetricRow, error) {
	resp, err := r.query("views,estimatedMinutesWatched").
		Dimensions("video").
		Sort("-views").
		MaxResults(r.pageSize).
		Context(ctx).Do()
	if err != nil {
		return nil, wrapUpstream("analytics.videos", err)
	}

	cols := columnIndex(resp.ColumnHeaders)
	vid, ok := cols["video"]
	if !ok && len(resp.Rows) > 0 {
		return nil, &UpstreamError{Source: "analytics.videos", Err: fmt.Errorf("response has no video column")}
	}
	viewsIdx, hasViews := cols["views"]
	minutesIdx, hasMinutes := cols["estimatedMinutesWatched"]

	rows := make([]model.MetricRow, 0, len(resp.Rows))
	for _, raw := range resp.Rows {
		id, _ := cell(raw, vid).(string)
		if id == "" {
			continue
		}
		row := model.MetricRow{VideoID: id}
		if hasViews {
			row.Views = int64(cellNumber(raw, viewsIdx))
		}
		if hasMinutes {
			row.WatchMinutes = cellNumber(raw, minutesIdx)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func columnIndex(headers []*youtubeanalytics.ResultTableColumnHeader) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		if h != nil {
			idx[h.Name] = i
		}
	}
	return idx
}

func cell(row []interface{}, i int) interface{} {
	if i < 0 || i >= len(row) {
		return nil
	}
	return row[i]
}

// cellNumber reads a numeric cell. Rows decode from JSON, so numbers arrive
// as float64 (or json.Number with a custom decoder).
func cellNumber(row []interface{}, i int) float64 {
	switch v := cell(row, i).(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	case json.Number:
		f, _ := v.Float64()
		return f
	default:
		return 0
	}
}
