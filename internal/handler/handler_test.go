package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"

	"github.com/mathieu-neron/creatordash/internal/model"
	"github.com/mathieu-neron/creatordash/internal/relay"
	"github.com/mathieu-neron/creatordash/internal/repository"
	"github.com/mathieu-neron/creatordash/internal/service"
)

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func doRequest(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return v
}

func errorCode(t *testing.T, data []byte) string {
	t.Helper()
	return decode[errorBody](t, data).Error.Code
}

// --- revenue ---

func TestRevenueHandler(t *testing.T) {
	resolver := service.NewRevenueResolver(500, "JPY")
	resolver.IngestSnapshot(&model.RevenueSnapshot{Views: 2000, ConversionRate: 150})
	h := NewRevenueHandler(resolver)

	app := fiber.New()
	app.Get("/api/revenue", h.Get)
	app.Put("/api/revenue/rpm", h.SetRPM)
	app.Delete("/api/revenue/rpm", h.ResetRPM)

	resp, data := doRequest(t, app, http.MethodGet, "/api/revenue", "")
	state := decode[model.RevenueDisplayState](t, data)
	if resp.StatusCode != fiber.StatusOK || state.Mode != model.RevenueModeAIDefault || state.EffectiveRevenue != 1000 {
		t.Fatalf("GET: status=%d state=%+v", resp.StatusCode, state)
	}

	resp, data = doRequest(t, app, http.MethodPut, "/api/revenue/rpm", `{"rpm":300}`)
	state = decode[model.RevenueDisplayState](t, data)
	if resp.StatusCode != fiber.StatusOK || state.Mode != model.RevenueModeManual || state.EffectiveRevenue != 600 {
		t.Fatalf("PUT: status=%d state=%+v", resp.StatusCode, state)
	}

	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{"negative", `{"rpm":-1}`, "INVALID_INPUT"},
		{"above ceiling", `{"rpm":1e308}`, "INVALID_INPUT"},
		{"missing", `{}`, "MISSING_FIELDS"},
		{"not json", `rpm=3`, "INVALID_BODY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, data := doRequest(t, app, http.MethodPut, "/api/revenue/rpm", tt.body)
			if resp.StatusCode != fiber.StatusBadRequest || errorCode(t, data) != tt.wantCode {
				t.Errorf("status=%d body=%s, want 400 %s", resp.StatusCode, data, tt.wantCode)
			}
		})
	}

	// rejected input leaves the override in place
	if got := resolver.Resolve(); got.Mode != model.RevenueModeManual || got.EffectiveRPM != 300 {
		t.Errorf("after rejected input: %+v", got)
	}

	resp, data = doRequest(t, app, http.MethodDelete, "/api/revenue/rpm", "")
	state = decode[model.RevenueDisplayState](t, data)
	if resp.StatusCode != fiber.StatusOK || state.Mode != model.RevenueModeAIDefault || state.ManualRPMOverride != nil {
		t.Errorf("DELETE: status=%d state=%+v", resp.StatusCode, state)
	}
}

// --- analytics ---

func newAnalyticsApp(dash *service.DashboardService) *fiber.App {
	h := NewAnalyticsHandler(dash)
	app := fiber.New()
	app.Get("/api/analytics", h.Get)
	app.Get("/api/analytics/summary", h.Summary)
	app.Post("/api/analytics/:metric/toggle", h.Toggle)
	return app
}

func TestAnalyticsHandler_Toggle(t *testing.T) {
	board := service.NewRankingBoard()
	dash := service.NewDashboardService(nil, nil, nil, service.NewRevenueResolver(500, "JPY"), board, 150)
	app := newAnalyticsApp(dash)

	resp, data := doRequest(t, app, http.MethodPost, "/api/analytics/views/toggle", "")
	if resp.StatusCode != fiber.StatusConflict || errorCode(t, data) != "NO_RANKING" {
		t.Fatalf("toggle before data: status=%d body=%s", resp.StatusCode, data)
	}

	rows := make([]model.MetricRow, 7)
	for i := range rows {
		rows[i] = model.MetricRow{VideoID: fmt.Sprintf("v%d", i), Views: int64(i * 10)}
	}
	if err := board.Rebuild(rows, nil); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	resp, data = doRequest(t, app, http.MethodGet, "/api/analytics", "")
	analytics := decode[model.AnalyticsResponse](t, data)
	if resp.StatusCode != fiber.StatusOK || len(analytics.Rankings) != len(model.RankingMetrics) {
		t.Fatalf("GET: status=%d body=%s", resp.StatusCode, data)
	}
	views := analytics.Rankings[0]
	if len(views.Items) != model.RankingTopN || !views.HasMore || views.Expanded || views.Items[0].VideoID != "v6" {
		t.Errorf("collapsed views ranking = %+v", views)
	}

	resp, data = doRequest(t, app, http.MethodPost, "/api/analytics/views/toggle", "")
	toggled := decode[model.RankingResponse](t, data)
	if resp.StatusCode != fiber.StatusOK || !toggled.Expanded || len(toggled.Items) != 7 || toggled.Items[6].Rank != 7 {
		t.Errorf("expanded ranking = %+v", toggled)
	}

	resp, data = doRequest(t, app, http.MethodPost, "/api/analytics/dislikes/toggle", "")
	if resp.StatusCode != fiber.StatusBadRequest || errorCode(t, data) != "INVALID_METRIC" {
		t.Errorf("unknown metric: status=%d body=%s", resp.StatusCode, data)
	}
}

func TestAnalyticsHandler_Summary(t *testing.T) {
	dash := service.NewDashboardService(nil, nil, nil, service.NewRevenueResolver(500, "JPY"), service.NewRankingBoard(), 150)
	app := newAnalyticsApp(dash)

	resp, data := doRequest(t, app, http.MethodGet, "/api/analytics/summary", "")
	body := decode[map[string]string](t, data)
	if resp.StatusCode != fiber.StatusOK || body["summary"] != "" || body["error"] != "" {
		t.Errorf("status=%d body=%s", resp.StatusCode, data)
	}
}

// --- videos ---

type fakeVideoStore struct {
	videos []model.Video
	err    error
}

func (f *fakeVideoStore) ListUploads(context.Context) ([]model.Video, error) {
	return f.videos, f.err
}

func (f *fakeVideoStore) CategoryID(context.Context, string) (string, error) {
	return "22", f.err
}

func (f *fakeVideoStore) Update(context.Context, string, string, model.VideoUpdateRequest) error {
	return f.err
}

func (f *fakeVideoStore) Delete(context.Context, string) error {
	return f.err
}

type fakeGuard struct {
	mu    sync.Mutex
	calls int
}

func (g *fakeGuard) HandleUnauthorized(_ context.Context, err error) bool {
	if !repository.IsUnauthorized(err) {
		return false
	}
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	return true
}

func newVideoApp(store *fakeVideoStore, guard *fakeGuard) *fiber.App {
	h := NewVideoHandler(service.NewVideoService(store), guard)
	app := fiber.New()
	app.Get("/api/videos", h.List)
	app.Put("/api/videos/:videoId", h.Update)
	app.Delete("/api/videos/:videoId", h.Delete)
	return app
}

func TestVideoHandler_List(t *testing.T) {
	store := &fakeVideoStore{videos: []model.Video{{VideoID: "abc", Title: "First", PrivacyStatus: "public"}}}
	app := newVideoApp(store, &fakeGuard{})

	resp, data := doRequest(t, app, http.MethodGet, "/api/videos", "")
	body := decode[struct {
		Videos []model.Video `json:"videos"`
	}](t, data)
	if resp.StatusCode != fiber.StatusOK || len(body.Videos) != 1 || body.Videos[0].Title != "First" {
		t.Errorf("status=%d body=%s", resp.StatusCode, data)
	}
}

func TestVideoHandler_Update(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		body       string
		storeErr   error
		wantStatus int
		wantCode   string
	}{
		{"ok", "/api/videos/abc", `{"title":"t","description":"d","privacyStatus":"unlisted"}`, nil, fiber.StatusOK, ""},
		{"bad id", "/api/videos/a%20b", `{"title":"t","privacyStatus":"public"}`, nil, fiber.StatusBadRequest, "INVALID_FIELD"},
		{"bad privacy", "/api/videos/abc", `{"title":"t","privacyStatus":"hidden"}`, nil, fiber.StatusBadRequest, "INVALID_INPUT"},
		{"markup in title", "/api/videos/abc", `{"title":"<b>t</b>","privacyStatus":"public"}`, nil, fiber.StatusBadRequest, "INVALID_FIELD"},
		{"bad body", "/api/videos/abc", `{`, nil, fiber.StatusBadRequest, "INVALID_BODY"},
		{
			"forbidden upstream", "/api/videos/abc", `{"title":"t","privacyStatus":"public"}`,
			&repository.UpstreamError{Source: "youtube.videos", Status: 403, Err: errors.New("forbidden")},
			fiber.StatusForbidden, "FORBIDDEN",
		},
		{
			"missing video", "/api/videos/abc", `{"title":"t","privacyStatus":"public"}`,
			fmt.Errorf("youtube.videos: %w", repository.ErrNotFound),
			fiber.StatusNotFound, "NOT_FOUND",
		},
		{
			"upstream outage", "/api/videos/abc", `{"title":"t","privacyStatus":"public"}`,
			&repository.UpstreamError{Source: "youtube.videos", Status: 503, Err: errors.New("down")},
			fiber.StatusBadGateway, "UPSTREAM_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newVideoApp(&fakeVideoStore{err: tt.storeErr}, &fakeGuard{})
			resp, data := doRequest(t, app, http.MethodPut, tt.path, tt.body)
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status=%d body=%s, want %d", resp.StatusCode, data, tt.wantStatus)
			}
			if tt.wantCode != "" && errorCode(t, data) != tt.wantCode {
				t.Errorf("code=%s, want %s", errorCode(t, data), tt.wantCode)
			}
		})
	}
}

func TestVideoHandler_UnauthorizedForcesLogout(t *testing.T) {
	unauthorized := &repository.UpstreamError{
		Source: "youtube.videos",
		Status: 401,
		Err:    fmt.Errorf("%w: invalid credentials", repository.ErrUnauthorized),
	}
	guard := &fakeGuard{}
	app := newVideoApp(&fakeVideoStore{err: unauthorized}, guard)

	resp, data := doRequest(t, app, http.MethodDelete, "/api/videos/abc", "")
	if resp.StatusCode != fiber.StatusUnauthorized || errorCode(t, data) != "SESSION_EXPIRED" {
		t.Errorf("status=%d body=%s", resp.StatusCode, data)
	}
	if guard.calls != 1 {
		t.Errorf("guard calls = %d, want 1", guard.calls)
	}
}

func TestVideoHandler_NotSignedIn(t *testing.T) {
	app := newVideoApp(&fakeVideoStore{err: fmt.Errorf("get: %w", service.ErrNotAuthenticated)}, &fakeGuard{})
	resp, data := doRequest(t, app, http.MethodGet, "/api/videos", "")
	if resp.StatusCode != fiber.StatusUnauthorized || errorCode(t, data) != "NOT_AUTHENTICATED" {
		t.Errorf("status=%d body=%s", resp.StatusCode, data)
	}
}

// --- AI ---

type fakeExecutor struct {
	answer string
	err    error
}

func (f *fakeExecutor) Execute(context.Context, string, any) (string, error) {
	return f.answer, f.err
}

func newAIApp(exec relay.Executor) *fiber.App {
	h := NewAIHandler(service.NewAIService(exec))
	app := fiber.New()
	app.Post("/api/comments/replies", h.Replies)
	app.Post("/api/ideas", h.Ideas)
	return app
}

func TestAIHandler_Replies(t *testing.T) {
	app := newAIApp(&fakeExecutor{answer: "- ありがとう！\n\n- また来てね"})

	resp, data := doRequest(t, app, http.MethodPost, "/api/comments/replies", `{"text":"最高でした"}`)
	body := decode[model.ReplyResponse](t, data)
	if resp.StatusCode != fiber.StatusOK || len(body.Suggestions) != 2 || body.Suggestions[1] != "また来てね" {
		t.Errorf("status=%d body=%s", resp.StatusCode, data)
	}

	resp, data = doRequest(t, app, http.MethodPost, "/api/comments/replies", `{"text":"   "}`)
	if resp.StatusCode != fiber.StatusBadRequest || errorCode(t, data) != "INVALID_FIELD" {
		t.Errorf("blank text: status=%d body=%s", resp.StatusCode, data)
	}
}

func TestAIHandler_Ideas(t *testing.T) {
	tests := []struct {
		name       string
		exec       *fakeExecutor
		body       string
		wantStatus int
		wantCode   string
	}{
		{"ok", &fakeExecutor{answer: "1. 朝ごはん特集"}, `{"theme":"料理"}`, fiber.StatusOK, ""},
		{"empty theme", &fakeExecutor{}, `{"theme":""}`, fiber.StatusBadRequest, "INVALID_FIELD"},
		{"not configured", &fakeExecutor{err: relay.ErrNotConfigured}, `{"theme":"料理"}`, fiber.StatusServiceUnavailable, "AI_UNAVAILABLE"},
		{"rejected", &fakeExecutor{err: fmt.Errorf("%w: quota", relay.ErrRejected)}, `{"theme":"料理"}`, fiber.StatusBadGateway, "AI_FAILED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, data := doRequest(t, newAIApp(tt.exec), http.MethodPost, "/api/ideas", tt.body)
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status=%d body=%s, want %d", resp.StatusCode, data, tt.wantStatus)
			}
			if tt.wantCode != "" && errorCode(t, data) != tt.wantCode {
				t.Errorf("code=%s, want %s", errorCode(t, data), tt.wantCode)
			}
			if tt.wantStatus == fiber.StatusOK {
				if got := decode[model.IdeaResponse](t, data); got.Ideas != tt.exec.answer {
					t.Errorf("ideas = %q", got.Ideas)
				}
			}
		})
	}
}

// --- auth ---

type nopTokenStore struct{}

func (nopTokenStore) Load(context.Context) (*oauth2.Token, error) { return nil, nil }
func (nopTokenStore) Save(context.Context, *oauth2.Token) error { return nil }
func (nopTokenStore) Clear(context.Context) error { return nil }

type nopProfiles struct{}

func (nopProfiles) Me(context.Context) (*model.Profile, error) {
	return &model.Profile{Name: "Creator"}, nil
}

type nopRefresher struct{}

func (nopRefresher) Refresh(context.Context, string) error { return nil }
func (nopRefresher) Reset() {}

func newAuthApp(t *testing.T) (*fiber.App, *service.SessionService) {
	t.Helper()
	oauthCfg := service.NewOAuthConfig("client", "secret", "http://localhost:8080/auth/callback")
	tokens := service.NewSessionTokens(context.Background(), oauthCfg, nopTokenStore{}, nil)
	session := service.NewSessionService(tokens, service.SessionConfig{}, nopProfiles{}, nopRefresher{})
	t.Cleanup(session.Close)

	h := NewAuthHandler(session, "/")
	app := fiber.New()
	app.Get("/auth/login", h.Login)
	app.Get("/auth/callback", h.Callback)
	app.Post("/auth/logout", h.Logout)
	app.Get("/auth/me", h.Me)
	return app, session
}

func TestAuthHandler_LoginRedirects(t *testing.T) {
	app, _ := newAuthApp(t)
	resp, _ := doRequest(t, app, http.MethodGet, "/auth/login", "")
	if resp.StatusCode != fiber.StatusFound {
		t.Fatalf("status = %d, want 302", resp.StatusCode)
	}
	loc := resp.Header.Get("Location")
	if !strings.HasPrefix(loc, "https://accounts.google.com/") || !strings.Contains(loc, "state=") {
		t.Errorf("Location = %q", loc)
	}
}

func TestAuthHandler_CallbackErrors(t *testing.T) {
	app, _ := newAuthApp(t)

	tests := []struct {
		name     string
		path     string
		wantCode string
	}{
		{"consent denied", "/auth/callback?error=access_denied", "CONSENT_DENIED"},
		{"unknown state", "/auth/callback?code=x&state=forged", "INVALID_STATE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, data := doRequest(t, app, http.MethodGet, tt.path, "")
			if resp.StatusCode != fiber.StatusBadRequest || errorCode(t, data) != tt.wantCode {
				t.Errorf("status=%d body=%s, want 400 %s", resp.StatusCode, data, tt.wantCode)
			}
		})
	}
}

func TestAuthHandler_MeAndLogout(t *testing.T) {
	app, _ := newAuthApp(t)

	_, data := doRequest(t, app, http.MethodGet, "/auth/me", "")
	if me := decode[model.SessionResponse](t, data); me.Authenticated {
		t.Errorf("me = %+v, want signed out", me)
	}

	resp, data := doRequest(t, app, http.MethodPost, "/auth/logout", "")
	if resp.StatusCode != fiber.StatusOK || decode[model.SessionResponse](t, data).Authenticated {
		t.Errorf("logout: status=%d body=%s", resp.StatusCode, data)
	}
}

// --- refresh ---

type fakeRefresher struct{ err error }

func (f fakeRefresher) RefreshNow(context.Context) error { return f.err }

func TestRefreshHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"ok", nil, fiber.StatusOK},
		{"signed out", service.ErrNotAuthenticated, fiber.StatusUnauthorized},
		{"expired", &repository.UpstreamError{Status: 401, Err: repository.ErrUnauthorized}, fiber.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Post("/api/refresh", NewRefreshHandler(fakeRefresher{err: tt.err}).Refresh)
			resp, data := doRequest(t, app, http.MethodPost, "/api/refresh", "")
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status=%d body=%s, want %d", resp.StatusCode, data, tt.wantStatus)
			}
		})
	}
}

// --- health and metrics ---

func TestHealthHandler_Ready(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	tests := []struct {
		name       string
		rdb        *redis.Client
		wantCache  string
		wantStatus string
	}{
		{"redis up", rdb, "up", "healthy"},
		{"cache disabled", nil, "disabled", "healthy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.rdb, func() bool { return false })
			app := fiber.New()
			app.Get("/health/ready", h.Ready)

			resp, data := doRequest(t, app, http.MethodGet, "/health/ready", "")
			body := decode[struct {
				Status string `json:"status"`
				Checks map[string]struct {
					Status string `json:"status"`
				} `json:"checks"`
			}](t, data)
			if resp.StatusCode != fiber.StatusOK || body.Status != tt.wantStatus || body.Checks["token_cache"].Status != tt.wantCache {
				t.Errorf("status=%d body=%s", resp.StatusCode, data)
			}
		})
	}
}

func TestSanitizeEndpoint(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/api/videos", "/api/videos"},
		{"/api/videos/", "/api/videos/"},
		{"/api/videos/dQw4w9WgXcQ", "/api/videos/:videoId"},
		{"/api/analytics/likes/toggle", "/api/analytics/:metric/toggle"},
		{"/api/analytics/summary", "/api/analytics/summary"},
	}
	for _, tt := range tests {
		if got := sanitizeEndpoint(tt.in); got != tt.want {
			t.Errorf("sanitizeEndpoint(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
