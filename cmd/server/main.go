package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
	"google.golang.org/api/youtubeanalytics/v2"

	"github.com/mathieu-neron/creatordash/internal/config"
	"github.com/mathieu-neron/creatordash/internal/handler"
	"github.com/mathieu-neron/creatordash/internal/metrics"
	"github.com/mathieu-neron/creatordash/internal/middleware"
	"github.com/mathieu-neron/creatordash/internal/relay"
	"github.com/mathieu-neron/creatordash/internal/repository"
	"github.com/mathieu-neron/creatordash/internal/router"
	"github.com/mathieu-neron/creatordash/internal/service"
)

func main() {
	cfg := config.Load()
	middleware.InitLogger(cfg.LogLevel, "creatordash")
	metrics.Register()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "" {
		log.Warn().Msg("GOOGLE_CLIENT_ID or GOOGLE_CLIENT_SECRET not set, sign-in will fail")
	}

	tokenRepo := repository.NewTokenRepo(cfg.RedisURL, cfg.GoogleClientID)
	defer tokenRepo.Close()

	// Every Google client authenticates through the session's token, so the
	// clients exist before anyone signs in.
	oauthCfg := service.NewOAuthConfig(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.OAuthRedirectURL)
	tokens := service.NewSessionTokens(ctx, oauthCfg, tokenRepo, nil)
	googleHTTP := &http.Client{Transport: tokens.Transport(nil), Timeout: 30 * time.Second}

	yt, err := youtube.NewService(ctx, option.WithHTTPClient(googleHTTP))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create YouTube Data API client")
	}
	ytAnalytics, err := youtubeanalytics.NewService(ctx, option.WithHTTPClient(googleHTTP))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create YouTube Analytics API client")
	}
	userinfo, err := oauth2api.NewService(ctx, option.WithHTTPClient(googleHTTP))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create userinfo client")
	}

	videoRepo := repository.NewVideoRepo(yt, int64(cfg.RankingPageSize))
	commentRepo := repository.NewCommentRepo(yt)
	reportRepo := repository.NewReportRepo(ytAnalytics, cfg.ReportWindowDays, int64(cfg.RankingPageSize))
	profileRepo := repository.NewProfileRepo(userinfo)

	executor := newExecutor(ctx, cfg)
	if closer, ok := executor.(io.Closer); ok {
		defer closer.Close()
	}
	aiSvc := service.NewAIService(executor)

	revenue := service.NewRevenueResolver(cfg.DefaultRPM, cfg.CurrencyCode)
	board := service.NewRankingBoard()
	dashboard := service.NewDashboardService(reportRepo, videoRepo, aiSvc, revenue, board, cfg.CurrencyRate)

	session := service.NewSessionService(tokens, service.SessionConfig{
		RefreshInterval: cfg.RefreshInterval,
	}, profileRepo, dashboard)
	defer session.Close()

	resumeCtx, resumeCancel := context.WithTimeout(ctx, 15*time.Second)
	if err := session.Resume(resumeCtx); err != nil {
		log.Warn().Err(err).Msg("could not resume cached session")
	}
	resumeCancel()

	app := fiber.New(fiber.Config{
		AppName:      "CreatorDash API",
		ServerHeader: "CreatorDash",
	})

	router.Setup(app, &router.Handlers{
		Auth:          handler.NewAuthHandler(session, cfg.PostLoginRedirect),
		Revenue:       handler.NewRevenueHandler(revenue),
		Analytics:     handler.NewAnalyticsHandler(dashboard),
		Video:         handler.NewVideoHandler(service.NewVideoService(videoRepo), session),
		Comment:       handler.NewCommentHandler(service.NewCommentService(videoRepo, commentRepo), session),
		AI:            handler.NewAIHandler(aiSvc),
		Refresh:       handler.NewRefreshHandler(session),
		Health:        handler.NewHealthHandler(tokenRepo.Client(), session.Active),
		SessionActive: session.Active,
		SessionOwner:  session.OwnerID,
	}, cfg.CORSOrigins)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		log.Info().Str("signal", sig.String()).Msg("shutting down")

		session.Close()
		cancel()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error().Err(err).Msg("server shutdown failed")
		}
	}()

	log.Info().Str("port", cfg.Port).Str("env", cfg.Environment).Msg("CreatorDash backend starting")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

// newExecutor picks the prompt backend. Gemini falls back to the relay when
// it cannot be created.
func newExecutor(ctx context.Context, cfg *config.Config) relay.Executor {
	if cfg.AIBackend == "gemini" {
		g, err := relay.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.RelayRatePerSec)
		if err == nil {
			log.Info().Str("model", cfg.GeminiModel).Msg("AI backend: gemini")
			return g
		}
		log.Warn().Err(err).Msg("gemini backend unavailable, using relay")
	}
	if cfg.RelayURL == "" {
		log.Warn().Msg("RELAY_URL not set, AI features are disabled")
	}
	return relay.NewClient(relay.DefaultConfig(cfg.RelayURL, cfg.RelayRatePerSec))
}
