// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/butecodosdevs/buteco-linebot-go/internal/apiclient"
	"github.com/butecodosdevs/buteco-linebot-go/internal/backend"
	"github.com/butecodosdevs/buteco-linebot-go/internal/bot"
	"github.com/butecodosdevs/buteco-linebot-go/internal/buildinfo"
	"github.com/butecodosdevs/buteco-linebot-go/internal/config"
	"github.com/butecodosdevs/buteco-linebot-go/internal/data"
	"github.com/butecodosdevs/buteco-linebot-go/internal/dialog"
	"github.com/butecodosdevs/buteco-linebot-go/internal/lineutil"
	"github.com/butecodosdevs/buteco-linebot-go/internal/logger"
	"github.com/butecodosdevs/buteco-linebot-go/internal/metrics"
	"github.com/butecodosdevs/buteco-linebot-go/internal/modules/account"
	"github.com/butecodosdevs/buteco-linebot-go/internal/modules/ai"
	"github.com/butecodosdevs/buteco-linebot-go/internal/modules/bet"
	"github.com/butecodosdevs/buteco-linebot-go/internal/modules/challenge"
	"github.com/butecodosdevs/buteco-linebot-go/internal/modules/economy"
	"github.com/butecodosdevs/buteco-linebot-go/internal/modules/member"
	"github.com/butecodosdevs/buteco-linebot-go/internal/modules/political"
	"github.com/butecodosdevs/buteco-linebot-go/internal/modules/system"
	"github.com/butecodosdevs/buteco-linebot-go/internal/pagination"
	"github.com/butecodosdevs/buteco-linebot-go/internal/r2client"
	"github.com/butecodosdevs/buteco-linebot-go/internal/ratelimit"
	"github.com/butecodosdevs/buteco-linebot-go/internal/sentry"
	"github.com/butecodosdevs/buteco-linebot-go/internal/session"
	"github.com/butecodosdevs/buteco-linebot-go/internal/webhook"
)

// Application manages the application lifecycle and dependencies.
type Application struct {
	cfg            *config.Config
	logger         *logger.Logger
	metrics        *metrics.Metrics
	registry       *prometheus.Registry
	sessions       *session.Registry
	router         *bot.Router
	webhookHandler *webhook.Handler
	server         *http.Server
	aiLimiter      *ratelimit.KeyedLimiter
	userLimiter    *ratelimit.KeyedLimiter
	charts         bool
}

// Initialize creates and initializes a new application with all dependencies.
func Initialize(ctx context.Context, cfg *config.Config) (*Application, error) {
	log := logger.NewWithOptions(cfg.LogLevel, os.Stdout, logger.Options{
		BetterStackToken:    cfg.BetterStackToken,
		BetterStackEndpoint: cfg.BetterStackEndpoint,
	})

	log = log.WithField("service", "buteco-linebot-go")
	if host, err := os.Hostname(); err == nil && host != "" {
		log = log.WithField("instance_id", host)
	}

	// Package-level slog calls pick up chat identifiers from context.
	slog.SetDefault(log.Logger)

	log.Info("Initializing application...")
	if cfg.BetterStackToken != "" {
		log.WithField("endpoint", cfg.BetterStackEndpoint).Info("Better Stack logging enabled")
	}

	if err := sentry.Initialize(sentry.Config{
		Token:       cfg.SentryToken,
		Host:        cfg.SentryHost,
		Environment: cfg.SentryEnvironment,
		Release:     buildinfo.Release(),
		SampleRate:  cfg.SentrySampleRate,
	}); err != nil {
		log.WithError(err).Warn("Error tracking disabled")
	} else if sentry.IsEnabled() {
		log.WithField("host", cfg.SentryHost).Info("Error tracking enabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewBuildInfoCollector(),
	)
	m := metrics.New(registry)

	clients := backend.New(apiclient.New(cfg.APITimeout, m), cfg, m)

	sessions := session.NewRegistry(session.Options{
		DefaultTTL:    cfg.Bot.SessionTTL,
		SweepInterval: cfg.Bot.SessionSweepInterval,
		Metrics:       m,
	})
	engines := bot.Sessions{
		Pages:   pagination.NewEngine(sessions),
		Dialogs: dialog.NewEngine(sessions),
		TTL:     cfg.Bot.SessionTTL,
	}
	// The reply token is long gone when a dialog times out; log only.
	engines.Dialogs.OnTimeout(func(res dialog.Result) {
		log.WithField("session_id", res.SessionID).
			WithField("owner_id", res.OwnerID).
			Debug("Dialog timed out")
	})

	lineAPI, err := messaging_api.NewMessagingApiAPI(cfg.LineChannelToken)
	if err != nil {
		sessions.Stop()
		return nil, fmt.Errorf("messaging API: %w", err)
	}
	members := member.NewDirectory(clients.Users, webhook.NewProfileLookup(lineAPI), log)

	aiLimiter := ratelimit.NewAILimiter(cfg.Bot, m)
	userLimiter := ratelimit.NewUserLimiter(cfg.Bot, m)

	var images political.ImageStore
	if cfg.R2Enabled() {
		store, err := r2client.New(ctx, r2client.Config{
			Endpoint:      r2client.Endpoint(cfg.R2AccountID),
			AccessKeyID:   cfg.R2AccessKeyID,
			SecretKey:     cfg.R2SecretAccessKey,
			BucketName:    cfg.R2BucketName,
			PublicBaseURL: cfg.R2PublicBaseURL,
			Prefix:        cfg.R2ChartPrefix,
		})
		if err != nil {
			log.WithError(err).Warn("Chart storage unavailable, charts will be sent as lists")
		} else {
			images = store
			log.WithField("bucket", cfg.R2BucketName).Info("Chart storage enabled")
		}
	}

	router := bot.NewRouter(log, m, bot.WithErrorReporter(sentry.Reporter()))
	router.RegisterModule(account.NewHandler(clients.Users, engines, log))
	router.RegisterModule(economy.NewHandler(members, clients.Balance, clients.Coins, engines, log))
	router.RegisterModule(bet.NewHandler(members, clients.Bets, cfg, engines, log))
	router.RegisterModule(ai.NewHandler(members, clients.Balance, clients.AI, aiLimiter, int64(cfg.AIUsageCost), log))
	router.RegisterModule(political.NewHandler(members, clients.Political, images, engines, log))
	router.RegisterModule(challenge.NewHandler(members, clients.Challenges, engines, log))
	router.RegisterModule(system.NewHandler(data.Commands(), clients.Health, cfg.SourceCodeURL, engines, log))
	log.WithField("commands", len(router.Commands())).Info("Commands registered")

	processor := bot.NewProcessor(bot.ProcessorConfig{
		Router:      router,
		Pages:       engines.Pages,
		Dialogs:     engines.Dialogs,
		UserLimiter: userLimiter,
		Logger:      log,
		BotConfig:   &cfg.Bot,
		Welcome:     system.Welcome(),
	})

	webhookHandler, err := webhook.NewHandler(webhook.HandlerConfig{
		ChannelSecret: cfg.LineChannelSecret,
		ChannelToken:  cfg.LineChannelToken,
		BotConfig:     &cfg.Bot,
		Metrics:       m,
		Logger:        log,
		Processor:     processor,
	},
		webhook.WithMessenger(lineAPI),
		webhook.WithSender(lineutil.GetSender(lineutil.SenderSystem, "")),
	)
	if err != nil {
		sessions.Stop()
		aiLimiter.Stop()
		userLimiter.Stop()
		return nil, fmt.Errorf("webhook: %w", err)
	}

	app := &Application{
		cfg:            cfg,
		logger:         log,
		metrics:        m,
		registry:       registry,
		sessions:       sessions,
		router:         router,
		webhookHandler: webhookHandler,
		aiLimiter:      aiLimiter,
		userLimiter:    userLimiter,
		charts:         images != nil,
	}

	app.server = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.routes(),
		ReadHeaderTimeout: config.WebhookHTTPRead,
		ReadTimeout:       config.WebhookHTTPRead,
		WriteTimeout:      config.WebhookHTTPWrite,
		IdleTimeout:       config.WebhookHTTPIdle,
	}

	log.Info("Initialization complete")
	return app, nil
}

// routes builds the HTTP surface: probes, the LINE webhook and metrics.
func (a *Application) routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	if sentry.IsEnabled() {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	r.Use(securityHeadersMiddleware())
	r.Use(loggingMiddleware(a.logger))

	r.GET("/", a.redirectToSource)
	r.GET("/livez", a.livenessCheck)
	r.HEAD("/livez", a.livenessCheck)
	r.GET("/readyz", a.readinessCheck)
	r.HEAD("/readyz", a.readinessCheck)
	r.POST("/webhook", a.webhookHandler.Handle)
	r.GET("/metrics",
		metricsAuthMiddleware(a.cfg.MetricsPassword != "", a.cfg.MetricsUsername, a.cfg.MetricsPassword),
		gin.WrapH(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))
	return r
}

func (a *Application) redirectToSource(c *gin.Context) {
	c.Redirect(http.StatusTemporaryRedirect, a.cfg.SourceCodeURL)
}

func (a *Application) livenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}

// readinessCheck never calls the backends; a slow collaborator must not
// take the webhook out of rotation.
func (a *Application) readinessCheck(c *gin.Context) {
	if a.router == nil || a.sessions == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "initializing",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ready",
		"version":  buildinfo.Release(),
		"commands": len(a.router.Commands()),
		"sessions": a.sessions.Len(),
		"features": a.features(),
	})
}

func (a *Application) features() map[string]bool {
	return map[string]bool{
		"chart_upload":   a.charts,
		"error_tracking": sentry.IsEnabled(),
	}
}

// Run serves until SIGINT or SIGTERM, then shuts down gracefully.
func (a *Application) Run() error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.WithField("port", a.cfg.Port).Info("Starting HTTP server")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		a.logger.WithField("signal", sig.String()).Info("Received shutdown signal")
	case err := <-errCh:
		a.logger.WithError(err).Error("HTTP server error")
		_ = a.shutdown()
		return fmt.Errorf("http server: %w", err)
	}

	return a.shutdown()
}

func (a *Application) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	a.logger.Info("Stopping HTTP server...")
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Error("HTTP server shutdown error")
	}

	a.logger.Info("Waiting for webhook events to complete...")
	if err := a.webhookHandler.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Warn("Webhook handler shutdown timeout")
	}

	a.logger.Info("Closing resources...")
	a.sessions.Stop()
	a.aiLimiter.Stop()
	a.userLimiter.Stop()

	if sentry.IsEnabled() && !sentry.Flush(2*time.Second) {
		a.logger.Warn("Error tracking flush timed out")
	}

	if err := a.logger.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Warn("Logger shutdown timed out")
	}

	a.logger.Info("Shutdown complete")
	return nil
}
