package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	apihttp "ap-monitor/internal/api/http"
	apdatapg "ap-monitor/internal/apdata/infrastructure/postgres"
	"ap-monitor/internal/audit"
	"ap-monitor/internal/auth"
	countspg "ap-monitor/internal/counts/infrastructure/postgres"
	"ap-monitor/internal/diagnostics"
	"ap-monitor/internal/dnac"
	"ap-monitor/internal/notify"
	"ap-monitor/internal/observability/metrics"
	"ap-monitor/internal/reconcile/application"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

func main() {
	cfg := loadConfig()
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	countsDB, err := sql.Open("pgx", cfg.CountsDatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("counts db open error")
	}
	defer countsDB.Close()
	apDB, err := sql.Open("pgx", cfg.APDatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("ap db open error")
	}
	defer apDB.Close()

	if err := countsDB.PingContext(ctx); err != nil {
		logger.Fatal().Err(err).Msg("counts db ping error")
	}
	if err := apDB.PingContext(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ap db ping error")
	}

	if err := countspg.EnsureSchema(ctx, countsDB); err != nil {
		logger.Fatal().Err(err).Msg("counts schema error")
	}
	if err := apdatapg.EnsureSchema(ctx, apDB); err != nil {
		logger.Fatal().Err(err).Msg("ap schema error")
	}
	if err := apdatapg.SeedRadioTypes(ctx, apDB); err != nil {
		logger.Fatal().Err(err).Msg("radio seed error")
	}

	metrics.Init()

	appCfg, err := application.LoadConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("config error")
	}

	client, err := dnac.NewClient(dnac.Config{
		BaseURL:       cfg.DNACBaseURL,
		Username:      cfg.DNACUsername,
		Password:      cfg.DNACPassword,
		SiteID:        cfg.DNACSiteID,
		PageSize:      appCfg.PageSize,
		TLSVerify:     cfg.DNACTLSVerify,
		RetryAttempts: appCfg.RetryAttempts,
		BulkCooldown:  time.Duration(appCfg.BulkCooldownSeconds) * time.Second,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("dnac client error")
	}

	var notifier notify.Notifier
	if appCfg.WebhookURL != "" {
		notifier = notify.NewWebhookNotifier(appCfg.WebhookURL)
	}
	sink := diagnostics.NewSink(appCfg.DiagnosticsPath, appCfg.DiagnosticsEnabled, logger)

	state := application.NewState()
	task := application.NewTask(
		client,
		application.NewPostgresAggregateStore(countsDB),
		application.NewPostgresDetailStore(apDB),
		state,
		sink,
		notifier,
		appCfg,
		logger,
	)
	scheduler := application.NewScheduler(task, state, appCfg, logger)
	scheduler.Start(ctx)

	if err := audit.EnsureSchema(ctx, countsDB); err != nil {
		logger.Fatal().Err(err).Msg("audit schema error")
	}
	auditRepo := audit.NewRepository(countsDB)

	buildingRepo := countspg.NewBuildingRepository(countsDB)
	countRepo := countspg.NewClientCountRepository(countsDB)
	analyzer := diagnostics.NewAnalyzer(buildingRepo, countRepo, notifier, logger)

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/scheduler", apihttp.NewSchedulerHandler(state))
	mux.Handle("/api/v1/tasks/", apihttp.NewTaskTriggerHandler(task, auditRepo))
	mux.Handle("/api/v1/aps", apihttp.NewAPsHandler(apdatapg.NewAccessPointRepository(apDB)))
	mux.Handle("/api/v1/buildings", apihttp.NewBuildingsHandler(apdatapg.NewHierarchyRepository(apDB)))
	mux.Handle("/api/v1/client-counts", apihttp.NewClientCountsHandler(countRepo))
	mux.Handle("/api/v1/ap-counts", apihttp.NewAPCountsHandler(apdatapg.NewAPClientCountRepository(apDB)))
	mux.Handle("/api/v1/reports/client-counts.xlsx", apihttp.NewExportClientCountsHandler(countRepo))
	mux.Handle("/api/v1/reports/client-counts.pdf", apihttp.NewExportClientCountsHandler(countRepo))
	mux.Handle("/api/v1/diagnostics/incomplete", apihttp.NewDiagnosticsIncompleteHandler(sink))
	mux.Handle("/api/v1/diagnostics/report", apihttp.NewDiagnosticsReportHandler(analyzer, auditRepo))
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", apihttp.HealthzHandler{})

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("addr", cfg.HTTPAddr).Msg("http listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("http server error")
	}
	scheduler.Wait()
}

type config struct {
	CountsDatabaseURL string
	APDatabaseURL     string
	HTTPAddr          string
	DNACBaseURL       string
	DNACUsername      string
	DNACPassword      string
	DNACSiteID        string
	DNACTLSVerify     bool
	JWTSecret         string
}

func loadConfig() config {
	cfg := config{
		CountsDatabaseURL: getenvDefault("WIRELESS_DATABASE_URL", getenvDefault("WIRELESS_PG_DSN", "")),
		APDatabaseURL:     getenvDefault("APCLIENT_DATABASE_URL", getenvDefault("APCLIENT_PG_DSN", "")),
		HTTPAddr:          getenvDefault("HTTP_ADDR", ":8080"),
		DNACBaseURL:       getenvDefault("DNAC_BASE_URL", ""),
		DNACUsername:      getenvDefault("DNAC_USERNAME", ""),
		DNACPassword:      getenvDefault("DNAC_PASSWORD", ""),
		DNACSiteID:        getenvDefault("DNAC_SITE_ID", ""),
		DNACTLSVerify:     getenvBoolDefault("DNAC_TLS_VERIFY", false),
		JWTSecret:         getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
	}
	logger := zerolog.New(os.Stderr)
	if cfg.CountsDatabaseURL == "" {
		logger.Fatal().Msg("WIRELESS_DATABASE_URL is required")
	}
	if cfg.APDatabaseURL == "" {
		logger.Fatal().Msg("APCLIENT_DATABASE_URL is required")
	}
	if cfg.DNACBaseURL == "" {
		logger.Fatal().Msg("DNAC_BASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		logger.Fatal().Msg("AUTH_JWT_SECRET is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvBoolDefault(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func loggingMiddleware(next http.Handler, logger zerolog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", resp.status).
			Dur("elapsed", time.Since(start)).
			Msg("http request")
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
