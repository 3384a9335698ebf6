// Command reconcile runs one poll cycle per job against the configured
// controller and stores, then prints the resulting scheduler state. Useful
// for verifying credentials, connectivity, and schema before deploying the
// long-running service.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"os"
	"time"

	apdatapg "ap-monitor/internal/apdata/infrastructure/postgres"
	countspg "ap-monitor/internal/counts/infrastructure/postgres"
	"ap-monitor/internal/diagnostics"
	"ap-monitor/internal/dnac"
	"ap-monitor/internal/observability/metrics"
	"ap-monitor/internal/reconcile/application"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
)

func main() {
	jobFlag := flag.String("job", "all", "job to run: update_ap_data, update_client_count, or all")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall run timeout")
	flag.Parse()

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	var jobs []application.JobID
	if *jobFlag == "all" {
		jobs = application.Jobs()
	} else {
		job, ok := application.ParseJobID(*jobFlag)
		if !ok {
			logger.Fatal().Str("job", *jobFlag).Msg("unknown job")
		}
		jobs = []application.JobID{job}
	}

	countsDSN := getenv("WIRELESS_DATABASE_URL", "WIRELESS_PG_DSN")
	apDSN := getenv("APCLIENT_DATABASE_URL", "APCLIENT_PG_DSN")
	if countsDSN == "" || apDSN == "" {
		logger.Fatal().Msg("WIRELESS_DATABASE_URL and APCLIENT_DATABASE_URL are required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	countsDB, err := sql.Open("pgx", countsDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("counts db open error")
	}
	defer countsDB.Close()
	apDB, err := sql.Open("pgx", apDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("ap db open error")
	}
	defer apDB.Close()

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
		BaseURL:       os.Getenv("DNAC_BASE_URL"),
		Username:      os.Getenv("DNAC_USERNAME"),
		Password:      os.Getenv("DNAC_PASSWORD"),
		SiteID:        os.Getenv("DNAC_SITE_ID"),
		PageSize:      appCfg.PageSize,
		RetryAttempts: appCfg.RetryAttempts,
		BulkCooldown:  time.Duration(appCfg.BulkCooldownSeconds) * time.Second,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("dnac client error")
	}

	sink := diagnostics.NewSink(appCfg.DiagnosticsPath, appCfg.DiagnosticsEnabled, logger)
	state := application.NewState()
	task := application.NewTask(
		client,
		application.NewPostgresAggregateStore(countsDB),
		application.NewPostgresDetailStore(apDB),
		state,
		sink,
		nil,
		appCfg,
		logger,
	)

	exitCode := 0
	for _, job := range jobs {
		if err := task.Run(ctx, job); err != nil {
			logger.Error().Err(err).Str("job", string(job)).Msg("cycle failed")
			exitCode = 1
		}
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(state.Snapshot())
	os.Exit(exitCode)
}

func getenv(keys ...string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return ""
}
