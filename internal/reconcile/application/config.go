package application

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config tunes the reconciliation pipeline. Values load from an optional
// YAML file pointed at by APMON_CONFIG, with env fallbacks for the common
// knobs.
type Config struct {
	IntervalMinutes     int    `yaml:"interval_minutes"`
	GraceSeconds        int    `yaml:"grace_seconds"`
	MaintenanceMinutes  int    `yaml:"maintenance_minutes"`
	PageSize            int    `yaml:"page_size"`
	RetryAttempts       int    `yaml:"retry_attempts"`
	BulkCooldownSeconds int    `yaml:"bulk_cooldown_seconds"`
	Campus              string `yaml:"campus"`
	WebhookURL          string `yaml:"webhook_url"`
	DiagnosticsEnabled  bool   `yaml:"diagnostics_enabled"`
	DiagnosticsPath     string `yaml:"diagnostics_path"`
	// BuildingOverrides maps raw building names onto canonical ones ahead
	// of the normal normalization chain.
	BuildingOverrides map[string]string `yaml:"building_overrides"`
}

// LoadConfig loads config from yaml or env.
func LoadConfig() (Config, error) {
	cfg := Config{
		IntervalMinutes:     getenvIntDefault("APMON_INTERVAL_MINUTES", 5),
		GraceSeconds:        getenvIntDefault("APMON_GRACE_SECONDS", 60),
		MaintenanceMinutes:  getenvIntDefault("APMON_MAINTENANCE_MINUTES", 60),
		PageSize:            getenvIntDefault("APMON_PAGE_SIZE", 100),
		RetryAttempts:       getenvIntDefault("APMON_RETRY_ATTEMPTS", 3),
		BulkCooldownSeconds: getenvIntDefault("APMON_BULK_COOLDOWN_SECONDS", 60),
		Campus:              getenvDefault("APMON_CAMPUS", "Keele Campus"),
		WebhookURL:          os.Getenv("APMON_WEBHOOK_URL"),
		DiagnosticsEnabled:  getenvBoolDefault("ENABLE_DIAGNOSTICS", false),
		DiagnosticsPath:     getenvDefault("APMON_DIAGNOSTICS_PATH", "var/diagnostics/incomplete_devices.json"),
	}

	if path := os.Getenv("APMON_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if cfg.IntervalMinutes <= 0 {
		cfg.IntervalMinutes = 5
	}
	if cfg.MaintenanceMinutes <= 0 {
		cfg.MaintenanceMinutes = 60
	}
	if cfg.GraceSeconds <= 0 {
		cfg.GraceSeconds = 60
	}
	if cfg.Campus == "" {
		cfg.Campus = "Keele Campus"
	}
	return cfg, nil
}

// Interval is the reschedule distance after a successful cycle.
func (c Config) Interval() time.Duration {
	return time.Duration(c.IntervalMinutes) * time.Minute
}

// Grace is how late a fire may run before being coalesced.
func (c Config) Grace() time.Duration {
	return time.Duration(c.GraceSeconds) * time.Second
}

// MaintenanceWindow is how long upstream outages suspend the pipeline.
func (c Config) MaintenanceWindow() time.Duration {
	return time.Duration(c.MaintenanceMinutes) * time.Minute
}

func getenvDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvIntDefault(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getenvBoolDefault(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}
