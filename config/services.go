package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ServiceMode represents the available service modes.
type ServiceMode string

const (
	// ServiceModeScheduler runs the cron scheduler for the pipeline and
	// retention jobs.
	ServiceModeScheduler ServiceMode = "scheduler"
	// ServiceModePipelineOnce runs one pipeline pass and exits.
	ServiceModePipelineOnce ServiceMode = "pipeline-once"
	// ServiceModeRetentionOnce runs the three retention passes and exits.
	ServiceModeRetentionOnce ServiceMode = "retention-once"
	// ServiceModeRetentionDryRun reports what the three retention passes
	// would do without writing, so operators can inspect the candidate set
	// before a destructive run.
	ServiceModeRetentionDryRun ServiceMode = "retention-dry-run"
)

// ValidServiceModes returns all valid service mode names.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{
		ServiceModeScheduler,
		ServiceModePipelineOnce,
		ServiceModeRetentionOnce,
		ServiceModeRetentionDryRun,
	}
}

// ParseServices parses a comma-delimited string of service names and returns the enabled services.
// It validates that all service names are valid and returns an error if any are invalid.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	services := make(map[ServiceMode]bool)

	if servicesStr == "" {
		return services, errors.New("at least one service must be specified")
	}

	parts := strings.Split(servicesStr, ",")
	for _, part := range parts {
		serviceName := strings.TrimSpace(part)
		if serviceName == "" {
			continue
		}

		mode := ServiceMode(serviceName)
		switch mode {
		case ServiceModeScheduler, ServiceModePipelineOnce, ServiceModeRetentionOnce, ServiceModeRetentionDryRun:
			services[mode] = true
		default:
			return nil, fmt.Errorf(
				"invalid service name: %q (valid options: scheduler, pipeline-once, retention-once, retention-dry-run)",
				serviceName,
			)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("at least one valid service must be specified")
	}

	return services, nil
}

// PipelineConfig contains the scheduler's cron expressions and timezone.
type PipelineConfig struct {
	// Timezone is the IANA zone all schedules are evaluated in.
	Timezone string `env:"SCHEDULE_TIMEZONE" envDefault:"UTC"`

	// PipelineSchedule fires the weekly metrics pipeline.
	PipelineSchedule string `env:"PIPELINE_SCHEDULE" envDefault:"0 6 * * 1"`

	// CompressSchedule fires the ticket compression pass.
	CompressSchedule string `env:"COMPRESS_SCHEDULE" envDefault:"0 2 1 * *"`

	// PurgeSchedule fires the aggregate purge pass.
	PurgeSchedule string `env:"PURGE_SCHEDULE" envDefault:"30 2 1 * *"`

	// ScanSchedule fires the daily snapshot expiry scan.
	ScanSchedule string `env:"SCAN_SCHEDULE" envDefault:"0 3 * * *"`

	// StartupJitter spreads retention work across a fleet so simultaneous
	// restarts do not hit the database at once.
	StartupJitter time.Duration `env:"RETENTION_JITTER" envDefault:"0s"`
}

// Sanitize applies guardrails to schedule configuration values.
func (c *PipelineConfig) Sanitize() {
	c.Timezone = strings.TrimSpace(c.Timezone)
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	if c.StartupJitter < 0 {
		c.StartupJitter = 0
	}
}
