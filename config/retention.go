package config

import "time"

// RetentionConfig contains the tier boundaries for the data lifecycle.
// Tickets older than CompressAfterMonths collapse into monthly aggregates,
// aggregates older than PurgeAfterMonths are removed, and snapshots are
// deleted once past their expiry plus GracePeriod.
type RetentionConfig struct {
	CompressAfterMonths int `env:"RETENTION_COMPRESS_MONTHS" envDefault:"12"`
	PurgeAfterMonths    int `env:"RETENTION_PURGE_MONTHS"    envDefault:"36"`
	NotifyAfterMonths   int `env:"RETENTION_NOTIFY_MONTHS"   envDefault:"12"`
	HardExpiryMonths    int `env:"RETENTION_EXPIRY_MONTHS"   envDefault:"13"`

	GracePeriod time.Duration `env:"RETENTION_GRACE_PERIOD" envDefault:"168h"`

	// AuditFallbackPath is the JSONL file that receives audit entries when
	// the database write fails. Empty disables the fallback sink.
	AuditFallbackPath string `env:"RETENTION_AUDIT_FALLBACK_PATH" envDefault:""`
}

// Sanitize applies guardrails to retention configuration values.
func (c *RetentionConfig) Sanitize() {
	if c.CompressAfterMonths < 1 {
		c.CompressAfterMonths = 12
	}
	if c.PurgeAfterMonths < c.CompressAfterMonths {
		c.PurgeAfterMonths = 36
	}
	if c.NotifyAfterMonths < 1 {
		c.NotifyAfterMonths = 12
	}
	// Hard expiry must trail notification or snapshots would be deleted
	// before anyone is warned.
	if c.HardExpiryMonths <= c.NotifyAfterMonths {
		c.HardExpiryMonths = c.NotifyAfterMonths + 1
	}
	if c.GracePeriod < 0 {
		c.GracePeriod = 0
	}
}
