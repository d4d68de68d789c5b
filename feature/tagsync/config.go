package tagsync

import (
	"fmt"
	"time"

	"performer-tag-sync/core/reconcile"
)

// Config holds the sync settings (SYNC_* environment variables).
type Config struct {
	// EnableImages syncs image tags.
	EnableImages bool `mapstructure:"enable_images" default:"true"`
	// EnableGalleries syncs gallery tags.
	EnableGalleries bool `mapstructure:"enable_galleries" default:"true"`
	// EnableScenes syncs scene tags.
	EnableScenes bool `mapstructure:"enable_scenes" default:"true"`
	// TagMode is ADD (merge) or SET (replace).
	TagMode string `mapstructure:"tag_mode" default:"ADD"`
	// BatchSize is the number of entities committed per transaction.
	BatchSize int `mapstructure:"batch_size" default:"5000"`
	// ExcludeOrganized skips entities flagged as organized.
	ExcludeOrganized bool `mapstructure:"exclude_organized" default:"false"`
	// ExcludeTag skips entities carrying this tag (case-insensitive name).
	ExcludeTag string `mapstructure:"exclude_tag" default:""`
	// CommitRetries is the number of tries of a batch commit on a busy database.
	CommitRetries int `mapstructure:"commit_retries" default:"5"`
	// RetryBackoffMS is the initial wait between commit tries.
	RetryBackoffMS int `mapstructure:"retry_backoff_ms" default:"50"`
	// ArchiveReports uploads every run report to object storage.
	ArchiveReports bool `mapstructure:"archive_reports" default:"false"`
	// ReportPrefix is the object key prefix of archived reports.
	ReportPrefix string `mapstructure:"report_prefix" default:"reports/tagsync"`
	// ReportRetention is the number of archived reports kept. Zero keeps all.
	ReportRetention int `mapstructure:"report_retention" default:"50"`
	// LockFile guards against concurrent runs on one database. Empty derives it from the database path.
	LockFile string `mapstructure:"lock_file" default:""`
}

// Validate checks the settings before any database access.
func (c Config) Validate() error {
	if _, err := reconcile.ParsePolicy(c.TagMode); err != nil {
		return err
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("%w: batch size must be positive, got %d", reconcile.ErrConfig, c.BatchSize)
	}
	if c.CommitRetries < 0 {
		return fmt.Errorf("%w: commit retries must not be negative, got %d", reconcile.ErrConfig, c.CommitRetries)
	}
	return nil
}

// Retry returns the commit retry policy.
func (c Config) Retry() reconcile.RetryConfig {
	retry := reconcile.DefaultRetryConfig()
	retry.Attempts = c.CommitRetries
	if c.RetryBackoffMS > 0 {
		retry.InitialBackoff = time.Duration(c.RetryBackoffMS) * time.Millisecond
	}
	return retry
}

// LockPath returns the lock file of a run against dbPath. In-memory databases have none.
func (c Config) LockPath(dbPath string, memory bool) string {
	if c.LockFile != "" {
		return c.LockFile
	}
	if memory || dbPath == "" {
		return ""
	}
	return dbPath + ".tagsync.lock"
}
