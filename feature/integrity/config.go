package integrity

import (
	"fmt"

	"performer-tag-sync/core/reconcile"
	"performer-tag-sync/core/utils"
)

// Config holds the integrity settings (INTEGRITY_* environment variables).
type Config struct {
	// SupportedSchemaVersions is a comma separated list of tested schema versions.
	SupportedSchemaVersions string `mapstructure:"supported_schema_versions" default:"72"`
	// StrictSchema refuses to sync on an untested schema version instead of warning.
	StrictSchema bool `mapstructure:"strict_schema" default:"false"`
	// CreateIndexes creates the performance indexes before each sync.
	CreateIndexes bool `mapstructure:"create_indexes" default:"true"`
}

// Supported parses SupportedSchemaVersions.
func (c Config) Supported() ([]int64, error) {
	versions, err := utils.ParseIDList(c.SupportedSchemaVersions)
	if err != nil {
		return nil, fmt.Errorf("%w: supported schema versions: %w", reconcile.ErrConfig, err)
	}
	return versions, nil
}
