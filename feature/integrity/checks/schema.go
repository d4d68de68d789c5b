package checks

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"performer-tag-sync/core/database"

	"gorm.io/gorm"
)

// ErrSchemaUnsupported is returned in strict mode when the schema version is not supported.
var ErrSchemaUnsupported = errors.New("unsupported schema version")

// SchemaReport is the result of a schema version check.
type SchemaReport struct {
	Version   int64   `json:"version"`
	Supported []int64 `json:"supported"`
	Matched   bool    `json:"matched"`
	Status    string  `json:"status"` // "ok", "unsupported", "unknown"
}

// CheckSchema reads the schema version and compares it with the supported list.
// A database without any recorded version reports status "unknown".
func CheckSchema(ctx context.Context, db *gorm.DB, supported []int64) (*SchemaReport, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	report := &SchemaReport{Supported: supported}

	version, err := database.SchemaVersion(ctx, db)
	if errors.Is(err, database.ErrNoSchemaVersion) {
		report.Status = "unknown"
		return report, nil
	}
	if err != nil {
		return nil, err
	}

	report.Version = version
	report.Matched = slices.Contains(supported, version)
	report.Status = "ok"
	if !report.Matched {
		report.Status = "unsupported"
	}
	return report, nil
}

// Enforce returns ErrSchemaUnsupported for a report that did not match.
func (r *SchemaReport) Enforce() error {
	if r.Matched {
		return nil
	}
	if r.Status == "unknown" {
		return fmt.Errorf("%w: no version recorded, tested versions %v", ErrSchemaUnsupported, r.Supported)
	}
	return fmt.Errorf("%w: %d not in tested versions %v", ErrSchemaUnsupported, r.Version, r.Supported)
}
