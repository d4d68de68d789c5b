package checks

import (
	"context"
	"fmt"

	"performer-tag-sync/core/database"
	"performer-tag-sync/core/reconcile"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Index is a performance index used by the sync queries.
type Index struct {
	Name   string `json:"name"`
	Table  string `json:"table"`
	Column string `json:"column"`
	// Where restricts the index to matching rows on dialects with partial indexes.
	Where string `json:"where,omitempty"`
}

// IndexStatus is the state of one index.
type IndexStatus struct {
	Index
	Exists  bool   `json:"exists"`
	Created bool   `json:"created,omitempty"`
	Error   string `json:"error,omitempty"`
}

// IndexReport is the result of an index check.
type IndexReport struct {
	Indexes []IndexStatus `json:"indexes"`
	Missing []string      `json:"missing"`
}

// Indexes returns the organized filter index and the tag lookup index of every kind.
func Indexes(kinds []reconcile.EntityKind) []Index {
	indexes := make([]Index, 0, len(kinds)*2)
	for _, kind := range kinds {
		indexes = append(indexes,
			Index{
				Name:   fmt.Sprintf("idx_%s_organized", kind.Table),
				Table:  kind.Table,
				Column: "organized",
				Where:  "organized IS NOT NULL",
			},
			Index{
				Name:   fmt.Sprintf("idx_%s_%s", kind.TagTable, kind.TagColumn),
				Table:  kind.TagTable,
				Column: kind.TagColumn,
			},
		)
	}
	return indexes
}

// CheckIndexes reports which indexes exist.
func CheckIndexes(ctx context.Context, db *gorm.DB, indexes []Index) (*IndexReport, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	report := &IndexReport{Indexes: make([]IndexStatus, 0, len(indexes)), Missing: []string{}}
	for _, idx := range indexes {
		exists, err := indexExists(ctx, db, idx)
		if err != nil {
			return nil, err
		}
		report.Indexes = append(report.Indexes, IndexStatus{Index: idx, Exists: exists})
		if !exists {
			report.Missing = append(report.Missing, idx.Name)
		}
	}
	return report, nil
}

// EnsureIndexes creates the missing indexes. A failing index is logged and
// recorded in the report; it never fails the call.
func EnsureIndexes(ctx context.Context, db *gorm.DB, logger *zap.Logger, indexes []Index) (*IndexReport, error) {
	report, err := CheckIndexes(ctx, db, indexes)
	if err != nil {
		return nil, err
	}

	report.Missing = []string{}
	for i := range report.Indexes {
		st := &report.Indexes[i]
		if st.Exists {
			continue
		}

		logger.Debug("Creating index", zap.String("index", st.Name))
		if err := db.WithContext(ctx).Exec(createIndexSQL(db.Dialector.Name(), st.Index)).Error; err != nil {
			logger.Warn("Could not create index", zap.String("index", st.Name), zap.Error(err))
			st.Error = err.Error()
			report.Missing = append(report.Missing, st.Name)
			continue
		}
		st.Exists = true
		st.Created = true
		logger.Info("Created index", zap.String("index", st.Name))
	}
	return report, nil
}

func indexExists(ctx context.Context, db *gorm.DB, idx Index) (bool, error) {
	var count int64
	var err error
	if db.Dialector.Name() == database.DriverMySQL {
		err = db.WithContext(ctx).
			Raw("SELECT COUNT(*) FROM information_schema.statistics WHERE table_schema = DATABASE() AND table_name = ? AND index_name = ?", idx.Table, idx.Name).
			Scan(&count).Error
	} else {
		err = db.WithContext(ctx).
			Raw("SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = ?", idx.Name).
			Scan(&count).Error
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up index %s: %w", idx.Name, err)
	}
	return count > 0, nil
}

// createIndexSQL builds the statement creating idx. MySQL has neither
// IF NOT EXISTS nor partial indexes, so the caller checks existence first.
func createIndexSQL(dialect string, idx Index) string {
	if dialect == database.DriverMySQL {
		return fmt.Sprintf("CREATE INDEX `%s` ON `%s` (`%s`)", idx.Name, idx.Table, idx.Column)
	}
	stmt := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s(%s)", idx.Name, idx.Table, idx.Column)
	if idx.Where != "" {
		stmt += " WHERE " + idx.Where
	}
	return stmt
}
