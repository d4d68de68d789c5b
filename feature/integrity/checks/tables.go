package checks

import (
	"fmt"
	"sort"

	"performer-tag-sync/core/database"
	"performer-tag-sync/core/reconcile"

	"gorm.io/gorm"
)

// TablesReport is the result of a required tables check.
type TablesReport struct {
	Matched bool                   `json:"matched"`
	Tables  map[string]TableReport `json:"tables"`
	Errors  []string               `json:"errors"`
}

type TableReport struct {
	MissingColumns []string `json:"missing_columns"`
	Status         string   `json:"status"` // "ok", "error", "missing"
}

// RequiredColumns returns the tables and columns read or written when syncing kinds.
func RequiredColumns(kinds []reconcile.EntityKind) map[string][]string {
	required := map[string][]string{
		"tags":            {"id", "name"},
		"performers_tags": {"performer_id", "tag_id"},
	}
	for _, kind := range kinds {
		required[kind.Table] = []string{"id", "organized"}
		required[kind.PerformerTable] = []string{"performer_id", kind.PerformerColumn}
		required[kind.TagTable] = []string{kind.TagColumn, "tag_id"}
	}
	return required
}

// CheckTables verifies that every required table exists with its columns.
func CheckTables(db *gorm.DB, kinds []reconcile.EntityKind) (*TablesReport, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	report := &TablesReport{
		Matched: true,
		Tables:  make(map[string]TableReport),
		Errors:  []string{},
	}

	required := RequiredColumns(kinds)
	names := make([]string, 0, len(required))
	for name := range required {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, table := range names {
		actual, err := database.ColumnSet(db, table)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("Failed to inspect table %s: %v", table, err))
			report.Matched = false
			continue
		}

		tbl := TableReport{MissingColumns: []string{}, Status: "ok"}
		if len(actual) == 0 {
			tbl.Status = "missing"
			tbl.MissingColumns = append(tbl.MissingColumns, required[table]...)
			report.Matched = false
			report.Tables[table] = tbl
			continue
		}

		for _, col := range required[table] {
			if _, ok := actual[col]; !ok {
				tbl.MissingColumns = append(tbl.MissingColumns, col)
				tbl.Status = "error"
				report.Matched = false
			}
		}
		report.Tables[table] = tbl
	}

	return report, nil
}
