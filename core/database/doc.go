// Package database handles database connections and schema inspection.
//
// It wraps GORM to open the stash database with the right driver settings. SQLite
// (the normal stash setup) and MySQL are supported.
//
// # Connections
//
// Connect opens the writing connection: one pooled connection, eager write
// transactions (_txlock=immediate) and a busy timeout. ConnectReadOnly opens the
// reading side with mode=ro. With WAL enabled, other processes can keep reading
// the database while a sync commits.
//
// # Discovery
//
// Locate resolves the database file. An empty path searches the usual stash
// locations in order and returns the first that exists.
//
// # Schema Inspection
//
// GetTableColumns and ColumnSet read table definitions for the integrity checks;
// SchemaVersion returns the latest applied stash migration.
//
// # Usage
//
//	path, err := database.Locate(cfg.Database.Path)
//	if err != nil {
//	    return err
//	}
//	cfg.Database.Path = path
//
//	writer, err := database.Connect(cfg.Database)
//	reader, err := database.ConnectReadOnly(cfg.Database)
package database
