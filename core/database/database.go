package database

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNotFound is returned by Locate when no database file exists.
var ErrNotFound = errors.New("database file not found")

// Connect opens the writing connection.
//
// For SQLite the pool is limited to one connection and transactions start with
// BEGIN IMMEDIATE, so the write lock is taken up front instead of on the first write.
func Connect(cfg Config) (*gorm.DB, error) {
	return open(cfg, false)
}

// ConnectReadOnly opens a connection used only for reads. Other processes may keep
// reading and writing the database while it is open.
func ConnectReadOnly(cfg Config) (*gorm.DB, error) {
	return open(cfg, true)
}

func open(cfg Config, readOnly bool) (*gorm.DB, error) {
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case DriverSQLite, "sqlite3":
		dialector = sqlite.Open(SQLiteDSN(cfg, readOnly))
	case DriverMySQL, "":
		dialector = mysql.Open(MySQLDSN(cfg))
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	// Suppress GORM logging; callers log failures with context
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	if cfg.Driver == DriverMySQL || cfg.Driver == "" {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	} else if !readOnly {
		// One committing connection
		sqlDB.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// MySQLDSN builds the go-sql-driver DSN. Special characters in the password are URL encoded.
func MySQLDSN(cfg Config) string {
	userInfo := url.UserPassword(cfg.User, cfg.Password).String()

	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}

	return fmt.Sprintf("%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=%ds&readTimeout=%ds&writeTimeout=%ds",
		userInfo, cfg.Host, cfg.Port, cfg.Name, timeout, timeout, timeout)
}

// SQLiteDSN builds the go-sqlite3 DSN for cfg.Path.
//
// Write connections get _txlock=immediate. File databases additionally get WAL
// journaling (when enabled); read connections open with mode=ro.
func SQLiteDSN(cfg Config, readOnly bool) string {
	path := cfg.Path
	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}

	params := url.Values{}
	if cfg.BusyTimeoutMS > 0 {
		params.Set("_busy_timeout", fmt.Sprint(cfg.BusyTimeoutMS))
	}
	if cfg.CacheSizeKB > 0 {
		// Negative cache_size is in KiB rather than pages
		params.Set("_cache_size", fmt.Sprint(-cfg.CacheSizeKB))
	}

	if !IsMemory(cfg.Path) {
		if cfg.WAL {
			params.Set("_journal_mode", "WAL")
		}
		if readOnly {
			params.Set("mode", "ro")
		}
	}
	if !readOnly {
		params.Set("_txlock", "immediate")
	}

	if len(params) == 0 {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + params.Encode()
}

// IsMemory reports whether path names an in-memory SQLite database.
func IsMemory(path string) bool {
	return path == ":memory:" || strings.Contains(path, "mode=memory")
}

// Candidates returns the locations searched for the stash database, in order.
func Candidates() []string {
	paths := []string{"/var/lib/stashapp/config/stash-go.sqlite"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".stash", "stash-go.sqlite"))
	}
	return append(paths, "stash-go.sqlite")
}

// Locate returns path when it exists, or the first existing candidate when path is empty.
func Locate(path string) (string, error) {
	return locate(path, Candidates())
}

func locate(path string, candidates []string) (string, error) {
	if path != "" {
		if IsMemory(path) {
			return path, nil
		}
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return path, nil
	}

	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: searched %s", ErrNotFound, strings.Join(candidates, ", "))
}
