package cmd

import (
	"fmt"

	"performer-tag-sync/core/config"
	"performer-tag-sync/core/database"
	"performer-tag-sync/core/reconcile"
	"performer-tag-sync/core/storage"
	"performer-tag-sync/feature/integrity"
	"performer-tag-sync/feature/tagsync"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// stashDB holds the connections to the stash database.
type stashDB struct {
	reader *gorm.DB
	writer *gorm.DB
	path   string
	memory bool
}

// openStash locates the database and opens the reader and the single writer.
// An in-memory SQLite database shares one connection for both.
func openStash(cfg database.Config, logg *zap.Logger) (*stashDB, error) {
	db := &stashDB{}

	if cfg.Driver == database.DriverSQLite || cfg.Driver == "sqlite3" {
		path, err := database.Locate(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", reconcile.ErrStoreConnect, err)
		}
		cfg.Path = path
		db.path = path
		db.memory = database.IsMemory(path)
		logg.Info("Using stash database", zap.String("path", path))
	}

	writer, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", reconcile.ErrStoreConnect, err)
	}
	db.writer = writer
	db.reader = writer

	if !db.memory {
		reader, err := database.ConnectReadOnly(cfg)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("%w: %w", reconcile.ErrStoreConnect, err)
		}
		db.reader = reader
	}
	return db, nil
}

// Close closes both connections.
func (s *stashDB) Close() {
	for _, conn := range []*gorm.DB{s.reader, s.writer} {
		if conn == nil {
			continue
		}
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}

// newSyncService wires the sync service on db: the store, the optional
// report archive and the run lock.
func newSyncService(cfg *config.Config, db *stashDB, logg *zap.Logger) (*tagsync.Service, error) {
	var archive *tagsync.ReportArchive
	if cfg.Sync.ArchiveReports {
		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		archive = tagsync.NewReportArchive(client, cfg.Storage.Bucket, cfg.Sync.ReportPrefix, cfg.Sync.ReportRetention)
	}

	store := tagsync.NewStore(db.reader, db.writer)
	lockPath := cfg.Sync.LockPath(db.path, db.memory)
	return tagsync.NewService(store, cfg.Sync, logg, archive, lockPath), nil
}

// newIntegrityService checks the kinds enabled in cfg through the writer.
func newIntegrityService(cfg *config.Config, db *stashDB, logg *zap.Logger) *integrity.Service {
	return integrity.NewService(db.writer, cfg.Integrity, tagsync.Kinds(cfg.Sync), logg)
}
