package integrity

import (
	"context"

	"performer-tag-sync/core/reconcile"
	"performer-tag-sync/feature/integrity/checks"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service handles integrity checks.
type Service struct {
	db     *gorm.DB
	cfg    Config
	kinds  []reconcile.EntityKind
	logger *zap.Logger
}

// NewService creates a new integrity service for the given entity kinds.
// db must be a writable connection for index creation.
func NewService(db *gorm.DB, cfg Config, kinds []reconcile.EntityKind, logger *zap.Logger) *Service {
	return &Service{
		db:     db,
		cfg:    cfg,
		kinds:  kinds,
		logger: logger,
	}
}

// CheckSchema compares the schema version with the supported versions.
func (s *Service) CheckSchema(ctx context.Context) (*checks.SchemaReport, error) {
	supported, err := s.cfg.Supported()
	if err != nil {
		return nil, err
	}
	return checks.CheckSchema(ctx, s.db, supported)
}

// CheckTables verifies the tables and columns the sync uses.
func (s *Service) CheckTables() (*checks.TablesReport, error) {
	return checks.CheckTables(s.db, s.kinds)
}

// CheckIndexes reports which performance indexes exist.
func (s *Service) CheckIndexes(ctx context.Context) (*checks.IndexReport, error) {
	return checks.CheckIndexes(ctx, s.db, checks.Indexes(s.kinds))
}

// FixIndexes creates the missing performance indexes.
func (s *Service) FixIndexes(ctx context.Context) (*checks.IndexReport, error) {
	return checks.EnsureIndexes(ctx, s.db, s.logger, checks.Indexes(s.kinds))
}

// Prepare runs before a sync: it checks the schema version and, unless dryRun
// is set, creates the missing indexes. An untested version only warns unless
// the schema is strict.
func (s *Service) Prepare(ctx context.Context, dryRun bool) error {
	report, err := s.CheckSchema(ctx)
	if err != nil {
		return err
	}

	s.logger.Info("Database schema version", zap.Int64("version", report.Version), zap.String("status", report.Status))
	if !report.Matched {
		if s.cfg.StrictSchema {
			s.logger.Error("Refusing to sync on an untested schema version",
				zap.Int64("version", report.Version), zap.Int64s("supported", report.Supported))
			return report.Enforce()
		}
		s.logger.Warn("Schema version is not in the tested versions, proceeding anyway",
			zap.Int64("version", report.Version), zap.Int64s("supported", report.Supported))
	}

	if dryRun || !s.cfg.CreateIndexes {
		return nil
	}

	indexes, err := s.FixIndexes(ctx)
	if err != nil {
		// Indexes only speed the sync up
		s.logger.Warn("Could not verify performance indexes", zap.Error(err))
		return nil
	}
	s.logger.Info("Performance indexes verified", zap.Int("missing", len(indexes.Missing)))
	return nil
}
