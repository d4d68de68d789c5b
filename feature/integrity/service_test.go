package integrity

import (
	"context"
	"testing"

	"performer-tag-sync/core/database/dbtest"
	"performer-tag-sync/core/reconcile"
	"performer-tag-sync/feature/integrity/checks"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

var testKinds = []reconcile.EntityKind{
	{
		Name:            "images",
		Table:           "images",
		PerformerTable:  "performers_images",
		PerformerColumn: "image_id",
		TagTable:        "images_tags",
		TagColumn:       "image_id",
	},
	{
		Name:            "galleries",
		Table:           "galleries",
		PerformerTable:  "performers_galleries",
		PerformerColumn: "gallery_id",
		TagTable:        "galleries_tags",
		TagColumn:       "gallery_id",
	},
}

func defaultConfig() Config {
	return Config{SupportedSchemaVersions: "72", CreateIndexes: true}
}

// setupMockDB creates a mock GORM DB for testing.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

func TestConfig_Supported(t *testing.T) {
	versions, err := Config{SupportedSchemaVersions: "71, 72,"}.Supported()
	require.NoError(t, err)
	assert.Equal(t, []int64{71, 72}, versions)

	_, err = Config{SupportedSchemaVersions: "72,latest"}.Supported()
	assert.ErrorIs(t, err, reconcile.ErrConfig)
}

func TestService_Checks(t *testing.T) {
	db := dbtest.OpenStash(t)
	svc := NewService(db, defaultConfig(), testKinds, zap.NewNop())
	ctx := context.Background()

	t.Run("CheckSchema", func(t *testing.T) {
		report, err := svc.CheckSchema(ctx)
		require.NoError(t, err)
		assert.True(t, report.Matched)
	})

	t.Run("CheckTables", func(t *testing.T) {
		report, err := svc.CheckTables()
		require.NoError(t, err)
		assert.True(t, report.Matched)
		assert.Len(t, report.Tables, 8)
	})

	t.Run("CheckIndexes", func(t *testing.T) {
		report, err := svc.CheckIndexes(ctx)
		require.NoError(t, err)
		assert.Len(t, report.Missing, 4)
	})

	t.Run("FixIndexes", func(t *testing.T) {
		report, err := svc.FixIndexes(ctx)
		require.NoError(t, err)
		assert.Empty(t, report.Missing)

		report, err = svc.CheckIndexes(ctx)
		require.NoError(t, err)
		assert.Empty(t, report.Missing)
	})
}

func TestService_CheckSchemaInvalidConfig(t *testing.T) {
	svc := NewService(dbtest.OpenStash(t), Config{SupportedSchemaVersions: "x"}, testKinds, zap.NewNop())

	_, err := svc.CheckSchema(context.Background())
	assert.ErrorIs(t, err, reconcile.ErrConfig)
}

func TestService_Prepare(t *testing.T) {
	ctx := context.Background()

	t.Run("CreatesIndexes", func(t *testing.T) {
		db := dbtest.OpenStash(t)
		svc := NewService(db, defaultConfig(), testKinds, zap.NewNop())

		require.NoError(t, svc.Prepare(ctx, false))

		report, err := svc.CheckIndexes(ctx)
		require.NoError(t, err)
		assert.Empty(t, report.Missing)
	})

	t.Run("DryRunWritesNothing", func(t *testing.T) {
		db := dbtest.OpenStash(t)
		svc := NewService(db, defaultConfig(), testKinds, zap.NewNop())

		require.NoError(t, svc.Prepare(ctx, true))

		report, err := svc.CheckIndexes(ctx)
		require.NoError(t, err)
		assert.Len(t, report.Missing, 4)
	})

	t.Run("IndexesDisabled", func(t *testing.T) {
		db := dbtest.OpenStash(t)
		cfg := defaultConfig()
		cfg.CreateIndexes = false
		svc := NewService(db, cfg, testKinds, zap.NewNop())

		require.NoError(t, svc.Prepare(ctx, false))

		report, err := svc.CheckIndexes(ctx)
		require.NoError(t, err)
		assert.Len(t, report.Missing, 4)
	})

	t.Run("UntestedVersionWarns", func(t *testing.T) {
		db := dbtest.OpenStash(t)
		core, logs := observer.New(zap.WarnLevel)
		cfg := defaultConfig()
		cfg.SupportedSchemaVersions = "70"
		svc := NewService(db, cfg, testKinds, zap.New(core))

		assert.NoError(t, svc.Prepare(ctx, false))
		assert.Equal(t, 1, logs.FilterMessage("Schema version is not in the tested versions, proceeding anyway").Len())
	})

	t.Run("StrictRefuses", func(t *testing.T) {
		db := dbtest.OpenStash(t)
		cfg := defaultConfig()
		cfg.SupportedSchemaVersions = "70"
		cfg.StrictSchema = true
		svc := NewService(db, cfg, testKinds, zap.NewNop())

		err := svc.Prepare(ctx, false)
		assert.ErrorIs(t, err, checks.ErrSchemaUnsupported)

		report, cerr := svc.CheckIndexes(ctx)
		require.NoError(t, cerr)
		assert.Len(t, report.Missing, 4)
	})

	t.Run("IndexLookupFailureIsNotFatal", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectQuery("SELECT version FROM schema_migrations").
			WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(72))
		mock.ExpectQuery("information_schema.statistics").WillReturnError(assert.AnError)
		svc := NewService(db, defaultConfig(), testKinds, zap.NewNop())

		assert.NoError(t, svc.Prepare(ctx, false))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
