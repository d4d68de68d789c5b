package tagsync

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"performer-tag-sync/core/database/dbtest"
	"performer-tag-sync/core/reconcile"

	"github.com/DATA-DOG/go-sqlmock"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// library seeds a stash database.
type library struct {
	t  *testing.T
	db *gorm.DB
}

func newLibrary(t *testing.T) *library {
	return &library{t: t, db: dbtest.OpenStash(t)}
}

func (l *library) tag(id int64, name string) *library {
	dbtest.MustExec(l.t, l.db, "INSERT INTO tags (id, name) VALUES (?, ?)", id, name)
	return l
}

func (l *library) performer(id int64, tags ...int64) *library {
	dbtest.MustExec(l.t, l.db, "INSERT INTO performers (id, name) VALUES (?, ?)", id, "performer")
	for _, tag := range tags {
		dbtest.MustExec(l.t, l.db, "INSERT INTO performers_tags (performer_id, tag_id) VALUES (?, ?)", id, tag)
	}
	return l
}

// entity inserts an entity; organized may be nil for a NULL flag.
func (l *library) entity(kind reconcile.EntityKind, id int64, organized *bool, performers []int64, tags []int64) *library {
	dbtest.MustExec(l.t, l.db, "INSERT INTO "+kind.Table+" (id, organized) VALUES (?, ?)", id, organized)
	for _, p := range performers {
		dbtest.MustExec(l.t, l.db, "INSERT INTO "+kind.PerformerTable+" (performer_id, "+kind.PerformerColumn+") VALUES (?, ?)", p, id)
	}
	for _, tag := range tags {
		dbtest.MustExec(l.t, l.db, "INSERT INTO "+kind.TagTable+" ("+kind.TagColumn+", tag_id) VALUES (?, ?)", id, tag)
	}
	return l
}

func (l *library) tagsOf(kind reconcile.EntityKind, id int64) []int64 {
	l.t.Helper()
	tags := []int64{}
	err := l.db.Raw("SELECT tag_id FROM "+kind.TagTable+" WHERE "+kind.TagColumn+" = ? ORDER BY tag_id", id).Scan(&tags).Error
	require.NoError(l.t, err)
	return tags
}

func (l *library) store() *Store {
	return NewStore(l.db, l.db)
}

func flag(b bool) *bool { return &b }

func ids(v ...int64) []int64 { return v }

func TestStore_LoadPerformerTags(t *testing.T) {
	lib := newLibrary(t).performer(2, 5, 3).performer(1, 9)

	var pairs [][2]int64
	err := lib.store().LoadPerformerTags(context.Background(), func(p, tag int64) error {
		pairs = append(pairs, [2]int64{p, tag})
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, [][2]int64{{1, 9}, {2, 3}, {2, 5}}, pairs)

	stop := errors.New("stop")
	err = lib.store().LoadPerformerTags(context.Background(), func(int64, int64) error { return stop })
	assert.ErrorIs(t, err, stop)
}

func TestStore_ResolveTagID(t *testing.T) {
	lib := newLibrary(t).tag(4, "Archived").tag(5, "favorite")
	store := lib.store()
	ctx := context.Background()

	id, found, err := store.ResolveTagID(ctx, "archived")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(4), id)

	id, found, err = store.ResolveTagID(ctx, "FAVORITE")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(5), id)

	_, found, err = store.ResolveTagID(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestTagLookupQuery(t *testing.T) {
	lib := newLibrary(t).tag(4, "Archived")

	var plan []struct{ Detail string }
	err := lib.db.Raw("EXPLAIN QUERY PLAN "+tagLookupQuery("sqlite"), "archived").Scan(&plan).Error
	require.NoError(t, err)
	require.NotEmpty(t, plan)
	assert.Contains(t, plan[0].Detail, "index_tags_on_name")

	assert.Contains(t, tagLookupQuery("mysql"), "LOWER(name) = LOWER(?)")
}

func TestStore_SelectEntities(t *testing.T) {
	images := Images()
	lib := newLibrary(t).
		tag(9, "archived").
		performer(1, 1).
		performer(2, 2).
		entity(images, 5, flag(false), ids(1, 2), nil).
		entity(images, 3, nil, ids(1), nil).
		entity(images, 4, flag(true), ids(2), nil).
		entity(images, 6, flag(false), nil, ids(1)).
		entity(images, 7, flag(false), ids(1), ids(9))
	store := lib.store()
	archived := int64(9)

	tests := []struct {
		name   string
		filter reconcile.Filter
		want   []int64
	}{
		{name: "no filter", filter: reconcile.Filter{}, want: ids(3, 4, 5, 7)},
		{name: "exclude organized keeps NULL", filter: reconcile.Filter{ExcludeOrganized: true}, want: ids(3, 5, 7)},
		{name: "exclusion tag", filter: reconcile.Filter{ExclusionTagID: &archived}, want: ids(3, 4, 5)},
		{name: "both filters", filter: reconcile.Filter{ExcludeOrganized: true, ExclusionTagID: &archived}, want: ids(3, 5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.SelectEntities(context.Background(), images, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("empty kind", func(t *testing.T) {
		got, err := store.SelectEntities(context.Background(), Scenes(), reconcile.Filter{})
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestSelectQuery(t *testing.T) {
	tagID := int64(3)
	query, args := selectQuery(Galleries(), reconcile.Filter{ExcludeOrganized: true, ExclusionTagID: &tagID})

	assert.Equal(t, "SELECT DISTINCT e.id FROM galleries e INNER JOIN performers_galleries ep ON e.id = ep.gallery_id"+
		" WHERE COALESCE(e.organized, 0) = 0 AND e.id NOT IN (SELECT gallery_id FROM galleries_tags WHERE tag_id = ?)"+
		" ORDER BY e.id", query)
	assert.Equal(t, []any{int64(3)}, args)
}

func TestStore_Fetch(t *testing.T) {
	scenes := Scenes()
	lib := newLibrary(t).
		performer(1, 1).
		performer(2, 2).
		entity(scenes, 1, nil, ids(1, 2), ids(7, 8)).
		entity(scenes, 2, nil, ids(2), nil).
		entity(scenes, 3, nil, nil, ids(7)).
		entity(scenes, 4, nil, ids(1), ids(1))
	store := lib.store()
	store.chunkSize = 2

	performers, err := store.FetchPerformers(context.Background(), scenes, ids(1, 2, 3, 4, 99))
	require.NoError(t, err)
	assert.Len(t, performers, 3)
	assert.Equal(t, ids(1, 2), performers[1].Sorted())
	assert.Equal(t, ids(2), performers[2].Sorted())
	assert.Equal(t, ids(1), performers[4].Sorted())
	assert.NotContains(t, performers, int64(3))

	tags, err := store.FetchTags(context.Background(), scenes, ids(1, 2, 3, 4))
	require.NoError(t, err)
	assert.Len(t, tags, 3)
	assert.Equal(t, ids(7, 8), tags[1].Sorted())
	assert.NotContains(t, tags, int64(2))
}

func TestStore_Commit(t *testing.T) {
	images := Images()
	lib := newLibrary(t).
		entity(images, 1, nil, nil, ids(1, 2, 3)).
		entity(images, 2, nil, nil, ids(4, 5)).
		entity(images, 3, nil, nil, ids(6))
	store := lib.store()

	plans := []reconcile.WritePlan{
		{EntityID: 1, Insert: reconcile.NewIDSet(10, 1), Delete: reconcile.NewIDSet(2, 3)},
		{EntityID: 2, Insert: reconcile.NewIDSet(11), Delete: reconcile.NewIDSet(4), Target: reconcile.NewIDSet(5, 11)},
		{EntityID: 3},
	}

	updated, err := store.Commit(context.Background(), images, plans)
	require.NoError(t, err)

	assert.Equal(t, 2, updated)
	assert.Equal(t, ids(1, 10), lib.tagsOf(images, 1))
	assert.Equal(t, ids(5, 11), lib.tagsOf(images, 2))
	assert.Equal(t, ids(6), lib.tagsOf(images, 3))
}

func TestStore_CommitTargetUsesRowsAtCommitTime(t *testing.T) {
	images := Images()
	lib := newLibrary(t).entity(images, 1, nil, nil, ids(3))
	plans := []reconcile.WritePlan{{
		EntityID: 1,
		Insert:   reconcile.NewIDSet(1, 2),
		Delete:   reconcile.NewIDSet(3),
		Target:   reconcile.NewIDSet(1, 2),
	}}

	// Written after the plan was computed
	dbtest.MustExec(t, lib.db, "INSERT INTO images_tags (image_id, tag_id) VALUES (1, 4)")

	updated, err := lib.store().Commit(context.Background(), images, plans)
	require.NoError(t, err)
	assert.Equal(t, 1, updated)
	assert.Equal(t, ids(1, 2), lib.tagsOf(images, 1))
}

func TestStore_CommitLargeBatch(t *testing.T) {
	galleries := Galleries()
	lib := newLibrary(t)

	var plans []reconcile.WritePlan
	for id := int64(1); id <= 300; id++ {
		lib.entity(galleries, id, nil, nil, nil)
		plans = append(plans, reconcile.WritePlan{EntityID: id, Insert: reconcile.NewIDSet(1, 2, 3)})
	}

	updated, err := lib.store().Commit(context.Background(), galleries, plans)
	require.NoError(t, err)
	assert.Equal(t, 300, updated)

	var count int64
	require.NoError(t, lib.db.Raw("SELECT COUNT(*) FROM galleries_tags").Scan(&count).Error)
	assert.Equal(t, int64(900), count)
}

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

func TestStore_CommitRollback(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewStore(db, db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM images_tags WHERE image_id = ? AND tag_id IN")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT IGNORE INTO images_tags (image_id, tag_id) VALUES (?, ?)")).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	plans := []reconcile.WritePlan{{EntityID: 1, Insert: reconcile.NewIDSet(2), Delete: reconcile.NewIDSet(3)}}
	updated, err := store.Commit(context.Background(), Images(), plans)

	assert.ErrorContains(t, err, "disk full")
	assert.NotErrorIs(t, err, reconcile.ErrBusy)
	assert.Zero(t, updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_CommitTargetMySQL(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewStore(db, db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM galleries_tags WHERE gallery_id = ? AND tag_id NOT IN (?,?)")).
		WithArgs(int64(7), int64(1), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("INSERT IGNORE INTO galleries_tags (gallery_id, tag_id) VALUES (?, ?), (?, ?)")).
		WithArgs(int64(7), int64(1), int64(7), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	plans := []reconcile.WritePlan{{
		EntityID: 7,
		Insert:   reconcile.NewIDSet(2),
		Delete:   reconcile.NewIDSet(9),
		Target:   reconcile.NewIDSet(1, 2),
	}}
	updated, err := store.Commit(context.Background(), Galleries(), plans)

	require.NoError(t, err)
	assert.Equal(t, 1, updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_CommitBusy(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewStore(db, db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT IGNORE INTO scenes_tags")).
		WillReturnError(&mysqldriver.MySQLError{Number: 1205, Message: "Lock wait timeout exceeded"})
	mock.ExpectRollback()

	plans := []reconcile.WritePlan{{EntityID: 1, Insert: reconcile.NewIDSet(2)}}
	_, err := store.Commit(context.Background(), Scenes(), plans)

	assert.ErrorIs(t, err, reconcile.ErrBusy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ReadError(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewStore(db, db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT e.id FROM images e")).
		WillReturnError(errors.New("no such table: images"))

	_, err := store.SelectEntities(context.Background(), Images(), reconcile.Filter{})
	assert.ErrorContains(t, err, "failed to select images")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertQuery(t *testing.T) {
	rows := [][2]int64{{1, 2}, {1, 3}}

	q, args := insertQuery("sqlite", Images(), rows)
	assert.Equal(t, "INSERT OR IGNORE INTO images_tags (image_id, tag_id) VALUES (?, ?), (?, ?)", q)
	assert.Equal(t, []any{int64(1), int64(2), int64(1), int64(3)}, args)

	q, _ = insertQuery("mysql", Images(), rows[:1])
	assert.Equal(t, "INSERT IGNORE INTO images_tags (image_id, tag_id) VALUES (?, ?)", q)
}

func TestChunks(t *testing.T) {
	assert.Equal(t, [][]int64{{1, 2}, {3, 4}, {5}}, chunks(ids(1, 2, 3, 4, 5), 2))
	assert.Empty(t, chunks(nil, 2))
	assert.Len(t, chunks(ids(1, 2, 3), 0), 1)
}
