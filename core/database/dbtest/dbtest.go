// Package dbtest provides in-memory stash databases for tests.
package dbtest

import (
	"fmt"
	"strings"
	"testing"

	"performer-tag-sync/core/database"

	"gorm.io/gorm"
)

// StashSchema is the subset of the stash schema the sync reads and writes.
var StashSchema = []string{
	`CREATE TABLE schema_migrations (version INTEGER NOT NULL, dirty BOOLEAN NOT NULL DEFAULT 0)`,
	`CREATE TABLE tags (id INTEGER PRIMARY KEY, name VARCHAR(255) NOT NULL COLLATE NOCASE)`,
	`CREATE UNIQUE INDEX index_tags_on_name ON tags (name)`,
	`CREATE TABLE performers (id INTEGER PRIMARY KEY, name VARCHAR(255) NOT NULL)`,
	`CREATE TABLE performers_tags (performer_id INTEGER NOT NULL, tag_id INTEGER NOT NULL, PRIMARY KEY (performer_id, tag_id))`,
	`CREATE TABLE images (id INTEGER PRIMARY KEY, title TEXT, organized BOOLEAN)`,
	`CREATE TABLE galleries (id INTEGER PRIMARY KEY, title TEXT, organized BOOLEAN)`,
	`CREATE TABLE scenes (id INTEGER PRIMARY KEY, title TEXT, organized BOOLEAN)`,
	`CREATE TABLE performers_images (performer_id INTEGER NOT NULL, image_id INTEGER NOT NULL, PRIMARY KEY (image_id, performer_id))`,
	`CREATE TABLE performers_galleries (performer_id INTEGER NOT NULL, gallery_id INTEGER NOT NULL, PRIMARY KEY (gallery_id, performer_id))`,
	`CREATE TABLE performers_scenes (performer_id INTEGER NOT NULL, scene_id INTEGER NOT NULL, PRIMARY KEY (scene_id, performer_id))`,
	`CREATE TABLE images_tags (image_id INTEGER NOT NULL, tag_id INTEGER NOT NULL, PRIMARY KEY (image_id, tag_id))`,
	`CREATE TABLE galleries_tags (gallery_id INTEGER NOT NULL, tag_id INTEGER NOT NULL, PRIMARY KEY (gallery_id, tag_id))`,
	`CREATE TABLE scenes_tags (scene_id INTEGER NOT NULL, tag_id INTEGER NOT NULL, PRIMARY KEY (scene_id, tag_id))`,
}

// Open returns a writer on a fresh shared-cache in-memory database named after the test.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Connect(database.Config{
		Driver: database.DriverSQLite,
		Path:   fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// OpenStash returns an in-memory database holding the stash schema at version 72.
func OpenStash(t testing.TB) *gorm.DB {
	t.Helper()

	db := Open(t)
	for _, stmt := range StashSchema {
		MustExec(t, db, stmt)
	}
	MustExec(t, db, "INSERT INTO schema_migrations (version) VALUES (72)")
	return db
}

// MustExec runs a statement and fails the test on error.
func MustExec(t testing.TB, db *gorm.DB, sql string, args ...any) {
	t.Helper()
	if err := db.Exec(sql, args...).Error; err != nil {
		t.Fatalf("exec %q: %v", sql, err)
	}
}
