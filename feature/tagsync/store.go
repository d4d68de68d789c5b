package tagsync

import (
	"context"
	"fmt"
	"strings"

	"performer-tag-sync/core/database"
	"performer-tag-sync/core/reconcile"

	"gorm.io/gorm"
)

const (
	// defaultChunkSize bounds the ids bound into one IN (...) list.
	defaultChunkSize = 500
	// insertChunkSize bounds the rows of one multi-row INSERT (two parameters per row).
	insertChunkSize = 400
)

// Store implements reconcile.Store on the stash database.
//
// Reads go through reader; batch commits go through writer, the single
// committing connection.
type Store struct {
	reader    *gorm.DB
	writer    *gorm.DB
	chunkSize int
}

// NewStore creates a Store. writer may equal reader.
func NewStore(reader, writer *gorm.DB) *Store {
	if reader == nil {
		reader = writer
	}
	return &Store{reader: reader, writer: writer, chunkSize: defaultChunkSize}
}

var _ reconcile.Store = (*Store)(nil)

// LoadPerformerTags streams performers_tags ordered by performer then tag.
func (s *Store) LoadPerformerTags(ctx context.Context, fn func(performerID, tagID int64) error) error {
	rows, err := s.reader.WithContext(ctx).
		Raw("SELECT performer_id, tag_id FROM performers_tags ORDER BY performer_id, tag_id").
		Rows()
	if err != nil {
		return fmt.Errorf("failed to query performers_tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var performerID, tagID int64
		if err := rows.Scan(&performerID, &tagID); err != nil {
			return fmt.Errorf("failed to scan performers_tags row: %w", err)
		}
		if err := fn(performerID, tagID); err != nil {
			return err
		}
	}
	return rows.Err()
}

// ResolveTagID looks a tag up by name, ignoring case. The lowest id wins when
// names only differ by case.
func (s *Store) ResolveTagID(ctx context.Context, name string) (int64, bool, error) {
	var ids []int64
	err := s.reader.WithContext(ctx).
		Raw(tagLookupQuery(s.reader.Dialector.Name()), name).
		Scan(&ids).Error
	if err != nil {
		return 0, false, fmt.Errorf("failed to look up tag %q: %w", name, err)
	}
	if len(ids) == 0 {
		return 0, false, nil
	}
	return ids[0], true, nil
}

// tagLookupQuery matches a tag name case-insensitively. On SQLite the NOCASE
// comparison can use the unique index on tags.name.
func tagLookupQuery(dialect string) string {
	if dialect == database.DriverMySQL {
		return "SELECT id FROM tags WHERE LOWER(name) = LOWER(?) ORDER BY id LIMIT 1"
	}
	return "SELECT id FROM tags WHERE name = ? COLLATE NOCASE ORDER BY id LIMIT 1"
}

// SelectEntities returns the ascending ids of entities with at least one
// performer that pass filter.
func (s *Store) SelectEntities(ctx context.Context, kind reconcile.EntityKind, filter reconcile.Filter) ([]int64, error) {
	query, args := selectQuery(kind, filter)

	rows, err := s.reader.WithContext(ctx).Raw(query, args...).Rows()
	if err != nil {
		return nil, fmt.Errorf("failed to select %s: %w", kind.Name, err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan %s id: %w", kind.Name, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// selectQuery builds the eligibility query of a kind. Filters are ANDed.
func selectQuery(kind reconcile.EntityKind, filter reconcile.Filter) (string, []any) {
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT DISTINCT e.id FROM %s e INNER JOIN %s ep ON e.id = ep.%s",
		kind.Table, kind.PerformerTable, kind.PerformerColumn)

	var conds []string
	var args []any
	if filter.ExcludeOrganized {
		conds = append(conds, "COALESCE(e.organized, 0) = 0")
	}
	if filter.ExclusionTagID != nil {
		conds = append(conds, fmt.Sprintf("e.id NOT IN (SELECT %s FROM %s WHERE tag_id = ?)", kind.TagColumn, kind.TagTable))
		args = append(args, *filter.ExclusionTagID)
	}
	if len(conds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}
	b.WriteString(" ORDER BY e.id")
	return b.String(), args
}

// FetchPerformers returns the performers of every id that has any.
func (s *Store) FetchPerformers(ctx context.Context, kind reconcile.EntityKind, ids []int64) (map[int64]reconcile.IDSet, error) {
	query := fmt.Sprintf("SELECT %s, performer_id FROM %s WHERE %s IN ?",
		kind.PerformerColumn, kind.PerformerTable, kind.PerformerColumn)
	return s.fetchPairs(ctx, query, ids)
}

// FetchTags returns the current tags of every id that has any.
func (s *Store) FetchTags(ctx context.Context, kind reconcile.EntityKind, ids []int64) (map[int64]reconcile.IDSet, error) {
	query := fmt.Sprintf("SELECT %s, tag_id FROM %s WHERE %s IN ?",
		kind.TagColumn, kind.TagTable, kind.TagColumn)
	return s.fetchPairs(ctx, query, ids)
}

// fetchPairs runs query once per chunk of ids and groups the (id, value) rows.
func (s *Store) fetchPairs(ctx context.Context, query string, ids []int64) (map[int64]reconcile.IDSet, error) {
	out := make(map[int64]reconcile.IDSet)
	for _, chunk := range chunks(ids, s.chunkSize) {
		rows, err := s.reader.WithContext(ctx).Raw(query, chunk).Rows()
		if err != nil {
			return nil, err
		}

		for rows.Next() {
			var id, value int64
			if err := rows.Scan(&id, &value); err != nil {
				rows.Close()
				return nil, err
			}
			set, ok := out[id]
			if !ok {
				set = make(reconcile.IDSet)
				out[id] = set
			}
			set.Add(value)
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Commit applies the plans of one batch in a single transaction: every delete
// first, then the inserts. A plan with a target is enforced against the rows
// present inside the transaction, so tags written since the batch was read are
// removed too. A busy or locked database is reported as reconcile.ErrBusy.
func (s *Store) Commit(ctx context.Context, kind reconcile.EntityKind, plans []reconcile.WritePlan) (int, error) {
	updated := 0
	err := s.writer.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updated = 0
		var inserts [][2]int64

		// 1. Deletes
		for _, plan := range plans {
			if plan.Empty() {
				continue
			}
			updated++

			tags := plan.Insert
			switch {
			case plan.Target.Len() > 0:
				q := fmt.Sprintf("DELETE FROM %s WHERE %s = ? AND tag_id NOT IN ?", kind.TagTable, kind.TagColumn)
				if err := tx.Exec(q, plan.EntityID, plan.Target.Sorted()).Error; err != nil {
					return fmt.Errorf("failed to replace tags of %s %d: %w", kind.Name, plan.EntityID, err)
				}
				tags = plan.Target
			case plan.Delete.Len() > 0:
				q := fmt.Sprintf("DELETE FROM %s WHERE %s = ? AND tag_id IN ?", kind.TagTable, kind.TagColumn)
				if err := tx.Exec(q, plan.EntityID, plan.Delete.Sorted()).Error; err != nil {
					return fmt.Errorf("failed to delete tags of %s %d: %w", kind.Name, plan.EntityID, err)
				}
			}

			for _, tagID := range tags.Sorted() {
				inserts = append(inserts, [2]int64{plan.EntityID, tagID})
			}
		}

		// 2. Inserts
		for start := 0; start < len(inserts); start += insertChunkSize {
			end := min(start+insertChunkSize, len(inserts))
			q, args := insertQuery(tx.Dialector.Name(), kind, inserts[start:end])
			if err := tx.Exec(q, args...).Error; err != nil {
				return fmt.Errorf("failed to insert %s tags: %w", kind.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		if database.IsBusy(err) {
			return 0, fmt.Errorf("%w: %w", reconcile.ErrBusy, err)
		}
		return 0, err
	}
	return updated, nil
}

// insertQuery builds one multi-row insert. Rows that already exist are skipped.
func insertQuery(dialect string, kind reconcile.EntityKind, rows [][2]int64) (string, []any) {
	verb := "INSERT OR IGNORE INTO"
	if dialect == database.DriverMySQL {
		verb = "INSERT IGNORE INTO"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s (%s, tag_id) VALUES ", verb, kind.TagTable, kind.TagColumn)

	args := make([]any, 0, len(rows)*2)
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(?, ?)")
		args = append(args, row[0], row[1])
	}
	return b.String(), args
}

func chunks(ids []int64, size int) [][]int64 {
	if size <= 0 {
		size = defaultChunkSize
	}
	out := make([][]int64, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		out = append(out, ids[start:min(start+size, len(ids))])
	}
	return out
}
