package tagsync

import (
	"context"
	"fmt"
	"testing"

	"performer-tag-sync/core/database/dbtest"
	"performer-tag-sync/core/reconcile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	t1 int64 = iota + 1
	t2
	t3
	t4
	t5
	tArchived
)

// scenarioLibrary seeds every kind with the same shape:
// P1 {T1,T2}; entity 1 has P1 and {T3}; entity 2 has no performers and {T5};
// entity 3 has P1 and is tagged "archived".
func scenarioLibrary(t *testing.T) *library {
	lib := newLibrary(t).
		tag(t1, "t1").tag(t2, "t2").tag(t3, "t3").tag(t4, "t4").tag(t5, "t5").tag(tArchived, "archived").
		performer(1, t1, t2)
	for _, kind := range AllKinds() {
		lib.entity(kind, 1, nil, ids(1), ids(t3)).
			entity(kind, 2, nil, nil, ids(t5)).
			entity(kind, 3, nil, ids(1), ids(tArchived))
	}
	return lib
}

func runSync(t *testing.T, lib *library, cfg Config) *reconcile.RunResult {
	t.Helper()
	svc := NewService(lib.store(), cfg, zap.NewNop(), nil, "")
	result, err := svc.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	return result
}

func defaultConfig() Config {
	return Config{
		EnableImages:    true,
		EnableGalleries: true,
		EnableScenes:    true,
		TagMode:         "ADD",
		BatchSize:       5000,
		CommitRetries:   3,
		RetryBackoffMS:  1,
	}
}

func TestSync_ADD(t *testing.T) {
	lib := scenarioLibrary(t)

	result := runSync(t, lib, defaultConfig())

	for _, kind := range AllKinds() {
		assert.Equal(t, ids(t1, t2, t3), lib.tagsOf(kind, 1), kind.Name)
		assert.Equal(t, ids(t5), lib.tagsOf(kind, 2), kind.Name)
		assert.Equal(t, ids(t1, t2, tArchived), lib.tagsOf(kind, 3), kind.Name)

		kr, ok := result.Kind(kind.Name)
		require.True(t, ok)
		assert.Equal(t, 2, kr.Scanned)
		assert.Equal(t, 2, kr.Updated)
	}
	assert.Equal(t, 6, result.TotalUpdated())
}

func TestSync_SET(t *testing.T) {
	lib := scenarioLibrary(t)
	cfg := defaultConfig()
	cfg.TagMode = "set"

	runSync(t, lib, cfg)

	for _, kind := range AllKinds() {
		assert.Equal(t, ids(t1, t2), lib.tagsOf(kind, 1), kind.Name)
		assert.Equal(t, ids(t5), lib.tagsOf(kind, 2), kind.Name)
		assert.Equal(t, ids(t1, t2), lib.tagsOf(kind, 3), kind.Name)
	}
}

func TestSync_ExclusionTag(t *testing.T) {
	for _, mode := range []string{"ADD", "SET"} {
		t.Run(mode, func(t *testing.T) {
			lib := scenarioLibrary(t)
			cfg := defaultConfig()
			cfg.TagMode = mode
			cfg.ExcludeTag = "Archived"

			result := runSync(t, lib, cfg)

			for _, kind := range AllKinds() {
				assert.Equal(t, ids(tArchived), lib.tagsOf(kind, 3), kind.Name)
				kr, _ := result.Kind(kind.Name)
				assert.Equal(t, 1, kr.Updated, kind.Name)
			}
		})
	}
}

func TestSync_ExcludeOrganized(t *testing.T) {
	images := Images()
	lib := newLibrary(t).
		performer(1, t1).
		entity(images, 1, flag(true), ids(1), nil).
		entity(images, 2, flag(false), ids(1), nil).
		entity(images, 3, nil, ids(1), nil)
	cfg := defaultConfig()
	cfg.ExcludeOrganized = true

	runSync(t, lib, cfg)

	assert.Empty(t, lib.tagsOf(images, 1))
	assert.Equal(t, ids(t1), lib.tagsOf(images, 2))
	assert.Equal(t, ids(t1), lib.tagsOf(images, 3))
}

func TestSync_DisabledKinds(t *testing.T) {
	lib := scenarioLibrary(t)
	cfg := defaultConfig()
	cfg.EnableImages = false
	cfg.EnableScenes = false

	result := runSync(t, lib, cfg)

	require.Len(t, result.Kinds, 1)
	assert.Equal(t, "galleries", result.Kinds[0].Kind)
	assert.Equal(t, ids(t3), lib.tagsOf(Images(), 1))
	assert.Equal(t, ids(t3), lib.tagsOf(Scenes(), 1))
}

func TestSync_IdempotentAcrossBatchSizes(t *testing.T) {
	for _, mode := range []string{"ADD", "SET"} {
		var want [][]int64
		for _, size := range []int{1, 2, 10000} {
			t.Run(fmt.Sprintf("%s_batch_%d", mode, size), func(t *testing.T) {
				lib := scenarioLibrary(t)
				lib.performer(2, t4).
					entity(Images(), 4, nil, ids(1, 2), ids(t5)).
					entity(Images(), 5, nil, ids(2), nil)
				cfg := defaultConfig()
				cfg.TagMode = mode
				cfg.BatchSize = size

				first := runSync(t, lib, cfg)
				assert.Positive(t, first.TotalUpdated())

				second := runSync(t, lib, cfg)
				assert.Zero(t, second.TotalUpdated())

				var got [][]int64
				for _, kind := range AllKinds() {
					for id := int64(1); id <= 5; id++ {
						got = append(got, lib.tagsOf(kind, id))
					}
				}
				if want == nil {
					want = got
					return
				}
				assert.Equal(t, want, got)
			})
		}
	}
}

func TestSync_DryRun(t *testing.T) {
	lib := scenarioLibrary(t)
	svc := NewService(lib.store(), defaultConfig(), zap.NewNop(), nil, "")

	result, err := svc.Run(context.Background(), RunOptions{Mode: "SET", DryRun: true})
	require.NoError(t, err)

	assert.True(t, result.DryRun)
	assert.Equal(t, reconcile.PolicySet, result.Policy)
	assert.Equal(t, 6, result.TotalUpdated())
	for _, kind := range AllKinds() {
		assert.Equal(t, ids(t3), lib.tagsOf(kind, 1))
	}
}

// concurrentWriterStore tags image 1 with tag right after the engine has read its tags.
type concurrentWriterStore struct {
	*Store
	lib *library
	tag int64
}

func (s *concurrentWriterStore) FetchTags(ctx context.Context, kind reconcile.EntityKind, batch []int64) (map[int64]reconcile.IDSet, error) {
	tags, err := s.Store.FetchTags(ctx, kind, batch)
	if err == nil && kind.Name == Images().Name {
		dbtest.MustExec(s.lib.t, s.lib.db, "INSERT OR IGNORE INTO images_tags (image_id, tag_id) VALUES (1, ?)", s.tag)
	}
	return tags, err
}

func TestSync_SETRemovesTagsWrittenDuringRun(t *testing.T) {
	images := Images()
	lib := newLibrary(t).
		tag(t1, "t1").tag(t2, "t2").tag(t3, "t3").tag(t4, "t4").
		performer(1, t1, t2).
		entity(images, 1, nil, ids(1), ids(t3))
	store := &concurrentWriterStore{Store: lib.store(), lib: lib, tag: t4}

	cfg := defaultConfig()
	cfg.TagMode = "SET"
	cfg.EnableGalleries = false
	cfg.EnableScenes = false

	result, err := NewService(store, cfg, zap.NewNop(), nil, "").Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, ids(t1, t2), lib.tagsOf(images, 1))
	assert.Equal(t, 1, result.TotalUpdated())
}
