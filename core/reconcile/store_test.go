package reconcile

import (
	"context"
	"sort"
	"strings"
	"sync"
)

var testImages = EntityKind{
	Name:            "images",
	Table:           "images",
	PerformerTable:  "performers_images",
	PerformerColumn: "image_id",
	TagTable:        "images_tags",
	TagColumn:       "image_id",
}

var testScenes = EntityKind{
	Name:            "scenes",
	Table:           "scenes",
	PerformerTable:  "performers_scenes",
	PerformerColumn: "scene_id",
	TagTable:        "scenes_tags",
	TagColumn:       "scene_id",
}

// memEntity is one media entity held by memStore.
type memEntity struct {
	organized  bool
	performers IDSet
	tags       IDSet
}

// memStore is an in-memory Store used by the engine tests.
type memStore struct {
	mu sync.Mutex

	performerTags map[int64][]int64
	tagNames      map[string]int64
	entities      map[string]map[int64]*memEntity

	loadErr    error
	resolveErr error
	selectErr  map[string]error
	fetchErr   error
	// commitErrs are returned by successive Commit calls before it starts succeeding.
	commitErrs []error

	commits   int
	attempts  int
	committedPlans []int
}

func newMemStore() *memStore {
	return &memStore{
		performerTags: make(map[int64][]int64),
		tagNames:      make(map[string]int64),
		entities:      make(map[string]map[int64]*memEntity),
		selectErr:     make(map[string]error),
	}
}

func (m *memStore) addEntity(kind EntityKind, id int64, organized bool, performers []int64, tags []int64) {
	if m.entities[kind.Name] == nil {
		m.entities[kind.Name] = make(map[int64]*memEntity)
	}
	m.entities[kind.Name][id] = &memEntity{
		organized:  organized,
		performers: NewIDSet(performers...),
		tags:       NewIDSet(tags...),
	}
}

func (m *memStore) tagsOf(kind EntityKind, id int64) []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entities[kind.Name][id].tags.Sorted()
}

func (m *memStore) LoadPerformerTags(_ context.Context, fn func(performerID, tagID int64) error) error {
	if m.loadErr != nil {
		return m.loadErr
	}
	performers := make([]int64, 0, len(m.performerTags))
	for p := range m.performerTags {
		performers = append(performers, p)
	}
	sort.Slice(performers, func(i, j int) bool { return performers[i] < performers[j] })
	for _, p := range performers {
		for _, tag := range NewIDSet(m.performerTags[p]...).Sorted() {
			if err := fn(p, tag); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *memStore) ResolveTagID(_ context.Context, name string) (int64, bool, error) {
	if m.resolveErr != nil {
		return 0, false, m.resolveErr
	}
	for n, id := range m.tagNames {
		if strings.EqualFold(n, name) {
			return id, true, nil
		}
	}
	return 0, false, nil
}

func (m *memStore) SelectEntities(_ context.Context, kind EntityKind, filter Filter) ([]int64, error) {
	if err := m.selectErr[kind.Name]; err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := []int64{}
	for id, e := range m.entities[kind.Name] {
		if e.performers.Len() == 0 {
			continue
		}
		if filter.ExcludeOrganized && e.organized {
			continue
		}
		if filter.ExclusionTagID != nil && e.tags.Has(*filter.ExclusionTagID) {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (m *memStore) FetchPerformers(_ context.Context, kind EntityKind, ids []int64) (map[int64]IDSet, error) {
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[int64]IDSet)
	for _, id := range ids {
		if e, ok := m.entities[kind.Name][id]; ok && e.performers.Len() > 0 {
			out[id] = NewIDSet(e.performers.Sorted()...)
		}
	}
	return out, nil
}

func (m *memStore) FetchTags(_ context.Context, kind EntityKind, ids []int64) (map[int64]IDSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[int64]IDSet)
	for _, id := range ids {
		if e, ok := m.entities[kind.Name][id]; ok && e.tags.Len() > 0 {
			out[id] = NewIDSet(e.tags.Sorted()...)
		}
	}
	return out, nil
}

func (m *memStore) Commit(_ context.Context, kind EntityKind, plans []WritePlan) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.attempts++
	if len(m.commitErrs) > 0 {
		err := m.commitErrs[0]
		m.commitErrs = m.commitErrs[1:]
		return 0, err
	}

	for _, p := range plans {
		e := m.entities[kind.Name][p.EntityID]
		if p.Target != nil {
			e.tags = NewIDSet(p.Target.Sorted()...)
			continue
		}
		for tag := range p.Delete {
			delete(e.tags, tag)
		}
		e.tags.Union(p.Insert)
	}
	m.commits++
	m.committedPlans = append(m.committedPlans, len(plans))
	return len(plans), nil
}
