package reconcile

import (
	"context"
	"fmt"
	"time"
)

// TagIndex maps each performer to its tags.
// It is a snapshot: built once per run and never mutated afterwards, so it is
// safe for concurrent readers.
type TagIndex struct {
	tags map[int64]IDSet

	// Built is when the snapshot was taken.
	Built time.Time
}

// BuildIndex reads the whole performer↔tag relation once.
func BuildIndex(ctx context.Context, loader IndexLoader) (*TagIndex, error) {
	tags := make(map[int64]IDSet)
	err := loader.LoadPerformerTags(ctx, func(performerID, tagID int64) error {
		set, ok := tags[performerID]
		if !ok {
			set = make(IDSet)
			tags[performerID] = set
		}
		set.Add(tagID)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: load performer tags: %w", ErrStoreRead, err)
	}

	return &TagIndex{tags: tags, Built: time.Now()}, nil
}

// NewTagIndex builds an index from an in-memory mapping. The mapping is copied.
func NewTagIndex(m map[int64][]int64) *TagIndex {
	tags := make(map[int64]IDSet, len(m))
	for performerID, tagIDs := range m {
		if len(tagIDs) == 0 {
			continue
		}
		tags[performerID] = NewIDSet(tagIDs...)
	}
	return &TagIndex{tags: tags, Built: time.Now()}
}

// Len returns the number of performers with at least one tag.
func (x *TagIndex) Len() int {
	return len(x.tags)
}

// Tags returns the tags of a performer. Unknown performers have none.
// The returned set must not be modified.
func (x *TagIndex) Tags(performerID int64) IDSet {
	return x.tags[performerID]
}

// Target returns the union of the tags of performers.
func (x *TagIndex) Target(performers IDSet) IDSet {
	target := make(IDSet)
	for performerID := range performers {
		target.Union(x.tags[performerID])
	}
	return target
}
