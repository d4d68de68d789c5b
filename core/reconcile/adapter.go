package reconcile

import "context"

// IndexLoader streams the performer↔tag relation.
type IndexLoader interface {
	// LoadPerformerTags calls fn once per (performer, tag) pair, ordered by performer then tag.
	// Returning an error from fn stops the scan and is returned unchanged.
	LoadPerformerTags(ctx context.Context, fn func(performerID, tagID int64) error) error
}

// TagResolver resolves an exclusion tag name to its identifier.
type TagResolver interface {
	// ResolveTagID looks a tag up by name, ignoring case.
	// found is false when no tag has that name; that is not an error.
	ResolveTagID(ctx context.Context, name string) (id int64, found bool, err error)
}

// Selector produces the ordered identifiers of the entities a pass will process.
type Selector interface {
	// SelectEntities returns distinct ids, ascending, of entities of kind that have at
	// least one performer and pass filter. An empty slice is not an error.
	SelectEntities(ctx context.Context, kind EntityKind, filter Filter) ([]int64, error)
}

// Fetcher loads the associations of one batch.
type Fetcher interface {
	// FetchPerformers returns the performer set of every id that has performers.
	// Ids without rows are absent from the result and mean an empty set.
	FetchPerformers(ctx context.Context, kind EntityKind, ids []int64) (map[int64]IDSet, error)

	// FetchTags returns the current tag set of every id that has tags.
	// Ids without rows are absent from the result and mean an empty set.
	FetchTags(ctx context.Context, kind EntityKind, ids []int64) (map[int64]IDSet, error)
}

// Committer applies the write plans of one batch.
type Committer interface {
	// Commit applies every plan's deletes then inserts in one transaction.
	// On failure nothing from the batch is applied. It returns the number of
	// entities whose plan was non-empty.
	Commit(ctx context.Context, kind EntityKind, plans []WritePlan) (int, error)
}

// Store is everything the engine needs from the backing store.
type Store interface {
	IndexLoader
	TagResolver
	Selector
	Fetcher
	Committer
}
