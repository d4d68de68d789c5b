package reconcile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"performer-tag-sync/core/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Spec defines one sync run: the store, the enabled kinds and the options.
type Spec struct {
	// RunID identifies the run. Empty means a new uuid is generated.
	RunID string

	// Store provides reads and the batch committer.
	Store Store

	// Kinds are processed sequentially, in order.
	Kinds []EntityKind

	// Policy is the reconciliation mode.
	Policy Policy

	// BatchSize is the number of entities fetched and committed together.
	BatchSize int

	// ExcludeOrganized skips entities flagged as organized.
	ExcludeOrganized bool

	// ExcludeTagName skips entities carrying the tag of that name (case-insensitive).
	// An unknown name disables the filter.
	ExcludeTagName string

	// DryRun computes and counts plans without committing them.
	DryRun bool

	// Retry bounds commit retries on a busy store.
	Retry RetryConfig
}

// Validate checks the spec before anything is read.
func (s *Spec) Validate() error {
	if s.Store == nil {
		return fmt.Errorf("%w: store is required", ErrConfig)
	}
	if _, err := ParsePolicy(string(s.Policy)); err != nil {
		return err
	}
	if s.BatchSize <= 0 {
		return fmt.Errorf("%w: batch size must be positive, got %d", ErrConfig, s.BatchSize)
	}
	return nil
}

// Run performs a sync across every kind of the spec.
//
// The performer tag index is built once and shared by all passes. A fatal error
// aborts the remaining passes; batches committed before it stay committed. The
// returned result holds the passes completed so far even when err is non-nil.
func Run(ctx context.Context, spec *Spec, logger *zap.Logger, progress Progress) (*RunResult, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if progress == nil {
		progress = nopProgress{}
	}

	policy, _ := ParsePolicy(string(spec.Policy))
	runID := spec.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	result := &RunResult{
		RunID:     runID,
		Policy:    policy,
		DryRun:    spec.DryRun,
		StartedAt: time.Now(),
		Kinds:     make([]KindResult, 0, len(spec.Kinds)),
	}
	logger = logger.With(zap.String("run_id", result.RunID))
	logger.Info("Starting tag sync",
		zap.String("mode", string(policy)),
		zap.Int("batch_size", spec.BatchSize),
		zap.Bool("exclude_organized", spec.ExcludeOrganized),
		zap.Bool("dry_run", spec.DryRun),
	)

	finish := func(err error) (*RunResult, error) {
		result.FinishedAt = time.Now()
		return result, err
	}

	// 1. Resolve exclusion tag
	filter := Filter{ExcludeOrganized: spec.ExcludeOrganized}
	exclusionID, err := resolveExclusionTag(ctx, spec.Store, spec.ExcludeTagName, logger)
	if err != nil {
		return finish(err)
	}
	filter.ExclusionTagID = exclusionID
	result.ExclusionTagID = exclusionID

	// 2. Build performer tag index (once per run)
	logger.Info("Fetching performer tag mappings...")
	index, err := BuildIndex(ctx, spec.Store)
	if err != nil {
		return finish(err)
	}
	result.Performers = index.Len()
	metrics.SyncIndexPerformers.Set(float64(index.Len()))
	logger.Info("Performer tag index built", zap.Int("performers", index.Len()))

	// 3. One pass per kind
	for k, kind := range spec.Kinds {
		kr, err := SyncKind(ctx, spec, policy, kind, index, filter, logger, kindProgress(progress, k, len(spec.Kinds)))
		result.Kinds = append(result.Kinds, kr)
		if err != nil {
			return finish(fmt.Errorf("sync %s: %w", kind.Name, err))
		}
	}

	progress.Report(1)
	logger.Info("All sync operations complete", zap.Int("updated", result.TotalUpdated()))
	return finish(nil)
}

// SyncKind runs the pass of one entity kind: select, then fetch, reconcile and
// commit batch by batch. report receives (batch end, total) after every batch.
func SyncKind(
	ctx context.Context,
	spec *Spec,
	policy Policy,
	kind EntityKind,
	index *TagIndex,
	filter Filter,
	logger *zap.Logger,
	report func(done, total int),
) (KindResult, error) {
	start := time.Now()
	result := KindResult{Kind: kind.Name}
	l := logger.With(zap.String("kind", kind.Name))
	l.Info("Starting sync")

	ids, err := spec.Store.SelectEntities(ctx, kind, filter)
	if err != nil {
		return result, fmt.Errorf("%w: select %s: %w", ErrStoreRead, kind.Name, err)
	}

	total := len(ids)
	result.Scanned = total
	metrics.SyncEntitiesScanned.WithLabelValues(kind.Name).Add(float64(total))
	l.Info("Selected entities to process", zap.Int("total", total))

	if total == 0 {
		l.Info("No entities to process")
		report(0, 0)
		result.Duration = time.Since(start)
		return result, nil
	}

	for batchStart := 0; batchStart < total; batchStart += spec.BatchSize {
		if err := ctx.Err(); err != nil {
			result.Duration = time.Since(start)
			return result, err
		}

		batchEnd := min(batchStart+spec.BatchSize, total)
		l.Debug("Processing batch",
			zap.Int("batch_start", batchStart+1),
			zap.Int("batch_end", batchEnd),
			zap.Int("total", total),
		)

		batchStartTime := time.Now()
		out, err := syncBatch(ctx, spec, policy, kind, index, ids[batchStart:batchEnd], l)
		if err != nil {
			result.Duration = time.Since(start)
			return result, err
		}
		metrics.SyncBatchDuration.WithLabelValues(kind.Name).Observe(time.Since(batchStartTime).Seconds())

		result.Batches++
		result.Updated += out.updated
		result.TagsInserted += out.inserted
		result.TagsDeleted += out.deleted

		report(batchEnd, total)
		l.Info("Batch done",
			zap.Int("batch_end", batchEnd),
			zap.Int("total", total),
			zap.Int("updated_so_far", result.Updated),
		)
	}

	result.Duration = time.Since(start)
	l.Info("Sync complete",
		zap.Int("updated", result.Updated),
		zap.Int("tags_inserted", result.TagsInserted),
		zap.Int("tags_deleted", result.TagsDeleted),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

type batchOutcome struct {
	updated  int
	inserted int
	deleted  int
}

// syncBatch fetches the batch's associations, reconciles every entity and commits.
func syncBatch(ctx context.Context, spec *Spec, policy Policy, kind EntityKind, index *TagIndex, batch []int64, l *zap.Logger) (batchOutcome, error) {
	performers, err := spec.Store.FetchPerformers(ctx, kind, batch)
	if err != nil {
		return batchOutcome{}, fmt.Errorf("%w: fetch %s performers: %w", ErrStoreRead, kind.Name, err)
	}

	current, err := spec.Store.FetchTags(ctx, kind, batch)
	if err != nil {
		return batchOutcome{}, fmt.Errorf("%w: fetch %s tags: %w", ErrStoreRead, kind.Name, err)
	}

	plans := PlanBatch(policy, batch, performers, current, index)
	inserted, deleted := planCounts(plans)
	out := batchOutcome{updated: len(plans), inserted: inserted, deleted: deleted}

	if len(plans) == 0 {
		return out, nil
	}
	if spec.DryRun {
		l.Debug("Dry-run: skipping commit", zap.Int("plans", len(plans)))
		return out, nil
	}

	err = retryOnBusy(ctx, spec.Retry, func() error {
		n, err := spec.Store.Commit(ctx, kind, plans)
		if err == nil {
			out.updated = n
		}
		return err
	}, func(attempt int, wait time.Duration, err error) {
		metrics.SyncCommitRetries.WithLabelValues(kind.Name).Inc()
		l.Warn("Store busy, retrying batch commit",
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	})
	if err != nil {
		return batchOutcome{}, fmt.Errorf("%w: commit %s batch: %w", ErrStoreWrite, kind.Name, err)
	}

	metrics.SyncEntitiesUpdated.WithLabelValues(kind.Name).Add(float64(out.updated))
	metrics.SyncTagsWritten.WithLabelValues(kind.Name, "insert").Add(float64(out.inserted))
	metrics.SyncTagsWritten.WithLabelValues(kind.Name, "delete").Add(float64(out.deleted))
	return out, nil
}

// resolveExclusionTag looks up the exclusion tag. A blank name or an unknown tag
// disables the filter; only a failed read is an error.
func resolveExclusionTag(ctx context.Context, resolver TagResolver, name string, logger *zap.Logger) (*int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}

	id, found, err := resolver.ResolveTagID(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve exclusion tag %q: %w", ErrStoreRead, name, err)
	}
	if !found {
		logger.Warn("Exclusion tag not found, no exclusion filter applied", zap.String("tag", name))
		return nil, nil
	}

	logger.Info("Exclusion tag found", zap.String("tag", name), zap.Int64("tag_id", id))
	return &id, nil
}
