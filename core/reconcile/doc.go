// Package reconcile provides the generic engine that derives media tags from
// performer tags and writes them back in batches.
//
// Images, galleries and scenes share one association shape, so the engine is
// written once and parameterized by an EntityKind naming the relations of a kind.
// All store access goes through the Store interface; see feature/tagsync for the
// SQL implementation.
//
// # Architecture
//
// The engine consists of the following parts:
//
// 1. TagIndex: performer → tag set snapshot, built once per run and shared
//    read-only by every pass.
//
// 2. Selector and Fetcher: eligible entity ids for a pass (ascending, filtered),
//    then per batch the entity → performer and entity → tag associations.
//
// 3. Reconcile: pure function turning one entity's performers and current tags
//    into a WritePlan under the ADD or SET policy.
//
// 4. Committer: applies a batch's plans in one transaction. Busy failures are
//    retried with exponential backoff; any other failure aborts the run.
//
// # Policies
//
//   - ADD inserts target \ current and never deletes.
//   - SET inserts target \ current and deletes current \ target, so the final
//     tag set equals the target exactly.
//
// In both modes an entity whose performers carry no tags is left untouched.
//
// # Usage Example
//
//	spec := &reconcile.Spec{
//	    Store:     store,
//	    Kinds:     tagsync.Kinds(cfg),
//	    Policy:    reconcile.PolicyAdd,
//	    BatchSize: 5000,
//	    Retry:     reconcile.DefaultRetryConfig(),
//	}
//
//	result, err := reconcile.Run(ctx, spec, logger, reconcile.ProgressFunc(func(f float64) {
//	    fmt.Printf("%.0f%%\n", f*100)
//	}))
package reconcile
