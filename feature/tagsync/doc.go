// Package tagsync syncs performer tags to stash images, galleries and scenes.
//
// It binds the generic engine of core/reconcile to the stash schema: the three
// entity kinds, a gorm Store, and a Service adding run bookkeeping around
// reconcile.Run.
//
// # Store
//
// Reads go through a read-only connection; every batch commits in one write
// transaction on the single writing connection. Busy or locked errors are
// reported as reconcile.ErrBusy so the engine retries the batch.
//
// # Service
//
// The Service allows one run at a time, in this process and across processes
// through a lock file next to the database. It tracks progress for the status
// endpoint, records prometheus metrics, and can archive each run report to
// object storage.
//
// # Endpoints
//
//   - POST /sync: start a run in the background (202, or 409 while one is active)
//   - GET /sync/status: progress and last result
//   - GET /sync/reports: archived reports, newest first
//   - GET /sync/reports/:id: one archived report
package tagsync
