package reconcile

import "errors"

// Error taxonomy. Callers match with errors.Is; the wrapped error carries the context.
var (
	// ErrConfig reports an invalid configuration. It is returned before any read.
	ErrConfig = errors.New("invalid configuration")

	// ErrStoreConnect reports that the backing store could not be opened.
	ErrStoreConnect = errors.New("store connect failed")

	// ErrStoreRead reports a failed read. It is fatal for the run.
	ErrStoreRead = errors.New("store read failed")

	// ErrStoreWrite reports a failed batch commit. The batch was rolled back.
	ErrStoreWrite = errors.New("store write failed")
)

// ErrBusy marks a write that failed because another writer held the store lock.
// Stores wrap such failures with it; the engine retries the batch with backoff.
var ErrBusy = errors.New("store busy")
