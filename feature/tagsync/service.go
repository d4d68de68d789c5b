package tagsync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"performer-tag-sync/core/metrics"
	"performer-tag-sync/core/reconcile"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrRunInProgress is returned when a run is already active for the database.
var ErrRunInProgress = errors.New("a sync run is already in progress")

// RunOptions overrides the configured settings for one run.
type RunOptions struct {
	// Mode replaces the configured tag mode when set.
	Mode string `json:"mode,omitempty"`
	// BatchSize replaces the configured batch size when positive.
	BatchSize int `json:"batch_size,omitempty"`
	// DryRun computes the changes without writing them.
	DryRun bool `json:"dry_run,omitempty"`
}

// Status is the state of the current or last run.
type Status struct {
	Running    bool                 `json:"running"`
	RunID      string               `json:"run_id,omitempty"`
	Progress   float64              `json:"progress"`
	StartedAt  *time.Time           `json:"started_at,omitempty"`
	LastResult *reconcile.RunResult `json:"last_result,omitempty"`
	LastError  string               `json:"last_error,omitempty"`
}

// Service runs tag syncs against one database.
type Service struct {
	store   reconcile.Store
	cfg     Config
	logger  *zap.Logger
	archive *ReportArchive
	lock    *flock.Flock

	mu     sync.RWMutex
	status Status

	// base parents background runs; Close cancels it and waits on runs.
	base   context.Context
	cancel context.CancelFunc
	runs   sync.WaitGroup
}

// NewService creates a sync service. archive may be nil to disable report
// archiving; an empty lockPath disables the cross-process lock.
func NewService(store reconcile.Store, cfg Config, logger *zap.Logger, archive *ReportArchive, lockPath string) *Service {
	s := &Service{
		store:   store,
		cfg:     cfg,
		logger:  logger,
		archive: archive,
	}
	s.base, s.cancel = context.WithCancel(context.Background())
	if lockPath != "" {
		s.lock = flock.New(lockPath)
	}
	return s
}

// Config returns the configured settings.
func (s *Service) Config() Config {
	return s.cfg
}

// Archive returns the report archive, or nil when archiving is disabled.
func (s *Service) Archive() *ReportArchive {
	return s.archive
}

// Spec builds the engine spec of a run.
func (s *Service) Spec(opts RunOptions) (*reconcile.Spec, error) {
	cfg := s.cfg
	if opts.Mode != "" {
		cfg.TagMode = opts.Mode
	}
	if opts.BatchSize > 0 {
		cfg.BatchSize = opts.BatchSize
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	policy, _ := reconcile.ParsePolicy(cfg.TagMode)
	return &reconcile.Spec{
		Store:            s.store,
		Kinds:            Kinds(cfg),
		Policy:           policy,
		BatchSize:        cfg.BatchSize,
		ExcludeOrganized: cfg.ExcludeOrganized,
		ExcludeTagName:   cfg.ExcludeTag,
		DryRun:           opts.DryRun,
		Retry:            cfg.Retry(),
	}, nil
}

// Run performs a sync and waits for it to finish.
func (s *Service) Run(ctx context.Context, opts RunOptions) (*reconcile.RunResult, error) {
	spec, err := s.Spec(opts)
	if err != nil {
		return nil, err
	}
	spec.RunID = uuid.NewString()

	if err := s.begin(spec.RunID); err != nil {
		return nil, err
	}
	return s.execute(ctx, spec)
}

// Start launches a sync in the background and returns its run id. The run
// stops between batches when the service is closed.
func (s *Service) Start(opts RunOptions) (string, error) {
	spec, err := s.Spec(opts)
	if err != nil {
		return "", err
	}
	spec.RunID = uuid.NewString()

	if err := s.base.Err(); err != nil {
		return "", fmt.Errorf("sync service closed: %w", err)
	}
	if err := s.begin(spec.RunID); err != nil {
		return "", err
	}

	s.runs.Add(1)
	go func() {
		defer s.runs.Done()
		if _, err := s.execute(s.base, spec); err != nil {
			s.logger.Error("Background sync failed", zap.String("run_id", spec.RunID), zap.Error(err))
		}
	}()
	return spec.RunID, nil
}

// Close cancels background runs and waits for them to stop. Committed batches
// stay; a later run picks up where the cancelled one stopped.
func (s *Service) Close() {
	s.cancel()
	s.runs.Wait()
}

// Status returns a snapshot of the current or last run.
func (s *Service) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// begin marks a run as active, in this process and through the lock file.
func (s *Service) begin(runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status.Running {
		return fmt.Errorf("%w: %s", ErrRunInProgress, s.status.RunID)
	}

	if s.lock != nil {
		ok, err := s.lock.TryLock()
		if err != nil {
			return fmt.Errorf("acquire lock %s: %w", s.lock.Path(), err)
		}
		if !ok {
			return fmt.Errorf("%w: lock %s held by another process", ErrRunInProgress, s.lock.Path())
		}
	}

	now := time.Now()
	s.status.Running = true
	s.status.RunID = runID
	s.status.Progress = 0
	s.status.StartedAt = &now
	s.status.LastError = ""

	metrics.SyncRunning.Set(1)
	metrics.SyncProgress.Set(0)
	return nil
}

func (s *Service) execute(ctx context.Context, spec *reconcile.Spec) (*reconcile.RunResult, error) {
	progress := reconcile.ProgressFunc(func(f float64) {
		s.mu.Lock()
		s.status.Progress = f
		s.mu.Unlock()
		metrics.SyncProgress.Set(f)
	})

	result, err := reconcile.Run(ctx, spec, s.logger, progress)
	s.end(result, err)

	if result != nil && s.archive != nil && s.cfg.ArchiveReports {
		if key, aerr := s.archive.Save(context.WithoutCancel(ctx), result); aerr != nil {
			s.logger.Warn("Failed to archive sync report", zap.String("run_id", result.RunID), zap.Error(aerr))
		} else {
			s.logger.Info("Sync report archived", zap.String("key", key))
		}
	}
	return result, err
}

// end records the outcome and releases the run.
func (s *Service) end(result *reconcile.RunResult, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status.Running = false
	if result != nil {
		s.status.LastResult = result
	}

	outcome := "success"
	switch {
	case err != nil:
		outcome = "error"
		s.status.LastError = err.Error()
	case result != nil && result.DryRun:
		outcome = "dry_run"
	}
	metrics.SyncRunsTotal.WithLabelValues(outcome).Inc()
	metrics.SyncRunning.Set(0)

	if result != nil {
		metrics.SyncLastRunTimestamp.Set(float64(result.FinishedAt.Unix()))
		metrics.SyncLastRunDuration.Set(result.FinishedAt.Sub(result.StartedAt).Seconds())
	}

	if s.lock != nil {
		if uerr := s.lock.Unlock(); uerr != nil {
			s.logger.Warn("Failed to release sync lock", zap.String("path", s.lock.Path()), zap.Error(uerr))
		}
	}
}
