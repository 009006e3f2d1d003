package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	apppos "github.com/erp/restaurant/internal/application/pos"
	"github.com/erp/restaurant/internal/domain/pos"
	"github.com/erp/restaurant/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionReconciler lists sessions and recomputes their accumulators.
// *apppos.SessionService satisfies it.
type SessionReconciler interface {
	GetHistory(ctx context.Context, query apppos.SessionHistoryQuery) (*shared.Paginated[apppos.SessionResponse], error)
	Reconcile(ctx context.Context, sessionID uuid.UUID, apply bool) (*apppos.ReconciliationResponse, error)
}

// DriftSweeperConfig holds configuration for the drift sweeper
type DriftSweeperConfig struct {
	// Interval between sweeps; zero disables the sweeper
	Interval time.Duration

	// Apply writes recomputed totals back to drifted open sessions
	Apply bool

	// PageSize is how many open sessions are loaded per query
	PageSize int

	// SweepTimeout bounds a single sweep
	SweepTimeout time.Duration
}

// DefaultDriftSweeperConfig returns a report-only sweep every 15 minutes
func DefaultDriftSweeperConfig() DriftSweeperConfig {
	return DriftSweeperConfig{
		Interval:     15 * time.Minute,
		PageSize:     50,
		SweepTimeout: 2 * time.Minute,
	}
}

// SweepResult summarizes one pass over the open sessions
type SweepResult struct {
	Checked int
	Drifted int
	Applied int
	Failed  int
}

// DriftSweeper periodically reconciles every open cashier session against its
// payments and reports sessions whose stored tender totals have drifted.
type DriftSweeper struct {
	config     DriftSweeperConfig
	reconciler SessionReconciler
	logger     *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	sweeping  atomic.Bool
}

// NewDriftSweeper creates a new drift sweeper
func NewDriftSweeper(config DriftSweeperConfig, reconciler SessionReconciler, logger *zap.Logger) (*DriftSweeper, error) {
	if config.Interval < 0 || config.PageSize < 0 || config.SweepTimeout < 0 {
		return nil, ErrInvalidConfig
	}
	defaults := DefaultDriftSweeperConfig()
	if config.PageSize == 0 {
		config.PageSize = defaults.PageSize
	}
	if config.SweepTimeout == 0 {
		config.SweepTimeout = defaults.SweepTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DriftSweeper{
		config:     config,
		reconciler: reconciler,
		logger:     logger,
	}, nil
}

// Start starts the sweep loop. It is a no-op when the interval is zero.
func (s *DriftSweeper) Start(ctx context.Context) error {
	if s.config.Interval == 0 {
		s.logger.Info("Session drift sweeper disabled")
		return nil
	}

	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.runLoop(ctx)

	s.logger.Info("Session drift sweeper started",
		zap.Duration("interval", s.config.Interval),
		zap.Bool("apply", s.config.Apply),
	)
	return nil
}

// Stop stops the sweep loop, waiting for a running sweep up to ctx's deadline
func (s *DriftSweeper) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Session drift sweeper stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Session drift sweeper stop timed out")
		return ctx.Err()
	}
}

func (s *DriftSweeper) runLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error("Session drift sweep failed", zap.Error(err))
			}
		}
	}
}

// Sweep reconciles every open session once. A failure on one session is
// counted and logged; the sweep continues with the next.
func (s *DriftSweeper) Sweep(ctx context.Context) (SweepResult, error) {
	if !s.sweeping.CompareAndSwap(false, true) {
		return SweepResult{}, ErrSweepInProgress
	}
	defer s.sweeping.Store(false)

	ctx, cancel := context.WithTimeout(ctx, s.config.SweepTimeout)
	defer cancel()

	ids, err := s.openSessionIDs(ctx)
	if err != nil {
		return SweepResult{}, err
	}

	var result SweepResult
	for _, id := range ids {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		report, err := s.reconciler.Reconcile(ctx, id, s.config.Apply)
		if err != nil {
			// closed between listing and reconciling
			if errors.Is(err, pos.ErrSessionClosed) {
				continue
			}
			result.Failed++
			s.logger.Warn("Failed to reconcile session",
				zap.String("session_id", id.String()),
				zap.Error(err),
			)
			continue
		}
		result.Checked++
		if !report.InSync {
			result.Drifted++
		}
		if report.Applied {
			result.Applied++
		}
	}

	s.logger.Info("Session drift sweep completed",
		zap.Int("checked", result.Checked),
		zap.Int("drifted", result.Drifted),
		zap.Int("applied", result.Applied),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

// openSessionIDs collects the IDs of all open sessions before any are touched,
// so that reconciling does not shift the pages being read
func (s *DriftSweeper) openSessionIDs(ctx context.Context) ([]uuid.UUID, error) {
	status := pos.SessionStatusOpen
	var ids []uuid.UUID
	for page := 1; ; page++ {
		result, err := s.reconciler.GetHistory(ctx, apppos.SessionHistoryQuery{
			Status:   &status,
			Page:     page,
			PageSize: s.config.PageSize,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list open sessions: %w", err)
		}
		for _, item := range result.Items {
			ids = append(ids, item.ID)
		}
		if page >= result.TotalPages || len(result.Items) == 0 {
			return ids, nil
		}
	}
}
