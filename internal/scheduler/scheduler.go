// Package scheduler drives the polling loop that evaluates active campaign
// runs. Each tick is one cycle: every active run is considered at most once,
// and a transport failure halts further dispatch until the next cycle.
package scheduler

import (
    "context"
    "errors"
    "sync"
    "sync/atomic"
    "time"

    "github.com/rs/zerolog"

    "github.com/designgaga/outreach-backend/internal/logging"
    "github.com/designgaga/outreach-backend/internal/model"
    "github.com/designgaga/outreach-backend/internal/runner"
)

// Scheduler errors.
var (
    ErrAlreadyRunning = errors.New("scheduler already running")
    ErrNotRunning     = errors.New("scheduler not running")
)

// Config contains scheduler configuration.
type Config struct {
    // TickInterval is how often a new evaluation cycle starts.
    // Default: 60 seconds.
    TickInterval time.Duration

    // EvalTimeout is the maximum time allowed for a single run evaluation.
    // Default: 30 seconds.
    EvalTimeout time.Duration

    // MaxConcurrent limits how many runs are evaluated at once.
    // Default: 8.
    MaxConcurrent int
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
    return Config{
        TickInterval:  60 * time.Second,
        EvalTimeout:   30 * time.Second,
        MaxConcurrent: 8,
    }
}

// CycleStats summarizes one evaluation cycle.
type CycleStats struct {
    Evaluated int
    Sent      int
    Completed int
    Advanced  int
    Deferred  int
    Skipped   int
    Paused    int
    Errors    int
    // Halted reports whether the cycle stopped early after a send failure.
    Halted bool
}

// Stats is the scheduler's cumulative view since start.
type Stats struct {
    Running     bool
    StartedAt   *time.Time
    Cycles      int64
    TotalSent   int64
    TotalPaused int64
    LastCycleAt *time.Time
}

// RunSource lists the runs eligible for evaluation.
type RunSource interface {
    ListActive(ctx context.Context) ([]*model.Run, error)
}

// Evaluator advances a single run by one cycle.
type Evaluator interface {
    EvaluateRun(ctx context.Context, run *model.Run) (runner.CycleResult, error)
}

// Scheduler polls active runs and feeds them to the evaluator.
type Scheduler struct {
    config    Config
    runs      RunSource
    evaluator Evaluator
    logger    zerolog.Logger

    mu      sync.Mutex
    running bool
    ctx     context.Context
    cancel  context.CancelFunc
    wg      sync.WaitGroup

    // inFlight guards against overlapping evaluations of the same run when
    // a cycle outlasts the tick interval.
    inFlightMu sync.Mutex
    inFlight   map[int]struct{}

    statsMu sync.RWMutex
    stats   Stats
}

// New creates a Scheduler.
func New(config Config, runs RunSource, evaluator Evaluator) *Scheduler {
    if config.TickInterval <= 0 {
        config.TickInterval = DefaultConfig().TickInterval
    }
    if config.EvalTimeout <= 0 {
        config.EvalTimeout = DefaultConfig().EvalTimeout
    }
    if config.MaxConcurrent <= 0 {
        config.MaxConcurrent = DefaultConfig().MaxConcurrent
    }

    return &Scheduler{
        config:    config,
        runs:      runs,
        evaluator: evaluator,
        logger:    logging.Component("scheduler"),
        inFlight:  map[int]struct{}{},
    }
}

// Start begins the background polling loop.
func (s *Scheduler) Start(ctx context.Context) error {
    s.mu.Lock()
    defer s.mu.Unlock()

    if s.running {
        return ErrAlreadyRunning
    }

    s.ctx, s.cancel = context.WithCancel(ctx)
    s.running = true

    now := time.Now().UTC()
    s.statsMu.Lock()
    s.stats.Running = true
    s.stats.StartedAt = &now
    s.statsMu.Unlock()

    s.logger.Info().
        Dur("tick_interval", s.config.TickInterval).
        Int("max_concurrent", s.config.MaxConcurrent).
        Msg("scheduler starting")

    s.wg.Add(1)
    go s.runLoop()
    return nil
}

// Stop halts the scheduler and waits for the in-progress cycle to finish.
func (s *Scheduler) Stop() error {
    s.mu.Lock()
    if !s.running {
        s.mu.Unlock()
        return ErrNotRunning
    }
    s.logger.Info().Msg("scheduler stopping")
    s.cancel()
    s.running = false
    s.mu.Unlock()

    s.wg.Wait()

    s.statsMu.Lock()
    s.stats.Running = false
    s.statsMu.Unlock()

    s.logger.Info().Msg("scheduler stopped")
    return nil
}

// Stats returns a snapshot of cumulative scheduler statistics.
func (s *Scheduler) Stats() Stats {
    s.statsMu.RLock()
    defer s.statsMu.RUnlock()
    return s.stats
}

func (s *Scheduler) runLoop() {
    defer s.wg.Done()

    ticker := time.NewTicker(s.config.TickInterval)
    defer ticker.Stop()

    for {
        select {
        case <-s.ctx.Done():
            return
        case <-ticker.C:
            stats, err := s.RunCycle(s.ctx)
            if err != nil {
                if errors.Is(err, context.Canceled) {
                    return
                }
                s.logger.Error().Err(err).Msg("evaluation cycle failed")
                continue
            }
            if stats.Evaluated > 0 {
                s.logger.Info().
                    Int("evaluated", stats.Evaluated).
                    Int("sent", stats.Sent).
                    Int("completed", stats.Completed).
                    Int("deferred", stats.Deferred).
                    Int("paused", stats.Paused).
                    Bool("halted", stats.Halted).
                    Msg("cycle complete")
            }
        }
    }
}

// RunCycle performs one evaluation pass over all active runs. Exported so
// the worker binary and tests can drive cycles without the ticker. After a
// send failure no further evaluations start this cycle; the affected run is
// paused and everything else waits for the next tick.
func (s *Scheduler) RunCycle(ctx context.Context) (CycleStats, error) {
    var cycle CycleStats

    runs, err := s.runs.ListActive(ctx)
    if err != nil {
        return cycle, err
    }

    var (
        halted atomic.Bool
        wg     sync.WaitGroup
        sem    = make(chan struct{}, s.config.MaxConcurrent)
        outMu  sync.Mutex
    )

    for _, run := range runs {
        if ctx.Err() != nil {
            break
        }
        if !s.markInFlight(run.ID) {
            continue
        }

        sem <- struct{}{}
        // Checked after acquiring a slot: with the slot held, every prior
        // evaluation that could set the flag has either finished or is the
        // one holding the other slots.
        if halted.Load() {
            <-sem
            s.clearInFlight(run.ID)
            cycle.Halted = true
            break
        }
        wg.Add(1)
        go func(run *model.Run) {
            defer func() {
                s.clearInFlight(run.ID)
                <-sem
                wg.Done()
            }()

            evalCtx, cancel := context.WithTimeout(ctx, s.config.EvalTimeout)
            defer cancel()

            res, err := s.evaluator.EvaluateRun(evalCtx, run)

            outMu.Lock()
            defer outMu.Unlock()
            cycle.Evaluated++
            if err != nil {
                cycle.Errors++
                s.logger.Error().Err(err).Int("run_id", run.ID).Msg("run evaluation failed")
                return
            }
            switch res.Outcome {
            case runner.OutcomeSent:
                cycle.Sent++
            case runner.OutcomeCompleted:
                cycle.Sent++
                cycle.Completed++
            case runner.OutcomeAdvanced:
                cycle.Advanced++
            case runner.OutcomeDeferred:
                cycle.Deferred++
            case runner.OutcomeSkipped, runner.OutcomeTerminal:
                cycle.Skipped++
            case runner.OutcomePaused:
                cycle.Paused++
                halted.Store(true)
            }
        }(run)
    }

    wg.Wait()
    cycle.Halted = cycle.Halted || halted.Load()

    now := time.Now().UTC()
    s.statsMu.Lock()
    s.stats.Cycles++
    s.stats.TotalSent += int64(cycle.Sent)
    s.stats.TotalPaused += int64(cycle.Paused)
    s.stats.LastCycleAt = &now
    s.statsMu.Unlock()

    return cycle, ctx.Err()
}

func (s *Scheduler) markInFlight(runID int) bool {
    s.inFlightMu.Lock()
    defer s.inFlightMu.Unlock()
    if _, busy := s.inFlight[runID]; busy {
        return false
    }
    s.inFlight[runID] = struct{}{}
    return true
}

func (s *Scheduler) clearInFlight(runID int) {
    s.inFlightMu.Lock()
    defer s.inFlightMu.Unlock()
    delete(s.inFlight, runID)
}
