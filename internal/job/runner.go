package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/phrazzld/notes-api/internal/platform/logger"
)

// RunnerConfig holds configuration for the job runner
type RunnerConfig struct {
	// WorkerCount determines how many concurrent workers process jobs
	WorkerCount int

	// QueueSize is the buffer size of the in-memory hand-off channel
	QueueSize int

	// MaxAttempts bounds how often a job runs before it is buried
	MaxAttempts int

	// RetryBackoff is the delay before the first retry; later retries double it
	RetryBackoff time.Duration

	// PollInterval is how often the store is polled for due jobs, which picks
	// up retries, jobs enqueued by other processes and jobs that did not fit
	// in the channel
	PollInterval time.Duration

	// StuckJobAge defines how long a job can stay in processing before it is
	// considered abandoned and reset to pending
	StuckJobAge time.Duration

	// StuckJobCheckInterval defines how often to check for stuck jobs.
	// If zero, defaults to 5 minutes
	StuckJobCheckInterval time.Duration
}

// DefaultRunnerConfig returns a RunnerConfig with reasonable defaults
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		WorkerCount:           2,
		QueueSize:             100,
		MaxAttempts:           5,
		RetryBackoff:          2 * time.Second,
		PollInterval:          time.Second,
		StuckJobAge:           10 * time.Minute,
		StuckJobCheckInterval: 5 * time.Minute,
	}
}

// queued is a job on the hand-off channel. Jobs found by the poller are
// already claimed; jobs handed over by Enqueue still need a claim.
type queued struct {
	job     *Job
	claimed bool
}

// Runner processes jobs persisted in a Store with a pool of workers.
// Any number of runners, in any number of processes, may share one store.
type Runner struct {
	store      Store
	dispatcher *Dispatcher
	jobs       chan queued
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	started    atomic.Bool
	config     RunnerConfig
	logger     *slog.Logger
	errHandler func(job *Job, err error)
}

// NewRunner creates a new Runner
func NewRunner(store Store, dispatcher *Dispatcher, config RunnerConfig, log *slog.Logger) *Runner {
	if config.StuckJobCheckInterval == 0 {
		config.StuckJobCheckInterval = 5 * time.Minute
	}
	if config.PollInterval <= 0 {
		config.PollInterval = time.Second
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 1
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 1
	}
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("component", "job_runner"))

	ctx, cancel := context.WithCancel(context.Background())

	return &Runner{
		store:      store,
		dispatcher: dispatcher,
		jobs:       make(chan queued, config.QueueSize),
		ctx:        ctx,
		cancelFunc: cancel,
		config:     config,
		logger:     log,
		errHandler: func(job *Job, err error) {
			log.Error("job execution failed",
				"job_id", job.ID,
				"job_type", job.Type,
				"attempt", job.Attempts,
				"error", err)
		},
	}
}

// SetErrorHandler allows setting a custom error handler function. It is
// called for every failed run, retried or not.
func (r *Runner) SetErrorHandler(handler func(job *Job, err error)) {
	r.errHandler = handler
}

var _ Queue = (*Runner)(nil)

// Enqueue persists job and, when this runner is started, hands it to a local
// worker. A full channel is not an error: the job is already stored and the
// poller will find it.
func (r *Runner) Enqueue(ctx context.Context, job *Job) error {
	if err := r.store.Save(ctx, job); err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}

	if !r.started.Load() {
		return nil
	}

	select {
	case r.jobs <- queued{job: job}:
	default:
		logger.FromContextOrDefault(ctx, r.logger).Debug("job channel full, leaving job to the poller",
			"job_id", job.ID,
			"job_type", job.Type)
	}
	return nil
}

// Start launches the workers, the poller and the stuck-job monitor.
func (r *Runner) Start() error {
	if r.config.WorkerCount <= 0 {
		return fmt.Errorf("job runner needs at least one worker, got %d", r.config.WorkerCount)
	}
	if !r.started.CompareAndSwap(false, true) {
		return errors.New("job runner already started")
	}

	for i := 0; i < r.config.WorkerCount; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}

	r.wg.Add(2)
	go r.poller()
	go r.stuckJobMonitor()

	r.logger.Info("job runner started",
		"workers", r.config.WorkerCount,
		"poll_interval", r.config.PollInterval.String())
	return nil
}

// Stop cancels in-flight jobs and waits for all goroutines to exit.
// Interrupted jobs are put back to pending.
func (r *Runner) Stop() {
	r.started.Store(false)
	r.cancelFunc()
	r.wg.Wait()

	var leftover []*Job
drain:
	for {
		select {
		case q := <-r.jobs:
			if q.claimed {
				leftover = append(leftover, q.job)
			}
		default:
			break drain
		}
	}
	r.release(leftover)

	r.logger.Info("job runner stopped")
}

func (r *Runner) worker(id int) {
	defer r.wg.Done()

	r.logger.Debug("starting worker", "worker_id", id)

	for {
		select {
		case <-r.ctx.Done():
			r.logger.Debug("stopping worker", "worker_id", id)
			return
		case q := <-r.jobs:
			r.process(q, id)
		}
	}
}

// process claims the job if needed, runs it and records the outcome.
func (r *Runner) process(q queued, workerID int) {
	job := q.job
	if !q.claimed {
		claimed, ok, err := r.store.Claim(r.ctx, job.ID)
		if err != nil {
			r.logger.Error("failed to claim job", "job_id", job.ID, "error", err)
			return
		}
		if !ok {
			r.logger.Debug("job already claimed elsewhere", "job_id", job.ID)
			return
		}
		job = claimed
	}

	log := r.logger.With(
		"job_id", job.ID,
		"job_type", job.Type,
		"attempt", job.Attempts,
		"worker_id", workerID,
	)
	log.Info("processing job")

	started := time.Now()
	err := r.dispatcher.Dispatch(logger.WithLogger(r.ctx, log), job)
	r.settle(job, err, log)

	log.Debug("job finished", "duration_ms", time.Since(started).Milliseconds())
}

// settle records the result of a run. Bookkeeping uses a fresh context so
// that a cancelled runner can still put interrupted jobs back.
func (r *Runner) settle(job *Job, runErr error, log *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var err error
	switch {
	case runErr == nil:
		log.Info("job completed")
		err = r.store.Complete(ctx, job.ID)

	case r.ctx.Err() != nil && errors.Is(runErr, context.Canceled):
		log.Info("job interrupted by shutdown")
		err = r.store.Retry(ctx, job.ID, time.Now().UTC(), "interrupted by shutdown")

	case IsPermanent(runErr):
		r.errHandler(job, runErr)
		log.Warn("job failed permanently", "error", runErr)
		err = r.store.Fail(ctx, job.ID, runErr.Error())

	case job.Attempts >= r.config.MaxAttempts:
		r.errHandler(job, runErr)
		log.Error("job attempts exhausted, burying", "error", runErr)
		err = r.store.Bury(ctx, job.ID, runErr.Error())

	default:
		r.errHandler(job, runErr)
		delay := Backoff(r.config.RetryBackoff, job.Attempts)
		log.Warn("job failed, scheduling retry", "error", runErr, "retry_in", delay.String())
		err = r.store.Retry(ctx, job.ID, time.Now().UTC().Add(delay), runErr.Error())
	}

	if err != nil {
		log.Error("failed to record job outcome", "error", err)
	}
}

// poller claims due jobs from the store and feeds them to the workers. The
// first poll runs immediately so jobs left over from a previous run resume.
func (r *Runner) poller() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.PollInterval)
	defer ticker.Stop()

	for {
		r.pollOnce()

		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (r *Runner) pollOnce() {
	free := cap(r.jobs) - len(r.jobs)
	if free <= 0 {
		return
	}

	jobs, err := r.store.ClaimDue(r.ctx, free)
	if err != nil {
		if r.ctx.Err() == nil {
			r.logger.Error("failed to claim due jobs", "error", err)
		}
		return
	}

	for i, job := range jobs {
		select {
		case r.jobs <- queued{job: job, claimed: true}:
		case <-r.ctx.Done():
			r.release(jobs[i:])
			return
		}
	}
}

// release returns claimed but unstarted jobs to pending.
func (r *Runner) release(jobs []*Job) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, job := range jobs {
		if err := r.store.Retry(ctx, job.ID, time.Now().UTC(), "released on shutdown"); err != nil {
			r.logger.Error("failed to release job", "job_id", job.ID, "error", err)
		}
	}
}

// stuckJobMonitor periodically resets jobs that have been processing for too
// long, typically because their worker process died.
func (r *Runner) stuckJobMonitor() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.StuckJobCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			n, err := r.store.ResetStuck(r.ctx, r.config.StuckJobAge)
			if err != nil {
				r.logger.Error("failed to reset stuck jobs", "error", err)
				continue
			}
			if n > 0 {
				r.logger.Info("reset stuck jobs", "count", n)
			}
		}
	}
}
