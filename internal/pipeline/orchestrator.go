package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/templify/internal/config"
	"github.com/dgallion1/templify/internal/domain"
	"github.com/dgallion1/templify/internal/score"
	"github.com/dgallion1/templify/internal/workspace"
)

// Orchestrator manages the schema build pipeline.
type Orchestrator struct {
	jobs     *JobStore
	queue    chan *Job
	registry *domain.Registry
	store    *workspace.Store
	stats    *BuildStats
	log      *slog.Logger
	cfg      config.Config
	opts     score.Options

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Start must be called before Submit.
func NewOrchestrator(cfg config.Config, registry *domain.Registry, store *workspace.Store, log *slog.Logger) *Orchestrator {
	opts := score.DefaultOptions()
	opts.Floor = cfg.ScoreFloor
	opts.MissingRolePenalty = cfg.MissingRolePenalty
	opts.MinRoleConfidence = cfg.MinRoleConfidence
	opts.WindowSize = cfg.WindowSize
	opts.Parallelism = cfg.ScoreParallelism

	return &Orchestrator{
		jobs:     NewJobStore(cfg.JobTTL),
		queue:    make(chan *Job, cfg.MaxQueueSize),
		registry: registry,
		store:    store,
		stats:    NewBuildStats(time.Hour),
		log:      log,
		cfg:      cfg,
		opts:     opts,
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for i := 0; i < o.cfg.WorkerCount; i++ {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.registry, o.store, o.stats, o.log, o.opts)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Store returns the schema workspace for direct use by API handlers.
func (o *Orchestrator) Store() *workspace.Store {
	return o.store
}

// Stats returns the rolling build latency aggregate.
func (o *Orchestrator) Stats() StatsSnapshot {
	return o.stats.Snapshot()
}
