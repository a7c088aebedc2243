package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/streamhive/video-ingest/internal/config"
	"github.com/streamhive/video-ingest/internal/jobs"
	"github.com/streamhive/video-ingest/pkg/logger"
	"github.com/streamhive/video-ingest/pkg/utils"
)

// WorkerPool pulls jobs from the queue and runs them through the pipeline.
// A job is acknowledged only after it reaches a terminal state; a worker
// that dies mid-job leaves the lease to expire and the reaper redelivers.
type WorkerPool struct {
	cfg      *config.Config
	queue    jobs.Queue
	pipeline *Pipeline
	logger   logger.Logger

	wg sync.WaitGroup
}

func NewWorkerPool(cfg *config.Config, queue jobs.Queue, pipeline *Pipeline, log logger.Logger) *WorkerPool {
	return &WorkerPool{
		cfg:      cfg,
		queue:    queue,
		pipeline: pipeline,
		logger:   log,
	}
}

// Run starts the workers and the lease reaper, then blocks until ctx is
// cancelled and every in-flight job has finished.
func (w *WorkerPool) Run(ctx context.Context) {
	for i := 0; i < w.cfg.Worker.WorkerCount; i++ {
		w.wg.Add(1)
		go w.runWorker(ctx, i)
	}
	w.wg.Add(1)
	go w.runReaper(ctx)
	w.wg.Wait()
}

func (w *WorkerPool) runWorker(ctx context.Context, id int) {
	defer w.wg.Done()
	w.logger.Infof("worker %d started", id)
	for {
		select {
		case <-ctx.Done():
			w.logger.Infof("worker %d stopping", id)
			return
		default:
		}

		if ok, usage := utils.CheckCPUUsage(w.cfg.Worker.MaxCPUUsage); !ok {
			w.logger.Warnf("worker %d backing off, cpu usage %.1f%%", id, usage)
			select {
			case <-ctx.Done():
				return
			case <-time.After(w.cfg.Worker.PollInterval):
			}
			continue
		}

		delivery, err := w.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Errorf("worker %d dequeue failed: %v", id, err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(w.cfg.Worker.PollInterval):
			}
			continue
		}
		if delivery == nil {
			continue
		}

		w.logger.Infof("worker %d picked up job %s", id, delivery.Job.JobID)
		if err := w.pipeline.Process(ctx, delivery.Job); err != nil {
			if ctx.Err() != nil {
				// Shutdown interrupted the job. Leave it leased so the
				// reaper redelivers it to another worker.
				w.logger.Warnf("worker %d interrupted on job %s, leaving for redelivery", id, delivery.Job.JobID)
				return
			}
			w.logger.Errorf("worker %d job %s: %v", id, delivery.Job.JobID, err)
		}
		// Terminal either way (completed or failed): acknowledge.
		if err := w.queue.Ack(context.Background(), delivery); err != nil {
			w.logger.Errorf("worker %d failed to ack job %s: %v", id, delivery.Job.JobID, err)
		}
	}
}

func (w *WorkerPool) runReaper(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.cfg.Worker.ReapInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			requeued, err := w.queue.ReapExpired(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				w.logger.Errorf("lease reaper failed: %v", err)
				continue
			}
			if requeued > 0 {
				w.logger.Infof("requeued %d expired job leases", requeued)
			}
		}
	}
}
