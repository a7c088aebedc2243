package pipeline

import (
	"context"
	"sync"

	"github.com/streamhive/video-ingest/internal/jobs"
	"github.com/streamhive/video-ingest/internal/models"
	"github.com/streamhive/video-ingest/pkg/logger"
)

// Stage weights. Progress is normalized over the weights of the stages a
// job actually requested, so it always ends at exactly 100.
const (
	weightMetadata   = 10.0
	weightThumbnails = 15.0
	weightEncoding   = 55.0
	weightHLS        = 10.0
	weightDASH       = 10.0
)

// progressTracker accumulates completed stage weight and persists the
// normalized percentage after every step, keeping the externally visible
// value monotonic mid-job.
type progressTracker struct {
	mu      sync.Mutex
	job     *models.ProcessingJob
	jobRepo jobs.Repository
	queue   jobs.Queue
	logger  logger.Logger
	total   float64
	done    float64
}

func newProgressTracker(job *models.ProcessingJob, jobRepo jobs.Repository, queue jobs.Queue, log logger.Logger) *progressTracker {
	total := weightMetadata + weightEncoding
	if job.Options.GenerateThumbnails {
		total += weightThumbnails
	}
	if job.Options.GenerateHLS {
		total += weightHLS
	}
	if job.Options.GenerateDASH {
		total += weightDASH
	}
	return &progressTracker{
		job:     job,
		jobRepo: jobRepo,
		queue:   queue,
		logger:  log,
		total:   total,
	}
}

func (t *progressTracker) Add(ctx context.Context, weight float64) {
	t.mu.Lock()
	t.done += weight
	if t.done > t.total {
		t.done = t.total
	}
	percent := t.done / t.total * 100
	t.job.Progress = percent
	t.mu.Unlock()

	if err := t.jobRepo.UpdateProgress(ctx, t.job.JobID, percent); err != nil {
		t.logger.Warnf("failed to persist progress for job %s: %v", t.job.JobID, err)
	}
	if err := t.queue.SetProgress(ctx, t.job.JobID, models.JobStatusProcessing, percent, ""); err != nil {
		t.logger.Warnf("failed to publish progress for job %s: %v", t.job.JobID, err)
	}
}

func (t *progressTracker) Current() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done / t.total * 100
}
