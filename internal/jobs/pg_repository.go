package jobs

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/streamhive/video-ingest/internal/models"
	"github.com/streamhive/video-ingest/pkg/utils"
)

// Repository is the durable store for processing job records; it backs
// client polling and audit after the redis progress entry expires.
type Repository interface {
	CreateJob(ctx context.Context, job *models.ProcessingJob) (*models.ProcessingJob, error)
	GetJob(ctx context.Context, jobID uuid.UUID) (*models.ProcessingJob, error)
	MarkProcessing(ctx context.Context, jobID uuid.UUID) error
	UpdateProgress(ctx context.Context, jobID uuid.UUID, progress float64) error
	SaveOutputs(ctx context.Context, job *models.ProcessingJob) error
	MarkCompleted(ctx context.Context, job *models.ProcessingJob) error
	MarkFailed(ctx context.Context, jobID uuid.UUID, errMsg string) error
	ListJobs(ctx context.Context, pagination *utils.Pagination) (*models.JobList, error)
	PurgeOldJobs(ctx context.Context, cutoff time.Time) (int64, error)
}
