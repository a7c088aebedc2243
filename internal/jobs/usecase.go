package jobs

import (
	"context"

	"github.com/google/uuid"
	"github.com/streamhive/video-ingest/internal/models"
	"github.com/streamhive/video-ingest/pkg/utils"
)

type UseCase interface {
	Submit(ctx context.Context, job *models.ProcessingJob) (*models.ProcessingJob, error)
	GetJob(ctx context.Context, jobID uuid.UUID) (*models.ProcessingJob, error)
	GetProgress(ctx context.Context, jobID uuid.UUID) (*models.JobProgress, error)
	ListJobs(ctx context.Context, pagination *utils.Pagination) (*models.JobList, error)
}
