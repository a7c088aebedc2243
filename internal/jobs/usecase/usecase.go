package usecase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/streamhive/video-ingest/internal/config"
	"github.com/streamhive/video-ingest/internal/jobs"
	"github.com/streamhive/video-ingest/internal/models"
	"github.com/streamhive/video-ingest/pkg/httpErrors"
	"github.com/streamhive/video-ingest/pkg/logger"
	"github.com/streamhive/video-ingest/pkg/utils"
)

type jobUC struct {
	cfg     *config.Config
	jobRepo jobs.Repository
	queue   jobs.Queue
	logger  logger.Logger
}

func NewJobUseCase(
	cfg *config.Config,
	jobRepo jobs.Repository,
	queue jobs.Queue,
	log logger.Logger,
) jobs.UseCase {
	return &jobUC{
		cfg:     cfg,
		jobRepo: jobRepo,
		queue:   queue,
		logger:  log,
	}
}

// Submit durably records and enqueues a job. The enqueue must succeed before
// the caller (upload finalize) reports success, so a crash immediately after
// never loses the job.
func (j *jobUC) Submit(ctx context.Context, job *models.ProcessingJob) (*models.ProcessingJob, error) {
	if err := utils.ValidateStruct(ctx, job); err != nil {
		return nil, httpErrors.NewInvalidArgumentError(fmt.Sprintf("invalid job: %v", err))
	}
	if job.JobID == uuid.Nil {
		job.JobID = uuid.New()
	}
	job.Status = models.JobStatusPending
	created, err := j.jobRepo.CreateJob(ctx, job)
	if err != nil {
		j.logger.Errorf("Submit - CreateJob error: %v", err)
		return nil, err
	}
	if err := j.queue.Enqueue(ctx, created); err != nil {
		j.logger.Errorf("Submit - Enqueue error: %v", err)
		if failErr := j.jobRepo.MarkFailed(ctx, created.JobID, "job could not be queued"); failErr != nil {
			j.logger.Errorf("Submit - MarkFailed error: %v", failErr)
		}
		return nil, httpErrors.NewQueueUnavailableError(fmt.Sprintf("failed to queue job: %v", err))
	}
	if err := j.queue.SetProgress(ctx, created.JobID, models.JobStatusPending, 0, ""); err != nil {
		j.logger.Warnf("Submit - SetProgress error: %v", err)
	}
	j.logger.Infof("Submitted processing job %s for session %s", created.JobID, created.SessionID)
	return created, nil
}

func (j *jobUC) GetJob(ctx context.Context, jobID uuid.UUID) (*models.ProcessingJob, error) {
	job, err := j.jobRepo.GetJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, httpErrors.NewJobNotFoundError(jobID.String())
		}
		j.logger.Errorf("GetJob - repository error: %v", err)
		return nil, err
	}
	return job, nil
}

// GetProgress prefers the redis progress entry (cheap, updated mid-stage)
// and falls back to the durable record once the entry has expired.
func (j *jobUC) GetProgress(ctx context.Context, jobID uuid.UUID) (*models.JobProgress, error) {
	progress, err := j.queue.GetProgress(ctx, jobID)
	if err == nil {
		return progress, nil
	}
	if !errors.Is(err, redis.Nil) {
		j.logger.Warnf("GetProgress - redis error for job %s: %v", jobID, err)
	}
	job, err := j.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return &models.JobProgress{
		JobID:    job.JobID,
		Status:   job.Status,
		Progress: job.Progress,
		Error:    job.ErrorMessage,
	}, nil
}

func (j *jobUC) ListJobs(ctx context.Context, pagination *utils.Pagination) (*models.JobList, error) {
	if pagination == nil {
		pagination = &utils.Pagination{Page: 1, Size: 10}
	}
	if pagination.Page < 1 {
		pagination.Page = 1
	}
	if pagination.Size < 1 || pagination.Size > 100 {
		pagination.Size = 10
	}
	list, err := j.jobRepo.ListJobs(ctx, pagination)
	if err != nil {
		j.logger.Errorf("ListJobs - repository error: %v", err)
		return nil, fmt.Errorf("failed to list jobs: %v", err)
	}
	return list, nil
}
