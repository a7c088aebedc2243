package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/streamhive/video-ingest/internal/jobs"
	"github.com/streamhive/video-ingest/internal/models"
	"github.com/streamhive/video-ingest/pkg/utils"
)

type jobRepo struct {
	db *sqlx.DB
}

func NewJobRepo(db *sqlx.DB) jobs.Repository {
	return &jobRepo{
		db: db,
	}
}

func (r *jobRepo) CreateJob(ctx context.Context, job *models.ProcessingJob) (*models.ProcessingJob, error) {
	created := &models.ProcessingJob{}
	if err := r.db.QueryRowxContext(
		ctx,
		createJobQuery,
		job.JobID,
		job.SessionID,
		job.InputBucket,
		job.InputKey,
		job.OutputBucket,
		job.Options,
		models.JobStatusPending,
	).StructScan(created); err != nil {
		return nil, errors.Wrap(err, "failed to create processing job")
	}
	return created, nil
}

func (r *jobRepo) GetJob(ctx context.Context, jobID uuid.UUID) (*models.ProcessingJob, error) {
	job := &models.ProcessingJob{}
	if err := r.db.QueryRowxContext(
		ctx,
		getJobQuery,
		jobID,
	).StructScan(job); err != nil {
		return nil, errors.Wrap(err, "failed to get processing job")
	}
	return job, nil
}

func (r *jobRepo) MarkProcessing(ctx context.Context, jobID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, markProcessingQuery, jobID); err != nil {
		return errors.Wrap(err, "failed to mark job processing")
	}
	return nil
}

func (r *jobRepo) UpdateProgress(ctx context.Context, jobID uuid.UUID, progress float64) error {
	if _, err := r.db.ExecContext(ctx, updateProgressQuery, jobID, progress); err != nil {
		return errors.Wrap(err, "failed to update job progress")
	}
	return nil
}

func (r *jobRepo) SaveOutputs(ctx context.Context, job *models.ProcessingJob) error {
	if _, err := r.db.ExecContext(
		ctx,
		saveOutputsQuery,
		job.JobID,
		job.Progress,
		job.OutputURLs,
		job.ThumbnailURLs,
		job.HLSURL,
		job.DASHURL,
		job.Metadata,
	); err != nil {
		return errors.Wrap(err, "failed to save job outputs")
	}
	return nil
}

func (r *jobRepo) MarkCompleted(ctx context.Context, job *models.ProcessingJob) error {
	if _, err := r.db.ExecContext(
		ctx,
		markCompletedQuery,
		job.JobID,
		job.OutputURLs,
		job.ThumbnailURLs,
		job.HLSURL,
		job.DASHURL,
		job.Metadata,
		job.ErrorMessage,
	); err != nil {
		return errors.Wrap(err, "failed to mark job completed")
	}
	return nil
}

func (r *jobRepo) MarkFailed(ctx context.Context, jobID uuid.UUID, errMsg string) error {
	if _, err := r.db.ExecContext(ctx, markFailedQuery, jobID, errMsg); err != nil {
		return errors.Wrap(err, "failed to mark job failed")
	}
	return nil
}

func (r *jobRepo) ListJobs(ctx context.Context, pagination *utils.Pagination) (*models.JobList, error) {
	var totalCount int
	if err := r.db.GetContext(ctx, &totalCount, getTotalJobsQuery); err != nil {
		return nil, errors.Wrap(err, "failed to get total jobs count")
	}
	if totalCount == 0 {
		return &models.JobList{
			Jobs:       make([]*models.ProcessingJob, 0),
			TotalCount: 0,
			Page:       pagination.GetPage(),
			PageSize:   pagination.GetSize(),
			HasMore:    false,
		}, nil
	}
	rows, err := r.db.QueryxContext(ctx, listJobsQuery, pagination.GetOffset(), pagination.GetLimit())
	if err != nil {
		return nil, errors.Wrap(err, "failed to list jobs")
	}
	defer rows.Close()
	jobList := make([]*models.ProcessingJob, 0, pagination.GetSize())
	for rows.Next() {
		var job models.ProcessingJob
		if err = rows.StructScan(&job); err != nil {
			return nil, errors.Wrap(err, "failed to scan job")
		}
		jobList = append(jobList, &job)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to scan jobs")
	}
	return &models.JobList{
		Jobs:       jobList,
		TotalCount: totalCount,
		Page:       pagination.GetPage(),
		PageSize:   pagination.GetSize(),
		HasMore:    utils.GetHasMore(pagination.GetPage(), totalCount, pagination.GetSize()),
	}, nil
}

func (r *jobRepo) PurgeOldJobs(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, purgeOldJobsQuery, cutoff)
	if err != nil {
		return 0, errors.Wrap(err, "failed to purge old jobs")
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "failed to read purge result")
	}
	return count, nil
}
