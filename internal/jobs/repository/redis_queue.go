package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/streamhive/video-ingest/internal/config"
	"github.com/streamhive/video-ingest/internal/jobs"
	"github.com/streamhive/video-ingest/internal/models"
)

const progressKeyPrefix = "video:progress:"

// jobQueue is a durable redis-list work queue. Dequeue moves the payload
// onto a processing list and records a lease; entries whose lease expires
// are pushed back by ReapExpired, giving at-least-once delivery.
type jobQueue struct {
	redisClient *redis.Client
	cfg         *config.Config
}

func NewJobQueue(redisClient *redis.Client, cfg *config.Config) jobs.Queue {
	return &jobQueue{
		redisClient: redisClient,
		cfg:         cfg,
	}
}

func (q *jobQueue) pendingKey() string {
	return q.cfg.Redis.JobQueueKey + ":pending"
}

func (q *jobQueue) processingKey() string {
	return q.cfg.Redis.JobQueueKey + ":processing"
}

func (q *jobQueue) leaseKey() string {
	return q.cfg.Redis.JobQueueKey + ":leases"
}

func (q *jobQueue) Enqueue(ctx context.Context, job *models.ProcessingJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	if err := q.redisClient.LPush(ctx, q.pendingKey(), payload).Err(); err != nil {
		return fmt.Errorf("failed to enqueue job: %w", err)
	}
	return nil
}

// Dequeue blocks up to the worker poll interval and returns (nil, nil) when
// no job is available.
func (q *jobQueue) Dequeue(ctx context.Context) (*jobs.Delivery, error) {
	payload, err := q.redisClient.BRPopLPush(ctx, q.pendingKey(), q.processingKey(), q.cfg.Worker.PollInterval).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to dequeue job: %w", err)
	}
	job := &models.ProcessingJob{}
	if err := json.Unmarshal([]byte(payload), job); err != nil {
		// Poisoned payload: drop it from the processing list so it does
		// not get redelivered forever.
		q.redisClient.LRem(ctx, q.processingKey(), 1, payload)
		return nil, fmt.Errorf("failed to unmarshal job payload: %w", err)
	}
	deadline := time.Now().Add(q.cfg.Worker.VisibilityTimeout).Unix()
	if err := q.redisClient.HSet(ctx, q.leaseKey(), job.JobID.String(), deadline).Err(); err != nil {
		return nil, fmt.Errorf("failed to record job lease: %w", err)
	}
	return &jobs.Delivery{Job: job, Payload: payload}, nil
}

func (q *jobQueue) Ack(ctx context.Context, delivery *jobs.Delivery) error {
	pipe := q.redisClient.Pipeline()
	pipe.LRem(ctx, q.processingKey(), 1, delivery.Payload)
	pipe.HDel(ctx, q.leaseKey(), delivery.Job.JobID.String())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to ack job: %w", err)
	}
	return nil
}

// ReapExpired returns jobs whose worker crashed mid-processing to the
// pending list once their lease has run out.
func (q *jobQueue) ReapExpired(ctx context.Context) (int, error) {
	payloads, err := q.redisClient.LRange(ctx, q.processingKey(), 0, -1).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to scan processing list: %w", err)
	}
	now := time.Now().Unix()
	requeued := 0
	for _, payload := range payloads {
		job := &models.ProcessingJob{}
		if err := json.Unmarshal([]byte(payload), job); err != nil {
			q.redisClient.LRem(ctx, q.processingKey(), 1, payload)
			continue
		}
		leaseVal, err := q.redisClient.HGet(ctx, q.leaseKey(), job.JobID.String()).Result()
		if err == nil {
			deadline, parseErr := strconv.ParseInt(leaseVal, 10, 64)
			if parseErr == nil && deadline > now {
				continue
			}
		} else if err != redis.Nil {
			return requeued, fmt.Errorf("failed to read job lease: %w", err)
		}
		pipe := q.redisClient.Pipeline()
		pipe.LRem(ctx, q.processingKey(), 1, payload)
		pipe.LPush(ctx, q.pendingKey(), payload)
		pipe.HDel(ctx, q.leaseKey(), job.JobID.String())
		if _, err := pipe.Exec(ctx); err != nil {
			return requeued, fmt.Errorf("failed to requeue job %s: %w", job.JobID, err)
		}
		requeued++
	}
	return requeued, nil
}

func (q *jobQueue) SetProgress(ctx context.Context, jobID uuid.UUID, status models.JobStatus, progress float64, errMsg string) error {
	key := progressKeyPrefix + jobID.String()
	pipe := q.redisClient.Pipeline()
	pipe.HSet(ctx, key, "status", string(status), "progress", progress, "error", errMsg)
	pipe.Expire(ctx, key, q.cfg.Redis.ProgressTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set job progress: %w", err)
	}
	return nil
}

func (q *jobQueue) GetProgress(ctx context.Context, jobID uuid.UUID) (*models.JobProgress, error) {
	fields, err := q.redisClient.HGetAll(ctx, progressKeyPrefix+jobID.String()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get job progress: %w", err)
	}
	if len(fields) == 0 {
		return nil, redis.Nil
	}
	progress, _ := strconv.ParseFloat(fields["progress"], 64)
	return &models.JobProgress{
		JobID:    jobID,
		Status:   models.JobStatus(fields["status"]),
		Progress: progress,
		Error:    fields["error"],
	}, nil
}
