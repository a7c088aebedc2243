package jobs

import (
	"context"

	"github.com/google/uuid"
	"github.com/streamhive/video-ingest/internal/models"
)

// Delivery pairs a dequeued job with the exact queue payload so the entry
// can be acknowledged (or redelivered) without re-marshalling a mutated job.
type Delivery struct {
	Job     *models.ProcessingJob
	Payload string
}

// Queue is the durable at-least-once work queue between upload completion
// and the transcoding workers, plus the live progress store polled by
// clients.
type Queue interface {
	Enqueue(ctx context.Context, job *models.ProcessingJob) error
	Dequeue(ctx context.Context) (*Delivery, error)
	Ack(ctx context.Context, delivery *Delivery) error
	ReapExpired(ctx context.Context) (int, error)

	SetProgress(ctx context.Context, jobID uuid.UUID, status models.JobStatus, progress float64, errMsg string) error
	GetProgress(ctx context.Context, jobID uuid.UUID) (*models.JobProgress, error)
}
