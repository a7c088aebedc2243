package upload

import (
	"context"

	"github.com/google/uuid"
	"github.com/streamhive/video-ingest/internal/models"
)

// UseCase owns the upload session state machine.
type UseCase interface {
	Initiate(ctx context.Context, input *models.InitiateUploadInput) (*models.InitiateUploadResponse, error)
	UploadChunk(ctx context.Context, sessionID uuid.UUID, index int, data []byte, chunkHash string) (*models.ChunkAck, error)
	RetryChunk(ctx context.Context, sessionID uuid.UUID, index int, data []byte, chunkHash string) (*models.ChunkAck, error)
	GetStatus(ctx context.Context, sessionID uuid.UUID) (*models.UploadStatus, error)
	Finalize(ctx context.Context, sessionID uuid.UUID, input *models.CompleteUploadInput) (*models.ProcessingJob, error)
	Cancel(ctx context.Context, sessionID uuid.UUID) (*models.UploadStatus, error)
	ExpireStaleSessions(ctx context.Context) (int, error)
}

// JobService is the hand-off point to the processing side: submitting a job
// must be durable before Finalize returns.
type JobService interface {
	Submit(ctx context.Context, job *models.ProcessingJob) (*models.ProcessingJob, error)
	GetJob(ctx context.Context, jobID uuid.UUID) (*models.ProcessingJob, error)
}
