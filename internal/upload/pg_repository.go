package upload

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/streamhive/video-ingest/internal/models"
)

// Repository persists upload sessions and their chunk records.
type Repository interface {
	CreateSession(ctx context.Context, session *models.UploadSession) (*models.UploadSession, error)
	GetSession(ctx context.Context, sessionID uuid.UUID) (*models.UploadSession, error)
	UpdateSessionStatus(ctx context.Context, sessionID uuid.UUID, status models.SessionStatus) error
	SetSessionJob(ctx context.Context, sessionID, jobID uuid.UUID) error
	TouchSession(ctx context.Context, sessionID uuid.UUID) error

	AddChunk(ctx context.Context, chunk *models.Chunk) (bool, error)
	GetChunkIndices(ctx context.Context, sessionID uuid.UUID) ([]int, error)
	GetChunks(ctx context.Context, sessionID uuid.UUID) ([]*models.Chunk, error)
	DeleteChunks(ctx context.Context, sessionID uuid.UUID) error

	GetStaleSessions(ctx context.Context, cutoff time.Time) ([]*models.UploadSession, error)
}
