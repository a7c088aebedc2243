package models

import (
	"time"

	"github.com/google/uuid"
)

// Chunk is one stored byte range of an upload session, immutable once accepted.
type Chunk struct {
	SessionID  uuid.UUID `json:"session_id" db:"session_id"`
	ChunkIndex int       `json:"chunk_index" db:"chunk_index"`
	ChunkSize  int64     `json:"chunk_size" db:"chunk_size"`
	ChunkHash  string    `json:"chunk_hash,omitempty" db:"chunk_hash"`
	S3Key      string    `json:"s3_key" db:"s3_key"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
