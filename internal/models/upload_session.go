package models

import (
	"time"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	SessionStatusUploading SessionStatus = "uploading"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusFailed    SessionStatus = "failed"
	SessionStatusCancelled SessionStatus = "cancelled"
)

// IsTerminal reports whether no further transition is allowed out of the status.
func (s SessionStatus) IsTerminal() bool {
	return s == SessionStatusCancelled || s == SessionStatusFailed
}

type UploadSession struct {
	SessionID      uuid.UUID         `json:"session_id" db:"session_id" validate:"omitempty"`
	FileName       string            `json:"file_name" db:"file_name" validate:"required,lte=255"`
	FileSize       int64             `json:"file_size" db:"file_size" validate:"required"`
	MimeType       string            `json:"mime_type" db:"mime_type" validate:"required,lte=100"`
	ChunkSize      int64             `json:"chunk_size" db:"chunk_size" validate:"required"`
	TotalChunks    int               `json:"total_chunks" db:"total_chunks" validate:"required"`
	Status         SessionStatus     `json:"status" db:"status" validate:"omitempty"`
	FinalHash      string            `json:"final_hash,omitempty" db:"final_hash" validate:"omitempty"`
	Title          string            `json:"title,omitempty" db:"title" validate:"omitempty,lte=255"`
	Options        ProcessingOptions `json:"processing_options" db:"options" validate:"omitempty"`
	JobID          *uuid.UUID        `json:"job_id,omitempty" db:"job_id" validate:"omitempty"`
	CreatedAt      time.Time         `json:"created_at" db:"created_at" validate:"omitempty"`
	LastActivityAt time.Time         `json:"last_activity_at" db:"last_activity_at" validate:"omitempty"`
}

type InitiateUploadInput struct {
	FileName  string            `json:"file_name" validate:"required,lte=255"`
	FileSize  int64             `json:"file_size" validate:"required,gt=0"`
	FileType  string            `json:"file_type" validate:"required,lte=100"`
	ChunkSize int64             `json:"chunk_size" validate:"omitempty,gt=0"`
	FinalHash string            `json:"final_hash" validate:"omitempty,len=64"`
	Title     string            `json:"title" validate:"omitempty,lte=255"`
	Options   ProcessingOptions `json:"processing_options" validate:"omitempty"`
}

type InitiateUploadResponse struct {
	SessionID   uuid.UUID `json:"session_id"`
	TotalChunks int       `json:"total_chunks"`
	ChunkSize   int64     `json:"chunk_size"`
}

type ChunkAck struct {
	ReceivedChunks int `json:"received_chunks"`
	TotalChunks    int `json:"total_chunks"`
}

type CompleteUploadInput struct {
	TotalChunks int    `json:"total_chunks" validate:"required,gt=0"`
	FinalHash   string `json:"final_hash" validate:"omitempty,len=64"`
}

// UploadStatus is the merged client-facing view of one upload and, once the
// session has been handed off, its processing job.
type UploadStatus struct {
	SessionID      uuid.UUID     `json:"session_id"`
	Status         SessionStatus `json:"status"`
	ReceivedChunks int           `json:"received_chunks"`
	TotalChunks    int           `json:"total_chunks"`
	Percentage     float64       `json:"percentage"`
	MissingIndices []int         `json:"missing_indices"`
	JobID          *uuid.UUID    `json:"job_id,omitempty"`
	Processing     *JobProgress  `json:"processing,omitempty"`
}
