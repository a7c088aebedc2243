package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

type VideoQuality string

const (
	Quality360P  VideoQuality = "360p"
	Quality720P  VideoQuality = "720p"
	Quality1080P VideoQuality = "1080p"
	Quality4K    VideoQuality = "4K"
)

// ProcessingOptions is the requested output profile carried from upload
// initiation through the pipeline.
type ProcessingOptions struct {
	Qualities          []VideoQuality `json:"qualities" validate:"omitempty,dive,oneof=360p 720p 1080p 4K"`
	GenerateThumbnails bool           `json:"generate_thumbnails"`
	ThumbnailCount     int            `json:"thumbnail_count" validate:"omitempty,gte=0,lte=20"`
	GenerateHLS        bool           `json:"generate_hls"`
	GenerateDASH       bool           `json:"generate_dash"`
	VideoCodec         string         `json:"video_codec" validate:"omitempty,lte=30"`
	AudioCodec         string         `json:"audio_codec" validate:"omitempty,lte=30"`
}

type QualityURLMap map[VideoQuality]string

type StringList []string

// VideoMetadata is probed once per job and immutable thereafter.
type VideoMetadata struct {
	Duration    float64 `json:"duration"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	FrameRate   float64 `json:"frame_rate"`
	Bitrate     int64   `json:"bitrate"`
	VideoCodec  string  `json:"video_codec"`
	AudioCodec  string  `json:"audio_codec"`
	FileSize    int64   `json:"file_size"`
	AspectRatio string  `json:"aspect_ratio"`
}

type ProcessingJob struct {
	JobID         uuid.UUID         `json:"job_id" db:"job_id" validate:"omitempty"`
	SessionID     uuid.UUID         `json:"session_id" db:"session_id" validate:"omitempty"`
	InputBucket   string            `json:"input_bucket" db:"input_bucket" validate:"required"`
	InputKey      string            `json:"input_key" db:"input_key" validate:"required"`
	OutputBucket  string            `json:"output_bucket" db:"output_bucket" validate:"required"`
	Options       ProcessingOptions `json:"options" db:"options" validate:"omitempty"`
	Status        JobStatus         `json:"status" db:"status" validate:"omitempty"`
	Progress      float64           `json:"progress" db:"progress" validate:"omitempty"`
	OutputURLs    QualityURLMap     `json:"output_urls" db:"output_urls" validate:"omitempty"`
	ThumbnailURLs StringList        `json:"thumbnail_urls" db:"thumbnail_urls" validate:"omitempty"`
	HLSURL        string            `json:"hls_url,omitempty" db:"hls_url" validate:"omitempty"`
	DASHURL       string            `json:"dash_url,omitempty" db:"dash_url" validate:"omitempty"`
	Metadata      *VideoMetadata    `json:"metadata,omitempty" db:"metadata" validate:"omitempty"`
	ErrorMessage  string            `json:"error,omitempty" db:"error_message" validate:"omitempty"`
	CreatedAt     time.Time         `json:"created_at" db:"created_at" validate:"omitempty"`
	StartedAt     *time.Time        `json:"started_at,omitempty" db:"started_at" validate:"omitempty"`
	CompletedAt   *time.Time        `json:"completed_at,omitempty" db:"completed_at" validate:"omitempty"`
}

// JobProgress is the lightweight polling view.
type JobProgress struct {
	JobID    uuid.UUID `json:"job_id"`
	Status   JobStatus `json:"status"`
	Progress float64   `json:"progress"`
	Error    string    `json:"error,omitempty"`
}

type JobList struct {
	Jobs       []*ProcessingJob `json:"jobs"`
	TotalCount int              `json:"total_count"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	HasMore    bool             `json:"has_more"`
}

func jsonbValue(v interface{}) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func jsonbScan(src, dst interface{}) error {
	switch data := src.(type) {
	case []byte:
		return json.Unmarshal(data, dst)
	case string:
		return json.Unmarshal([]byte(data), dst)
	case nil:
		return nil
	default:
		return fmt.Errorf("unsupported jsonb source type %T", src)
	}
}

func (o ProcessingOptions) Value() (driver.Value, error) { return jsonbValue(o) }

func (o *ProcessingOptions) Scan(src interface{}) error { return jsonbScan(src, o) }

func (m QualityURLMap) Value() (driver.Value, error) { return jsonbValue(m) }

func (m *QualityURLMap) Scan(src interface{}) error { return jsonbScan(src, m) }

func (l StringList) Value() (driver.Value, error) { return jsonbValue(l) }

func (l *StringList) Scan(src interface{}) error { return jsonbScan(src, l) }

func (m VideoMetadata) Value() (driver.Value, error) { return jsonbValue(m) }

func (m *VideoMetadata) Scan(src interface{}) error { return jsonbScan(src, m) }
