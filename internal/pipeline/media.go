package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/streamhive/video-ingest/internal/models"
)

// ErrNoVideoStream is returned by a Prober when the source has no video
// stream; it fails the whole job as unsupported media.
var ErrNoVideoStream = errors.New("no video stream found")

// EncodeProfile is the deterministic recipe for one quality tier.
type EncodeProfile struct {
	Quality          models.VideoQuality
	Width            int
	Height           int
	VideoBitrateKbps int
	MaxBitrateKbps   int
	AudioBitrateKbps int
	VideoCodec       string
	AudioCodec       string
}

// Prober extracts metadata from a local media file.
type Prober interface {
	Probe(ctx context.Context, inputPath string) (*models.VideoMetadata, error)
}

// Encoder wraps the external transcode capability. The production
// implementation shells out to ffmpeg; tests substitute fakes.
type Encoder interface {
	Encode(ctx context.Context, inputPath, outputPath string, profile EncodeProfile) error
	ExtractFrame(ctx context.Context, inputPath, outputPath string, offset time.Duration, width, height int) error
	SegmentHLS(ctx context.Context, inputPath, outDir, playlistName string, segmentSeconds int) error
	SegmentDASH(ctx context.Context, inputPath, outDir, representationID string, segmentSeconds int) error
}
