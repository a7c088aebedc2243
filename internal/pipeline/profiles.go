package pipeline

import (
	"github.com/streamhive/video-ingest/internal/models"
	"github.com/streamhive/video-ingest/pkg/utils"
)

const (
	defaultVideoCodec = "libx264"
	defaultAudioCodec = "aac"

	thumbnailWidth  = 640
	thumbnailHeight = 360

	segmentSeconds = 6
)

// ProfileFor returns the deterministic encode profile for a quality tier,
// honoring codec overrides from the processing options.
func ProfileFor(quality models.VideoQuality, options models.ProcessingOptions) EncodeProfile {
	width, height := utils.GetResolution(quality)
	videoCodec := options.VideoCodec
	if videoCodec == "" {
		videoCodec = defaultVideoCodec
	}
	audioCodec := options.AudioCodec
	if audioCodec == "" {
		audioCodec = defaultAudioCodec
	}
	return EncodeProfile{
		Quality:          quality,
		Width:            width,
		Height:           height,
		VideoBitrateKbps: utils.GetDefaultBitrate(quality),
		MaxBitrateKbps:   utils.GetDefaultMaxBitrate(quality),
		AudioBitrateKbps: utils.GetDefaultAudioBitrate(quality),
		VideoCodec:       videoCodec,
		AudioCodec:       audioCodec,
	}
}

// Bandwidth is the manifest-advertised bits per second for a profile,
// video plus audio.
func (p EncodeProfile) Bandwidth() int {
	return (p.VideoBitrateKbps + p.AudioBitrateKbps) * 1000
}
