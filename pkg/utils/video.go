package utils

import "github.com/streamhive/video-ingest/internal/models"

// Default video bitrates (kbps) per quality tier. Deterministic so that
// re-running a job reproduces the same renditions.
func GetDefaultBitrate(quality models.VideoQuality) int {
	switch quality {
	case models.Quality4K:
		return 16000
	case models.Quality1080P:
		return 5000
	case models.Quality720P:
		return 2800
	case models.Quality360P:
		return 800
	default:
		return 2000
	}
}

func GetDefaultMaxBitrate(quality models.VideoQuality) int {
	switch quality {
	case models.Quality4K:
		return 24000
	case models.Quality1080P:
		return 8000
	case models.Quality720P:
		return 4000
	case models.Quality360P:
		return 1200
	default:
		return 4000
	}
}

func GetDefaultAudioBitrate(quality models.VideoQuality) int {
	switch quality {
	case models.Quality4K, models.Quality1080P:
		return 192
	case models.Quality720P:
		return 128
	default:
		return 96
	}
}

func GetResolution(quality models.VideoQuality) (width, height int) {
	switch quality {
	case models.Quality4K:
		return 3840, 2160
	case models.Quality1080P:
		return 1920, 1080
	case models.Quality720P:
		return 1280, 720
	case models.Quality360P:
		return 640, 360
	default:
		return 1280, 720
	}
}

func GetDefaultQualities() []models.VideoQuality {
	return []models.VideoQuality{
		models.Quality720P,
		models.Quality360P,
	}
}
