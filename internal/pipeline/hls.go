package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/streamhive/video-ingest/internal/models"
)

// generateHLS segments every succeeded rendition, writes a master playlist
// referencing them, and uploads the whole tree under the job's hls/ prefix.
// The returned URL points at the master playlist.
func (p *Pipeline) generateHLS(ctx context.Context, job *models.ProcessingJob, renditions []rendition, tempDir string) (string, error) {
	hlsDir := filepath.Join(tempDir, "hls")
	for _, r := range renditions {
		variantDir := filepath.Join(hlsDir, string(r.profile.Quality))
		if err := p.encoder.SegmentHLS(ctx, r.localPath, variantDir, "playlist.m3u8", segmentSeconds); err != nil {
			return "", fmt.Errorf("failed to segment %s: %w", r.profile.Quality, err)
		}
	}

	masterPath := filepath.Join(hlsDir, "master.m3u8")
	if err := os.WriteFile(masterPath, []byte(buildMasterPlaylist(renditions)), 0644); err != nil {
		return "", fmt.Errorf("failed to write master playlist: %w", err)
	}

	prefix := fmt.Sprintf("jobs/%s/hls/", job.JobID)
	if err := p.uploadDir(ctx, job.OutputBucket, prefix, hlsDir); err != nil {
		return "", fmt.Errorf("failed to upload hls outputs: %w", err)
	}
	return p.publicURL(job.OutputBucket, prefix+"master.m3u8"), nil
}

// buildMasterPlaylist emits variant entries lowest bandwidth first, which is
// what players pick as the startup rendition.
func buildMasterPlaylist(renditions []rendition) string {
	var b strings.Builder
	b.WriteString("#EXTM3U\n")
	b.WriteString("#EXT-X-VERSION:3\n")
	for _, r := range renditions {
		b.WriteString(fmt.Sprintf("#EXT-X-STREAM-INF:BANDWIDTH=%d,RESOLUTION=%dx%d\n",
			r.profile.Bandwidth(), r.profile.Width, r.profile.Height))
		b.WriteString(fmt.Sprintf("%s/playlist.m3u8\n", r.profile.Quality))
	}
	return b.String()
}
