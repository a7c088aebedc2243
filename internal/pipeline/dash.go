package pipeline

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/streamhive/video-ingest/internal/models"
	mpd "github.com/unki2aut/go-mpd"
	xsd "github.com/unki2aut/go-xsd-types"
)

// generateDASH segments every succeeded rendition into a shared directory
// with per-representation init and media segment names, then writes a single
// multi-representation MPD over them. ffmpeg's per-input manifests are
// discarded; only the combined one is published.
func (p *Pipeline) generateDASH(ctx context.Context, job *models.ProcessingJob, renditions []rendition, duration float64, tempDir string) (string, error) {
	dashDir := filepath.Join(tempDir, "dash")
	for _, r := range renditions {
		repID := string(r.profile.Quality)
		if err := p.encoder.SegmentDASH(ctx, r.localPath, dashDir, repID, segmentSeconds); err != nil {
			return "", fmt.Errorf("failed to segment %s: %w", r.profile.Quality, err)
		}
		if err := os.Remove(filepath.Join(dashDir, repID+".mpd")); err != nil && !os.IsNotExist(err) {
			return "", fmt.Errorf("failed to drop intermediate manifest for %s: %w", repID, err)
		}
	}

	manifest, err := buildMPD(renditions, duration)
	if err != nil {
		return "", fmt.Errorf("failed to build dash manifest: %w", err)
	}
	manifestPath := filepath.Join(dashDir, "manifest.mpd")
	if err := os.WriteFile(manifestPath, manifest, 0644); err != nil {
		return "", fmt.Errorf("failed to write dash manifest: %w", err)
	}

	prefix := fmt.Sprintf("jobs/%s/dash/", job.JobID)
	if err := p.uploadDir(ctx, job.OutputBucket, prefix, dashDir); err != nil {
		return "", fmt.Errorf("failed to upload dash outputs: %w", err)
	}
	return p.publicURL(job.OutputBucket, prefix+"manifest.mpd"), nil
}

// buildMPD emits a static single-period MPD with one representation per
// succeeded rendition, matching the segment names SegmentDASH produced.
func buildMPD(renditions []rendition, duration float64) ([]byte, error) {
	presentation, err := xsd.DurationFromString(fmt.Sprintf("PT%dS", int64(math.Ceil(duration))))
	if err != nil {
		return nil, fmt.Errorf("failed to build presentation duration: %w", err)
	}
	minBuffer, err := xsd.DurationFromString(fmt.Sprintf("PT%dS", segmentSeconds))
	if err != nil {
		return nil, fmt.Errorf("failed to build buffer duration: %w", err)
	}

	representations := make([]mpd.Representation, 0, len(renditions))
	for _, r := range renditions {
		repID := string(r.profile.Quality)
		rep := mpd.Representation{
			ID:        strPtr(repID),
			Width:     uint64Ptr(uint64(r.profile.Width)),
			Height:    uint64Ptr(uint64(r.profile.Height)),
			Bandwidth: uint64Ptr(uint64(r.profile.Bandwidth())),
			Codecs:    strPtr("avc1.64001f,mp4a.40.2"),
			SegmentTemplate: &mpd.SegmentTemplate{
				Media:          strPtr(fmt.Sprintf("chunk_%s_$Number$.m4s", repID)),
				Initialization: strPtr(fmt.Sprintf("init_%s.m4s", repID)),
				Duration:       uint64Ptr(segmentSeconds),
				Timescale:      uint64Ptr(1),
				StartNumber:    uint64Ptr(1),
			},
		}
		representations = append(representations, rep)
	}

	manifest := &mpd.MPD{
		XMLNS:                     strPtr("urn:mpeg:dash:schema:mpd:2011"),
		Type:                      strPtr("static"),
		Profiles:                  "urn:mpeg:dash:profile:isoff-on-demand:2011",
		MediaPresentationDuration: presentation,
		MinBufferTime:             minBuffer,
		Period: []*mpd.Period{{
			ID: strPtr("0"),
			AdaptationSets: []*mpd.AdaptationSet{{
				MimeType:        "video/mp4",
				Representations: representations,
			}},
		}},
	}
	return manifest.Encode()
}

func strPtr(s string) *string { return &s }

func uint64Ptr(u uint64) *uint64 { return &u }
