package pipeline

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/streamhive/video-ingest/internal/config"
	"github.com/streamhive/video-ingest/internal/jobs"
	"github.com/streamhive/video-ingest/internal/models"
	"github.com/streamhive/video-ingest/internal/upload"
	"github.com/streamhive/video-ingest/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// Pipeline runs the per-job stage sequence: probe, thumbnails, per-quality
// encodes, adaptive manifests, cleanup. All outputs are keyed by job ID so a
// redelivered job overwrites rather than duplicates.
type Pipeline struct {
	cfg     *config.Config
	jobRepo jobs.Repository
	queue   jobs.Queue
	awsRepo upload.AWSRepository
	prober  Prober
	encoder Encoder
	logger  logger.Logger
}

func NewPipeline(
	cfg *config.Config,
	jobRepo jobs.Repository,
	queue jobs.Queue,
	awsRepo upload.AWSRepository,
	prober Prober,
	encoder Encoder,
	log logger.Logger,
) *Pipeline {
	return &Pipeline{
		cfg:     cfg,
		jobRepo: jobRepo,
		queue:   queue,
		awsRepo: awsRepo,
		prober:  prober,
		encoder: encoder,
		logger:  log,
	}
}

// Process drives one job to a terminal state. The returned error reports why
// processing stopped; the job record itself always carries the outcome, since
// clients learn about failures only by polling.
func (p *Pipeline) Process(ctx context.Context, job *models.ProcessingJob) error {
	tempDir := filepath.Join(p.cfg.Worker.TempDir, job.JobID.String())
	defer func() {
		// Cleanup is best-effort; a leftover temp dir never fails the job.
		if err := os.RemoveAll(tempDir); err != nil {
			p.logger.Warnf("failed to clean temp dir for job %s: %v", job.JobID, err)
		}
	}()
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return p.failJob(ctx, job, fmt.Sprintf("ProcessingFailed: failed to create temp dir: %v", err))
	}

	if err := p.jobRepo.MarkProcessing(ctx, job.JobID); err != nil {
		return err
	}
	job.Status = models.JobStatusProcessing
	if err := p.queue.SetProgress(ctx, job.JobID, models.JobStatusProcessing, 0, ""); err != nil {
		p.logger.Warnf("failed to publish processing status for job %s: %v", job.JobID, err)
	}

	inputPath, err := p.downloadSource(ctx, job, tempDir)
	if err != nil {
		return p.failJob(ctx, job, fmt.Sprintf("ProcessingFailed: failed to fetch source: %v", err))
	}

	tracker := newProgressTracker(job, p.jobRepo, p.queue, p.logger)

	// Stage 1: metadata extraction.
	metadata, err := p.prober.Probe(ctx, inputPath)
	if err != nil {
		if err == ErrNoVideoStream {
			return p.failJob(ctx, job, "UnsupportedMedia: no video stream found in source")
		}
		return p.failJob(ctx, job, fmt.Sprintf("ProcessingFailed: probe failed: %v", err))
	}
	job.Metadata = metadata
	tracker.Add(ctx, weightMetadata)
	p.saveOutputs(ctx, job)

	// Stage 2: thumbnails. Failures degrade gracefully instead of aborting.
	if job.Options.GenerateThumbnails {
		urls, err := p.generateThumbnails(ctx, job, inputPath, metadata.Duration, tempDir)
		if err != nil {
			p.logger.Warnf("thumbnail stage failed for job %s: %v", job.JobID, err)
		}
		job.ThumbnailURLs = urls
		tracker.Add(ctx, weightThumbnails)
		p.saveOutputs(ctx, job)
	}

	// Stage 3: multi-quality encoding, bounded fan-out.
	succeeded, failed := p.encodeRenditions(ctx, job, inputPath, tempDir, tracker)
	if len(succeeded) == 0 {
		return p.failJob(ctx, job, fmt.Sprintf("ProcessingFailed: all quality tiers failed: %s", strings.Join(failed, "; ")))
	}
	if len(failed) > 0 {
		// Best-effort policy: keep going with the qualities that made it.
		job.ErrorMessage = fmt.Sprintf("PartialEncodeFailure: %s", strings.Join(failed, "; "))
		p.logger.Warnf("job %s continuing with partial renditions: %s", job.JobID, job.ErrorMessage)
	}
	p.saveOutputs(ctx, job)

	// Stage 4: adaptive manifests over the succeeded renditions.
	if job.Options.GenerateHLS {
		hlsURL, err := p.generateHLS(ctx, job, succeeded, tempDir)
		if err != nil {
			return p.failJob(ctx, job, fmt.Sprintf("ProcessingFailed: hls generation failed: %v", err))
		}
		job.HLSURL = hlsURL
		tracker.Add(ctx, weightHLS)
		p.saveOutputs(ctx, job)
	}
	if job.Options.GenerateDASH {
		dashURL, err := p.generateDASH(ctx, job, succeeded, metadata.Duration, tempDir)
		if err != nil {
			return p.failJob(ctx, job, fmt.Sprintf("ProcessingFailed: dash generation failed: %v", err))
		}
		job.DASHURL = dashURL
		tracker.Add(ctx, weightDASH)
		p.saveOutputs(ctx, job)
	}

	if err := p.jobRepo.MarkCompleted(ctx, job); err != nil {
		return err
	}
	job.Status = models.JobStatusCompleted
	job.Progress = 100
	if err := p.queue.SetProgress(ctx, job.JobID, models.JobStatusCompleted, 100, job.ErrorMessage); err != nil {
		p.logger.Warnf("failed to publish completion for job %s: %v", job.JobID, err)
	}

	// Stage 5: cleanup. The assembled source has served its purpose once the
	// renditions exist; removal is best-effort.
	if err := p.awsRepo.RemoveObject(ctx, job.InputBucket, job.InputKey); err != nil {
		p.logger.Warnf("failed to remove source object for job %s: %v", job.JobID, err)
	}
	p.logger.Infof("job %s completed with %d renditions", job.JobID, len(succeeded))
	return nil
}

type rendition struct {
	profile   EncodeProfile
	localPath string
}

func (p *Pipeline) encodeRenditions(ctx context.Context, job *models.ProcessingJob, inputPath, tempDir string, tracker *progressTracker) ([]rendition, []string) {
	qualities := job.Options.Qualities
	perQuality := weightEncoding / float64(len(qualities))

	var mu sync.Mutex
	succeeded := make([]rendition, 0, len(qualities))
	failed := make([]string, 0)
	if job.OutputURLs == nil {
		job.OutputURLs = make(models.QualityURLMap)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Worker.EncodeConcurrency)
	for _, quality := range qualities {
		quality := quality
		g.Go(func() error {
			profile := ProfileFor(quality, job.Options)
			outPath := filepath.Join(tempDir, fmt.Sprintf("%s.mp4", quality))
			if err := p.encoder.Encode(gctx, inputPath, outPath, profile); err != nil {
				mu.Lock()
				failed = append(failed, fmt.Sprintf("%s: %v", quality, err))
				mu.Unlock()
				tracker.Add(ctx, perQuality)
				return nil
			}
			key := fmt.Sprintf("jobs/%s/renditions/%s/%s.mp4", job.JobID, quality, quality)
			if err := p.uploadFile(gctx, job.OutputBucket, key, outPath, "video/mp4"); err != nil {
				mu.Lock()
				failed = append(failed, fmt.Sprintf("%s: upload: %v", quality, err))
				mu.Unlock()
				tracker.Add(ctx, perQuality)
				return nil
			}
			mu.Lock()
			succeeded = append(succeeded, rendition{profile: profile, localPath: outPath})
			job.OutputURLs[quality] = p.publicURL(job.OutputBucket, key)
			mu.Unlock()
			tracker.Add(ctx, perQuality)
			return nil
		})
	}
	// Workers never return errors from the group; failures are collected
	// per quality so one bad tier cannot cancel its siblings.
	_ = g.Wait()

	sort.Slice(succeeded, func(i, j int) bool {
		return succeeded[i].profile.Bandwidth() < succeeded[j].profile.Bandwidth()
	})
	return succeeded, failed
}

func (p *Pipeline) generateThumbnails(ctx context.Context, job *models.ProcessingJob, inputPath string, duration float64, tempDir string) (models.StringList, error) {
	count := job.Options.ThumbnailCount
	if count <= 0 {
		count = 3
	}
	thumbDir := filepath.Join(tempDir, "thumbnails")
	if err := os.MkdirAll(thumbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create thumbnail dir: %w", err)
	}

	urls := make(models.StringList, 0, count)
	var lastErr error
	for i := 0; i < count; i++ {
		// Evenly spaced inside (0, duration), excluding the extremes.
		offset := time.Duration(duration * float64(i+1) / float64(count+1) * float64(time.Second))
		localPath := filepath.Join(thumbDir, fmt.Sprintf("thumb_%03d.jpg", i))
		if err := p.encoder.ExtractFrame(ctx, inputPath, localPath, offset, thumbnailWidth, thumbnailHeight); err != nil {
			lastErr = err
			continue
		}
		key := fmt.Sprintf("jobs/%s/thumbnails/thumb_%03d.jpg", job.JobID, i)
		if err := p.uploadFile(ctx, job.OutputBucket, key, localPath, "image/jpeg"); err != nil {
			lastErr = err
			continue
		}
		urls = append(urls, p.publicURL(job.OutputBucket, key))
	}
	return urls, lastErr
}

func (p *Pipeline) downloadSource(ctx context.Context, job *models.ProcessingJob, tempDir string) (string, error) {
	localPath := filepath.Join(tempDir, "source"+filepath.Ext(job.InputKey))
	body, err := p.awsRepo.GetObject(ctx, job.InputBucket, job.InputKey)
	if err != nil {
		return "", fmt.Errorf("failed to get source object: %w", err)
	}
	defer body.Close()
	outFile, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to create local source file: %w", err)
	}
	defer outFile.Close()
	if _, err = io.Copy(outFile, body); err != nil {
		return "", fmt.Errorf("failed to write local source file: %w", err)
	}
	return localPath, nil
}

func (p *Pipeline) uploadFile(ctx context.Context, bucket, key, localPath, contentType string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open %q: %w", localPath, err)
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %q: %w", localPath, err)
	}
	return p.awsRepo.PutObject(ctx, bucket, key, file, info.Size(), contentType)
}

func (p *Pipeline) uploadDir(ctx context.Context, bucket, prefix, dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		key := prefix + filepath.ToSlash(rel)
		return p.uploadFile(ctx, bucket, key, path, contentTypeFor(path))
	})
}

func (p *Pipeline) publicURL(bucket, key string) string {
	if p.cfg.S3.PublicURL != "" {
		return strings.TrimRight(p.cfg.S3.PublicURL, "/") + "/" + key
	}
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(p.cfg.S3.Endpoint, "/"), bucket, key)
}

func (p *Pipeline) saveOutputs(ctx context.Context, job *models.ProcessingJob) {
	if err := p.jobRepo.SaveOutputs(ctx, job); err != nil {
		p.logger.Warnf("failed to save outputs for job %s: %v", job.JobID, err)
	}
}

func (p *Pipeline) failJob(ctx context.Context, job *models.ProcessingJob, msg string) error {
	job.Status = models.JobStatusFailed
	job.ErrorMessage = msg
	if err := p.jobRepo.MarkFailed(ctx, job.JobID, msg); err != nil {
		p.logger.Errorf("failed to mark job %s failed: %v", job.JobID, err)
	}
	if err := p.queue.SetProgress(ctx, job.JobID, models.JobStatusFailed, job.Progress, msg); err != nil {
		p.logger.Warnf("failed to publish failure for job %s: %v", job.JobID, err)
	}
	return fmt.Errorf("job %s failed: %s", job.JobID, msg)
}

func contentTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".m3u8":
		return "application/vnd.apple.mpegurl"
	case ".ts":
		return "video/mp2t"
	case ".mpd":
		return "application/dash+xml"
	case ".m4s":
		return "video/iso.segment"
	case ".mp4":
		return "video/mp4"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	default:
		if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
			return t
		}
		return "application/octet-stream"
	}
}
