package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/streamhive/video-ingest/internal/models"
)

type ffprobeProber struct{}

func NewFFprobeProber() Prober {
	return &ffprobeProber{}
}

type probeStream struct {
	CodecType    string `json:"codec_type"`
	CodecName    string `json:"codec_name"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	RFrameRate   string `json:"r_frame_rate"`
	DisplayRatio string `json:"display_aspect_ratio"`
}

type probeFormat struct {
	Duration string `json:"duration"`
	BitRate  string `json:"bit_rate"`
	Size     string `json:"size"`
}

type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

func (p *ffprobeProber) Probe(ctx context.Context, inputPath string) (*models.VideoMetadata, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		inputPath,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("ffprobe error: %v output: %s", err, string(output))
	}

	var probed probeOutput
	if err := json.Unmarshal(output, &probed); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	var video *probeStream
	var audioCodec string
	for i, stream := range probed.Streams {
		switch stream.CodecType {
		case "video":
			if video == nil {
				video = &probed.Streams[i]
			}
		case "audio":
			if audioCodec == "" {
				audioCodec = stream.CodecName
			}
		}
	}
	if video == nil {
		return nil, ErrNoVideoStream
	}

	duration, _ := strconv.ParseFloat(probed.Format.Duration, 64)
	bitrate, _ := strconv.ParseInt(probed.Format.BitRate, 10, 64)
	size, _ := strconv.ParseInt(probed.Format.Size, 10, 64)

	aspect := video.DisplayRatio
	if aspect == "" && video.Height > 0 {
		aspect = fmt.Sprintf("%d:%d", video.Width, video.Height)
	}

	return &models.VideoMetadata{
		Duration:    duration,
		Width:       video.Width,
		Height:      video.Height,
		FrameRate:   parseFrameRate(video.RFrameRate),
		Bitrate:     bitrate,
		VideoCodec:  video.CodecName,
		AudioCodec:  audioCodec,
		FileSize:    size,
		AspectRatio: aspect,
	}, nil
}

// parseFrameRate converts ffprobe's rational form ("30000/1001") to fps.
func parseFrameRate(raw string) float64 {
	parts := strings.Split(raw, "/")
	if len(parts) != 2 {
		f, _ := strconv.ParseFloat(raw, 64)
		return f
	}
	num, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0
	}
	den, err := strconv.ParseFloat(parts[1], 64)
	if err != nil || den == 0 {
		return 0
	}
	return num / den
}

type ffmpegEncoder struct{}

func NewFFmpegEncoder() Encoder {
	return &ffmpegEncoder{}
}

func (e *ffmpegEncoder) Encode(ctx context.Context, inputPath, outputPath string, profile EncodeProfile) error {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", inputPath,
		"-c:v", profile.VideoCodec,
		"-b:v", fmt.Sprintf("%dk", profile.VideoBitrateKbps),
		"-maxrate", fmt.Sprintf("%dk", profile.MaxBitrateKbps),
		"-bufsize", fmt.Sprintf("%dk", profile.MaxBitrateKbps*2),
		"-vf", fmt.Sprintf("scale=%d:%d", profile.Width, profile.Height),
		"-preset", "medium",
		"-c:a", profile.AudioCodec,
		"-b:a", fmt.Sprintf("%dk", profile.AudioBitrateKbps),
		"-movflags", "+faststart",
		"-y", outputPath,
	)
	return runFFmpeg(cmd, "encode")
}

func (e *ffmpegEncoder) ExtractFrame(ctx context.Context, inputPath, outputPath string, offset time.Duration, width, height int) error {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-ss", fmt.Sprintf("%.3f", offset.Seconds()),
		"-i", inputPath,
		"-frames:v", "1",
		"-vf", fmt.Sprintf("scale=%d:%d", width, height),
		"-q:v", "3",
		"-y", outputPath,
	)
	return runFFmpeg(cmd, "frame extraction")
}

func (e *ffmpegEncoder) SegmentHLS(ctx context.Context, inputPath, outDir, playlistName string, segmentSeconds int) error {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("failed to create hls output dir: %w", err)
	}
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", inputPath,
		"-c", "copy",
		"-f", "hls",
		"-hls_time", strconv.Itoa(segmentSeconds),
		"-hls_playlist_type", "vod",
		"-hls_segment_filename", filepath.Join(outDir, "segment_%03d.ts"),
		filepath.Join(outDir, playlistName),
	)
	return runFFmpeg(cmd, "hls segmenting")
}

func (e *ffmpegEncoder) SegmentDASH(ctx context.Context, inputPath, outDir, representationID string, segmentSeconds int) error {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("failed to create dash output dir: %w", err)
	}
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", inputPath,
		"-c", "copy",
		"-f", "dash",
		"-seg_duration", strconv.Itoa(segmentSeconds),
		"-use_template", "1",
		"-use_timeline", "0",
		"-init_seg_name", fmt.Sprintf("init_%s.m4s", representationID),
		"-media_seg_name", fmt.Sprintf("chunk_%s_$Number$.m4s", representationID),
		filepath.Join(outDir, fmt.Sprintf("%s.mpd", representationID)),
	)
	return runFFmpeg(cmd, "dash segmenting")
}

func runFFmpeg(cmd *exec.Cmd, op string) error {
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg %s failed: %v, stderr: %s", op, err, stderr.String())
	}
	return nil
}
