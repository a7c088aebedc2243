package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/streamhive/video-ingest/internal/models"
	"github.com/streamhive/video-ingest/internal/upload"
	"github.com/streamhive/video-ingest/pkg/httpErrors"
	"github.com/streamhive/video-ingest/pkg/logger"
)

// assembler concatenates the chunks of a complete session strictly in index
// order, verifying the declared final hash before anything becomes visible
// downstream.
type assembler struct {
	awsRepo upload.AWSRepository
	logger  logger.Logger
}

func newAssembler(awsRepo upload.AWSRepository, logger logger.Logger) *assembler {
	return &assembler{
		awsRepo: awsRepo,
		logger:  logger,
	}
}

// Assemble returns the key of the assembled object and the hex SHA-256 of its
// bytes. All-or-nothing: on any error no assembled object is left behind.
func (a *assembler) Assemble(ctx context.Context, bucket string, session *models.UploadSession, chunks []*models.Chunk, finalHash string) (string, string, error) {
	tmpFile, err := os.CreateTemp("", "assembly_*")
	if err != nil {
		return "", "", fmt.Errorf("failed to create assembly temp file: %w", err)
	}
	defer func() {
		tmpFile.Close()
		os.Remove(tmpFile.Name())
	}()

	hasher := sha256.New()
	sink := io.MultiWriter(tmpFile, hasher)

	var total int64
	for i, chunk := range chunks {
		if chunk.ChunkIndex != i {
			return "", "", fmt.Errorf("chunk set is not contiguous: expected index %d, got %d", i, chunk.ChunkIndex)
		}
		body, err := a.awsRepo.GetObject(ctx, bucket, chunk.S3Key)
		if err != nil {
			return "", "", fmt.Errorf("failed to read chunk %d: %w", chunk.ChunkIndex, err)
		}
		n, err := io.Copy(sink, body)
		body.Close()
		if err != nil {
			return "", "", fmt.Errorf("failed to append chunk %d: %w", chunk.ChunkIndex, err)
		}
		total += n
	}

	sum := hex.EncodeToString(hasher.Sum(nil))
	if finalHash != "" && sum != finalHash {
		return "", "", httpErrors.NewIntegrityError(
			fmt.Sprintf("assembled hash %s does not match declared hash %s", sum, finalHash))
	}

	if _, err := tmpFile.Seek(0, io.SeekStart); err != nil {
		return "", "", fmt.Errorf("failed to rewind assembly file: %w", err)
	}

	key := sourceKey(session.SessionID, session.FileName)
	if err := a.awsRepo.PutObject(ctx, bucket, key, tmpFile, total, session.MimeType); err != nil {
		return "", "", fmt.Errorf("failed to store assembled object: %w", err)
	}
	a.logger.Infof("Assembled session %s into %s (%d bytes)", session.SessionID, key, total)
	return key, sum, nil
}
