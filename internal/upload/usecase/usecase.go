package usecase

import (
	"bytes"
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/streamhive/video-ingest/internal/config"
	"github.com/streamhive/video-ingest/internal/models"
	"github.com/streamhive/video-ingest/internal/upload"
	"github.com/streamhive/video-ingest/pkg/httpErrors"
	"github.com/streamhive/video-ingest/pkg/logger"
	"github.com/streamhive/video-ingest/pkg/utils"
)

type uploadUC struct {
	cfg        *config.Config
	uploadRepo upload.Repository
	awsRepo    upload.AWSRepository
	jobService upload.JobService
	assembler  *assembler
	locks      *sessionLocks
	logger     logger.Logger
}

func NewUploadUseCase(
	cfg *config.Config,
	uploadRepo upload.Repository,
	awsRepo upload.AWSRepository,
	jobService upload.JobService,
	log logger.Logger,
) upload.UseCase {
	return &uploadUC{
		cfg:        cfg,
		uploadRepo: uploadRepo,
		awsRepo:    awsRepo,
		jobService: jobService,
		assembler:  newAssembler(awsRepo, log),
		locks:      newSessionLocks(),
		logger:     log,
	}
}

func (u *uploadUC) Initiate(ctx context.Context, input *models.InitiateUploadInput) (*models.InitiateUploadResponse, error) {
	if err := utils.ValidateStruct(ctx, input); err != nil {
		u.logger.Errorf("Initiate - ValidateStruct error: %v", err)
		return nil, httpErrors.NewInvalidArgumentError(fmt.Sprintf("invalid input: %v", err))
	}
	if input.FileSize > u.cfg.Upload.MaxFileSize {
		return nil, httpErrors.NewInvalidArgumentError(
			fmt.Sprintf("file size %d exceeds maximum %d", input.FileSize, u.cfg.Upload.MaxFileSize))
	}
	if !strings.HasPrefix(input.FileType, "video/") {
		return nil, httpErrors.NewInvalidArgumentError(
			fmt.Sprintf("unsupported mime type %q: only video/* is accepted", input.FileType))
	}

	chunkSize := input.ChunkSize
	if chunkSize == 0 {
		chunkSize = u.cfg.Upload.DefaultChunkSize
	}
	if chunkSize < u.cfg.Upload.MinChunkSize {
		chunkSize = u.cfg.Upload.MinChunkSize
	}
	if chunkSize > u.cfg.Upload.MaxChunkSize {
		chunkSize = u.cfg.Upload.MaxChunkSize
	}
	totalChunks := int((input.FileSize + chunkSize - 1) / chunkSize)

	options := input.Options
	if len(options.Qualities) == 0 {
		options.Qualities = utils.GetDefaultQualities()
	}
	if options.GenerateThumbnails && options.ThumbnailCount == 0 {
		options.ThumbnailCount = 3
	}

	session := &models.UploadSession{
		SessionID:   uuid.New(),
		FileName:    input.FileName,
		FileSize:    input.FileSize,
		MimeType:    input.FileType,
		ChunkSize:   chunkSize,
		TotalChunks: totalChunks,
		Status:      models.SessionStatusUploading,
		Title:       input.Title,
		Options:     options,
		FinalHash:   input.FinalHash,
	}
	created, err := u.uploadRepo.CreateSession(ctx, session)
	if err != nil {
		u.logger.Errorf("Initiate - CreateSession error: %v", err)
		return nil, err
	}
	u.logger.Infof("Initiated upload session %s: %q, %d chunks of %d bytes",
		created.SessionID, created.FileName, created.TotalChunks, created.ChunkSize)
	return &models.InitiateUploadResponse{
		SessionID:   created.SessionID,
		TotalChunks: created.TotalChunks,
		ChunkSize:   created.ChunkSize,
	}, nil
}

func (u *uploadUC) UploadChunk(ctx context.Context, sessionID uuid.UUID, index int, data []byte, chunkHash string) (*models.ChunkAck, error) {
	u.locks.Lock(sessionID)
	defer u.locks.Unlock(sessionID)

	session, err := u.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionStatusUploading {
		return nil, httpErrors.NewSessionTerminalError(string(session.Status))
	}
	if index < 0 || index >= session.TotalChunks {
		return nil, httpErrors.NewInvalidArgumentError(
			fmt.Sprintf("chunk index %d out of range [0,%d)", index, session.TotalChunks))
	}
	if int64(len(data)) > session.ChunkSize {
		return nil, httpErrors.NewInvalidArgumentError(
			fmt.Sprintf("chunk of %d bytes exceeds negotiated chunk size %d", len(data), session.ChunkSize))
	}
	if chunkHash != "" {
		sum := sha256.Sum256(data)
		if hex.EncodeToString(sum[:]) != chunkHash {
			return nil, httpErrors.NewIntegrityError(fmt.Sprintf("chunk %d hash mismatch", index))
		}
	}

	indices, err := u.uploadRepo.GetChunkIndices(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	received := len(indices)
	if containsIndex(indices, index) {
		// Retried chunk after a dropped acknowledgement: accept without
		// re-storing.
		return &models.ChunkAck{ReceivedChunks: received, TotalChunks: session.TotalChunks}, nil
	}

	key := chunkKey(sessionID, index)
	if err := u.awsRepo.PutObject(ctx, u.cfg.S3.UploadBucket, key, bytes.NewReader(data), int64(len(data)), "application/octet-stream"); err != nil {
		u.logger.Errorf("UploadChunk - PutObject error: %v", err)
		return nil, err
	}
	inserted, err := u.uploadRepo.AddChunk(ctx, &models.Chunk{
		SessionID:  sessionID,
		ChunkIndex: index,
		ChunkSize:  int64(len(data)),
		ChunkHash:  chunkHash,
		S3Key:      key,
	})
	if err != nil {
		return nil, err
	}
	if inserted {
		received++
	}
	if err := u.uploadRepo.TouchSession(ctx, sessionID); err != nil {
		u.logger.Warnf("UploadChunk - TouchSession error: %v", err)
	}
	return &models.ChunkAck{ReceivedChunks: received, TotalChunks: session.TotalChunks}, nil
}

// RetryChunk resubmits a chunk after a failed or unacknowledged attempt. It
// shares UploadChunk's code path: an index that already landed acks without
// re-storing, a missing one is stored as usual.
func (u *uploadUC) RetryChunk(ctx context.Context, sessionID uuid.UUID, index int, data []byte, chunkHash string) (*models.ChunkAck, error) {
	return u.UploadChunk(ctx, sessionID, index, data, chunkHash)
}

func (u *uploadUC) GetStatus(ctx context.Context, sessionID uuid.UUID) (*models.UploadStatus, error) {
	session, err := u.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	indices, err := u.uploadRepo.GetChunkIndices(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	status := &models.UploadStatus{
		SessionID:      session.SessionID,
		Status:         session.Status,
		ReceivedChunks: len(indices),
		TotalChunks:    session.TotalChunks,
		Percentage:     percentage(len(indices), session.TotalChunks),
		MissingIndices: missingIndices(indices, session.TotalChunks),
		JobID:          session.JobID,
	}
	if session.JobID != nil {
		job, err := u.jobService.GetJob(ctx, *session.JobID)
		if err != nil {
			u.logger.Warnf("GetStatus - GetJob error for session %s: %v", sessionID, err)
		} else {
			status.Processing = &models.JobProgress{
				JobID:    job.JobID,
				Status:   job.Status,
				Progress: job.Progress,
				Error:    job.ErrorMessage,
			}
		}
	}
	return status, nil
}

func (u *uploadUC) Finalize(ctx context.Context, sessionID uuid.UUID, input *models.CompleteUploadInput) (*models.ProcessingJob, error) {
	if err := utils.ValidateStruct(ctx, input); err != nil {
		return nil, httpErrors.NewInvalidArgumentError(fmt.Sprintf("invalid input: %v", err))
	}

	u.locks.Lock(sessionID)
	defer u.locks.Unlock(sessionID)

	session, err := u.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	// Finalize retried after a dropped response returns the same job.
	if session.Status == models.SessionStatusCompleted && session.JobID != nil {
		return u.jobService.GetJob(ctx, *session.JobID)
	}
	if session.Status != models.SessionStatusUploading {
		return nil, httpErrors.NewSessionTerminalError(string(session.Status))
	}
	if input.TotalChunks != session.TotalChunks {
		return nil, httpErrors.NewInvalidArgumentError(
			fmt.Sprintf("declared total chunks %d does not match session total %d", input.TotalChunks, session.TotalChunks))
	}

	chunks, err := u.uploadRepo.GetChunks(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	indices := make([]int, 0, len(chunks))
	for _, c := range chunks {
		indices = append(indices, c.ChunkIndex)
	}
	if missing := missingIndices(indices, session.TotalChunks); len(missing) > 0 {
		return nil, httpErrors.NewIncompleteUploadError(missing)
	}

	finalHash := input.FinalHash
	if finalHash == "" {
		finalHash = session.FinalHash
	}
	assembledKey, _, err := u.assembler.Assemble(ctx, u.cfg.S3.UploadBucket, session, chunks, finalHash)
	if err != nil {
		var restErr httpErrors.RestErr
		if errors.As(err, &restErr) && restErr.Code() == httpErrors.CodeIntegrityError {
			if stErr := u.uploadRepo.UpdateSessionStatus(ctx, sessionID, models.SessionStatusFailed); stErr != nil {
				u.logger.Errorf("Finalize - failed to fail session %s: %v", sessionID, stErr)
			}
			u.purgeChunks(ctx, session)
		}
		return nil, err
	}

	job := &models.ProcessingJob{
		JobID:        uuid.New(),
		SessionID:    session.SessionID,
		InputBucket:  u.cfg.S3.UploadBucket,
		InputKey:     assembledKey,
		OutputBucket: u.cfg.S3.OutputBucket,
		Options:      session.Options,
		Status:       models.JobStatusPending,
	}
	// The job must be durably queued before the client sees success;
	// completion is recorded only afterwards.
	job, err = u.jobService.Submit(ctx, job)
	if err != nil {
		u.logger.Errorf("Finalize - Submit error: %v", err)
		return nil, err
	}
	if err := u.uploadRepo.UpdateSessionStatus(ctx, sessionID, models.SessionStatusCompleted); err != nil {
		return nil, err
	}
	if err := u.uploadRepo.SetSessionJob(ctx, sessionID, job.JobID); err != nil {
		return nil, err
	}

	// Chunks are no longer needed once the assembled object exists.
	u.purgeChunks(ctx, session)
	u.logger.Infof("Finalized session %s, queued job %s", sessionID, job.JobID)
	return job, nil
}

func (u *uploadUC) Cancel(ctx context.Context, sessionID uuid.UUID) (*models.UploadStatus, error) {
	u.locks.Lock(sessionID)
	defer u.locks.Unlock(sessionID)

	session, err := u.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	// Cancelling an already-terminal or handed-off session is a no-op.
	if session.Status != models.SessionStatusUploading {
		return &models.UploadStatus{
			SessionID:   session.SessionID,
			Status:      session.Status,
			TotalChunks: session.TotalChunks,
			JobID:       session.JobID,
		}, nil
	}
	if err := u.uploadRepo.UpdateSessionStatus(ctx, sessionID, models.SessionStatusCancelled); err != nil {
		return nil, err
	}
	u.purgeChunks(ctx, session)
	u.logger.Infof("Cancelled upload session %s", sessionID)
	return &models.UploadStatus{
		SessionID:   session.SessionID,
		Status:      models.SessionStatusCancelled,
		TotalChunks: session.TotalChunks,
	}, nil
}

// ExpireStaleSessions fails uploads with no activity past the configured TTL
// and reclaims their chunks, bounding storage used by abandoned uploads.
func (u *uploadUC) ExpireStaleSessions(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-u.cfg.Upload.SessionTTL)
	stale, err := u.uploadRepo.GetStaleSessions(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	expired := 0
	for _, session := range stale {
		u.locks.Lock(session.SessionID)
		if err := u.uploadRepo.UpdateSessionStatus(ctx, session.SessionID, models.SessionStatusFailed); err != nil {
			u.logger.Errorf("ExpireStaleSessions - failed to expire %s: %v", session.SessionID, err)
			u.locks.Unlock(session.SessionID)
			continue
		}
		u.purgeChunks(ctx, session)
		u.locks.Unlock(session.SessionID)
		expired++
		u.logger.Infof("Expired inactive upload session %s", session.SessionID)
	}
	return expired, nil
}

func (u *uploadUC) getSession(ctx context.Context, sessionID uuid.UUID) (*models.UploadSession, error) {
	session, err := u.uploadRepo.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, httpErrors.NewSessionNotFoundError(sessionID.String())
		}
		u.logger.Errorf("getSession - GetSession error: %v", err)
		return nil, err
	}
	return session, nil
}

func (u *uploadUC) purgeChunks(ctx context.Context, session *models.UploadSession) {
	if err := u.awsRepo.RemovePrefix(ctx, u.cfg.S3.UploadBucket, chunkPrefix(session.SessionID)); err != nil {
		u.logger.Warnf("failed to remove chunk objects for session %s: %v", session.SessionID, err)
	}
	if err := u.uploadRepo.DeleteChunks(ctx, session.SessionID); err != nil {
		u.logger.Warnf("failed to delete chunk records for session %s: %v", session.SessionID, err)
	}
}

func percentage(received, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(received) / float64(total) * 100
}

func containsIndex(indices []int, index int) bool {
	for _, i := range indices {
		if i == index {
			return true
		}
	}
	return false
}

func missingIndices(received []int, total int) []int {
	present := make(map[int]bool, len(received))
	for _, i := range received {
		present[i] = true
	}
	missing := make([]int, 0)
	for i := 0; i < total; i++ {
		if !present[i] {
			missing = append(missing, i)
		}
	}
	return missing
}
