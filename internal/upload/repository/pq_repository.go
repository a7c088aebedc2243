package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/streamhive/video-ingest/internal/models"
	"github.com/streamhive/video-ingest/internal/upload"
)

type uploadRepo struct {
	db *sqlx.DB
}

func NewUploadRepo(db *sqlx.DB) upload.Repository {
	return &uploadRepo{
		db: db,
	}
}

func (r *uploadRepo) CreateSession(ctx context.Context, session *models.UploadSession) (*models.UploadSession, error) {
	created := &models.UploadSession{}
	if err := r.db.QueryRowxContext(
		ctx,
		createSessionQuery,
		session.SessionID,
		session.FileName,
		session.FileSize,
		session.MimeType,
		session.ChunkSize,
		session.TotalChunks,
		session.Status,
		session.FinalHash,
		session.Title,
		session.Options,
	).StructScan(created); err != nil {
		return nil, errors.Wrap(err, "failed to create upload session")
	}
	return created, nil
}

func (r *uploadRepo) GetSession(ctx context.Context, sessionID uuid.UUID) (*models.UploadSession, error) {
	session := &models.UploadSession{}
	if err := r.db.QueryRowxContext(
		ctx,
		getSessionQuery,
		sessionID,
	).StructScan(session); err != nil {
		return nil, errors.Wrap(err, "failed to get upload session")
	}
	return session, nil
}

func (r *uploadRepo) UpdateSessionStatus(ctx context.Context, sessionID uuid.UUID, status models.SessionStatus) error {
	if _, err := r.db.ExecContext(ctx, updateSessionStatusQuery, sessionID, status); err != nil {
		return errors.Wrap(err, "failed to update session status")
	}
	return nil
}

func (r *uploadRepo) SetSessionJob(ctx context.Context, sessionID, jobID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, setSessionJobQuery, sessionID, jobID); err != nil {
		return errors.Wrap(err, "failed to set session job")
	}
	return nil
}

func (r *uploadRepo) TouchSession(ctx context.Context, sessionID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, touchSessionQuery, sessionID); err != nil {
		return errors.Wrap(err, "failed to touch session")
	}
	return nil
}

func (r *uploadRepo) AddChunk(ctx context.Context, chunk *models.Chunk) (bool, error) {
	res, err := r.db.ExecContext(
		ctx,
		addChunkQuery,
		chunk.SessionID,
		chunk.ChunkIndex,
		chunk.ChunkSize,
		chunk.ChunkHash,
		chunk.S3Key,
	)
	if err != nil {
		return false, errors.Wrap(err, "failed to add chunk")
	}
	count, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "failed to read chunk insert result")
	}
	return count > 0, nil
}

func (r *uploadRepo) GetChunkIndices(ctx context.Context, sessionID uuid.UUID) ([]int, error) {
	indices := make([]int, 0)
	if err := r.db.SelectContext(ctx, &indices, getChunkIndicesQuery, sessionID); err != nil {
		return nil, errors.Wrap(err, "failed to get chunk indices")
	}
	return indices, nil
}

func (r *uploadRepo) GetChunks(ctx context.Context, sessionID uuid.UUID) ([]*models.Chunk, error) {
	rows, err := r.db.QueryxContext(ctx, getChunksQuery, sessionID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get chunks")
	}
	defer rows.Close()
	chunks := make([]*models.Chunk, 0)
	for rows.Next() {
		var chunk models.Chunk
		if err = rows.StructScan(&chunk); err != nil {
			return nil, errors.Wrap(err, "failed to scan chunk")
		}
		chunks = append(chunks, &chunk)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to scan chunks")
	}
	return chunks, nil
}

func (r *uploadRepo) DeleteChunks(ctx context.Context, sessionID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, deleteChunksQuery, sessionID); err != nil {
		return errors.Wrap(err, "failed to delete chunks")
	}
	return nil
}

func (r *uploadRepo) GetStaleSessions(ctx context.Context, cutoff time.Time) ([]*models.UploadSession, error) {
	rows, err := r.db.QueryxContext(ctx, getStaleSessionsQuery, cutoff)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get stale sessions")
	}
	defer rows.Close()
	sessions := make([]*models.UploadSession, 0)
	for rows.Next() {
		var session models.UploadSession
		if err = rows.StructScan(&session); err != nil {
			return nil, errors.Wrap(err, "failed to scan stale session")
		}
		sessions = append(sessions, &session)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to scan stale sessions")
	}
	return sessions, nil
}
