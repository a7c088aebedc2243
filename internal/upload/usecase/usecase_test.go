package usecase

import (
	"bytes"
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/streamhive/video-ingest/internal/config"
	"github.com/streamhive/video-ingest/internal/models"
	"github.com/streamhive/video-ingest/internal/upload"
	"github.com/streamhive/video-ingest/pkg/httpErrors"
	"github.com/streamhive/video-ingest/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Upload: config.UploadConfig{
			MaxFileSize:      10 << 30,
			MinChunkSize:     1 << 20,
			MaxChunkSize:     100 << 20,
			DefaultChunkSize: 5 << 20,
			SessionTTL:       24 * time.Hour,
		},
		S3: config.S3Config{
			UploadBucket: "uploads",
			OutputBucket: "outputs",
		},
	}
}

func testLogger() logger.Logger {
	l := logger.NewApiLogger(&config.Config{})
	l.InitLogger()
	return l
}

type fakeUploadRepo struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*models.UploadSession
	chunks   map[uuid.UUID]map[int]*models.Chunk
}

func newFakeUploadRepo() *fakeUploadRepo {
	return &fakeUploadRepo{
		sessions: make(map[uuid.UUID]*models.UploadSession),
		chunks:   make(map[uuid.UUID]map[int]*models.Chunk),
	}
}

func (r *fakeUploadRepo) CreateSession(ctx context.Context, session *models.UploadSession) (*models.UploadSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session.CreatedAt = time.Now()
	session.LastActivityAt = session.CreatedAt
	copied := *session
	r.sessions[session.SessionID] = &copied
	return session, nil
}

func (r *fakeUploadRepo) GetSession(ctx context.Context, sessionID uuid.UUID) (*models.UploadSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[sessionID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *session
	return &copied, nil
}

func (r *fakeUploadRepo) UpdateSessionStatus(ctx context.Context, sessionID uuid.UUID, status models.SessionStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[sessionID]
	if !ok {
		return sql.ErrNoRows
	}
	session.Status = status
	return nil
}

func (r *fakeUploadRepo) SetSessionJob(ctx context.Context, sessionID, jobID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[sessionID]
	if !ok {
		return sql.ErrNoRows
	}
	id := jobID
	session.JobID = &id
	return nil
}

func (r *fakeUploadRepo) TouchSession(ctx context.Context, sessionID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session, ok := r.sessions[sessionID]; ok {
		session.LastActivityAt = time.Now()
	}
	return nil
}

func (r *fakeUploadRepo) AddChunk(ctx context.Context, chunk *models.Chunk) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byIndex, ok := r.chunks[chunk.SessionID]
	if !ok {
		byIndex = make(map[int]*models.Chunk)
		r.chunks[chunk.SessionID] = byIndex
	}
	if _, exists := byIndex[chunk.ChunkIndex]; exists {
		return false, nil
	}
	copied := *chunk
	byIndex[chunk.ChunkIndex] = &copied
	return true, nil
}

func (r *fakeUploadRepo) GetChunkIndices(ctx context.Context, sessionID uuid.UUID) ([]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	indices := make([]int, 0, len(r.chunks[sessionID]))
	for i := range r.chunks[sessionID] {
		indices = append(indices, i)
	}
	sort.Ints(indices)
	return indices, nil
}

func (r *fakeUploadRepo) GetChunks(ctx context.Context, sessionID uuid.UUID) ([]*models.Chunk, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	chunks := make([]*models.Chunk, 0, len(r.chunks[sessionID]))
	for _, c := range r.chunks[sessionID] {
		copied := *c
		chunks = append(chunks, &copied)
	}
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].ChunkIndex < chunks[j].ChunkIndex })
	return chunks, nil
}

func (r *fakeUploadRepo) DeleteChunks(ctx context.Context, sessionID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.chunks, sessionID)
	return nil
}

func (r *fakeUploadRepo) GetStaleSessions(ctx context.Context, cutoff time.Time) ([]*models.UploadSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stale := make([]*models.UploadSession, 0)
	for _, session := range r.sessions {
		if session.Status == models.SessionStatusUploading && session.LastActivityAt.Before(cutoff) {
			copied := *session
			stale = append(stale, &copied)
		}
	}
	return stale, nil
}

type fakeAWSRepo struct {
	mu      sync.Mutex
	objects map[string][]byte
	puts    int
}

func newFakeAWSRepo() *fakeAWSRepo {
	return &fakeAWSRepo{objects: make(map[string][]byte)}
}

func objectKey(bucket, key string) string { return bucket + "/" + key }

func (r *fakeAWSRepo) PutObject(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.objects[objectKey(bucket, key)] = data
	r.puts++
	return nil
}

func (r *fakeAWSRepo) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	data, ok := r.objects[objectKey(bucket, key)]
	if !ok {
		return nil, fmt.Errorf("object %s not found", objectKey(bucket, key))
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (r *fakeAWSRepo) RemoveObject(ctx context.Context, bucket, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.objects, objectKey(bucket, key))
	return nil
}

func (r *fakeAWSRepo) RemovePrefix(ctx context.Context, bucket, prefix string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	full := objectKey(bucket, prefix)
	for k := range r.objects {
		if strings.HasPrefix(k, full) {
			delete(r.objects, k)
		}
	}
	return nil
}

type fakeJobService struct {
	mu        sync.Mutex
	jobs      map[uuid.UUID]*models.ProcessingJob
	submitted int
	submitErr error
}

func newFakeJobService() *fakeJobService {
	return &fakeJobService{jobs: make(map[uuid.UUID]*models.ProcessingJob)}
}

func (s *fakeJobService) Submit(ctx context.Context, job *models.ProcessingJob) (*models.ProcessingJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitErr != nil {
		return nil, s.submitErr
	}
	job.Status = models.JobStatusPending
	s.jobs[job.JobID] = job
	s.submitted++
	return job, nil
}

func (s *fakeJobService) GetJob(ctx context.Context, jobID uuid.UUID) (*models.ProcessingJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, httpErrors.NewJobNotFoundError(jobID.String())
	}
	return job, nil
}

type env struct {
	uc   upload.UseCase
	repo *fakeUploadRepo
	aws  *fakeAWSRepo
	jobs *fakeJobService
	cfg  *config.Config
}

func newEnv() *env {
	cfg := testConfig()
	repo := newFakeUploadRepo()
	aws := newFakeAWSRepo()
	jobSvc := newFakeJobService()
	return &env{
		uc:   NewUploadUseCase(cfg, repo, aws, jobSvc, testLogger()),
		repo: repo,
		aws:  aws,
		jobs: jobSvc,
		cfg:  cfg,
	}
}

func (e *env) initiate(t *testing.T, fileSize, chunkSize int64) *models.InitiateUploadResponse {
	t.Helper()
	resp, err := e.uc.Initiate(context.Background(), &models.InitiateUploadInput{
		FileName:  "movie.mp4",
		FileSize:  fileSize,
		FileType:  "video/mp4",
		ChunkSize: chunkSize,
	})
	require.NoError(t, err)
	return resp
}

func hexSum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func TestInitiate_DefaultsAndChunkCount(t *testing.T) {
	e := newEnv()
	resp, err := e.uc.Initiate(context.Background(), &models.InitiateUploadInput{
		FileName: "movie.mp4",
		FileSize: 12<<20 + 1,
		FileType: "video/mp4",
	})
	require.NoError(t, err)
	assert.Equal(t, e.cfg.Upload.DefaultChunkSize, resp.ChunkSize)
	assert.Equal(t, 3, resp.TotalChunks)

	session, err := e.repo.GetSession(context.Background(), resp.SessionID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusUploading, session.Status)
	assert.NotEmpty(t, session.Options.Qualities)
}

func TestInitiate_ClampsChunkSize(t *testing.T) {
	e := newEnv()
	resp := e.initiate(t, 10<<20, 1)
	assert.Equal(t, e.cfg.Upload.MinChunkSize, resp.ChunkSize)

	resp = e.initiate(t, 10<<30, 500<<20)
	assert.Equal(t, e.cfg.Upload.MaxChunkSize, resp.ChunkSize)
}

func TestInitiate_RejectsNonVideo(t *testing.T) {
	e := newEnv()
	_, err := e.uc.Initiate(context.Background(), &models.InitiateUploadInput{
		FileName: "notes.pdf",
		FileSize: 1 << 20,
		FileType: "application/pdf",
	})
	require.Error(t, err)
	assert.Equal(t, httpErrors.CodeInvalidArgument, httpErrors.ParseErrors(err).Code())
}

func TestInitiate_RejectsOversizedFile(t *testing.T) {
	e := newEnv()
	_, err := e.uc.Initiate(context.Background(), &models.InitiateUploadInput{
		FileName: "movie.mp4",
		FileSize: e.cfg.Upload.MaxFileSize + 1,
		FileType: "video/mp4",
	})
	require.Error(t, err)
	assert.Equal(t, httpErrors.CodeInvalidArgument, httpErrors.ParseErrors(err).Code())
}

func TestUploadChunk_RetryIsIdempotent(t *testing.T) {
	e := newEnv()
	resp := e.initiate(t, 2<<20, 1<<20)
	data := bytes.Repeat([]byte("a"), 1<<20)

	ack, err := e.uc.UploadChunk(context.Background(), resp.SessionID, 0, data, hexSum(data))
	require.NoError(t, err)
	assert.Equal(t, 1, ack.ReceivedChunks)

	// Same chunk again, as after a dropped acknowledgement.
	ack, err = e.uc.UploadChunk(context.Background(), resp.SessionID, 0, data, hexSum(data))
	require.NoError(t, err)
	assert.Equal(t, 1, ack.ReceivedChunks)
	assert.Equal(t, 1, e.aws.puts)
}

func TestRetryChunk_SharesUploadSemantics(t *testing.T) {
	e := newEnv()
	resp := e.initiate(t, 2<<20, 1<<20)
	data := bytes.Repeat([]byte("a"), 1<<20)

	ack, err := e.uc.UploadChunk(context.Background(), resp.SessionID, 0, data, hexSum(data))
	require.NoError(t, err)
	assert.Equal(t, 1, ack.ReceivedChunks)

	// Retrying an index that already landed acks without re-storing.
	ack, err = e.uc.RetryChunk(context.Background(), resp.SessionID, 0, data, hexSum(data))
	require.NoError(t, err)
	assert.Equal(t, 1, ack.ReceivedChunks)
	assert.Equal(t, 1, e.aws.puts)

	// Retrying a chunk that never arrived stores it as a first upload would.
	other := bytes.Repeat([]byte("b"), 1<<20)
	ack, err = e.uc.RetryChunk(context.Background(), resp.SessionID, 1, other, hexSum(other))
	require.NoError(t, err)
	assert.Equal(t, 2, ack.ReceivedChunks)
	assert.Equal(t, 2, e.aws.puts)
}

func TestUploadChunk_HashMismatch(t *testing.T) {
	e := newEnv()
	resp := e.initiate(t, 2<<20, 1<<20)
	data := bytes.Repeat([]byte("a"), 1<<20)

	_, err := e.uc.UploadChunk(context.Background(), resp.SessionID, 0, data, hexSum([]byte("other")))
	require.Error(t, err)
	assert.Equal(t, httpErrors.CodeIntegrityError, httpErrors.ParseErrors(err).Code())
	assert.Zero(t, e.aws.puts)
}

func TestUploadChunk_IndexOutOfRange(t *testing.T) {
	e := newEnv()
	resp := e.initiate(t, 2<<20, 1<<20)

	_, err := e.uc.UploadChunk(context.Background(), resp.SessionID, resp.TotalChunks, []byte("x"), "")
	require.Error(t, err)
	assert.Equal(t, httpErrors.CodeInvalidArgument, httpErrors.ParseErrors(err).Code())

	_, err = e.uc.UploadChunk(context.Background(), resp.SessionID, -1, []byte("x"), "")
	require.Error(t, err)
	assert.Equal(t, httpErrors.CodeInvalidArgument, httpErrors.ParseErrors(err).Code())
}

func TestUploadChunk_TerminalSessionRejected(t *testing.T) {
	e := newEnv()
	resp := e.initiate(t, 2<<20, 1<<20)
	_, err := e.uc.Cancel(context.Background(), resp.SessionID)
	require.NoError(t, err)

	_, err = e.uc.UploadChunk(context.Background(), resp.SessionID, 0, []byte("x"), "")
	require.Error(t, err)
	assert.Equal(t, httpErrors.CodeSessionTerminal, httpErrors.ParseErrors(err).Code())
}

func TestUploadChunk_SessionNotFound(t *testing.T) {
	e := newEnv()
	_, err := e.uc.UploadChunk(context.Background(), uuid.New(), 0, []byte("x"), "")
	require.Error(t, err)
	assert.Equal(t, httpErrors.CodeSessionNotFound, httpErrors.ParseErrors(err).Code())
}

func TestFinalize_ReportsExactMissingIndices(t *testing.T) {
	e := newEnv()
	resp := e.initiate(t, 4<<20, 1<<20)
	chunk := bytes.Repeat([]byte("b"), 1<<20)
	for _, i := range []int{0, 2} {
		_, err := e.uc.UploadChunk(context.Background(), resp.SessionID, i, chunk, "")
		require.NoError(t, err)
	}

	_, err := e.uc.Finalize(context.Background(), resp.SessionID, &models.CompleteUploadInput{TotalChunks: resp.TotalChunks})
	require.Error(t, err)
	restErr := httpErrors.ParseErrors(err)
	assert.Equal(t, httpErrors.CodeIncompleteUpload, restErr.Code())
	assert.Equal(t, []int{1, 3}, restErr.Causes())
}

func TestFinalize_AssemblesAndQueuesJob(t *testing.T) {
	e := newEnv()
	resp := e.initiate(t, 3<<20, 1<<20)

	var full []byte
	for i := 0; i < resp.TotalChunks; i++ {
		chunk := bytes.Repeat([]byte{byte('a' + i)}, 1<<20)
		full = append(full, chunk...)
		_, err := e.uc.UploadChunk(context.Background(), resp.SessionID, i, chunk, hexSum(chunk))
		require.NoError(t, err)
	}

	job, err := e.uc.Finalize(context.Background(), resp.SessionID, &models.CompleteUploadInput{
		TotalChunks: resp.TotalChunks,
		FinalHash:   hexSum(full),
	})
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, models.JobStatusPending, job.Status)
	assert.Equal(t, 1, e.jobs.submitted)

	session, err := e.repo.GetSession(context.Background(), resp.SessionID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusCompleted, session.Status)
	require.NotNil(t, session.JobID)
	assert.Equal(t, job.JobID, *session.JobID)

	// Assembled bytes are the chunks in index order.
	body, err := e.aws.GetObject(context.Background(), "uploads", job.InputKey)
	require.NoError(t, err)
	assembled, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, full, assembled)

	// Staged chunks are reclaimed after assembly.
	indices, err := e.repo.GetChunkIndices(context.Background(), resp.SessionID)
	require.NoError(t, err)
	assert.Empty(t, indices)
}

func TestFinalize_OutOfOrderChunksAssembleInIndexOrder(t *testing.T) {
	e := newEnv()
	resp := e.initiate(t, 3<<20, 1<<20)

	chunks := make([][]byte, resp.TotalChunks)
	for i := range chunks {
		chunks[i] = bytes.Repeat([]byte{byte('a' + i)}, 1<<20)
	}
	// Arrival order differs from index order.
	for _, i := range []int{1, 0, 2} {
		_, err := e.uc.UploadChunk(context.Background(), resp.SessionID, i, chunks[i], hexSum(chunks[i]))
		require.NoError(t, err)
	}

	job, err := e.uc.Finalize(context.Background(), resp.SessionID, &models.CompleteUploadInput{TotalChunks: resp.TotalChunks})
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusPending, job.Status)
	assert.Equal(t, 1, e.jobs.submitted)

	body, err := e.aws.GetObject(context.Background(), "uploads", job.InputKey)
	require.NoError(t, err)
	assembled, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, bytes.Join(chunks, nil), assembled)
}

func TestGetStatus_IncludesProcessingAfterFinalize(t *testing.T) {
	e := newEnv()
	resp := e.initiate(t, 1<<20, 1<<20)
	chunk := bytes.Repeat([]byte("g"), 1<<20)
	_, err := e.uc.UploadChunk(context.Background(), resp.SessionID, 0, chunk, "")
	require.NoError(t, err)

	job, err := e.uc.Finalize(context.Background(), resp.SessionID, &models.CompleteUploadInput{TotalChunks: 1})
	require.NoError(t, err)

	status, err := e.uc.GetStatus(context.Background(), resp.SessionID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusCompleted, status.Status)
	require.NotNil(t, status.JobID)
	assert.Equal(t, job.JobID, *status.JobID)
	require.NotNil(t, status.Processing)
	assert.Equal(t, job.JobID, status.Processing.JobID)
	assert.Equal(t, models.JobStatusPending, status.Processing.Status)
}

func TestFinalize_RetryReturnsSameJob(t *testing.T) {
	e := newEnv()
	resp := e.initiate(t, 1<<20, 1<<20)
	chunk := bytes.Repeat([]byte("c"), 1<<20)
	_, err := e.uc.UploadChunk(context.Background(), resp.SessionID, 0, chunk, "")
	require.NoError(t, err)

	input := &models.CompleteUploadInput{TotalChunks: 1}
	first, err := e.uc.Finalize(context.Background(), resp.SessionID, input)
	require.NoError(t, err)
	second, err := e.uc.Finalize(context.Background(), resp.SessionID, input)
	require.NoError(t, err)
	assert.Equal(t, first.JobID, second.JobID)
	assert.Equal(t, 1, e.jobs.submitted)
}

func TestFinalize_UsesHashDeclaredAtInitiate(t *testing.T) {
	e := newEnv()
	chunk := bytes.Repeat([]byte("h"), 1<<20)
	resp, err := e.uc.Initiate(context.Background(), &models.InitiateUploadInput{
		FileName:  "movie.mp4",
		FileSize:  1 << 20,
		FileType:  "video/mp4",
		ChunkSize: 1 << 20,
		FinalHash: hexSum(chunk),
	})
	require.NoError(t, err)
	_, err = e.uc.UploadChunk(context.Background(), resp.SessionID, 0, chunk, "")
	require.NoError(t, err)

	// No hash in the finalize request; the one declared up front is used.
	job, err := e.uc.Finalize(context.Background(), resp.SessionID, &models.CompleteUploadInput{TotalChunks: 1})
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusPending, job.Status)
}

func TestFinalize_InitiateHashMismatchFailsSession(t *testing.T) {
	e := newEnv()
	resp, err := e.uc.Initiate(context.Background(), &models.InitiateUploadInput{
		FileName:  "movie.mp4",
		FileSize:  1 << 20,
		FileType:  "video/mp4",
		ChunkSize: 1 << 20,
		FinalHash: hexSum([]byte("declared for different content")),
	})
	require.NoError(t, err)
	chunk := bytes.Repeat([]byte("i"), 1<<20)
	_, err = e.uc.UploadChunk(context.Background(), resp.SessionID, 0, chunk, "")
	require.NoError(t, err)

	_, err = e.uc.Finalize(context.Background(), resp.SessionID, &models.CompleteUploadInput{TotalChunks: 1})
	require.Error(t, err)
	assert.Equal(t, httpErrors.CodeIntegrityError, httpErrors.ParseErrors(err).Code())

	session, err := e.repo.GetSession(context.Background(), resp.SessionID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusFailed, session.Status)
	assert.Zero(t, e.jobs.submitted)
}

func TestFinalize_HashMismatchFailsSession(t *testing.T) {
	e := newEnv()
	resp := e.initiate(t, 1<<20, 1<<20)
	chunk := bytes.Repeat([]byte("d"), 1<<20)
	_, err := e.uc.UploadChunk(context.Background(), resp.SessionID, 0, chunk, "")
	require.NoError(t, err)

	_, err = e.uc.Finalize(context.Background(), resp.SessionID, &models.CompleteUploadInput{
		TotalChunks: 1,
		FinalHash:   hexSum([]byte("not the real content")),
	})
	require.Error(t, err)
	assert.Equal(t, httpErrors.CodeIntegrityError, httpErrors.ParseErrors(err).Code())

	session, err := e.repo.GetSession(context.Background(), resp.SessionID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusFailed, session.Status)
	assert.Zero(t, e.jobs.submitted)
}

func TestFinalize_DeclaredTotalMismatch(t *testing.T) {
	e := newEnv()
	resp := e.initiate(t, 2<<20, 1<<20)
	_, err := e.uc.Finalize(context.Background(), resp.SessionID, &models.CompleteUploadInput{TotalChunks: resp.TotalChunks + 1})
	require.Error(t, err)
	assert.Equal(t, httpErrors.CodeInvalidArgument, httpErrors.ParseErrors(err).Code())
}

func TestCancel_SecondCallIsNoop(t *testing.T) {
	e := newEnv()
	resp := e.initiate(t, 2<<20, 1<<20)
	chunk := bytes.Repeat([]byte("e"), 1<<20)
	_, err := e.uc.UploadChunk(context.Background(), resp.SessionID, 0, chunk, "")
	require.NoError(t, err)

	status, err := e.uc.Cancel(context.Background(), resp.SessionID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusCancelled, status.Status)

	status, err = e.uc.Cancel(context.Background(), resp.SessionID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusCancelled, status.Status)

	// Chunk storage is reclaimed on cancel.
	indices, err := e.repo.GetChunkIndices(context.Background(), resp.SessionID)
	require.NoError(t, err)
	assert.Empty(t, indices)
}

func TestGetStatus_ReportsProgressAndMissing(t *testing.T) {
	e := newEnv()
	resp := e.initiate(t, 4<<20, 1<<20)
	chunk := bytes.Repeat([]byte("f"), 1<<20)
	for _, i := range []int{0, 3} {
		_, err := e.uc.UploadChunk(context.Background(), resp.SessionID, i, chunk, "")
		require.NoError(t, err)
	}

	status, err := e.uc.GetStatus(context.Background(), resp.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 2, status.ReceivedChunks)
	assert.Equal(t, 4, status.TotalChunks)
	assert.Equal(t, 50.0, status.Percentage)
	assert.Equal(t, []int{1, 2}, status.MissingIndices)
	assert.Nil(t, status.Processing)
}

func TestExpireStaleSessions(t *testing.T) {
	e := newEnv()
	resp := e.initiate(t, 1<<20, 1<<20)

	// Age the session past the TTL.
	e.repo.mu.Lock()
	e.repo.sessions[resp.SessionID].LastActivityAt = time.Now().Add(-48 * time.Hour)
	e.repo.mu.Unlock()

	expired, err := e.uc.ExpireStaleSessions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	session, err := e.repo.GetSession(context.Background(), resp.SessionID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusFailed, session.Status)

	_, err = e.uc.UploadChunk(context.Background(), resp.SessionID, 0, []byte("x"), "")
	require.Error(t, err)
	assert.Equal(t, httpErrors.CodeSessionTerminal, httpErrors.ParseErrors(err).Code())
}
