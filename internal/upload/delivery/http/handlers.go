package http

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/streamhive/video-ingest/internal/models"
	"github.com/streamhive/video-ingest/internal/upload"
	"github.com/streamhive/video-ingest/pkg/httpErrors"
	"github.com/streamhive/video-ingest/pkg/logger"
)

type uploadHandler struct {
	uploadUC upload.UseCase
	logger   logger.Logger
}

func NewUploadHandler(uploadUC upload.UseCase, log logger.Logger) upload.Handler {
	return &uploadHandler{
		uploadUC: uploadUC,
		logger:   log,
	}
}

func (h *uploadHandler) InitiateUpload() echo.HandlerFunc {
	return func(c echo.Context) error {
		input := &models.InitiateUploadInput{}
		if err := c.Bind(input); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
		}
		resp, err := h.uploadUC.Initiate(c.Request().Context(), input)
		if err != nil {
			return c.JSON(httpErrors.ErrorResponse(err))
		}
		return c.JSON(http.StatusCreated, resp)
	}
}

// UploadChunk accepts the chunk bytes either as a multipart part named
// "chunk" or as the raw request body with index/hash in query params.
func (h *uploadHandler) UploadChunk() echo.HandlerFunc {
	return h.handleChunk(h.uploadUC.UploadChunk)
}

// RetryChunk is the resume endpoint: resubmitting an index that already
// landed acks without re-storing, so clients can blindly retry.
func (h *uploadHandler) RetryChunk() echo.HandlerFunc {
	return h.handleChunk(h.uploadUC.RetryChunk)
}

func (h *uploadHandler) handleChunk(submit func(ctx context.Context, sessionID uuid.UUID, index int, data []byte, chunkHash string) (*models.ChunkAck, error)) echo.HandlerFunc {
	return func(c echo.Context) error {
		sessionID, err := uuid.Parse(c.Param("session_id"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid session id"})
		}

		indexParam := c.FormValue("chunk_index")
		if indexParam == "" {
			indexParam = c.QueryParam("chunk_index")
		}
		index, err := strconv.Atoi(indexParam)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid chunk index"})
		}
		chunkHash := c.FormValue("chunk_hash")
		if chunkHash == "" {
			chunkHash = c.QueryParam("chunk_hash")
		}

		data, err := h.readChunkBytes(c)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Failed to read chunk data"})
		}

		ack, err := submit(c.Request().Context(), sessionID, index, data, chunkHash)
		if err != nil {
			return c.JSON(httpErrors.ErrorResponse(err))
		}
		return c.JSON(http.StatusOK, ack)
	}
}

func (h *uploadHandler) CompleteUpload() echo.HandlerFunc {
	return func(c echo.Context) error {
		sessionID, err := uuid.Parse(c.Param("session_id"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid session id"})
		}
		input := &models.CompleteUploadInput{}
		if err := c.Bind(input); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
		}
		job, err := h.uploadUC.Finalize(c.Request().Context(), sessionID, input)
		if err != nil {
			return c.JSON(httpErrors.ErrorResponse(err))
		}
		return c.JSON(http.StatusOK, map[string]string{"job_id": job.JobID.String()})
	}
}

func (h *uploadHandler) GetUploadStatus() echo.HandlerFunc {
	return func(c echo.Context) error {
		sessionID, err := uuid.Parse(c.Param("session_id"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid session id"})
		}
		status, err := h.uploadUC.GetStatus(c.Request().Context(), sessionID)
		if err != nil {
			return c.JSON(httpErrors.ErrorResponse(err))
		}
		return c.JSON(http.StatusOK, status)
	}
}

func (h *uploadHandler) CancelUpload() echo.HandlerFunc {
	return func(c echo.Context) error {
		sessionID, err := uuid.Parse(c.Param("session_id"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid session id"})
		}
		status, err := h.uploadUC.Cancel(c.Request().Context(), sessionID)
		if err != nil {
			return c.JSON(httpErrors.ErrorResponse(err))
		}
		return c.JSON(http.StatusOK, status)
	}
}

func (h *uploadHandler) readChunkBytes(c echo.Context) ([]byte, error) {
	if file, err := c.FormFile("chunk"); err == nil {
		src, err := file.Open()
		if err != nil {
			return nil, err
		}
		defer src.Close()
		return io.ReadAll(src)
	}
	defer c.Request().Body.Close()
	return io.ReadAll(c.Request().Body)
}
