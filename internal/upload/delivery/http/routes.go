package http

import (
	"github.com/labstack/echo/v4"
	"github.com/streamhive/video-ingest/internal/upload"
)

func MapUploadRoutes(uploadGroup *echo.Group, h upload.Handler) {
	uploadGroup.POST("/initiate", h.InitiateUpload())
	uploadGroup.POST("/chunk/:session_id", h.UploadChunk())
	uploadGroup.POST("/chunk/:session_id/retry", h.RetryChunk())
	uploadGroup.POST("/complete/:session_id", h.CompleteUpload())
	uploadGroup.GET("/status/:session_id", h.GetUploadStatus())
	uploadGroup.POST("/cancel/:session_id", h.CancelUpload())
}
