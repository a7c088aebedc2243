package upload

import "github.com/labstack/echo/v4"

type Handler interface {
	InitiateUpload() echo.HandlerFunc
	UploadChunk() echo.HandlerFunc
	RetryChunk() echo.HandlerFunc
	CompleteUpload() echo.HandlerFunc
	GetUploadStatus() echo.HandlerFunc
	CancelUpload() echo.HandlerFunc
}
