package http

import (
	"github.com/labstack/echo/v4"
	"github.com/streamhive/video-ingest/internal/jobs"
)

func MapJobRoutes(jobGroup *echo.Group, h jobs.Handler) {
	jobGroup.GET("", h.ListJobs())
	jobGroup.GET("/:job_id", h.GetJob())
	jobGroup.GET("/:job_id/progress", h.GetJobProgress())
}
