package jobs

import "github.com/labstack/echo/v4"

type Handler interface {
	GetJob() echo.HandlerFunc
	GetJobProgress() echo.HandlerFunc
	ListJobs() echo.HandlerFunc
}
