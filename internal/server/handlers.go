package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	jobsHttp "github.com/streamhive/video-ingest/internal/jobs/delivery/http"
	jobsRepository "github.com/streamhive/video-ingest/internal/jobs/repository"
	jobsUsecase "github.com/streamhive/video-ingest/internal/jobs/usecase"
	uploadHttp "github.com/streamhive/video-ingest/internal/upload/delivery/http"
	uploadRepository "github.com/streamhive/video-ingest/internal/upload/repository"
	uploadUsecase "github.com/streamhive/video-ingest/internal/upload/usecase"
)

func (s *Server) MapHandlers(e *echo.Echo) error {
	uRepo := uploadRepository.NewUploadRepo(s.db)
	awsRepo := uploadRepository.NewAwsRepository(s.s3Client)
	jRepo := jobsRepository.NewJobRepo(s.db)
	jQueue := jobsRepository.NewJobQueue(s.redisClient, s.cfg)

	jobUC := jobsUsecase.NewJobUseCase(s.cfg, jRepo, jQueue, s.logger)
	uploadUC := uploadUsecase.NewUploadUseCase(s.cfg, uRepo, awsRepo, jobUC, s.logger)

	uploadHandlers := uploadHttp.NewUploadHandler(uploadUC, s.logger)
	jobHandlers := jobsHttp.NewJobHandler(jobUC)

	s.uploadUC = uploadUC
	s.jobRepo = jRepo

	v1 := e.Group("/api/v1")
	health := v1.Group("/health")
	uploadGroup := v1.Group("/upload")
	jobGroup := v1.Group("/jobs")

	uploadHttp.MapUploadRoutes(uploadGroup, uploadHandlers)
	jobsHttp.MapJobRoutes(jobGroup, jobHandlers)
	health.GET("", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "OK"})
	})
	return nil
}
