package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/streamhive/video-ingest/internal/config"
	"github.com/streamhive/video-ingest/internal/jobs"
	"github.com/streamhive/video-ingest/internal/upload"
	"github.com/streamhive/video-ingest/pkg/logger"
)

const (
	maxHeaderBytes = 1 << 20
	ctxTimeout     = 5 * time.Second

	// Completed and failed jobs older than this are purged by the sweeper.
	jobRetention = 30 * 24 * time.Hour
)

type Server struct {
	echo        *echo.Echo
	cfg         *config.Config
	db          *sqlx.DB
	redisClient *redis.Client
	s3Client    *s3.Client
	logger      logger.Logger

	// Populated by MapHandlers, used by the background sweeper.
	uploadUC upload.UseCase
	jobRepo  jobs.Repository
}

func NewServer(cfg *config.Config, db *sqlx.DB, redisClient *redis.Client, s3Client *s3.Client, logger logger.Logger) *Server {
	return &Server{
		echo:        echo.New(),
		cfg:         cfg,
		db:          db,
		redisClient: redisClient,
		s3Client:    s3Client,
		logger:      logger,
	}
}

func (s *Server) Run() error {
	if err := s.MapHandlers(s.echo); err != nil {
		return err
	}
	s.echo.Server.MaxHeaderBytes = maxHeaderBytes
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:       300,
	}))

	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	go s.runSweeper(sweepCtx)

	go func() {
		s.logger.Infof("server listening on %s", s.cfg.Server.Port)
		if err := s.echo.Start(s.cfg.Server.Port); err != nil && err != http.ErrServerClosed {
			s.logger.Fatal("error starting server: ", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, os.Interrupt)
	<-quit

	stopSweeper()
	ctx, shutdown := context.WithTimeout(context.Background(), ctxTimeout)
	defer shutdown()
	s.logger.Infof("shutting down server")
	return s.echo.Shutdown(ctx)
}

// runSweeper periodically fails stale upload sessions and purges old
// terminal jobs.
func (s *Server) runSweeper(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Upload.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			expired, err := s.uploadUC.ExpireStaleSessions(ctx)
			if err != nil {
				s.logger.Errorf("session sweep failed: %v", err)
			} else if expired > 0 {
				s.logger.Infof("expired %d stale upload sessions", expired)
			}
			purged, err := s.jobRepo.PurgeOldJobs(ctx, time.Now().Add(-jobRetention))
			if err != nil {
				s.logger.Errorf("job purge failed: %v", err)
			} else if purged > 0 {
				s.logger.Infof("purged %d old jobs", purged)
			}
		}
	}
}
