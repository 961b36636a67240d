// Package server exposes the scheduling engine over HTTP.
package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dsifab/fabsched/internal/common"
	"github.com/dsifab/fabsched/internal/export"
	"github.com/dsifab/fabsched/internal/feasibility"
	"github.com/dsifab/fabsched/internal/repository"
	"github.com/dsifab/fabsched/internal/scheduler"
)

type Server struct {
	cfg      common.ServerConfig
	store    repository.JobStore
	sched    *scheduler.Scheduler
	analyzer *feasibility.Analyzer
	exporter *export.Service
	logger   *zap.Logger

	httpSrv *http.Server
}

func New(cfg common.ServerConfig, store repository.JobStore, sched *scheduler.Scheduler, analyzer *feasibility.Analyzer, exporter *export.Service, logger *zap.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		store:    store,
		sched:    sched,
		analyzer: analyzer,
		exporter: exporter,
		logger:   logger,
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/healthz", s.handleHealth)

	v1 := engine.Group("/v1")
	{
		v1.POST("/schedule", s.handleSchedule)
		v1.POST("/feasibility", s.handleFeasibility)
		v1.POST("/quotes/simulate", s.handleQuoteSimulate)
		v1.POST("/progress", s.handleProgress)
		v1.GET("/buffer", s.handleBuffer)
		v1.GET("/jobs/:job_number", s.handleGetJob)
		v1.POST("/jobs/:job_number/complete", s.handleCompleteJob)
		v1.GET("/export/schedule", s.handleExportSchedule)
	}

	s.httpSrv = &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: engine,
	}
	return s
}

// Run blocks serving HTTP until the listener fails or Shutdown is called.
func (s *Server) Run() error {
	s.logger.Info("http server listening", zap.String("addr", s.cfg.HTTPAddr))
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}
