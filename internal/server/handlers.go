package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dsifab/fabsched/internal/common"
	"github.com/dsifab/fabsched/internal/entity"
	"github.com/dsifab/fabsched/internal/progress"
)

type scheduleRequest struct {
	Jobs  []*entity.Job `json:"jobs"`
	Today string        `json:"today,omitempty"`
}

type feasibilityRequest struct {
	Quote      *entity.QuoteRequest `json:"quote"`
	TargetDate string               `json:"target_date,omitempty"`
}

type progressRequest struct {
	Jobs  []*entity.Job `json:"jobs"`
	Today string        `json:"today,omitempty"`
}

func (s *Server) handleHealth(c *gin.Context) {
	if err := s.store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleSchedule runs a full scheduling pass: committed jobs are replayed from
// the store, the posted jobs are placed around them, and the combined result
// is persisted.
func (s *Server) handleSchedule(c *gin.Context) {
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	today, err := parseDay(req.Today)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	committed, err := s.store.LoadCommittedJobs(c.Request.Context())
	if err != nil {
		s.logger.Error("load committed jobs failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load committed jobs failed"})
		return
	}

	result := s.sched.ScheduleAll(req.Jobs, committed, today)

	if err := s.store.SaveScheduledJobs(c.Request.Context(), result.Jobs); err != nil {
		s.logger.Error("save scheduled jobs failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save scheduled jobs failed"})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleFeasibility(c *gin.Context) {
	var req feasibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Quote == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	target := req.Quote.TargetDate
	if req.TargetDate != "" {
		t, err := parseDay(req.TargetDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		target = t
	}

	committed, err := s.store.LoadCommittedJobs(c.Request.Context())
	if err != nil {
		s.logger.Error("load committed jobs failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load committed jobs failed"})
		return
	}

	report, err := s.analyzer.CheckFeasibility(req.Quote, committed, target)
	if err != nil {
		if errors.Is(err, common.ErrInvalidInput) || errors.Is(err, common.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		s.logger.Error("feasibility check failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "feasibility check failed"})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) handleQuoteSimulate(c *gin.Context) {
	var req feasibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Quote == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	committed, err := s.store.LoadCommittedJobs(c.Request.Context())
	if err != nil {
		s.logger.Error("load committed jobs failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load committed jobs failed"})
		return
	}

	estimate, err := s.analyzer.SimulateQuoteSchedule(req.Quote, committed)
	if err != nil {
		if errors.Is(err, common.ErrInvalidInput) || errors.Is(err, common.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		s.logger.Error("quote simulation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "quote simulation failed"})
		return
	}
	c.JSON(http.StatusOK, estimate)
}

// handleProgress reconciles shop-floor state against persisted schedules.
// Jobs whose tracking flags them for rescheduling are re-placed in the same
// request so the stored schedule never goes stale.
func (s *Server) handleProgress(c *gin.Context) {
	var req progressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	today, err := parseDay(req.Today)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	committed, err := s.store.LoadCommittedJobs(c.Request.Context())
	if err != nil {
		s.logger.Error("load committed jobs failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load committed jobs failed"})
		return
	}
	byNumber := make(map[string]*entity.Job, len(committed))
	for _, j := range committed {
		byNumber[j.JobNumber] = j
	}

	var needReschedule []*entity.Job
	var stable []*entity.Job
	tracked := make([]*entity.Job, 0, len(req.Jobs))
	seen := make(map[string]bool, len(req.Jobs))
	for _, in := range req.Jobs {
		t := progress.Track(in, byNumber[in.JobNumber], today)
		tracked = append(tracked, t)
		seen[in.JobNumber] = true
		if t.NeedsReschedule {
			needReschedule = append(needReschedule, t)
		} else {
			stable = append(stable, t)
		}
	}
	for _, j := range committed {
		if !seen[j.JobNumber] {
			stable = append(stable, j)
		}
	}

	if len(needReschedule) > 0 {
		result := s.sched.ScheduleAll(needReschedule, stable, today)
		if err := s.store.SaveScheduledJobs(c.Request.Context(), result.Jobs); err != nil {
			s.logger.Error("save rescheduled jobs failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "save rescheduled jobs failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"jobs": tracked, "rescheduled": result})
		return
	}

	if err := s.store.SaveScheduledJobs(c.Request.Context(), tracked); err != nil {
		s.logger.Error("save tracked jobs failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save tracked jobs failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": tracked})
}

func (s *Server) handleBuffer(c *gin.Context) {
	asOf, err := parseDay(c.Query("as_of"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	committed, err := s.store.LoadCommittedJobs(c.Request.Context())
	if err != nil {
		s.logger.Error("load committed jobs failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load committed jobs failed"})
		return
	}
	buffer := s.sched.QueueBufferDays(committed, asOf)
	c.JSON(http.StatusOK, gin.H{"as_of": asOf.Format("2006-01-02"), "buffer_days": buffer})
}

func (s *Server) handleGetJob(c *gin.Context) {
	j, err := s.store.GetJob(c.Request.Context(), c.Param("job_number"))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		s.logger.Error("get job failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get job failed"})
		return
	}
	c.JSON(http.StatusOK, j)
}

func (s *Server) handleCompleteJob(c *gin.Context) {
	if err := s.store.MarkCompleted(c.Request.Context(), c.Param("job_number")); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		s.logger.Error("mark completed failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "mark completed failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "completed"})
}

func (s *Server) handleExportSchedule(c *gin.Context) {
	committed, err := s.store.LoadCommittedJobs(c.Request.Context())
	if err != nil {
		s.logger.Error("load committed jobs failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load committed jobs failed"})
		return
	}
	data, err := s.exporter.ExportScheduleXLSX(committed)
	if err != nil {
		s.logger.Error("export schedule failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export schedule failed"})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="schedule.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// parseDay parses an optional YYYY-MM-DD value, defaulting to the current day.
func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, errors.New("invalid date " + s + ": want YYYY-MM-DD")
	}
	return t, nil
}
