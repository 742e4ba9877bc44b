// Package server exposes the analysis job and review queues over HTTP.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/brandlens/brandlens/internal/metrics"
	"github.com/brandlens/brandlens/internal/notify"
	"github.com/brandlens/brandlens/internal/queue"
)

// Pipeline starts background analysis for a job.
type Pipeline interface {
	Start(ctx context.Context, jobID string)
}

// Server handles HTTP and websocket requests for job and review management.
type Server struct {
	jobs      *queue.JobQueue
	reviews   *queue.ReviewQueue
	pipeline  Pipeline
	hub       *notify.Hub
	collector *metrics.Collector
	logger    *slog.Logger
	upgrader  websocket.Upgrader
}

// New creates a server over the given queues and pipeline.
func New(jobs *queue.JobQueue, reviews *queue.ReviewQueue, pipeline Pipeline, hub *notify.Hub, collector *metrics.Collector, logger *slog.Logger) *Server {
	return &Server{
		jobs:      jobs,
		reviews:   reviews,
		pipeline:  pipeline,
		hub:       hub,
		collector: collector,
		logger:    logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(s.logger))

	api := router.Group("/api")
	{
		api.POST("/analyze", s.handleAnalyze)
		api.GET("/jobs", s.handleListJobs)
		api.GET("/jobs/:id", s.handleGetJob)
		api.GET("/jobs/:id/reviews", s.handleJobReviews)
		api.GET("/reviews/pending", s.handlePendingReviews)
		api.GET("/reviews/:id", s.handleGetReview)
		api.POST("/reviews/:id/approve", s.handleApproveReview)
		api.POST("/reviews/:id/reject", s.handleRejectReview)
		api.GET("/queue/stats", s.handleQueueStats)
		api.GET("/metrics", s.handleMetrics)
	}
	router.GET("/ws", s.handleWebsocket)

	return router
}

// Run starts the HTTP server and blocks.
func (s *Server) Run(addr string) error {
	s.logger.Info("starting server", "addr", addr)
	return s.Router().Run(addr)
}

type analyzeRequest struct {
	WebsiteURL string `json:"websiteUrl" binding:"required,url"`
	UserID     string `json:"userId" binding:"required"`
	BrandID    string `json:"brandId"`
}

// handleAnalyze creates a job, attaches the websocket bridge and kicks off
// the background pipeline.
func (s *Server) handleAnalyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	job := s.jobs.Create(req.UserID, req.WebsiteURL, req.BrandID)
	notify.BridgeJob(s.jobs, s.hub, job.ID)
	s.pipeline.Start(context.Background(), job.ID)

	c.JSON(http.StatusAccepted, job)
}

func (s *Server) handleGetJob(c *gin.Context) {
	job := s.jobs.Get(c.Param("id"))
	if job == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	c.JSON(http.StatusOK, job)
}

func (s *Server) handleListJobs(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}
	jobs := s.jobs.GetUserJobs(userID)
	if jobs == nil {
		jobs = []queue.Job{}
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

func (s *Server) handleJobReviews(c *gin.Context) {
	reviews := s.reviews.GetJobReviews(c.Param("id"))
	if reviews == nil {
		reviews = []queue.ExtractionReview{}
	}

	pending := false
	for _, r := range reviews {
		if r.Status == queue.ReviewStatusPending {
			pending = true
			break
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"jobId":         c.Param("id"),
		"reviews":       reviews,
		"hasAnyPending": pending,
	})
}

func (s *Server) handlePendingReviews(c *gin.Context) {
	reviews := s.reviews.GetPendingReviews()
	if reviews == nil {
		reviews = []queue.ExtractionReview{}
	}
	c.JSON(http.StatusOK, gin.H{"reviews": reviews})
}

func (s *Server) handleGetReview(c *gin.Context) {
	review := s.reviews.Get(c.Param("id"))
	if review == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "review not found"})
		return
	}
	c.JSON(http.StatusOK, review)
}

func (s *Server) handleApproveReview(c *gin.Context) {
	var req queue.ApproveReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	review := s.reviews.Approve(c.Param("id"), req)
	if review == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "review not found"})
		return
	}
	c.JSON(http.StatusOK, review)
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) handleRejectReview(c *gin.Context) {
	var req rejectRequest
	// A body is optional on reject.
	_ = c.ShouldBindJSON(&req)

	review := s.reviews.Reject(c.Param("id"), req.Reason)
	if review == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "review not found"})
		return
	}
	c.JSON(http.StatusOK, review)
}

func (s *Server) handleQueueStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"jobs":    s.jobs.Stats(),
		"reviews": s.reviews.Stats(),
	})
}

func (s *Server) handleMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, s.collector.Snapshot())
}

// handleWebsocket upgrades the connection and keeps it registered with the
// hub until the client goes away.
func (s *Server) handleWebsocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	s.hub.RegisterClient(conn)

	// Drain the connection; clients only listen.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.hub.UnregisterClient(conn)
				return
			}
		}
	}()
}
