// Package httpapi is the thin JSON-over-HTTP facade of spec §6.1, built on
// github.com/gin-gonic/gin (the pack's established JSON-API choice — the
// teacher itself ships no HTTP layer). It exposes exactly the five
// endpoints the spec names and nothing else: no auth, no rendering.
package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/marcusreed/propforge/job"
	"github.com/marcusreed/propforge/model"
)

// Version is reported by GET /health.
const Version = "0.1.0"

// Server wraps a job.Facade with a gin.Engine implementing spec §6.1.
type Server struct {
	facade *job.Facade
	engine *gin.Engine
}

// New builds a Server. engine may be nil to get a gin.Default() engine.
func New(facade *job.Facade, engine *gin.Engine) *Server {
	if engine == nil {
		engine = gin.Default()
	}
	s := &Server{facade: facade, engine: engine}
	s.routes()
	return s
}

// Engine exposes the underlying gin.Engine, e.g. for http.ListenAndServe.
func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) routes() {
	s.engine.POST("/proposals", s.createProposal)
	s.engine.GET("/proposals/:request_id", s.getProposal)
	s.engine.GET("/health", s.health)
	s.engine.GET("/agents", s.agents)
	s.engine.GET("/status", s.status)
}

type createProposalResponse struct {
	RequestID model.JobID `json:"request_id"`
	Topic     string      `json:"topic"`
	Status    string      `json:"status"`
}

func (s *Server) createProposal(c *gin.Context) {
	var req model.ProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	jobID, err := s.facade.Start(&req)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, createProposalResponse{RequestID: jobID, Topic: req.Topic, Status: "in_progress"})
}

func (s *Server) getProposal(c *gin.Context) {
	id := model.JobID(c.Param("request_id"))
	record, ok := s.facade.Status(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown request_id"})
		return
	}

	if record.Status != job.StatusCompleted {
		c.JSON(http.StatusOK, gin.H{
			"request_id":  record.JobID,
			"status":      record.Status,
			"error":       record.Err,
			"failed_kind": record.FailedKind,
		})
		return
	}
	c.JSON(http.StatusOK, record.Proposal)
}

func (s *Server) health(c *gin.Context) {
	status := "healthy"
	code := http.StatusOK
	if err := s.facade.Health(c.Request.Context()); err != nil {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":            status,
		"agents_registered": len(s.facade.Agents()),
		"version":           Version,
	})
}

func (s *Server) agents(c *gin.Context) {
	kinds := s.facade.Agents()
	c.JSON(http.StatusOK, gin.H{"count": len(kinds), "agents": kinds})
}

func (s *Server) status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":           "ready",
		"agents":           len(s.facade.Agents()),
		"active_workflows": s.facade.ActiveJobCount(),
	})
}
