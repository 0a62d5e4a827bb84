// Package httpapi exposes the orchestrator over a small JSON control
// surface: system status, meetings, working-session lifecycle, campaigns and
// financial reports.
package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/boardroomhq/boardroom"
	"github.com/boardroomhq/boardroom/logging"
	"github.com/boardroomhq/boardroom/orchestrator"
)

// Options configure optional server collaborators.
type Options struct {
	Logger logging.Logger
}

// New builds the engine with logging, recovery and permissive CORS, and
// attaches the API routes.
func New(app *boardroom.App, optFns ...func(o *Options)) *gin.Engine {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	g := gin.New()
	g.Use(gin.Logger(), gin.Recovery(), cors.Default())
	attachRoutes(g, &handlers{app: app, logger: opts.Logger})
	return g
}

type handlers struct {
	app    *boardroom.App
	logger logging.Logger
}

func attachRoutes(g *gin.Engine, h *handlers) {
	api := g.Group("/api")
	api.GET("/status", h.status)
	api.POST("/meetings", h.runMeeting)
	api.POST("/sessions", h.startSession)
	api.POST("/sessions/run", h.runSession)
	api.DELETE("/sessions", h.stopSession)
	api.POST("/campaigns", h.runCampaign)
	api.POST("/reports/financial", h.runFinancialReport)
}

func (h *handlers) status(c *gin.Context) {
	c.JSON(http.StatusOK, h.app.Orchestrator.Status())
}

func (h *handlers) runMeeting(c *gin.Context) {
	var req struct {
		Agenda string `json:"agenda" binding:"required,min=1,max=2000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	meeting, err := h.app.Orchestrator.RunMeeting(c.Request.Context(), req.Agenda)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, meeting)
}

func (h *handlers) startSession(c *gin.Context) {
	var req struct {
		DurationMinutes int `json:"duration_minutes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	minutes := req.DurationMinutes
	if minutes == 0 {
		minutes = h.app.Config.SessionDurationMinutes
	}

	start := time.Now()
	session, err := h.app.Orchestrator.StartSession(c.Request.Context(), start, start.Add(time.Duration(minutes)*time.Minute), minutes)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, session)
}

// runSession drives the active session in the background; the interaction
// loop can span hours.
func (h *handlers) runSession(c *gin.Context) {
	session := h.app.Orchestrator.Session()
	if session == nil || !session.Active {
		c.JSON(http.StatusNotFound, gin.H{"error": orchestrator.ErrNoActiveSession.Error()})
		return
	}

	go func() {
		if _, err := h.app.Orchestrator.RunSession(context.Background()); err != nil {
			h.logger.Warn("session run ended with error", "error", err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{"session_id": session.ID, "state": session.State})
}

func (h *handlers) stopSession(c *gin.Context) {
	if err := h.app.Orchestrator.StopSession(); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"stopped": true})
}

func (h *handlers) runCampaign(c *gin.Context) {
	var req struct {
		Details string `json:"details" binding:"required,min=1,max=4000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	campaign, err := h.app.Orchestrator.RunCampaign(c.Request.Context(), req.Details)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, campaign)
}

func (h *handlers) runFinancialReport(c *gin.Context) {
	report, err := h.app.Orchestrator.RunFinancialReport(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}
