package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/heraerp/platform/internal/interfaces/http/dto"
)

// Pinger is satisfied by *sql.DB
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler reports liveness and database reachability
type HealthHandler struct {
	BaseHandler
	db        Pinger
	version   string
	startTime time.Time
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(db Pinger, version string) *HealthHandler {
	return &HealthHandler{db: db, version: version, startTime: time.Now()}
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status    string `json:"status"`
	Database  string `json:"database"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
}

// Health answers 200 when the database responds, 503 otherwise
func (h *HealthHandler) Health(c *gin.Context) {
	resp := HealthResponse{
		Status:    "ok",
		Database:  "up",
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if h.db == nil || h.db.PingContext(ctx) != nil {
		resp.Status = "degraded"
		resp.Database = "down"
		c.JSON(http.StatusServiceUnavailable, dto.Response{Success: false, Data: resp})
		return
	}
	h.Success(c, resp)
}
