package http

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/collabhub-server/internal/activity"
	"github.com/vovakirdan/collabhub-server/internal/presence"
)

const (
	defaultActivityLimit = 50
	maxActivityLimit     = 500
)

// ActivityReader returns recent journal entries, newest first.
type ActivityReader interface {
	Recent(ctx context.Context, roomID string, limit int) ([]activity.Event, error)
}

// APIHandlers serves the banner, health and activity endpoints.
type APIHandlers struct {
	presence *presence.Service
	journal  ActivityReader
	version  string
	log      *zerolog.Logger
}

// NewAPIHandlers creates a new API handlers instance. journal may be nil.
func NewAPIHandlers(svc *presence.Service, journal ActivityReader, version string, logger *zerolog.Logger) *APIHandlers {
	return &APIHandlers{
		presence: svc,
		journal:  journal,
		version:  version,
		log:      logger,
	}
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// BannerResponse is the body of GET /.
type BannerResponse struct {
	Message   string  `json:"message"`
	Status    string  `json:"status"`
	Timestamp string  `json:"timestamp"`
	Uptime    float64 `json:"uptime"`
	Version   string  `json:"version"`
}

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status            string         `json:"status"`
	Timestamp         string         `json:"timestamp"`
	Uptime            float64        `json:"uptime"`
	Connections       ConnectionInfo `json:"connections"`
	Rooms             RoomInfo       `json:"rooms"`
	TotalMessages     int64          `json:"totalMessages"`
	TotalEdits        int64          `json:"totalEdits"`
	DroppedDeliveries int64          `json:"droppedDeliveries"`
	Memory            MemoryInfo     `json:"memory"`
	Goroutines        int            `json:"goroutines"`
}

// ConnectionInfo groups connection counters.
type ConnectionInfo struct {
	Active int   `json:"active"`
	Total  int64 `json:"total"`
}

// RoomInfo groups room counters.
type RoomInfo struct {
	Active  int   `json:"active"`
	Created int64 `json:"created"`
}

// MemoryInfo is a subset of runtime memory statistics, in bytes.
type MemoryInfo struct {
	Alloc uint64 `json:"alloc"`
	Sys   uint64 `json:"sys"`
	NumGC uint32 `json:"numGC"`
}

// ActivityResponse is the body of GET /api/activity.
type ActivityResponse struct {
	Events []activity.Event `json:"events"`
}

// Banner reports that the service is up.
// GET /
func (h *APIHandlers) Banner(c *gin.Context) {
	health := h.presence.Health()
	c.JSON(http.StatusOK, BannerResponse{
		Message:   "CollabHub server is running",
		Status:    "ok",
		Timestamp: formatTime(time.Now()),
		Uptime:    health.Uptime.Seconds(),
		Version:   h.version,
	})
}

// Health reports detailed server statistics.
// GET /api/health
func (h *APIHandlers) Health(c *gin.Context) {
	health := h.presence.Health()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: formatTime(time.Now()),
		Uptime:    health.Uptime.Seconds(),
		Connections: ConnectionInfo{
			Active: health.ActiveConnections,
			Total:  health.TotalConnections,
		},
		Rooms: RoomInfo{
			Active:  health.ActiveRooms,
			Created: health.RoomsCreated,
		},
		TotalMessages:     health.TotalMessages,
		TotalEdits:        health.TotalEdits,
		DroppedDeliveries: health.DroppedDeliveries,
		Memory: MemoryInfo{
			Alloc: mem.Alloc,
			Sys:   mem.Sys,
			NumGC: mem.NumGC,
		},
		Goroutines: runtime.NumGoroutine(),
	})
}

// Activity lists recent journal entries, optionally for one room.
// GET /api/activity?room=<id>&limit=<n>
func (h *APIHandlers) Activity(c *gin.Context) {
	if h.journal == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Not found", Message: "activity journal is disabled"})
		return
	}

	limit := defaultActivityLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Bad request", Message: "limit must be a positive integer"})
			return
		}
		limit = min(n, maxActivityLimit)
	}

	events, err := h.journal.Recent(c.Request.Context(), c.Query("room"), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to read activity journal")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
		return
	}
	if events == nil {
		events = []activity.Event{}
	}
	c.JSON(http.StatusOK, ActivityResponse{Events: events})
}

// NotFound answers unknown routes.
func (h *APIHandlers) NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, ErrorResponse{
		Error:   "Not found",
		Message: fmt.Sprintf("Route %s %s not found", c.Request.Method, c.Request.URL.Path),
	})
}
