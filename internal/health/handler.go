// Package health exposes the read-only HTTP surface: liveness and a small
// server stats snapshot.
package health

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// StatsSource provides the counters reported by /info.
type StatsSource interface {
	Stats() (roomsActive, roomsPlaying, playersOnline int, tick int64)
}

// Handler serves /health and /info.
type Handler struct {
	stats StatsSource
}

// NewHandler creates a Handler backed by the given stats source.
func NewHandler(stats StatsSource) *Handler {
	return &Handler{stats: stats}
}

// RegisterRoutes mounts the endpoints on the router.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.handleHealth)
	r.GET("/info", h.handleInfo)
}

func (h *Handler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) handleInfo(c *gin.Context) {
	roomsActive, roomsPlaying, playersOnline, tick := h.stats.Stats()
	c.JSON(http.StatusOK, gin.H{
		"rooms_active":   roomsActive,
		"rooms_playing":  roomsPlaying,
		"players_online": playersOnline,
		"tick":           tick,
	})
}
