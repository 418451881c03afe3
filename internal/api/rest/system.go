package rest

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Health check (public)
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
	})
}

// GET /api/v1/system/status
func (s *Server) getSystemStatus(c *gin.Context) {
	if s.lm == nil {
		c.JSON(http.StatusOK, gin.H{"state": "running"})
		return
	}
	c.JSON(http.StatusOK, s.lm.GetCurrentStatus())
}
