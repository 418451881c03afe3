package rest

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/KevinKickass/ScriptSynth/internal/artifacts"
	"github.com/KevinKickass/ScriptSynth/internal/types"
	"github.com/gin-gonic/gin"
)

// POST /generate-config
func (s *Server) generateConfig(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse("STORE_400", "Failed to read request body", err.Error()))
		return
	}

	rev, err := s.artifacts.Generate(c.Request.Context(), body)
	if errors.Is(err, artifacts.ErrInvalidDocument) {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse("STORE_400", "Invalid document", err.Error()))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse("STORE_500", "Failed to generate config", err.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Config generated successfully!",
		"revision": rev,
	})
}

// GET /download-config
func (s *Server) downloadConfig(c *gin.Context) {
	data, err := s.artifacts.Download(c.Request.Context())
	if errors.Is(err, artifacts.ErrNotFound) {
		c.JSON(http.StatusNotFound, types.NewErrorResponse("STORE_404", "No config generated yet", nil))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse("STORE_500", "Failed to read config", err.Error()))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", artifacts.DefaultName))
	c.Data(http.StatusOK, "application/x-yaml", data)
}

// GET /api/v1/revisions
func (s *Server) listRevisions(c *gin.Context) {
	revisions, err := s.artifacts.Revisions(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse("STORE_500", "Failed to list revisions", err.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"backend":   s.artifacts.Backend(),
		"revisions": revisions,
		"count":     len(revisions),
	})
}
