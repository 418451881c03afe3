package rest

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/KevinKickass/ScriptSynth/internal/api/websocket"
	"github.com/KevinKickass/ScriptSynth/internal/gateway"
	"github.com/KevinKickass/ScriptSynth/internal/types"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type valueRequest struct {
	Value *string `json:"value" binding:"required"`
}

// GET /api/v1/editor/config
func (s *Server) getConfig(c *gin.Context) {
	c.JSON(http.StatusOK, s.editor.Snapshot())
}

// GET /api/v1/editor/preview
func (s *Server) getPreview(c *gin.Context) {
	p := s.editor.Preview()
	c.Header("X-Preview-Revision", strconv.FormatUint(p.Revision, 10))
	c.Data(http.StatusOK, "text/yaml; charset=utf-8", []byte(p.Text))
}

// PUT /api/v1/editor/run/:field
func (s *Server) setRunField(c *gin.Context) {
	value, ok := s.bindValue(c)
	if !ok {
		return
	}
	s.commit(c, s.editor.SetRunField(c.Param("field"), value))
}

// POST /api/v1/editor/hardware
func (s *Server) addHardware(c *gin.Context) {
	var req struct {
		Kind string `json:"kind" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse("EDITOR_400", "Invalid request body", err.Error()))
		return
	}

	kind, err := types.ParseHardwareKind(req.Kind)
	if err != nil {
		s.commit(c, err)
		return
	}
	s.commit(c, s.editor.AddHardware(kind))
}

// DELETE /api/v1/editor/hardware/:index
func (s *Server) removeHardware(c *gin.Context) {
	index, ok := s.index(c)
	if !ok {
		return
	}
	s.commit(c, s.editor.RemoveHardware(index))
}

// PUT /api/v1/editor/hardware/:index/fields/:field
func (s *Server) setHardwareField(c *gin.Context) {
	index, ok := s.index(c)
	if !ok {
		return
	}
	value, ok := s.bindValue(c)
	if !ok {
		return
	}
	s.commit(c, s.editor.SetHardwareField(index, c.Param("field"), value))
}

// POST /api/v1/editor/hardware/:index/channels
func (s *Server) addChannel(c *gin.Context) {
	index, ok := s.index(c)
	if !ok {
		return
	}
	s.commit(c, s.editor.AddChannel(index))
}

// PUT /api/v1/editor/hardware/:index/channels/:key
func (s *Server) setChannelValue(c *gin.Context) {
	index, ok := s.index(c)
	if !ok {
		return
	}
	value, ok := s.bindValue(c)
	if !ok {
		return
	}
	s.commit(c, s.editor.SetChannelValue(index, c.Param("key"), value))
}

// DELETE /api/v1/editor/hardware/:index/channels/:key
func (s *Server) removeChannel(c *gin.Context) {
	index, ok := s.index(c)
	if !ok {
		return
	}
	s.commit(c, s.editor.RemoveChannel(index, c.Param("key")))
}

// POST /api/v1/editor/commands
func (s *Server) addCommand(c *gin.Context) {
	s.commit(c, s.editor.AddCommand())
}

// DELETE /api/v1/editor/commands/:index
func (s *Server) removeCommand(c *gin.Context) {
	index, ok := s.index(c)
	if !ok {
		return
	}
	s.commit(c, s.editor.RemoveCommand(index))
}

// PUT /api/v1/editor/commands/:index/:field
func (s *Server) setCommandField(c *gin.Context) {
	index, ok := s.index(c)
	if !ok {
		return
	}
	value, ok := s.bindValue(c)
	if !ok {
		return
	}
	s.commit(c, s.editor.SetCommandField(index, c.Param("field"), value))
}

// POST /api/v1/editor/outputs/:sink/toggle
func (s *Server) toggleOutputSink(c *gin.Context) {
	s.commit(c, s.editor.ToggleOutputSink(types.OutputSink(c.Param("sink"))))
}

// PUT /api/v1/editor/outputs/influxdb/:field
func (s *Server) setInfluxField(c *gin.Context) {
	value, ok := s.bindValue(c)
	if !ok {
		return
	}
	s.commit(c, s.editor.SetInfluxField(c.Param("field"), value))
}

// POST /api/v1/editor/reset
func (s *Server) reset(c *gin.Context) {
	s.commit(c, s.editor.Reset())
}

// POST /api/v1/editor/save
func (s *Server) save(c *gin.Context) {
	cfg, revision := s.editor.Checkpoint()

	artifact, err := s.materializer.Materialize(c.Request.Context(), cfg)
	if err != nil {
		s.notify(websocket.NewSaveFailedMessage(revision, err))
		c.JSON(http.StatusBadGateway, types.NewErrorResponse("SAVE_502", "Failed to save configuration", err.Error()))
		return
	}

	s.notify(websocket.NewSaveSucceededMessage(revision, artifact.Path))
	s.logger.Info("Configuration saved",
		zap.Uint64("revision", revision),
		zap.String("path", artifact.Path))

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", gateway.ArtifactName))
	c.Data(http.StatusOK, "application/x-yaml", artifact.Data)
}

// commit answers a mutation with the resulting preview, or maps its error.
func (s *Server) commit(c *gin.Context, err error) {
	if err != nil {
		if types.IsPrecondition(err) {
			c.JSON(http.StatusBadRequest, types.NewErrorResponse("EDITOR_400", "Operation rejected", err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse("EDITOR_500", "Operation failed", err.Error()))
		return
	}

	p := s.editor.Preview()
	c.JSON(http.StatusOK, gin.H{
		"revision": p.Revision,
		"text":     p.Text,
	})
}

func (s *Server) index(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse("EDITOR_400", "Invalid index", err.Error()))
		return 0, false
	}
	return index, true
}

func (s *Server) bindValue(c *gin.Context) (string, bool) {
	var req valueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse("EDITOR_400", "Invalid request body", err.Error()))
		return "", false
	}
	return *req.Value, true
}

func (s *Server) notify(msg websocket.Message) {
	if s.wsHub != nil {
		s.wsHub.Broadcast(msg)
	}
}
