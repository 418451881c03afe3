package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/KevinKickass/ScriptSynth/internal/api/websocket"
	"github.com/KevinKickass/ScriptSynth/internal/auth"
	"github.com/KevinKickass/ScriptSynth/internal/interfaces"
	"github.com/KevinKickass/ScriptSynth/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Server struct {
	router *gin.Engine
	lm     interfaces.LifecycleManager
	logger *zap.Logger
	server *http.Server
	wsHub  *websocket.Hub

	// editor mode
	editor       interfaces.EditorController
	materializer interfaces.Materializer

	// store mode
	artifacts interfaces.ArtifactService
	jwt       *auth.JWTHandler
}

// EditorDeps are the collaborators of the editor service.
type EditorDeps struct {
	Lifecycle    interfaces.LifecycleManager
	Editor       interfaces.EditorController
	Materializer interfaces.Materializer
	Hub          *websocket.Hub
}

// StoreDeps are the collaborators of the artifact store service. A nil JWT
// handler leaves the store unauthenticated.
type StoreDeps struct {
	Lifecycle interfaces.LifecycleManager
	Artifacts interfaces.ArtifactService
	JWT       *auth.JWTHandler
}

func NewEditorServer(port int, deps EditorDeps, logger *zap.Logger) *Server {
	s := newServer(port, logger)
	s.lm = deps.Lifecycle
	s.editor = deps.Editor
	s.materializer = deps.Materializer
	s.wsHub = deps.Hub

	s.setupEditorRoutes()
	return s
}

func NewStoreServer(port int, deps StoreDeps, logger *zap.Logger) *Server {
	s := newServer(port, logger)
	s.lm = deps.Lifecycle
	s.artifacts = deps.Artifacts
	s.jwt = deps.JWT

	s.setupStoreRoutes()
	return s
}

func newServer(port int, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		router: gin.New(),
		logger: logger,
	}

	// Middleware
	s.router.Use(gin.Recovery())
	s.router.Use(LoggerMiddleware(s.logger))
	s.router.Use(CORSMiddleware())

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.logger.Info("Starting REST API server", zap.String("address", s.server.Addr))
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("REST server failed", zap.Error(err))
		}
	}()
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down REST API server")
	return s.server.Shutdown(ctx)
}

func (s *Server) setupEditorRoutes() {
	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/system/status", s.getSystemStatus)

		// ==================== EDITOR ====================
		ed := v1.Group("/editor")
		{
			ed.GET("/config", s.getConfig)
			ed.GET("/preview", s.getPreview)

			ed.PUT("/run/:field", s.setRunField)

			ed.POST("/hardware", s.addHardware)
			ed.DELETE("/hardware/:index", s.removeHardware)
			ed.PUT("/hardware/:index/fields/:field", s.setHardwareField)
			ed.POST("/hardware/:index/channels", s.addChannel)
			ed.PUT("/hardware/:index/channels/:key", s.setChannelValue)
			ed.DELETE("/hardware/:index/channels/:key", s.removeChannel)

			ed.POST("/commands", s.addCommand)
			ed.DELETE("/commands/:index", s.removeCommand)
			ed.PUT("/commands/:index/:field", s.setCommandField)

			ed.POST("/outputs/:sink/toggle", s.toggleOutputSink)
			ed.PUT("/outputs/influxdb/:field", s.setInfluxField)

			ed.POST("/reset", s.reset)
			ed.POST("/save", s.save)
		}

		// ==================== WEBSOCKET ====================
		ws := v1.Group("/ws")
		{
			ws.GET("/preview", s.wsPreview)
			ws.GET("/status", s.wsStatus)
		}
	}
}

func (s *Server) setupStoreRoutes() {
	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	protected := s.router.Group("")
	protected.Use(auth.Middleware(s.jwt))
	{
		protected.POST("/generate-config", s.generateConfig)
		protected.GET("/download-config", s.downloadConfig)
		protected.GET("/api/v1/revisions", s.listRevisions)
	}

	s.router.GET("/api/v1/system/status", s.getSystemStatus)
}

// WebSocket handlers
func (s *Server) wsPreview(c *gin.Context) {
	if s.wsHub == nil {
		c.JSON(http.StatusServiceUnavailable, types.NewErrorResponse("WS_503", "Preview stream not available", nil))
		return
	}
	websocket.ServeWs(s.wsHub, c.Writer, c.Request)
}

func (s *Server) wsStatus(c *gin.Context) {
	clients := 0
	if s.wsHub != nil {
		clients = s.wsHub.GetClientCount()
	}
	c.JSON(http.StatusOK, gin.H{
		"connected_clients": clients,
	})
}
