package system

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/KevinKickass/ScriptSynth/internal/api/rest"
	"github.com/KevinKickass/ScriptSynth/internal/api/websocket"
	"github.com/KevinKickass/ScriptSynth/internal/artifacts"
	"github.com/KevinKickass/ScriptSynth/internal/auth"
	"github.com/KevinKickass/ScriptSynth/internal/config"
	"github.com/KevinKickass/ScriptSynth/internal/editor"
	"github.com/KevinKickass/ScriptSynth/internal/gateway"
	"github.com/KevinKickass/ScriptSynth/internal/interfaces"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type LifecycleManager struct {
	config *config.Config
	mode   Mode
	logger *zap.Logger

	// editor mode
	controller *editor.Controller
	hub        *websocket.Hub
	hubCancel  context.CancelFunc
	gateway    *gateway.Gateway

	// store mode
	artifacts    *artifacts.Service
	jwt          *auth.JWTHandler
	closeBackend func()

	restServer   *rest.Server
	grpcServer   *grpc.Server
	healthServer *health.Server

	stateMu      sync.RWMutex
	currentState SystemState

	shutdownChan chan struct{}
	shutdownOnce sync.Once
}

func newLifecycleManager(cfg *config.Config, mode Mode, logger *zap.Logger) *LifecycleManager {
	return &LifecycleManager{
		config:       cfg,
		mode:         mode,
		logger:       logger,
		closeBackend: func() {},
		currentState: StateInitializing,
		shutdownChan: make(chan struct{}),
	}
}

// NewEditorLifecycle wires the editor controller, the preview hub and the
// materialization gateway.
func NewEditorLifecycle(cfg *config.Config, logger *zap.Logger) (*LifecycleManager, error) {
	lm := newLifecycleManager(cfg, ModeEditor, logger)

	controller, err := editor.NewController(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create editor: %w", err)
	}
	lm.controller = controller

	lm.hub = websocket.NewHub(logger, controller)
	controller.Subscribe(lm.hub.PublishPreview)

	var tokens gateway.TokenSource
	if cfg.Auth.Enabled() {
		tokens = auth.NewJWTHandler(cfg.Auth.GetJWTSecret(), cfg.Auth.TokenTTL, "editor")
	}
	client := gateway.NewHTTPClient(cfg.Editor.StoreURL, tokens)
	lm.gateway = gateway.New(client, cfg.Editor.DownloadDir, logger)

	return lm, nil
}

// NewStoreLifecycle opens the configured artifact backend.
func NewStoreLifecycle(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*LifecycleManager, error) {
	lm := newLifecycleManager(cfg, ModeStore, logger)

	store, closeBackend, err := openArtifactStore(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact store: %w", err)
	}
	lm.closeBackend = closeBackend

	svc, err := artifacts.NewService(store, logger)
	if err != nil {
		closeBackend()
		return nil, err
	}
	lm.artifacts = svc

	if cfg.Auth.Enabled() {
		if !cfg.Auth.IsProductionReady() {
			logger.Warn("JWT secret is shorter than 32 characters")
		}
		lm.jwt = auth.NewJWTHandler(cfg.Auth.GetJWTSecret(), cfg.Auth.TokenTTL, "store")
	} else {
		logger.Warn("Service auth disabled, store accepts unauthenticated requests")
	}

	return lm, nil
}

func (lm *LifecycleManager) Config() *config.Config {
	return lm.config
}

// Controller returns the editor controller, nil in store mode.
func (lm *LifecycleManager) Controller() *editor.Controller {
	return lm.controller
}

// Done is closed once Shutdown has completed.
func (lm *LifecycleManager) Done() <-chan struct{} {
	return lm.shutdownChan
}

// Start starts the gRPC health service and the REST API of the mode.
func (lm *LifecycleManager) Start() error {
	lm.logger.Info("Starting ScriptSynth", zap.String("mode", string(lm.mode)))

	if err := lm.startGRPCServer(); err != nil {
		lm.setState(StateError)
		return fmt.Errorf("failed to start gRPC: %w", err)
	}

	if err := lm.startRESTServer(); err != nil {
		lm.setState(StateError)
		return fmt.Errorf("failed to start REST API: %w", err)
	}

	lm.healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	lm.setState(StateRunning)

	lm.logger.Info("System started successfully",
		zap.String("mode", string(lm.mode)),
		zap.Int("grpc_port", lm.grpcPort()),
		zap.Int("http_port", lm.httpPort()))

	return nil
}

func (lm *LifecycleManager) httpPort() int {
	if lm.mode == ModeStore {
		return lm.config.Store.HTTPPort
	}
	return lm.config.Server.HTTPPort
}

func (lm *LifecycleManager) grpcPort() int {
	if lm.mode == ModeStore {
		return lm.config.Store.GRPCPort
	}
	return lm.config.Server.GRPCPort
}

func (lm *LifecycleManager) startGRPCServer() error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", lm.grpcPort()))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	lm.grpcServer = grpc.NewServer()
	lm.healthServer = health.NewServer()
	lm.healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(lm.grpcServer, lm.healthServer)

	go func() {
		lm.logger.Info("gRPC server listening",
			zap.String("address", lis.Addr().String()),
			zap.String("services", "grpc.health.v1.Health"))
		if err := lm.grpcServer.Serve(lis); err != nil {
			lm.logger.Error("gRPC server failed", zap.Error(err))
		}
	}()

	return nil
}

func (lm *LifecycleManager) startRESTServer() error {
	switch lm.mode {
	case ModeEditor:
		ctx, cancel := context.WithCancel(context.Background())
		lm.hubCancel = cancel
		go lm.hub.Run(ctx)

		lm.restServer = rest.NewEditorServer(lm.config.Server.HTTPPort, rest.EditorDeps{
			Lifecycle:    lm,
			Editor:       lm.controller,
			Materializer: lm.gateway,
			Hub:          lm.hub,
		}, lm.logger)

	case ModeStore:
		lm.restServer = rest.NewStoreServer(lm.config.Store.HTTPPort, rest.StoreDeps{
			Lifecycle: lm,
			Artifacts: lm.artifacts,
			JWT:       lm.jwt,
		}, lm.logger)

	default:
		return fmt.Errorf("unknown mode %q", lm.mode)
	}

	return lm.restServer.Start()
}

// Shutdown gracefully shuts down the system
func (lm *LifecycleManager) Shutdown(ctx context.Context) error {
	var shutdownErr error

	lm.shutdownOnce.Do(func() {
		lm.logger.Info("Shutting down system")
		lm.setState(StateStopping)

		shutdownErr = lm.gracefulShutdown(ctx)

		lm.setState(StateStopped)
		close(lm.shutdownChan)
	})

	return shutdownErr
}

func (lm *LifecycleManager) gracefulShutdown(ctx context.Context) error {
	if lm.healthServer != nil {
		lm.healthServer.Shutdown()
	}

	var wg sync.WaitGroup
	errChan := make(chan error, 2)

	// REST API Server graceful shutdown
	if lm.restServer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()

			if err := lm.restServer.Shutdown(shutdownCtx); err != nil {
				errChan <- fmt.Errorf("rest api shutdown failed: %w", err)
			}
		}()
	}

	// gRPC Server graceful stop
	if lm.grpcServer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lm.logger.Info("Stopping gRPC server")
			lm.grpcServer.GracefulStop()
		}()
	}

	// Wait for all shutdowns
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	err := awaitShutdown(ctx, done, errChan, lm.logger)

	if lm.hubCancel != nil {
		lm.hubCancel()
	}
	lm.closeBackend()

	return err
}

func (lm *LifecycleManager) setState(state SystemState) {
	lm.stateMu.Lock()
	defer lm.stateMu.Unlock()

	if err := ValidateTransition(lm.currentState, state); err != nil {
		lm.logger.Warn("Unexpected state transition", zap.Error(err))
	}
	lm.currentState = state
}

// GetCurrentStatus returns current system status (Interface implementation)
func (lm *LifecycleManager) GetCurrentStatus() interfaces.SystemStatus {
	lm.stateMu.RLock()
	state := lm.currentState
	lm.stateMu.RUnlock()

	status := interfaces.SystemStatus{
		Mode:  string(lm.mode),
		State: state.String(),
	}

	if lm.controller != nil {
		status.PreviewRevision = lm.controller.Preview().Revision
	}
	if lm.hub != nil {
		status.PreviewClients = lm.hub.GetClientCount()
	}
	if lm.artifacts != nil {
		status.StoreBackend = lm.artifacts.Backend()
	}

	return status
}

// awaitShutdown waits for the shutdown goroutines. An error sent before done
// closed is still returned.
func awaitShutdown(ctx context.Context, done <-chan struct{}, errs <-chan error, logger *zap.Logger) error {
	select {
	case <-done:
		select {
		case err := <-errs:
			return err
		default:
		}
		logger.Info("Graceful shutdown completed")
		return nil
	case <-ctx.Done():
		logger.Warn("Shutdown timeout, forcing stop")
		return fmt.Errorf("shutdown timeout exceeded")
	case err := <-errs:
		return err
	}
}
