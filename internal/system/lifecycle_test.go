package system

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/KevinKickass/ScriptSynth/internal/config"
	"go.uber.org/zap"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Server.HTTPPort = 0
	cfg.Server.GRPCPort = 0
	cfg.Store.HTTPPort = 0
	cfg.Store.GRPCPort = 0
	cfg.Store.Dir = t.TempDir()
	cfg.Editor.DownloadDir = t.TempDir()
	return cfg
}

func TestEditorLifecycleStatus(t *testing.T) {
	lm, err := NewEditorLifecycle(testConfig(t), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}

	status := lm.GetCurrentStatus()
	if status.Mode != "editor" || status.State != "INITIALIZING" {
		t.Errorf("status = %+v", status)
	}
	if status.PreviewRevision != 1 {
		t.Errorf("preview revision = %d, want 1", status.PreviewRevision)
	}

	if err := lm.Controller().AddCommand(); err != nil {
		t.Fatal(err)
	}
	if got := lm.GetCurrentStatus().PreviewRevision; got != 2 {
		t.Errorf("preview revision after commit = %d, want 2", got)
	}
}

func TestStoreLifecycleStartAndShutdown(t *testing.T) {
	lm, err := NewStoreLifecycle(context.Background(), testConfig(t), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if err := lm.Start(); err != nil {
		t.Fatal(err)
	}

	status := lm.GetCurrentStatus()
	if status.State != "RUNNING" || status.StoreBackend != "file" {
		t.Errorf("status = %+v", status)
	}

	resp, err := lm.healthServer.Check(context.Background(), &healthpb.HealthCheckRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Status != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("health = %s, want SERVING", resp.Status)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := lm.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	select {
	case <-lm.Done():
	default:
		t.Error("Done not closed after shutdown")
	}
	if got := lm.GetCurrentStatus().State; got != "STOPPED" {
		t.Errorf("state = %s, want STOPPED", got)
	}

	// second call is a no-op
	if err := lm.Shutdown(ctx); err != nil {
		t.Errorf("second Shutdown: %v", err)
	}
}

func TestUnknownStoreBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.Backend = "tape"

	if _, err := NewStoreLifecycle(context.Background(), cfg, zap.NewNop()); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestValidateTransition(t *testing.T) {
	cases := []struct {
		from, to SystemState
		ok       bool
	}{
		{StateInitializing, StateRunning, true},
		{StateRunning, StateStopping, true},
		{StateStopping, StateStopped, true},
		{StateStopped, StateRunning, false},
		{StateRunning, StateInitializing, false},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("%s->%s", tc.from, tc.to), func(t *testing.T) {
			err := ValidateTransition(tc.from, tc.to)
			if (err == nil) != tc.ok {
				t.Errorf("ValidateTransition = %v, want ok=%v", err, tc.ok)
			}
		})
	}
}

func TestAwaitShutdownKeepsErrorSentBeforeDone(t *testing.T) {
	want := fmt.Errorf("rest api shutdown failed")
	done := make(chan struct{})
	close(done)

	for i := 0; i < 20; i++ {
		errs := make(chan error, 2)
		errs <- want
		if err := awaitShutdown(context.Background(), done, errs, zap.NewNop()); !errors.Is(err, want) {
			t.Fatalf("awaitShutdown = %v, want %v", err, want)
		}
	}
	if err := awaitShutdown(context.Background(), done, make(chan error), zap.NewNop()); err != nil {
		t.Errorf("clean shutdown returned %v", err)
	}
}

func TestAwaitShutdownTimeout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := awaitShutdown(ctx, make(chan struct{}), make(chan error), zap.NewNop()); err == nil {
		t.Error("expected timeout error")
	}
}
