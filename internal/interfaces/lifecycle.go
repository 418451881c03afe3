package interfaces

import (
	"context"

	"github.com/KevinKickass/ScriptSynth/internal/artifacts"
	"github.com/KevinKickass/ScriptSynth/internal/config"
	"github.com/KevinKickass/ScriptSynth/internal/editor"
	"github.com/KevinKickass/ScriptSynth/internal/gateway"
	"github.com/KevinKickass/ScriptSynth/internal/types"
)

// SystemStatus represents the current service state
type SystemStatus struct {
	Mode            string `json:"mode"`
	State           string `json:"state"`
	PreviewRevision uint64 `json:"preview_revision,omitempty"`
	PreviewClients  int    `json:"preview_clients"`
	StoreBackend    string `json:"store_backend,omitempty"`
}

// EditorController is the editing surface exposed over REST.
type EditorController interface {
	Snapshot() types.RunConfiguration
	Preview() editor.Preview
	Checkpoint() (types.RunConfiguration, uint64)

	SetRunField(field, value string) error
	AddHardware(kind types.HardwareKind) error
	RemoveHardware(index int) error
	SetHardwareField(index int, field, value string) error
	AddChannel(index int) error
	SetChannelValue(index int, label, value string) error
	RemoveChannel(index int, label string) error
	AddCommand() error
	RemoveCommand(index int) error
	SetCommandField(index int, field, value string) error
	ToggleOutputSink(sink types.OutputSink) error
	SetInfluxField(field, value string) error
	Reset() error
}

type Materializer interface {
	Materialize(ctx context.Context, cfg types.RunConfiguration) (*gateway.Artifact, error)
}

// ArtifactService is the store side: generate, download and list revisions.
type ArtifactService interface {
	Generate(ctx context.Context, body []byte) (artifacts.Revision, error)
	Download(ctx context.Context) ([]byte, error)
	Revisions(ctx context.Context) ([]artifacts.Revision, error)
	Backend() string
}

type LifecycleManager interface {
	Config() *config.Config
	GetCurrentStatus() SystemStatus
	Shutdown(ctx context.Context) error
}
