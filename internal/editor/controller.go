package editor

import (
	"fmt"
	"sync"

	"github.com/KevinKickass/ScriptSynth/internal/document"
	"github.com/KevinKickass/ScriptSynth/internal/metrics"
	"github.com/KevinKickass/ScriptSynth/internal/types"
	"go.uber.org/zap"
)

// Preview is the projection of one committed state.
type Preview struct {
	Revision uint64             `json:"revision"`
	Document *document.Document `json:"-"`
	Text     string             `json:"text"`
}

// Listener is notified after every committed mutation. Listeners must not
// call back into the controller.
type Listener func(Preview)

// Controller owns the editable run configuration. Every mutation is applied
// atomically, then the preview is recomputed before the call returns.
// Hardware and commands are addressed by position: removing an entry shifts
// every later index down by one.
type Controller struct {
	mu      sync.Mutex
	config  types.RunConfiguration
	preview Preview

	// listenersMu also orders notifications: it is taken before mu is
	// released, so listeners see revisions in commit order.
	listenersMu sync.Mutex
	listeners   []Listener

	logger *zap.Logger
}

func NewController(logger *zap.Logger) (*Controller, error) {
	c := &Controller{
		logger: logger,
	}
	if err := c.recompute(); err != nil {
		return nil, err
	}
	return c, nil
}

// Subscribe registers a listener for preview updates.
func (c *Controller) Subscribe(l Listener) {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()
	c.listeners = append(c.listeners, l)
}

// Snapshot returns a deep copy of the current configuration.
func (c *Controller) Snapshot() types.RunConfiguration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.config.Clone()
}

// Preview returns the preview of the latest committed state.
func (c *Controller) Preview() Preview {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.preview
}

// Checkpoint returns a deep copy of the configuration and the revision of
// its preview, read together.
func (c *Controller) Checkpoint() (types.RunConfiguration, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.config.Clone(), c.preview.Revision
}

func (c *Controller) SetRunField(field, value string) error {
	return c.apply("set_run_field", func(cfg *types.RunConfiguration) error {
		return cfg.SetRunField(field, value)
	})
}

// AddHardware appends a device of the given kind with its defaults and an
// empty channel map.
func (c *Controller) AddHardware(kind types.HardwareKind) error {
	return c.apply("add_hardware", func(cfg *types.RunConfiguration) error {
		entry, err := types.NewHardwareEntry(kind)
		if err != nil {
			return err
		}
		cfg.Hardware = append(cfg.Hardware, entry)
		return nil
	})
}

func (c *Controller) RemoveHardware(index int) error {
	return c.apply("remove_hardware", func(cfg *types.RunConfiguration) error {
		if err := checkIndex("hardware", index, len(cfg.Hardware)); err != nil {
			return err
		}
		cfg.Hardware = append(cfg.Hardware[:index:index], cfg.Hardware[index+1:]...)
		return nil
	})
}

func (c *Controller) SetHardwareField(index int, field, value string) error {
	return c.apply("set_hardware_field", func(cfg *types.RunConfiguration) error {
		if err := checkIndex("hardware", index, len(cfg.Hardware)); err != nil {
			return err
		}
		return cfg.Hardware[index].SetField(field, value)
	})
}

// AddChannel adds "Channel {n}" with an empty identifier, n being the
// entry's current channel count. If that label already exists its value is
// reset to empty.
func (c *Controller) AddChannel(index int) error {
	return c.apply("add_channel", func(cfg *types.RunConfiguration) error {
		if err := checkIndex("hardware", index, len(cfg.Hardware)); err != nil {
			return err
		}
		cfg.Hardware[index].Channels.AddDefault()
		return nil
	})
}

// SetChannelValue overwrites the identifier of label, creating the label if
// it does not exist.
func (c *Controller) SetChannelValue(index int, label, value string) error {
	return c.apply("set_channel_value", func(cfg *types.RunConfiguration) error {
		if err := checkIndex("hardware", index, len(cfg.Hardware)); err != nil {
			return err
		}
		cfg.Hardware[index].Channels.Set(label, value)
		return nil
	})
}

func (c *Controller) RemoveChannel(index int, label string) error {
	return c.apply("remove_channel", func(cfg *types.RunConfiguration) error {
		if err := checkIndex("hardware", index, len(cfg.Hardware)); err != nil {
			return err
		}
		return cfg.Hardware[index].Channels.Remove(label)
	})
}

func (c *Controller) AddCommand() error {
	return c.apply("add_command", func(cfg *types.RunConfiguration) error {
		cfg.Commands = append(cfg.Commands, types.CommandEntry{})
		return nil
	})
}

func (c *Controller) RemoveCommand(index int) error {
	return c.apply("remove_command", func(cfg *types.RunConfiguration) error {
		if err := checkIndex("command", index, len(cfg.Commands)); err != nil {
			return err
		}
		cfg.Commands = append(cfg.Commands[:index:index], cfg.Commands[index+1:]...)
		return nil
	})
}

func (c *Controller) SetCommandField(index int, field, value string) error {
	return c.apply("set_command_field", func(cfg *types.RunConfiguration) error {
		if err := checkIndex("command", index, len(cfg.Commands)); err != nil {
			return err
		}
		return cfg.Commands[index].Set(field, value)
	})
}

func (c *Controller) ToggleOutputSink(sink types.OutputSink) error {
	return c.apply("toggle_output_sink", func(cfg *types.RunConfiguration) error {
		return cfg.Outputs.Toggle(sink)
	})
}

// SetInfluxField writes the InfluxDB settings whether or not the sink is
// enabled.
func (c *Controller) SetInfluxField(field, value string) error {
	return c.apply("set_influx_field", func(cfg *types.RunConfiguration) error {
		return cfg.Outputs.Influx.Set(field, value)
	})
}

// Reset replaces the configuration with an empty one.
func (c *Controller) Reset() error {
	return c.apply("reset", func(cfg *types.RunConfiguration) error {
		*cfg = types.RunConfiguration{}
		return nil
	})
}

// apply runs fn on a copy of the configuration and commits the copy only if
// fn succeeds, so a failed operation leaves no partial update behind.
func (c *Controller) apply(op string, fn func(cfg *types.RunConfiguration) error) error {
	c.mu.Lock()

	next := c.config.Clone()
	if err := fn(&next); err != nil {
		c.mu.Unlock()
		metrics.EditorOperations.WithLabelValues(op, "rejected").Inc()
		c.logger.Warn("Editor operation rejected",
			zap.String("operation", op),
			zap.Error(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	prev := c.config
	c.config = next
	if err := c.recompute(); err != nil {
		c.config = prev
		c.mu.Unlock()
		return fmt.Errorf("%s: %w", op, err)
	}
	preview := c.preview
	metrics.EditorOperations.WithLabelValues(op, "ok").Inc()
	c.listenersMu.Lock()
	c.mu.Unlock()

	c.logger.Debug("Editor state committed",
		zap.String("operation", op),
		zap.Uint64("revision", preview.Revision))

	for _, l := range c.listeners {
		l(preview)
	}
	c.listenersMu.Unlock()
	return nil
}

// recompute must be called with mu held.
func (c *Controller) recompute() error {
	doc := document.Project(c.config)
	text, err := document.Render(doc)
	if err != nil {
		return fmt.Errorf("failed to render preview: %w", err)
	}
	c.preview = Preview{
		Revision: c.preview.Revision + 1,
		Document: doc,
		Text:     string(text),
	}
	return nil
}

func checkIndex(what string, index, length int) error {
	if index < 0 || index >= length {
		return fmt.Errorf("%s index %d (length %d): %w", what, index, length, types.ErrIndexOutOfRange)
	}
	return nil
}
