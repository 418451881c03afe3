package editor

import (
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/KevinKickass/ScriptSynth/internal/document"
	"github.com/KevinKickass/ScriptSynth/internal/types"
	"go.uber.org/zap"
)

func newController(t *testing.T) *Controller {
	t.Helper()
	c, err := NewController(zap.NewNop())
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	return c
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}

func TestInitialPreview(t *testing.T) {
	c := newController(t)
	p := c.Preview()
	if p.Revision != 1 {
		t.Errorf("revision = %d, want 1", p.Revision)
	}
	if !strings.Contains(p.Text, "hardware: []") {
		t.Errorf("unexpected initial preview:\n%s", p.Text)
	}
}

func TestEveryMutationRecomputesPreview(t *testing.T) {
	c := newController(t)

	var seen []uint64
	c.Subscribe(func(p Preview) { seen = append(seen, p.Revision) })

	ops := []func() error{
		func() error { return c.SetRunField("test_name", "soak") },
		func() error { return c.AddHardware(types.HardwareKindNIDAQ) },
		func() error { return c.SetHardwareField(0, "device", "Dev1") },
		func() error { return c.AddChannel(0) },
		func() error { return c.SetChannelValue(0, "Channel 0", "Dev1/ai0") },
		func() error { return c.RemoveChannel(0, "Channel 0") },
		func() error { return c.AddCommand() },
		func() error { return c.SetCommandField(0, "command", "GO") },
		func() error { return c.ToggleOutputSink(types.OutputSinkCSV) },
		func() error { return c.SetInfluxField("bucket", "b") },
		func() error { return c.RemoveCommand(0) },
		func() error { return c.RemoveHardware(0) },
		func() error { return c.Reset() },
	}
	for i, op := range ops {
		if err := op(); err != nil {
			t.Fatalf("op %d: %v", i, err)
		}
		if got := c.Preview().Revision; got != uint64(i+2) {
			t.Fatalf("after op %d revision = %d, want %d", i, got, i+2)
		}
	}
	if len(seen) != len(ops) {
		t.Errorf("listener called %d times, want %d", len(seen), len(ops))
	}
}

func TestPreviewReflectsLatestState(t *testing.T) {
	c := newController(t)
	must(t, c.AddHardware(types.HardwareKindStride))
	must(t, c.SetHardwareField(0, "host", "h1"))
	must(t, c.SetHardwareField(0, "units", "V"))
	must(t, c.SetHardwareField(0, "input_type", "analog"))
	must(t, c.AddChannel(0))
	must(t, c.SetChannelValue(0, "Channel 0", "ai0"))

	p := c.Preview()
	want := document.Project(c.Snapshot())
	if !reflect.DeepEqual(p.Document, want) {
		t.Fatalf("preview document stale:\n got %+v\nwant %+v", p.Document, want)
	}
	text, err := document.Render(want)
	must(t, err)
	if p.Text != string(text) {
		t.Errorf("preview text stale:\n%s\n---\n%s", p.Text, text)
	}
	if !strings.Contains(p.Text, "Channel 0: ai0") {
		t.Errorf("preview missing channel:\n%s", p.Text)
	}
}

func TestPreconditionViolationsLeaveStateUntouched(t *testing.T) {
	c := newController(t)
	must(t, c.AddHardware(types.HardwareKindADAM))
	must(t, c.AddCommand())
	before := c.Preview()

	tests := []struct {
		name string
		op   func() error
		want error
	}{
		{"remove hardware past end", func() error { return c.RemoveHardware(1) }, types.ErrIndexOutOfRange},
		{"remove hardware negative", func() error { return c.RemoveHardware(-1) }, types.ErrIndexOutOfRange},
		{"field of other kind", func() error { return c.SetHardwareField(0, "units", "V") }, types.ErrUnknownField},
		{"field on missing hardware", func() error { return c.SetHardwareField(3, "host", "x") }, types.ErrIndexOutOfRange},
		{"channel on missing hardware", func() error { return c.AddChannel(5) }, types.ErrIndexOutOfRange},
		{"set channel on missing hardware", func() error { return c.SetChannelValue(5, "c", "v") }, types.ErrIndexOutOfRange},
		{"remove unknown channel", func() error { return c.RemoveChannel(0, "nope") }, types.ErrUnknownChannel},
		{"unknown kind", func() error { return c.AddHardware("LABJACK") }, types.ErrUnknownKind},
		{"unknown command field", func() error { return c.SetCommandField(0, "delay", "1") }, types.ErrUnknownField},
		{"command out of range", func() error { return c.RemoveCommand(1) }, types.ErrIndexOutOfRange},
		{"unknown sink", func() error { return c.ToggleOutputSink("kafka") }, types.ErrUnknownSink},
		{"unknown influx field", func() error { return c.SetInfluxField("token", "x") }, types.ErrUnknownField},
		{"unknown run field", func() error { return c.SetRunField("output", "x") }, types.ErrUnknownField},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.op()
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if !types.IsPrecondition(err) {
				t.Errorf("IsPrecondition(%v) = false", err)
			}
			after := c.Preview()
			if after.Revision != before.Revision || after.Text != before.Text {
				t.Errorf("state changed after rejected operation")
			}
		})
	}
}

func TestRemoveHardwareReindexes(t *testing.T) {
	c := newController(t)
	for _, host := range []string{"A", "B", "C"} {
		must(t, c.AddHardware(types.HardwareKindStride))
		must(t, c.SetHardwareField(len(c.Snapshot().Hardware)-1, "host", host))
	}

	must(t, c.RemoveHardware(1))
	must(t, c.SetHardwareField(1, "units", "mV"))

	cfg := c.Snapshot()
	if len(cfg.Hardware) != 2 {
		t.Fatalf("len = %d, want 2", len(cfg.Hardware))
	}
	var hosts []string
	for _, h := range cfg.Hardware {
		v, _ := h.Field("host")
		hosts = append(hosts, v)
	}
	if !reflect.DeepEqual(hosts, []string{"A", "C"}) {
		t.Errorf("hosts = %v, want [A C]", hosts)
	}
	if v, _ := cfg.Hardware[1].Field("units"); v != "mV" {
		t.Errorf("update at index 1 did not reach former C: units = %q", v)
	}
}

func TestRemoveCommandReindexes(t *testing.T) {
	c := newController(t)
	for i, name := range []string{"A", "B", "C"} {
		must(t, c.AddCommand())
		must(t, c.SetCommandField(i, "command", name))
	}

	must(t, c.RemoveCommand(1))
	must(t, c.SetCommandField(1, "time", "5"))

	cfg := c.Snapshot()
	var names []string
	for _, cmd := range cfg.Commands {
		names = append(names, cmd.Command)
	}
	if !reflect.DeepEqual(names, []string{"A", "C"}) {
		t.Fatalf("commands = %v, want [A C]", names)
	}
	if cfg.Commands[1].Time != "5" {
		t.Errorf("update at index 1 did not reach former C: time = %q", cfg.Commands[1].Time)
	}
	if cfg.Commands[0].Time != "" {
		t.Errorf("command A changed: time = %q", cfg.Commands[0].Time)
	}
}

func TestCheckpointMatchesPreview(t *testing.T) {
	c := newController(t)
	must(t, c.SetRunField("test_name", "soak"))

	cfg, revision := c.Checkpoint()
	if revision != c.Preview().Revision {
		t.Errorf("revision = %d, want %d", revision, c.Preview().Revision)
	}
	if cfg.TestName != "soak" {
		t.Errorf("test name = %q", cfg.TestName)
	}

	cfg.TestName = "changed"
	if got, _ := c.Checkpoint(); got.TestName != "soak" {
		t.Error("Checkpoint shares state with the controller")
	}
}

func TestCommandOrderSurvivesHardwareEdits(t *testing.T) {
	c := newController(t)
	for i, name := range []string{"A", "B", "C"} {
		must(t, c.AddCommand())
		must(t, c.SetCommandField(i, "command", name))
	}
	must(t, c.AddHardware(types.HardwareKindSPANUARTClient))
	must(t, c.SetHardwareField(0, "port", "COM4"))
	must(t, c.AddHardware(types.HardwareKindADAM))
	must(t, c.RemoveHardware(0))

	var got []string
	for _, cmd := range c.Preview().Document.Commands {
		got = append(got, cmd.Command)
	}
	if !reflect.DeepEqual(got, []string{"A", "B", "C"}) {
		t.Errorf("commands = %v", got)
	}
}

func TestInfluxToggleIsNonDestructive(t *testing.T) {
	c := newController(t)
	must(t, c.SetInfluxField("host", "db1"))
	must(t, c.ToggleOutputSink(types.OutputSinkInfluxDB))
	must(t, c.ToggleOutputSink(types.OutputSinkInfluxDB))

	if c.Preview().Document.Output.InfluxDB != nil {
		t.Fatal("disabled influx projected")
	}

	must(t, c.ToggleOutputSink(types.OutputSinkInfluxDB))
	influx := c.Preview().Document.Output.InfluxDB
	if influx == nil || influx.Host != "db1" {
		t.Errorf("InfluxDB = %+v, want host db1", influx)
	}
}

func TestAddChannelDefaultLabels(t *testing.T) {
	c := newController(t)
	must(t, c.AddHardware(types.HardwareKindNIDAQ))
	must(t, c.AddChannel(0))
	must(t, c.AddChannel(0))
	must(t, c.SetChannelValue(0, "Channel 1", "ai1"))
	must(t, c.RemoveChannel(0, "Channel 0"))
	must(t, c.AddChannel(0))

	entries := c.Snapshot().Hardware[0].Channels.Entries()
	want := []types.Channel{{Label: "Channel 1", Identifier: ""}}
	if !reflect.DeepEqual(entries, want) {
		t.Errorf("channels = %v, want %v", entries, want)
	}
}

func TestSnapshotIsIsolated(t *testing.T) {
	c := newController(t)
	must(t, c.AddHardware(types.HardwareKindStride))

	snap := c.Snapshot()
	_ = snap.Hardware[0].SetField("host", "mutated")
	snap.Hardware[0].Channels.Set("x", "y")

	cfg := c.Snapshot()
	if v, _ := cfg.Hardware[0].Field("host"); v != "" {
		t.Errorf("snapshot mutation leaked: host = %q", v)
	}
	if cfg.Hardware[0].Channels.Len() != 0 {
		t.Error("snapshot channel mutation leaked")
	}
}

func TestConcurrentMutationsAreSerialized(t *testing.T) {
	c := newController(t)

	var mu sync.Mutex
	var revisions []uint64
	c.Subscribe(func(p Preview) {
		mu.Lock()
		revisions = append(revisions, p.Revision)
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.AddCommand()
		}()
	}
	wg.Wait()

	if n := len(c.Snapshot().Commands); n != 50 {
		t.Errorf("commands = %d, want 50", n)
	}
	for i := 1; i < len(revisions); i++ {
		if revisions[i] <= revisions[i-1] {
			t.Fatalf("notifications out of order: %v", revisions)
		}
	}
}
