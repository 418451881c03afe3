package document

import (
	"reflect"
	"testing"

	"github.com/KevinKickass/ScriptSynth/internal/types"
)

func strideEntry(t *testing.T, host string) types.HardwareEntry {
	t.Helper()
	entry, err := types.NewHardwareEntry(types.HardwareKindStride)
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range []types.Field{{Name: "host", Value: host}, {Name: "units", Value: "V"}, {Name: "input_type", Value: "analog"}} {
		if err := entry.SetField(f.Name, f.Value); err != nil {
			t.Fatal(err)
		}
	}
	return entry
}

func TestProjectEmptyOutputHasNoKeys(t *testing.T) {
	doc := Project(types.RunConfiguration{})

	if doc.Output.CSV || doc.Output.Chronos || doc.Output.InfluxDB != nil {
		t.Fatalf("expected no sinks, got %+v", doc.Output)
	}
	if n := len(doc.Node().Content[7].Content); n != 0 {
		t.Errorf("output mapping has %d nodes, want 0", n)
	}
}

func TestProjectFlattensHardware(t *testing.T) {
	entry := strideEntry(t, "h1")
	entry.Channels.Set("Channel 0", "ai0")

	doc := Project(types.RunConfiguration{Hardware: []types.HardwareEntry{entry}})

	want := Hardware{
		Name:     "STRIDE",
		Channels: []Pair{{Key: "Channel 0", Value: "ai0"}},
		Fields: []Pair{
			{Key: "host", Value: "h1"},
			{Key: "units", Value: "V"},
			{Key: "input_type", Value: "analog"},
		},
	}
	if !reflect.DeepEqual(doc.Hardware[0], want) {
		t.Fatalf("hardware = %+v, want %+v", doc.Hardware[0], want)
	}

	// name, channels, then the three fields, all at one level
	node := doc.Node().Content[9].Content[0]
	var keys []string
	for i := 0; i < len(node.Content); i += 2 {
		keys = append(keys, node.Content[i].Value)
	}
	wantKeys := []string{"name", "channels", "host", "units", "input_type"}
	if !reflect.DeepEqual(keys, wantKeys) {
		t.Errorf("keys = %v, want %v", keys, wantKeys)
	}
}

func TestProjectOutputSinks(t *testing.T) {
	cfg := types.RunConfiguration{}
	cfg.Outputs.CSVEnabled = true
	cfg.Outputs.Influx.Host = "db1"

	doc := Project(cfg)
	if !doc.Output.CSV || doc.Output.Chronos {
		t.Errorf("output = %+v", doc.Output)
	}
	if doc.Output.InfluxDB != nil {
		t.Error("disabled influx must not be projected")
	}

	cfg.Outputs.InfluxEnabled = true
	doc = Project(cfg)
	if doc.Output.InfluxDB == nil || doc.Output.InfluxDB.Host != "db1" {
		t.Errorf("InfluxDB = %+v", doc.Output.InfluxDB)
	}
}

func TestProjectPreservesCommandOrder(t *testing.T) {
	cfg := types.RunConfiguration{
		Commands: []types.CommandEntry{
			{Time: "00:00:01", Command: "A"},
			{Time: "00:00:02", Command: "B"},
			{Time: "00:00:03", Command: "C"},
		},
	}
	doc := Project(cfg)

	var got []string
	for _, c := range doc.Commands {
		got = append(got, c.Command)
	}
	if !reflect.DeepEqual(got, []string{"A", "B", "C"}) {
		t.Errorf("commands = %v", got)
	}
}

func TestProjectDoesNotMutateInput(t *testing.T) {
	cfg := types.RunConfiguration{TestName: "t", Hardware: []types.HardwareEntry{strideEntry(t, "h1")}}
	before := cfg.Clone()

	doc := Project(cfg)
	doc.Hardware[0].Fields[0].Value = "changed"

	if !reflect.DeepEqual(cfg.Hardware[0].Fields(), before.Hardware[0].Fields()) {
		t.Error("projection shares state with the configuration")
	}
}

func TestProjectIsIdempotent(t *testing.T) {
	cfg := types.RunConfiguration{TestName: "run", Hardware: []types.HardwareEntry{strideEntry(t, "h1")}}
	cfg.Outputs.ChronosEnabled = true

	a, b := Project(cfg), Project(cfg)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("projections differ")
	}

	ta, err := Render(a)
	if err != nil {
		t.Fatal(err)
	}
	tb, err := Render(b)
	if err != nil {
		t.Fatal(err)
	}
	if string(ta) != string(tb) {
		t.Errorf("rendered text differs:\n%s\n---\n%s", ta, tb)
	}
}
