package types

import "fmt"

// RunConfiguration is the editable description of one test run.
type RunConfiguration struct {
	TestName          string          `json:"test_name"`
	SamplingFrequency string          `json:"sampling_frequency"`
	Metadata          string          `json:"metadata"`
	Outputs           OutputSinkSet   `json:"outputs"`
	Hardware          []HardwareEntry `json:"hardware"`
	Commands          []CommandEntry  `json:"commands"`
}

// Run-level field names accepted by SetRunField.
const (
	RunFieldTestName          = "test_name"
	RunFieldSamplingFrequency = "sampling_frequency"
	RunFieldMetadata          = "metadata"
)

// SetRunField writes one of the run metadata fields.
func (c *RunConfiguration) SetRunField(name, value string) error {
	switch name {
	case RunFieldTestName:
		c.TestName = value
	case RunFieldSamplingFrequency:
		c.SamplingFrequency = value
	case RunFieldMetadata:
		c.Metadata = value
	default:
		return fmt.Errorf("run configuration has no field %q: %w", name, ErrUnknownField)
	}
	return nil
}

// Clone returns a deep copy; the result shares no mutable state with c.
func (c RunConfiguration) Clone() RunConfiguration {
	out := c
	out.Hardware = make([]HardwareEntry, len(c.Hardware))
	for i, h := range c.Hardware {
		out.Hardware[i] = h.Clone()
	}
	out.Commands = make([]CommandEntry, len(c.Commands))
	copy(out.Commands, c.Commands)
	return out
}

type OutputSink string

const (
	OutputSinkCSV      OutputSink = "csv"
	OutputSinkChronos  OutputSink = "chronos"
	OutputSinkInfluxDB OutputSink = "influxdb"
)

// OutputSinkSet holds the sink toggles. Influx is kept regardless of
// InfluxEnabled so toggling never loses connection settings.
type OutputSinkSet struct {
	CSVEnabled     bool         `json:"csv"`
	ChronosEnabled bool         `json:"chronos"`
	InfluxEnabled  bool         `json:"influxdb"`
	Influx         InfluxConfig `json:"influx_config"`
}

// Toggle flips the named sink.
func (o *OutputSinkSet) Toggle(sink OutputSink) error {
	switch sink {
	case OutputSinkCSV:
		o.CSVEnabled = !o.CSVEnabled
	case OutputSinkChronos:
		o.ChronosEnabled = !o.ChronosEnabled
	case OutputSinkInfluxDB:
		o.InfluxEnabled = !o.InfluxEnabled
	default:
		return fmt.Errorf("%q: %w", sink, ErrUnknownSink)
	}
	return nil
}

type InfluxConfig struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Database string `json:"database"`
	Bucket   string `json:"bucket"`
	User     string `json:"user"`
	Password string `json:"password"`
}

func (i *InfluxConfig) refs() []fieldRef {
	return []fieldRef{
		{"host", &i.Host},
		{"port", &i.Port},
		{"database", &i.Database},
		{"bucket", &i.Bucket},
		{"user", &i.User},
		{"password", &i.Password},
	}
}

// Fields returns the connection fields in document order.
func (i InfluxConfig) Fields() []Field {
	return collect(i.refs())
}

func (i *InfluxConfig) Set(name, value string) error {
	return assign(i.refs(), "InfluxDB", name, value)
}

// CommandEntry is one scheduled serial instruction.
type CommandEntry struct {
	Time    string `json:"time"`
	Port    string `json:"port"`
	Baud    string `json:"baud"`
	Command string `json:"command"`
}

func (e *CommandEntry) refs() []fieldRef {
	return []fieldRef{
		{"time", &e.Time},
		{"port", &e.Port},
		{"baud", &e.Baud},
		{"command", &e.Command},
	}
}

// Fields returns the four command fields in document order.
func (e CommandEntry) Fields() []Field {
	return collect(e.refs())
}

func (e *CommandEntry) Set(name, value string) error {
	return assign(e.refs(), "command", name, value)
}

func collect(refs []fieldRef) []Field {
	fields := make([]Field, len(refs))
	for i, r := range refs {
		fields[i] = Field{Name: r.name, Value: *r.ptr}
	}
	return fields
}

func assign(refs []fieldRef, owner, name, value string) error {
	for _, r := range refs {
		if r.name == name {
			*r.ptr = value
			return nil
		}
	}
	return fmt.Errorf("%s has no field %q: %w", owner, name, ErrUnknownField)
}
