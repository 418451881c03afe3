package document

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Root keys in emission order.
const (
	KeyTestName          = "test_name"
	KeySamplingFrequency = "sampling_frequency"
	KeyMetadata          = "metadata"
	KeyOutput            = "output"
	KeyHardware          = "hardware"
	KeyCommands          = "commands"
)

// Output sink keys.
const (
	SinkCSV      = "CSV"
	SinkChronos  = "Chronos"
	SinkInfluxDB = "InfluxDB"
)

// Pair is one key/value of an ordered string object.
type Pair struct {
	Key   string
	Value string
}

// Document is the canonical nested shape of config.yaml.
type Document struct {
	TestName          string
	SamplingFrequency string
	Metadata          string
	Output            Output
	Hardware          []Hardware
	Commands          []Command
}

// Output lists the enabled sinks. A disabled sink has no key at all.
type Output struct {
	CSV      bool
	Chronos  bool
	InfluxDB *Influx
}

type Influx struct {
	Host     string
	Port     string
	Database string
	Bucket   string
	User     string
	Password string
}

// Hardware is one device: name, channels, then the kind's fields flattened
// at the same level.
type Hardware struct {
	Name     string
	Channels []Pair
	Fields   []Pair
}

// Channel returns the identifier mapped to label.
func (h Hardware) Channel(label string) (string, bool) {
	return lookup(h.Channels, label)
}

// Field returns the value of a flattened device field.
func (h Hardware) Field(name string) (string, bool) {
	return lookup(h.Fields, name)
}

type Command struct {
	Time    string
	Port    string
	Baud    string
	Command string
}

func lookup(pairs []Pair, key string) (string, bool) {
	for _, p := range pairs {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// Node builds the YAML node tree of the document in canonical key order.
func (d *Document) Node() *yaml.Node {
	root := mappingNode()
	addScalar(root, KeyTestName, d.TestName)
	addScalar(root, KeySamplingFrequency, d.SamplingFrequency)
	addScalar(root, KeyMetadata, d.Metadata)

	output := mappingNode()
	if d.Output.CSV {
		addNode(output, SinkCSV, mappingNode())
	}
	if d.Output.Chronos {
		addNode(output, SinkChronos, mappingNode())
	}
	if in := d.Output.InfluxDB; in != nil {
		influx := mappingNode()
		addScalar(influx, "host", in.Host)
		addScalar(influx, "port", in.Port)
		addScalar(influx, "database", in.Database)
		addScalar(influx, "bucket", in.Bucket)
		addScalar(influx, "user", in.User)
		addScalar(influx, "password", in.Password)
		addNode(output, SinkInfluxDB, influx)
	}
	addNode(root, KeyOutput, output)

	hardware := sequenceNode()
	for _, h := range d.Hardware {
		entry := mappingNode()
		addScalar(entry, "name", h.Name)
		channels := mappingNode()
		for _, ch := range h.Channels {
			addScalar(channels, ch.Key, ch.Value)
		}
		addNode(entry, "channels", channels)
		for _, f := range h.Fields {
			addScalar(entry, f.Key, f.Value)
		}
		hardware.Content = append(hardware.Content, entry)
	}
	addNode(root, KeyHardware, hardware)

	commands := sequenceNode()
	for _, c := range d.Commands {
		entry := mappingNode()
		addScalar(entry, "time", c.Time)
		addScalar(entry, "port", c.Port)
		addScalar(entry, "baud", c.Baud)
		addScalar(entry, "command", c.Command)
		commands.Content = append(commands.Content, entry)
	}
	addNode(root, KeyCommands, commands)

	return root
}

func (d Document) MarshalYAML() (interface{}, error) {
	return d.Node(), nil
}

func (d *Document) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := fromNode(value)
	if err != nil {
		return err
	}
	*d = *parsed
	return nil
}

// MarshalJSON writes the document as a JSON object with the same key order
// as the YAML rendering.
func (d Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, d.Node()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (d *Document) UnmarshalJSON(data []byte) error {
	parsed, err := DecodeJSON(data)
	if err != nil {
		return err
	}
	*d = *parsed
	return nil
}

func mappingNode() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

func sequenceNode() *yaml.Node {
	return &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
}

func scalarNode(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
}

func addScalar(m *yaml.Node, key, value string) {
	addNode(m, key, scalarNode(value))
}

func addNode(m *yaml.Node, key string, value *yaml.Node) {
	m.Content = append(m.Content, scalarNode(key), value)
}

func writeJSON(buf *bytes.Buffer, n *yaml.Node) error {
	switch n.Kind {
	case yaml.MappingNode:
		buf.WriteByte('{')
		for i := 0; i+1 < len(n.Content); i += 2 {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(n.Content[i].Value)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := writeJSON(buf, n.Content[i+1]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case yaml.SequenceNode:
		buf.WriteByte('[')
		for i, item := range n.Content {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case yaml.ScalarNode:
		value, err := json.Marshal(n.Value)
		if err != nil {
			return err
		}
		buf.Write(value)
	default:
		return fmt.Errorf("unsupported node kind %d", n.Kind)
	}
	return nil
}
