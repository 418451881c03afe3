package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"
)

const indent = 2

// ErrMalformed is returned by Decode for input that does not have the
// document shape.
var ErrMalformed = errors.New("malformed document")

// Render serializes doc as YAML with 2-space indentation. The output is a
// pure function of doc.
func Render(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(indent)
	if err := enc.Encode(doc.Node()); err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to flush document: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses YAML text into a Document, keeping key order. Absent keys
// decode as empty values.
func Decode(data []byte) (*Document, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return fromNode(&node)
}

// DecodeJSON parses a JSON document. Objects are read token by token so
// key order survives.
func DecodeJSON(data []byte) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	node, err := jsonNode(dec)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("trailing data after document: %w", ErrMalformed)
	}
	return fromNode(node)
}

// jsonNode reads one JSON value from dec as a yaml.Node, so both formats
// share fromNode.
func jsonNode(dec *json.Decoder) (*yaml.Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			n := mappingNode()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("object key is not a string: %w", ErrMalformed)
				}
				value, err := jsonNode(dec)
				if err != nil {
					return nil, err
				}
				addNode(n, key, value)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return n, nil
		case '[':
			n := sequenceNode()
			for dec.More() {
				item, err := jsonNode(dec)
				if err != nil {
					return nil, err
				}
				n.Content = append(n.Content, item)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return n, nil
		}
		return nil, fmt.Errorf("unexpected delimiter %q: %w", v, ErrMalformed)
	case string:
		return scalarNode(v), nil
	case json.Number:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: v.String()}, nil
	case bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(v)}, nil
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	}
	return nil, fmt.Errorf("unexpected token %v: %w", tok, ErrMalformed)
}

func fromNode(n *yaml.Node) (*Document, error) {
	if n.Kind == yaml.DocumentNode {
		if len(n.Content) == 0 {
			return nil, fmt.Errorf("empty input: %w", ErrMalformed)
		}
		n = n.Content[0]
	}
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("root is not a mapping: %w", ErrMalformed)
	}

	doc := &Document{
		Hardware: make([]Hardware, 0),
		Commands: make([]Command, 0),
	}

	err := eachPair(n, "root", func(key string, value *yaml.Node) error {
		var err error
		switch key {
		case KeyTestName:
			doc.TestName, err = scalar(value, key)
		case KeySamplingFrequency:
			doc.SamplingFrequency, err = scalar(value, key)
		case KeyMetadata:
			doc.Metadata, err = scalar(value, key)
		case KeyOutput:
			doc.Output, err = decodeOutput(value)
		case KeyHardware:
			doc.Hardware, err = decodeHardware(value)
		case KeyCommands:
			doc.Commands, err = decodeCommands(value)
		default:
			err = fmt.Errorf("unknown root key %q: %w", key, ErrMalformed)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func decodeOutput(n *yaml.Node) (Output, error) {
	var out Output
	if isNull(n) {
		return out, nil
	}
	err := eachPair(n, KeyOutput, func(key string, value *yaml.Node) error {
		switch key {
		case SinkCSV:
			out.CSV = true
		case SinkChronos:
			out.Chronos = true
		case SinkInfluxDB:
			in := &Influx{}
			err := eachPair(value, SinkInfluxDB, func(field string, v *yaml.Node) error {
				s, err := scalar(v, SinkInfluxDB+"."+field)
				if err != nil {
					return err
				}
				switch field {
				case "host":
					in.Host = s
				case "port":
					in.Port = s
				case "database":
					in.Database = s
				case "bucket":
					in.Bucket = s
				case "user":
					in.User = s
				case "password":
					in.Password = s
				default:
					return fmt.Errorf("unknown InfluxDB key %q: %w", field, ErrMalformed)
				}
				return nil
			})
			if err != nil {
				return err
			}
			out.InfluxDB = in
		default:
			return fmt.Errorf("unknown output sink %q: %w", key, ErrMalformed)
		}
		return nil
	})
	return out, err
}

func decodeHardware(n *yaml.Node) ([]Hardware, error) {
	out := make([]Hardware, 0)
	if isNull(n) {
		return out, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("hardware is not a sequence: %w", ErrMalformed)
	}
	for i, item := range n.Content {
		where := fmt.Sprintf("hardware[%d]", i)
		h := Hardware{
			Channels: make([]Pair, 0),
			Fields:   make([]Pair, 0),
		}
		err := eachPair(item, where, func(key string, value *yaml.Node) error {
			switch key {
			case "name":
				s, err := scalar(value, where+".name")
				h.Name = s
				return err
			case "channels":
				if isNull(value) {
					return nil
				}
				return eachPair(value, where+".channels", func(label string, v *yaml.Node) error {
					s, err := scalar(v, where+".channels."+label)
					h.Channels = append(h.Channels, Pair{Key: label, Value: s})
					return err
				})
			default:
				s, err := scalar(value, where+"."+key)
				h.Fields = append(h.Fields, Pair{Key: key, Value: s})
				return err
			}
		})
		if err != nil {
			return nil, err
		}
		if h.Name == "" {
			return nil, fmt.Errorf("%s has no name: %w", where, ErrMalformed)
		}
		out = append(out, h)
	}
	return out, nil
}

func decodeCommands(n *yaml.Node) ([]Command, error) {
	out := make([]Command, 0)
	if isNull(n) {
		return out, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("commands is not a sequence: %w", ErrMalformed)
	}
	for i, item := range n.Content {
		where := fmt.Sprintf("commands[%d]", i)
		var c Command
		err := eachPair(item, where, func(key string, value *yaml.Node) error {
			s, err := scalar(value, where+"."+key)
			if err != nil {
				return err
			}
			switch key {
			case "time":
				c.Time = s
			case "port":
				c.Port = s
			case "baud":
				c.Baud = s
			case "command":
				c.Command = s
			default:
				return fmt.Errorf("unknown command key %q: %w", key, ErrMalformed)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// eachPair walks a mapping in order. A key repeated within one mapping is
// malformed: the rendered file would not load.
func eachPair(n *yaml.Node, where string, fn func(key string, value *yaml.Node) error) error {
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("%s is not a mapping: %w", where, ErrMalformed)
	}
	seen := make(map[string]struct{}, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i].Value
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%s has duplicate key %q: %w", where, key, ErrMalformed)
		}
		seen[key] = struct{}{}
		if err := fn(key, n.Content[i+1]); err != nil {
			return err
		}
	}
	return nil
}

// scalar accepts any scalar and keeps its literal text, so an unquoted
// 5000 in a hand-edited file decodes to "5000". Null decodes to "".
func scalar(n *yaml.Node, where string) (string, error) {
	if n.Kind != yaml.ScalarNode {
		return "", fmt.Errorf("%s is not a scalar: %w", where, ErrMalformed)
	}
	if isNull(n) {
		return "", nil
	}
	return n.Value, nil
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null"
}
