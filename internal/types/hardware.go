package types

import (
	"encoding/json"
	"fmt"
)

type HardwareKind string

const (
	HardwareKindStride         HardwareKind = "STRIDE"
	HardwareKindNIDAQ          HardwareKind = "NIDAQ"
	HardwareKindSPANUARTClient HardwareKind = "SPANUARTClient"
	HardwareKindADAM           HardwareKind = "ADAM"
)

// HardwareKinds lists every supported kind in display order.
var HardwareKinds = []HardwareKind{
	HardwareKindStride,
	HardwareKindNIDAQ,
	HardwareKindSPANUARTClient,
	HardwareKindADAM,
}

func ParseHardwareKind(s string) (HardwareKind, error) {
	for _, k := range HardwareKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%q: %w", s, ErrUnknownKind)
}

// Field is one named scalar of a hardware or command record.
type Field struct {
	Name  string
	Value string
}

type fieldRef struct {
	name string
	ptr  *string
}

// Device is the kind-specific part of a hardware entry. Implementations
// enumerate their fields in document order.
type Device interface {
	Kind() HardwareKind
	refs() []fieldRef
	clone() Device
}

type StrideDevice struct {
	Host      string
	Units     string
	InputType string
}

func (d *StrideDevice) Kind() HardwareKind { return HardwareKindStride }

func (d *StrideDevice) refs() []fieldRef {
	return []fieldRef{
		{"host", &d.Host},
		{"units", &d.Units},
		{"input_type", &d.InputType},
	}
}

func (d *StrideDevice) clone() Device {
	cp := *d
	return &cp
}

type NIDAQDevice struct {
	HWType          string
	Interface       string
	Device          string
	TerminalConfig  string
	AcquisitionType string
	SamplingFreq    string
	BufferSize      string
	CagePosition    string
}

func (d *NIDAQDevice) Kind() HardwareKind { return HardwareKindNIDAQ }

func (d *NIDAQDevice) refs() []fieldRef {
	return []fieldRef{
		{"hw_type", &d.HWType},
		{"interface", &d.Interface},
		{"device", &d.Device},
		{"terminal_config", &d.TerminalConfig},
		{"acquisition_type", &d.AcquisitionType},
		{"sampling_freq", &d.SamplingFreq},
		{"buffer_size", &d.BufferSize},
		{"cage_position", &d.CagePosition},
	}
}

func (d *NIDAQDevice) clone() Device {
	cp := *d
	return &cp
}

type SPANUARTClientDevice struct {
	ModuleType     string
	ModulePosition string
	Port           string
	Baud           string
	ReadTimeoutS   string
	Version        string
	CmdDelayMs     string
}

func (d *SPANUARTClientDevice) Kind() HardwareKind { return HardwareKindSPANUARTClient }

func (d *SPANUARTClientDevice) refs() []fieldRef {
	return []fieldRef{
		{"module_type", &d.ModuleType},
		{"module_position", &d.ModulePosition},
		{"port", &d.Port},
		{"baud", &d.Baud},
		{"read_timeout_s", &d.ReadTimeoutS},
		{"version", &d.Version},
		{"cmd_delay_ms", &d.CmdDelayMs},
	}
}

func (d *SPANUARTClientDevice) clone() Device {
	cp := *d
	return &cp
}

type ADAMDevice struct {
	HWType    string
	Host      string
	InputType string
}

func (d *ADAMDevice) Kind() HardwareKind { return HardwareKindADAM }

func (d *ADAMDevice) refs() []fieldRef {
	return []fieldRef{
		{"hw_type", &d.HWType},
		{"host", &d.Host},
		{"input_type", &d.InputType},
	}
}

func (d *ADAMDevice) clone() Device {
	cp := *d
	return &cp
}

// NewDevice returns a device of the given kind populated with its defaults.
func NewDevice(kind HardwareKind) (Device, error) {
	switch kind {
	case HardwareKindStride:
		return &StrideDevice{}, nil
	case HardwareKindNIDAQ:
		return &NIDAQDevice{
			TerminalConfig:  "RSE",
			AcquisitionType: "FINITE",
			SamplingFreq:    "5000",
			BufferSize:      "20000",
		}, nil
	case HardwareKindSPANUARTClient:
		return &SPANUARTClientDevice{
			Baud:         "115200",
			ReadTimeoutS: "0.25",
			CmdDelayMs:   "100",
		}, nil
	case HardwareKindADAM:
		return &ADAMDevice{HWType: "Data Acquisition Module"}, nil
	default:
		return nil, fmt.Errorf("%q: %w", kind, ErrUnknownKind)
	}
}

// FieldNames returns the field schema of kind in document order.
func FieldNames(kind HardwareKind) ([]string, error) {
	d, err := NewDevice(kind)
	if err != nil {
		return nil, err
	}
	refs := d.refs()
	names := make([]string, len(refs))
	for i, r := range refs {
		names[i] = r.name
	}
	return names, nil
}

// HardwareEntry is one configured device together with its channel map.
type HardwareEntry struct {
	Device   Device
	Channels ChannelMap
}

func NewHardwareEntry(kind HardwareKind) (HardwareEntry, error) {
	device, err := NewDevice(kind)
	if err != nil {
		return HardwareEntry{}, err
	}
	return HardwareEntry{Device: device}, nil
}

func (h HardwareEntry) Kind() HardwareKind {
	return h.Device.Kind()
}

// Fields returns the kind-specific fields in document order.
func (h HardwareEntry) Fields() []Field {
	return collect(h.Device.refs())
}

// SetField writes one field defined by the entry's kind.
func (h HardwareEntry) SetField(name, value string) error {
	return assign(h.Device.refs(), string(h.Kind()), name, value)
}

// Field returns the value of one field defined by the entry's kind.
func (h HardwareEntry) Field(name string) (string, bool) {
	for _, r := range h.Device.refs() {
		if r.name == name {
			return *r.ptr, true
		}
	}
	return "", false
}

func (h HardwareEntry) Clone() HardwareEntry {
	return HardwareEntry{
		Device:   h.Device.clone(),
		Channels: h.Channels.Clone(),
	}
}

type hardwareJSON struct {
	Kind     HardwareKind      `json:"kind"`
	Fields   map[string]string `json:"fields"`
	Channels ChannelMap        `json:"channels"`
}

func (h HardwareEntry) MarshalJSON() ([]byte, error) {
	fields := make(map[string]string)
	for _, f := range h.Fields() {
		fields[f.Name] = f.Value
	}
	return json.Marshal(hardwareJSON{
		Kind:     h.Kind(),
		Fields:   fields,
		Channels: h.Channels,
	})
}

func (h *HardwareEntry) UnmarshalJSON(data []byte) error {
	var raw hardwareJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	entry, err := NewHardwareEntry(raw.Kind)
	if err != nil {
		return err
	}
	for name, value := range raw.Fields {
		if err := entry.SetField(name, value); err != nil {
			return err
		}
	}
	entry.Channels = raw.Channels
	*h = entry
	return nil
}
