package types

import (
	"encoding/json"
	"fmt"
)

// Channel maps a logical channel label to a physical channel identifier.
type Channel struct {
	Label      string `json:"label"`
	Identifier string `json:"identifier"`
}

// ChannelMap is an insertion-ordered label -> identifier map. Labels are
// unique within one map only.
type ChannelMap struct {
	entries []Channel
}

// DefaultChannelLabel is the label AddDefault uses for a map of size n.
func DefaultChannelLabel(n int) string {
	return fmt.Sprintf("Channel %d", n)
}

// Len returns the number of channels.
func (m *ChannelMap) Len() int {
	return len(m.entries)
}

// AddDefault inserts "Channel {n}" with an empty identifier, n being the
// current size. An existing label of that name is reset to empty instead.
func (m *ChannelMap) AddDefault() string {
	label := DefaultChannelLabel(len(m.entries))
	m.Set(label, "")
	return label
}

// Set overwrites the identifier for label, appending the label if absent.
func (m *ChannelMap) Set(label, identifier string) {
	if i := m.indexOf(label); i >= 0 {
		m.entries[i].Identifier = identifier
		return
	}
	m.entries = append(m.entries, Channel{Label: label, Identifier: identifier})
}

// Get returns the identifier for label.
func (m *ChannelMap) Get(label string) (string, bool) {
	if i := m.indexOf(label); i >= 0 {
		return m.entries[i].Identifier, true
	}
	return "", false
}

// Remove deletes label, keeping the order of the remaining entries.
func (m *ChannelMap) Remove(label string) error {
	i := m.indexOf(label)
	if i < 0 {
		return fmt.Errorf("channel %q: %w", label, ErrUnknownChannel)
	}
	m.entries = append(m.entries[:i:i], m.entries[i+1:]...)
	return nil
}

// Entries returns a copy of the channels in insertion order.
func (m *ChannelMap) Entries() []Channel {
	out := make([]Channel, len(m.entries))
	copy(out, m.entries)
	return out
}

func (m *ChannelMap) Clone() ChannelMap {
	return ChannelMap{entries: m.Entries()}
}

func (m *ChannelMap) indexOf(label string) int {
	for i, ch := range m.entries {
		if ch.Label == label {
			return i
		}
	}
	return -1
}

func (m ChannelMap) MarshalJSON() ([]byte, error) {
	entries := m.entries
	if entries == nil {
		entries = []Channel{}
	}
	return json.Marshal(entries)
}

func (m *ChannelMap) UnmarshalJSON(data []byte) error {
	var entries []Channel
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	m.entries = nil
	for _, ch := range entries {
		m.Set(ch.Label, ch.Identifier)
	}
	return nil
}
