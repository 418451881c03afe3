package websocket

import (
	"time"

	"github.com/KevinKickass/ScriptSynth/internal/editor"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// Editor preview after every commit
	MessageTypePreview MessageType = "preview"

	// Materialization outcomes
	MessageTypeSaveSucceeded MessageType = "save_succeeded"
	MessageTypeSaveFailed    MessageType = "save_failed"
)

// Message represents a WebSocket message
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// PreviewData carries the rendered preview text of one revision.
type PreviewData struct {
	Revision uint64 `json:"revision"`
	Text     string `json:"text"`
}

// SaveData describes the outcome of a save. Path is set on success, Error
// on failure.
type SaveData struct {
	Revision uint64 `json:"revision"`
	Path     string `json:"path,omitempty"`
	Error    string `json:"error,omitempty"`
}

// NewMessage creates a new message with current timestamp
func NewMessage(msgType MessageType, data interface{}) Message {
	return Message{
		Type:      msgType,
		Timestamp: time.Now(),
		Data:      data,
	}
}

func NewPreviewMessage(p editor.Preview) Message {
	return NewMessage(MessageTypePreview, PreviewData{
		Revision: p.Revision,
		Text:     p.Text,
	})
}

func NewSaveSucceededMessage(revision uint64, path string) Message {
	return NewMessage(MessageTypeSaveSucceeded, SaveData{
		Revision: revision,
		Path:     path,
	})
}

func NewSaveFailedMessage(revision uint64, err error) Message {
	return NewMessage(MessageTypeSaveFailed, SaveData{
		Revision: revision,
		Error:    err.Error(),
	})
}
