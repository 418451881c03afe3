package artifacts

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
)

// DefaultName is the artifact the editor downloads.
const DefaultName = "config.yaml"

var ErrNotFound = errors.New("artifact not found")

// Upload is one rendered document handed to a Store.
type Upload struct {
	Name     string
	Content  []byte // rendered YAML
	Document []byte // projected document as JSON
	TestName string
}

// Revision describes one stored version of an artifact.
type Revision struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Checksum  string    `json:"checksum"`
	Size      int       `json:"size"`
	TestName  string    `json:"test_name"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists rendered artifacts. Put replaces the current content of
// the artifact and records a new revision.
type Store interface {
	Backend() string
	Put(ctx context.Context, u Upload) (Revision, error)
	Get(ctx context.Context, name string) ([]byte, error)
	List(ctx context.Context, name string) ([]Revision, error)
}

// NewRevision stamps an upload with a fresh id, checksum and time.
func NewRevision(u Upload) Revision {
	sum := sha256.Sum256(u.Content)
	return Revision{
		ID:        uuid.New(),
		Name:      u.Name,
		Checksum:  hex.EncodeToString(sum[:]),
		Size:      len(u.Content),
		TestName:  u.TestName,
		CreatedAt: time.Now().UTC(),
	}
}
