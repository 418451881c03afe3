package storage

import (
	"time"

	"github.com/google/uuid"
)

// ArtifactRow is the current content of one artifact.
type ArtifactRow struct {
	Name       string    `json:"name"`
	Content    []byte    `json:"content"`
	RevisionID uuid.UUID `json:"revision_id"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// RevisionRow is one stored version, including the submitted document.
type RevisionRow struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Checksum  string    `json:"checksum"`
	Size      int       `json:"size"`
	TestName  string    `json:"test_name"`
	Document  []byte    `json:"document"` // JSONB
	CreatedAt time.Time `json:"created_at"`
}
