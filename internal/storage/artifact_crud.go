package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/KevinKickass/ScriptSynth/internal/artifacts"
	"github.com/jackc/pgx/v5"
)

// PostgresStore implements artifacts.Store on top of PostgresClient.
type PostgresStore struct {
	client *PostgresClient
}

func NewPostgresStore(client *PostgresClient) *PostgresStore {
	return &PostgresStore{client: client}
}

func (s *PostgresStore) Backend() string { return "postgres" }

// Put records a revision and upserts the current content in one transaction.
func (s *PostgresStore) Put(ctx context.Context, u artifacts.Upload) (artifacts.Revision, error) {
	rev := artifacts.NewRevision(u)

	tx, err := s.client.pool.Begin(ctx)
	if err != nil {
		return artifacts.Revision{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	document := u.Document
	if len(document) == 0 {
		document = []byte("{}")
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO artifact_revisions (id, name, checksum, size, test_name, document, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, rev.ID, rev.Name, rev.Checksum, rev.Size, rev.TestName, document, rev.CreatedAt)
	if err != nil {
		return artifacts.Revision{}, fmt.Errorf("failed to insert revision: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO artifacts (name, content, revision_id, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name)
		DO UPDATE SET
			content = EXCLUDED.content,
			revision_id = EXCLUDED.revision_id,
			updated_at = EXCLUDED.updated_at
	`, rev.Name, u.Content, rev.ID, rev.CreatedAt)
	if err != nil {
		return artifacts.Revision{}, fmt.Errorf("failed to upsert artifact: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return artifacts.Revision{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return rev, nil
}

func (s *PostgresStore) Get(ctx context.Context, name string) ([]byte, error) {
	var row ArtifactRow
	err := s.client.pool.QueryRow(ctx, `
		SELECT name, content, revision_id, updated_at
		FROM artifacts
		WHERE name = $1
	`, name).Scan(&row.Name, &row.Content, &row.RevisionID, &row.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", name, artifacts.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query artifact: %w", err)
	}

	return row.Content, nil
}

// List returns revisions newest first.
func (s *PostgresStore) List(ctx context.Context, name string) ([]artifacts.Revision, error) {
	rows, err := s.client.pool.Query(ctx, `
		SELECT id, name, checksum, size, test_name, document, created_at
		FROM artifact_revisions
		WHERE name = $1
		ORDER BY created_at DESC
	`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query revisions: %w", err)
	}
	defer rows.Close()

	revisions := make([]artifacts.Revision, 0)

	for rows.Next() {
		var row RevisionRow
		if err := rows.Scan(&row.ID, &row.Name, &row.Checksum, &row.Size, &row.TestName, &row.Document, &row.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan revision: %w", err)
		}

		revisions = append(revisions, artifacts.Revision{
			ID:        row.ID,
			Name:      row.Name,
			Checksum:  row.Checksum,
			Size:      row.Size,
			TestName:  row.TestName,
			CreatedAt: row.CreatedAt,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate revisions: %w", err)
	}

	return revisions, nil
}
