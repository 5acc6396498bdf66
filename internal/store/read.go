package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/promptlab/internal/prompt"
)

// ErrRecordNotFound is returned by GetRecord when no document has the name.
var ErrRecordNotFound = errors.New("record not found")

// ReadCollection returns the stored version collection, newest first.
// Results are ordered deterministically by position.
//
// Returns an empty (non-nil) Versions slice when nothing has been saved.
func (s *Store) ReadCollection(ctx context.Context) (prompt.Collection, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, version, system_prompt, user_prompt, variables, model,
		       temperature, max_tokens, output, metadata, note, created_at, fingerprint
		FROM versions
		ORDER BY position ASC
	`)
	if err != nil {
		return prompt.Collection{}, fmt.Errorf("query versions: %w", err)
	}
	defer rows.Close()

	versions := []prompt.Version{}
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return prompt.Collection{}, err
		}
		versions = append(versions, v)
	}

	if err := rows.Err(); err != nil {
		return prompt.Collection{}, fmt.Errorf("iterate versions: %w", err)
	}
	// Release the single connection before reading the counter record.
	rows.Close()

	var meta versionsMeta
	if err := s.GetRecord(ctx, recordVersionsMeta, &meta); err != nil && !errors.Is(err, ErrRecordNotFound) {
		return prompt.Collection{}, err
	}

	coll := prompt.Collection{LastVersion: meta.LastVersion, Versions: versions}
	// Collections written before the counter existed derive it from their records.
	coll.LastVersion = coll.HighWater()
	return coll, nil
}

// GetRecord decodes the named JSON document into dst.
// Returns ErrRecordNotFound if the record does not exist.
func (s *Store) GetRecord(ctx context.Context, name string, dst any) error {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM records WHERE name = ?`, name).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("get record %q: %w", name, ErrRecordNotFound)
	}
	if err != nil {
		return fmt.Errorf("get record %q: %w", name, err)
	}

	if err := unmarshalDocument(body, dst); err != nil {
		return fmt.Errorf("get record %q: %w", name, err)
	}
	return nil
}

// scanVersion scans a row into a Version struct.
func scanVersion(rows *sql.Rows) (prompt.Version, error) {
	var v prompt.Version
	var metaJSON, createdAt string

	if err := rows.Scan(
		&v.ID, &v.Version, &v.SystemPrompt, &v.UserPrompt, &v.Variables, &v.Model,
		&v.Temperature, &v.MaxTokens, &v.Output, &metaJSON, &v.Note, &createdAt, &v.Fingerprint,
	); err != nil {
		return prompt.Version{}, fmt.Errorf("scan version: %w", err)
	}

	meta, err := unmarshalMetadata(metaJSON)
	if err != nil {
		return prompt.Version{}, fmt.Errorf("scan version %s: %w", v.ID, err)
	}
	v.Metadata = meta

	ts, err := parseTime(createdAt)
	if err != nil {
		return prompt.Version{}, fmt.Errorf("scan version %s: %w", v.ID, err)
	}
	v.Timestamp = ts

	return v, nil
}
