package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/promptlab/internal/prompt"
)

// Named records. Each holds one JSON document replaced wholesale on write.
const (
	RecordDraft    = "draft"
	RecordSession  = "session"
	RecordAccounts = "accounts"

	recordVersionsMeta = "versions_meta"
)

// versionsMeta is the document stored under recordVersionsMeta.
type versionsMeta struct {
	LastVersion int64 `json:"last_version"`
}

// WriteCollection replaces the stored version collection with coll.
//
// The delete, the inserts and the counter update run in one transaction, so
// readers observe either the previous collection or the new one. Position 0 is
// the first element of coll.Versions (the newest record). The transaction is
// retried while another process holds the database lock.
func (s *Store) WriteCollection(ctx context.Context, coll prompt.Collection) error {
	return withBusyRetry(ctx, func() error {
		return s.writeCollection(ctx, coll)
	})
}

func (s *Store) writeCollection(ctx context.Context, coll prompt.Collection) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write collection: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if _, err := tx.ExecContext(ctx, `DELETE FROM versions`); err != nil {
		return fmt.Errorf("write collection: clear: %w", err)
	}

	for i, v := range coll.Versions {
		if err := insertVersion(ctx, tx, i, v); err != nil {
			return fmt.Errorf("write collection: %w", err)
		}
	}

	if err := putRecordTx(ctx, tx, recordVersionsMeta, versionsMeta{LastVersion: coll.HighWater()}, s.now()); err != nil {
		return fmt.Errorf("write collection: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write collection: commit: %w", err)
	}

	return nil
}

// insertVersion writes a single version row at the given position.
func insertVersion(ctx context.Context, tx *sql.Tx, position int, v prompt.Version) error {
	metaJSON, err := marshalMetadata(v.Metadata)
	if err != nil {
		return fmt.Errorf("insert version %s: %w", v.ID, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO versions
		(id, position, version, system_prompt, user_prompt, variables, model,
		 temperature, max_tokens, output, metadata, note, created_at, fingerprint)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		v.ID,
		position,
		v.Version,
		v.SystemPrompt,
		v.UserPrompt,
		v.Variables,
		v.Model,
		v.Temperature,
		v.MaxTokens,
		v.Output,
		metaJSON,
		v.Note,
		formatTime(v.Timestamp),
		v.Fingerprint,
	)
	if err != nil {
		return fmt.Errorf("insert version %s: %w", v.ID, err)
	}
	return nil
}

// PutRecord stores v as JSON under name, replacing any previous document.
func (s *Store) PutRecord(ctx context.Context, name string, v any) error {
	return withBusyRetry(ctx, func() error {
		return s.putRecord(ctx, name, v)
	})
}

func (s *Store) putRecord(ctx context.Context, name string, v any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("put record %q: begin tx: %w", name, err)
	}
	defer tx.Rollback()

	if err := putRecordTx(ctx, tx, name, v, s.now()); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("put record %q: commit: %w", name, err)
	}
	return nil
}

// DeleteRecord removes the named record. Deleting a missing record is not an
// error.
func (s *Store) DeleteRecord(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE name = ?`, name); err != nil {
		return fmt.Errorf("delete record %q: %w", name, err)
	}
	return nil
}

func putRecordTx(ctx context.Context, tx *sql.Tx, name string, v any, now time.Time) error {
	body, err := marshalDocument(v)
	if err != nil {
		return fmt.Errorf("put record %q: %w", name, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO records (name, body, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at
	`, name, body, formatTime(now))
	if err != nil {
		return fmt.Errorf("put record %q: %w", name, err)
	}
	return nil
}
