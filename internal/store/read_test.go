package store

import (
	"context"
	"errors"
	"testing"
)

func TestReadCollection_EmptyStore(t *testing.T) {
	s := createTestStore(t)

	got, err := s.ReadCollection(context.Background())
	if err != nil {
		t.Fatalf("ReadCollection() failed: %v", err)
	}
	if got.Versions == nil {
		t.Error("Versions should be empty slice, not nil")
	}
	if len(got.Versions) != 0 || got.LastVersion != 0 {
		t.Errorf("ReadCollection() = %+v, want empty", got)
	}
}

func TestReadCollection_DerivesCounterWithoutMeta(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	// Rows written without a counter record, e.g. by an older build.
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("BeginTx() failed: %v", err)
	}
	for i, n := range []int64{7, 2} {
		if err := insertVersion(ctx, tx, i, createTestVersion(n)); err != nil {
			t.Fatalf("insertVersion() failed: %v", err)
		}
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit() failed: %v", err)
	}

	got, err := s.ReadCollection(ctx)
	if err != nil {
		t.Fatalf("ReadCollection() failed: %v", err)
	}
	if got.LastVersion != 7 {
		t.Errorf("LastVersion = %d, want 7", got.LastVersion)
	}
}

func TestReadCollection_TimestampsUTC(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	v := createTestVersion(1)
	if err := s.WriteCollection(ctx, collectionOf(v)); err != nil {
		t.Fatalf("WriteCollection() failed: %v", err)
	}

	got, err := s.ReadCollection(ctx)
	if err != nil {
		t.Fatalf("ReadCollection() failed: %v", err)
	}
	if !got.Versions[0].Timestamp.Equal(v.Timestamp) {
		t.Errorf("Timestamp = %v, want %v", got.Versions[0].Timestamp, v.Timestamp)
	}
	if got.Versions[0].Metadata.Timestamp.Location().String() != "UTC" {
		t.Errorf("Metadata.Timestamp location = %v, want UTC", got.Versions[0].Metadata.Timestamp.Location())
	}
}

func TestReadCollection_CorruptMetadata(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if err := s.WriteCollection(ctx, collectionOf(createTestVersion(1))); err != nil {
		t.Fatalf("WriteCollection() failed: %v", err)
	}
	if _, err := s.db.Exec(`UPDATE versions SET metadata = 'not json'`); err != nil {
		t.Fatalf("corrupt failed: %v", err)
	}

	if _, err := s.ReadCollection(ctx); err == nil {
		t.Error("expected error for corrupt metadata")
	}
}

func TestGetRecord_NotFound(t *testing.T) {
	s := createTestStore(t)

	var dst map[string]any
	err := s.GetRecord(context.Background(), "missing", &dst)
	if !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("GetRecord() error = %v, want ErrRecordNotFound", err)
	}
}

func TestGetRecord_CorruptBody(t *testing.T) {
	s := createTestStore(t)

	if _, err := s.db.Exec(`INSERT INTO records (name, body, updated_at) VALUES ('draft', '{', '2024-01-01T00:00:00Z')`); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	var dst map[string]any
	err := s.GetRecord(context.Background(), RecordDraft, &dst)
	if err == nil || errors.Is(err, ErrRecordNotFound) {
		t.Errorf("GetRecord() error = %v, want decode error", err)
	}
}
