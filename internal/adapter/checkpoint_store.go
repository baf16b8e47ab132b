package adapter

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	m "sloth.dev/pkg/sloth/internal/model"
	"sloth.dev/pkg/sloth/pkg"
)

// Checkpoint backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// CheckpointStore persists the ranked population between runs.
type CheckpointStore interface {
	// Save replaces the stored population.
	Save(ctx context.Context, samples []*m.Sample) error

	// Load returns the last saved population. ok is false when nothing was saved.
	Load(ctx context.Context) (samples []*m.Sample, ok bool, err error)
}

// SampleRecord is the persisted shape of a sample. Lineage is not kept.
type SampleRecord struct {
	ID      string
	Text    string
	Metrics *m.Metrics
}

func toRecords(samples []*m.Sample) []SampleRecord {
	records := make([]SampleRecord, len(samples))
	for i, s := range samples {
		records[i] = SampleRecord{ID: s.ID, Text: s.Text, Metrics: s.Metrics}
	}

	return records
}

func fromRecord(r SampleRecord) *m.Sample {
	return m.NewSample(r.ID, r.Text, r.Metrics, nil)
}

// NewCheckpointStore builds a store for backend. SQLite stores are initialized.
func NewCheckpointStore(ctx context.Context, backend, path string) (CheckpointStore, error) {
	switch backend {
	case "", BackendFile:
		return NewFileCheckpointStore(path), nil
	case BackendSQLite:
		store := NewSQLiteCheckpointStore(path)
		if err := store.Init(ctx); err != nil {
			return nil, fmt.Errorf("failed to open sqlite checkpoint: %w", err)
		}

		return store, nil
	case BackendMemory:
		return NewMemoryCheckpointStore(), nil
	default:
		return nil, fmt.Errorf("unsupported checkpoint backend: %s", backend)
	}
}

// CloseCheckpointStore releases resources held by stores that have any.
func CloseCheckpointStore(store CheckpointStore) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}

	return closer.Close()
}

// FileCheckpointStore keeps the population in a gob file spill.
type FileCheckpointStore struct {
	path string
	mu   sync.Mutex
}

// NewFileCheckpointStore constructs a FileCheckpointStore writing to path.
func NewFileCheckpointStore(path string) *FileCheckpointStore {
	return &FileCheckpointStore{path: path}
}

// Save implements CheckpointStore.
func (s *FileCheckpointStore) Save(ctx context.Context, samples []*m.Sample) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	spill, err := pkg.CreateFileSpill[SampleRecord](s.path)
	if err != nil {
		return err
	}

	if err := spill.AppendBatch(toRecords(samples)); err != nil {
		_ = spill.Close()
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}

	return spill.Close()
}

// Load implements CheckpointStore.
func (s *FileCheckpointStore) Load(ctx context.Context) ([]*m.Sample, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	spill, err := pkg.OpenFileSpill[SampleRecord](s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("failed to read checkpoint: %w", err)
	}

	samples := make([]*m.Sample, 0, spill.Len())

	err = spill.Range(func(_ uint64, r SampleRecord) error {
		samples = append(samples, fromRecord(r))
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to read checkpoint: %w", err)
	}

	return samples, true, nil
}

// MemoryCheckpointStore keeps the population for the process lifetime only.
type MemoryCheckpointStore struct {
	mu      sync.RWMutex
	records []SampleRecord
	saved   bool
}

// NewMemoryCheckpointStore constructs an empty MemoryCheckpointStore.
func NewMemoryCheckpointStore() *MemoryCheckpointStore {
	return &MemoryCheckpointStore{}
}

// Save implements CheckpointStore.
func (s *MemoryCheckpointStore) Save(_ context.Context, samples []*m.Sample) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = toRecords(samples)
	s.saved = true

	return nil
}

// Load implements CheckpointStore.
func (s *MemoryCheckpointStore) Load(_ context.Context) ([]*m.Sample, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.saved {
		return nil, false, nil
	}

	samples := make([]*m.Sample, len(s.records))
	for i, r := range s.records {
		samples[i] = fromRecord(r)
	}

	return samples, true, nil
}

// SQLiteCheckpointStore keeps the population in a sqlite database, one row
// per sample in rank order.
type SQLiteCheckpointStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

// NewSQLiteCheckpointStore constructs a store for the database at path. Call Init before use.
func NewSQLiteCheckpointStore(path string) *SQLiteCheckpointStore {
	return &SQLiteCheckpointStore{path: path}
}

// Init opens the database and creates the schema.
func (s *SQLiteCheckpointStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}

	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createCheckpointTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db

	return nil
}

// Save implements CheckpointStore.
func (s *SQLiteCheckpointStore) Save(ctx context.Context, samples []*m.Sample) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM samples`); err != nil {
		return err
	}

	for i, r := range toRecords(samples) {
		var metrics []byte
		if r.Metrics != nil {
			if metrics, err = json.Marshal(r.Metrics); err != nil {
				return fmt.Errorf("encode metrics %s: %w", r.ID, err)
			}
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO samples (position, id, text, metrics)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				position = excluded.position,
				text = excluded.text,
				metrics = excluded.metrics
		`, i, r.ID, r.Text, metrics)
		if err != nil {
			return err
		}
	}

	snapshot := uuid.NewString()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO snapshot (slot, id, saved_at, size)
		VALUES (0, ?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET
			id = excluded.id,
			saved_at = excluded.saved_at,
			size = excluded.size
	`, snapshot, time.Now().UTC().Format(time.RFC3339Nano), len(samples))
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	slog.Debug("Saved checkpoint", "snapshot", snapshot, "size", len(samples))

	return nil
}

// Load implements CheckpointStore.
func (s *SQLiteCheckpointStore) Load(ctx context.Context) ([]*m.Sample, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, false, err
	}

	var snapshot string

	err = db.QueryRowContext(ctx, `SELECT id FROM snapshot WHERE slot = 0`).Scan(&snapshot)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}

		return nil, false, err
	}

	rows, err := db.QueryContext(ctx, `SELECT id, text, metrics FROM samples ORDER BY position`)
	if err != nil {
		return nil, false, err
	}

	defer func() {
		_ = rows.Close()
	}()

	var samples []*m.Sample

	for rows.Next() {
		var (
			r       SampleRecord
			metrics []byte
		)

		if err := rows.Scan(&r.ID, &r.Text, &metrics); err != nil {
			return nil, false, err
		}

		if len(metrics) > 0 {
			r.Metrics = &m.Metrics{}
			if err := json.Unmarshal(metrics, r.Metrics); err != nil {
				return nil, false, fmt.Errorf("decode metrics %s: %w", r.ID, err)
			}
		}

		samples = append(samples, fromRecord(r))
	}

	if err := rows.Err(); err != nil {
		return nil, false, err
	}

	return samples, true, nil
}

// Close releases the database handle.
func (s *SQLiteCheckpointStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	err := s.db.Close()
	s.db = nil

	return err
}

func (s *SQLiteCheckpointStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("store is not initialized")
	}

	return s.db, nil
}

func createCheckpointTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS samples (
			position INTEGER NOT NULL,
			id TEXT PRIMARY KEY,
			text TEXT NOT NULL,
			metrics BLOB
		);
		CREATE TABLE IF NOT EXISTS snapshot (
			slot INTEGER PRIMARY KEY,
			id TEXT NOT NULL,
			saved_at TEXT NOT NULL,
			size INTEGER NOT NULL
		);
	`)

	return err
}
