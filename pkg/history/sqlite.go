package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteStore persists resolution history in a SQLite database. It uses
// write-ahead logging for concurrent read performance and prepared
// statements for the hot paths.
type SQLiteStore struct {
	db        *sql.DB
	closeOnce sync.Once

	recordStmt *sql.Stmt
	listStmt   *sql.Stmt
}

// SQLiteConfig configures the SQLite history store.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds.
	BusyTimeout time.Duration
}

// NewSQLiteStore opens (creating if necessary) a history database at path
// with default settings.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	return NewSQLiteStoreWithConfig(SQLiteConfig{Path: path})
}

// NewSQLiteStoreWithConfig opens a history database with custom settings.
func NewSQLiteStoreWithConfig(cfg SQLiteConfig) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cfg.Path, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	// SQLite only supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	store := &SQLiteStore{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}
	if err := store.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare history statements: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS resolutions (
		id TEXT PRIMARY KEY,
		resolved_at INTEGER NOT NULL,
		trigger_source TEXT NOT NULL,
		outcome TEXT NOT NULL,
		snapshot_id TEXT,
		fingerprint TEXT,
		violations TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_resolutions_resolved_at ON resolutions(resolved_at);
	CREATE INDEX IF NOT EXISTS idx_resolutions_outcome ON resolutions(outcome);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.recordStmt, err = s.db.Prepare(`
		INSERT INTO resolutions (id, resolved_at, trigger_source, outcome, snapshot_id, fingerprint, violations)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare record statement: %w", err)
	}

	s.listStmt, err = s.db.Prepare(`
		SELECT id, resolved_at, trigger_source, outcome, snapshot_id, fingerprint, violations
		FROM resolutions
		ORDER BY resolved_at DESC, id DESC
		LIMIT ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare list statement: %w", err)
	}

	return nil
}

// Record implements Store.
func (s *SQLiteStore) Record(ctx context.Context, entry Entry) error {
	if entry.ID == "" {
		return fmt.Errorf("entry id cannot be empty")
	}

	var violationsJSON []byte
	if len(entry.Violations) > 0 {
		var err error
		violationsJSON, err = json.Marshal(entry.Violations)
		if err != nil {
			return fmt.Errorf("failed to serialize violations: %w", err)
		}
	}

	_, err := s.recordStmt.ExecContext(ctx,
		entry.ID,
		entry.Time.UnixNano(),
		entry.Trigger,
		string(entry.Outcome),
		entry.SnapshotID,
		entry.Fingerprint,
		string(violationsJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to record resolution: %w", err)
	}
	return nil
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.listStmt.QueryContext(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query resolutions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry          Entry
			resolvedAt     int64
			outcome        string
			violationsJSON sql.NullString
		)
		if err := rows.Scan(&entry.ID, &resolvedAt, &entry.Trigger, &outcome,
			&entry.SnapshotID, &entry.Fingerprint, &violationsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan resolution row: %w", err)
		}
		entry.Time = time.Unix(0, resolvedAt).UTC()
		entry.Outcome = Outcome(outcome)
		if violationsJSON.Valid && violationsJSON.String != "" {
			if err := json.Unmarshal([]byte(violationsJSON.String), &entry.Violations); err != nil {
				return nil, fmt.Errorf("failed to deserialize violations: %w", err)
			}
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate resolutions: %w", err)
	}
	return entries, nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if s.recordStmt != nil {
			s.recordStmt.Close()
		}
		if s.listStmt != nil {
			s.listStmt.Close()
		}
		err = s.db.Close()
	})
	return err
}
