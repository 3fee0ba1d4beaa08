package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteStore persists admission records in a SQLite database. It runs in
// write-ahead log (WAL) mode with periodic passive checkpoints, which keeps
// single-writer performance predictable for an append-mostly workload.
type SQLiteStore struct {
	db                 *sql.DB
	dbPath             string
	checkpointInterval time.Duration
	done               chan struct{}
	mu                 sync.RWMutex
	closeOnce          sync.Once

	insertStmt *sql.Stmt
	pruneStmt  *sql.Stmt
}

// SQLiteConfig configures the SQLite store.
type SQLiteConfig struct {
	// Path is the path to the SQLite database file.
	Path string

	// CheckpointInterval is how often to checkpoint the WAL.
	// Default: 5 minutes
	CheckpointInterval time.Duration

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// NewSQLiteStore opens (creating if necessary) the database at path with
// default settings.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	return NewSQLiteStoreWithConfig(SQLiteConfig{Path: path})
}

// NewSQLiteStoreWithConfig opens a SQLite store with custom configuration.
func NewSQLiteStoreWithConfig(cfg SQLiteConfig) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.CheckpointInterval == 0 {
		cfg.CheckpointInterval = 5 * time.Minute
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer. The single connection also
	// keeps the pragmas below in effect for every statement.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	store := &SQLiteStore{
		db:                 db,
		dbPath:             cfg.Path,
		checkpointInterval: cfg.CheckpointInterval,
		done:               make(chan struct{}),
	}

	if err := store.applyPragmas(cfg.BusyTimeout); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	if err := store.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	go store.checkpointLoop()

	return store, nil
}

// applyPragmas puts the connection in WAL mode with a relaxed sync level
// and the configured lock wait. Pragmas must be executed as statements:
// the modernc driver ignores mattn-style DSN parameters.
func (s *SQLiteStore) applyPragmas(busyTimeout time.Duration) error {
	if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return NewStorageError("sqlite", "enable_wal", err)
	}
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeout.Milliseconds())); err != nil {
		return NewStorageError("sqlite", "set_busy_timeout", err)
	}
	if _, err := s.db.Exec("PRAGMA synchronous=NORMAL;"); err != nil {
		return NewStorageError("sqlite", "set_synchronous", err)
	}
	return nil
}

// initSchema creates the records table if it doesn't exist. Decision times
// are stored as Unix nanoseconds.
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS admission_records (
		id TEXT PRIMARY KEY,
		recorded_at INTEGER NOT NULL,
		request_id TEXT,
		client_key TEXT NOT NULL,
		rule TEXT NOT NULL,
		strategy TEXT NOT NULL,
		allowed INTEGER NOT NULL,
		retry_after_seconds INTEGER NOT NULL,
		method TEXT,
		path TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_admission_recorded_at ON admission_records(recorded_at);
	CREATE INDEX IF NOT EXISTS idx_admission_client_key ON admission_records(client_key);
	`

	_, err := s.db.Exec(schema)
	return err
}

// prepareStatements prepares the hot-path SQL statements for reuse.
func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.insertStmt, err = s.db.Prepare(`
		INSERT INTO admission_records
			(id, recorded_at, request_id, client_key, rule, strategy, allowed, retry_after_seconds, method, path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}

	s.pruneStmt, err = s.db.Prepare(`
		DELETE FROM admission_records
		WHERE recorded_at < ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare prune statement: %w", err)
	}

	return nil
}

// Insert writes a record.
func (s *SQLiteStore) Insert(ctx context.Context, record *Record) error {
	if record == nil {
		return NewStorageError("sqlite", "insert", errNilRecord)
	}
	if record.ID == "" {
		return NewStorageError("sqlite", "insert", fmt.Errorf("record id cannot be empty"))
	}

	allowed := 0
	if record.Allowed {
		allowed = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.insertStmt.ExecContext(ctx,
		record.ID,
		record.Time.UnixNano(),
		record.RequestID,
		record.ClientKey,
		record.Rule,
		record.Strategy,
		allowed,
		record.RetryAfterSeconds,
		record.Method,
		record.Path,
	)
	if err != nil {
		return NewStorageError("sqlite", "insert", err)
	}
	return nil
}

// Query returns matching records, newest first.
func (s *SQLiteStore) Query(ctx context.Context, q Query) ([]*Record, error) {
	query := `
		SELECT id, recorded_at, request_id, client_key, rule, strategy, allowed, retry_after_seconds, method, path
		FROM admission_records`

	var conds []string
	var args []any

	if q.ClientKey != "" {
		conds = append(conds, "client_key = ?")
		args = append(args, q.ClientKey)
	}
	if q.Rule != "" {
		conds = append(conds, "rule = ?")
		args = append(args, q.Rule)
	}
	if q.Allowed != nil {
		allowed := 0
		if *q.Allowed {
			allowed = 1
		}
		conds = append(conds, "allowed = ?")
		args = append(args, allowed)
	}
	if !q.Since.IsZero() {
		conds = append(conds, "recorded_at >= ?")
		args = append(args, q.Since.UnixNano())
	}
	if !q.Until.IsZero() {
		conds = append(conds, "recorded_at < ?")
		args = append(args, q.Until.UnixNano())
	}

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	limit := q.Limit
	if limit <= 0 {
		limit = defaultQueryLimit
	}
	query += " ORDER BY recorded_at DESC LIMIT ?"
	args = append(args, limit)

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, NewStorageError("sqlite", "query", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		var (
			record     Record
			recordedAt int64
			allowed    int64
		)

		if err := rows.Scan(
			&record.ID,
			&recordedAt,
			&record.RequestID,
			&record.ClientKey,
			&record.Rule,
			&record.Strategy,
			&allowed,
			&record.RetryAfterSeconds,
			&record.Method,
			&record.Path,
		); err != nil {
			return nil, NewStorageError("sqlite", "query", err)
		}

		record.Time = time.Unix(0, recordedAt)
		record.Allowed = allowed != 0
		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, NewStorageError("sqlite", "query", err)
	}

	return records, nil
}

// Prune deletes records older than the given time.
func (s *SQLiteStore) Prune(ctx context.Context, olderThan time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.pruneStmt.ExecContext(ctx, olderThan.UnixNano())
	if err != nil {
		return 0, NewStorageError("sqlite", "prune", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, NewStorageError("sqlite", "prune", err)
	}

	return int(deleted), nil
}

// Ping reports whether the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return NewStorageError("sqlite", "ping", err)
	}
	return nil
}

// Close releases the store's resources. Close is idempotent.
func (s *SQLiteStore) Close() error {
	var closeErr error

	s.closeOnce.Do(func() {
		close(s.done)

		if s.insertStmt != nil {
			s.insertStmt.Close()
		}
		if s.pruneStmt != nil {
			s.pruneStmt.Close()
		}

		if s.db != nil {
			// Fold the WAL back into the main file before closing.
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
			closeErr = s.db.Close()
		}
	})

	return closeErr
}

// checkpointLoop runs periodic WAL checkpoints.
func (s *SQLiteStore) checkpointLoop() {
	ticker := time.NewTicker(s.checkpointInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(PASSIVE)")
		case <-s.done:
			return
		}
	}
}
