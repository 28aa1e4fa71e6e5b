package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"notty-go/internal/database/migrations"
	"notty-go/internal/notty"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// ErrOperationNotFound is returned when finishing an operation id that was never started.
var ErrOperationNotFound = errors.New("operation not found")

// SQLiteHistory implements notty.History on a SQLite database.
type SQLiteHistory struct {
	db    *sql.DB
	idgen notty.IDGenerator
	path  string
}

var _ notty.History = (*SQLiteHistory)(nil)

// NewSQLiteHistory opens (creating if needed) the history database at path.
// A database that has never been migrated is migrated; one at any other
// version must pass CheckDBMigrationStatus.
func NewSQLiteHistory(path string, idgen notty.IDGenerator) (*SQLiteHistory, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	fresh, err := migrations.NeedsMigration(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	if fresh {
		if err := migrations.MigrateUp(db); err != nil {
			db.Close()
			return nil, err
		}
	} else if err := migrations.CheckDBMigrationStatus(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("history database %s: %w", path, err)
	}

	return NewSQLiteHistoryFromDB(db, idgen, path), nil
}

// NewSQLiteHistoryFromDB wraps an existing, already migrated connection.
func NewSQLiteHistoryFromDB(db *sql.DB, idgen notty.IDGenerator, path string) *SQLiteHistory {
	if idgen == nil {
		idgen = notty.UUIDGenerator{}
	}
	return &SQLiteHistory{db: db, idgen: idgen, path: path}
}

// OpenConnection opens and configures a SQLite connection.
// path can be a file path or ":memory:" for an in-memory database.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if path == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	return db, nil
}

// Path returns the database file path, or ":memory:".
func (s *SQLiteHistory) Path() string { return s.path }

func (s *SQLiteHistory) StartOperation(repository, name, parameters string, startedAt time.Time) (string, error) {
	id := s.idgen.New()
	_, err := s.db.Exec(
		`INSERT INTO operations (id, repository, operation, parameters, status, started_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, repository, name, parameters, string(notty.OperationRunning), startedAt.UnixNano(),
	)
	if err != nil {
		return "", fmt.Errorf("recording operation %s: %w", name, err)
	}
	return id, nil
}

func (s *SQLiteHistory) FinishOperation(id string, status notty.OperationStatus, finishedAt time.Time) error {
	res, err := s.db.Exec(
		`UPDATE operations SET status = ?, finished_at = ? WHERE id = ?`,
		string(status), finishedAt.UnixNano(), id,
	)
	if err != nil {
		return fmt.Errorf("finishing operation %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finishing operation %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrOperationNotFound, id)
	}
	return nil
}

func (s *SQLiteHistory) RecentOperations(repository string, limit int) ([]*notty.Operation, error) {
	if limit <= 0 {
		return nil, nil
	}

	query := `SELECT id, repository, operation, parameters, status, started_at, finished_at
	          FROM operations`
	args := []any{}
	if repository != "" {
		query += ` WHERE repository = ?`
		args = append(args, repository)
	}
	query += ` ORDER BY started_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying operations: %w", err)
	}
	defer rows.Close()

	var ops []*notty.Operation
	for rows.Next() {
		var (
			op       notty.Operation
			status   string
			started  int64
			finished sql.NullInt64
		)
		if err := rows.Scan(&op.ID, &op.Repository, &op.Name, &op.Parameters, &status, &started, &finished); err != nil {
			return nil, fmt.Errorf("scanning operation: %w", err)
		}
		op.Status = notty.OperationStatus(status)
		op.StartedAt = time.Unix(0, started)
		if finished.Valid {
			op.FinishedAt = time.Unix(0, finished.Int64)
		}
		ops = append(ops, &op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating operations: %w", err)
	}
	return ops, nil
}

func (s *SQLiteHistory) Close() error {
	return s.db.Close()
}
