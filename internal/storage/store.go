package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"chatsync/internal/metrics"

	"github.com/jmoiron/sqlx"
)

const (
	driverPostgres = "postgres"
	driverSQLite   = "sqlite"
)

func init() {
	sqlx.BindDriver(driverSQLite, sqlx.QUESTION)
}

const (
	selectMessage = `
		SELECT id, channel_id, author_id, created_at, thread_id
		FROM messages
		WHERE id = ?
	`

	selectThread = `
		SELECT id, parent_channel_id, name, archived, auto_archive_duration, locked, type
		FROM threads
		WHERE id = ?
	`

	insertMessage = `
		INSERT INTO messages (id, channel_id, author_id, created_at, thread_id)
		VALUES (:id, :channel_id, :author_id, :created_at, :thread_id)
	`

	insertThread = `
		INSERT INTO threads (id, parent_channel_id, name, archived, auto_archive_duration, locked, type)
		VALUES (:id, :parent_channel_id, :name, :archived, :auto_archive_duration, :locked, :type)
	`

	onConflictDoNothing = ` ON CONFLICT (id) DO NOTHING`
)

// SQLStore implements Store on PostgreSQL or SQLite
type SQLStore struct {
	db     *sqlx.DB
	driver string
}

// Open connects to the database named by databaseURL.
// postgres:// and postgresql:// URLs use lib/pq; sqlite:// and file: URLs use modernc sqlite.
func Open(databaseURL string) (*SQLStore, error) {
	driver, dsn, err := resolveDriver(databaseURL)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driver == driverSQLite {
		// SQLite allows a single writer
		db.SetMaxOpenConns(1)
	}

	return &SQLStore{db: db, driver: driver}, nil
}

func resolveDriver(databaseURL string) (driver, dsn string, err error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return driverPostgres, databaseURL, nil
	case strings.HasPrefix(databaseURL, "sqlite://"):
		return driverSQLite, sqliteDSN("file:" + strings.TrimPrefix(databaseURL, "sqlite://")), nil
	case strings.HasPrefix(databaseURL, "file:"):
		return driverSQLite, sqliteDSN(databaseURL), nil
	default:
		return "", "", fmt.Errorf("unsupported database URL scheme: %q", databaseURL)
	}
}

func sqliteDSN(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"
}

// GetMessage returns the message with the given ID, or nil if none exists
func (s *SQLStore) GetMessage(ctx context.Context, id string) (_ *Message, err error) {
	defer observe("get_message", time.Now(), &err)

	var msg Message
	err = s.db.GetContext(ctx, &msg, s.db.Rebind(selectMessage), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}

	return &msg, nil
}

// GetThread returns the thread with the given ID, or nil if none exists
func (s *SQLStore) GetThread(ctx context.Context, id string) (_ *Thread, err error) {
	defer observe("get_thread", time.Now(), &err)

	var thread Thread
	err = s.db.GetContext(ctx, &thread, s.db.Rebind(selectThread), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get thread: %w", err)
	}

	return &thread, nil
}

// CreateMessage inserts a message row; an existing ID yields ErrDuplicate
func (s *SQLStore) CreateMessage(ctx context.Context, msg *Message) (err error) {
	defer observe("create_message", time.Now(), &err)

	if _, err = s.db.NamedExecContext(ctx, insertMessage, msg); err != nil {
		return wrapWriteError("message", msg.ID, err)
	}
	return nil
}

// CreateThread inserts a thread row; an existing ID yields ErrDuplicate
func (s *SQLStore) CreateThread(ctx context.Context, thread *Thread) (err error) {
	defer observe("create_thread", time.Now(), &err)

	if _, err = s.db.NamedExecContext(ctx, insertThread, thread); err != nil {
		return wrapWriteError("thread", thread.ID, err)
	}
	return nil
}

// CreateMessageIfAbsent inserts a message row unless its ID already exists.
// It reports whether a row was written.
func (s *SQLStore) CreateMessageIfAbsent(ctx context.Context, msg *Message) (_ bool, err error) {
	defer observe("create_message_if_absent", time.Now(), &err)

	res, err := s.db.NamedExecContext(ctx, insertMessage+onConflictDoNothing, msg)
	if err != nil {
		return false, wrapWriteError("message", msg.ID, err)
	}
	return inserted(res)
}

// CreateThreadIfAbsent inserts a thread row unless its ID already exists.
// It reports whether a row was written.
func (s *SQLStore) CreateThreadIfAbsent(ctx context.Context, thread *Thread) (_ bool, err error) {
	defer observe("create_thread_if_absent", time.Now(), &err)

	res, err := s.db.NamedExecContext(ctx, insertThread+onConflictDoNothing, thread)
	if err != nil {
		return false, wrapWriteError("thread", thread.ID, err)
	}
	return inserted(res)
}

// Ping verifies the database is reachable
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func inserted(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}

func wrapWriteError(kind, id string, err error) error {
	if isUniqueViolation(err) {
		return fmt.Errorf("failed to create %s %s: %w: %w", kind, id, ErrDuplicate, err)
	}
	return fmt.Errorf("failed to create %s %s: %w", kind, id, err)
}

func observe(operation string, start time.Time, errp *error) {
	status := "success"
	if *errp != nil {
		status = "error"
	}
	metrics.DatabaseOperations.WithLabelValues(operation, status).Inc()
	metrics.DatabaseOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
