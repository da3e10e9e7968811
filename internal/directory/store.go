package directory

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	// sqlite driver, referenced only through the connection string.
	_ "github.com/mattn/go-sqlite3"

	"callboard/pkg/database"
	"callboard/pkg/interfaces"
	"callboard/pkg/types"
)

// Store is the sqlite-backed directory client: user records with their
// presence status and last-seen timestamp. All mutations funnel through a
// single writer goroutine, which is how sqlite stays contention-free under
// concurrent presence transitions; reads go straight to the pool.
type Store struct {
	db       *sql.DB
	config   *database.Config
	writeCh  chan writeOperation
	shutdown chan struct{}
	wg       sync.WaitGroup
	closed   bool
	mu       sync.RWMutex
}

type writeOperation struct {
	operation func(*sql.DB) error
	result    chan error
}

// NewStore opens the directory database and prepares its schema.
func NewStore(config *database.Config) (*Store, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid database config: %w", err)
	}

	db, err := sql.Open("sqlite3", config.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open directory database: %w", err)
	}

	db.SetMaxOpenConns(config.MaxConnections)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)
	db.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	if err := database.Bootstrap(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := database.ValidateSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	store := &Store{
		db:       db,
		config:   config,
		writeCh:  make(chan writeOperation, 100),
		shutdown: make(chan struct{}),
	}

	store.wg.Add(1)
	go store.writeLoop()

	return store, nil
}

func (s *Store) writeLoop() {
	defer s.wg.Done()

	for {
		select {
		case op := <-s.writeCh:
			op.result <- op.operation(s.db)
		case <-s.shutdown:
			return
		}
	}
}

func (s *Store) executeWrite(operation func(*sql.DB) error) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return interfaces.ErrStoreClosed
	}
	s.mu.RUnlock()

	result := make(chan error, 1)

	select {
	case s.writeCh <- writeOperation{operation: operation, result: result}:
		return <-result
	case <-time.After(30 * time.Second):
		return fmt.Errorf("directory write timed out")
	case <-s.shutdown:
		return interfaces.ErrStoreClosed
	}
}

// EnsureUser creates a user row if it does not exist yet. Registration
// proper lives in the account service; this seeds rows for deployments and
// tests. New rows start offline with no last-seen, per the presence
// record's implicit creation rule.
func (s *Store) EnsureUser(ctx context.Context, userID, username, displayName string) error {
	if !types.IsValidUserID(userID) {
		return fmt.Errorf("invalid user id %q", userID)
	}
	return s.executeWrite(func(db *sql.DB) error {
		_, err := db.ExecContext(ctx, `
			INSERT INTO users (id, username, display_name, presence_status, last_seen)
			VALUES (?, ?, ?, ?, '')
			ON CONFLICT(id) DO NOTHING
		`, userID, username, displayName, types.StatusOffline)
		if err != nil {
			return fmt.Errorf("failed to ensure user %s: %w", userID, err)
		}
		return nil
	})
}

// SetPresence updates an existing user's presence record. A transition for
// an unknown user reports ErrUserNotFound and writes nothing: presence
// records exist only for registered accounts.
func (s *Store) SetPresence(ctx context.Context, userID, status string, lastSeen time.Time) error {
	if !types.IsValidStatus(status) {
		return fmt.Errorf("invalid presence status %q", status)
	}
	return s.executeWrite(func(db *sql.DB) error {
		result, err := db.ExecContext(ctx, `
			UPDATE users SET presence_status = ?, last_seen = ? WHERE id = ?
		`, status, lastSeen.UTC().Format(time.RFC3339Nano), userID)
		if err != nil {
			return fmt.Errorf("failed to update presence for %s: %w", userID, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check presence update for %s: %w", userID, err)
		}
		if affected == 0 {
			return interfaces.ErrUserNotFound
		}
		return nil
	})
}

// GetPresence reads a user's presence record.
func (s *Store) GetPresence(ctx context.Context, userID string) (*types.PresenceRecord, error) {
	var status, lastSeenRaw string
	err := s.db.QueryRowContext(ctx, `
		SELECT presence_status, last_seen FROM users WHERE id = ?
	`, userID).Scan(&status, &lastSeenRaw)
	if err == sql.ErrNoRows {
		return nil, interfaces.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query presence for %s: %w", userID, err)
	}

	record := &types.PresenceRecord{UserID: userID, Status: status}
	if lastSeenRaw != "" {
		lastSeen, err := time.Parse(time.RFC3339Nano, lastSeenRaw)
		if err != nil {
			return nil, fmt.Errorf("corrupt last_seen for %s: %w", userID, err)
		}
		record.LastSeen = lastSeen
	}
	return record, nil
}

// HealthCheck verifies database connectivity for the health endpoint.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close stops the writer goroutine and closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.shutdown)
	s.wg.Wait()

	if err := s.db.Close(); err != nil {
		log.Printf("Error closing directory database: %v", err)
		return err
	}
	return nil
}
