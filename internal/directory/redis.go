package directory

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"callboard/pkg/interfaces"
	"callboard/pkg/types"
)

// redis key per user: callboard:presence:<user>, a hash of status and
// last_seen. Offline keeps the record (last-seen survives disconnects);
// nothing here expires, the offline transition is explicit.
func presenceKey(userID string) string { return "callboard:presence:" + userID }

// RedisPresence is the redis-backed presence store, selected with
// presence_backend "redis". It shares the user->status view across
// processes, which is the seam for any future multi-process deployment;
// the sqlite store remains the default for single-node installs.
type RedisPresence struct {
	client *redis.Client
}

// NewRedisPresence connects to redis and verifies the connection.
func NewRedisPresence(ctx context.Context, addr, password string, db int) (*RedisPresence, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return &RedisPresence{client: client}, nil
}

// SetPresence writes a user's presence record. Unlike the sqlite store
// there is no account row to anchor to, so the record is created on first
// write.
func (s *RedisPresence) SetPresence(ctx context.Context, userID, status string, lastSeen time.Time) error {
	if !types.IsValidStatus(status) {
		return fmt.Errorf("invalid presence status %q", status)
	}
	return s.client.HSet(ctx, presenceKey(userID), map[string]interface{}{
		"status":    status,
		"last_seen": lastSeen.UTC().Format(time.RFC3339Nano),
	}).Err()
}

// GetPresence reads a user's presence record.
func (s *RedisPresence) GetPresence(ctx context.Context, userID string) (*types.PresenceRecord, error) {
	fields, err := s.client.HGetAll(ctx, presenceKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read presence for %s: %w", userID, err)
	}
	if len(fields) == 0 {
		return nil, interfaces.ErrUserNotFound
	}

	record := &types.PresenceRecord{UserID: userID, Status: fields["status"]}
	if raw := fields["last_seen"]; raw != "" {
		lastSeen, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, fmt.Errorf("corrupt last_seen for %s: %w", userID, err)
		}
		record.LastSeen = lastSeen
	}
	return record, nil
}

// HealthCheck verifies redis connectivity for the health endpoint.
func (s *RedisPresence) HealthCheck(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the redis client.
func (s *RedisPresence) Close() error {
	return s.client.Close()
}
