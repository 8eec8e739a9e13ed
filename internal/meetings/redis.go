package meetings

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/krether/huddle/internal/app"
	"github.com/krether/huddle/internal/domain"
)

const defaultKeyPrefix = "huddle:"

// RedisConfig configures the Redis-backed read model.
type RedisConfig struct {
	// Client is the Redis client to use. If nil, a default client
	// pointed at localhost is created.
	Client redis.UniversalClient
	// KeyPrefix is prepended to every key. Defaults to "huddle:".
	KeyPrefix string
}

// RedisStore reads the records the meeting service keeps in Redis: a
// hash `<prefix>session:<code>` with title/host_id/status, and a set
// `<prefix>members:<code>` of registered participant ids.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisStore(cfg RedisConfig) *RedisStore {
	client := cfg.Client
	if client == nil {
		client = redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

// Close closes the underlying Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) sessionKey(code domain.SessionCode) string {
	return s.prefix + "session:" + string(code)
}

func (s *RedisStore) membersKey(code domain.SessionCode) string {
	return s.prefix + "members:" + string(code)
}

func (s *RedisStore) ResolveSession(ctx context.Context, code domain.SessionCode) (domain.SessionInfo, error) {
	fields, err := s.client.HGetAll(ctx, s.sessionKey(code)).Result()
	if err != nil {
		return domain.SessionInfo{}, fmt.Errorf("failed to read session %s: %w", code, err)
	}
	if len(fields) == 0 {
		return domain.SessionInfo{}, app.ErrSessionNotFound
	}
	return domain.SessionInfo{
		Code:   code,
		Title:  fields["title"],
		HostID: domain.ParticipantID(fields["host_id"]),
		Status: domain.SessionStatus(fields["status"]),
	}, nil
}

func (s *RedisStore) ConfirmMembership(ctx context.Context, code domain.SessionCode, id domain.Identity) (bool, error) {
	info, err := s.ResolveSession(ctx, code)
	if err != nil {
		return false, err
	}
	if info.HostID == id.ID {
		return true, nil
	}
	member, err := s.client.SIsMember(ctx, s.membersKey(code), string(id.ID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check membership of %s in %s: %w", id.ID, code, err)
	}
	return member, nil
}

// WriteSession stores a record the way the meeting service does.
// Exercised by fixtures and seed tooling; production records are
// written by the meeting service itself.
func (s *RedisStore) WriteSession(ctx context.Context, info domain.SessionInfo, members ...domain.ParticipantID) error {
	if err := s.client.HSet(ctx, s.sessionKey(info.Code), map[string]any{
		"title":   info.Title,
		"host_id": string(info.HostID),
		"status":  string(info.Status),
	}).Err(); err != nil {
		return fmt.Errorf("failed to write session %s: %w", info.Code, err)
	}
	if len(members) == 0 {
		return nil
	}
	vals := make([]any, 0, len(members))
	for _, p := range members {
		vals = append(vals, string(p))
	}
	if err := s.client.SAdd(ctx, s.membersKey(info.Code), vals...).Err(); err != nil {
		return fmt.Errorf("failed to write members of %s: %w", info.Code, err)
	}
	return nil
}
