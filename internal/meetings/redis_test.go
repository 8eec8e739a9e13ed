package meetings

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krether/huddle/internal/app"
	"github.com/krether/huddle/internal/domain"
)

func TestRedisStore(t *testing.T) {
	// Skip if Redis is not available.
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	ctx := context.Background()

	prefix := fmt.Sprintf("huddle-test:%d:", time.Now().UnixNano())
	store := NewRedisStore(RedisConfig{Client: client, KeyPrefix: prefix})
	t.Cleanup(func() { _ = store.Close() })

	info := domain.SessionInfo{
		Code:   "12345678901",
		Title:  "Retro",
		HostID: "alice",
		Status: domain.StatusActive,
	}
	require.NoError(t, store.WriteSession(ctx, info, "bob"))

	t.Run("resolve", func(t *testing.T) {
		got, err := store.ResolveSession(ctx, info.Code)
		require.NoError(t, err)
		assert.Equal(t, info, got)

		_, err = store.ResolveSession(ctx, "00000000000")
		assert.ErrorIs(t, err, app.ErrSessionNotFound)
	})

	t.Run("membership", func(t *testing.T) {
		for id, want := range map[domain.ParticipantID]bool{"alice": true, "bob": true, "mallory": false} {
			ok, err := store.ConfirmMembership(ctx, info.Code, domain.Identity{ID: id})
			require.NoError(t, err)
			assert.Equal(t, want, ok, "membership of %s", id)
		}

		_, err := store.ConfirmMembership(ctx, "00000000000", domain.Identity{ID: "alice"})
		assert.ErrorIs(t, err, app.ErrSessionNotFound)
	})
}
