package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBlacklist(t *testing.T) (*Blacklist, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewBlacklist(client, nil), mr
}

func TestBlacklist_AddAndContains(t *testing.T) {
	bl, mr := newTestBlacklist(t)
	ctx := context.Background()

	found, err := bl.Contains(ctx, "token-a")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, bl.Add(ctx, "token-a", 600*time.Second))

	found, err = bl.Contains(ctx, "token-a")
	require.NoError(t, err)
	assert.True(t, found)

	val, err := mr.Get(DefaultKeyPrefix + "token-a")
	require.NoError(t, err)
	assert.Equal(t, "true", val)
	assert.Equal(t, 600*time.Second, mr.TTL(DefaultKeyPrefix+"token-a"))
}

func TestBlacklist_EntryExpires(t *testing.T) {
	bl, mr := newTestBlacklist(t)
	ctx := context.Background()

	require.NoError(t, bl.Add(ctx, "token-b", 10*time.Second))

	mr.FastForward(9 * time.Second)
	found, err := bl.Contains(ctx, "token-b")
	require.NoError(t, err)
	assert.True(t, found)

	mr.FastForward(2 * time.Second)
	found, err = bl.Contains(ctx, "token-b")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestBlacklist_RejectsNonPositiveTTL(t *testing.T) {
	bl, _ := newTestBlacklist(t)
	assert.Error(t, bl.Add(context.Background(), "token-c", 0))
}

func TestBlacklist_ServerDown(t *testing.T) {
	bl, mr := newTestBlacklist(t)
	mr.Close()

	ctx := context.Background()
	assert.Error(t, bl.Add(ctx, "token-d", time.Minute))
	_, err := bl.Contains(ctx, "token-d")
	assert.Error(t, err)
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := Connect(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	_ = client.Close()

	_, err = Connect(context.Background(), "not a url")
	assert.Error(t, err)
}
