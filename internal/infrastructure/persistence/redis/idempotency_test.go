package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/bookshop/internal/domain/order"
	apperrors "github.com/xiebiao/bookshop/pkg/errors"
)

func TestResolveRecord(t *testing.T) {
	t.Run("已完成的请求返回订单ID", func(t *testing.T) {
		id, err := resolveRecord(encodeRecord("abc", 42), "abc")
		require.NoError(t, err)
		assert.Equal(t, uint(42), id)
	})

	t.Run("处理中", func(t *testing.T) {
		_, err := resolveRecord(encodeRecord("abc", 0), "abc")
		assert.ErrorIs(t, err, order.ErrRequestInFlight)
		assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
	})

	t.Run("内容不一致", func(t *testing.T) {
		_, err := resolveRecord(encodeRecord("abc", 42), "xyz")
		assert.ErrorIs(t, err, order.ErrIdempotencyKeyReused)
	})

	t.Run("格式错误", func(t *testing.T) {
		_, err := resolveRecord("garbage", "abc")
		assert.True(t, apperrors.IsKind(err, apperrors.KindInternal))

		_, err = resolveRecord("abc|x", "abc")
		assert.True(t, apperrors.IsKind(err, apperrors.KindInternal))
	})
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "idem:order:7:k-1", idempotencyKey(7, "k-1"))
	assert.Equal(t, "session:7", sessionKey(7))
	assert.Equal(t, "blacklist:tok", blacklistKey("tok"))
}

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

// racingHook 模拟另一个请求在SET NX与GET之间释放占位（drop），
// 以及在下一次SET NX之前又抢先占位（refill）
type racingHook struct {
	mr     *miniredis.Miniredis
	key    string
	drops  int
	refill bool
}

func (h *racingHook) DialHook(next redis.DialHook) redis.DialHook { return next }

func (h *racingHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		switch {
		case cmd.Name() == "get" && h.drops > 0:
			h.drops--
			h.mr.Del(h.key)
		case cmd.Name() == "set" && h.refill:
			_ = h.mr.Set(h.key, encodeRecord("other", 0))
		}
		return next(ctx, cmd)
	}
}

func (h *racingHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func TestIdempotencyStore_Lifecycle(t *testing.T) {
	mr, client := newTestClient(t)
	store := NewIdempotencyStore(client, time.Hour)
	ctx := context.Background()
	key := idempotencyKey(7, "k-1")

	id, err := store.Begin(ctx, 7, "k-1", "fp")
	require.NoError(t, err)
	assert.Zero(t, id)
	assert.Equal(t, time.Hour, mr.TTL(key))

	_, err = store.Begin(ctx, 7, "k-1", "fp")
	assert.ErrorIs(t, err, order.ErrRequestInFlight)
	_, err = store.Begin(ctx, 7, "k-1", "other")
	assert.ErrorIs(t, err, order.ErrIdempotencyKeyReused)

	// 不同用户的同名key互不影响
	id, err = store.Begin(ctx, 8, "k-1", "other")
	require.NoError(t, err)
	assert.Zero(t, id)

	require.NoError(t, store.Complete(ctx, 7, "k-1", "fp", 42))
	id, err = store.Begin(ctx, 7, "k-1", "fp")
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)
	assert.Equal(t, time.Hour, mr.TTL(key))

	require.NoError(t, store.Abort(ctx, 7, "k-1"))
	assert.False(t, mr.Exists(key))
	id, err = store.Begin(ctx, 7, "k-1", "fp")
	require.NoError(t, err)
	assert.Zero(t, id)

	// 过期后按首次请求处理
	mr.FastForward(time.Hour + time.Second)
	id, err = store.Begin(ctx, 7, "k-1", "changed")
	require.NoError(t, err)
	assert.Zero(t, id)
}

func TestIdempotencyStore_DefaultTTL(t *testing.T) {
	mr, client := newTestClient(t)
	store := NewIdempotencyStore(client, 0)

	_, err := store.Begin(context.Background(), 1, "k", "fp")
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, mr.TTL(idempotencyKey(1, "k")))
}

func TestIdempotencyStore_PlaceholderReleasedBetweenCommands(t *testing.T) {
	mr, client := newTestClient(t)
	key := idempotencyKey(7, "k-1")
	require.NoError(t, mr.Set(key, encodeRecord("other", 0)))
	client.AddHook(&racingHook{mr: mr, key: key, drops: 1})
	store := NewIdempotencyStore(client, time.Hour)

	id, err := store.Begin(context.Background(), 7, "k-1", "fp")
	require.NoError(t, err)
	assert.Zero(t, id)

	raw, err := mr.Get(key)
	require.NoError(t, err)
	assert.Equal(t, encodeRecord("fp", 0), raw)
}

func TestIdempotencyStore_GivesUpAfterSecondRace(t *testing.T) {
	mr, client := newTestClient(t)
	key := idempotencyKey(7, "k-1")
	client.AddHook(&racingHook{mr: mr, key: key, drops: 2, refill: true})
	store := NewIdempotencyStore(client, time.Hour)

	_, err := store.Begin(context.Background(), 7, "k-1", "fp")
	assert.ErrorIs(t, err, order.ErrRequestInFlight)
}

func TestIdempotencyStore_RedisUnavailable(t *testing.T) {
	mr, client := newTestClient(t)
	store := NewIdempotencyStore(client, time.Hour)
	mr.Close()

	_, err := store.Begin(context.Background(), 7, "k-1", "fp")
	assert.True(t, apperrors.IsKind(err, apperrors.KindInternal))
	assert.True(t, apperrors.IsKind(store.Complete(context.Background(), 7, "k-1", "fp", 1), apperrors.KindInternal))
	assert.True(t, apperrors.IsKind(store.Abort(context.Background(), 7, "k-1"), apperrors.KindInternal))
}

func TestSessionStore(t *testing.T) {
	mr, client := newTestClient(t)
	store := NewSessionStore(client)
	ctx := context.Background()

	require.NoError(t, store.SaveSession(ctx, 7, map[string]any{"role": "staff", "ip": "10.0.0.1"}, 2*time.Hour))
	assert.Equal(t, "staff", mr.HGet(sessionKey(7), "role"))
	assert.Equal(t, 2*time.Hour, mr.TTL(sessionKey(7)))

	require.NoError(t, store.DeleteSession(ctx, 7))
	assert.False(t, mr.Exists(sessionKey(7)))

	// 已过期的token不需要进黑名单
	require.NoError(t, store.AddToBlacklist(ctx, "expired", 0))
	revoked, err := store.IsInBlacklist(ctx, "expired")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.AddToBlacklist(ctx, "tok", time.Minute))
	revoked, err = store.IsInBlacklist(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.Equal(t, time.Minute, mr.TTL(blacklistKey("tok")))

	mr.FastForward(time.Minute + time.Second)
	revoked, err = store.IsInBlacklist(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, revoked)
}
