package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xiebiao/bookshop/internal/domain/order"
	apperrors "github.com/xiebiao/bookshop/pkg/errors"
)

// IdempotencyStore 下单幂等键
//
// Key：idem:order:{user_id}:{Idempotency-Key}
// Value：{fingerprint}|{order_id}，order_id为0表示请求仍在处理
//
// 1. Begin：SETNX占位；已存在时按记录返回已创建的订单ID或冲突错误
// 2. Complete：事务提交后写入订单ID
// 3. Abort：下单失败时删除占位，允许客户端用同一个key重试
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotencyStore ttl<=0时使用24小时
func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyStore{client: client, ttl: ttl}
}

func idempotencyKey(userID uint, key string) string {
	return fmt.Sprintf("idem:order:%d:%s", userID, key)
}

// Begin 占用幂等键
// 返回值：首次请求返回0；重复请求返回之前创建的订单ID
func (s *IdempotencyStore) Begin(ctx context.Context, userID uint, key, fingerprint string) (uint, error) {
	redisKey := idempotencyKey(userID, key)
	for attempt := 0; attempt < 2; attempt++ {
		ok, err := s.client.SetNX(ctx, redisKey, encodeRecord(fingerprint, 0), s.ttl).Result()
		if err != nil {
			return 0, apperrors.Wrap(err, "占用幂等键失败")
		}
		if ok {
			return 0, nil
		}

		raw, err := s.client.Get(ctx, redisKey).Result()
		if errors.Is(err, redis.Nil) {
			// 占位恰好过期或被Abort删除，按首次请求再试一次
			continue
		}
		if err != nil {
			return 0, apperrors.Wrap(err, "读取幂等键失败")
		}
		return resolveRecord(raw, fingerprint)
	}
	// 两次都被其他请求抢先又释放，让客户端稍后重试
	return 0, order.ErrRequestInFlight
}

// Complete 记录幂等键对应的订单
func (s *IdempotencyStore) Complete(ctx context.Context, userID uint, key, fingerprint string, orderID uint) error {
	if err := s.client.Set(ctx, idempotencyKey(userID, key), encodeRecord(fingerprint, orderID), s.ttl).Err(); err != nil {
		return apperrors.Wrap(err, "保存幂等键失败")
	}
	return nil
}

// Abort 释放幂等键
func (s *IdempotencyStore) Abort(ctx context.Context, userID uint, key string) error {
	if err := s.client.Del(ctx, idempotencyKey(userID, key)).Err(); err != nil {
		return apperrors.Wrap(err, "释放幂等键失败")
	}
	return nil
}

func encodeRecord(fingerprint string, orderID uint) string {
	return fingerprint + "|" + strconv.FormatUint(uint64(orderID), 10)
}

// resolveRecord 根据已有记录判断重复请求的结果
func resolveRecord(raw, fingerprint string) (uint, error) {
	fp, idText, found := strings.Cut(raw, "|")
	if !found {
		return 0, apperrors.Internal("幂等键记录格式错误", fmt.Errorf("bad record %q", raw))
	}
	if fp != fingerprint {
		return 0, order.ErrIdempotencyKeyReused
	}
	id, err := strconv.ParseUint(idText, 10, 64)
	if err != nil {
		return 0, apperrors.Internal("幂等键记录格式错误", err)
	}
	if id == 0 {
		return 0, order.ErrRequestInFlight
	}
	return uint(id), nil
}
