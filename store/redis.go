package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisStore keeps the session in a Redis hash and announces mutations on a
// pub/sub channel, so console processes on different hosts can share one
// session.
//
//	Keys: <prefix>:session (hash), <prefix>:changes (channel)
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
	origin string
	logger *zap.Logger

	mu     sync.Mutex
	subs   []*Subscription
	closed bool
}

// NewRedisStore creates a [RedisStore] handle. The client is owned by the
// caller and is not closed by [RedisStore.Close].
func NewRedisStore(client redis.UniversalClient, prefix string, logger *zap.Logger) *RedisStore {
	if prefix == "" {
		prefix = "farm2go"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{
		redis:  client,
		prefix: prefix,
		origin: uuid.NewString(),
		logger: logger,
	}
}

func (s *RedisStore) hashKey() string {
	return s.prefix + ":session"
}

func (s *RedisStore) channel() string {
	return s.prefix + ":changes"
}

// Origin implements [Store].
func (s *RedisStore) Origin() string {
	return s.origin
}

// Get implements [Store].
//
//	Performance: 1 Redis HGET.
func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	if s.isClosed() {
		return "", false, ErrClosed
	}
	v, err := s.redis.HGet(ctx, s.hashKey(), key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return v, true, nil
}

// Snapshot implements [Store].
//
//	Performance: 1 Redis HGETALL.
func (s *RedisStore) Snapshot(ctx context.Context) (Snapshot, error) {
	if s.isClosed() {
		return nil, ErrClosed
	}
	values, err := s.redis.HGetAll(ctx, s.hashKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return Snapshot(values), nil
}

// SetMany implements [Store]. The write is transactional; the change
// notification follows it.
//
//	Performance: MULTI/HSET/EXEC + PUBLISH.
func (s *RedisStore) SetMany(ctx context.Context, values map[string]string) error {
	if s.isClosed() {
		return ErrClosed
	}
	if len(values) == 0 {
		return nil
	}

	fields := make([]interface{}, 0, len(values)*2)
	keys := make([]string, 0, len(values))
	for k, v := range values {
		fields = append(fields, k, v)
		keys = append(keys, k)
	}

	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.hashKey(), fields...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	s.publish(ctx, Change{ID: uuid.NewString(), Origin: s.origin, Op: OpSet, Keys: sortedKeys(keys)})
	return nil
}

// Delete implements [Store].
//
//	Performance: 1 Redis HDEL (+ PUBLISH when something was removed).
func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if s.isClosed() {
		return ErrClosed
	}
	if len(keys) == 0 {
		return nil
	}

	removed, err := s.redis.HDel(ctx, s.hashKey(), keys...).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if removed == 0 {
		return nil
	}

	s.publish(ctx, Change{ID: uuid.NewString(), Origin: s.origin, Op: OpDelete, Keys: sortedKeys(keys)})
	return nil
}

// publish is best-effort: the data write already succeeded.
func (s *RedisStore) publish(ctx context.Context, c Change) {
	data, err := json.Marshal(c)
	if err != nil {
		s.logger.Warn("store: change encode failed", zap.Error(err))
		return
	}
	if err := s.redis.Publish(ctx, s.channel(), data).Err(); err != nil {
		s.logger.Warn("store: change publish failed", zap.String("channel", s.channel()), zap.Error(err))
	}
}

// Subscribe implements [Store]. The returned subscription is confirmed with
// the server before Subscribe returns.
func (s *RedisStore) Subscribe(ctx context.Context) (*Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	pubsub := s.redis.Subscribe(ctx, s.channel())
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	done := make(chan struct{})
	stopped := make(chan struct{})
	var sub *Subscription
	sub = newSubscription(func() {
		close(done)
		_ = pubsub.Close()
		<-stopped

		s.mu.Lock()
		s.subs = removeSubscription(s.subs, sub)
		s.mu.Unlock()
	})

	go func() {
		defer close(stopped)
		messages := pubsub.Channel()
		for {
			select {
			case <-done:
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var c Change
				if err := json.Unmarshal([]byte(msg.Payload), &c); err != nil {
					s.logger.Debug("store: ignoring malformed change", zap.Error(err))
					continue
				}
				if c.Origin == s.origin {
					continue
				}
				sub.deliver(c)
			}
		}
	}()

	s.subs = append(s.subs, sub)
	return sub, nil
}

// Ping reports the round-trip time to Redis.
func (s *RedisStore) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return time.Since(start), nil
}

// Close implements [Store].
func (s *RedisStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	subs := s.subs
	s.subs = nil
	s.mu.Unlock()

	for _, sub := range subs {
		_ = sub.Close()
	}
	return nil
}

func (s *RedisStore) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
