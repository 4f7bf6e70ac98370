package store

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/valkey-io/valkey-go"
)

const storeRetries = 3

// ValkeyConfig carries the connection parameters for the shared store.
type ValkeyConfig struct {
	Address  string
	Password string
	UseTLS   bool
}

// ValkeyStore is the production Store, backed by a Valkey/Redis instance.
type ValkeyStore struct {
	client valkey.Client
	cfg    ValkeyConfig
	mu     sync.Mutex
}

func NewValkeyStore(cfg ValkeyConfig) (*ValkeyStore, error) {
	client, err := dial(cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*3)
	defer cancel()

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		return nil, fmt.Errorf("[ValkeyStore] failed to ping valkey: %w", err)
	}

	slog.Info("[ValkeyStore] Successfully connected to valkey")
	return &ValkeyStore{client: client, cfg: cfg}, nil
}

func dial(cfg ValkeyConfig) (valkey.Client, error) {
	opts := valkey.ClientOption{
		InitAddress:      []string{cfg.Address},
		Password:         cfg.Password,
		ConnWriteTimeout: 5 * time.Second,
		SelectDB:         0,
	}
	if cfg.UseTLS {
		opts.TLSConfig = &tls.Config{InsecureSkipVerify: false}
	}

	client, err := valkey.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("[ValkeyStore] failed to create valkey client: %w", err)
	}
	return client, nil
}

func (s *ValkeyStore) Close() {
	s.client.Close()
}

func (s *ValkeyStore) recreateClient() {
	s.mu.Lock()
	defer s.mu.Unlock()

	slog.Warn("[ValkeyStore] Attempting to recreate valkey client...")
	s.client.Close()

	client, err := dial(s.cfg)
	if err != nil {
		slog.Error("[ValkeyStore] Recreate failed",
			slog.String("error", err.Error()))
		return
	}
	s.client = client
}

func (s *ValkeyStore) do(ctx context.Context, completed valkey.Completed) valkey.ValkeyResult {
	var result valkey.ValkeyResult
	for i := 0; i < storeRetries; i++ {
		result = s.client.Do(ctx, completed)
		err := result.Error()
		if err == nil || valkey.IsValkeyNil(err) {
			break
		}

		slog.Warn("[ValkeyStore] Command failed",
			slog.Int("attempt", i+1),
			slog.String("error", err.Error()))

		if isConnectionError(err) {
			s.recreateClient()
		}
		time.Sleep(250 * time.Millisecond)
	}
	return result
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "EOF") ||
		strings.Contains(msg, "i/o timeout")
}

func (s *ValkeyStore) Get(ctx context.Context, key string) (string, bool, error) {
	res := s.do(ctx, s.client.B().Get().Key(key).Build())
	value, err := res.ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

func (s *ValkeyStore) Set(ctx context.Context, key, value string) error {
	return s.do(ctx, s.client.B().Set().Key(key).Value(value).Build()).Error()
}

func (s *ValkeyStore) SetEx(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.do(ctx, s.client.B().Set().Key(key).Value(value).Ex(ttl).Build()).Error()
}

func (s *ValkeyStore) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.do(ctx, s.client.B().Del().Key(keys...).Build()).Error()
}

func (s *ValkeyStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return s.do(ctx, s.client.B().Expire().Key(key).Seconds(int64(ttl.Seconds())).Build()).Error()
}

func (s *ValkeyStore) HSetAll(ctx context.Context, key string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}

	builder := s.client.B().Hset().Key(key).FieldValue()
	for field, value := range fields {
		builder = builder.FieldValue(field, value)
	}
	return s.do(ctx, builder.Build()).Error()
}

func (s *ValkeyStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	res := s.do(ctx, s.client.B().Hgetall().Key(key).Build())
	fields, err := res.AsStrMap()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	return fields, nil
}

func (s *ValkeyStore) ZAdd(ctx context.Context, key string, members ...ZMember) error {
	if len(members) == 0 {
		return nil
	}

	builder := s.client.B().Zadd().Key(key).ScoreMember()
	for _, m := range members {
		builder = builder.ScoreMember(m.Score, m.Member)
	}
	return s.do(ctx, builder.Build()).Error()
}

func (s *ValkeyStore) ZRangeByScore(ctx context.Context, key string, max float64) ([]ZMember, error) {
	cmd := s.client.B().Zrangebyscore().Key(key).
		Min("-inf").
		Max(strconv.FormatFloat(max, 'f', -1, 64)).
		Withscores().
		Build()

	scores, err := s.do(ctx, cmd).AsZScores()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, nil
		}
		return nil, err
	}

	members := make([]ZMember, 0, len(scores))
	for _, z := range scores {
		members = append(members, ZMember{Member: z.Member, Score: z.Score})
	}
	return members, nil
}

func (s *ValkeyStore) ZRem(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	return s.do(ctx, s.client.B().Zrem().Key(key).Member(members...).Build()).Error()
}

func (s *ValkeyStore) ZCard(ctx context.Context, key string) (int64, error) {
	return s.do(ctx, s.client.B().Zcard().Key(key).Build()).AsInt64()
}
