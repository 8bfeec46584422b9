package redisinfra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/quick-orders/internal/domain"
	"github.com/redis/go-redis/v9"
)

// compareAndDelete deletes KEYS[1] only when its JSON value carries record id ARGV[1].
var compareAndDelete = redis.NewScript(`
	local raw = redis.call('GET', KEYS[1])
	if not raw then
		return 0
	end
	local rec = cjson.decode(raw)
	if rec['id'] ~= ARGV[1] then
		return 0
	end
	return redis.call('DEL', KEYS[1])
`)

// PasscodeStore keeps verification records in Redis so several API
// instances share them. Keys expire on their own one TTL after issuance.
type PasscodeStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewPasscodeStore(client *redis.Client, prefix string, ttl time.Duration) *PasscodeStore {
	if prefix == "" {
		prefix = "quick-orders:passcode:"
	}
	return &PasscodeStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *PasscodeStore) key(email string) string {
	return s.prefix + email
}

func (s *PasscodeStore) Put(ctx context.Context, v *domain.VerificationRecord) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal verification: %w", err)
	}
	// A little slack past the TTL so verification still sees the record and
	// reports it as expired instead of missing.
	if err := s.client.Set(ctx, s.key(v.Email), raw, s.ttl+time.Minute).Err(); err != nil {
		return fmt.Errorf("redis passcode: put failed: %w", err)
	}
	return nil
}

func (s *PasscodeStore) Get(ctx context.Context, email string) (*domain.VerificationRecord, error) {
	raw, err := s.client.Get(ctx, s.key(email)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("verification not found: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("redis passcode: get failed: %w", err)
	}
	var v domain.VerificationRecord
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("unmarshal verification: %w", err)
	}
	return &v, nil
}

func (s *PasscodeStore) Delete(ctx context.Context, email string) error {
	if err := s.client.Del(ctx, s.key(email)).Err(); err != nil {
		return fmt.Errorf("redis passcode: delete failed: %w", err)
	}
	return nil
}

func (s *PasscodeStore) CompareAndDelete(ctx context.Context, email, recordID string) (bool, error) {
	n, err := compareAndDelete.Run(ctx, s.client, []string{s.key(email)}, recordID).Int()
	if err != nil {
		return false, fmt.Errorf("redis passcode: compare and delete failed: %w", err)
	}
	return n == 1, nil
}
