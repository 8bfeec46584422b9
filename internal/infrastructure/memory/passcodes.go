package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/quick-orders/internal/domain"
)

// SweepGrace keeps records around past their TTL so verification still
// finds them and reports them as expired rather than missing.
const SweepGrace = time.Minute

// PasscodeStore is a process-local passcode store. Records do not survive a
// restart.
type PasscodeStore struct {
	mu      sync.Mutex
	records map[string]domain.VerificationRecord
}

func NewPasscodeStore() *PasscodeStore {
	return &PasscodeStore{records: make(map[string]domain.VerificationRecord)}
}

func (s *PasscodeStore) Put(_ context.Context, v *domain.VerificationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[v.Email] = *v
	return nil
}

func (s *PasscodeStore) Get(_ context.Context, email string) (*domain.VerificationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.records[email]
	if !ok {
		return nil, fmt.Errorf("verification not found: %w", domain.ErrNotFound)
	}
	return &v, nil
}

func (s *PasscodeStore) Delete(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, email)
	return nil
}

func (s *PasscodeStore) CompareAndDelete(_ context.Context, email, recordID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.records[email]
	if !ok || v.ID != recordID {
		return false, nil
	}
	delete(s.records, email)
	return true, nil
}

// Len returns the number of stored records.
func (s *PasscodeStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Sweep removes every record issued more than ttl+SweepGrace before now and
// returns how many were removed.
func (s *PasscodeStore) Sweep(now time.Time, ttl time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for email, v := range s.records {
		if v.Expired(now, ttl+SweepGrace) {
			delete(s.records, email)
			n++
		}
	}
	return n
}

// RunSweeper evicts expired records every interval until ctx is cancelled.
// Verification rejects expired records on its own; this only bounds memory.
func (s *PasscodeStore) RunSweeper(ctx context.Context, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := s.Sweep(now, ttl); n > 0 {
				slog.Debug("swept expired verification codes", "count", n)
			}
		}
	}
}
