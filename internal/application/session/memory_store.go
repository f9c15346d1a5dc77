package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/verdantio/plotproof/internal/domain/plot"
	"github.com/verdantio/plotproof/pkg/errors"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

type memoryStore struct {
	mu      sync.RWMutex
	entries map[Token]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore keeps sessions in process memory, used by the CLI and in
// tests.  Sessions are stored in their serialized form so numeric fields go
// through the same round trip as the redis backend.
func NewMemoryStore(ttl time.Duration) Store {
	return &memoryStore{
		entries: make(map[Token]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *memoryStore) Save(_ context.Context, plots []plot.ClassifiedPlot) (Token, error) {
	data, err := json.Marshal(envelope{
		Version: envelopeVersion,
		SavedAt: s.now().UTC(),
		Plots:   plots,
	})
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode session")
	}

	token := newToken()
	entry := memoryEntry{data: data}
	if s.ttl > 0 {
		entry.expiresAt = s.now().Add(s.ttl)
	}

	s.mu.Lock()
	s.entries[token] = entry
	s.mu.Unlock()
	return token, nil
}

func (s *memoryStore) Restore(_ context.Context, token Token, intent RestoreIntent) ([]plot.ClassifiedPlot, error) {
	if err := checkRestore(token, intent); err != nil {
		return nil, err
	}

	s.mu.RLock()
	entry, ok := s.entries[token]
	s.mu.RUnlock()
	if !ok || (!entry.expiresAt.IsZero() && s.now().After(entry.expiresAt)) {
		return nil, ErrSessionNotFound
	}

	var env envelope
	if err := json.Unmarshal(entry.data, &env); err != nil {
		s.mu.Lock()
		delete(s.entries, token)
		s.mu.Unlock()
		return nil, errors.New(errors.ErrCodeSessionNotFound, "session state was corrupt and has been cleared")
	}
	return env.Plots, nil
}

func (s *memoryStore) Clear(_ context.Context, token Token) error {
	if token == "" {
		return ErrEmptyToken
	}
	s.mu.Lock()
	delete(s.entries, token)
	s.mu.Unlock()
	return nil
}
