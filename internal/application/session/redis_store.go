package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/verdantio/plotproof/internal/domain/plot"
	"github.com/verdantio/plotproof/internal/infrastructure/database/redis"
	"github.com/verdantio/plotproof/internal/infrastructure/monitoring/logging"
	"github.com/verdantio/plotproof/pkg/errors"
)

const redisKeyPrefix = "session:"

type redisStore struct {
	cache  redis.Cache
	logger logging.Logger
	ttl    time.Duration
	now    func() time.Time
}

// NewRedisStore persists sessions in redis.  Each session lives under one
// key written with a single SET, so a save is atomic: a concurrent restore
// sees either the previous session or the new one, never a mix.  A zero ttl
// means no expiry.
func NewRedisStore(cache redis.Cache, ttl time.Duration, log logging.Logger) Store {
	return &redisStore{
		cache:  cache,
		logger: log.Named("session"),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *redisStore) Save(ctx context.Context, plots []plot.ClassifiedPlot) (Token, error) {
	token := newToken()
	data, err := json.Marshal(envelope{
		Version: envelopeVersion,
		SavedAt: s.now().UTC(),
		Plots:   plots,
	})
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode session")
	}
	if err := s.cache.Set(ctx, redisKeyPrefix+string(token), data, s.ttl); err != nil {
		return "", err
	}
	s.logger.Info("session saved",
		logging.String("token", string(token)),
		logging.Int("plots", len(plots)),
	)
	return token, nil
}

func (s *redisStore) Restore(ctx context.Context, token Token, intent RestoreIntent) ([]plot.ClassifiedPlot, error) {
	if err := checkRestore(token, intent); err != nil {
		return nil, err
	}
	data, err := s.cache.Get(ctx, redisKeyPrefix+string(token))
	if errors.IsNotFound(err) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		// A corrupt session cannot be repaired; clear it so the caller
		// sees a consistent NotFound from now on.
		s.logger.Warn("clearing corrupt session",
			logging.String("token", string(token)),
			logging.Err(err),
		)
		if clearErr := s.cache.Delete(ctx, redisKeyPrefix+string(token)); clearErr != nil {
			s.logger.Error("failed to clear corrupt session", logging.Err(clearErr))
		}
		return nil, errors.New(errors.ErrCodeSessionNotFound, "session state was corrupt and has been cleared")
	}
	return env.Plots, nil
}

func (s *redisStore) Clear(ctx context.Context, token Token) error {
	if token == "" {
		return ErrEmptyToken
	}
	return s.cache.Delete(ctx, redisKeyPrefix+string(token))
}
