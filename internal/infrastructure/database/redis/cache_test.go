package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/verdantio/plotproof/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/verdantio/plotproof/pkg/errors"
)

type CacheTestSuite struct {
	suite.Suite
	mr    *miniredis.Miniredis
	cache Cache
}

func (s *CacheTestSuite) SetupTest() {
	mr, err := miniredis.Run()
	require.NoError(s.T(), err)
	s.mr = mr

	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	client := newClientFromUniversal(rdb, logging.NewNopLogger())
	s.cache = NewCache(client, logging.NewNopLogger(), WithPrefix("test:"))
}

func (s *CacheTestSuite) TearDownTest() {
	s.mr.Close()
}

func (s *CacheTestSuite) TestSetGetRoundTrip() {
	ctx := context.Background()
	payload := []byte(`{"area":"0.123456789012345"}`)

	require.NoError(s.T(), s.cache.Set(ctx, "k1", payload, 0))

	got, err := s.cache.Get(ctx, "k1")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), payload, got, "stored bytes must survive unchanged")
}

func (s *CacheTestSuite) TestGetMiss() {
	_, err := s.cache.Get(context.Background(), "absent")
	assert.ErrorIs(s.T(), err, ErrCacheMiss)
	assert.True(s.T(), pkgerrors.IsNotFound(err))
}

func (s *CacheTestSuite) TestKeysArePrefixed() {
	ctx := context.Background()
	require.NoError(s.T(), s.cache.Set(ctx, "k1", []byte("v"), 0))

	assert.True(s.T(), s.mr.Exists("test:k1"))
	assert.False(s.T(), s.mr.Exists("k1"))
}

func (s *CacheTestSuite) TestDelete() {
	ctx := context.Background()
	require.NoError(s.T(), s.cache.Set(ctx, "k1", []byte("v"), 0))
	require.NoError(s.T(), s.cache.Delete(ctx, "k1", "never-existed"))

	_, err := s.cache.Get(ctx, "k1")
	assert.ErrorIs(s.T(), err, ErrCacheMiss)

	assert.NoError(s.T(), s.cache.Delete(ctx), "empty delete is a no-op")
}

func (s *CacheTestSuite) TestExists() {
	ctx := context.Background()
	ok, err := s.cache.Exists(ctx, "k1")
	require.NoError(s.T(), err)
	assert.False(s.T(), ok)

	require.NoError(s.T(), s.cache.Set(ctx, "k1", []byte("v"), 0))
	ok, err = s.cache.Exists(ctx, "k1")
	require.NoError(s.T(), err)
	assert.True(s.T(), ok)
}

func (s *CacheTestSuite) TestTTLApplied() {
	ctx := context.Background()
	require.NoError(s.T(), s.cache.Set(ctx, "k1", []byte("v"), time.Hour))

	ttl, err := s.cache.TTL(ctx, "k1")
	require.NoError(s.T(), err)
	assert.Greater(s.T(), ttl, 59*time.Minute)

	s.mr.FastForward(2 * time.Hour)
	_, err = s.cache.Get(ctx, "k1")
	assert.ErrorIs(s.T(), err, ErrCacheMiss)
}

func TestCacheTestSuite(t *testing.T) {
	suite.Run(t, new(CacheTestSuite))
}
