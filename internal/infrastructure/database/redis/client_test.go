package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdantio/plotproof/internal/config"
	"github.com/verdantio/plotproof/internal/infrastructure/monitoring/logging"
)

func TestNewClientConnects(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client, err := NewClient(config.RedisConfig{Addr: mr.Addr()}, logging.NewNopLogger())
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.Ping(context.Background()))
}

func TestNewClientUnreachable(t *testing.T) {
	_, err := NewClient(config.RedisConfig{Addr: "127.0.0.1:1"}, logging.NewNopLogger())
	assert.ErrorIs(t, err, ErrConnectionFailed)
}

func TestClosedClientRejectsPing(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client, err := NewClient(config.RedisConfig{Addr: mr.Addr()}, logging.NewNopLogger())
	require.NoError(t, err)

	require.NoError(t, client.Close())
	assert.ErrorIs(t, client.Ping(context.Background()), ErrClientClosed)
	assert.NoError(t, client.Close(), "double close is safe")
}
