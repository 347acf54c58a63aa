package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/deskline/helpdesk/internal/config"
)

// nothing listens on port 1 of the loopback interface
var unreachableRedis = config.RedisConfig{Addr: "127.0.0.1:1", PingTimeoutMS: 300}

func TestNewRedisFailsWithinPingTimeout(t *testing.T) {
	start := time.Now()
	r, err := NewRedis(context.Background(), unreachableRedis, zap.NewNop())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRedisUnreachable)
	assert.Nil(t, r)
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestOpenRedisDefersConnectionErrors(t *testing.T) {
	r := OpenRedis(unreachableRedis)
	t.Cleanup(r.Close)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.Error(t, r.Ping(ctx))

	var missing *Redis
	assert.Error(t, missing.Ping(ctx))
}
