package redis_wrapper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions(t *testing.T) {
	cfg := &RedisConfig{
		ConnectionURL:      "redis://:secret@localhost:6380/2",
		PoolSize:           20,
		ReadTimeoutSeconds: 3,
		DepthTTLSeconds:    60,
	}

	opts, err := cfg.Options()
	require.NoError(t, err)
	assert.Equal(t, "localhost:6380", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 20, opts.PoolSize)
	assert.Equal(t, 3*time.Second, opts.ReadTimeout)
	assert.Equal(t, time.Minute, cfg.DepthTTL())
}

func TestOptionsRejectsEmptyURL(t *testing.T) {
	_, err := (&RedisConfig{}).Options()
	assert.Error(t, err)

	var nilCfg *RedisConfig
	_, err = nilCfg.Options()
	assert.Error(t, err)
}
