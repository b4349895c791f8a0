package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/practical-scheduler/pkg/config"
)

func TestNewRedisDisabledReturnsNilClient(t *testing.T) {
	client, err := NewRedis(config.RedisConfig{Enabled: false})
	require.NoError(t, err)
	assert.Nil(t, client)
}

func TestOverviewKey(t *testing.T) {
	assert.Equal(t, "scheduler:overview:101-12-4021", OverviewKey("101-12-4021"))
}
