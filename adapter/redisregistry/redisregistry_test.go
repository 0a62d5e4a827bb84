package redisregistry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelKey(t *testing.T) {
	assert.Equal(t, "boardroom:channel:executive-meeting", channelKey("executive-meeting"))
}

func TestOpenRejectsBadURL(t *testing.T) {
	_, err := Open("not-a-redis-url")
	require.Error(t, err)
}

func TestOpenParsesURL(t *testing.T) {
	reg, err := Open("redis://localhost:6379/0")
	require.NoError(t, err)
	assert.NotNil(t, reg.rdb)
}
