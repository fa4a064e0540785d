package redis

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect_UnreachableAddr(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	rdb, err := Connect(ctx, "127.0.0.1:1", "", 0)
	require.Error(t, err)
	assert.Nil(t, rdb)
	assert.Contains(t, err.Error(), "redis ping 127.0.0.1:1")
}

func TestNewStore_DefaultKey(t *testing.T) {
	rdb := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1"})
	defer rdb.Close()

	assert.Equal(t, DefaultKey, NewStore(rdb, "", 0).key)
	assert.Equal(t, "custom", NewStore(rdb, "custom", time.Minute).key)
}
