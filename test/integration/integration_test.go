// Package integration drives a real respd server with an unmodified
// Redis client library (github.com/go-redis/redis, v6 — already part of
// the reference codebase's dependency set) rather than this module's own
// codec, so a passing test is evidence the wire format is actually
// Redis-compatible and not just self-consistent.
package integration

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/go-redis/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manh119/respd/internal/command"
	"github.com/manh119/respd/internal/server"
	"github.com/manh119/respd/internal/store"
)

func startServer(t *testing.T) (addr string, shutdown func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	st := store.New(store.Options{Shards: 8})
	d := command.New(st, nil)
	srv := server.New(ln, d, server.Options{BufferSize: 4096, ConnLimit: 64})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = srv.Serve(ctx)
		close(done)
	}()

	return ln.Addr().String(), func() {
		cancel()
		<-done
	}
}

func newClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 2 * time.Second,
		ReadTimeout: 2 * time.Second,
	})
}

func TestGoRedisClientPing(t *testing.T) {
	addr, shutdown := startServer(t)
	defer shutdown()

	c := newClient(addr)
	defer c.Close()

	got, err := c.Ping().Result()
	require.NoError(t, err)
	assert.Equal(t, "PONG", got)
}

func TestGoRedisClientSetGetDel(t *testing.T) {
	addr, shutdown := startServer(t)
	defer shutdown()

	c := newClient(addr)
	defer c.Close()

	require.NoError(t, c.Set("foo", "bar", 0).Err())

	v, err := c.Get("foo").Result()
	require.NoError(t, err)
	assert.Equal(t, "bar", v)

	_, err = c.Get("missing").Result()
	assert.Equal(t, redis.Nil, err)

	n, err := c.Del("foo").Result()
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = c.Get("foo").Result()
	assert.Equal(t, redis.Nil, err)
}

func TestGoRedisClientExpiry(t *testing.T) {
	addr, shutdown := startServer(t)
	defer shutdown()

	c := newClient(addr)
	defer c.Close()

	require.NoError(t, c.Set("k", "v", 50*time.Millisecond).Err())

	v, err := c.Get("k").Result()
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	time.Sleep(150 * time.Millisecond)

	_, err = c.Get("k").Result()
	assert.Equal(t, redis.Nil, err)
}

func TestGoRedisClientDelMultipleKeys(t *testing.T) {
	addr, shutdown := startServer(t)
	defer shutdown()

	c := newClient(addr)
	defer c.Close()

	require.NoError(t, c.Set("a", "1", 0).Err())
	require.NoError(t, c.Set("b", "2", 0).Err())

	n, err := c.Del("a", "b").Result()
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = c.Del("a", "b").Result()
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)
}
