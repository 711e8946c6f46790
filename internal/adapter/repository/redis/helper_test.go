package redis

import (
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redislib "github.com/redis/go-redis/v9"
)

// newTestRedisClient starts a miniredis server. Both the server and the client
// are closed when the test ends.
func newTestRedisClient(t *testing.T) (*redislib.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redislib.NewClient(&redislib.Options{
		Addr:       mr.Addr(),
		MaxRetries: -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	return client, mr
}

// assertStored checks the raw value and TTL of key as miniredis sees it.
func assertStored(t *testing.T, mr *miniredis.Miniredis, key, want string, ttl time.Duration) {
	t.Helper()

	got, err := mr.Get(key)
	if err != nil {
		t.Fatalf("key %s not stored: %v", key, err)
	}
	if got != want {
		t.Fatalf("key %s: expected %q, got %q", key, want, got)
	}
	if gotTTL := mr.TTL(key); gotTTL != ttl {
		t.Fatalf("key %s: expected ttl %v, got %v", key, ttl, gotTTL)
	}
}
