//go:build integration

package testutil

import (
	"context"
	"strings"
	"testing"

	"github.com/testcontainers/testcontainers-go/modules/redis"
)

// SetupRedis starts a Redis container and returns its host:port address.
func SetupRedis(t testing.TB) string {
	t.Helper()
	ctx := context.Background()

	container, err := redis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Fatalf("start redis: %v", err)
	}

	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate redis: %v", err)
		}
	})

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}

	return strings.TrimPrefix(uri, "redis://")
}
