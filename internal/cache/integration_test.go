//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	ctx := context.Background()

	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(ctr) })

	endpoint, err := ctr.Endpoint(ctx, "")
	require.NoError(t, err)

	c, err := New(ctx, "redis://"+endpoint+"/0", time.Minute, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestIntegrationInvalidateDropsAllVariants(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetJSON(ctx, Key("/questions", "page=1"), []string{"a"}))
	require.NoError(t, c.SetJSON(ctx, Key("/questions", "page=2"), []string{"b"}))
	require.NoError(t, c.SetJSON(ctx, Key("/questions/hot"), []string{"c"}))

	require.NoError(t, c.Invalidate(ctx, "/questions"))

	var got []string
	found, err := c.GetJSON(ctx, Key("/questions", "page=1"), &got)
	require.NoError(t, err)
	assert.False(t, found)

	found, err = c.GetJSON(ctx, Key("/questions/hot"), &got)
	require.NoError(t, err)
	assert.True(t, found, "other paths survive")
	assert.Equal(t, []string{"c"}, got)
}
