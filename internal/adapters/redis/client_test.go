package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradesage/internal/domain/marketdata"
	"tradesage/internal/testsupport"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	cfg := testsupport.LoadDatabaseConfigsFromEnv(t).Redis
	client, err := NewClient(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = client.Close()
	})

	return client
}

func TestClient_SetGetRoundTrip(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	key := "test:snapshot:" + t.Name()
	snap := marketdata.Snapshot{
		Symbol:       "AAPL",
		CurrentPrice: "189.50",
		Volume:       "51,200,000",
		Source:       "alpha_vantage",
	}

	require.NoError(t, client.Set(ctx, key, snap, time.Minute))
	t.Cleanup(func() { _ = client.Delete(context.Background(), key) })

	var got marketdata.Snapshot
	require.NoError(t, client.Get(ctx, key, &got))
	assert.Equal(t, snap, got)

	exists, err := client.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestClient_GetMissingKey(t *testing.T) {
	client := newTestClient(t)

	var dest marketdata.Snapshot
	err := client.Get(context.Background(), "test:missing:"+t.Name(), &dest)
	assert.Error(t, err)
}

func TestClient_Delete(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	key := "test:delete:" + t.Name()
	require.NoError(t, client.Set(ctx, key, "value", time.Minute))
	require.NoError(t, client.Delete(ctx, key))

	exists, err := client.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)
}
