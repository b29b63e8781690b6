package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	registry := prometheus.NewRegistry()
	server := NewServer(":9090", registry)

	assert.NotNil(t, server)
	assert.Equal(t, ":9090", server.Addr())
}

func TestServer_StartAndShutdown(t *testing.T) {
	registry := prometheus.NewRegistry()
	counter := NewCounter(registry, "test_counter", "Test counter metric")
	counter.Inc()

	server := NewServer("localhost:0", registry)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start(ctx)
	}()

	// Give the listener time to come up, then shut down.
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-errChan:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down in time")
	}
}
