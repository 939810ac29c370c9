package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"seqguard/internal/platform/config"
)

func TestSetupDisabledIsNoop(t *testing.T) {
	shutdown, err := Setup(context.Background(), config.Tracing{Enabled: false}, "seqguard", "test")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestSetupEnabledBuildsProvider(t *testing.T) {
	// The exporter connects lazily, so no collector is needed here.
	shutdown, err := Setup(context.Background(), config.Tracing{Enabled: true, Endpoint: "127.0.0.1:1"}, "seqguard", "test")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = shutdown(ctx)
}
