package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perigee-labs/packship/src/config"
)

func TestResolveRunConfigRejectsUnknownChannel(t *testing.T) {
	var err error
	cfg, err = config.Load("/nonexistent/.packship.yml")
	require.NoError(t, err)
	cfg.Channels = map[string]config.Channel{"beta": {}}

	_, err = resolveRunConfig(t.TempDir(), "nigthly", nil, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown channel "nigthly"`)

	// Configured and built-in channels pass the guard; the bare temp
	// dir then fails version detection instead.
	_, err = resolveRunConfig(t.TempDir(), "beta", nil, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "detecting version")
}
