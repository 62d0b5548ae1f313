package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmraya/swordfish-core/internal/core/domain"
)

func TestSettingsShow(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, "settings", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "propagation_threshold: 60")
	assert.Contains(t, out, "batch_size:            100")
	assert.Contains(t, out, "workers:")
}

func TestSettingsShow_JSON(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, "settings", "show", "--json")

	require.NoError(t, err)
	assert.Contains(t, out, `"PropagationThreshold": 60`)
}

func TestSettingsSet(t *testing.T) {
	env := setupTestServices(t)

	out, err := execute(t, "settings", "set", "store.batch_size", "10")

	require.NoError(t, err)
	assert.Contains(t, out, "store.batch_size = 10")
	assert.Equal(t, 10, env.config.GetInt("store.batch_size"))

	out, err = execute(t, "settings", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "batch_size:            10\n")
}

func TestSettingsSet_Invalid(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "settings", "set", "store.nope", "1")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = execute(t, "settings", "set", "store.auto_confirm", "maybe")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettings_NotConfigured(t *testing.T) {
	SetServices(Services{})

	_, err := execute(t, "settings", "show")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "settings service not configured")
}
