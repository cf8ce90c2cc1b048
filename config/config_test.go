package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcusreed/propforge/config"
)

func TestLoadAppliesDefaultsWithoutEnv(t *testing.T) {
	os.Clearenv()
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.MaxParallelTasks)
	assert.Equal(t, 300*time.Second, cfg.TaskTimeout)
	assert.False(t, cfg.ForceMemoryStore)
	assert.False(t, cfg.LLMMock)
}

func TestLoadHonorsEnvToggles(t *testing.T) {
	os.Clearenv()
	t.Setenv("PROPFORGE_FORCE_MEMORY_STORE", "1")
	t.Setenv("PROPFORGE_LLM_MOCK", "1")
	t.Setenv("PROPFORGE_MAX_PARALLEL_TASKS", "7")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.True(t, cfg.ForceMemoryStore)
	assert.True(t, cfg.LLMMock)
	assert.Equal(t, 7, cfg.MaxParallelTasks)
}
