package hooks

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ltfschoen/trunk/internal/config"
	"github.com/ltfschoen/trunk/internal/logging"
	"github.com/ltfschoen/trunk/internal/pipelines"
)

func TestFromConfig(t *testing.T) {
	t.Run("accepts valid declarations", func(t *testing.T) {
		hooks, err := FromConfig([]config.HookConfig{
			{Stage: "pre_build", Command: "echo", Args: []string{"a"}},
			{Stage: "post_build", Command: "true"},
		})
		require.NoError(t, err)
		require.Len(t, hooks, 2)
		assert.Equal(t, pipelines.StagePreBuild, hooks[0].Stage)
	})

	t.Run("rejects an unknown stage", func(t *testing.T) {
		_, err := FromConfig([]config.HookConfig{{Stage: "before", Command: "echo"}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown pipeline stage")
	})

	t.Run("rejects an empty command", func(t *testing.T) {
		_, err := FromConfig([]config.HookConfig{{Stage: "build"}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "command must not be empty")
	})
}

func TestRunExecutesMatchingStageOnly(t *testing.T) {
	dir := t.TempDir()
	hooks := []Hook{
		{Stage: pipelines.StagePreBuild, Command: "touch", Args: []string{filepath.Join(dir, "pre")}},
		{Stage: pipelines.StagePostBuild, Command: "touch", Args: []string{filepath.Join(dir, "post")}},
	}

	err := Run(context.Background(), logging.NewNop(), hooks, pipelines.StagePreBuild, dir)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "pre"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "post"))
	assert.True(t, os.IsNotExist(err))
}

func TestRunSurfacesCommandFailure(t *testing.T) {
	hooks := []Hook{{Stage: pipelines.StageBuild, Command: "false"}}
	err := Run(context.Background(), logging.NewNop(), hooks, pipelines.StageBuild, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stage build failed")
}
