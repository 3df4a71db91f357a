package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("LSCHEME_HOME", home)
	t.Setenv("LSCHEME_MAX_DEPTH", "")
	t.Setenv("LSCHEME_ENGINE", "")

	cfg := DefaultConfig()
	assert.Equal(t, home, cfg.Home)
	assert.Equal(t, VariantBox, cfg.Variant)
	assert.Equal(t, EngineEquations, cfg.Engine)
	assert.Equal(t, 0, cfg.MaxDepth)
	assert.Equal(t, filepath.Join(home, "history"), cfg.HistoryFile)
	assert.NoError(t, cfg.Validate())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("LSCHEME_HOME", t.TempDir())
	t.Setenv("LSCHEME_MAX_DEPTH", "64")
	t.Setenv("LSCHEME_ENGINE", EngineUnify)

	cfg := DefaultConfig()
	assert.Equal(t, 64, cfg.MaxDepth)
	assert.Equal(t, EngineUnify, cfg.Engine)
}

func TestLoad(t *testing.T) {
	home := t.TempDir()
	t.Setenv("LSCHEME_HOME", home)
	t.Setenv("LSCHEME_MAX_DEPTH", "")
	t.Setenv("LSCHEME_ENGINE", "")

	t.Run("missing default file", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, VariantBox, cfg.Variant)
	})

	t.Run("default file", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(home, "config.yaml"), []byte("variant: subst\nmax_depth: 10\n"), 0644))
		defer os.Remove(filepath.Join(home, "config.yaml"))
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, VariantSubst, cfg.Variant)
		assert.Equal(t, 10, cfg.MaxDepth)
		assert.Equal(t, EngineEquations, cfg.Engine)
	})

	t.Run("explicit file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "lscheme.yaml")
		require.NoError(t, os.WriteFile(path, []byte("engine: unify\nprompt: \"> \"\n"), 0644))
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, EngineUnify, cfg.Engine)
		assert.Equal(t, "> ", cfg.Prompt)
	})

	t.Run("missing explicit file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("env wins over file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "lscheme.yaml")
		require.NoError(t, os.WriteFile(path, []byte("max_depth: 10\n"), 0644))
		t.Setenv("LSCHEME_MAX_DEPTH", "3")
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 3, cfg.MaxDepth)
	})

	t.Run("invalid values", func(t *testing.T) {
		for _, body := range []string{"variant: lazy\n", "engine: magic\n", "max_depth: -1\n", "variant: [\n"} {
			path := filepath.Join(t.TempDir(), "bad.yaml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0644))
			_, err := Load(path)
			assert.Error(t, err, body)
		}
	})
}

func TestEnsureDirs(t *testing.T) {
	cfg := &Config{Home: filepath.Join(t.TempDir(), "a", "b")}
	require.NoError(t, cfg.EnsureDirs())
	info, err := os.Stat(cfg.Home)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
