package flappy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 500, cfg.Window.Width)
	assert.Equal(t, 800, cfg.Window.Height)
	assert.Equal(t, 30, cfg.Window.FPS)
	assert.Equal(t, 230.0, cfg.Bird.SpawnX)
	assert.Equal(t, 350.0, cfg.Bird.SpawnY)
	assert.Equal(t, -10.5, cfg.Bird.JumpVelocity)
	assert.Equal(t, 16.0, cfg.Bird.TerminalDisplacement)
	assert.Equal(t, 200.0, cfg.Pipe.Gap)
	assert.Equal(t, 5.0, cfg.Pipe.Velocity)
	assert.Equal(t, 730.0, cfg.Base.Y)
	assert.Equal(t, 50, cfg.Episode.ScoreCap)
	assert.Equal(t, 0.5, cfg.Fitness.DecisionThreshold)
	assert.Equal(t, -1.0, cfg.Fitness.CollisionPenalty)

	assert.NotSame(t, cfg, DefaultConfig())
}

func TestLoadConfigMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "world.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pipe:\n  gap: 150\nepisode:\n  score_cap: 10\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 150.0, cfg.Pipe.Gap)
	assert.Equal(t, 10, cfg.Episode.ScoreCap)
	assert.Equal(t, 5.0, cfg.Pipe.Velocity)
	assert.Equal(t, 230.0, cfg.Bird.SpawnX)
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("pipe: [1, 2"), 0o644))
	_, err = LoadConfig(bad)
	assert.Error(t, err)

	invalidGap := filepath.Join(dir, "gap.yaml")
	require.NoError(t, os.WriteFile(invalidGap, []byte("pipe:\n  gap: -5\n"), 0o644))
	_, err = LoadConfig(invalidGap)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero window", func(c *Config) { c.Window.Width = 0 }},
		{"zero fps", func(c *Config) { c.Window.FPS = 0 }},
		{"zero bird", func(c *Config) { c.Bird.Height = 0 }},
		{"no terminal displacement", func(c *Config) { c.Bird.TerminalDisplacement = 0 }},
		{"negative rise bias", func(c *Config) { c.Bird.RiseBias = -1 }},
		{"zero gap", func(c *Config) { c.Pipe.Gap = 0 }},
		{"zero pipe velocity", func(c *Config) { c.Pipe.Velocity = 0 }},
		{"zero pipe width", func(c *Config) { c.Pipe.Width = 0 }},
		{"empty height range", func(c *Config) { c.Pipe.MaxHeight = c.Pipe.MinHeight }},
		{"ground above ceiling", func(c *Config) { c.Base.Y = -1 }},
		{"zero base width", func(c *Config) { c.Base.Width = 0 }},
		{"spawn below ground", func(c *Config) { c.Bird.SpawnY = 700 }},
		{"negative score cap", func(c *Config) { c.Episode.ScoreCap = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestWriteYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := DefaultConfig()
	cfg.Pipe.Gap = 180
	require.NoError(t, cfg.WriteYAML(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
