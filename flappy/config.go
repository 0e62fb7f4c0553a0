package flappy

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalidConfig is wrapped by every world configuration validation failure.
var ErrInvalidConfig = errors.New("invalid world config")

// Config holds the fixed world constants of the game.
type Config struct {
	Window  WindowConfig  `yaml:"window"`
	Bird    BirdConfig    `yaml:"bird"`
	Pipe    PipeConfig    `yaml:"pipe"`
	Base    BaseConfig    `yaml:"base"`
	Episode EpisodeConfig `yaml:"episode"`
	Fitness FitnessConfig `yaml:"fitness"`
}

// WindowConfig describes the logical play field and frame rate.
type WindowConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	FPS    int `yaml:"fps"`
}

// BirdConfig holds spawn point, sprite size and kinematics of a bird.
type BirdConfig struct {
	SpawnX               float64 `yaml:"spawn_x"`
	SpawnY               float64 `yaml:"spawn_y"`
	Width                int     `yaml:"width"`
	Height               int     `yaml:"height"`
	JumpVelocity         float64 `yaml:"jump_velocity"`         // impulse applied by Jump, negative is up
	Acceleration         float64 `yaml:"acceleration"`          // coefficient of t^2
	TerminalDisplacement float64 `yaml:"terminal_displacement"` // max downward move per frame
	RiseBias             float64 `yaml:"rise_bias"`             // extra lift applied while rising

	// Cosmetic, consumed by renderers only.
	MaxRotation      float64 `yaml:"max_rotation"`
	RotationVelocity float64 `yaml:"rotation_velocity"`
	AnimationTime    int     `yaml:"animation_time"`
}

// PipeConfig holds pipe geometry, speed and spawn offsets.
type PipeConfig struct {
	Gap       float64 `yaml:"gap"`
	Velocity  float64 `yaml:"velocity"`
	Width     int     `yaml:"width"`
	Height    int     `yaml:"height"`
	MinHeight int     `yaml:"min_height"` // inclusive
	MaxHeight int     `yaml:"max_height"` // exclusive
	SpawnX    float64 `yaml:"spawn_x"`    // first pipe of an episode
	RespawnX  float64 `yaml:"respawn_x"`  // every pipe after a pass
}

// BaseConfig holds the scrolling ground.
type BaseConfig struct {
	Y        float64 `yaml:"y"`
	Width    int     `yaml:"width"`
	Velocity float64 `yaml:"velocity"`
}

// EpisodeConfig holds termination bounds.
type EpisodeConfig struct {
	ScoreCap int     `yaml:"score_cap"` // episode ends once score exceeds this
	Ceiling  float64 `yaml:"ceiling"`   // birds above this y are retired
}

// FitnessConfig holds the fitness deltas and the jump decision threshold.
type FitnessConfig struct {
	SurvivalBonus     float64 `yaml:"survival_bonus"`
	CollisionPenalty  float64 `yaml:"collision_penalty"`
	PassBonus         float64 `yaml:"pass_bonus"`
	DecisionThreshold float64 `yaml:"decision_threshold"`
}

// DefaultConfig returns the embedded defaults.
func DefaultConfig() *Config {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		panic(fmt.Sprintf("flappy: embedded defaults are broken: %v", err))
	}
	return cfg
}

// LoadConfig loads the world configuration from a YAML file, merged over the
// embedded defaults. An empty path yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading world config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing world config: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the environment cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Window.Width <= 0 || c.Window.Height <= 0:
		return invalid("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	case c.Window.FPS <= 0:
		return invalid("fps must be positive, got %d", c.Window.FPS)
	case c.Bird.Width <= 0 || c.Bird.Height <= 0:
		return invalid("bird size must be positive, got %dx%d", c.Bird.Width, c.Bird.Height)
	case c.Bird.TerminalDisplacement <= 0:
		return invalid("terminal_displacement must be positive, got %g", c.Bird.TerminalDisplacement)
	case c.Bird.RiseBias < 0:
		return invalid("rise_bias cannot be negative, got %g", c.Bird.RiseBias)
	case c.Pipe.Gap <= 0:
		return invalid("pipe gap must be positive, got %g", c.Pipe.Gap)
	case c.Pipe.Velocity <= 0:
		return invalid("pipe velocity must be positive, got %g", c.Pipe.Velocity)
	case c.Pipe.Width <= 0 || c.Pipe.Height <= 0:
		return invalid("pipe size must be positive, got %dx%d", c.Pipe.Width, c.Pipe.Height)
	case c.Pipe.MaxHeight <= c.Pipe.MinHeight:
		return invalid("pipe height range [%d, %d) is empty", c.Pipe.MinHeight, c.Pipe.MaxHeight)
	case c.Base.Y <= c.Episode.Ceiling:
		return invalid("ground y %g must be below ceiling %g", c.Base.Y, c.Episode.Ceiling)
	case c.Base.Width <= 0:
		return invalid("base width must be positive, got %d", c.Base.Width)
	case c.Bird.SpawnY < c.Episode.Ceiling || c.Bird.SpawnY+float64(c.Bird.Height) >= c.Base.Y:
		return invalid("bird spawn y %g is outside the play bounds", c.Bird.SpawnY)
	case c.Episode.ScoreCap < 0:
		return invalid("score_cap cannot be negative, got %d", c.Episode.ScoreCap)
	}
	return nil
}

// WriteYAML writes the configuration to path.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling world config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing world config: %w", err)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
