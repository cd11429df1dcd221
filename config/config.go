package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go-keyrow/note"
	"go-keyrow/perform"
)

// InputKind selects where key transitions come from
type InputKind string

const (
	InputTUI   InputKind = "tui"   // terminal key presses, synthetic key-up
	InputEvdev InputKind = "evdev" // Linux input device, real key-up
)

// OutputConfig names the synth port and channel
type OutputConfig struct {
	PortName string `json:"portName,omitempty"`
	Channel  int    `json:"channel"` // 1 - 16
}

// InputConfig defines the key source
type InputConfig struct {
	Kind       InputKind `json:"kind"`
	Device     string    `json:"device,omitempty"` // evdev path, empty = auto-detect
	HoldMillis int       `json:"holdMillis"`       // tui: silence before a key counts as released
}

// DefaultsConfig holds the performance settings a session starts with
type DefaultsConfig struct {
	StartNote    string `json:"startNote"`
	VelocityBase int    `json:"velocityBase"`
	Randomizer   string `json:"randomizer"`
	PitchMode    bool   `json:"pitchMode,omitempty"`
}

// Config is the main configuration structure
type Config struct {
	Output   OutputConfig   `json:"output"`
	Input    InputConfig    `json:"input"`
	Defaults DefaultsConfig `json:"defaults"`
	Palette  string         `json:"palette,omitempty"` // GIMP palette file, empty = built-in
	Debug    bool           `json:"debug,omitempty"`

	path string // file it was loaded from
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Output: OutputConfig{Channel: 1},
		Input: InputConfig{
			Kind:       InputTUI,
			HoldMillis: 600,
		},
		Defaults: DefaultsConfig{
			StartNote:    note.Default.Name(),
			VelocityBase: 100,
			Randomizer:   perform.RandomMedium.String(),
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-keyrow"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads the config at path. Missing fields keep their defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.path = path

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values the program cannot start with
func (c *Config) Validate() error {
	var errs []error
	if c.Output.Channel < 1 || c.Output.Channel > 16 {
		errs = append(errs, fmt.Errorf("output.channel %d not in 1..16", c.Output.Channel))
	}
	switch c.Input.Kind {
	case InputTUI, InputEvdev:
	default:
		errs = append(errs, fmt.Errorf("input.kind %q (want tui|evdev)", c.Input.Kind))
	}
	if c.Input.HoldMillis < 50 || c.Input.HoldMillis > 5000 {
		errs = append(errs, fmt.Errorf("input.holdMillis %d not in 50..5000", c.Input.HoldMillis))
	}
	if _, err := note.Parse(c.Defaults.StartNote); err != nil {
		errs = append(errs, fmt.Errorf("defaults.startNote: %w", err))
	}
	if c.Defaults.VelocityBase < 0 || c.Defaults.VelocityBase > 127 {
		errs = append(errs, fmt.Errorf("defaults.velocityBase %d not in 0..127", c.Defaults.VelocityBase))
	}
	if _, err := perform.ParseRandomizer(c.Defaults.Randomizer); err != nil {
		errs = append(errs, fmt.Errorf("defaults.randomizer: %w", err))
	}
	return errors.Join(errs...)
}

// ControllerOptions turns the defaults section into controller options
func (c *Config) ControllerOptions() []perform.Option {
	start, err := note.Parse(c.Defaults.StartNote)
	if err != nil {
		start = note.Default
	}
	random, err := perform.ParseRandomizer(c.Defaults.Randomizer)
	if err != nil {
		random = perform.RandomMedium
	}
	return []perform.Option{
		perform.WithStartNote(start),
		perform.WithVelocity(perform.Velocity{Base: c.Defaults.VelocityBase, Randomizer: random}),
		perform.WithTranslateByPitch(c.Defaults.PitchMode),
		perform.WithChannel(uint8(c.Output.Channel - 1)),
	}
}

// Save writes the config to disk
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

func (c *Config) SaveTo(path string) error {
	// Create directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// RememberPort stores the chosen output port in the config file. Only the
// port changes on disk; session overrides such as flags are not written.
func (c *Config) RememberPort(name string) error {
	c.Output.PortName = name

	path := c.path
	if path == "" {
		var err error
		if path, err = ConfigPath(); err != nil {
			return err
		}
	}
	onDisk, err := LoadFrom(path)
	if err != nil {
		return err
	}
	if onDisk.Output.PortName == name {
		return nil
	}
	onDisk.Output.PortName = name
	return onDisk.SaveTo(path)
}
