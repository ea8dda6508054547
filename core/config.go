package core

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vmtell/vmtell/vmdetect"
)

// Config is a scan profile: which techniques to run and how to report
// them.
type Config struct {
	// Scan controls the detection pass.
	Scan ScanConfig `yaml:"scan"`

	// History controls the local scan-history database.
	History HistoryConfig `yaml:"history"`

	// Logging settings.
	Logging LoggingConfig `yaml:"logging"`
}

// ScanConfig selects techniques and aggregator behavior.
type ScanConfig struct {
	// All enables every technique, including the slow cursor wait.
	All bool `yaml:"all"`

	// Extreme flags the machine as virtual on any single hit.
	Extreme bool `yaml:"extreme"`

	// NoMemo bypasses the engine's result cache.
	NoMemo bool `yaml:"no_memo"`

	// Enable adds techniques by name on top of the base set.
	Enable []string `yaml:"enable"`

	// Disable removes techniques by name from the base set.
	Disable []string `yaml:"disable"`
}

// HistoryConfig holds the sqlite history settings.
type HistoryConfig struct {
	Path   string `yaml:"path"`
	Record bool   `yaml:"record"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Debug bool `yaml:"debug"`
}

// DefaultConfig returns the profile used when no config file is given:
// default technique set, no history recording.
func DefaultConfig() *Config {
	return &Config{}
}

// LoadConfig reads a YAML scan profile. An empty path yields the
// defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config")
	}
	return &cfg, nil
}

// Flags translates the profile into an engine flag mask.
func (c *Config) Flags() (vmdetect.Flag, error) {
	flags := vmdetect.DEFAULT
	if c.Scan.All {
		flags = vmdetect.ALL
	}
	for _, name := range c.Scan.Enable {
		f, ok := vmdetect.FlagFromName(name)
		if !ok {
			return 0, errors.Errorf("unknown technique %q", name)
		}
		flags |= f
	}
	for _, name := range c.Scan.Disable {
		f, ok := vmdetect.FlagFromName(name)
		if !ok {
			return 0, errors.Errorf("unknown technique %q", name)
		}
		flags &^= f
	}
	if c.Scan.Extreme {
		flags |= vmdetect.EXTREME
	}
	if c.Scan.NoMemo {
		flags |= vmdetect.NO_MEMO
	}
	return flags, nil
}
