// Package project loads compile requests: the sprocket.toml configuration
// and the serialized program the block producer wrote.
package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"sprocket/internal/trace"
)

// Config is the parsed sprocket.toml.
type Config struct {
	Environment EnvironmentConfig `toml:"environment"`
	Trace       TraceConfig       `toml:"trace"`
	Compile     CompileConfig     `toml:"compile"`
}

// EnvironmentConfig describes the evaluating environment's capabilities.
type EnvironmentConfig struct {
	// NullishCoalescing enables the direct list-indexing optimization.
	NullishCoalescing bool `toml:"nullish_coalescing"`
	// Debug turns on verbose emission logging.
	Debug bool `toml:"debug"`
}

// TraceConfig selects the tracing level.
type TraceConfig struct {
	Level string `toml:"level"`
}

// CompileConfig bounds the driver.
type CompileConfig struct {
	// Jobs caps concurrent script compiles. Zero means one per CPU.
	Jobs int64 `toml:"jobs"`
}

// DefaultConfig returns the configuration used when no sprocket.toml
// exists.
func DefaultConfig() Config {
	return Config{
		Environment: EnvironmentConfig{NullishCoalescing: true},
		Trace:       TraceConfig{Level: "off"},
	}
}

// LoadConfig parses a sprocket.toml. A missing file yields the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if cfg.Compile.Jobs < 0 {
		return Config{}, fmt.Errorf("%s: compile.jobs must not be negative", path)
	}
	if _, err := trace.ParseLevel(levelOrDefault(cfg.Trace.Level)); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// TraceLevel returns the parsed trace level.
func (c Config) TraceLevel() trace.Level {
	level, err := trace.ParseLevel(levelOrDefault(c.Trace.Level))
	if err != nil {
		return trace.LevelOff
	}
	return level
}

func levelOrDefault(s string) string {
	if s == "" {
		return "off"
	}
	return s
}

// statError normalizes stat failures for loader call sites.
func statError(path string, err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%s: no such file", path)
	}
	return err
}
