// Package config loads runtime settings from defaults, an optional config
// file and KIMAER_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override: KIMAER_CONTENT_DIR,
// KIMAER_LOG_LEVEL, KIMAER_COMBAT_TIME_SCALE and so on.
const EnvPrefix = "KIMAER"

// Config is the full runtime configuration.
type Config struct {
	ContentDir string       `mapstructure:"content_dir"`
	SaveDir    string       `mapstructure:"save_dir"`
	Log        LogConfig    `mapstructure:"log"`
	Combat     CombatConfig `mapstructure:"combat"`
	UI         UIConfig     `mapstructure:"ui"`
}

// LogConfig controls the file logger. The terminal belongs to the game,
// so logs never go to stdout.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text or json
	File   string `mapstructure:"file"`   // relative paths resolve under SaveDir
}

// CombatConfig tunes the combat engine.
type CombatConfig struct {
	// TimeScale multiplies every pause and timed-input window. 1 is real
	// time and 0 is treated as 1.
	TimeScale float64 `mapstructure:"time_scale"`
	// Seed fixes the RNG for new characters; 0 picks one from the clock.
	Seed     int64 `mapstructure:"seed"`
	Autosave bool  `mapstructure:"autosave"`
}

// UIConfig selects the console.
type UIConfig struct {
	Plain bool `mapstructure:"plain"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("content_dir", "games/kimaer")
	v.SetDefault("save_dir", defaultSaveDir())
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "kimaer.log")
	v.SetDefault("combat.time_scale", 1.0)
	v.SetDefault("combat.seed", 0)
	v.SetDefault("combat.autosave", true)
	v.SetDefault("ui.plain", false)
}

func defaultSaveDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "kimaer")
	}
	return ".kimaer"
}

// Load builds the configuration. path may be empty, in which case
// kimaer.yaml is looked up in the working directory and its absence is not
// an error; an explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("kimaer")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate rejects settings the game cannot run with.
func (c *Config) Validate() error {
	if c.ContentDir == "" {
		return fmt.Errorf("content_dir is required")
	}
	if c.SaveDir == "" {
		return fmt.Errorf("save_dir is required")
	}
	if c.Combat.TimeScale < 0 {
		return fmt.Errorf("combat.time_scale must not be negative, got %g", c.Combat.TimeScale)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// LogPath is where the log file lives.
func (c *Config) LogPath() string {
	if c.Log.File == "" || filepath.IsAbs(c.Log.File) {
		return c.Log.File
	}
	return filepath.Join(c.SaveDir, c.Log.File)
}
