package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "games/kimaer", cfg.ContentDir)
	assert.NotEmpty(t, cfg.SaveDir)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, 1.0, cfg.Combat.TimeScale)
	assert.Zero(t, cfg.Combat.Seed)
	assert.True(t, cfg.Combat.Autosave)
	assert.False(t, cfg.UI.Plain)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "custom.yaml", `
content_dir: /srv/content
save_dir: /srv/saves
log:
  level: debug
  format: json
combat:
  time_scale: 0.5
  seed: 42
  autosave: false
ui:
  plain: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/content", cfg.ContentDir)
	assert.Equal(t, "/srv/saves", cfg.SaveDir)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 0.5, cfg.Combat.TimeScale)
	assert.Equal(t, int64(42), cfg.Combat.Seed)
	assert.False(t, cfg.Combat.Autosave)
	assert.True(t, cfg.UI.Plain)
}

func TestLoad_WorkingDirFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "kimaer.yaml", "content_dir: here\n")
	chdir(t, dir)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "here", cfg.ContentDir)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "kimaer.yaml", "log:\n  level: warn\ncombat:\n  time_scale: 2\n")
	t.Setenv("KIMAER_LOG_LEVEL", "debug")
	t.Setenv("KIMAER_COMBAT_TIME_SCALE", "0")
	t.Setenv("KIMAER_UI_PLAIN", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Zero(t, cfg.Combat.TimeScale)
	assert.True(t, cfg.UI.Plain)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "bad.yaml", "log:\n  level: loud\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.level")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			ContentDir: "games/kimaer",
			SaveDir:    "/tmp/k",
			Log:        LogConfig{Level: "info", Format: "text"},
			Combat:     CombatConfig{TimeScale: 1},
		}
	}
	require.NoError(t, valid().Validate())

	tests := map[string]func(c *Config){
		"no content dir": func(c *Config) { c.ContentDir = "" },
		"no save dir":    func(c *Config) { c.SaveDir = "" },
		"negative scale": func(c *Config) { c.Combat.TimeScale = -1 },
		"unknown level":  func(c *Config) { c.Log.Level = "chatty" },
		"unknown format": func(c *Config) { c.Log.Format = "xml" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := valid()
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestLogPath(t *testing.T) {
	c := &Config{SaveDir: "/data", Log: LogConfig{File: "kimaer.log"}}
	assert.Equal(t, filepath.Join("/data", "kimaer.log"), c.LogPath())

	c.Log.File = "/var/log/k.log"
	assert.Equal(t, "/var/log/k.log", c.LogPath())

	c.Log.File = ""
	assert.Empty(t, c.LogPath())
}

func TestNewLogger(t *testing.T) {
	dir := t.TempDir()
	c := &Config{SaveDir: dir, Log: LogConfig{Level: "debug", Format: "json", File: "logs/k.log"}}

	log, closer, err := c.NewLogger()
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)

	log.WithField("encounter", "x").Info("fight started")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(filepath.Join(dir, "logs", "k.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"fight started"`)
	assert.Contains(t, string(data), `"encounter":"x"`)
}

func TestNewLogger_NoFile(t *testing.T) {
	c := &Config{Log: LogConfig{Level: "info", Format: "text"}}
	log, closer, err := c.NewLogger()
	require.NoError(t, err)
	log.Info("dropped")
	assert.NoError(t, closer.Close())
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains: it changes
// the working directory and restores it when the test finishes.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
