package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ASSEMBLY_API_KEY", "")
	path := writeConfig(t, "log:\n  level: debug\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, []string{"상법", "공정거래"}, cfg.Keywords)
	assert.Equal(t, DefaultLookbackDays, cfg.LookbackDays)
	assert.Equal(t, DefaultListService, cfg.Assembly.ListService)
	assert.Equal(t, 1, cfg.Concurrency.Workers)
	assert.Equal(t, "index.html", cfg.Digest.Output)
	assert.Equal(t, DefaultSubjectPrefix, cfg.Digest.SubjectPrefix)
	assert.Equal(t, "0.0.0.0:8000", cfg.Server.Addr)
	assert.Equal(t, "120s", cfg.Server.Timeout)
}

func TestLoadConfig_FileValues(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("ASSEMBLY_API_KEY", "")
	path := writeConfig(t, `
llm:
  provider: gemini
  api_key: file-key
keywords: ["에너지"]
lookback_days: 3
concurrency:
  workers: 4
  rpm: 30
db:
  host: localhost
  port: 5432
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "gemini-2.5-flash", cfg.LLM.Model)
	assert.Equal(t, "file-key", cfg.LLM.APIKey)
	assert.Equal(t, []string{"에너지"}, cfg.Keywords)
	assert.Equal(t, 3, cfg.LookbackDays)
	assert.Equal(t, 4, cfg.Concurrency.Workers)
	assert.Equal(t, 30, cfg.Concurrency.RPM)
	assert.Equal(t, 5432, cfg.DB.Port)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "env-key")
	t.Setenv("ASSEMBLY_API_KEY", "assembly-key")
	path := writeConfig(t, "llm:\n  api_key: file-key\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.LLM.APIKey)
	assert.Equal(t, "assembly-key", cfg.Assembly.APIKey)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "keywords: [unclosed"))
	assert.Error(t, err)
}

func TestSeconds(t *testing.T) {
	assert.Equal(t, 30*time.Second, Seconds(30))
}
