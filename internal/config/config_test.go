package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func unsetForTest(t *testing.T, key string) {
	t.Helper()
	orig, had := os.LookupEnv(key)
	os.Unsetenv(key)
	t.Cleanup(func() {
		if had {
			os.Setenv(key, orig)
		}
	})
}

func TestLoadDefaults(t *testing.T) {
	unsetForTest(t, "NODEFLOW_LOG_LEVEL")
	unsetForTest(t, "OPENAI_API_KEY")

	cfg := Load()
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "", cfg.OpenAIAPIKey)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("NODEFLOW_LOG_LEVEL", "debug")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg := Load()
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "sk-test", cfg.OpenAIAPIKey)
}
