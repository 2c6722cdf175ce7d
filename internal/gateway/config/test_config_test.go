package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("APP_ENV", "")

	cfg, err := NewLoader("").Load()
	require.NoError(t, err)
	assert.Equal(t, ":8081", cfg.Port)
	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "fake", cfg.LLM.Provider, "local runs without a key use the fake client")
	assert.Equal(t, 6, cfg.Interview.TurnLimit)
	assert.Equal(t, 6, cfg.Interview.QuestionCount)
	assert.Equal(t, int64(10*1024*1024), cfg.Interview.MaxResumeBytes)
	assert.Equal(t, 30*time.Minute, cfg.Interview.IdleTTL)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.False(t, cfg.Artifact.CanUseS3())
}

func TestLoadFromEnvironment(t *testing.T) {
	chdirTemp(t)
	t.Setenv("PORT", "9090")
	t.Setenv("APP_ENV", "production")
	t.Setenv("GEMINI_API_KEY", "secret")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/prep")
	t.Setenv("INTERVIEW_TURN_LIMIT", "4")
	t.Setenv("ARTIFACT_S3_ENDPOINT", "s3.local:9000")
	t.Setenv("ARTIFACT_S3_ACCESS_KEY", "ak")
	t.Setenv("ARTIFACT_S3_SECRET_KEY", "sk")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test")

	cfg, err := NewLoader("").Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Port)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "secret", cfg.LLM.APIKey)
	assert.Equal(t, "postgres://u:p@db:5432/prep", cfg.DatabaseURL)
	assert.Equal(t, 4, cfg.Interview.TurnLimit)
	assert.True(t, cfg.Artifact.CanUseS3())
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
}

func TestLoadConfigFileAndValidation(t *testing.T) {
	dir := chdirTemp(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: debug\nllm:\n  provider: fake\ninterview:\n  question_count: 3\n"), 0o644))

	l := NewLoader(path)
	cfg, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 3, cfg.Interview.QuestionCount)
	assert.Equal(t, path, l.ConfigFileUsed())

	require.NoError(t, os.WriteFile(path, []byte("llm:\n  provider: openai\n"), 0o644))
	_, err = NewLoader(path).Load()
	assert.ErrorContains(t, err, "unsupported llm provider")

	_, err = NewLoader(filepath.Join(dir, "missing.yaml")).Load()
	assert.Error(t, err)
}
