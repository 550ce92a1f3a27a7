package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chative/supportdesk/internal/agent/model"
	"github.com/chative/supportdesk/internal/core"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, core.Development, cfg.Env())
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 15, cfg.Session.HistoryLimit)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, 3, cfg.Generator.MaxAttempts)
	assert.Equal(t, 30*time.Second, cfg.Generator.Timeout)
	assert.Equal(t, 4, cfg.Retriever.TopK)
	assert.Equal(t, 500, cfg.Knowledge.ChunkSize)
	assert.Equal(t, 50, cfg.Knowledge.ChunkOverlap)
	assert.Equal(t, "examples", cfg.Classifier.Mode)
	assert.Equal(t, "gemini-2.5-flash", cfg.Generator.Model)
}

func TestLoadConfigFromEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	body := "ENVIRONMENT=prod\nSESSION_HISTORY_LIMIT=5\nRETRIEVER_TOP_K=2\nREDIS_URL=redis://localhost:6379/0\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Cleanup(func() {
		for _, k := range []string{"ENVIRONMENT", "SESSION_HISTORY_LIMIT", "RETRIEVER_TOP_K", "REDIS_URL"} {
			os.Unsetenv(k)
		}
	})

	cfg, err := loadConfig(path)
	require.NoError(t, err)

	assert.True(t, cfg.Env().IsProduction())
	assert.Equal(t, 5, cfg.Session.HistoryLimit)
	assert.Equal(t, 2, cfg.Retriever.TopK)
	assert.True(t, cfg.Redis.Enabled())
}

func TestLoadConfigRejectsBadValue(t *testing.T) {
	t.Setenv("SESSION_TTL", "forever")

	_, err := loadConfig("")
	require.Error(t, err)
}

func TestBuildClassifierModes(t *testing.T) {
	cfg := &AppConfig{}
	cfg.Classifier.Mode = "examples"
	c, err := buildClassifier(cfg, nil)
	require.NoError(t, err)
	r, ok := c.(model.Readiness)
	require.True(t, ok)
	assert.True(t, r.Ready())

	cfg.Classifier.Mode = "model"
	_, err = buildClassifier(cfg, nil)
	require.Error(t, err)

	cfg.Classifier.Mode = "regex"
	_, err = buildClassifier(cfg, nil)
	require.ErrorContains(t, err, "unknown CLASSIFIER_MODE")
}
