package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_Load(t *testing.T) {
	content := `
rules:
  types: [feat, fix]
  ticket_prefixes: [SSPORT]
  header_max_length: 60
server:
  listen: ":9000"
  otlp_endpoint: ${COMMITCHECK_OTLP}
`
	tmpFile := writeConfig(t, content)

	t.Setenv("COMMITCHECK_OTLP", "collector:4317")

	loader, err := NewLoader(tmpFile)
	require.NoError(t, err)

	cfg, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"feat", "fix"}, cfg.Rules.Types)
	assert.Equal(t, []string{"SSPORT"}, cfg.Rules.TicketPrefixes)
	assert.Equal(t, 60, cfg.Rules.HeaderMaxLength)
	assert.Equal(t, ":9000", cfg.Server.Listen)
	assert.Equal(t, "collector:4317", cfg.Server.OTLPEndpoint)

	// defaults fill the gaps
	assert.Equal(t, 100, cfg.Rules.BodyMaxLineLength)
	assert.Equal(t, 100, cfg.Server.MaxBatch)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoader_LoadRejectsUnknownDisabledRule(t *testing.T) {
	tmpFile := writeConfig(t, "rules:\n  disabled: [no-such-rule]\n")

	loader, err := NewLoader(tmpFile)
	require.NoError(t, err)

	_, err = loader.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no-such-rule")
}

func TestLoader_LoadMissingFile(t *testing.T) {
	loader, err := NewLoader(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	_, err = loader.Load()
	require.Error(t, err)
	assert.Nil(t, loader.Current())
}

func TestLoader_WatchReload(t *testing.T) {
	tmpFile := writeConfig(t, "rules:\n  header_max_length: 50\n")

	loader, err := NewLoader(tmpFile)
	require.NoError(t, err)
	defer loader.Close()

	_, err = loader.Load()
	require.NoError(t, err)

	changed := make(chan *Config, 1)
	require.NoError(t, loader.Watch(func(cfg *Config) {
		select {
		case changed <- cfg:
		default:
		}
	}))

	require.NoError(t, os.WriteFile(tmpFile, []byte("rules:\n  header_max_length: 80\n"), 0o644))

	select {
	case cfg := <-changed:
		assert.Equal(t, 80, cfg.Rules.HeaderMaxLength)
		assert.Equal(t, 80, loader.Current().Rules.HeaderMaxLength)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for config reload")
	}
}

func TestLoader_WatchKeepsPreviousOnBadReload(t *testing.T) {
	tmpFile := writeConfig(t, "rules:\n  header_max_length: 50\n")

	loader, err := NewLoader(tmpFile)
	require.NoError(t, err)
	defer loader.Close()

	_, err = loader.Load()
	require.NoError(t, err)

	require.NoError(t, loader.Watch(nil))
	require.NoError(t, os.WriteFile(tmpFile, []byte("rules: [broken"), 0o644))

	// Give the watcher a moment; the previous config must survive.
	time.Sleep(200 * time.Millisecond)
	require.NotNil(t, loader.Current())
	assert.Equal(t, 50, loader.Current().Rules.HeaderMaxLength)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 72, cfg.Rules.HeaderMaxLength)
	assert.Equal(t, ":8071", cfg.Server.Listen)
	require.NoError(t, cfg.Validate())
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpFile := filepath.Join(t.TempDir(), DefaultFileName)
	require.NoError(t, os.WriteFile(tmpFile, []byte(content), 0o644))
	return tmpFile
}
