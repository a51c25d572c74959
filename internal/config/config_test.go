package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/multical/internal/registry"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad(t *testing.T) {
	t.Setenv("GOOGLE_CLIENT_ID", "")
	t.Setenv("GOOGLE_CLIENT_SECRET", "")
	t.Setenv("MULTICAL_DATABASE", "")
	t.Setenv("METRICS_ADDR", "")

	path := writeConfig(t, `
database: /var/lib/multical/accounts.db
registry:
  ttl: 2m
  primary_policy: strict
  refresh: "*/15 * * * *"
google:
  client_id: id.apps.googleusercontent.com
  client_secret: secret
server:
  transport: streamable-http
  http_addr: ":8181"
  yolo: true
`)

	config, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/multical/accounts.db", config.Database)
	assert.Equal(t, 2*time.Minute, config.Registry.TTL)
	assert.Equal(t, registry.PrimaryStrict, config.PrimaryPolicy())
	assert.Equal(t, "*/15 * * * *", config.Registry.Refresh)
	assert.Equal(t, "id.apps.googleusercontent.com", config.Google.ClientID)
	assert.Equal(t, TransportStreamableHTTP, config.Server.Transport)
	assert.Equal(t, ":8181", config.Server.HTTPAddr)
	assert.Equal(t, ":9090", config.Server.MetricsAddr)
	assert.True(t, config.Server.Yolo)
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "database: /tmp/m.db\n")

	config, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, registry.DefaultTTL, config.Registry.TTL)
	assert.Equal(t, registry.PrimaryFallback, config.PrimaryPolicy())
	assert.Equal(t, TransportStdio, config.Server.Transport)
	assert.False(t, config.Server.Yolo)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("GOOGLE_CLIENT_ID", "env-id")
	t.Setenv("MULTICAL_DATABASE", "/env/db")

	path := writeConfig(t, `
database: /file/db
google:
  client_id: file-id
`)

	config, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-id", config.Google.ClientID)
	assert.Equal(t, "/env/db", config.Database)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "bad yaml", content: "registry: [\n"},
		{name: "negative ttl", content: "registry:\n  ttl: -1m\n"},
		{name: "bad policy", content: "registry:\n  primary_policy: random\n"},
		{name: "bad cron", content: "registry:\n  refresh: \"every now and then\"\n"},
		{name: "bad transport", content: "server:\n  transport: carrier-pigeon\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadOrDefault_MissingFile(t *testing.T) {
	t.Setenv("MULTICAL_DATABASE", "")

	config, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Database, config.Database)
	assert.Equal(t, TransportStdio, config.Server.Transport)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("MULTICAL_CONFIG", "/etc/multical.yaml")
	assert.Equal(t, "/etc/multical.yaml", DefaultPath())

	t.Setenv("MULTICAL_CONFIG", "")
	assert.Equal(t, "config.yaml", filepath.Base(DefaultPath()))
}
