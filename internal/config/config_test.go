package config

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memFs(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for name, body := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(body), 0o600))
	}
	return fs
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	c, err := Load(WithFs(memFs(t, nil)), WithSearchPaths("/app"))
	require.NoError(t, err)

	assert.Equal(t, ":3001", c.Relay.ListenAddr)
	assert.Equal(t, "", c.Relay.GRPCAddr)
	assert.Equal(t, []string{"*"}, c.Relay.AllowedOrigins)
	assert.Equal(t, "druid", c.Engine.Kind)
	assert.Equal(t, "http://localhost:8888/druid/v2/sql", c.Engine.URL)
	assert.Equal(t, time.Duration(0), c.Engine.Timeout)
	assert.Equal(t, "http://localhost:3001", c.Client.RelayURL)
	assert.Equal(t, "info", c.LogLevel)
}

func TestLoadPrecedence(t *testing.T) {
	fs := memFs(t, map[string]string{
		"/app/config.yaml": `
listen_addr: ":4000"
engine: sqlite
engine_dsn: "file:from-config.db"
allowed_origins:
  - http://localhost:5173
  - http://dash.local
downstream_timeout: 30s
`,
		"/app/.env":       "QUERYDECK_ENGINE_DSN=file:from-dotenv.db\nQUERYDECK_LOG_LEVEL=debug\nUNRELATED=1\n",
		"/app/.env.local": "QUERYDECK_LOG_LEVEL=warn\n",
	})
	t.Setenv("QUERYDECK_LISTEN_ADDR", ":5000")

	c, err := Load(WithFs(fs), WithSearchPaths("/app"))
	require.NoError(t, err)

	assert.Equal(t, ":5000", c.Relay.ListenAddr, "env wins over config file")
	assert.Equal(t, "sqlite", c.Engine.Kind)
	assert.Equal(t, "file:from-dotenv.db", c.Engine.DSN, ".env wins over config file")
	assert.Equal(t, "warn", c.LogLevel, ".env.local wins over .env")
	assert.Equal(t, []string{"http://localhost:5173", "http://dash.local"}, c.Relay.AllowedOrigins)
	assert.Equal(t, 30*time.Second, c.Engine.Timeout)
}

func TestLoadCommaSeparatedOrigins(t *testing.T) {
	t.Setenv("QUERYDECK_ALLOWED_ORIGINS", "http://a.local, http://b.local")
	c, err := Load(WithFs(memFs(t, nil)), WithSearchPaths("/app"))
	require.NoError(t, err)
	assert.Equal(t, []string{"http://a.local", "http://b.local"}, c.Relay.AllowedOrigins)
}

func TestLoadDatabaseURLFallback(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/wiki")
	c, err := Load(WithFs(memFs(t, nil)), WithSearchPaths("/app"))
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@localhost/wiki", c.Engine.DSN)
}

func TestLoadRejectsUnknownEngine(t *testing.T) {
	t.Setenv("QUERYDECK_ENGINE", "oracle")
	_, err := Load(WithFs(memFs(t, nil)), WithSearchPaths("/app"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown engine "oracle"`)
}

func TestLoadMalformedConfig(t *testing.T) {
	fs := memFs(t, map[string]string{"/app/config.yaml": "listen_addr: [unterminated"})
	_, err := Load(WithFs(fs), WithSearchPaths("/app"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}
