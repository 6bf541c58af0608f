package connector

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidateRequiredFields(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		want string
	}{
		{"missing host", Config{Database: "d", Username: "u"}, "host"},
		{"missing database", Config{Host: "h", Username: "u"}, "database"},
		{"missing username", Config{Host: "h", Database: "d"}, "username"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}

	cfg := Config{Host: "h", Database: "d", Username: "u"}
	assert.NoError(t, cfg.Validate())
}

func TestConfigNamedSwapsOnlyDatabase(t *testing.T) {
	cfg := Config{Host: "h", Port: 5432, Database: "main", Username: "u", Password: "p"}
	derived := cfg.named("reports")

	assert.Equal(t, "reports", derived.Database)
	assert.Equal(t, "h", derived.Host)
	assert.Equal(t, "main", cfg.Database, "original config is untouched")
}

func TestLoadConfigFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "databases.yaml")
	raw := `
default:
  host: db.internal
  port: 5432
  database: main
  username: app
  password: secret
  connect_timeout: 5s
  pool:
    max_open: 20
    max_idle: 4
databases:
  audit:
    host: audit.internal
    database: audit
    username: auditor
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	rc, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "db.internal", rc.Default.Host)
	assert.Equal(t, 5432, rc.Default.Port)
	assert.Equal(t, 5*time.Second, rc.Default.ConnectTimeout)
	assert.Equal(t, 20, rc.Default.Pool.MaxOpen)

	audit, ok := rc.Databases["audit"]
	require.True(t, ok)
	assert.Equal(t, "audit.internal", audit.Host)
}

func TestLoadConfigRejectsInvalidDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "databases.yaml")
	require.NoError(t, os.WriteFile(path, []byte("default:\n  host: h\n"), 0o600))

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database")
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("DYNQ_DB_HOST", "env.internal")
	t.Setenv("DYNQ_DB_NAME", "envdb")
	t.Setenv("DYNQ_DB_USER", "envuser")
	t.Setenv("DYNQ_DB_PASSWORD", "envpass")
	t.Setenv("DYNQ_DB_PORT", "5433")
	t.Setenv("DYNQ_DB_QUERY_TIMEOUT", "30s")

	cfg := ConfigFromEnv()
	assert.Equal(t, "env.internal", cfg.Host)
	assert.Equal(t, "envdb", cfg.Database)
	assert.Equal(t, "envuser", cfg.Username)
	assert.Equal(t, 5433, cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.QueryTimeout)
	assert.NoError(t, cfg.Validate())
}
