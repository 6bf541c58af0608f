package connector

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the connection parameters for one logical database.
type Config struct {
	Host           string            `json:"host" yaml:"host"`
	Port           int               `json:"port" yaml:"port"`
	Database       string            `json:"database" yaml:"database"`
	Username       string            `json:"username" yaml:"username"`
	Password       string            `json:"password" yaml:"password"`
	SSLMode        string            `json:"ssl_mode" yaml:"ssl_mode"`
	Params         map[string]string `json:"params" yaml:"params"`
	Pool           PoolConfig        `json:"pool" yaml:"pool"`
	ConnectTimeout time.Duration     `json:"connect_timeout" yaml:"connect_timeout"`
	QueryTimeout   time.Duration     `json:"query_timeout" yaml:"query_timeout"`
	Retry          *RetryConfig      `json:"retry,omitempty" yaml:"retry,omitempty"`
}

// PoolConfig defines connection pool settings.
type PoolConfig struct {
	MaxOpen     int           `json:"max_open" yaml:"max_open"`
	MaxIdle     int           `json:"max_idle" yaml:"max_idle"`
	MaxLifetime time.Duration `json:"max_lifetime" yaml:"max_lifetime"`
	MaxIdleTime time.Duration `json:"max_idle_time" yaml:"max_idle_time"`
}

// RetryConfig defines connection retry behavior.
type RetryConfig struct {
	MaxRetries int           `json:"max_retries" yaml:"max_retries"`
	BaseDelay  time.Duration `json:"base_delay" yaml:"base_delay"`
	MaxDelay   time.Duration `json:"max_delay" yaml:"max_delay"`
}

// Validate checks that the parameters required to reach a database are set.
func (c *Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("connector: config parameter %q is required", "host")
	}
	if c.Database == "" {
		return fmt.Errorf("connector: config parameter %q is required", "database")
	}
	if c.Username == "" {
		return fmt.Errorf("connector: config parameter %q is required", "username")
	}
	return nil
}

// named returns a copy of the config pointed at a different database name.
func (c Config) named(database string) Config {
	c.Database = database
	return c
}

// RegistryConfig holds the process-wide default connection parameters plus
// optional per-name overrides for additional logical databases.
type RegistryConfig struct {
	Default   Config            `json:"default" yaml:"default"`
	Databases map[string]Config `json:"databases" yaml:"databases"`
}

// LoadConfig reads a RegistryConfig from a YAML file.
func LoadConfig(path string) (RegistryConfig, error) {
	var rc RegistryConfig
	raw, err := os.ReadFile(path)
	if err != nil {
		return rc, fmt.Errorf("connector: read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &rc); err != nil {
		return rc, fmt.Errorf("connector: parse config: %w", err)
	}
	if err := rc.Default.Validate(); err != nil {
		return rc, err
	}
	return rc, nil
}
