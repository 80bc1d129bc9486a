// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Server        ServerConfig       `mapstructure:"server"`
	Ledger        LedgerConfig       `mapstructure:"ledger"`
	Database      DatabaseConfig     `mapstructure:"database"`
	Messages      MessagesConfig     `mapstructure:"messages"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address         string `mapstructure:"address"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

// LedgerConfig selects the submission ledger backend.
type LedgerConfig struct {
	Backend  string `mapstructure:"backend"` // "file", "redis" or "postgres"
	FilePath string `mapstructure:"file_path"`
	RedisKey string `mapstructure:"redis_key"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// MessagesConfig points at the decision message registry.
type MessagesConfig struct {
	RegistryPath string `mapstructure:"registry_path"`
}

// NotificationConfig holds settings for the agent notification stage.
type NotificationConfig struct {
	Email struct {
		Enabled    bool   `mapstructure:"enabled"`
		FromEmail  string `mapstructure:"from_email"`
		AgentEmail string `mapstructure:"agent_email"`
	} `mapstructure:"email"`
	SMS struct {
		Enabled       bool    `mapstructure:"enabled"`
		AgentPhone    string  `mapstructure:"agent_phone"`
		PageThreshold float64 `mapstructure:"page_threshold"`
	} `mapstructure:"sms"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// Ledger backends.
const (
	LedgerBackendFile     = "file"
	LedgerBackendRedis    = "redis"
	LedgerBackendPostgres = "postgres"
)
