package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Presence store backends.
const (
	PresenceBackendSQLite = "sqlite"
	PresenceBackendRedis  = "redis"
)

// Config holds all runtime settings. Precedence: file > environment >
// defaults.
type Config struct {
	HTTP      *HTTPConfig      `json:"http"`
	WebSocket *WebSocketConfig `json:"websocket"`
	Database  *DatabaseConfig  `json:"database"`
	Auth      *AuthConfig      `json:"auth"`
	Presence  *PresenceConfig  `json:"presence"`
}

type HTTPConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
}

type WebSocketConfig struct {
	PingInterval time.Duration `json:"ping_interval"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	BufferSize   int           `json:"buffer_size"`
}

type DatabaseConfig struct {
	Path string `json:"path"`
}

// AuthConfig carries the shared secret identity tokens are verified
// against. It has no default: deployments must provide it.
type AuthConfig struct {
	Secret string `json:"secret"`
}

// PresenceConfig selects and configures the presence store backend.
type PresenceConfig struct {
	Backend       string `json:"backend"`
	RedisAddr     string `json:"redis_addr"`
	RedisPassword string `json:"redis_password"`
	RedisDB       int    `json:"redis_db"`
}

// DefaultConfig returns defaults for a single-node deployment. The auth
// secret is deliberately empty; Validate rejects it until one is set.
func DefaultConfig() *Config {
	return &Config{
		HTTP: &HTTPConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		WebSocket: &WebSocketConfig{
			PingInterval: 30 * time.Second,
			ReadTimeout:  60 * time.Second,
			WriteTimeout: 5 * time.Second,
			BufferSize:   100,
		},
		Database: &DatabaseConfig{
			Path: "./callboard.db",
		},
		Auth: &AuthConfig{},
		Presence: &PresenceConfig{
			Backend:   PresenceBackendSQLite,
			RedisAddr: "127.0.0.1:6379",
		},
	}
}

// Validate rejects configurations that cannot run.
func (c *Config) Validate() error {
	if c.HTTP == nil {
		return fmt.Errorf("HTTP configuration is required")
	}
	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("HTTP port must be between 0 and 65535")
	}
	if c.HTTP.Host == "" {
		return fmt.Errorf("HTTP host cannot be empty")
	}
	if c.HTTP.ReadTimeout <= 0 || c.HTTP.WriteTimeout <= 0 {
		return fmt.Errorf("HTTP timeouts must be positive")
	}

	if c.WebSocket == nil {
		return fmt.Errorf("WebSocket configuration is required")
	}
	if c.WebSocket.PingInterval <= 0 || c.WebSocket.ReadTimeout <= 0 || c.WebSocket.WriteTimeout <= 0 {
		return fmt.Errorf("WebSocket intervals must be positive")
	}
	if c.WebSocket.BufferSize <= 0 {
		return fmt.Errorf("WebSocket buffer size must be positive")
	}

	if c.Database == nil || c.Database.Path == "" {
		return fmt.Errorf("database path cannot be empty")
	}

	if c.Auth == nil || c.Auth.Secret == "" {
		return fmt.Errorf("auth secret is required (set CALLBOARD_JWT_SECRET)")
	}

	if c.Presence == nil {
		return fmt.Errorf("presence configuration is required")
	}
	switch c.Presence.Backend {
	case PresenceBackendSQLite:
	case PresenceBackendRedis:
		if c.Presence.RedisAddr == "" {
			return fmt.Errorf("redis address is required for the redis presence backend")
		}
	default:
		return fmt.Errorf("unknown presence backend %q", c.Presence.Backend)
	}

	return nil
}

// LoadFromEnv overlays CALLBOARD_* environment variables on the defaults.
func LoadFromEnv() *Config {
	config := DefaultConfig()

	if host := os.Getenv("CALLBOARD_HTTP_HOST"); host != "" {
		config.HTTP.Host = host
	}
	if port := os.Getenv("CALLBOARD_HTTP_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.HTTP.Port = p
		}
	}
	if timeout := os.Getenv("CALLBOARD_HTTP_READ_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.HTTP.ReadTimeout = d
		}
	}
	if timeout := os.Getenv("CALLBOARD_HTTP_WRITE_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.HTTP.WriteTimeout = d
		}
	}

	if interval := os.Getenv("CALLBOARD_WEBSOCKET_PING_INTERVAL"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil {
			config.WebSocket.PingInterval = d
		}
	}
	if timeout := os.Getenv("CALLBOARD_WEBSOCKET_READ_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.WebSocket.ReadTimeout = d
		}
	}
	if timeout := os.Getenv("CALLBOARD_WEBSOCKET_WRITE_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.WebSocket.WriteTimeout = d
		}
	}
	if size := os.Getenv("CALLBOARD_WEBSOCKET_BUFFER_SIZE"); size != "" {
		if n, err := strconv.Atoi(size); err == nil {
			config.WebSocket.BufferSize = n
		}
	}

	if path := os.Getenv("CALLBOARD_DATABASE_PATH"); path != "" {
		config.Database.Path = path
	}

	if secret := os.Getenv("CALLBOARD_JWT_SECRET"); secret != "" {
		config.Auth.Secret = secret
	}

	if backend := os.Getenv("CALLBOARD_PRESENCE_BACKEND"); backend != "" {
		config.Presence.Backend = backend
	}
	if addr := os.Getenv("CALLBOARD_REDIS_ADDR"); addr != "" {
		config.Presence.RedisAddr = addr
	}
	if password := os.Getenv("CALLBOARD_REDIS_PASSWORD"); password != "" {
		config.Presence.RedisPassword = password
	}
	if db := os.Getenv("CALLBOARD_REDIS_DB"); db != "" {
		if n, err := strconv.Atoi(db); err == nil {
			config.Presence.RedisDB = n
		}
	}

	return config
}

// configFile mirrors Config with durations as strings for JSON parsing.
type configFile struct {
	HTTP *struct {
		Host         string `json:"host"`
		Port         int    `json:"port"`
		ReadTimeout  string `json:"read_timeout"`
		WriteTimeout string `json:"write_timeout"`
	} `json:"http"`
	WebSocket *struct {
		PingInterval string `json:"ping_interval"`
		ReadTimeout  string `json:"read_timeout"`
		WriteTimeout string `json:"write_timeout"`
		BufferSize   int    `json:"buffer_size"`
	} `json:"websocket"`
	Database *struct {
		Path string `json:"path"`
	} `json:"database"`
	Auth *struct {
		Secret string `json:"secret"`
	} `json:"auth"`
	Presence *struct {
		Backend       string `json:"backend"`
		RedisAddr     string `json:"redis_addr"`
		RedisPassword string `json:"redis_password"`
		RedisDB       int    `json:"redis_db"`
	} `json:"presence"`
}

// LoadFromFile overlays a JSON config file on the environment-derived
// configuration.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var file configFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	config := LoadFromEnv()

	if file.HTTP != nil {
		if file.HTTP.Host != "" {
			config.HTTP.Host = file.HTTP.Host
		}
		if file.HTTP.Port > 0 {
			config.HTTP.Port = file.HTTP.Port
		}
		if d, err := time.ParseDuration(file.HTTP.ReadTimeout); err == nil && file.HTTP.ReadTimeout != "" {
			config.HTTP.ReadTimeout = d
		}
		if d, err := time.ParseDuration(file.HTTP.WriteTimeout); err == nil && file.HTTP.WriteTimeout != "" {
			config.HTTP.WriteTimeout = d
		}
	}

	if file.WebSocket != nil {
		if d, err := time.ParseDuration(file.WebSocket.PingInterval); err == nil && file.WebSocket.PingInterval != "" {
			config.WebSocket.PingInterval = d
		}
		if d, err := time.ParseDuration(file.WebSocket.ReadTimeout); err == nil && file.WebSocket.ReadTimeout != "" {
			config.WebSocket.ReadTimeout = d
		}
		if d, err := time.ParseDuration(file.WebSocket.WriteTimeout); err == nil && file.WebSocket.WriteTimeout != "" {
			config.WebSocket.WriteTimeout = d
		}
		if file.WebSocket.BufferSize > 0 {
			config.WebSocket.BufferSize = file.WebSocket.BufferSize
		}
	}

	if file.Database != nil && file.Database.Path != "" {
		config.Database.Path = file.Database.Path
	}

	if file.Auth != nil && file.Auth.Secret != "" {
		config.Auth.Secret = file.Auth.Secret
	}

	if file.Presence != nil {
		if file.Presence.Backend != "" {
			config.Presence.Backend = file.Presence.Backend
		}
		if file.Presence.RedisAddr != "" {
			config.Presence.RedisAddr = file.Presence.RedisAddr
		}
		if file.Presence.RedisPassword != "" {
			config.Presence.RedisPassword = file.Presence.RedisPassword
		}
		if file.Presence.RedisDB != 0 {
			config.Presence.RedisDB = file.Presence.RedisDB
		}
	}

	return config, nil
}

// Load resolves the effective configuration: the optional file path wins
// over environment variables, which win over defaults. Validation is left
// to the caller so tooling can inspect partial configs.
func Load(path string) *Config {
	if path != "" {
		if config, err := LoadFromFile(path); err == nil {
			return config
		}
	}
	return LoadFromEnv()
}
