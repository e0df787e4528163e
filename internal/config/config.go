package config

import (
	"net/url"
	"time"
)

// FeedConfig is the root configuration for an order feed instance.
type FeedConfig struct {
	Instance InstanceConfig `yaml:"instance"`
	Feed     SourceConfig   `yaml:"feed"`
	Display  DisplayConfig  `yaml:"display"`
	Archive  ArchiveConfig  `yaml:"archive"`
	Server   ServerConfig   `yaml:"server"`
}

// InstanceConfig identifies this process.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// SourceConfig describes the WebSocket order feed.
type SourceConfig struct {
	Scheme           string         `yaml:"scheme"` // "ws" or "wss"
	Host             string         `yaml:"host"`   // host[:port]
	Path             string         `yaml:"path"`
	HandshakeTimeout time.Duration  `yaml:"handshake_timeout"`
	PingInterval     *time.Duration `yaml:"ping_interval"` // unset = default, 0s = disabled
	WriteTimeout     time.Duration  `yaml:"write_timeout"`
	QueueSize        int            `yaml:"queue_size"`
}

// URL returns the full feed URL, e.g. ws://localhost:8000/ws/orders.
func (s SourceConfig) URL() string {
	u := url.URL{
		Scheme: s.Scheme,
		Host:   s.Host,
		Path:   s.Path,
	}
	return u.String()
}

// DisplayConfig selects local render targets.
type DisplayConfig struct {
	Stdout bool `yaml:"stdout"` // Print one line per row
}

// ArchiveConfig holds the optional Postgres archive.
type ArchiveConfig struct {
	Enabled       bool          `yaml:"enabled"`
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	Database      DBConfig      `yaml:"database"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// ServerConfig holds the HTTP health and view server settings.
type ServerConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}
