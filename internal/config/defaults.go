package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultScheme           = "ws"
	DefaultPath             = "/ws/orders"
	DefaultHandshakeTimeout = 10 * time.Second
	DefaultPingInterval     = 30 * time.Second
	DefaultWriteTimeout     = 5 * time.Second
	DefaultQueueSize        = 1024
	DefaultBatchSize        = 500
	DefaultFlushInterval    = 1 * time.Second
	DefaultDBPort           = 5432
	DefaultDBSSLMode        = "prefer"
	DefaultMaxConns         = 4
	DefaultMinConns         = 1
	DefaultServerPort       = 8080
)

func (c *FeedConfig) applyDefaults() {
	// Feed defaults
	if c.Feed.Scheme == "" {
		c.Feed.Scheme = DefaultScheme
	}
	if c.Feed.Path == "" {
		c.Feed.Path = DefaultPath
	}
	if c.Feed.HandshakeTimeout == 0 {
		c.Feed.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.Feed.PingInterval == nil {
		d := DefaultPingInterval
		c.Feed.PingInterval = &d
	}
	if c.Feed.WriteTimeout == 0 {
		c.Feed.WriteTimeout = DefaultWriteTimeout
	}
	if c.Feed.QueueSize == 0 {
		c.Feed.QueueSize = DefaultQueueSize
	}

	// Archive defaults
	if c.Archive.BatchSize == 0 {
		c.Archive.BatchSize = DefaultBatchSize
	}
	if c.Archive.FlushInterval == 0 {
		c.Archive.FlushInterval = DefaultFlushInterval
	}
	applyDBDefaults(&c.Archive.Database)

	// Server defaults
	if c.Server.Port == 0 {
		c.Server.Port = DefaultServerPort
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
