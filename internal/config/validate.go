package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks that all required fields are set and values are valid.
func (c *FeedConfig) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if c.Feed.Scheme != "ws" && c.Feed.Scheme != "wss" {
		return fmt.Errorf("feed.scheme must be ws or wss, got %q", c.Feed.Scheme)
	}
	if c.Feed.Host == "" {
		return errors.New("feed.host is required")
	}
	if !strings.HasPrefix(c.Feed.Path, "/") {
		return fmt.Errorf("feed.path must start with /, got %q", c.Feed.Path)
	}
	if c.Feed.HandshakeTimeout < 0 {
		return errors.New("feed.handshake_timeout must be >= 0")
	}
	if c.Feed.PingInterval != nil && *c.Feed.PingInterval < 0 {
		return errors.New("feed.ping_interval must be >= 0")
	}
	if c.Feed.QueueSize < 1 {
		return errors.New("feed.queue_size must be >= 1")
	}

	if c.Archive.Enabled {
		if c.Archive.BatchSize < 1 {
			return errors.New("archive.batch_size must be >= 1")
		}
		if c.Archive.FlushInterval <= 0 {
			return errors.New("archive.flush_interval must be > 0")
		}
		if err := c.Archive.Database.validate("archive.database"); err != nil {
			return err
		}
	}

	if c.Server.Enabled && (c.Server.Port < 1 || c.Server.Port > 65535) {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
