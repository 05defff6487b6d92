package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Validate checks the configuration for problems that would only surface
// mid-run otherwise.
func Validate(cfg *Config) error {
	if cfg.Source.URL == "" {
		return errors.New("source.url must be configured")
	}
	if cfg.Source.Package == "" {
		return errors.New("source.package must be configured")
	}
	if strings.HasPrefix(cfg.Source.Package, "/") {
		return fmt.Errorf("source.package must be relative to the checkout, got %q", cfg.Source.Package)
	}
	for _, b := range cfg.Source.Triggers {
		if strings.TrimSpace(b) == "" {
			return errors.New("source.triggers must not contain empty branch names")
		}
		if b == cfg.Publish.Branch {
			// Publishing to a trigger branch would loop forever.
			return fmt.Errorf("publish.branch %q must not be a trigger branch", b)
		}
	}
	if cfg.Source.Auth != nil {
		if err := validateAuth(cfg.Source.Auth); err != nil {
			return fmt.Errorf("source.auth: %w", err)
		}
	}
	if cfg.Daemon.RebuildInterval != "" {
		d, err := time.ParseDuration(cfg.Daemon.RebuildInterval)
		if err != nil {
			return fmt.Errorf("daemon.rebuild_interval: %w", err)
		}
		if d < time.Minute {
			return fmt.Errorf("daemon.rebuild_interval %s is below the 1m minimum", d)
		}
	}
	if cfg.Events.NATSURL != "" && cfg.Events.Subject == "" {
		return errors.New("events.subject must be set when events.nats_url is configured")
	}
	return nil
}

func validateAuth(auth *AuthConfig) error {
	switch auth.Type {
	case "", "none", "ssh":
		return nil
	case "token":
		if auth.Token == "" {
			return errors.New("token authentication requires a token")
		}
	case "basic":
		if auth.Username == "" || auth.Password == "" {
			return errors.New("basic authentication requires username and password")
		}
	default:
		return fmt.Errorf("unsupported authentication type: %s", auth.Type)
	}
	return nil
}

// RebuildInterval returns the parsed daemon rebuild interval, zero when disabled.
// Validation guarantees the value parses.
func (c *Config) RebuildInterval() time.Duration {
	if c.Daemon.RebuildInterval == "" {
		return 0
	}
	d, _ := time.ParseDuration(c.Daemon.RebuildInterval)
	return d
}
