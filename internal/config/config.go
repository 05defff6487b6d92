// Package config loads and validates the docpipe configuration file.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Source      SourceConfig      `yaml:"source"`
	Environment EnvironmentConfig `yaml:"environment"`
	Extract     ExtractConfig     `yaml:"extract"`
	Render      RenderConfig      `yaml:"render"`
	Artifact    ArtifactConfig    `yaml:"artifact"`
	Publish     PublishConfig     `yaml:"publish"`
	Daemon      DaemonConfig      `yaml:"daemon"`
	Events      EventsConfig      `yaml:"events"`
}

// SourceConfig describes the repository whose documentation is built.
type SourceConfig struct {
	URL      string      `yaml:"url"`
	Package  string      `yaml:"package"`            // package directory inside the checkout
	Triggers []string    `yaml:"triggers,omitempty"` // branches whose pushes start a run
	Auth     *AuthConfig `yaml:"auth,omitempty"`
}

// AuthConfig represents git authentication configuration.
type AuthConfig struct {
	Type     string `yaml:"type"` // "ssh", "token", "basic"
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	Token    string `yaml:"token,omitempty"`
	KeyPath  string `yaml:"key_path,omitempty"`
}

// EnvironmentConfig describes the dependency environment updated before extraction.
type EnvironmentConfig struct {
	Manifest  string `yaml:"manifest"`            // dependency manifest path, relative to checkout
	Installer string `yaml:"installer,omitempty"` // package installer binary
}

// ExtractConfig controls documentation-source generation.
type ExtractConfig struct {
	// Exclude lists module names skipped during scanning (e.g. test packages).
	Exclude []string `yaml:"exclude,omitempty"`
}

// RenderConfig controls static site rendering.
type RenderConfig struct {
	Title   string `yaml:"title"`
	BaseURL string `yaml:"base_url,omitempty"`
}

// ArtifactConfig controls the artifact store.
type ArtifactConfig struct {
	Directory string `yaml:"directory"`
	Name      string `yaml:"name"`
	Database  string `yaml:"database"` // sqlite run/artifact index
}

// PublishConfig controls the publish-to-branch stage.
type PublishConfig struct {
	URL         string `yaml:"url,omitempty"` // defaults to source.url
	Branch      string `yaml:"branch"`
	Token       string `yaml:"token,omitempty"`
	AuthorName  string `yaml:"author_name,omitempty"`
	AuthorEmail string `yaml:"author_email,omitempty"`
}

// DaemonConfig controls the webhook daemon.
type DaemonConfig struct {
	Listen          string `yaml:"listen,omitempty"`
	WebhookPath     string `yaml:"webhook_path,omitempty"`
	Metrics         bool   `yaml:"metrics,omitempty"`
	RebuildInterval string `yaml:"rebuild_interval,omitempty"` // Go duration, "" disables
	QueueSize       int    `yaml:"queue_size,omitempty"`
}

// EventsConfig controls optional run event publication to NATS.
type EventsConfig struct {
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// Load loads configuration from the specified file.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content (e.g. publish tokens).
	expandedData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&config)

	if err := Validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// loadEnvFiles loads .env/.env.local if present. Existing process environment
// variables are not overwritten.
func loadEnvFiles() {
	for _, envPath := range []string{".env", ".env.local"} {
		if _, err := os.Stat(envPath); err != nil {
			continue
		}
		if err := godotenv.Load(envPath); err == nil {
			fmt.Fprintf(os.Stderr, "Loaded environment variables from %s\n", envPath)
			return
		}
	}
}
