package config

// applyDefaults fills in defaults for optional fields after unmarshalling.
func applyDefaults(cfg *Config) {
	if len(cfg.Source.Triggers) == 0 {
		cfg.Source.Triggers = []string{"master", "main"}
	}
	if cfg.Environment.Manifest == "" {
		cfg.Environment.Manifest = "requirements.txt"
	}
	if cfg.Environment.Installer == "" {
		cfg.Environment.Installer = "pip3"
	}
	if cfg.Render.Title == "" {
		cfg.Render.Title = "API Documentation"
	}
	if cfg.Render.BaseURL == "" {
		cfg.Render.BaseURL = "/"
	}
	if cfg.Artifact.Directory == "" {
		cfg.Artifact.Directory = "./artifacts"
	}
	if cfg.Artifact.Name == "" {
		cfg.Artifact.Name = "api-docs"
	}
	if cfg.Artifact.Database == "" {
		cfg.Artifact.Database = "./docpipe.db"
	}
	if cfg.Publish.URL == "" {
		cfg.Publish.URL = cfg.Source.URL
	}
	if cfg.Publish.Branch == "" {
		cfg.Publish.Branch = "gh-pages"
	}
	if cfg.Publish.AuthorName == "" {
		cfg.Publish.AuthorName = "docpipe"
	}
	if cfg.Publish.AuthorEmail == "" {
		cfg.Publish.AuthorEmail = "docpipe@localhost"
	}
	if cfg.Daemon.Listen == "" {
		cfg.Daemon.Listen = ":8080"
	}
	if cfg.Daemon.WebhookPath == "" {
		cfg.Daemon.WebhookPath = "/hooks/push"
	}
	if cfg.Daemon.QueueSize <= 0 {
		cfg.Daemon.QueueSize = 16
	}
	if cfg.Events.Subject == "" {
		cfg.Events.Subject = "docpipe.runs"
	}
}
