package config

import (
	"fmt"
	"os"
)

const exampleConfig = `# docpipe configuration
source:
  url: https://git.example.com/lab/organoid-tracker.git
  package: organoid_tracker
  triggers:
    - master
    - main

environment:
  manifest: requirements.txt
  installer: pip3

render:
  title: Organoid Tracker API

artifact:
  directory: ./artifacts
  name: api-docs
  database: ./docpipe.db

publish:
  branch: gh-pages
  token: ${DOCPIPE_PUBLISH_TOKEN}

daemon:
  listen: ":8080"
  webhook_path: /hooks/push
  metrics: true
`

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}
	if err := os.WriteFile(configPath, []byte(exampleConfig), 0o600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}
	return nil
}
