package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileConfig represents the structure of ~/.stdpapers/config.yaml.
type FileConfig struct {
	Store struct {
		DSN string `yaml:"dsn"`
	} `yaml:"store"`
	Fetch struct {
		Timeout   string `yaml:"timeout"`
		UserAgent string `yaml:"user_agent"`
	} `yaml:"fetch"`
	Watch struct {
		Debounce   string   `yaml:"debounce"`
		Extensions []string `yaml:"extensions"`
	} `yaml:"watch"`
}

const defaultConfigFile = `# stdpapers configuration
store:
  dsn: %q
fetch:
  timeout: "30s"
watch:
  debounce: "1s"
  extensions: [".html", ".htm"]
`

// ConfigFilePath returns the path of the user's config file.
func ConfigFilePath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".stdpapers", "config.yaml"), nil
}

// LoadConfigFile loads configuration from ~/.stdpapers/config.yaml. Returns
// nil if the file doesn't exist (not an error). Returns error if the file
// exists but cannot be parsed.
func LoadConfigFile() (*FileConfig, error) {
	configPath, err := ConfigFilePath()
	if err != nil {
		return nil, err
	}
	return LoadConfigFileFrom(configPath)
}

// LoadConfigFileFrom loads configuration from an explicit path, with the
// same missing-file behavior as LoadConfigFile.
func LoadConfigFileFrom(configPath string) (*FileConfig, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, nil // File doesn't exist -- not an error
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

// WriteDefaultConfigFile writes a starter config file pointing the store at
// ~/.stdpapers/papers.db. An existing file is left alone unless force is set.
// Reports whether a file was written.
func WriteDefaultConfigFile(force bool) (bool, error) {
	configPath, err := ConfigFilePath()
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(configPath); err == nil && !force {
		return false, nil
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}

	content := fmt.Sprintf(defaultConfigFile, filepath.Join(dir, "papers.db"))
	if err := os.WriteFile(configPath, []byte(content), 0o600); err != nil {
		return false, fmt.Errorf("failed to write config file: %w", err)
	}

	return true, nil
}
