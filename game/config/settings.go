package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings are the server defaults read from an optional YAML file.
// Explicitly set command-line flags take precedence.
type Settings struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	MapsDir         string        `yaml:"mapsDir"`
	DefaultMap      string        `yaml:"defaultMap"`
	SessionTTL      time.Duration `yaml:"sessionTTL"`
	CleanupInterval time.Duration `yaml:"cleanupInterval"`
	MaxWalkSteps    int           `yaml:"maxWalkSteps"`
	Ngrok           NgrokSettings `yaml:"ngrok"`
}

// NgrokSettings configures the optional public tunnel
type NgrokSettings struct {
	Enabled bool   `yaml:"enabled"`
	Domain  string `yaml:"domain"`
}

// DefaultSettings returns the settings used when no file is given
func DefaultSettings() *Settings {
	return &Settings{
		Host:            "localhost",
		Port:            8080,
		MapsDir:         "maps",
		SessionTTL:      24 * time.Hour,
		CleanupInterval: time.Hour,
		MaxWalkSteps:    100,
	}
}

// LoadSettings reads a YAML settings file on top of DefaultSettings
func LoadSettings(filePath string) (*Settings, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	settings := DefaultSettings()
	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings YAML: %w", err)
	}

	if err := validateSettings(settings); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	return settings, nil
}

func validateSettings(s *Settings) error {
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", s.Port)
	}
	if s.MapsDir == "" {
		return fmt.Errorf("mapsDir cannot be empty")
	}
	if s.SessionTTL <= 0 {
		return fmt.Errorf("sessionTTL must be positive, got %s", s.SessionTTL)
	}
	if s.CleanupInterval <= 0 {
		return fmt.Errorf("cleanupInterval must be positive, got %s", s.CleanupInterval)
	}
	if s.MaxWalkSteps < 1 {
		return fmt.Errorf("maxWalkSteps must be >= 1, got %d", s.MaxWalkSteps)
	}
	return nil
}
