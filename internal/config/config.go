package config

import (
	"fmt"
)

const (
	// Server defaults
	DefaultServerPort  = 8000
	DefaultMetricsPath = "/metrics"
)

// Config holds the complete application configuration.
type Config struct {
	Server   ServerConfig
	Export   ExportConfig
	Settings SettingsConfig
}

// Validate applies defaults and validates every section.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Export.Validate(); err != nil {
		return err
	}
	return c.Settings.Validate()
}

// ServerConfig defines the HTTP listener serving ingestion and scrapes.
type ServerConfig struct {
	Port        int
	MetricsPath string
}

// Validate applies defaults and validates server configuration.
func (s *ServerConfig) Validate() error {
	if s.Port == 0 {
		s.Port = DefaultServerPort
	}
	if s.MetricsPath == "" {
		s.MetricsPath = DefaultMetricsPath
	}

	if s.Port <= 0 || s.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", s.Port)
	}

	return nil
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}
