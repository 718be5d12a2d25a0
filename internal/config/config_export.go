package config

import (
	"fmt"
	"time"
)

const (
	// OTEL defaults
	DefaultOTELInterval   = 10 * time.Second
	DefaultOTELTransport  = "grpc"
	DefaultOTELHost       = "localhost"
	DefaultOTELPortGRPC   = 4317
	DefaultOTELPortHTTP   = 4318
	DefaultServiceName    = "meterbox"
	DefaultServiceVersion = "dev"
)

// ExportConfig defines optional push exporters. The Prometheus scrape
// endpoint is always served.
type ExportConfig struct {
	OTEL *OTELExportConfig
}

// Validate applies defaults and validates export configuration.
func (e *ExportConfig) Validate() error {
	if e.OTEL != nil && e.OTEL.Enabled {
		if err := e.OTEL.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// OTELExportConfig defines OTEL push settings.
type OTELExportConfig struct {
	Enabled   bool
	Transport string
	Host      string
	Port      int
	Interval  time.Duration // push period
	Resource  map[string]string
	Headers   map[string]string
}

// Validate applies defaults and validates OTEL configuration.
func (c *OTELExportConfig) Validate() error {
	if !c.Enabled {
		return nil
	}

	// Apply transport default
	if c.Transport == "" {
		c.Transport = DefaultOTELTransport
	}

	// Validate transport
	if c.Transport != "grpc" && c.Transport != "http" {
		return fmt.Errorf("invalid transport: %s (must be grpc or http)", c.Transport)
	}

	// Apply host default
	if c.Host == "" {
		c.Host = DefaultOTELHost
	}

	// Apply port default based on transport
	if c.Port == 0 {
		if c.Transport == "grpc" {
			c.Port = DefaultOTELPortGRPC
		} else {
			c.Port = DefaultOTELPortHTTP
		}
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid otel port: %d", c.Port)
	}

	// Apply interval default
	if c.Interval == 0 {
		c.Interval = DefaultOTELInterval
	}
	if c.Interval < 0 {
		return fmt.Errorf("otel interval cannot be negative")
	}

	// Apply resource defaults
	if c.Resource == nil {
		c.Resource = make(map[string]string)
	}
	if _, exists := c.Resource["service.name"]; !exists {
		c.Resource["service.name"] = DefaultServiceName
	}
	if _, exists := c.Resource["service.version"]; !exists {
		c.Resource["service.version"] = DefaultServiceVersion
	}

	return nil
}

// GetEndpoint returns the full endpoint address.
func (c *OTELExportConfig) GetEndpoint() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
