package config

import (
	"fmt"
	"strings"
)

// Validate performs syntactic validation on raw config
func Validate(raw *RawConfig) error {
	return validateRawSyntax(raw)
}

// validateRawSyntax performs basic syntactic validation on raw config
func validateRawSyntax(raw *RawConfig) error {
	if raw.Server.Port < 0 || raw.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", raw.Server.Port)
	}

	if raw.Server.MetricsPath != "" && !strings.HasPrefix(raw.Server.MetricsPath, "/") {
		return fmt.Errorf("metrics path must start with '/': %q", raw.Server.MetricsPath)
	}

	if raw.Settings.Monitor.Interval < 0 {
		return fmt.Errorf("monitor interval cannot be negative")
	}

	return nil
}
