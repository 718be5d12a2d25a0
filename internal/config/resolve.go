package config

import (
	"maps"
)

// Resolve builds the final config from raw input, applying defaults
func Resolve(raw *RawConfig) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:        raw.Server.Port,
			MetricsPath: raw.Server.MetricsPath,
		},
		Export: resolveExport(raw.Export),
		Settings: SettingsConfig{
			DefaultCollectors: true,
			InternalMetrics: InternalMetricsConfig{
				Enabled: raw.Settings.InternalMetrics.Enabled,
			},
			Monitor: MonitorConfig{
				Enabled:  raw.Settings.Monitor.Enabled,
				Interval: raw.Settings.Monitor.Interval,
			},
		},
	}

	if raw.Settings.DefaultCollectors != nil {
		cfg.Settings.DefaultCollectors = *raw.Settings.DefaultCollectors
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// resolveExport copies raw export settings into their final form
func resolveExport(raw RawExportConfig) ExportConfig {
	var export ExportConfig
	if raw.OTEL != nil {
		export.OTEL = &OTELExportConfig{
			Enabled:   raw.OTEL.Enabled,
			Transport: raw.OTEL.Transport,
			Host:      raw.OTEL.Host,
			Port:      raw.OTEL.Port,
			Interval:  raw.OTEL.Interval,
			Resource:  maps.Clone(raw.OTEL.Resource),
			Headers:   maps.Clone(raw.OTEL.Headers),
		}
	}
	return export
}
