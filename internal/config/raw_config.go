package config

// RawConfig represents unparsed YAML structure
type RawConfig struct {
	Server   RawServerConfig   `yaml:"server"`
	Export   RawExportConfig   `yaml:"export"`
	Settings RawSettingsConfig `yaml:"settings"`
}

// RawServerConfig defines the ingestion and scrape listener
type RawServerConfig struct {
	Port        int    `yaml:"port"`
	MetricsPath string `yaml:"metrics_path"`
}
