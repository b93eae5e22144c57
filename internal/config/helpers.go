package config

import (
	"net"
	"path/filepath"
	"strconv"
)

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Logging.Level == "debug" && c.Logging.Format == "console"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Logging.Level == "info" && c.Logging.Format == "json"
}

// GetServerAddress returns the HTTP listen address
func (c *Config) GetServerAddress() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.HTTPPort))
}

// GetDatasetPath resolves a path relative to the dataset directory
func (c *Config) GetDatasetPath(name string) string {
	return filepath.Join(c.Dataset.Dir, name)
}
