package config

import "errors"

// StoreConfig defines the SQLite schedule store.
type StoreConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// SetDefaults applies sane defaults.
func (c *StoreConfig) SetDefaults() {
	if c.Path == "" {
		c.Path = "opsched.db"
	}
}

// Validate checks mandatory fields.
func (c StoreConfig) Validate() error {
	if c.Enabled && c.Path == "" {
		return errors.New("path is required")
	}
	return nil
}
