package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the global ~/.wahook/config.toml.
type Config struct {
	DefaultSession string `toml:"default_session"`
	Server         Server `toml:"server"`
	Auth           Auth   `toml:"auth"`
}

// Server holds HTTP listener settings.
type Server struct {
	Host string `toml:"host"`
	Port string `toml:"port"`
}

// Auth holds the basic-auth credential pair guarding the dashboard
// routes (/config, /webhook). The password may also be supplied via
// the WAHOOK_ADMIN_PASSWORD environment variable, which wins over the
// file so the secret can be kept out of it.
type Auth struct {
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// Load reads config from the given path, fills defaults and applies
// environment overrides. Returns an error if the file is missing.
func Load(path string) (*Config, error) {
	var cfg Config
	_, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	cfg.applyEnv()
	return &cfg, nil
}

// Default returns a config with defaults and environment overrides
// applied, for use when no config file exists yet.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.applyEnv()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == "" {
		c.Server.Port = "3000"
	}
	if c.Auth.Username == "" {
		c.Auth.Username = "admin"
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("WAHOOK_PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("WAHOOK_ADMIN_USER"); v != "" {
		c.Auth.Username = v
	}
	if v := os.Getenv("WAHOOK_ADMIN_PASSWORD"); v != "" {
		c.Auth.Password = v
	}
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
