// Package config loads runtime settings from an optional YAML file and
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the settings for both the client runtime and the
// development backend.
type Config struct {
	// Addr is the listen address of the local JSON facade.
	Addr string `yaml:"addr"`
	// BackendAddr is the listen address of the development backend.
	BackendAddr string `yaml:"backend_addr"`
	// APIURL is the backend API root the client talks to.
	APIURL string `yaml:"api_url"`
	// StoragePath is the SQLite file holding the client's local storage.
	StoragePath string `yaml:"storage_path"`
	// DatabaseURL selects PostgreSQL for the backend. Empty keeps
	// everything in memory.
	DatabaseURL string `yaml:"database_url"`
	// CatalogFile is a YAML product list seeded into the backend. Empty
	// uses the built-in catalog.
	CatalogFile       string        `yaml:"catalog_file"`
	TokenTTL          time.Duration `yaml:"token_ttl"`
	RemoteTimeout     time.Duration `yaml:"remote_timeout"`
	ClearCartOnLogout bool          `yaml:"clear_cart_on_logout"`
	// StaffEmails lists backend accounts allowed to use the admin API.
	StaffEmails []string `yaml:"staff_emails"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Addr:          ":8080",
		BackendAddr:   ":8000",
		APIURL:        "http://localhost:8000/api/v1",
		StoragePath:   "storefront.db",
		TokenTTL:      7 * 24 * time.Hour,
		RemoteTimeout: 10 * time.Second,
	}
}

// Load reads path over the defaults and then applies environment
// overrides. An empty or missing path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	c.Addr = env("ADDR", c.Addr)
	c.BackendAddr = env("BACKEND_ADDR", c.BackendAddr)
	c.APIURL = env("API_URL", c.APIURL)
	c.StoragePath = env("STORAGE_PATH", c.StoragePath)
	c.DatabaseURL = env("DATABASE_URL", c.DatabaseURL)
	c.CatalogFile = env("CATALOG_FILE", c.CatalogFile)

	if v := os.Getenv("TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("TOKEN_TTL: %w", err)
		}
		c.TokenTTL = d
	}
	if v := os.Getenv("REMOTE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("REMOTE_TIMEOUT: %w", err)
		}
		c.RemoteTimeout = d
	}
	if v := os.Getenv("CLEAR_CART_ON_LOGOUT"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CLEAR_CART_ON_LOGOUT: %w", err)
		}
		c.ClearCartOnLogout = b
	}
	if v := os.Getenv("STAFF_EMAILS"); v != "" {
		c.StaffEmails = nil
		for _, e := range strings.Split(v, ",") {
			if e = strings.TrimSpace(e); e != "" {
				c.StaffEmails = append(c.StaffEmails, e)
			}
		}
	}
	return nil
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return errors.New("config: api_url is required")
	}
	if c.StoragePath == "" {
		return errors.New("config: storage_path is required")
	}
	if c.TokenTTL <= 0 {
		return errors.New("config: token_ttl must be positive")
	}
	if c.RemoteTimeout <= 0 {
		return errors.New("config: remote_timeout must be positive")
	}
	return nil
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
