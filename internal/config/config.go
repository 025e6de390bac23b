// Package config provides YAML-based configuration loading for the bot.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration, loaded from schoolbot.yaml.
type Config struct {
	Telegram   TelegramConfig   `yaml:"telegram"`
	DB         DBConfig         `yaml:"db"`
	Reminder   ReminderConfig   `yaml:"reminder"`
	Motivation MotivationConfig `yaml:"motivation"`
	Dashboard  DashboardConfig  `yaml:"dashboard"`
}

// TelegramConfig holds the bot credentials.
type TelegramConfig struct {
	Token string `yaml:"token"`
}

// DBConfig selects and configures the storage backend.
// Driver "sqlite" uses Path; driver "mysql" uses Host/Port/User/Database.
type DBConfig struct {
	Driver   string `yaml:"driver"`
	Path     string `yaml:"path"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Database string `yaml:"database"`
}

// ReminderConfig controls the background reminder scan.
type ReminderConfig struct {
	Cron           string `yaml:"cron"`
	LookaheadHours int    `yaml:"lookahead_hours"`
}

// MotivationConfig holds the motivational-content store location.
type MotivationConfig struct {
	Dir string `yaml:"dir"`
}

// DashboardConfig controls the read-only stats HTTP server.
type DashboardConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.DB.Driver == "" {
		c.DB.Driver = "sqlite"
	}
	if c.DB.Path == "" {
		c.DB.Path = "school_bot.db"
	}
	if c.DB.Host == "" {
		c.DB.Host = "127.0.0.1"
	}
	if c.DB.Port == 0 {
		c.DB.Port = 3306
	}
	if c.DB.User == "" {
		c.DB.User = "root"
	}
	if c.DB.Database == "" {
		c.DB.Database = "schoolbot"
	}
	if c.Reminder.Cron == "" {
		c.Reminder.Cron = "0 * * * *"
	}
	if c.Reminder.LookaheadHours == 0 {
		c.Reminder.LookaheadHours = 24
	}
	if c.Motivation.Dir == "" {
		c.Motivation.Dir = "motivation"
	}
	if c.Dashboard.Port == 0 {
		c.Dashboard.Port = 8080
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.Telegram.Token == "" {
		errs = append(errs, "telegram.token is required")
	}
	switch c.DB.Driver {
	case "sqlite", "mysql":
	default:
		errs = append(errs, fmt.Sprintf("db.driver %q is not supported (sqlite, mysql)", c.DB.Driver))
	}
	if c.Reminder.LookaheadHours < 0 {
		errs = append(errs, "reminder.lookahead_hours must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
