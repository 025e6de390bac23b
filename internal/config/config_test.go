package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const fullYAML = `
telegram:
  token: "123456:test-token"

db:
  driver: mysql
  host: 10.0.0.5
  port: 3307
  user: schoolbot
  database: schoolbot_prod

reminder:
  cron: "*/30 * * * *"
  lookahead_hours: 48

motivation:
  dir: /var/lib/schoolbot/motivation

dashboard:
  enabled: true
  port: 9090
`

const minimalYAML = `
telegram:
  token: "123456:test-token"
`

func TestParse_FullConfig(t *testing.T) {
	cfg, err := Parse([]byte(fullYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Telegram.Token != "123456:test-token" {
		t.Errorf("Telegram.Token = %q, want %q", cfg.Telegram.Token, "123456:test-token")
	}
	if cfg.DB.Driver != "mysql" {
		t.Errorf("DB.Driver = %q, want %q", cfg.DB.Driver, "mysql")
	}
	if cfg.DB.Host != "10.0.0.5" {
		t.Errorf("DB.Host = %q, want %q", cfg.DB.Host, "10.0.0.5")
	}
	if cfg.DB.Port != 3307 {
		t.Errorf("DB.Port = %d, want %d", cfg.DB.Port, 3307)
	}
	if cfg.DB.User != "schoolbot" {
		t.Errorf("DB.User = %q, want %q", cfg.DB.User, "schoolbot")
	}
	if cfg.DB.Database != "schoolbot_prod" {
		t.Errorf("DB.Database = %q, want %q", cfg.DB.Database, "schoolbot_prod")
	}
	if cfg.Reminder.Cron != "*/30 * * * *" {
		t.Errorf("Reminder.Cron = %q, want %q", cfg.Reminder.Cron, "*/30 * * * *")
	}
	if cfg.Reminder.LookaheadHours != 48 {
		t.Errorf("Reminder.LookaheadHours = %d, want 48", cfg.Reminder.LookaheadHours)
	}
	if cfg.Motivation.Dir != "/var/lib/schoolbot/motivation" {
		t.Errorf("Motivation.Dir = %q, want %q", cfg.Motivation.Dir, "/var/lib/schoolbot/motivation")
	}
	if !cfg.Dashboard.Enabled {
		t.Error("Dashboard.Enabled = false, want true")
	}
	if cfg.Dashboard.Port != 9090 {
		t.Errorf("Dashboard.Port = %d, want 9090", cfg.Dashboard.Port)
	}
}

func TestParse_MinimalConfig_AppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.DB.Driver != "sqlite" {
		t.Errorf("DB.Driver = %q, want %q (default)", cfg.DB.Driver, "sqlite")
	}
	if cfg.DB.Path != "school_bot.db" {
		t.Errorf("DB.Path = %q, want %q (default)", cfg.DB.Path, "school_bot.db")
	}
	if cfg.DB.Host != "127.0.0.1" {
		t.Errorf("DB.Host = %q, want %q (default)", cfg.DB.Host, "127.0.0.1")
	}
	if cfg.DB.Port != 3306 {
		t.Errorf("DB.Port = %d, want %d (default)", cfg.DB.Port, 3306)
	}
	if cfg.Reminder.Cron != "0 * * * *" {
		t.Errorf("Reminder.Cron = %q, want %q (default)", cfg.Reminder.Cron, "0 * * * *")
	}
	if cfg.Reminder.LookaheadHours != 24 {
		t.Errorf("Reminder.LookaheadHours = %d, want 24 (default)", cfg.Reminder.LookaheadHours)
	}
	if cfg.Motivation.Dir != "motivation" {
		t.Errorf("Motivation.Dir = %q, want %q (default)", cfg.Motivation.Dir, "motivation")
	}
	if cfg.Dashboard.Enabled {
		t.Error("Dashboard.Enabled = true, want false (default)")
	}
	if cfg.Dashboard.Port != 8080 {
		t.Errorf("Dashboard.Port = %d, want 8080 (default)", cfg.Dashboard.Port)
	}
}

func TestParse_ExplicitSQLitePath_NotOverridden(t *testing.T) {
	yaml := `
telegram:
  token: tok
db:
  driver: sqlite
  path: /data/bot.db
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DB.Path != "/data/bot.db" {
		t.Errorf("DB.Path = %q, want %q (should not be overridden)", cfg.DB.Path, "/data/bot.db")
	}
}

func TestParse_MissingToken(t *testing.T) {
	yaml := `
db:
  driver: sqlite
`
	_, err := Parse([]byte(yaml))
	if err == nil {
		t.Fatal("expected error for missing token")
	}
	if !strings.Contains(err.Error(), "telegram.token is required") {
		t.Errorf("error = %q, want to contain %q", err.Error(), "telegram.token is required")
	}
}

func TestParse_UnsupportedDriver(t *testing.T) {
	yaml := `
telegram:
  token: tok
db:
  driver: postgres
`
	_, err := Parse([]byte(yaml))
	if err == nil {
		t.Fatal("expected error for unsupported driver")
	}
	if !strings.Contains(err.Error(), `db.driver "postgres" is not supported`) {
		t.Errorf("error = %q, want to mention unsupported driver", err.Error())
	}
}

func TestParse_NegativeLookahead(t *testing.T) {
	yaml := `
telegram:
  token: tok
reminder:
  lookahead_hours: -1
`
	_, err := Parse([]byte(yaml))
	if err == nil {
		t.Fatal("expected error for negative lookahead")
	}
	if !strings.Contains(err.Error(), "lookahead_hours must not be negative") {
		t.Errorf("error = %q, want to mention negative lookahead", err.Error())
	}
}

func TestParse_MultipleValidationErrors(t *testing.T) {
	yaml := `
db:
  driver: mongodb
`
	_, err := Parse([]byte(yaml))
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "telegram.token is required") {
		t.Errorf("error missing 'telegram.token is required': %s", msg)
	}
	if !strings.Contains(msg, "is not supported") {
		t.Errorf("error missing driver complaint: %s", msg)
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte(":::invalid"))
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
	if !strings.Contains(err.Error(), "config: parse:") {
		t.Errorf("error = %q, want to contain %q", err.Error(), "config: parse:")
	}
}

func TestLoad_ValidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schoolbot.yaml")
	if err := os.WriteFile(path, []byte(minimalYAML), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Telegram.Token != "123456:test-token" {
		t.Errorf("Telegram.Token = %q, want %q", cfg.Telegram.Token, "123456:test-token")
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/schoolbot.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "config: read") {
		t.Errorf("error = %q, want to contain %q", err.Error(), "config: read")
	}
}
