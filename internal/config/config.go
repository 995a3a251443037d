// Package config provides YAML-based configuration loading for Ribbonlog.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// DefaultKey is the storage key the record collection is written under.
const DefaultKey = "ribbon-lots"

// Config is the top-level Ribbonlog configuration, loaded from ribbonlog.yaml.
type Config struct {
	Site      string          `yaml:"site"`
	Timezone  string          `yaml:"timezone"`
	LogLevel  string          `yaml:"log_level"`
	Storage   StorageConfig   `yaml:"storage"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Notify    NotifyConfig    `yaml:"notify"`
	Digest    DigestConfig    `yaml:"digest"`
}

// StorageConfig selects where the record blob lives.
type StorageConfig struct {
	Driver   string `yaml:"driver"` // sqlite or mysql
	Path     string `yaml:"path"`   // sqlite file
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Database string `yaml:"database"`
	Key      string `yaml:"key"`
}

// DashboardConfig holds web dashboard settings.
type DashboardConfig struct {
	Port           int   `yaml:"port"`
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
}

// NotifyConfig holds chat notification targets. Empty tokens disable a target.
type NotifyConfig struct {
	Slack   ChatTarget `yaml:"slack"`
	Discord ChatTarget `yaml:"discord"`
}

// ChatTarget is a bot token plus the channel it posts to.
type ChatTarget struct {
	BotToken  string `yaml:"bot_token"`
	ChannelID string `yaml:"channel_id"`
}

// Enabled reports whether the target has enough settings to send.
func (t ChatTarget) Enabled() bool {
	return t.BotToken != "" && t.ChannelID != ""
}

// DigestConfig schedules the periodic summary post.
type DigestConfig struct {
	Schedule string `yaml:"schedule"` // 5-field cron expression; empty disables
	Limit    int    `yaml:"limit"`    // newest active lots listed in the digest
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

// Default returns the configuration used when no config file exists.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Site == "" {
		c.Site = "Ribbon"
	}
	if c.Timezone == "" {
		c.Timezone = "Local"
	}
	if c.LogLevel == "" {
		c.LogLevel = "silent"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "sqlite"
	}
	if c.Storage.Driver == "sqlite" && c.Storage.Path == "" {
		c.Storage.Path = "ribbonlog.db"
	}
	if c.Storage.Driver == "mysql" {
		if c.Storage.Host == "" {
			c.Storage.Host = "127.0.0.1"
		}
		if c.Storage.Port == 0 {
			c.Storage.Port = 3306
		}
		if c.Storage.User == "" {
			c.Storage.User = "root"
		}
		if c.Storage.Database == "" {
			c.Storage.Database = "ribbonlog"
		}
	}
	if c.Storage.Key == "" {
		c.Storage.Key = DefaultKey
	}
	if c.Dashboard.Port == 0 {
		c.Dashboard.Port = 8080
	}
	if c.Dashboard.MaxUploadBytes == 0 {
		c.Dashboard.MaxUploadBytes = 5 << 20
	}
	if c.Digest.Limit == 0 {
		c.Digest.Limit = 5
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	switch c.Storage.Driver {
	case "sqlite", "mysql":
	default:
		errs = append(errs, fmt.Sprintf("storage.driver %q is not supported (sqlite, mysql)", c.Storage.Driver))
	}
	switch c.LogLevel {
	case "silent", "error", "warn", "info":
	default:
		errs = append(errs, fmt.Sprintf("log_level %q is not one of silent, error, warn, info", c.LogLevel))
	}
	if c.Dashboard.Port < 0 || c.Dashboard.Port > 65535 {
		errs = append(errs, fmt.Sprintf("dashboard.port %d out of range", c.Dashboard.Port))
	}
	if c.Dashboard.MaxUploadBytes < 0 {
		errs = append(errs, "dashboard.max_upload_bytes must not be negative")
	}
	if (c.Notify.Slack.BotToken == "") != (c.Notify.Slack.ChannelID == "") {
		errs = append(errs, "notify.slack needs both bot_token and channel_id")
	}
	if (c.Notify.Discord.BotToken == "") != (c.Notify.Discord.ChannelID == "") {
		errs = append(errs, "notify.discord needs both bot_token and channel_id")
	}
	if c.Digest.Schedule != "" {
		if _, err := CronParser.Parse(c.Digest.Schedule); err != nil {
			errs = append(errs, fmt.Sprintf("digest.schedule: %v", err))
		}
	}
	if c.Digest.Limit < 0 {
		errs = append(errs, "digest.limit must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// CronParser accepts standard 5-field cron expressions (minute, hour, dom, month, dow).
var CronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
