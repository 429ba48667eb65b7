// Package config provides YAML-based configuration loading for Helpline.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level Helpline configuration, loaded from helpline.yaml.
type Config struct {
	Port  int         `yaml:"port"`
	DB    DBConfig    `yaml:"db"`
	Slack SlackConfig `yaml:"slack"`
}

// DBConfig selects the ticket store backing.
type DBConfig struct {
	Path   string `yaml:"path"`   // sqlite file path
	Memory bool   `yaml:"memory"` // volatile in-memory store instead of sqlite
}

// SlackConfig holds agent-channel notification settings. Leaving the channel
// empty disables notifications; leaving the digest schedule empty disables
// digests.
type SlackConfig struct {
	BotToken       string `yaml:"bot_token"`
	Channel        string `yaml:"channel"`
	DigestSchedule string `yaml:"digest_schedule"` // 5-field cron expression
}

// Load reads a YAML config file from path and returns a validated Config.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Parse(nil)
		}
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

// applyDefaults fills in derived and default values. Secrets may come from
// the environment instead of the file.
func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.DB.Path == "" {
		c.DB.Path = "helpline.db"
	}
	if c.Slack.BotToken == "" {
		c.Slack.BotToken = os.Getenv("HELPLINE_SLACK_BOT_TOKEN")
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Sprintf("port %d out of range", c.Port))
	}
	if c.Slack.Channel != "" && c.Slack.BotToken == "" {
		errs = append(errs, "slack.bot_token is required when slack.channel is set")
	}
	if c.Slack.DigestSchedule != "" && c.Slack.Channel == "" {
		errs = append(errs, "slack.channel is required when slack.digest_schedule is set")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
