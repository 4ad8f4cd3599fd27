package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type TelegramConfig struct {
	BotToken        string `yaml:"bot_token"`
	WebhookURL      string `yaml:"webhook_url"`
	PendingChannel  int64  `yaml:"pending_channel"`
	VerifiedChannel int64  `yaml:"verified_channel"`
	RejectedChannel int64  `yaml:"rejected_channel"`
}

type GatewayConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	DryRun  bool   `yaml:"dry_run"`
}

type VerificationConfig struct {
	TwoFAPassword string `yaml:"twofa_password"`
	TwoFAHint     string `yaml:"twofa_hint"`
	AttemptTTLRaw string `yaml:"attempt_ttl"`
	MaxCodeTries  int    `yaml:"max_code_tries"`

	// AttemptTTL парсится из attempt_ttl ("2m", "30s").
	AttemptTTL time.Duration `yaml:"-"`
}

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"auth"`
	Email struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUser     string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
		AlertEmail   string `yaml:"alert_email"`
	} `yaml:"email"`
	Files struct {
		RootDir string `yaml:"root_dir"`
	} `yaml:"files"`
	Telegram     TelegramConfig     `yaml:"telegram"`
	Gateway      GatewayConfig      `yaml:"gateway"`
	Verification VerificationConfig `yaml:"verification"`
}

func LoadConfig() *Config {
	cfg, err := loadFrom("config/config.yaml")
	if err != nil {
		panic("Failed to load config.yaml: " + err.Error())
	}
	return cfg
}

func loadFrom(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() error {
	if c.Files.RootDir == "" {
		c.Files.RootDir = "./files"
	}
	if c.Verification.AttemptTTLRaw != "" {
		ttl, err := time.ParseDuration(c.Verification.AttemptTTLRaw)
		if err != nil {
			return fmt.Errorf("verification.attempt_ttl: %w", err)
		}
		c.Verification.AttemptTTL = ttl
	}
	if c.Verification.AttemptTTL <= 0 {
		c.Verification.AttemptTTL = 5 * time.Minute
	}
	if c.Verification.MaxCodeTries <= 0 {
		c.Verification.MaxCodeTries = 5
	}
	if c.Verification.TwoFAHint == "" {
		c.Verification.TwoFAHint = "By Bot"
	}
	return nil
}
