package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Secrets are credentials that never live in the config file.
type Secrets struct {
	AttendanceURL  string `env:"ATTENDANCE_URL"`
	AttendanceUser string `env:"ATTENDANCE_USER"`
	AttendancePass string `env:"ATTENDANCE_PASS"`

	SlackBotToken      string `env:"SLACK_BOT_TOKEN"`
	SlackNotifyChannel string `env:"SLACK_NOTIFY_CHANNEL"`

	GoogleCredentialsPath string `env:"GOOGLE_CREDENTIALS_PATH"`
	GoogleTokenPath       string `env:"GOOGLE_TOKEN_PATH"`
}

// LoadSecrets loads dotenv files that exist (without overriding variables
// already set) and parses the secret variables.
func LoadSecrets(dotenvFiles ...string) (Secrets, error) {
	for _, file := range dotenvFiles {
		if _, err := os.Stat(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return Secrets{}, fmt.Errorf("stat %s: %w", file, err)
		}
		if err := godotenv.Load(file); err != nil {
			return Secrets{}, fmt.Errorf("load %s: %w", file, err)
		}
	}

	var secrets Secrets
	if err := env.Parse(&secrets); err != nil {
		return Secrets{}, fmt.Errorf("parse env: %w", err)
	}
	return secrets, nil
}

// Apply overlays secret-provided values onto cfg, the way the env variables
// took priority in earlier deployments.
func (s Secrets) Apply(cfg *Config) {
	if s.SlackNotifyChannel != "" {
		cfg.Slack.NotifyChannel = s.SlackNotifyChannel
	}
	if s.GoogleCredentialsPath != "" {
		cfg.Calendar.CredentialsPath = expandTilde(s.GoogleCredentialsPath)
	}
	if s.GoogleTokenPath != "" {
		cfg.Calendar.TokenPath = expandTilde(s.GoogleTokenPath)
	}
}

// Summary returns the secrets keyed by variable name, for redacted display.
func (s Secrets) Summary() map[string]any {
	return map[string]any{
		"ATTENDANCE_URL":          s.AttendanceURL,
		"ATTENDANCE_USER":         s.AttendanceUser,
		"ATTENDANCE_PASS":         s.AttendancePass,
		"SLACK_BOT_TOKEN":         s.SlackBotToken,
		"SLACK_NOTIFY_CHANNEL":    s.SlackNotifyChannel,
		"GOOGLE_CREDENTIALS_PATH": s.GoogleCredentialsPath,
		"GOOGLE_TOKEN_PATH":       s.GoogleTokenPath,
	}
}
