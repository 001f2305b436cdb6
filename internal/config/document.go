package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Document renders cfg as the nested map a config file would contain.
// Durations are written as strings ("30s") so the file stays editable.
func Document(cfg *Config) map[string]any {
	keywords := append([]string(nil), cfg.Calendar.VacationKeywords...)

	return map[string]any{
		"global": map[string]any{
			"data_dir":   cfg.Global.DataDir,
			"config_dir": cfg.Global.ConfigDir,
		},
		"database": map[string]any{
			"path":            cfg.Database.Path,
			"busy_timeout_ms": cfg.Database.BusyTimeoutMs,
		},
		"logging": map[string]any{
			"level":         cfg.Logging.Level,
			"format":        cfg.Logging.Format,
			"file":          cfg.Logging.File,
			"enable_caller": cfg.Logging.EnableCaller,
		},
		"working_state": map[string]any{
			"window_minutes":  cfg.WorkingState.WindowMinutes,
			"min_event_count": cfg.WorkingState.MinEventCount,
			"sample_interval": cfg.WorkingState.SampleInterval.String(),
			"retention":       cfg.WorkingState.Retention.String(),
			"idle_command":    cfg.WorkingState.IdleCommand,
		},
		"time_rules": map[string]any{
			"clock_out_time": cfg.TimeRules.ClockOutTime,
			"cutoff_time":    cfg.TimeRules.CutoffTime,
			"timezone":       cfg.TimeRules.Timezone,
		},
		"browser": map[string]any{
			"stamper":              cfg.Browser.Stamper,
			"headless":             cfg.Browser.Headless,
			"retry_count":          cfg.Browser.RetryCount,
			"retry_backoff":        cfg.Browser.RetryBackoff.String(),
			"timeout":              cfg.Browser.Timeout.String(),
			"session_storage_path": cfg.Browser.SessionStoragePath,
			"selectors": map[string]any{
				"login_url":        cfg.Browser.Selectors.LoginURL,
				"username_field":   cfg.Browser.Selectors.UsernameField,
				"password_field":   cfg.Browser.Selectors.PasswordField,
				"login_button":     cfg.Browser.Selectors.LoginButton,
				"clock_in_button":  cfg.Browser.Selectors.ClockInButton,
				"clock_out_button": cfg.Browser.Selectors.ClockOutButton,
				"success_message":  cfg.Browser.Selectors.SuccessMessage,
			},
		},
		"scheduler": map[string]any{
			"check_interval_minutes": cfg.Scheduler.CheckIntervalMinutes,
			"tick_timeout":           cfg.Scheduler.TickTimeout.String(),
			"run_on_start":           cfg.Scheduler.RunOnStart,
		},
		"calendar": map[string]any{
			"enabled":           cfg.Calendar.Enabled,
			"vacation_keywords": keywords,
			"credentials_path":  cfg.Calendar.CredentialsPath,
			"token_path":        cfg.Calendar.TokenPath,
			"cache":             cfg.Calendar.Cache,
		},
		"slack": map[string]any{
			"enabled":        cfg.Slack.Enabled,
			"notify_channel": cfg.Slack.NotifyChannel,
		},
	}
}

// MarshalYAML renders cfg as a YAML config file.
func MarshalYAML(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(Document(cfg))
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// WriteFile writes cfg to path. It refuses to overwrite an existing file
// unless force is set.
func WriteFile(path string, cfg *Config, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file %s already exists", path)
		}
	}
	data, err := MarshalYAML(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
