// Package config handles autostamp configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tOgg1/autostamp/internal/models"
)

// Stamper types.
const (
	StamperDummy      = "dummy"
	StamperPlaywright = "playwright"
)

// Config is the root configuration structure for autostamp.
type Config struct {
	Global       GlobalConfig       `yaml:"global" mapstructure:"global"`
	Database     DatabaseConfig     `yaml:"database" mapstructure:"database"`
	Logging      LoggingConfig      `yaml:"logging" mapstructure:"logging"`
	WorkingState WorkingStateConfig `yaml:"working_state" mapstructure:"working_state"`
	TimeRules    TimeRulesConfig    `yaml:"time_rules" mapstructure:"time_rules"`
	Browser      BrowserConfig      `yaml:"browser" mapstructure:"browser"`
	Scheduler    SchedulerConfig    `yaml:"scheduler" mapstructure:"scheduler"`
	Calendar     CalendarConfig     `yaml:"calendar" mapstructure:"calendar"`
	Slack        SlackConfig        `yaml:"slack" mapstructure:"slack"`
}

// GlobalConfig contains global settings.
type GlobalConfig struct {
	// DataDir is where autostamp stores its data (default: ~/.local/share/autostamp).
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`

	// ConfigDir is where config files are stored (default: ~/.config/autostamp).
	ConfigDir string `yaml:"config_dir" mapstructure:"config_dir"`
}

// DatabaseConfig contains settings for the holiday cache database.
type DatabaseConfig struct {
	// Path is the SQLite database file path.
	Path string `yaml:"path" mapstructure:"path"`

	// BusyTimeoutMs is how long to wait for a locked database.
	BusyTimeoutMs int `yaml:"busy_timeout_ms" mapstructure:"busy_timeout_ms"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" mapstructure:"level"`

	// Format is the output format (json, console).
	Format string `yaml:"format" mapstructure:"format"`

	// File is an optional log file path.
	File string `yaml:"file" mapstructure:"file"`

	// EnableCaller adds caller information to logs.
	EnableCaller bool `yaml:"enable_caller" mapstructure:"enable_caller"`
}

// WorkingStateConfig controls activity detection.
type WorkingStateConfig struct {
	// WindowMinutes is the trailing window inspected for input events.
	WindowMinutes int `yaml:"window_minutes" mapstructure:"window_minutes"`

	// MinEventCount is how many events the window needs to count as working.
	MinEventCount int `yaml:"min_event_count" mapstructure:"min_event_count"`

	// SampleInterval is how often the idle probe is sampled.
	SampleInterval time.Duration `yaml:"sample_interval" mapstructure:"sample_interval"`

	// Retention is how long events are kept in memory.
	Retention time.Duration `yaml:"retention" mapstructure:"retention"`

	// IdleCommand prints the milliseconds since the last input event.
	IdleCommand string `yaml:"idle_command" mapstructure:"idle_command"`
}

// TimeRulesConfig holds the wall-clock boundaries used by the time gate.
type TimeRulesConfig struct {
	ClockOutTime string `yaml:"clock_out_time" mapstructure:"clock_out_time"`
	CutoffTime   string `yaml:"cutoff_time" mapstructure:"cutoff_time"`

	// Timezone is an IANA zone name, or "Local".
	Timezone string `yaml:"timezone" mapstructure:"timezone"`
}

// BrowserConfig configures the stamp transport.
type BrowserConfig struct {
	// Stamper selects the transport (dummy, playwright).
	Stamper string `yaml:"stamper" mapstructure:"stamper"`

	Headless bool `yaml:"headless" mapstructure:"headless"`

	// RetryCount is the number of attempts per stamp call.
	RetryCount int `yaml:"retry_count" mapstructure:"retry_count"`

	// RetryBackoff is the pause between attempts.
	RetryBackoff time.Duration `yaml:"retry_backoff" mapstructure:"retry_backoff"`

	// Timeout bounds a single attempt.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// SessionStoragePath is where browser cookies and storage are kept.
	SessionStoragePath string `yaml:"session_storage_path" mapstructure:"session_storage_path"`

	Selectors SelectorConfig `yaml:"selectors" mapstructure:"selectors"`
}

// SelectorConfig holds CSS selectors for the attendance portal.
type SelectorConfig struct {
	LoginURL       string `yaml:"login_url" mapstructure:"login_url"`
	UsernameField  string `yaml:"username_field" mapstructure:"username_field"`
	PasswordField  string `yaml:"password_field" mapstructure:"password_field"`
	LoginButton    string `yaml:"login_button" mapstructure:"login_button"`
	ClockInButton  string `yaml:"clock_in_button" mapstructure:"clock_in_button"`
	ClockOutButton string `yaml:"clock_out_button" mapstructure:"clock_out_button"`
	SuccessMessage string `yaml:"success_message" mapstructure:"success_message"`
}

// SchedulerConfig contains periodic runner settings.
type SchedulerConfig struct {
	// CheckIntervalMinutes is the tick interval.
	CheckIntervalMinutes int `yaml:"check_interval_minutes" mapstructure:"check_interval_minutes"`

	// TickTimeout bounds one pipeline run.
	TickTimeout time.Duration `yaml:"tick_timeout" mapstructure:"tick_timeout"`

	// RunOnStart runs a tick immediately instead of waiting one interval.
	RunOnStart bool `yaml:"run_on_start" mapstructure:"run_on_start"`
}

// CalendarConfig configures holiday and leave lookup.
type CalendarConfig struct {
	// Enabled turns on the Google Calendar leave lookup. Local holiday
	// rules always apply.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	VacationKeywords []string `yaml:"vacation_keywords" mapstructure:"vacation_keywords"`
	CredentialsPath  string   `yaml:"credentials_path" mapstructure:"credentials_path"`
	TokenPath        string   `yaml:"token_path" mapstructure:"token_path"`

	// Cache persists lookups in the database.
	Cache bool `yaml:"cache" mapstructure:"cache"`
}

// SlackConfig configures chat notifications.
type SlackConfig struct {
	Enabled       bool   `yaml:"enabled" mapstructure:"enabled"`
	NotifyChannel string `yaml:"notify_channel" mapstructure:"notify_channel"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Global: GlobalConfig{
			DataDir:   filepath.Join(homeDir, ".local", "share", "autostamp"),
			ConfigDir: filepath.Join(homeDir, ".config", "autostamp"),
		},
		Database: DatabaseConfig{
			Path:          "", // Will be set to DataDir/autostamp.db
			BusyTimeoutMs: 5000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		WorkingState: WorkingStateConfig{
			WindowMinutes:  15,
			MinEventCount:  2,
			SampleInterval: 5 * time.Second,
			Retention:      30 * time.Minute,
			IdleCommand:    "xprintidle",
		},
		TimeRules: TimeRulesConfig{
			ClockOutTime: "18:00",
			CutoffTime:   "22:00",
			Timezone:     "Local",
		},
		Browser: BrowserConfig{
			Stamper:            StamperDummy,
			Headless:           true,
			RetryCount:         3,
			RetryBackoff:       2 * time.Second,
			Timeout:            30 * time.Second,
			SessionStoragePath: ".session",
			Selectors: SelectorConfig{
				UsernameField:  "#username",
				PasswordField:  "#password",
				LoginButton:    "#login-btn",
				ClockInButton:  "#clock-in",
				ClockOutButton: "#clock-out",
				SuccessMessage: ".success-msg",
			},
		},
		Scheduler: SchedulerConfig{
			CheckIntervalMinutes: 5,
			TickTimeout:          3 * time.Minute,
		},
		Calendar: CalendarConfig{
			Enabled:          true,
			VacationKeywords: []string{"有給", "年休", "休暇"},
			CredentialsPath:  "credentials.json",
			TokenPath:        "token.json",
			Cache:            true,
		},
		Slack: SlackConfig{
			Enabled: true,
		},
	}
}

// TimeRules is the parsed form of TimeRulesConfig.
type TimeRules struct {
	ClockOut models.TimeOfDay
	Cutoff   models.TimeOfDay
	Location *time.Location
}

// Rules parses the time rule strings.
func (c TimeRulesConfig) Rules() (TimeRules, error) {
	validation := &models.ValidationErrors{}

	clockOut, err := models.ParseTimeOfDay(c.ClockOutTime)
	validation.Add("clock_out_time", err)
	cutoff, err := models.ParseTimeOfDay(c.CutoffTime)
	validation.Add("cutoff_time", err)
	location, err := loadLocation(c.Timezone)
	validation.Add("timezone", err)

	if err := validation.Err(); err != nil {
		return TimeRules{}, err
	}
	return TimeRules{ClockOut: clockOut, Cutoff: cutoff, Location: location}, nil
}

func loadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}

// CheckInterval returns the tick interval as a duration.
func (c SchedulerConfig) CheckInterval() time.Duration {
	return time.Duration(c.CheckIntervalMinutes) * time.Minute
}

// Window returns the activity window as a duration.
func (c WorkingStateConfig) Window() time.Duration {
	return time.Duration(c.WindowMinutes) * time.Minute
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	validation := &models.ValidationErrors{}

	if c.WorkingState.WindowMinutes < 1 {
		validation.AddMessage("working_state.window_minutes", "must be at least 1")
	}
	if c.WorkingState.MinEventCount < 1 {
		validation.AddMessage("working_state.min_event_count", "must be at least 1")
	}
	if c.WorkingState.SampleInterval < 100*time.Millisecond {
		validation.AddMessage("working_state.sample_interval", "must be at least 100ms")
	}
	if c.WorkingState.Retention < c.WorkingState.Window() {
		validation.AddMessage("working_state.retention", "must cover window_minutes")
	}

	rules, err := c.TimeRules.Rules()
	if err != nil {
		validation.Add("time_rules", err)
	} else if !rules.ClockOut.Before(rules.Cutoff) {
		validation.AddMessage("time_rules.cutoff_time", "must be later than clock_out_time")
	}

	switch c.Browser.Stamper {
	case StamperDummy, StamperPlaywright:
	default:
		validation.AddMessage("browser.stamper", "must be one of dummy, playwright")
	}
	if c.Browser.RetryCount < 1 {
		validation.AddMessage("browser.retry_count", "must be at least 1")
	}
	if c.Browser.Timeout <= 0 {
		validation.AddMessage("browser.timeout", "must be positive")
	}
	if c.Browser.RetryBackoff < 0 {
		validation.AddMessage("browser.retry_backoff", "must not be negative")
	}
	if c.Browser.Stamper == StamperPlaywright {
		sel := c.Browser.Selectors
		for field, value := range map[string]string{
			"clock_in_button":  sel.ClockInButton,
			"clock_out_button": sel.ClockOutButton,
			"success_message":  sel.SuccessMessage,
		} {
			if strings.TrimSpace(value) == "" {
				validation.AddMessage("browser.selectors."+field, "is required for the playwright stamper")
			}
		}
	}

	if c.Scheduler.CheckIntervalMinutes < 1 {
		validation.AddMessage("scheduler.check_interval_minutes", "must be at least 1")
	}
	if c.Scheduler.TickTimeout <= 0 {
		validation.AddMessage("scheduler.tick_timeout", "must be positive")
	} else if c.Scheduler.CheckIntervalMinutes >= 1 && c.Scheduler.TickTimeout > c.Scheduler.CheckInterval() {
		validation.AddMessage("scheduler.tick_timeout", "must not exceed the check interval")
	}
	if c.Browser.Timeout > 0 && c.Scheduler.TickTimeout > 0 &&
		c.Browser.Timeout*time.Duration(max(c.Browser.RetryCount, 1)) > c.Scheduler.TickTimeout {
		validation.AddMessage("browser.timeout", "retry_count attempts must fit inside scheduler.tick_timeout")
	}

	if c.Database.BusyTimeoutMs < 0 {
		validation.AddMessage("database.busy_timeout_ms", "must not be negative")
	}

	return validation.Err()
}

// EnsureDirectories creates required directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Global.DataDir,
		c.Global.ConfigDir,
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// DatabasePath returns the full database path.
func (c *Config) DatabasePath() string {
	if c.Database.Path != "" {
		return c.Database.Path
	}
	return filepath.Join(c.Global.DataDir, "autostamp.db")
}
