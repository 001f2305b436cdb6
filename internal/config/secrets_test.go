package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadSecretsFromDotenv(t *testing.T) {
	dir := t.TempDir()
	dotenv := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(dotenv, []byte(
		"ATTENDANCE_URL=https://portal.example.com\n"+
			"ATTENDANCE_USER=alice\n"+
			"SLACK_NOTIFY_CHANNEL=#from-dotenv\n"), 0o644))

	t.Setenv("ATTENDANCE_URL", "")
	t.Setenv("ATTENDANCE_USER", "")
	t.Setenv("SLACK_NOTIFY_CHANNEL", "#from-env")
	require.NoError(t, os.Unsetenv("ATTENDANCE_URL"))
	require.NoError(t, os.Unsetenv("ATTENDANCE_USER"))

	secrets, err := LoadSecrets(filepath.Join(dir, "missing.env"), dotenv)
	require.NoError(t, err)

	require.Equal(t, "https://portal.example.com", secrets.AttendanceURL)
	require.Equal(t, "alice", secrets.AttendanceUser)
	// Variables already in the environment win over the dotenv file.
	require.Equal(t, "#from-env", secrets.SlackNotifyChannel)
}

func TestSecretsApply(t *testing.T) {
	cfg := DefaultConfig()
	Secrets{
		SlackNotifyChannel: "#attendance",
		GoogleTokenPath:    "/etc/autostamp/token.json",
	}.Apply(cfg)

	require.Equal(t, "#attendance", cfg.Slack.NotifyChannel)
	require.Equal(t, "/etc/autostamp/token.json", cfg.Calendar.TokenPath)
	require.Equal(t, "credentials.json", cfg.Calendar.CredentialsPath)
}
