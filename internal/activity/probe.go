package activity

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// ErrProbeUnavailable is returned when the idle command is not installed.
var ErrProbeUnavailable = errors.New("idle probe unavailable")

// IdleProbe reports how long ago the last keyboard or mouse input happened.
type IdleProbe interface {
	Idle(ctx context.Context) (time.Duration, error)
}

// ProbeFunc adapts a function to IdleProbe.
type ProbeFunc func(ctx context.Context) (time.Duration, error)

// Idle implements IdleProbe.
func (f ProbeFunc) Idle(ctx context.Context) (time.Duration, error) {
	return f(ctx)
}

// CommandProbe runs a command that prints the idle time in milliseconds,
// such as xprintidle on X11.
type CommandProbe struct {
	Command string
	Args    []string
}

// NewCommandProbe parses a command line into a CommandProbe.
func NewCommandProbe(commandLine string) (*CommandProbe, error) {
	fields := strings.Fields(commandLine)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty idle command", ErrProbeUnavailable)
	}
	if _, err := exec.LookPath(fields[0]); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrProbeUnavailable, fields[0], err)
	}
	return &CommandProbe{Command: fields[0], Args: fields[1:]}, nil
}

// Idle implements IdleProbe.
func (p *CommandProbe) Idle(ctx context.Context) (time.Duration, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.Command, p.Args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return 0, fmt.Errorf("%s: %w: %s", p.Command, err, msg)
		}
		return 0, fmt.Errorf("%s: %w", p.Command, err)
	}
	return parseIdleMillis(stdout.String())
}

func parseIdleMillis(output string) (time.Duration, error) {
	value := strings.TrimSpace(output)
	ms, err := strconv.ParseInt(value, 10, 64)
	if err != nil || ms < 0 {
		return 0, fmt.Errorf("unexpected idle output %q", value)
	}
	return time.Duration(ms) * time.Millisecond, nil
}
