// Package stamp records clock-in and clock-out punches with the attendance
// system.
package stamp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tOgg1/autostamp/internal/config"
)

// Transport errors.
var (
	ErrStampUnconfirmed = errors.New("stamp confirmation message not found")
	ErrNotConfigured    = errors.New("attendance system is not configured")
	ErrClosed           = errors.New("transport is closed")
)

// Transport performs stamps. Both calls return the accepted wall-clock time
// as "HH:MM".
type Transport interface {
	ClockIn(ctx context.Context) (string, error)
	ClockOut(ctx context.Context) (string, error)
	Close() error
}

// New builds the transport selected by cfg.Stamper.
func New(cfg config.BrowserConfig, secrets config.Secrets) (Transport, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Stamper)) {
	case "", config.StamperDummy:
		return NewDummy(), nil
	case config.StamperPlaywright:
		browser, err := NewBrowser(BrowserConfig{
			URL:          secrets.AttendanceURL,
			Username:     secrets.AttendanceUser,
			Password:     secrets.AttendancePass,
			Headless:     cfg.Headless,
			RetryCount:   cfg.RetryCount,
			RetryBackoff: cfg.RetryBackoff,
			Timeout:      cfg.Timeout,
			StoragePath:  cfg.SessionStoragePath,
			Selectors:    cfg.Selectors,
		})
		if err != nil {
			return nil, err
		}
		return browser, nil
	default:
		return nil, fmt.Errorf("unknown stamper %q", cfg.Stamper)
	}
}
