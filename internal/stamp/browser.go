package stamp

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tOgg1/autostamp/internal/config"
	"github.com/tOgg1/autostamp/internal/logging"
	"github.com/tOgg1/autostamp/internal/models"
)

// BrowserConfig configures a Browser transport.
type BrowserConfig struct {
	URL      string
	Username string
	Password string

	Headless     bool
	RetryCount   int
	RetryBackoff time.Duration
	Timeout      time.Duration

	// StoragePath persists cookies and local storage between runs.
	StoragePath string

	Selectors config.SelectorConfig
}

// session is a browser context that outlives individual attempts.
type session interface {
	NewPage(timeout time.Duration) (page, error)
	SaveStorage(path string) error
	Close() error
}

type page interface {
	Goto(url string) error
	WaitForIdle() error
	URL() string
	Fill(selector, value string) error
	Click(selector string) error
	Count(selector string) (int, error)
	Close() error
}

type launcher func(cfg BrowserConfig) (session, error)

// Browser stamps through the attendance web portal.
type Browser struct {
	cfg    BrowserConfig
	launch launcher
	logger zerolog.Logger
	now    func() time.Time

	mu      sync.Mutex
	session session
	closed  bool
}

// NewBrowser creates a Browser driven by Playwright. The browser is launched
// on first use.
func NewBrowser(cfg BrowserConfig) (*Browser, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, fmt.Errorf("%w: attendance URL is required", ErrNotConfigured)
	}
	return newBrowser(cfg, launchPlaywright), nil
}

func newBrowser(cfg BrowserConfig, launch launcher) *Browser {
	if cfg.RetryCount <= 0 {
		cfg.RetryCount = 1
	}
	return &Browser{
		cfg:    cfg,
		launch: launch,
		logger: logging.Component("stamp"),
		now:    time.Now,
	}
}

// ClockIn implements Transport.
func (b *Browser) ClockIn(ctx context.Context) (string, error) {
	return b.stamp(ctx, models.ActionClockIn, b.cfg.Selectors.ClockInButton)
}

// ClockOut implements Transport.
func (b *Browser) ClockOut(ctx context.Context) (string, error) {
	return b.stamp(ctx, models.ActionClockOut, b.cfg.Selectors.ClockOutButton)
}

// stamp runs up to RetryCount attempts. Each attempt opens a fresh page and
// re-checks the login, so a stale session is recovered on the next attempt.
func (b *Browser) stamp(ctx context.Context, action models.Action, button string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return "", ErrClosed
	}

	var lastErr error
	for attempt := 1; attempt <= b.cfg.RetryCount; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		err := b.attempt(ctx, button)
		if err == nil {
			stamped := models.FormatStampTime(b.now())
			if saveErr := b.saveSession(); saveErr != nil {
				b.logger.Warn().Err(saveErr).Msg("failed to save browser session")
			}
			b.logger.Info().
				Str("action", action.String()).
				Str("time", stamped).
				Int("attempt", attempt).
				Msg("stamp accepted")
			return stamped, nil
		}

		lastErr = err
		b.logger.Warn().
			Err(err).
			Str("action", action.String()).
			Int("attempt", attempt).
			Int("max_attempts", b.cfg.RetryCount).
			Msg("stamp attempt failed")

		if attempt < b.cfg.RetryCount {
			if err := sleepWithContext(ctx, b.cfg.RetryBackoff); err != nil {
				return "", err
			}
		}
	}

	return "", fmt.Errorf("%s failed after %d attempts: %w", action, b.cfg.RetryCount, lastErr)
}

func (b *Browser) attempt(ctx context.Context, button string) error {
	sess, err := b.ensureSession()
	if err != nil {
		return err
	}

	p, err := sess.NewPage(b.cfg.Timeout)
	if err != nil {
		// A browser that cannot open pages is relaunched next attempt.
		b.dropSession()
		return fmt.Errorf("failed to open page: %w", err)
	}
	defer func() {
		if err := p.Close(); err != nil {
			b.logger.Debug().Err(err).Msg("failed to close page")
		}
	}()

	if err := b.ensureLoggedIn(ctx, p); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := p.Click(button); err != nil {
		return fmt.Errorf("failed to click %s: %w", button, err)
	}
	if err := p.WaitForIdle(); err != nil {
		return fmt.Errorf("failed waiting after click: %w", err)
	}

	count, err := p.Count(b.cfg.Selectors.SuccessMessage)
	if err != nil {
		return fmt.Errorf("failed to query confirmation: %w", err)
	}
	if count == 0 {
		return ErrStampUnconfirmed
	}
	return nil
}

func (b *Browser) ensureLoggedIn(ctx context.Context, p page) error {
	target := b.cfg.URL
	if err := p.Goto(target); err != nil {
		return fmt.Errorf("failed to open %s: %w", target, err)
	}
	if err := p.WaitForIdle(); err != nil {
		return fmt.Errorf("failed waiting for %s: %w", target, err)
	}
	if !b.onLoginPage(p.URL()) {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	b.logger.Debug().Msg("login required")
	selectors := b.cfg.Selectors
	if err := p.Fill(selectors.UsernameField, b.cfg.Username); err != nil {
		return fmt.Errorf("failed to fill username: %w", err)
	}
	if err := p.Fill(selectors.PasswordField, b.cfg.Password); err != nil {
		return fmt.Errorf("failed to fill password: %w", err)
	}
	if err := p.Click(selectors.LoginButton); err != nil {
		return fmt.Errorf("failed to submit login: %w", err)
	}
	if err := p.WaitForIdle(); err != nil {
		return fmt.Errorf("failed waiting after login: %w", err)
	}
	if err := b.saveSession(); err != nil {
		b.logger.Warn().Err(err).Msg("failed to save browser session")
	}
	return nil
}

func (b *Browser) onLoginPage(current string) bool {
	if login := strings.TrimSpace(b.cfg.Selectors.LoginURL); login != "" && strings.HasPrefix(current, login) {
		return true
	}
	return strings.Contains(strings.ToLower(current), "login")
}

func (b *Browser) ensureSession() (session, error) {
	if b.session != nil {
		return b.session, nil
	}
	sess, err := b.launch(b.cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	b.session = sess
	return sess, nil
}

func (b *Browser) dropSession() {
	if b.session == nil {
		return
	}
	if err := b.session.Close(); err != nil {
		b.logger.Debug().Err(err).Msg("failed to close browser session")
	}
	b.session = nil
}

func (b *Browser) saveSession() error {
	if b.session == nil || b.cfg.StoragePath == "" {
		return nil
	}
	return b.session.SaveStorage(b.cfg.StoragePath)
}

// Close releases the browser. Later stamp calls return ErrClosed.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	if b.session == nil {
		return nil
	}
	err := b.session.Close()
	b.session = nil
	return err
}

func sleepWithContext(ctx context.Context, duration time.Duration) error {
	if duration <= 0 {
		return nil
	}
	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
