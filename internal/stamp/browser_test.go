package stamp

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tOgg1/autostamp/internal/config"
)

type fakeSession struct {
	mu        sync.Mutex
	pages     []*fakePage
	pageErr   error
	saved     []string
	closed    int
	newPageFn func() *fakePage
}

func (s *fakeSession) NewPage(time.Duration) (page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pageErr != nil {
		return nil, s.pageErr
	}
	p := s.newPageFn()
	s.pages = append(s.pages, p)
	return p, nil
}

func (s *fakeSession) SaveStorage(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, path)
	return nil
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}

type fakePage struct {
	url       string
	afterGoto string
	confirmed int
	clickErr  error
	actions   []string
	closed    bool
}

func (p *fakePage) Goto(url string) error {
	p.actions = append(p.actions, "goto "+url)
	p.url = url
	if p.afterGoto != "" {
		p.url = p.afterGoto
	}
	return nil
}

func (p *fakePage) WaitForIdle() error { return nil }

func (p *fakePage) URL() string { return p.url }

func (p *fakePage) Fill(selector, value string) error {
	p.actions = append(p.actions, "fill "+selector+"="+value)
	return nil
}

func (p *fakePage) Click(selector string) error {
	p.actions = append(p.actions, "click "+selector)
	return p.clickErr
}

func (p *fakePage) Count(selector string) (int, error) {
	p.actions = append(p.actions, "count "+selector)
	return p.confirmed, nil
}

func (p *fakePage) Close() error {
	p.closed = true
	return nil
}

func testBrowserConfig() BrowserConfig {
	return BrowserConfig{
		URL:          "https://attendance.example.com/",
		Username:     "alice",
		Password:     "hunter2",
		RetryCount:   3,
		RetryBackoff: time.Millisecond,
		StoragePath:  "/tmp/session.json",
		Selectors:    config.DefaultConfig().Browser.Selectors,
	}
}

func newTestBrowser(t *testing.T, cfg BrowserConfig, sess *fakeSession) (*Browser, *int) {
	t.Helper()
	launches := 0
	b := newBrowser(cfg, func(BrowserConfig) (session, error) {
		launches++
		return sess, nil
	})
	b.now = func() time.Time { return time.Date(2026, 10, 14, 9, 3, 0, 0, time.UTC) }
	return b, &launches
}

func TestBrowser_ClockInWithExistingSession(t *testing.T) {
	sess := &fakeSession{newPageFn: func() *fakePage { return &fakePage{confirmed: 1} }}
	b, launches := newTestBrowser(t, testBrowserConfig(), sess)

	stamped, err := b.ClockIn(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "09:03", stamped)
	assert.Equal(t, 1, *launches)

	require.Len(t, sess.pages, 1)
	assert.Equal(t, []string{
		"goto https://attendance.example.com/",
		"click #clock-in",
		"count .success-msg",
	}, sess.pages[0].actions)
	assert.True(t, sess.pages[0].closed)
	assert.Equal(t, []string{"/tmp/session.json"}, sess.saved)
}

func TestBrowser_LogsInWhenRedirected(t *testing.T) {
	sess := &fakeSession{newPageFn: func() *fakePage {
		return &fakePage{afterGoto: "https://attendance.example.com/Login?next=/", confirmed: 1}
	}}
	b, _ := newTestBrowser(t, testBrowserConfig(), sess)

	_, err := b.ClockOut(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"goto https://attendance.example.com/",
		"fill #username=alice",
		"fill #password=hunter2",
		"click #login-btn",
		"click #clock-out",
		"count .success-msg",
	}, sess.pages[0].actions)
	// Once after login, once after the stamp.
	assert.Len(t, sess.saved, 2)
}

func TestBrowser_RetriesThenReportsLastError(t *testing.T) {
	attempt := 0
	sess := &fakeSession{newPageFn: func() *fakePage {
		attempt++
		if attempt < 3 {
			return &fakePage{clickErr: errors.New("element detached")}
		}
		return &fakePage{}
	}}
	b, launches := newTestBrowser(t, testBrowserConfig(), sess)

	_, err := b.ClockIn(context.Background())
	require.ErrorIs(t, err, ErrStampUnconfirmed)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Len(t, sess.pages, 3)
	assert.Equal(t, 1, *launches)
	assert.Empty(t, sess.saved)
	for _, p := range sess.pages {
		assert.True(t, p.closed)
	}
}

func TestBrowser_SucceedsOnRetry(t *testing.T) {
	attempt := 0
	sess := &fakeSession{newPageFn: func() *fakePage {
		attempt++
		if attempt == 1 {
			return &fakePage{}
		}
		return &fakePage{confirmed: 1}
	}}
	b, _ := newTestBrowser(t, testBrowserConfig(), sess)

	stamped, err := b.ClockIn(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "09:03", stamped)
	assert.Len(t, sess.pages, 2)
}

func TestBrowser_RelaunchesAfterPageFailure(t *testing.T) {
	sess := &fakeSession{pageErr: errors.New("browser crashed")}
	b, launches := newTestBrowser(t, testBrowserConfig(), sess)

	_, err := b.ClockIn(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "browser crashed")
	assert.Equal(t, 3, *launches)
	assert.Equal(t, 3, sess.closed)
}

func TestBrowser_LaunchFailure(t *testing.T) {
	b := newBrowser(testBrowserConfig(), func(BrowserConfig) (session, error) {
		return nil, errors.New("chromium not installed")
	})

	_, err := b.ClockIn(context.Background())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "chromium not installed"))
}

func TestBrowser_CanceledContext(t *testing.T) {
	sess := &fakeSession{newPageFn: func() *fakePage { return &fakePage{confirmed: 1} }}
	b, launches := newTestBrowser(t, testBrowserConfig(), sess)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.ClockIn(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, *launches)
}

func TestBrowser_Close(t *testing.T) {
	sess := &fakeSession{newPageFn: func() *fakePage { return &fakePage{confirmed: 1} }}
	b, _ := newTestBrowser(t, testBrowserConfig(), sess)

	_, err := b.ClockIn(context.Background())
	require.NoError(t, err)

	require.NoError(t, b.Close())
	assert.Equal(t, 1, sess.closed)

	_, err = b.ClockOut(context.Background())
	require.ErrorIs(t, err, ErrClosed)
}

func TestNewBrowser_RequiresURL(t *testing.T) {
	_, err := NewBrowser(BrowserConfig{})
	require.ErrorIs(t, err, ErrNotConfigured)
}
