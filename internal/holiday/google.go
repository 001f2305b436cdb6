package holiday

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// PrimaryCalendarID is the signed-in user's own calendar.
const PrimaryCalendarID = "primary"

// ErrCalendarNotConfigured is returned when credential files are missing.
var ErrCalendarNotConfigured = errors.New("google calendar is not configured")

// GoogleConfig configures the Google Calendar lookup.
type GoogleConfig struct {
	CredentialsPath string
	TokenPath       string

	// Keywords mark a primary calendar event as leave when its summary
	// contains any of them.
	Keywords []string
}

// GoogleCalendar looks up leave in the primary Google Calendar. National
// holidays are left to Local.
type GoogleCalendar struct {
	service  *calendar.Service
	keywords []string
}

// NewGoogleCalendar authenticates with an OAuth client file and a previously
// authorized token file.
func NewGoogleCalendar(ctx context.Context, cfg GoogleConfig) (*GoogleCalendar, error) {
	tokenSource, err := loadTokenSource(ctx, cfg.CredentialsPath, cfg.TokenPath)
	if err != nil {
		return nil, err
	}
	return NewGoogleCalendarWithOptions(ctx, cfg, option.WithTokenSource(tokenSource))
}

// NewGoogleCalendarWithOptions builds the lookup with explicit client options.
func NewGoogleCalendarWithOptions(ctx context.Context, cfg GoogleConfig, opts ...option.ClientOption) (*GoogleCalendar, error) {
	service, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	keywords := make([]string, 0, len(cfg.Keywords))
	for _, keyword := range cfg.Keywords {
		if keyword = strings.TrimSpace(keyword); keyword != "" {
			keywords = append(keywords, keyword)
		}
	}

	return &GoogleCalendar{
		service:  service,
		keywords: keywords,
	}, nil
}

func loadTokenSource(ctx context.Context, credentialsPath, tokenPath string) (oauth2.TokenSource, error) {
	if credentialsPath == "" || tokenPath == "" {
		return nil, ErrCalendarNotConfigured
	}

	credentials, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("%w: read credentials: %v", ErrCalendarNotConfigured, err)
	}
	oauthConfig, err := google.ConfigFromJSON(credentials, calendar.CalendarReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}

	data, err := os.ReadFile(tokenPath)
	if err != nil {
		return nil, fmt.Errorf("%w: read token: %v", ErrCalendarNotConfigured, err)
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	return oauthConfig.TokenSource(ctx, &token), nil
}

// Lookup implements Remote. The first primary calendar event whose summary
// contains a keyword marks the day as leave, with the summary as the reason.
func (g *GoogleCalendar) Lookup(ctx context.Context, date time.Time) (Result, error) {
	if len(g.keywords) == 0 {
		return Result{Source: SourceNone}, nil
	}

	start, end := DayBounds(date)
	summaries, err := g.summaries(ctx, PrimaryCalendarID, start, end)
	if err != nil {
		return Result{}, err
	}
	for _, summary := range summaries {
		if containsKeyword(summary, g.keywords) {
			return Result{Holiday: true, Reason: summary, Source: SourceCalendar}, nil
		}
	}

	return Result{Source: SourceNone}, nil
}

func (g *GoogleCalendar) summaries(ctx context.Context, calendarID string, start, end time.Time) ([]string, error) {
	events, err := g.service.Events.List(calendarID).
		TimeMin(start.Format(time.RFC3339)).
		TimeMax(end.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list %s events: %w", calendarID, err)
	}

	summaries := make([]string, 0, len(events.Items))
	for _, item := range events.Items {
		if item == nil || item.Status == "cancelled" {
			continue
		}
		summaries = append(summaries, item.Summary)
	}
	return summaries, nil
}

func containsKeyword(summary string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(summary, keyword) {
			return true
		}
	}
	return false
}
