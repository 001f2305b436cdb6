package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/slack-go/slack"

	"github.com/tOgg1/autostamp/internal/logging"
)

// SlackConfig configures the Slack notifier.
type SlackConfig struct {
	Token   string
	Channel string

	// APIURL overrides the Slack API base URL.
	APIURL string
}

// Slack posts notifications to a channel. Without a token or channel every
// message goes to the fallback console instead.
type Slack struct {
	client   *slack.Client
	channel  string
	fallback Notifier
	logger   zerolog.Logger
}

// NewSlack creates a Slack notifier. fallback may be nil, in which case a
// Console is used.
func NewSlack(cfg SlackConfig, fallback Notifier) *Slack {
	if fallback == nil {
		fallback = NewConsole()
	}
	s := &Slack{
		channel:  strings.TrimSpace(cfg.Channel),
		fallback: fallback,
		logger:   logging.Component("notify"),
	}

	token := strings.TrimSpace(cfg.Token)
	if token == "" || s.channel == "" {
		s.logger.Info().Msg("slack not configured, notifications go to the console")
		return s
	}

	var opts []slack.Option
	if cfg.APIURL != "" {
		opts = append(opts, slack.OptionAPIURL(cfg.APIURL))
	}
	s.client = slack.New(token, opts...)
	return s
}

// Configured reports whether messages are posted to Slack.
func (s *Slack) Configured() bool {
	return s.client != nil
}

// Send implements Notifier.
func (s *Slack) Send(ctx context.Context, message string) error {
	if s.client == nil {
		return s.fallback.Send(ctx, message)
	}

	channel, ts, err := s.client.PostMessageContext(ctx, s.channel, slack.MsgOptionText(message, false))
	if err != nil {
		return fmt.Errorf("failed to post to slack channel %s: %w", s.channel, err)
	}
	s.logger.Debug().Str("channel", channel).Str("ts", ts).Msg("posted slack message")
	return nil
}

// SendError implements Notifier.
func (s *Slack) SendError(ctx context.Context, message string) error {
	if s.client == nil {
		return s.fallback.SendError(ctx, message)
	}
	return s.Send(ctx, FailureMessage(message))
}
