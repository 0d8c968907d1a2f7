// Package notify delivers a one-shot notification when a shopper submits a
// review. Delivery failures are for the caller to log; they must never affect
// the submitted review.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/shvbsle/survey-sensei/internal/models"
)

// Notifier is told about each submitted review.
type Notifier interface {
	ReviewSubmitted(ctx context.Context, review models.Review) error
}

// Opts holds configuration options for the Twilio SMS notifier.
type Opts struct {
	AccountSID string
	AuthToken  string
	FromNumber string
	ToNumber   string
}

// Option defines a configuration option for the Twilio SMS notifier.
type Option func(*Opts)

func WithAccountSID(sid string) Option {
	return func(o *Opts) { o.AccountSID = sid }
}

func WithAuthToken(token string) Option {
	return func(o *Opts) { o.AuthToken = token }
}

func WithFromNumber(from string) Option {
	return func(o *Opts) { o.FromNumber = from }
}

func WithToNumber(to string) Option {
	return func(o *Opts) { o.ToNumber = to }
}

// SMSNotifier sends the submission alert as an SMS through Twilio.
type SMSNotifier struct {
	client *twilio.RestClient
	from   string
	to     string
}

// NewSMSNotifier builds an SMS notifier. Unset options fall back to the
// TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN, TWILIO_FROM_NUMBER, and
// NOTIFY_TO_NUMBER environment variables.
func NewSMSNotifier(opts ...Option) (*SMSNotifier, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.AccountSID == "" {
		cfg.AccountSID = os.Getenv("TWILIO_ACCOUNT_SID")
	}
	if cfg.AuthToken == "" {
		cfg.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	}
	if cfg.FromNumber == "" {
		cfg.FromNumber = os.Getenv("TWILIO_FROM_NUMBER")
	}
	if cfg.ToNumber == "" {
		cfg.ToNumber = os.Getenv("NOTIFY_TO_NUMBER")
	}
	slog.Debug("notify.NewSMSNotifier: config loaded",
		"accountSID_set", cfg.AccountSID != "",
		"authToken_set", cfg.AuthToken != "",
		"from_set", cfg.FromNumber != "",
		"to_set", cfg.ToNumber != "")

	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, fmt.Errorf("account SID and auth token must be provided")
	}
	if cfg.FromNumber == "" || cfg.ToNumber == "" {
		return nil, fmt.Errorf("from and to numbers must be provided")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &SMSNotifier{client: client, from: cfg.FromNumber, to: cfg.ToNumber}, nil
}

// ReviewSubmitted sends the alert SMS.
func (n *SMSNotifier) ReviewSubmitted(ctx context.Context, review models.Review) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(n.to)
	params.SetFrom(n.from)
	params.SetBody(renderMessage(review))

	_, err := n.client.Api.CreateMessage(params)
	if err != nil {
		slog.Error("SMSNotifier.ReviewSubmitted: send failed", "reviewID", review.ID, "error", err)
		return fmt.Errorf("failed to send review notification: %w", err)
	}
	slog.Debug("SMSNotifier.ReviewSubmitted: notification sent", "reviewID", review.ID)
	return nil
}

func renderMessage(review models.Review) string {
	return fmt.Sprintf("New %d-star review %s: product %s, shopper %s.",
		review.Stars, review.ID, review.ProductID, review.ShopperID)
}

// NoopNotifier is the default when no SMS credentials are configured.
type NoopNotifier struct{}

func NewNoopNotifier() *NoopNotifier {
	return &NoopNotifier{}
}

func (n *NoopNotifier) ReviewSubmitted(_ context.Context, review models.Review) error {
	slog.Debug("NoopNotifier.ReviewSubmitted: dropped", "reviewID", review.ID)
	return nil
}

// MockNotifier records notifications for tests.
type MockNotifier struct {
	mu      sync.Mutex
	Reviews []models.Review
	Err     error
}

func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

func (m *MockNotifier) ReviewSubmitted(_ context.Context, review models.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Reviews = append(m.Reviews, review)
	return m.Err
}

// Count returns how many notifications were recorded.
func (m *MockNotifier) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Reviews)
}
