package notify

import (
	"context"
	"strings"
	"testing"

	"github.com/shvbsle/survey-sensei/internal/models"
)

func TestNewSMSNotifierRequiresCredentials(t *testing.T) {
	t.Setenv("TWILIO_ACCOUNT_SID", "")
	t.Setenv("TWILIO_AUTH_TOKEN", "")
	t.Setenv("TWILIO_FROM_NUMBER", "")
	t.Setenv("NOTIFY_TO_NUMBER", "")

	if _, err := NewSMSNotifier(); err == nil {
		t.Fatal("NewSMSNotifier() without credentials succeeded, want error")
	}

	if _, err := NewSMSNotifier(
		WithAccountSID("AC00000000000000000000000000000000"),
		WithAuthToken("token"),
	); err == nil {
		t.Fatal("NewSMSNotifier() without numbers succeeded, want error")
	}

	n, err := NewSMSNotifier(
		WithAccountSID("AC00000000000000000000000000000000"),
		WithAuthToken("token"),
		WithFromNumber("+15550001111"),
		WithToNumber("+15550002222"),
	)
	if err != nil {
		t.Fatalf("NewSMSNotifier() error: %v", err)
	}
	if n.from != "+15550001111" || n.to != "+15550002222" {
		t.Errorf("numbers = %q -> %q", n.from, n.to)
	}
}

func TestNewSMSNotifierEnvFallback(t *testing.T) {
	t.Setenv("TWILIO_ACCOUNT_SID", "AC00000000000000000000000000000000")
	t.Setenv("TWILIO_AUTH_TOKEN", "token")
	t.Setenv("TWILIO_FROM_NUMBER", "+15550001111")
	t.Setenv("NOTIFY_TO_NUMBER", "+15550002222")

	n, err := NewSMSNotifier()
	if err != nil {
		t.Fatalf("NewSMSNotifier() error: %v", err)
	}
	if n.to != "+15550002222" {
		t.Errorf("to = %q, want env fallback applied", n.to)
	}
}

func TestRenderMessage(t *testing.T) {
	msg := renderMessage(models.Review{
		ID:        "rev_0011223344556677",
		ShopperID: "shop_aabbccddeeff0011",
		ProductID: "prod_1122334455667788",
		Stars:     4,
	})
	for _, want := range []string{"4-star", "rev_0011223344556677", "prod_1122334455667788", "shop_aabbccddeeff0011"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
}

func TestNoopNotifier(t *testing.T) {
	if err := NewNoopNotifier().ReviewSubmitted(context.Background(), models.Review{ID: "rev_x"}); err != nil {
		t.Errorf("NoopNotifier error: %v", err)
	}
}

func TestMockNotifierRecords(t *testing.T) {
	m := NewMockNotifier()
	review := models.Review{ID: "rev_0011223344556677", Stars: 5}
	if err := m.ReviewSubmitted(context.Background(), review); err != nil {
		t.Fatalf("ReviewSubmitted() error: %v", err)
	}
	if m.Count() != 1 || m.Reviews[0].ID != review.ID {
		t.Errorf("recorded = %+v, want the review", m.Reviews)
	}
}
