// Package testutil provides common test utilities and helpers for survey-sensei tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shvbsle/survey-sensei/internal/api"
	"github.com/shvbsle/survey-sensei/internal/catalog"
	"github.com/shvbsle/survey-sensei/internal/content"
	"github.com/shvbsle/survey-sensei/internal/flow"
	"github.com/shvbsle/survey-sensei/internal/genai"
	"github.com/shvbsle/survey-sensei/internal/models"
	"github.com/shvbsle/survey-sensei/internal/notify"
	"github.com/shvbsle/survey-sensei/internal/store"
)

// TestServer bundles an API server with the fakeable ends of its stack: the
// scripted model client, the backing store, and the notification recorder.
type TestServer struct {
	Server   *api.Server
	GenAI    *genai.MockClient
	Store    *store.InMemoryStore
	Notifier *notify.MockNotifier
}

// NewTestServer creates a test API server over in-memory dependencies and the
// seeded catalog. The content agent is real; only the model client is
// scripted, so tests drive full survey flows by queueing model responses.
func NewTestServer(t *testing.T, cfg content.Config) *TestServer {
	t.Helper()
	st := store.NewInMemoryStore()
	if err := catalog.Seed(st); err != nil {
		t.Fatalf("failed to seed catalog: %v", err)
	}
	cat := catalog.New(st)
	client := genai.NewMockClient()
	agent := content.NewAgent(client, st, cfg)
	notifier := notify.NewMockNotifier()
	registry := flow.NewRegistry(agent, cat, notifier)

	return &TestServer{
		Server:   api.NewServer(registry, cat, st),
		GenAI:    client,
		Store:    st,
		Notifier: notifier,
	}
}

// AssertHTTPStatus checks the HTTP status code and fails the test if it doesn't match.
func AssertHTTPStatus(t *testing.T, expected, actual int, context string) {
	t.Helper()
	if actual != expected {
		t.Errorf("%s: expected status %d, got %d", context, expected, actual)
	}
}

// AssertJSONResponse decodes JSON response and validates the status field.
func AssertJSONResponse(t *testing.T, rr *httptest.ResponseRecorder, expectedStatus string) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON response: %v", err)
	}

	if status, ok := response["status"].(string); ok {
		if status != expectedStatus {
			t.Errorf("expected status '%s', got '%s'", expectedStatus, status)
		}
	} else {
		t.Error("response missing or invalid 'status' field")
	}

	return response
}

// CreateHTTPRequest creates an HTTP request with optional JSON body for testing.
func CreateHTTPRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	t.Helper()
	var reqBody *bytes.Buffer
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		t.Fatalf("failed to create HTTP request: %v", err)
	}
	return req
}

// AssertReviewCount validates the number of stored reviews for a shopper.
func AssertReviewCount(t *testing.T, st store.Store, shopperID string, expected int, context string) {
	t.Helper()
	reviews, err := st.GetReviewsByShopper(shopperID)
	if err != nil {
		t.Fatalf("%s: failed to get reviews: %v", context, err)
	}
	if len(reviews) != expected {
		t.Errorf("%s: expected %d reviews, got %d", context, expected, len(reviews))
	}
}

// AssertQuestionEquals compares two SurveyQuestion structs for equality in tests.
func AssertQuestionEquals(t *testing.T, expected, actual models.SurveyQuestion, context string) {
	t.Helper()
	if actual.QuestionText != expected.QuestionText ||
		actual.AllowMultiple != expected.AllowMultiple {
		t.Errorf("%s: questions don't match\nexpected: %+v\nactual: %+v", context, expected, actual)
	}

	if len(actual.Options) != len(expected.Options) {
		t.Errorf("%s: options length mismatch: expected %d, got %d",
			context, len(expected.Options), len(actual.Options))
		return
	}

	for i, expectedOpt := range expected.Options {
		if actual.Options[i] != expectedOpt {
			t.Errorf("%s: option %d mismatch: expected %q, got %q",
				context, i, expectedOpt, actual.Options[i])
		}
	}
}

// MustMarshalJSON marshals an object to JSON and fails test on error.
func MustMarshalJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal JSON: %v", err)
	}
	return data
}

// MustUnmarshalJSON unmarshals JSON data into target and fails test on error.
func MustUnmarshalJSON(t *testing.T, data []byte, target interface{}) {
	t.Helper()
	if err := json.Unmarshal(data, target); err != nil {
		t.Fatalf("failed to unmarshal JSON: %v", err)
	}
}
