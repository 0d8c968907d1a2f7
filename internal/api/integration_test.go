package api_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shvbsle/survey-sensei/internal/content"
	"github.com/shvbsle/survey-sensei/internal/testutil"
)

// The full happy path, driven over HTTP with a real content agent and a
// scripted model client: intake, a two-question survey, review generation,
// candidate selection, and submission.
func TestSurveyFlowEndToEnd(t *testing.T) {
	fx := testutil.NewTestServer(t, content.Config{
		InitialQuestions: 2,
		MinQuestions:     2,
		MaxQuestions:     2,
	})
	handler := fx.Server.Handler()

	do := func(method, url string, body interface{}) *httptest.ResponseRecorder {
		t.Helper()
		req := testutil.CreateHTTPRequest(t, method, url, body)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr
	}

	// Start: product context, shopper context, opening question batch.
	fx.GenAI.QueueText("Wireless over-ear headphones with strong noise cancellation and long battery life.")
	fx.GenAI.QueueText("Detail-oriented reviewer who cares about comfort and cites concrete use cases.")
	// Review generation: style notes from the shopper's past reviews.
	fx.GenAI.QueueText("First person, conversational, concrete details, no exclamation marks.")
	fx.GenAI.QueueStructured("survey_questions", `{"questions":[
		{"question_text":"How is the sound quality?","options":["Excellent","Good","Fair","Poor","Other"],"allow_multiple":false,"reasoning":"core attribute"},
		{"question_text":"How comfortable are they over long sessions?","options":["Very comfortable","Comfortable","Somewhat comfortable","Uncomfortable"],"allow_multiple":false,"reasoning":"comfort drives returns"}
	]}`)
	fx.GenAI.QueueStructured("survey_sentiment", `{"band":"good","rationale":"both answers are favorable"}`)
	fx.GenAI.QueueStructured("review_candidates", `{"reviews":[
		{"review_text":"These headphones punch well above their price. The noise cancellation makes my commute almost peaceful.","review_stars":5,"tone":"enthusiastic","highlights":["noise cancellation","commute"]},
		{"review_text":"Sound is rich and the fit stays comfortable through a full workday. Battery easily lasts the week.","review_stars":4,"tone":"balanced","highlights":["comfort","battery"]},
		{"review_text":"Good headphones for the price. Comfortable, decent sound, nothing to complain about.","review_stars":4,"tone":"matter-of-fact","highlights":[]}
	]}`)

	rr := do("POST", "/api/flows", nil)
	testutil.AssertHTTPStatus(t, http.StatusCreated, rr.Code, "create flow")
	created := testutil.AssertJSONResponse(t, rr, "ok")
	result := created["result"].(map[string]interface{})
	flowID := result["flow_id"].(string)
	if flowID == "" {
		t.Fatal("create flow returned empty flow_id")
	}
	layout := result["layout"].(map[string]interface{})
	if mode, _ := layout["mode"].(float64); mode != 2 {
		t.Errorf("initial pane mode = %v, want 2", layout["mode"])
	}

	rr = do("POST", "/api/flows/"+flowID+"/intake", map[string]interface{}{
		"shopper_id": "shop_9e1d4b7a3f5c2860",
		"product_id": "prod_2d6c8f5b1e9a4037",
		"form": map[string]interface{}{
			"email":            "maya.okafor@example.com",
			"has_past_reviews": true,
		},
	})
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "submit intake")
	snap := testutil.AssertJSONResponse(t, rr, "ok")["result"].(map[string]interface{})
	panes := snap["panes"].(map[string]interface{})
	if panes["expanded"] != "product" {
		t.Errorf("expanded pane after intake = %v, want product", panes["expanded"])
	}

	rr = do("POST", "/api/survey/start", map[string]string{"flow_id": flowID})
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "start survey")
	snap = testutil.AssertJSONResponse(t, rr, "ok")["result"].(map[string]interface{})
	if snap["status"] != "in_progress" {
		t.Fatalf("status after start = %v, want in_progress", snap["status"])
	}
	if n, _ := snap["total_questions"].(float64); n != 2 {
		t.Errorf("total_questions = %v, want 2", snap["total_questions"])
	}
	question := snap["question"].(map[string]interface{})
	if question["question_text"] != "How is the sound quality?" {
		t.Errorf("first question = %v", question["question_text"])
	}
	panes = snap["panes"].(map[string]interface{})
	if mode, _ := panes["mode"].(float64); mode != 3 {
		t.Errorf("pane mode after start = %v, want 3", panes["mode"])
	}
	if panes["expanded"] != "survey" {
		t.Errorf("expanded pane after start = %v, want survey", panes["expanded"])
	}

	rr = do("POST", "/api/survey/answer", map[string]interface{}{
		"flow_id":   flowID,
		"selection": map[string]interface{}{"selected": []string{"Good"}},
	})
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "answer first question")
	snap = testutil.AssertJSONResponse(t, rr, "ok")["result"].(map[string]interface{})
	if n, _ := snap["question_number"].(float64); n != 2 {
		t.Fatalf("question_number after first answer = %v, want 2", snap["question_number"])
	}

	rr = do("POST", "/api/survey/answer", map[string]interface{}{
		"flow_id":   flowID,
		"selection": map[string]interface{}{"selected": []string{"Comfortable"}},
	})
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "answer final question")
	snap = testutil.AssertJSONResponse(t, rr, "ok")["result"].(map[string]interface{})
	if snap["status"] != "survey_completed" {
		t.Fatalf("status after final answer = %v, want survey_completed", snap["status"])
	}
	progress := snap["progress"].(map[string]interface{})
	if n, _ := progress["questions_answered"].(float64); n != 2 {
		t.Errorf("questions_answered = %v, want 2", progress["questions_answered"])
	}

	rr = do("POST", "/api/reviews/generate", map[string]string{"flow_id": flowID})
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "generate reviews")
	snap = testutil.AssertJSONResponse(t, rr, "ok")["result"].(map[string]interface{})
	if snap["status"] != "reviews_generated" {
		t.Fatalf("status after generation = %v, want reviews_generated", snap["status"])
	}
	reviews := snap["reviews"].(map[string]interface{})
	options := reviews["options"].([]interface{})
	if len(options) != 3 {
		t.Fatalf("candidate count = %d, want 3", len(options))
	}
	if reviews["sentiment_band"] != "good" {
		t.Errorf("sentiment_band = %v, want good", reviews["sentiment_band"])
	}
	panes = snap["panes"].(map[string]interface{})
	if mode, _ := panes["mode"].(float64); mode != 4 {
		t.Errorf("pane mode after generation = %v, want 4", panes["mode"])
	}
	if panes["expanded"] != "reviews" {
		t.Errorf("expanded pane after generation = %v, want reviews", panes["expanded"])
	}

	rr = do("POST", "/api/reviews/select", map[string]interface{}{"flow_id": flowID, "option_index": 1})
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "select candidate")
	snap = testutil.AssertJSONResponse(t, rr, "ok")["result"].(map[string]interface{})
	reviews = snap["reviews"].(map[string]interface{})
	if idx, _ := reviews["selected_index"].(float64); idx != 1 {
		t.Errorf("selected_index = %v, want 1", reviews["selected_index"])
	}

	rr = do("POST", "/api/survey/review", map[string]interface{}{"flow_id": flowID, "option_index": 1})
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "submit review")
	response := testutil.AssertJSONResponse(t, rr, "ok")
	if response["message"] != "Review submitted" {
		t.Errorf("envelope message = %v, want Review submitted", response["message"])
	}
	snap = response["result"].(map[string]interface{})
	if snap["status"] != "completed" {
		t.Fatalf("status after submission = %v, want completed", snap["status"])
	}

	// The submitted review joins the shopper's two seeded ones.
	testutil.AssertReviewCount(t, fx.Store, "shop_9e1d4b7a3f5c2860", 3, "after submission")
	if fx.Notifier.Count() != 1 {
		t.Errorf("notification count = %d, want 1", fx.Notifier.Count())
	}
	if sent := fx.Notifier.Reviews; len(sent) == 1 && sent[0].Stars != 4 {
		t.Errorf("notified review stars = %d, want 4", sent[0].Stars)
	}

	// Every scripted model response was consumed.
	if calls := len(fx.GenAI.TextCalls); calls != 3 {
		t.Errorf("text generation calls = %d, want 3", calls)
	}
	if calls := len(fx.GenAI.StructuredCalls); calls != 3 {
		t.Errorf("structured generation calls = %d, want 3", calls)
	}

	rr = do("GET", "/api/flows/"+flowID, nil)
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "final snapshot")
	snap = testutil.AssertJSONResponse(t, rr, "ok")["result"].(map[string]interface{})
	if snap["status"] != "completed" {
		t.Errorf("final snapshot status = %v, want completed", snap["status"])
	}
}

// Skips interleave with answers; hitting the consecutive-skip limit surfaces
// the user-facing message while leaving the survey answerable.
func TestSurveyFlowSkipLimitEndToEnd(t *testing.T) {
	fx := testutil.NewTestServer(t, content.Config{
		InitialQuestions:    4,
		MinQuestions:        4,
		MaxQuestions:        4,
		MaxConsecutiveSkips: 2,
	})
	handler := fx.Server.Handler()

	do := func(method, url string, body interface{}) *httptest.ResponseRecorder {
		t.Helper()
		req := testutil.CreateHTTPRequest(t, method, url, body)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr
	}

	fx.GenAI.QueueText("Espresso machine with a fast-heating boiler.")
	fx.GenAI.QueueText("First-time reviewer, no writing history.")
	fx.GenAI.QueueStructured("survey_questions", `{"questions":[
		{"question_text":"How easy was the setup?","options":["Very easy","Easy","Tricky","Hard"],"allow_multiple":false,"reasoning":""},
		{"question_text":"How is the shot quality?","options":["Excellent","Good","Fair","Poor"],"allow_multiple":false,"reasoning":""},
		{"question_text":"How loud is the machine?","options":["Quiet","Acceptable","Loud","Very loud"],"allow_multiple":false,"reasoning":""},
		{"question_text":"How is the milk frother?","options":["Great","Fine","Weak","Unusable"],"allow_multiple":false,"reasoning":""}
	]}`)

	rr := do("POST", "/api/flows", nil)
	testutil.AssertHTTPStatus(t, http.StatusCreated, rr.Code, "create flow")
	created := testutil.AssertJSONResponse(t, rr, "ok")["result"].(map[string]interface{})
	flowID := created["flow_id"].(string)

	rr = do("POST", "/api/flows/"+flowID+"/intake", map[string]interface{}{
		"shopper_id": "shop_5a8c2f0d6b9e4173",
		"product_id": "prod_7b3e9d0a4c6f2185",
		"form":       map[string]interface{}{"email": "jon@example.com"},
	})
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "submit intake")

	rr = do("POST", "/api/survey/start", map[string]string{"flow_id": flowID})
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "start survey")

	// Two skips in a row are allowed.
	for i := 0; i < 2; i++ {
		rr = do("POST", "/api/survey/skip", map[string]string{"flow_id": flowID})
		testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "skip within limit")
	}

	// The third consecutive skip is rejected with the limit message.
	rr = do("POST", "/api/survey/skip", map[string]string{"flow_id": flowID})
	testutil.AssertHTTPStatus(t, http.StatusBadRequest, rr.Code, "skip past limit")
	rejected := testutil.AssertJSONResponse(t, rr, "error")
	if rejected["message"] != "You have skipped 2 questions in a row. Please answer this one before skipping again." {
		t.Errorf("limit message = %v", rejected["message"])
	}

	// Answering resets the consecutive counter and the survey continues.
	rr = do("POST", "/api/survey/answer", map[string]interface{}{
		"flow_id":   flowID,
		"selection": map[string]interface{}{"selected": []string{"Loud"}},
	})
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "answer after rejected skip")
	snap := testutil.AssertJSONResponse(t, rr, "ok")["result"].(map[string]interface{})
	if n, _ := snap["question_number"].(float64); n != 4 {
		t.Errorf("question_number = %v, want 4", snap["question_number"])
	}
	progress := snap["progress"].(map[string]interface{})
	if n, _ := progress["skipped_total"].(float64); n != 2 {
		t.Errorf("skipped_total = %v, want 2", progress["skipped_total"])
	}
}
