package content

// Structured-output payloads for the GenAI calls. Field names and json tags
// define the JSON schema handed to the model, so they stay deliberately flat.

// questionPayload is one model-authored survey question.
type questionPayload struct {
	QuestionText  string   `json:"question_text"`
	Options       []string `json:"options"`
	AllowMultiple bool     `json:"allow_multiple"`
	Reasoning     string   `json:"reasoning"`
}

// questionBatchPayload is a batch of generated questions.
type questionBatchPayload struct {
	Questions []questionPayload `json:"questions"`
}

// sentimentPayload is the model's overall sentiment verdict for a transcript.
type sentimentPayload struct {
	Band      string `json:"band"`
	Rationale string `json:"rationale"`
}

// reviewPayload is one model-authored candidate review.
type reviewPayload struct {
	ReviewText  string   `json:"review_text"`
	ReviewStars int      `json:"review_stars"`
	Tone        string   `json:"tone"`
	Highlights  []string `json:"highlights"`
}

// reviewBatchPayload is a batch of candidate reviews.
type reviewBatchPayload struct {
	Reviews []reviewPayload `json:"reviews"`
}

// Schema names reported to the model. The mock client keys scripted
// responses by these, so they double as stable identifiers in tests.
const (
	schemaNameQuestions = "survey_questions"
	schemaNameSentiment = "survey_sentiment"
	schemaNameReviews   = "review_candidates"
)
