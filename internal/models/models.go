// Package models defines the core data structures for survey-sensei.
//
// It includes types for survey questions, resolved answers, and generated
// review candidates, which are shared across modules.
package models

import (
	"errors"
	"strings"
)

// Validation constants for input validation
const (
	// MinQuestionOptions defines the minimum number of options a survey question carries
	MinQuestionOptions = 4
	// MaxQuestionOptions defines the maximum number of options a survey question carries
	MaxQuestionOptions = 6
	// MaxQuestionTextLength defines the maximum allowed length for question text
	MaxQuestionTextLength = 500
	// MaxFreeTextLength defines the maximum allowed length for a free-text answer
	MaxFreeTextLength = 1000
	// MinReviewStars defines the lowest permitted star rating
	MinReviewStars = 1
	// MaxReviewStars defines the highest permitted star rating
	MaxReviewStars = 5
	// MaxReviewTextLength defines the maximum allowed length for generated review text
	MaxReviewTextLength = 4000
)

// Error variables for better error handling and testability
var (
	ErrEmptyQuestionText = errors.New("question text cannot be empty")
	ErrQuestionTextLong  = errors.New("question text exceeds maximum length")
	ErrTooFewOptions     = errors.New("question has too few options")
	ErrTooManyOptions    = errors.New("question has too many options")
	ErrEmptyOption       = errors.New("question option cannot be empty")
	ErrEmptyAnswer       = errors.New("answer cannot be empty")
	ErrFreeTextTooLong   = errors.New("free-text answer exceeds maximum length")
	ErrEmptyReviewText   = errors.New("review text cannot be empty")
	ErrReviewTextTooLong = errors.New("review text exceeds maximum length")
	ErrInvalidStars      = errors.New("review stars out of range")
	ErrInvalidBand       = errors.New("invalid sentiment band")
	ErrReviewIndexRange  = errors.New("review option index out of range")
	ErrEmptyShopperID    = errors.New("shopper ID cannot be empty")
	ErrEmptyProductID    = errors.New("product ID cannot be empty")
	ErrEmptyProductName  = errors.New("product name cannot be empty")
	ErrEmptyEmail        = errors.New("email cannot be empty")
	ErrEmptySessionID    = errors.New("session ID cannot be empty")
	ErrQuestionNumber    = errors.New("question number out of range")
	ErrInvalidStatus     = errors.New("invalid session status")
	ErrInvalidTransition = errors.New("illegal session status transition")
	ErrUnknownPaneRegion = errors.New("unknown pane region")
	ErrRegionNotInLayout = errors.New("region not present in current layout mode")
)

// SurveyQuestion is one multiple-choice question issued by the content service.
// Option sets may be regenerated server-side between fetches, so questions are
// always used fresh rather than cached across an edit.
type SurveyQuestion struct {
	QuestionText  string   `json:"question_text"`
	Options       []string `json:"options"`
	AllowMultiple bool     `json:"allow_multiple"`
	Reasoning     string   `json:"reasoning,omitempty"` // why the service asked this
}

// Validate performs structural validation on a SurveyQuestion.
func (q *SurveyQuestion) Validate() error {
	if strings.TrimSpace(q.QuestionText) == "" {
		return ErrEmptyQuestionText
	}
	if len(q.QuestionText) > MaxQuestionTextLength {
		return ErrQuestionTextLong
	}
	if len(q.Options) < MinQuestionOptions {
		return ErrTooFewOptions
	}
	if len(q.Options) > MaxQuestionOptions {
		return ErrTooManyOptions
	}
	for _, opt := range q.Options {
		if strings.TrimSpace(opt) == "" {
			return ErrEmptyOption
		}
	}
	return nil
}

// HasOption reports whether the question carries the given option label,
// compared case-insensitively after trimming.
func (q *SurveyQuestion) HasOption(label string) bool {
	needle := strings.ToLower(strings.TrimSpace(label))
	for _, opt := range q.Options {
		if strings.ToLower(strings.TrimSpace(opt)) == needle {
			return true
		}
	}
	return false
}

// AnswerValue is a resolved answer: the selected option labels in
// first-selection order, plus whether the source question was multi-select.
// Single-select answers hold exactly one part.
type AnswerValue struct {
	Parts []string `json:"parts"`
	Multi bool     `json:"multi"`
}

// NewSingleAnswer builds a single-select answer value.
func NewSingleAnswer(part string) AnswerValue {
	return AnswerValue{Parts: []string{strings.TrimSpace(part)}}
}

// NewMultiAnswer builds a multi-select answer value preserving selection order.
func NewMultiAnswer(parts ...string) AnswerValue {
	trimmed := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed = append(trimmed, strings.TrimSpace(p))
	}
	return AnswerValue{Parts: trimmed, Multi: true}
}

// IsEmpty reports whether the value carries no non-blank parts.
func (v AnswerValue) IsEmpty() bool {
	for _, p := range v.Parts {
		if strings.TrimSpace(p) != "" {
			return false
		}
	}
	return true
}

// Display renders the value for humans. Multi-select parts are joined with
// ", ". The rendering is presentation only and never used for comparison.
func (v AnswerValue) Display() string {
	return strings.Join(v.Parts, ", ")
}

// Equal reports structural equality: same selection shape and the same parts
// in the same order after whitespace trimming.
func (v AnswerValue) Equal(other AnswerValue) bool {
	if v.Multi != other.Multi {
		return false
	}
	if len(v.Parts) != len(other.Parts) {
		return false
	}
	for i := range v.Parts {
		if strings.TrimSpace(v.Parts[i]) != strings.TrimSpace(other.Parts[i]) {
			return false
		}
	}
	return true
}

// Validate checks the value is usable as a submission.
func (v AnswerValue) Validate() error {
	if v.IsEmpty() {
		return ErrEmptyAnswer
	}
	for _, p := range v.Parts {
		if len(p) > MaxFreeTextLength {
			return ErrFreeTextTooLong
		}
	}
	return nil
}

// AnswerRecord is one entry of a session's answer transcript.
type AnswerRecord struct {
	QuestionNumber int         `json:"question_number"` // 1-based
	QuestionText   string      `json:"question_text"`
	Value          AnswerValue `json:"value"`
	Skipped        bool        `json:"skipped,omitempty"`
}

// Progress summarizes how far a survey session has advanced.
type Progress struct {
	QuestionsAnswered int `json:"questions_answered"`
	QuestionsAsked    int `json:"questions_asked"`
	TotalEstimate     int `json:"total_estimate"`
	SkippedTotal      int `json:"skipped_total"`
	ConsecutiveSkips  int `json:"consecutive_skips"`
}

// SentimentBand classifies the overall sentiment of a completed survey.
type SentimentBand string

const (
	// SentimentGood indicates a broadly positive experience.
	SentimentGood SentimentBand = "good"
	// SentimentOkay indicates a mixed or neutral experience.
	SentimentOkay SentimentBand = "okay"
	// SentimentBad indicates a broadly negative experience.
	SentimentBad SentimentBand = "bad"
)

// IsValidSentimentBand checks if the given band is supported.
func IsValidSentimentBand(b SentimentBand) bool {
	switch b {
	case SentimentGood, SentimentOkay, SentimentBad:
		return true
	default:
		return false
	}
}

// StarsForBand returns the star ratings candidate reviews may carry for a
// sentiment band. Generated reviews draw their ratings from this set only.
func StarsForBand(b SentimentBand) []int {
	switch b {
	case SentimentGood:
		return []int{5, 4}
	case SentimentOkay:
		return []int{4, 3, 2}
	case SentimentBad:
		return []int{2, 1}
	default:
		return nil
	}
}

// ReviewOption is one generated candidate review.
type ReviewOption struct {
	ReviewText  string   `json:"review_text"`
	ReviewStars int      `json:"review_stars"`
	Tone        string   `json:"tone"`
	Highlights  []string `json:"highlights,omitempty"`
}

// Validate performs structural validation on a ReviewOption.
func (r *ReviewOption) Validate() error {
	if strings.TrimSpace(r.ReviewText) == "" {
		return ErrEmptyReviewText
	}
	if len(r.ReviewText) > MaxReviewTextLength {
		return ErrReviewTextTooLong
	}
	if r.ReviewStars < MinReviewStars || r.ReviewStars > MaxReviewStars {
		return ErrInvalidStars
	}
	return nil
}

// ReviewSet holds one generation round of candidate reviews plus the user's
// current selection. SelectedIndex is -1 until a candidate is chosen.
type ReviewSet struct {
	Options       []ReviewOption `json:"options"`
	SentimentBand SentimentBand  `json:"sentiment_band"`
	SelectedIndex int            `json:"selected_index"`
}

// NewReviewSet builds an unselected ReviewSet.
func NewReviewSet(options []ReviewOption, band SentimentBand) ReviewSet {
	return ReviewSet{Options: options, SentimentBand: band, SelectedIndex: -1}
}

// HasSelection reports whether a candidate has been chosen.
func (s *ReviewSet) HasSelection() bool {
	return s.SelectedIndex >= 0 && s.SelectedIndex < len(s.Options)
}

// Select records the chosen candidate after bounds checking.
func (s *ReviewSet) Select(index int) error {
	if index < 0 || index >= len(s.Options) {
		return ErrReviewIndexRange
	}
	s.SelectedIndex = index
	return nil
}

// Selected returns the chosen candidate, or nil when none is selected.
func (s *ReviewSet) Selected() *ReviewOption {
	if !s.HasSelection() {
		return nil
	}
	return &s.Options[s.SelectedIndex]
}

// Clone returns a deep copy of the set.
func (s *ReviewSet) Clone() ReviewSet {
	options := make([]ReviewOption, len(s.Options))
	for i, opt := range s.Options {
		options[i] = opt
		options[i].Highlights = append([]string(nil), opt.Highlights...)
	}
	return ReviewSet{Options: options, SentimentBand: s.SentimentBand, SelectedIndex: s.SelectedIndex}
}

// API Response types for consistent JSON responses

// APIStatus represents the status of an API response.
type APIStatus string

const (
	// APIStatusOK indicates an API request completed successfully.
	APIStatusOK APIStatus = "ok"
	// APIStatusError indicates an API request failed with an error.
	APIStatusError APIStatus = "error"
	// APIStatusRecorded indicates data was successfully recorded via API.
	APIStatusRecorded APIStatus = "recorded"
)

// APIResponse represents a standard API response with a status and optional data.
type APIResponse struct {
	Status  string      `json:"status"`            // status of the API response
	Message string      `json:"message,omitempty"` // optional message for error responses or additional info
	Result  interface{} `json:"result,omitempty"`  // optional result data for successful responses
}

// APIResponseBuilder provides a fluent interface for building API responses.
type APIResponseBuilder struct {
	response APIResponse
}

// NewAPIResponseBuilder creates a new APIResponseBuilder instance.
func NewAPIResponseBuilder() *APIResponseBuilder {
	return &APIResponseBuilder{
		response: APIResponse{},
	}
}

// WithStatus sets the status of the API response.
func (b *APIResponseBuilder) WithStatus(status APIStatus) *APIResponseBuilder {
	b.response.Status = string(status)
	return b
}

// WithMessage sets the message of the API response.
func (b *APIResponseBuilder) WithMessage(message string) *APIResponseBuilder {
	b.response.Message = message
	return b
}

// WithResult sets the result data of the API response.
func (b *APIResponseBuilder) WithResult(result interface{}) *APIResponseBuilder {
	b.response.Result = result
	return b
}

// Build constructs and returns the final APIResponse.
func (b *APIResponseBuilder) Build() APIResponse {
	return b.response
}

// Convenience functions for common response patterns

// Success creates a successful API response with optional result data.
func Success(result interface{}) APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusOK).
		WithResult(result).
		Build()
}

// SuccessWithMessage creates a successful API response with a message and optional result data.
func SuccessWithMessage(message string, result interface{}) APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusOK).
		WithMessage(message).
		WithResult(result).
		Build()
}

// Error creates an error API response with a message.
func Error(message string) APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusError).
		WithMessage(message).
		Build()
}

// Recorded creates a recorded API response.
func Recorded() APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusRecorded).
		Build()
}

// RecordedWithMessage creates a recorded API response with a message.
func RecordedWithMessage(message string) APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusRecorded).
		WithMessage(message).
		Build()
}
