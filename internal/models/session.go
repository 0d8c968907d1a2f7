// Package models defines session lifecycle types shared across modules.
package models

import "time"

// SessionStatus represents where a survey session is in its lifecycle.
type SessionStatus string

const (
	// StatusStarting indicates a controller exists but no server session yet.
	StatusStarting SessionStatus = "starting"
	// StatusInProgress indicates the survey is accepting answers.
	StatusInProgress SessionStatus = "in_progress"
	// StatusSurveyCompleted indicates the survey finished but no reviews exist.
	StatusSurveyCompleted SessionStatus = "survey_completed"
	// StatusReviewsGenerated indicates candidate reviews are available.
	StatusReviewsGenerated SessionStatus = "reviews_generated"
	// StatusCompleted indicates a review was submitted; the session is terminal.
	StatusCompleted SessionStatus = "completed"
)

// IsValidSessionStatus checks if the given session status is supported.
func IsValidSessionStatus(s SessionStatus) bool {
	switch s {
	case StatusStarting, StatusInProgress, StatusSurveyCompleted, StatusReviewsGenerated, StatusCompleted:
		return true
	default:
		return false
	}
}

// statusRank orders the forward progression of the lifecycle.
var statusRank = map[SessionStatus]int{
	StatusStarting:         0,
	StatusInProgress:       1,
	StatusSurveyCompleted:  2,
	StatusReviewsGenerated: 3,
	StatusCompleted:        4,
}

// ValidTransition reports whether moving a session from one status to another
// is legal. The lifecycle is forward-only with two exceptions: regenerating
// reviews self-loops on reviews_generated, and an accepted mid-survey edit may
// move survey_completed back to in_progress. No other regression exists.
func ValidTransition(from, to SessionStatus) bool {
	fromRank, ok := statusRank[from]
	if !ok {
		return false
	}
	toRank, ok := statusRank[to]
	if !ok {
		return false
	}
	if from == StatusReviewsGenerated && to == StatusReviewsGenerated {
		return true
	}
	if from == StatusSurveyCompleted && to == StatusInProgress {
		return true
	}
	return toRank == fromRank+1
}

// StepStatus is the content service's verdict after a survey step.
type StepStatus string

const (
	// StepContinue indicates the survey continues with another question.
	StepContinue StepStatus = "continue"
	// StepSurveyCompleted indicates the survey has gathered enough answers.
	StepSurveyCompleted StepStatus = "survey_completed"
)

// IsValidStepStatus checks if the given step status is supported.
func IsValidStepStatus(s StepStatus) bool {
	return s == StepContinue || s == StepSurveyCompleted
}

// SurveySession is the server-side record of one survey conversation.
// Questions holds every question issued so far in ask order; Answers holds the
// transcript, truncated and re-extended when an edit branches the history.
type SurveySession struct {
	ID               string           `json:"id"`
	ShopperID        string           `json:"shopper_id"`
	ProductID        string           `json:"product_id"`
	Status           SessionStatus    `json:"status"`
	Questions        []SurveyQuestion `json:"questions"`
	Answers          []AnswerRecord   `json:"answers"`
	SkippedTotal     int              `json:"skipped_total"`
	ConsecutiveSkips int              `json:"consecutive_skips"`
	ProductContext   string           `json:"product_context,omitempty"`
	ShopperContext   string           `json:"shopper_context,omitempty"`
	StyleNotes       string           `json:"style_notes,omitempty"`
	Reviews          *ReviewSet       `json:"reviews,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// NextQuestionNumber returns the 1-based number of the next unanswered
// question, or 0 when every issued question has an answer.
func (s *SurveySession) NextQuestionNumber() int {
	next := len(s.Answers) + 1
	if next > len(s.Questions) {
		return 0
	}
	return next
}

// AnsweredCount returns how many questions carry a real (non-skipped) answer.
func (s *SurveySession) AnsweredCount() int {
	n := 0
	for _, a := range s.Answers {
		if !a.Skipped {
			n++
		}
	}
	return n
}

// Progress assembles the progress summary reported to the controller.
func (s *SurveySession) Progress(totalEstimate int) Progress {
	return Progress{
		QuestionsAnswered: s.AnsweredCount(),
		QuestionsAsked:    len(s.Questions),
		TotalEstimate:     totalEstimate,
		SkippedTotal:      s.SkippedTotal,
		ConsecutiveSkips:  s.ConsecutiveSkips,
	}
}

// Clone returns a deep copy of the session, safe to hand to callers that must
// not observe later mutations.
func (s *SurveySession) Clone() *SurveySession {
	clone := *s
	clone.Questions = make([]SurveyQuestion, len(s.Questions))
	for i, q := range s.Questions {
		clone.Questions[i] = q
		clone.Questions[i].Options = append([]string(nil), q.Options...)
	}
	clone.Answers = make([]AnswerRecord, len(s.Answers))
	for i, a := range s.Answers {
		clone.Answers[i] = a
		clone.Answers[i].Value.Parts = append([]string(nil), a.Value.Parts...)
	}
	if s.Reviews != nil {
		reviews := s.Reviews.Clone()
		clone.Reviews = &reviews
	}
	return &clone
}
