// Package content implements the survey content service: the collaborator
// that owns question generation, skip accounting, edit branching, and review
// generation. The flow controller consumes it exclusively through the Service
// interface and never invents content of its own.
package content

import (
	"context"
	"errors"
	"fmt"

	"github.com/shvbsle/survey-sensei/internal/models"
)

// Error variables for better error handling and testability
var (
	ErrSessionNotFound  = errors.New("survey session not found")
	ErrShopperNotFound  = errors.New("shopper not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrSessionClosed    = errors.New("survey session already completed")
	ErrSurveyComplete   = errors.New("survey already completed")
	ErrSurveyIncomplete = errors.New("survey is not complete")
	ErrNoReviews        = errors.New("no generated reviews available")
	ErrReviewsExist     = errors.New("reviews already generated for this session")
	ErrQuestionMismatch = errors.New("question number does not match the current question")
)

// SkipLimitError rejects a skip that would exceed the configured limits. The
// message is written for end users and travels to the UI unchanged.
type SkipLimitError struct {
	Message     string
	Consecutive int
	Total       int
}

func (e *SkipLimitError) Error() string {
	return e.Message
}

// StartResult is the outcome of opening a survey session.
type StartResult struct {
	SessionID      string                `json:"session_id"`
	Question       models.SurveyQuestion `json:"question"`
	QuestionNumber int                   `json:"question_number"`
	TotalQuestions int                   `json:"total_questions"`
}

// StepResult is the outcome of an answer, skip, or edit step. Question and
// QuestionNumber are set only when Status is continue.
type StepResult struct {
	Status         models.StepStatus      `json:"status"`
	Question       *models.SurveyQuestion `json:"question,omitempty"`
	QuestionNumber int                    `json:"question_number,omitempty"`
	Progress       models.Progress        `json:"progress"`
}

// EditQuestion is a freshly fetched question for the edit flow, including the
// answer currently on record.
type EditQuestion struct {
	Question       models.SurveyQuestion `json:"question"`
	QuestionNumber int                   `json:"question_number"`
	PriorAnswer    models.AnswerValue    `json:"prior_answer"`
}

// ReviewsResult is one generation round of candidate reviews.
type ReviewsResult struct {
	Options       []models.ReviewOption `json:"options"`
	SentimentBand models.SentimentBand  `json:"sentiment_band"`
}

// SubmitResult confirms a persisted review.
type SubmitResult struct {
	ReviewID string        `json:"review_id"`
	Review   models.Review `json:"review"`
}

// Service is the content-service contract. Step statuses are exactly
// {continue, survey_completed}; every other verdict travels as an error.
type Service interface {
	// Start opens a session for the subject and returns the first question.
	Start(ctx context.Context, subject models.IntakeSubject) (*StartResult, error)
	// Answer records a resolved answer for the given question number.
	Answer(ctx context.Context, sessionID string, questionNumber int, value models.AnswerValue) (*StepResult, error)
	// Skip records a skip, or rejects it with a SkipLimitError.
	Skip(ctx context.Context, sessionID string, questionNumber int) (*StepResult, error)
	// Edit branches the transcript at questionNumber: answers at and after it
	// are discarded, the replacement is recorded, and the continuation is
	// regenerated from the new transcript.
	Edit(ctx context.Context, sessionID string, questionNumber int, value models.AnswerValue) (*StepResult, error)
	// GetQuestionForEdit fetches the current server copy of an answered
	// question plus the recorded answer.
	GetQuestionForEdit(ctx context.Context, sessionID string, questionNumber int) (*EditQuestion, error)
	// GenerateReviews produces candidate reviews for a completed survey.
	GenerateReviews(ctx context.Context, sessionID string) (*ReviewsResult, error)
	// RegenerateReviews produces a fresh candidate set.
	RegenerateReviews(ctx context.Context, sessionID string) (*ReviewsResult, error)
	// SubmitReview persists the chosen candidate and closes the session.
	SubmitReview(ctx context.Context, sessionID string, optionIndex int) (*SubmitResult, error)
}

// Config tunes the survey shape. Zero fields fall back to defaults.
type Config struct {
	// InitialQuestions is the size of the opening question batch.
	InitialQuestions int
	// MinQuestions is the minimum answered (non-skipped) count before the
	// survey may complete.
	MinQuestions int
	// MaxQuestions caps the questions a session may issue.
	MaxQuestions int
	// FollowUpEvery triggers follow-up generation each time the transcript
	// grows by this many entries.
	FollowUpEvery int
	// FollowUpBatch is how many follow-ups are generated at a time.
	FollowUpBatch int
	// MaxConsecutiveSkips bounds skips in a row.
	MaxConsecutiveSkips int
	// MaxTotalSkips bounds skips per session.
	MaxTotalSkips int
	// ReviewCount is how many candidate reviews each generation produces.
	ReviewCount int
}

// Default survey shape.
const (
	DefaultInitialQuestions    = 3
	DefaultMinQuestions        = 5
	DefaultMaxQuestions        = 10
	DefaultFollowUpEvery       = 3
	DefaultFollowUpBatch       = 2
	DefaultMaxConsecutiveSkips = 3
	DefaultMaxTotalSkips       = 5
	DefaultReviewCount         = 3
)

// DefaultConfig returns the standard survey shape.
func DefaultConfig() Config {
	return Config{
		InitialQuestions:    DefaultInitialQuestions,
		MinQuestions:        DefaultMinQuestions,
		MaxQuestions:        DefaultMaxQuestions,
		FollowUpEvery:       DefaultFollowUpEvery,
		FollowUpBatch:       DefaultFollowUpBatch,
		MaxConsecutiveSkips: DefaultMaxConsecutiveSkips,
		MaxTotalSkips:       DefaultMaxTotalSkips,
		ReviewCount:         DefaultReviewCount,
	}
}

// withDefaults fills zero fields from the default shape.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.InitialQuestions <= 0 {
		c.InitialQuestions = d.InitialQuestions
	}
	if c.MinQuestions <= 0 {
		c.MinQuestions = d.MinQuestions
	}
	if c.MaxQuestions <= 0 {
		c.MaxQuestions = d.MaxQuestions
	}
	if c.FollowUpEvery <= 0 {
		c.FollowUpEvery = d.FollowUpEvery
	}
	if c.FollowUpBatch <= 0 {
		c.FollowUpBatch = d.FollowUpBatch
	}
	if c.MaxConsecutiveSkips <= 0 {
		c.MaxConsecutiveSkips = d.MaxConsecutiveSkips
	}
	if c.MaxTotalSkips <= 0 {
		c.MaxTotalSkips = d.MaxTotalSkips
	}
	if c.ReviewCount <= 0 {
		c.ReviewCount = d.ReviewCount
	}
	if c.MaxQuestions < c.MinQuestions {
		c.MaxQuestions = c.MinQuestions
	}
	return c
}

// skipLimitMessage renders the user-facing rejection for a skip.
func skipLimitMessage(consecutive bool, limit int) string {
	if consecutive {
		return fmt.Sprintf("You have skipped %d questions in a row. Please answer this one before skipping again.", limit)
	}
	return fmt.Sprintf("You have reached the limit of %d skipped questions for this survey.", limit)
}
