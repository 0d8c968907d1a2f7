package content

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shvbsle/survey-sensei/internal/genai"
	"github.com/shvbsle/survey-sensei/internal/models"
	"github.com/shvbsle/survey-sensei/internal/store"
	"github.com/shvbsle/survey-sensei/internal/util"
)

// maxStyleCorpus caps how many past reviews feed the style analysis.
const maxStyleCorpus = 5

// Agent is the GenAI-backed implementation of Service. It owns every piece of
// survey content: question batches, follow-up cadence, skip accounting,
// sentiment classification, and candidate reviews.
type Agent struct {
	client genai.ClientInterface
	store  store.Store
	cfg    Config
}

// NewAgent creates an Agent over the given GenAI client and store. Zero
// fields in cfg fall back to the default survey shape.
func NewAgent(client genai.ClientInterface, st store.Store, cfg Config) *Agent {
	return &Agent{
		client: client,
		store:  st,
		cfg:    cfg.withDefaults(),
	}
}

// Start opens a survey session: it summarizes the product and shopper into
// generation context, produces the opening question batch, and persists the
// new session.
func (a *Agent) Start(ctx context.Context, subject models.IntakeSubject) (*StartResult, error) {
	if err := subject.Validate(); err != nil {
		slog.Error("Agent.Start: invalid intake subject", "error", err)
		return nil, fmt.Errorf("invalid intake subject: %w", err)
	}

	shopper, err := a.store.GetShopper(subject.ShopperID)
	if err != nil {
		return nil, fmt.Errorf("failed to load shopper %s: %w", subject.ShopperID, err)
	}
	if shopper == nil {
		return nil, fmt.Errorf("%w: %s", ErrShopperNotFound, subject.ShopperID)
	}
	product, err := a.store.GetProduct(subject.ProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to load product %s: %w", subject.ProductID, err)
	}
	if product == nil {
		return nil, fmt.Errorf("%w: %s", ErrProductNotFound, subject.ProductID)
	}
	pastReviews, err := a.store.GetReviewsByShopper(shopper.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load reviews for shopper %s: %w", shopper.ID, err)
	}

	productContext, err := a.client.GenerateText(ctx, productContextSystem, renderProductPrompt(product))
	if err != nil {
		slog.Error("Agent.Start: product context generation failed", "productID", product.ID, "error", err)
		return nil, fmt.Errorf("failed to summarize product context: %w", err)
	}
	shopperContext, err := a.client.GenerateText(ctx, shopperContextSystem, renderShopperPrompt(shopper, subject.Form, len(pastReviews)))
	if err != nil {
		slog.Error("Agent.Start: shopper context generation failed", "shopperID", shopper.ID, "error", err)
		return nil, fmt.Errorf("failed to summarize shopper context: %w", err)
	}

	now := time.Now().UTC()
	sess := &models.SurveySession{
		ID:             util.GenerateSessionID(),
		ShopperID:      shopper.ID,
		ProductID:      product.ID,
		Status:         models.StatusInProgress,
		ProductContext: strings.TrimSpace(productContext),
		ShopperContext: strings.TrimSpace(shopperContext),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	questions, err := a.generateQuestions(ctx, sess, a.cfg.InitialQuestions, false)
	if err != nil {
		return nil, err
	}
	sess.Questions = questions

	if err := a.store.SaveSession(*sess); err != nil {
		return nil, fmt.Errorf("failed to save session %s: %w", sess.ID, err)
	}

	slog.Info("Agent.Start: survey session opened",
		"sessionID", sess.ID, "shopperID", shopper.ID, "productID", product.ID, "questions", len(questions))
	return &StartResult{
		SessionID:      sess.ID,
		Question:       questions[0],
		QuestionNumber: 1,
		TotalQuestions: len(questions),
	}, nil
}

// Answer records a resolved answer for the session's current question and
// advances the survey.
func (a *Agent) Answer(ctx context.Context, sessionID string, questionNumber int, value models.AnswerValue) (*StepResult, error) {
	sess, err := a.loadSession(sessionID)
	if err != nil {
		return nil, err
	}
	if err := guardAnswerable(sess); err != nil {
		return nil, err
	}
	if questionNumber != sess.NextQuestionNumber() {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrQuestionMismatch, questionNumber, sess.NextQuestionNumber())
	}
	if err := value.Validate(); err != nil {
		return nil, err
	}

	sess.Answers = append(sess.Answers, models.AnswerRecord{
		QuestionNumber: questionNumber,
		QuestionText:   sess.Questions[questionNumber-1].QuestionText,
		Value:          value,
	})
	sess.ConsecutiveSkips = 0

	result, err := a.advance(ctx, sess)
	if err != nil {
		return nil, err
	}
	if err := a.saveSession(sess); err != nil {
		return nil, err
	}

	slog.Debug("Agent.Answer: answer recorded",
		"sessionID", sessionID, "questionNumber", questionNumber, "status", result.Status)
	return result, nil
}

// Skip records a skip for the session's current question, or rejects it when
// a skip limit would be exceeded.
func (a *Agent) Skip(ctx context.Context, sessionID string, questionNumber int) (*StepResult, error) {
	sess, err := a.loadSession(sessionID)
	if err != nil {
		return nil, err
	}
	if err := guardAnswerable(sess); err != nil {
		return nil, err
	}
	if questionNumber != sess.NextQuestionNumber() {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrQuestionMismatch, questionNumber, sess.NextQuestionNumber())
	}
	if sess.ConsecutiveSkips >= a.cfg.MaxConsecutiveSkips {
		slog.Debug("Agent.Skip: consecutive skip limit hit", "sessionID", sessionID, "consecutive", sess.ConsecutiveSkips)
		return nil, &SkipLimitError{
			Message:     skipLimitMessage(true, a.cfg.MaxConsecutiveSkips),
			Consecutive: sess.ConsecutiveSkips,
			Total:       sess.SkippedTotal,
		}
	}
	if sess.SkippedTotal >= a.cfg.MaxTotalSkips {
		slog.Debug("Agent.Skip: total skip limit hit", "sessionID", sessionID, "total", sess.SkippedTotal)
		return nil, &SkipLimitError{
			Message:     skipLimitMessage(false, a.cfg.MaxTotalSkips),
			Consecutive: sess.ConsecutiveSkips,
			Total:       sess.SkippedTotal,
		}
	}

	sess.Answers = append(sess.Answers, models.AnswerRecord{
		QuestionNumber: questionNumber,
		QuestionText:   sess.Questions[questionNumber-1].QuestionText,
		Skipped:        true,
	})
	sess.SkippedTotal++
	sess.ConsecutiveSkips++

	result, err := a.advance(ctx, sess)
	if err != nil {
		return nil, err
	}
	if err := a.saveSession(sess); err != nil {
		return nil, err
	}

	slog.Debug("Agent.Skip: skip recorded",
		"sessionID", sessionID, "questionNumber", questionNumber, "skippedTotal", sess.SkippedTotal)
	return result, nil
}

// Edit branches the transcript at questionNumber. Everything recorded at or
// after that question is discarded, the replacement answer is appended, and
// follow-ups beyond the branch point are regenerated from the new history.
// Any generated reviews are invalidated.
func (a *Agent) Edit(ctx context.Context, sessionID string, questionNumber int, value models.AnswerValue) (*StepResult, error) {
	sess, err := a.loadSession(sessionID)
	if err != nil {
		return nil, err
	}
	if err := guardEditable(sess); err != nil {
		return nil, err
	}
	if questionNumber < 1 || questionNumber > len(sess.Answers) {
		return nil, fmt.Errorf("%w: %d", models.ErrQuestionNumber, questionNumber)
	}
	if err := value.Validate(); err != nil {
		return nil, err
	}

	// Truncate the transcript before the edited entry and drop every question
	// issued past the branch point so follow-ups regrow from the new answer.
	sess.Answers = sess.Answers[:questionNumber-1]
	sess.Questions = sess.Questions[:questionNumber]
	sess.SkippedTotal = countSkips(sess.Answers)
	sess.Answers = append(sess.Answers, models.AnswerRecord{
		QuestionNumber: questionNumber,
		QuestionText:   sess.Questions[questionNumber-1].QuestionText,
		Value:          value,
	})
	sess.ConsecutiveSkips = 0
	sess.Reviews = nil
	sess.Status = models.StatusInProgress

	result, err := a.advance(ctx, sess)
	if err != nil {
		return nil, err
	}
	if err := a.saveSession(sess); err != nil {
		return nil, err
	}

	slog.Info("Agent.Edit: transcript branched",
		"sessionID", sessionID, "questionNumber", questionNumber, "status", result.Status)
	return result, nil
}

// GetQuestionForEdit returns the current server copy of an answered question
// together with the recorded answer. Callers must use this copy rather than a
// cached one because option sets may change between fetches.
func (a *Agent) GetQuestionForEdit(ctx context.Context, sessionID string, questionNumber int) (*EditQuestion, error) {
	sess, err := a.loadSession(sessionID)
	if err != nil {
		return nil, err
	}
	if err := guardEditable(sess); err != nil {
		return nil, err
	}
	if questionNumber < 1 || questionNumber > len(sess.Answers) {
		return nil, fmt.Errorf("%w: %d", models.ErrQuestionNumber, questionNumber)
	}

	question := sess.Questions[questionNumber-1]
	question.Options = append([]string(nil), question.Options...)
	prior := sess.Answers[questionNumber-1].Value
	prior.Parts = append([]string(nil), prior.Parts...)

	return &EditQuestion{
		Question:       question,
		QuestionNumber: questionNumber,
		PriorAnswer:    prior,
	}, nil
}

// GenerateReviews classifies the transcript's sentiment and drafts the first
// candidate review set for a completed survey.
func (a *Agent) GenerateReviews(ctx context.Context, sessionID string) (*ReviewsResult, error) {
	sess, err := a.loadSession(sessionID)
	if err != nil {
		return nil, err
	}
	switch sess.Status {
	case models.StatusSurveyCompleted:
	case models.StatusReviewsGenerated:
		return nil, fmt.Errorf("%w: %s", ErrReviewsExist, sessionID)
	case models.StatusCompleted:
		return nil, ErrSessionClosed
	default:
		return nil, fmt.Errorf("%w: session %s is %s", ErrSurveyIncomplete, sessionID, sess.Status)
	}
	return a.generateReviewSet(ctx, sess, false)
}

// RegenerateReviews replaces the current candidate set with a fresh one. The
// sentiment band is kept from the first generation.
func (a *Agent) RegenerateReviews(ctx context.Context, sessionID string) (*ReviewsResult, error) {
	sess, err := a.loadSession(sessionID)
	if err != nil {
		return nil, err
	}
	switch sess.Status {
	case models.StatusReviewsGenerated:
	case models.StatusCompleted:
		return nil, ErrSessionClosed
	case models.StatusSurveyCompleted:
		return nil, fmt.Errorf("%w: %s", ErrNoReviews, sessionID)
	default:
		return nil, fmt.Errorf("%w: session %s is %s", ErrSurveyIncomplete, sessionID, sess.Status)
	}
	if sess.Reviews == nil || len(sess.Reviews.Options) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoReviews, sessionID)
	}
	return a.generateReviewSet(ctx, sess, true)
}

// SubmitReview persists the chosen candidate as the shopper's review and
// closes the session.
func (a *Agent) SubmitReview(ctx context.Context, sessionID string, optionIndex int) (*SubmitResult, error) {
	sess, err := a.loadSession(sessionID)
	if err != nil {
		return nil, err
	}
	switch sess.Status {
	case models.StatusReviewsGenerated:
	case models.StatusCompleted:
		return nil, ErrSessionClosed
	default:
		return nil, fmt.Errorf("%w: %s", ErrNoReviews, sessionID)
	}
	if sess.Reviews == nil || len(sess.Reviews.Options) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoReviews, sessionID)
	}
	if err := sess.Reviews.Select(optionIndex); err != nil {
		return nil, err
	}
	chosen := sess.Reviews.Selected()

	review := models.Review{
		ID:         util.GenerateReviewID(),
		ShopperID:  sess.ShopperID,
		ProductID:  sess.ProductID,
		SessionID:  sess.ID,
		Stars:      chosen.ReviewStars,
		Text:       chosen.ReviewText,
		Tone:       chosen.Tone,
		Highlights: append([]string(nil), chosen.Highlights...),
		CreatedAt:  time.Now().UTC(),
	}
	if err := a.store.AddReview(review); err != nil {
		return nil, fmt.Errorf("failed to persist review for session %s: %w", sessionID, err)
	}

	sess.Status = models.StatusCompleted
	if err := a.saveSession(sess); err != nil {
		return nil, err
	}

	slog.Info("Agent.SubmitReview: review submitted",
		"sessionID", sessionID, "reviewID", review.ID, "stars", review.Stars, "optionIndex", optionIndex)
	return &SubmitResult{ReviewID: review.ID, Review: review}, nil
}

// advance decides what happens after a transcript entry was recorded: issue
// the next question, grow the queue with follow-ups, or complete the survey.
// Follow-ups are generated when the issued queue is exhausted and either the
// follow-up cadence is due or too few real answers have been gathered.
func (a *Agent) advance(ctx context.Context, sess *models.SurveySession) (*StepResult, error) {
	next := sess.NextQuestionNumber()
	if next == 0 && len(sess.Questions) < a.cfg.MaxQuestions {
		needMore := sess.AnsweredCount() < a.cfg.MinQuestions ||
			len(sess.Answers)%a.cfg.FollowUpEvery == 0
		if needMore {
			count := a.cfg.FollowUpBatch
			if room := a.cfg.MaxQuestions - len(sess.Questions); count > room {
				count = room
			}
			followUps, err := a.generateQuestions(ctx, sess, count, true)
			if err != nil {
				return nil, err
			}
			sess.Questions = append(sess.Questions, followUps...)
			next = sess.NextQuestionNumber()
		}
	}

	if next == 0 {
		sess.Status = models.StatusSurveyCompleted
		slog.Info("Agent.advance: survey completed",
			"sessionID", sess.ID, "answered", sess.AnsweredCount(), "asked", len(sess.Questions), "skipped", sess.SkippedTotal)
		return &StepResult{
			Status:   models.StepSurveyCompleted,
			Progress: sess.Progress(len(sess.Questions)),
		}, nil
	}

	question := sess.Questions[next-1]
	question.Options = append([]string(nil), question.Options...)
	return &StepResult{
		Status:         models.StepContinue,
		Question:       &question,
		QuestionNumber: next,
		Progress:       sess.Progress(len(sess.Questions)),
	}, nil
}

// generateQuestions asks the model for a question batch and validates it.
func (a *Agent) generateQuestions(ctx context.Context, sess *models.SurveySession, count int, followUp bool) ([]models.SurveyQuestion, error) {
	prompt := renderQuestionPrompt(sess, count, followUp)
	batch, err := genai.GenerateStructuredAs[questionBatchPayload](
		ctx, a.client, questionGenerationSystem, prompt,
		schemaNameQuestions, "A batch of multiple-choice survey questions.")
	if err != nil {
		slog.Error("Agent.generateQuestions: generation failed", "sessionID", sess.ID, "followUp", followUp, "error", err)
		return nil, fmt.Errorf("failed to generate questions: %w", err)
	}

	questions := make([]models.SurveyQuestion, 0, len(batch.Questions))
	for _, p := range batch.Questions {
		q := models.SurveyQuestion{
			QuestionText:  strings.TrimSpace(p.QuestionText),
			Options:       normalizeOptions(p.Options),
			AllowMultiple: p.AllowMultiple,
			Reasoning:     strings.TrimSpace(p.Reasoning),
		}
		if len(q.Options) > models.MaxQuestionOptions {
			q.Options = q.Options[:models.MaxQuestionOptions]
		}
		if err := q.Validate(); err != nil {
			slog.Error("Agent.generateQuestions: model produced invalid question",
				"sessionID", sess.ID, "question", q.QuestionText, "error", err)
			return nil, fmt.Errorf("model produced an invalid question: %w", err)
		}
		questions = append(questions, q)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("model produced no questions for session %s", sess.ID)
	}
	if len(questions) > count {
		questions = questions[:count]
	}
	return questions, nil
}

// generateReviewSet runs sentiment classification (first round only), style
// analysis, and candidate drafting, then persists the new set.
func (a *Agent) generateReviewSet(ctx context.Context, sess *models.SurveySession, regenerate bool) (*ReviewsResult, error) {
	var band models.SentimentBand
	if regenerate {
		band = sess.Reviews.SentimentBand
	} else {
		sentiment, err := genai.GenerateStructuredAs[sentimentPayload](
			ctx, a.client, sentimentSystem, renderSentimentPrompt(sess),
			schemaNameSentiment, "Overall sentiment verdict for a survey transcript.")
		if err != nil {
			slog.Error("Agent.generateReviewSet: sentiment classification failed", "sessionID", sess.ID, "error", err)
			return nil, fmt.Errorf("failed to classify sentiment: %w", err)
		}
		band = models.SentimentBand(strings.ToLower(strings.TrimSpace(sentiment.Band)))
		if !models.IsValidSentimentBand(band) {
			return nil, fmt.Errorf("%w: model returned %q", models.ErrInvalidBand, sentiment.Band)
		}
	}

	if sess.StyleNotes == "" {
		if err := a.analyzeStyle(ctx, sess); err != nil {
			return nil, err
		}
	}

	prompt := renderReviewPrompt(sess, band, a.cfg.ReviewCount, regenerate)
	batch, err := genai.GenerateStructuredAs[reviewBatchPayload](
		ctx, a.client, reviewGenerationSystem, prompt,
		schemaNameReviews, "Candidate product reviews drafted from a survey transcript.")
	if err != nil {
		slog.Error("Agent.generateReviewSet: candidate drafting failed", "sessionID", sess.ID, "error", err)
		return nil, fmt.Errorf("failed to generate reviews: %w", err)
	}

	allowed := models.StarsForBand(band)
	options := make([]models.ReviewOption, 0, len(batch.Reviews))
	for _, p := range batch.Reviews {
		opt := models.ReviewOption{
			ReviewText:  strings.TrimSpace(p.ReviewText),
			ReviewStars: clampStars(p.ReviewStars, allowed),
			Tone:        NormalizeTone(p.Tone, band),
			Highlights:  normalizeOptions(p.Highlights),
		}
		if err := opt.Validate(); err != nil {
			slog.Error("Agent.generateReviewSet: model produced invalid candidate", "sessionID", sess.ID, "error", err)
			return nil, fmt.Errorf("model produced an invalid review candidate: %w", err)
		}
		options = append(options, opt)
	}
	if len(options) == 0 {
		return nil, fmt.Errorf("model produced no review candidates for session %s", sess.ID)
	}
	if len(options) > a.cfg.ReviewCount {
		options = options[:a.cfg.ReviewCount]
	}

	set := models.NewReviewSet(options, band)
	sess.Reviews = &set
	sess.Status = models.StatusReviewsGenerated
	if err := a.saveSession(sess); err != nil {
		return nil, err
	}

	slog.Info("Agent.generateReviewSet: candidates ready",
		"sessionID", sess.ID, "band", band, "candidates", len(options), "regenerate", regenerate)
	result := set.Clone()
	return &ReviewsResult{Options: result.Options, SentimentBand: band}, nil
}

// analyzeStyle derives writing-style notes from the shopper's past reviews
// and caches them on the session. Shoppers with no history keep empty notes.
func (a *Agent) analyzeStyle(ctx context.Context, sess *models.SurveySession) error {
	past, err := a.store.GetReviewsByShopper(sess.ShopperID)
	if err != nil {
		return fmt.Errorf("failed to load reviews for shopper %s: %w", sess.ShopperID, err)
	}
	if len(past) == 0 {
		return nil
	}
	if len(past) > maxStyleCorpus {
		past = past[:maxStyleCorpus]
	}
	notes, err := a.client.GenerateText(ctx, styleAnalysisSystem, renderPastReviews(past))
	if err != nil {
		slog.Error("Agent.analyzeStyle: style analysis failed", "sessionID", sess.ID, "error", err)
		return fmt.Errorf("failed to analyze writing style: %w", err)
	}
	sess.StyleNotes = strings.TrimSpace(notes)
	slog.Debug("Agent.analyzeStyle: style notes cached", "sessionID", sess.ID, "corpus", len(past))
	return nil
}

// loadSession fetches a session and normalizes the not-found case.
func (a *Agent) loadSession(sessionID string) (*models.SurveySession, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, models.ErrEmptySessionID
	}
	sess, err := a.store.GetSession(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	if sess == nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return sess, nil
}

// saveSession stamps and persists the session.
func (a *Agent) saveSession(sess *models.SurveySession) error {
	sess.UpdatedAt = time.Now().UTC()
	if err := a.store.SaveSession(*sess); err != nil {
		slog.Error("Agent.saveSession: save failed", "sessionID", sess.ID, "error", err)
		return fmt.Errorf("failed to save session %s: %w", sess.ID, err)
	}
	return nil
}

// guardAnswerable rejects answer and skip steps on sessions that left the
// question-answering phase.
func guardAnswerable(sess *models.SurveySession) error {
	switch sess.Status {
	case models.StatusInProgress:
		return nil
	case models.StatusSurveyCompleted:
		return fmt.Errorf("%w: %s", ErrSurveyComplete, sess.ID)
	default:
		return fmt.Errorf("%w: %s", ErrSessionClosed, sess.ID)
	}
}

// guardEditable rejects edits once reviews exist or the session closed.
func guardEditable(sess *models.SurveySession) error {
	switch sess.Status {
	case models.StatusInProgress, models.StatusSurveyCompleted:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrSessionClosed, sess.ID)
	}
}

// countSkips counts skipped entries in a transcript prefix.
func countSkips(answers []models.AnswerRecord) int {
	n := 0
	for _, rec := range answers {
		if rec.Skipped {
			n++
		}
	}
	return n
}

// normalizeOptions trims entries and drops blanks, preserving order.
func normalizeOptions(options []string) []string {
	cleaned := make([]string, 0, len(options))
	for _, opt := range options {
		opt = strings.TrimSpace(opt)
		if opt == "" {
			continue
		}
		cleaned = append(cleaned, opt)
	}
	return cleaned
}

// clampStars snaps a star rating onto the permitted set for the sentiment
// band, picking the nearest permitted value.
func clampStars(stars int, allowed []int) int {
	if len(allowed) == 0 {
		return stars
	}
	best := allowed[0]
	for _, candidate := range allowed {
		if abs(candidate-stars) < abs(best-stars) {
			best = candidate
		}
	}
	return best
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
