// Package flow implements the survey flow controller: a per-flow state
// machine that executes user intents against the content service, keeps the
// client-visible session snapshot consistent, and coordinates the pane
// layout. One Controller instance privately owns one flow's state.
package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shvbsle/survey-sensei/internal/content"
	"github.com/shvbsle/survey-sensei/internal/models"
	"github.com/shvbsle/survey-sensei/internal/util"
)

// IntakeValidator checks an intake subject against the catalog before the
// flow accepts it.
type IntakeValidator interface {
	ValidateSubject(subject models.IntakeSubject) error
}

// Notifier is told about submitted reviews. Implementations must not block
// the flow; failures are logged and never propagated.
type Notifier interface {
	ReviewSubmitted(ctx context.Context, review models.Review) error
}

// RawSelection is the UI's selection state for the displayed question: the
// ordered trail of option clicks plus any free text for "Other".
type RawSelection struct {
	Selected []string `json:"selected"`
	FreeText string   `json:"free_text,omitempty"`
}

// Snapshot is the read-only view of a flow handed to the host UI. Everything
// inside is deeply copied; mutating it never touches the controller.
type Snapshot struct {
	FlowID          string                 `json:"flow_id"`
	SessionID       string                 `json:"session_id,omitempty"`
	Status          models.SessionStatus   `json:"status"`
	Question        *models.SurveyQuestion `json:"question,omitempty"`
	QuestionNumber  int                    `json:"question_number,omitempty"`
	TotalQuestions  int                    `json:"total_questions,omitempty"`
	Progress        models.Progress        `json:"progress"`
	Responses       []models.AnswerRecord  `json:"responses"`
	Editing         bool                   `json:"editing,omitempty"`
	EditingQuestion int                    `json:"editing_question_number,omitempty"`
	PriorAnswer     *models.AnswerValue    `json:"prior_answer,omitempty"`
	Reviews         *models.ReviewSet      `json:"reviews,omitempty"`
	Intake          *models.IntakeSubject  `json:"intake,omitempty"`
	Panes           models.PaneLayout      `json:"panes"`
	LastError       string                 `json:"last_error,omitempty"`
	LastActivityAt  time.Time              `json:"last_activity_at"`
}

// Controller owns one flow's session snapshot and executes intents against
// the content service. A busy flag gates re-entrancy: while one operation's
// service call is outstanding every other mutating intent is rejected with
// ErrBusy, so concurrent submissions collapse to exactly one accepted
// mutation. The snapshot only advances on a successful service response; a
// failed call leaves it untouched.
type Controller struct {
	mu   sync.Mutex
	busy bool

	id       string
	svc      content.Service
	intake   IntakeValidator
	notifier Notifier
	panes    *PaneCoordinator

	subject        *models.IntakeSubject
	sessionID      string
	status         models.SessionStatus
	question       *models.SurveyQuestion
	questionNumber int
	totalQuestions int
	progress       models.Progress
	responses      []models.AnswerRecord
	reviews        *models.ReviewSet
	edit           EditContext
	lastError      string
	lastActivity   time.Time
}

// NewController creates a flow controller in the starting state. intake and
// notifier may be nil, disabling catalog validation and submit notifications
// respectively.
func NewController(svc content.Service, intake IntakeValidator, notifier Notifier) *Controller {
	return &Controller{
		id:           util.GenerateFlowID(),
		svc:          svc,
		intake:       intake,
		notifier:     notifier,
		panes:        NewPaneCoordinator(),
		status:       models.StatusStarting,
		lastActivity: time.Now().UTC(),
	}
}

// ID returns the flow identifier.
func (c *Controller) ID() string {
	return c.id
}

// LastActivity returns when the flow last executed an operation.
func (c *Controller) LastActivity() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActivity
}

// Snapshot returns a deep copy of the current flow state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// ExpandPane handles a click on a minimized region strip. Pane clicks are
// local and allowed even while a service call is outstanding.
func (c *Controller) ExpandPane(region models.PaneRegion) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.panes.Expand(region); err != nil {
		return c.snapshotLocked(), err
	}
	c.touchLocked()
	return c.snapshotLocked(), nil
}

// SubmitIntake validates and records the intake form. The flow stays in
// starting; the product pane expands so the shopper can confirm the subject
// before the survey begins.
func (c *Controller) SubmitIntake(ctx context.Context, subject models.IntakeSubject) (Snapshot, error) {
	c.mu.Lock()
	if c.busy {
		return c.rejectLocked("SubmitIntake", ErrBusy)
	}
	if c.status != models.StatusStarting || c.subject != nil {
		return c.rejectLocked("SubmitIntake", ErrIntakeSubmitted)
	}
	c.busy = true
	c.mu.Unlock()

	err := subject.Validate()
	if err == nil && c.intake != nil {
		err = c.intake.ValidateSubject(subject)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	c.touchLocked()
	if err != nil {
		wrapped := fmt.Errorf("intake rejected: %w", err)
		c.lastError = wrapped.Error()
		slog.Error("Controller.SubmitIntake: intake rejected", "flowID", c.id, "error", err)
		return c.snapshotLocked(), wrapped
	}
	c.lastError = ""
	s := subject
	c.subject = &s
	c.panes.ApplyMilestone(MilestoneIntakeSubmitted)
	slog.Info("Controller.SubmitIntake: intake accepted",
		"flowID", c.id, "shopperID", subject.ShopperID, "productID", subject.ProductID)
	return c.snapshotLocked(), nil
}

// Start opens the survey session for the submitted intake subject. On
// success the flow enters the survey phase and the survey pane expands.
func (c *Controller) Start(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	if c.busy {
		return c.rejectLocked("Start", ErrBusy)
	}
	if c.status != models.StatusStarting {
		return c.rejectLocked("Start", ErrAlreadyStarted)
	}
	if c.subject == nil {
		return c.rejectLocked("Start", ErrIntakeRequired)
	}
	subject := *c.subject
	c.busy = true
	c.mu.Unlock()

	result, err := c.svc.Start(ctx, subject)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	c.touchLocked()
	if err != nil {
		startErr := &StartError{Err: err}
		c.lastError = startErr.Error()
		slog.Error("Controller.Start: start failed", "flowID", c.id, "error", err)
		return c.snapshotLocked(), startErr
	}

	c.lastError = ""
	c.sessionID = result.SessionID
	c.status = models.StatusInProgress
	question := result.Question
	c.question = &question
	c.questionNumber = result.QuestionNumber
	c.totalQuestions = result.TotalQuestions
	c.responses = nil
	c.progress = models.Progress{
		QuestionsAsked: result.TotalQuestions,
		TotalEstimate:  result.TotalQuestions,
	}
	c.panes.ApplyMilestone(MilestoneSurveyEntered)
	slog.Info("Controller.Start: survey entered", "flowID", c.id, "sessionID", result.SessionID)
	return c.snapshotLocked(), nil
}

// SubmitAnswer resolves the raw selection for the displayed question and
// submits it: the normal path appends a response and adopts the next
// question, the edit path branches the transcript at the edited question.
// An edited answer equal to the recorded one short-circuits locally with
// ErrDuplicateAnswer and restores the pre-edit question.
func (c *Controller) SubmitAnswer(ctx context.Context, raw RawSelection) (Snapshot, error) {
	c.mu.Lock()
	if c.busy {
		return c.rejectLocked("SubmitAnswer", ErrBusy)
	}
	if c.question == nil {
		return c.rejectLocked("SubmitAnswer", ErrNoQuestion)
	}
	editing := c.edit.Active()
	if !editing && c.status != models.StatusInProgress {
		return c.rejectLocked("SubmitAnswer", ErrNotInProgress)
	}

	value, err := ResolveSelection(c.question, raw.Selected, raw.FreeText)
	if err != nil {
		return c.rejectLocked("SubmitAnswer", err)
	}

	if editing && DetectDuplicate(c.edit.EditingQuestionNumber, value, c.responses) {
		c.restoreEditLocked()
		c.lastError = ErrDuplicateAnswer.Error()
		c.touchLocked()
		snap := c.snapshotLocked()
		c.mu.Unlock()
		slog.Debug("Controller.SubmitAnswer: duplicate edit rejected", "flowID", c.id)
		return snap, ErrDuplicateAnswer
	}

	sessionID := c.sessionID
	number := c.questionNumber
	editNumber := c.edit.EditingQuestionNumber
	questionText := c.question.QuestionText
	c.busy = true
	c.mu.Unlock()

	var result *content.StepResult
	var svcErr error
	op := "answer"
	if editing {
		op = "edit"
		result, svcErr = c.svc.Edit(ctx, sessionID, editNumber, value)
	} else {
		result, svcErr = c.svc.Answer(ctx, sessionID, number, value)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	c.touchLocked()
	if svcErr != nil {
		stepErr := &StepError{Op: op, Err: svcErr}
		c.lastError = stepErr.Error()
		slog.Error("Controller.SubmitAnswer: step failed", "flowID", c.id, "op", op, "error", svcErr)
		return c.snapshotLocked(), stepErr
	}

	c.lastError = ""
	if editing {
		cut := editNumber - 1
		if cut > len(c.responses) {
			cut = len(c.responses)
		}
		c.responses = c.responses[:cut]
		c.edit.Clear()
	}
	c.responses = append(c.responses, models.AnswerRecord{
		QuestionNumber: numberForRecord(editing, editNumber, number),
		QuestionText:   questionText,
		Value:          value,
	})
	c.adoptLocked(result)
	slog.Debug("Controller.SubmitAnswer: step accepted",
		"flowID", c.id, "op", op, "status", result.Status, "questionNumber", c.questionNumber)
	return c.snapshotLocked(), nil
}

// Skip skips the displayed question. A skip-limit rejection from the content
// service passes through unchanged as a soft failure; the snapshot is
// untouched either way.
func (c *Controller) Skip(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	if c.busy {
		return c.rejectLocked("Skip", ErrBusy)
	}
	if c.edit.Active() {
		return c.rejectLocked("Skip", ErrSkipWhileEditing)
	}
	if c.status != models.StatusInProgress {
		return c.rejectLocked("Skip", ErrNotInProgress)
	}
	if c.question == nil {
		return c.rejectLocked("Skip", ErrNoQuestion)
	}
	sessionID := c.sessionID
	number := c.questionNumber
	questionText := c.question.QuestionText
	c.busy = true
	c.mu.Unlock()

	result, err := c.svc.Skip(ctx, sessionID, number)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	c.touchLocked()
	if err != nil {
		var limitErr *content.SkipLimitError
		if errors.As(err, &limitErr) {
			c.lastError = limitErr.Message
			slog.Debug("Controller.Skip: skip limit", "flowID", c.id, "message", limitErr.Message)
			return c.snapshotLocked(), err
		}
		stepErr := &StepError{Op: "skip", Err: err}
		c.lastError = stepErr.Error()
		slog.Error("Controller.Skip: step failed", "flowID", c.id, "error", err)
		return c.snapshotLocked(), stepErr
	}

	c.lastError = ""
	c.responses = append(c.responses, models.AnswerRecord{
		QuestionNumber: number,
		QuestionText:   questionText,
		Skipped:        true,
	})
	c.adoptLocked(result)
	slog.Debug("Controller.Skip: skip accepted", "flowID", c.id, "questionNumber", number, "status", result.Status)
	return c.snapshotLocked(), nil
}

// LoadForEdit begins editing an answered question. The question is fetched
// fresh from the content service because option sets may have been
// regenerated server-side; the displayed question is snapshotted for the
// cancel path when this is the first edit intent.
func (c *Controller) LoadForEdit(ctx context.Context, questionNumber int) (Snapshot, error) {
	c.mu.Lock()
	if c.busy {
		return c.rejectLocked("LoadForEdit", ErrBusy)
	}
	switch c.status {
	case models.StatusInProgress, models.StatusSurveyCompleted:
	case models.StatusReviewsGenerated, models.StatusCompleted:
		return c.rejectLocked("LoadForEdit", ErrEditingLocked)
	default:
		return c.rejectLocked("LoadForEdit", ErrNotInProgress)
	}
	if questionNumber < 1 || questionNumber > len(c.responses) {
		return c.rejectLocked("LoadForEdit", fmt.Errorf("%w: %d", models.ErrQuestionNumber, questionNumber))
	}
	sessionID := c.sessionID
	alreadyEditing := c.edit.Active()
	c.busy = true
	c.mu.Unlock()

	fetched, err := c.svc.GetQuestionForEdit(ctx, sessionID, questionNumber)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	c.touchLocked()
	if err != nil {
		stepErr := &StepError{Op: "loadForEdit", Err: err}
		c.lastError = stepErr.Error()
		slog.Error("Controller.LoadForEdit: fetch failed", "flowID", c.id, "questionNumber", questionNumber, "error", err)
		return c.snapshotLocked(), stepErr
	}

	c.lastError = ""
	if !alreadyEditing {
		c.edit.SavedQuestion = c.question
		c.edit.SavedQuestionNumber = c.questionNumber
	}
	c.edit.EditingQuestionNumber = questionNumber
	c.edit.PriorAnswer = fetched.PriorAnswer
	question := fetched.Question
	c.question = &question
	c.questionNumber = questionNumber
	slog.Debug("Controller.LoadForEdit: editing", "flowID", c.id, "questionNumber", questionNumber)
	return c.snapshotLocked(), nil
}

// CancelEdit discards the in-flight edit and restores the pre-edit question
// and number verbatim.
func (c *Controller) CancelEdit() (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		snap := c.snapshotLocked()
		return snap, ErrBusy
	}
	if !c.edit.Active() {
		c.lastError = ErrNotEditing.Error()
		return c.snapshotLocked(), ErrNotEditing
	}
	c.restoreEditLocked()
	c.lastError = ""
	c.touchLocked()
	slog.Debug("Controller.CancelEdit: edit cancelled", "flowID", c.id)
	return c.snapshotLocked(), nil
}

// rejectLocked releases the lock and returns the snapshot with the
// rejection. Busy collisions are transient and stay out of LastError; every
// other rejection becomes the flow's failure surface. Callers must hold the
// lock.
func (c *Controller) rejectLocked(op string, err error) (Snapshot, error) {
	if !errors.Is(err, ErrBusy) {
		c.lastError = err.Error()
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()
	slog.Debug("Controller."+op+": rejected", "flowID", c.id, "error", err)
	return snap, err
}

// adoptLocked applies a step result: either the next question or the survey
// completion signal. Responses are preserved in both cases.
func (c *Controller) adoptLocked(result *content.StepResult) {
	c.progress = result.Progress
	if result.Progress.TotalEstimate > 0 {
		c.totalQuestions = result.Progress.TotalEstimate
	}
	if result.Status == models.StepSurveyCompleted {
		c.status = models.StatusSurveyCompleted
		c.question = nil
		c.questionNumber = 0
		return
	}
	c.status = models.StatusInProgress
	c.question = result.Question
	c.questionNumber = result.QuestionNumber
}

// restoreEditLocked is the shared cancel path: the saved question and number
// come back verbatim and all edit-transient state clears.
func (c *Controller) restoreEditLocked() {
	c.question = c.edit.SavedQuestion
	c.questionNumber = c.edit.SavedQuestionNumber
	c.edit.Clear()
}

func (c *Controller) touchLocked() {
	c.lastActivity = time.Now().UTC()
}

// snapshotLocked deep-copies the flow state. Callers must hold the lock.
func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		FlowID:          c.id,
		SessionID:       c.sessionID,
		Status:          c.status,
		QuestionNumber:  c.questionNumber,
		TotalQuestions:  c.totalQuestions,
		Progress:        c.progress,
		Editing:         c.edit.Active(),
		EditingQuestion: c.edit.EditingQuestionNumber,
		Panes:           c.panes.Layout(),
		LastError:       c.lastError,
		LastActivityAt:  c.lastActivity,
	}
	if c.subject != nil {
		subject := *c.subject
		snap.Intake = &subject
	}
	if c.question != nil {
		question := *c.question
		question.Options = append([]string(nil), question.Options...)
		snap.Question = &question
	}
	snap.Responses = make([]models.AnswerRecord, len(c.responses))
	for i, rec := range c.responses {
		snap.Responses[i] = rec
		snap.Responses[i].Value.Parts = append([]string(nil), rec.Value.Parts...)
	}
	if c.edit.Active() {
		prior := c.edit.PriorAnswer
		prior.Parts = append([]string(nil), prior.Parts...)
		snap.PriorAnswer = &prior
	}
	if c.reviews != nil {
		reviews := c.reviews.Clone()
		snap.Reviews = &reviews
	}
	return snap
}

// numberForRecord picks the transcript position a submission lands on.
func numberForRecord(editing bool, editNumber, displayedNumber int) int {
	if editing {
		return editNumber
	}
	return displayedNumber
}
