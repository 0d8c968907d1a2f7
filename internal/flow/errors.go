package flow

import (
	"errors"
	"fmt"
)

// Error variables for better error handling and testability
var (
	// ErrBusy rejects an operation while another one is in flight for the
	// same flow. The caller retries after the outstanding call settles.
	ErrBusy = errors.New("another operation is already in flight")
	// ErrIntakeSubmitted rejects a second intake submission.
	ErrIntakeSubmitted = errors.New("intake form already submitted")
	// ErrIntakeRequired rejects starting a survey before intake.
	ErrIntakeRequired = errors.New("intake form has not been submitted")
	// ErrAlreadyStarted rejects a second survey start on the same flow.
	ErrAlreadyStarted = errors.New("survey already started")
	// ErrNotInProgress rejects answer and skip steps outside the survey phase.
	ErrNotInProgress = errors.New("survey is not accepting answers")
	// ErrNoQuestion rejects a step when no question is displayed.
	ErrNoQuestion = errors.New("no question is currently displayed")
	// ErrNotEditing rejects cancel when no edit is in progress.
	ErrNotEditing = errors.New("no edit is in progress")
	// ErrEditingLocked rejects edits once reviews exist or the flow closed.
	ErrEditingLocked = errors.New("editing is locked once reviews exist")
	// ErrSkipWhileEditing rejects skipping during an edit.
	ErrSkipWhileEditing = errors.New("cannot skip while editing an answer")
	// ErrEditUnresolved rejects review generation while an edit is open.
	ErrEditUnresolved = errors.New("an edit is in progress; submit or cancel it first")
	// ErrDuplicateAnswer signals an edited answer equal to the recorded one.
	// The edit is abandoned and the pre-edit question restored; nothing is
	// sent to the content service.
	ErrDuplicateAnswer = errors.New("edited answer matches the recorded answer")
	// ErrUnknownOption rejects a selection outside the displayed option set.
	ErrUnknownOption = errors.New("option is not part of the displayed question")
	// ErrMissingFreeText rejects an Other selection without free text.
	ErrMissingFreeText = errors.New("the Other option requires free text")
	// ErrSurveyNotCompleted rejects review generation before completion.
	ErrSurveyNotCompleted = errors.New("review generation requires a completed survey")
	// ErrNoReviewSet rejects selection or submission with no candidates.
	ErrNoReviewSet = errors.New("no review candidates to act on")
	// ErrFlowNotFound reports an unknown flow ID.
	ErrFlowNotFound = errors.New("flow not found")
)

// StartError wraps a content-service failure during session creation. The
// flow stays in starting; retrying reissues the identical start.
type StartError struct {
	Err error
}

func (e *StartError) Error() string {
	return fmt.Sprintf("survey start failed: %v", e.Err)
}

func (e *StartError) Unwrap() error {
	return e.Err
}

// StepError wraps a content-service failure on an answer, skip, or edit
// step. The snapshot is unchanged; retrying reissues the same intent.
type StepError struct {
	Op  string
	Err error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s step failed: %v", e.Op, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// ReviewError wraps a content-service failure on generate, regenerate, or
// submit. Any local selection is preserved for the retry.
type ReviewError struct {
	Op  string
	Err error
}

func (e *ReviewError) Error() string {
	return fmt.Sprintf("review %s failed: %v", e.Op, e.Err)
}

func (e *ReviewError) Unwrap() error {
	return e.Err
}
