package flow

import "github.com/shvbsle/survey-sensei/internal/models"

// EditContext holds the transient state of an in-flight edit: which question
// is being edited, the answer currently on record for it, and the displayed
// question to restore if the edit is cancelled or turns out to be a
// duplicate. Cleared entirely on submit or cancel.
type EditContext struct {
	EditingQuestionNumber int
	PriorAnswer           models.AnswerValue
	SavedQuestion         *models.SurveyQuestion
	SavedQuestionNumber   int
}

// Active reports whether an edit is in progress.
func (e *EditContext) Active() bool {
	return e.EditingQuestionNumber > 0
}

// Clear resets all edit-transient state.
func (e *EditContext) Clear() {
	*e = EditContext{}
}
