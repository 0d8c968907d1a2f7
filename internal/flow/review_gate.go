package flow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shvbsle/survey-sensei/internal/models"
)

// ReviewGate exposes the review phase of a flow: generating candidates once
// the survey is complete, regenerating a fresh set, picking one, and
// submitting it. It shares the owning controller's lock and busy flag, so
// review operations and survey operations exclude each other.
type ReviewGate struct {
	c *Controller
}

// Reviews returns the review-phase facade for this flow.
func (c *Controller) Reviews() *ReviewGate {
	return &ReviewGate{c: c}
}

// Generate produces the review candidates. Only a flow whose survey has
// completed may generate; generation never fires as a side effect of
// answering the last question.
func (g *ReviewGate) Generate(ctx context.Context) (Snapshot, error) {
	c := g.c
	c.mu.Lock()
	if c.busy {
		return c.rejectLocked("Reviews.Generate", ErrBusy)
	}
	if c.edit.Active() {
		return c.rejectLocked("Reviews.Generate", ErrEditUnresolved)
	}
	if c.status != models.StatusSurveyCompleted {
		return c.rejectLocked("Reviews.Generate", ErrSurveyNotCompleted)
	}
	sessionID := c.sessionID
	c.busy = true
	c.mu.Unlock()

	result, err := c.svc.GenerateReviews(ctx, sessionID)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	c.touchLocked()
	if err != nil {
		reviewErr := &ReviewError{Op: "generate", Err: err}
		c.lastError = reviewErr.Error()
		slog.Error("ReviewGate.Generate: generation failed", "flowID", c.id, "error", err)
		return c.snapshotLocked(), reviewErr
	}

	c.lastError = ""
	set := models.NewReviewSet(result.Options, result.SentimentBand)
	c.reviews = &set
	c.status = models.StatusReviewsGenerated
	c.panes.ApplyMilestone(MilestoneReviewsGenerated)
	slog.Info("ReviewGate.Generate: reviews generated",
		"flowID", c.id, "sessionID", sessionID, "band", result.SentimentBand, "count", len(result.Options))
	return c.snapshotLocked(), nil
}

// Regenerate replaces the candidate set with a fresh one. Any prior pick is
// discarded; the flow stays in the reviews phase.
func (g *ReviewGate) Regenerate(ctx context.Context) (Snapshot, error) {
	c := g.c
	c.mu.Lock()
	if c.busy {
		return c.rejectLocked("Reviews.Regenerate", ErrBusy)
	}
	if c.status != models.StatusReviewsGenerated || c.reviews == nil {
		return c.rejectLocked("Reviews.Regenerate", ErrNoReviewSet)
	}
	sessionID := c.sessionID
	c.busy = true
	c.mu.Unlock()

	result, err := c.svc.RegenerateReviews(ctx, sessionID)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	c.touchLocked()
	if err != nil {
		reviewErr := &ReviewError{Op: "regenerate", Err: err}
		c.lastError = reviewErr.Error()
		slog.Error("ReviewGate.Regenerate: regeneration failed", "flowID", c.id, "error", err)
		return c.snapshotLocked(), reviewErr
	}

	c.lastError = ""
	set := models.NewReviewSet(result.Options, result.SentimentBand)
	c.reviews = &set
	slog.Info("ReviewGate.Regenerate: reviews regenerated",
		"flowID", c.id, "sessionID", sessionID, "count", len(result.Options))
	return c.snapshotLocked(), nil
}

// Select records which candidate the shopper has picked. Selection is local
// state only; nothing is persisted until Submit.
func (g *ReviewGate) Select(index int) (Snapshot, error) {
	c := g.c
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != models.StatusReviewsGenerated || c.reviews == nil {
		c.lastError = ErrNoReviewSet.Error()
		return c.snapshotLocked(), ErrNoReviewSet
	}
	if err := c.reviews.Select(index); err != nil {
		wrapped := fmt.Errorf("select review: %w", err)
		c.lastError = wrapped.Error()
		return c.snapshotLocked(), wrapped
	}
	c.lastError = ""
	c.touchLocked()
	slog.Debug("ReviewGate.Select: candidate selected", "flowID", c.id, "index", index)
	return c.snapshotLocked(), nil
}

// Submit publishes the candidate at index as the final review and closes the
// flow. The notifier, if any, is told afterwards; notification failures are
// logged and do not affect the submitted review.
func (g *ReviewGate) Submit(ctx context.Context, index int) (Snapshot, error) {
	c := g.c
	c.mu.Lock()
	if c.busy {
		return c.rejectLocked("Reviews.Submit", ErrBusy)
	}
	if c.status != models.StatusReviewsGenerated || c.reviews == nil {
		return c.rejectLocked("Reviews.Submit", ErrNoReviewSet)
	}
	if index < 0 || index >= len(c.reviews.Options) {
		return c.rejectLocked("Reviews.Submit", fmt.Errorf("%w: %d", models.ErrReviewIndexRange, index))
	}
	sessionID := c.sessionID
	c.busy = true
	c.mu.Unlock()

	result, err := c.svc.SubmitReview(ctx, sessionID, index)

	c.mu.Lock()
	c.busy = false
	c.touchLocked()
	if err != nil {
		reviewErr := &ReviewError{Op: "submit", Err: err}
		c.lastError = reviewErr.Error()
		slog.Error("ReviewGate.Submit: submission failed", "flowID", c.id, "index", index, "error", err)
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, reviewErr
	}
	c.lastError = ""
	if selErr := c.reviews.Select(index); selErr != nil {
		slog.Error("ReviewGate.Submit: selection out of range after submit", "flowID", c.id, "index", index, "error", selErr)
	}
	c.status = models.StatusCompleted
	snap := c.snapshotLocked()
	notifier := c.notifier
	c.mu.Unlock()

	slog.Info("ReviewGate.Submit: review submitted",
		"flowID", c.id, "sessionID", sessionID, "reviewID", result.ReviewID, "stars", result.Review.Stars)
	if notifier != nil {
		if notifyErr := notifier.ReviewSubmitted(ctx, result.Review); notifyErr != nil {
			slog.Error("ReviewGate.Submit: notification failed", "flowID", c.id, "reviewID", result.ReviewID, "error", notifyErr)
		}
	}
	return snap, nil
}
