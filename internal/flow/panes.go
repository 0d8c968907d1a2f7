package flow

import (
	"fmt"
	"log/slog"

	"github.com/shvbsle/survey-sensei/internal/models"
)

// Milestone names the flow events that advance the pane layout. Layout mode
// is derived from milestones only, never from direct user toggles.
type Milestone string

const (
	// MilestoneIntakeSubmitted fires when the intake form is accepted.
	MilestoneIntakeSubmitted Milestone = "intake_submitted"
	// MilestoneSurveyEntered fires when the survey session opens.
	MilestoneSurveyEntered Milestone = "survey_entered"
	// MilestoneReviewsGenerated fires when the first candidate set arrives.
	MilestoneReviewsGenerated Milestone = "reviews_generated"
)

// PaneCoordinator owns the pane layout for one flow. Mode transitions are
// monotonic; exactly one region is expanded at any time. The coordinator is
// not safe for concurrent use on its own and relies on the owning
// controller's lock.
type PaneCoordinator struct {
	layout models.PaneLayout
}

// NewPaneCoordinator builds a coordinator in the initial two-region layout.
func NewPaneCoordinator() *PaneCoordinator {
	return &PaneCoordinator{layout: models.NewPaneLayout()}
}

// Layout returns a copy of the current layout.
func (p *PaneCoordinator) Layout() models.PaneLayout {
	return p.layout.Clone()
}

// ApplyMilestone advances the layout for a flow milestone: intake keeps the
// two-region mode and expands the product summary, entering the survey grows
// to three regions expanding the survey, and review generation grows to four
// regions expanding the reviews. Reapplying a milestone is harmless.
func (p *PaneCoordinator) ApplyMilestone(m Milestone) {
	switch m {
	case MilestoneIntakeSubmitted:
		p.expand(models.PaneProduct)
	case MilestoneSurveyEntered:
		p.advanceMode(models.PaneModeThree)
		p.expand(models.PaneSurvey)
	case MilestoneReviewsGenerated:
		p.advanceMode(models.PaneModeFour)
		p.expand(models.PaneReviews)
	default:
		slog.Warn("PaneCoordinator.ApplyMilestone: unknown milestone", "milestone", m)
	}
}

// Expand handles a user click on a minimized region strip. Clicking the
// already-expanded region is a no-op; clicking a region outside the current
// mode is an error.
func (p *PaneCoordinator) Expand(region models.PaneRegion) error {
	if !models.IsValidPaneRegion(region) {
		return fmt.Errorf("%w: %q", models.ErrUnknownPaneRegion, region)
	}
	if !models.ModeContains(p.layout.Mode, region) {
		return fmt.Errorf("%w: %s in %d-pane mode", models.ErrRegionNotInLayout, region, p.layout.Mode)
	}
	if p.layout.Expanded == region {
		return nil
	}
	p.expand(region)
	return nil
}

// advanceMode grows the layout, never shrinks it.
func (p *PaneCoordinator) advanceMode(target models.PaneMode) {
	if target > p.layout.Mode {
		p.layout.Mode = target
	}
}

// expand switches the expanded region and resets its scroll position by
// bumping the region's scroll epoch.
func (p *PaneCoordinator) expand(region models.PaneRegion) {
	if p.layout.Expanded == region {
		return
	}
	p.layout.Expanded = region
	if p.layout.ScrollEpoch == nil {
		p.layout.ScrollEpoch = make(map[models.PaneRegion]int64)
	}
	p.layout.ScrollEpoch[region]++
}
