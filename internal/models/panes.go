// Package models defines pane layout structures shared between the flow
// controller and the API layer. The layout is data for the host UI to render;
// no drawing happens server-side.
package models

// PaneRegion identifies one region of the host UI.
type PaneRegion string

const (
	// PaneForm is the intake form region.
	PaneForm PaneRegion = "form"
	// PaneProduct is the product summary region.
	PaneProduct PaneRegion = "product"
	// PaneSurvey is the survey conversation region.
	PaneSurvey PaneRegion = "survey"
	// PaneReviews is the generated reviews region.
	PaneReviews PaneRegion = "reviews"
)

// IsValidPaneRegion checks if the given region is supported.
func IsValidPaneRegion(r PaneRegion) bool {
	switch r {
	case PaneForm, PaneProduct, PaneSurvey, PaneReviews:
		return true
	default:
		return false
	}
}

// PaneMode is the number of visible regions. Modes only ever increase over a
// session's lifetime.
type PaneMode int

const (
	// PaneModeTwo shows the form and product regions.
	PaneModeTwo PaneMode = 2
	// PaneModeThree adds the survey region.
	PaneModeThree PaneMode = 3
	// PaneModeFour adds the reviews region.
	PaneModeFour PaneMode = 4
)

// paneModeRegions lists the regions present in each mode, in display order.
var paneModeRegions = map[PaneMode][]PaneRegion{
	PaneModeTwo:   {PaneForm, PaneProduct},
	PaneModeThree: {PaneForm, PaneProduct, PaneSurvey},
	PaneModeFour:  {PaneForm, PaneProduct, PaneSurvey, PaneReviews},
}

// RegionsForMode returns the regions visible in the given mode.
func RegionsForMode(m PaneMode) []PaneRegion {
	regions := paneModeRegions[m]
	out := make([]PaneRegion, len(regions))
	copy(out, regions)
	return out
}

// ModeContains reports whether a region is visible in the given mode.
func ModeContains(m PaneMode, r PaneRegion) bool {
	for _, region := range paneModeRegions[m] {
		if region == r {
			return true
		}
	}
	return false
}

// PaneLayout is the renderable layout state: the current mode, the single
// expanded region, and a per-region scroll epoch. The epoch increments every
// time a region becomes expanded so the host UI knows to reset its scroll
// position to the top.
type PaneLayout struct {
	Mode        PaneMode             `json:"mode"`
	Expanded    PaneRegion           `json:"expanded"`
	ScrollEpoch map[PaneRegion]int64 `json:"scroll_epoch"`
}

// NewPaneLayout builds the initial two-region layout with the form expanded.
func NewPaneLayout() PaneLayout {
	return PaneLayout{
		Mode:     PaneModeTwo,
		Expanded: PaneForm,
		ScrollEpoch: map[PaneRegion]int64{
			PaneForm: 1,
		},
	}
}

// Clone returns a deep copy of the layout.
func (l PaneLayout) Clone() PaneLayout {
	epochs := make(map[PaneRegion]int64, len(l.ScrollEpoch))
	for region, epoch := range l.ScrollEpoch {
		epochs[region] = epoch
	}
	return PaneLayout{Mode: l.Mode, Expanded: l.Expanded, ScrollEpoch: epochs}
}
