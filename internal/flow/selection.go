package flow

import (
	"fmt"
	"strings"

	"github.com/shvbsle/survey-sensei/internal/models"
)

// Distinguished option labels, matched case-insensitively after trimming.
const (
	// OptionOther marks the free-text option.
	OptionOther = "Other"
	// OptionAllOfTheAbove marks the exclusive-group option.
	OptionAllOfTheAbove = "All of the above"
	// otherPrefix prefixes the free text in a resolved Other answer.
	otherPrefix = "Other: "
)

// optionKind classifies how an option behaves during selection.
type optionKind int

const (
	// kindNormal options toggle ordinary set membership.
	kindNormal optionKind = iota
	// kindFreeText options ("Other") toggle independently and are replaced
	// by the shopper's free text on resolution.
	kindFreeText
	// kindExclusive options ("All of the above") displace every normal
	// option but tolerate a free-text co-selection.
	kindExclusive
)

func classifyOption(label string) optionKind {
	trimmed := strings.TrimSpace(label)
	switch {
	case strings.EqualFold(trimmed, OptionOther):
		return kindFreeText
	case strings.EqualFold(trimmed, OptionAllOfTheAbove):
		return kindExclusive
	default:
		return kindNormal
	}
}

// Selection is the ordered pick state for one displayed question. Toggling
// replays the host UI's click semantics, so feeding a click trail through
// Toggle always lands on a canonical selection.
type Selection struct {
	picks []string
}

// Labels returns the current picks in first-selection order.
func (s *Selection) Labels() []string {
	return append([]string(nil), s.picks...)
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.picks = nil
}

// Toggle applies one click on an option label.
//
// Single-choice questions replace the selection. Multi-choice questions
// follow the tie-breaks: picking the exclusive option collapses the set to
// it plus any selected free-text option, deselecting the exclusive option
// clears everything, the free-text option toggles without disturbing the
// rest, and picking a normal option while the exclusive one is active
// replaces the set with the normal option plus any selected free-text one.
func (s *Selection) Toggle(question *models.SurveyQuestion, label string) error {
	if !question.HasOption(label) {
		return fmt.Errorf("%w: %q", ErrUnknownOption, label)
	}
	label = strings.TrimSpace(label)

	if !question.AllowMultiple {
		s.picks = []string{label}
		return nil
	}

	switch classifyOption(label) {
	case kindExclusive:
		if s.contains(label) {
			s.picks = nil
			return nil
		}
		s.picks = append([]string{label}, s.freeTextPicks()...)
	case kindFreeText:
		if s.contains(label) {
			s.remove(label)
		} else {
			s.picks = append(s.picks, label)
		}
	default:
		if s.containsExclusive() {
			s.picks = append([]string{label}, s.freeTextPicks()...)
			return nil
		}
		if s.contains(label) {
			s.remove(label)
		} else {
			s.picks = append(s.picks, label)
		}
	}
	return nil
}

func (s *Selection) contains(label string) bool {
	for _, pick := range s.picks {
		if strings.EqualFold(pick, strings.TrimSpace(label)) {
			return true
		}
	}
	return false
}

func (s *Selection) containsExclusive() bool {
	for _, pick := range s.picks {
		if classifyOption(pick) == kindExclusive {
			return true
		}
	}
	return false
}

func (s *Selection) freeTextPicks() []string {
	var kept []string
	for _, pick := range s.picks {
		if classifyOption(pick) == kindFreeText {
			kept = append(kept, pick)
		}
	}
	return kept
}

func (s *Selection) remove(label string) {
	kept := s.picks[:0]
	for _, pick := range s.picks {
		if !strings.EqualFold(pick, strings.TrimSpace(label)) {
			kept = append(kept, pick)
		}
	}
	s.picks = kept
}

// ResolveSelection turns a raw UI selection into a canonical answer value.
// selected is the ordered trail of option clicks for the displayed question;
// it is replayed through Toggle so the exclusive and free-text tie-breaks
// hold no matter what the caller accumulated. The free text replaces the
// Other label in the resolved value.
func ResolveSelection(question *models.SurveyQuestion, selected []string, freeText string) (models.AnswerValue, error) {
	var sel Selection
	for _, label := range selected {
		if err := sel.Toggle(question, label); err != nil {
			return models.AnswerValue{}, err
		}
	}

	picks := sel.Labels()
	if len(picks) == 0 {
		return models.AnswerValue{}, models.ErrEmptyAnswer
	}

	parts := make([]string, 0, len(picks))
	for _, label := range picks {
		if classifyOption(label) == kindFreeText {
			text := strings.TrimSpace(freeText)
			if text == "" {
				return models.AnswerValue{}, ErrMissingFreeText
			}
			parts = append(parts, otherPrefix+text)
			continue
		}
		parts = append(parts, label)
	}

	var value models.AnswerValue
	if question.AllowMultiple {
		value = models.NewMultiAnswer(parts...)
	} else {
		value = models.NewSingleAnswer(parts[0])
	}
	if err := value.Validate(); err != nil {
		return models.AnswerValue{}, err
	}
	return value, nil
}

// DetectDuplicate reports whether an edited answer equals the recorded
// response for the question. Skipped entries never count as duplicates.
// Equality is structural over the ordered parts, not over the ", "-joined
// display string.
func DetectDuplicate(questionNumber int, candidate models.AnswerValue, responses []models.AnswerRecord) bool {
	for _, rec := range responses {
		if rec.QuestionNumber != questionNumber {
			continue
		}
		return !rec.Skipped && rec.Value.Equal(candidate)
	}
	return false
}
