package interview

import (
	"strings"
)

// ParsedTurn carries the structured fields extracted from one model reply.
// A nil field means the reply did not contain that section; callers must not
// conflate nil with an empty string.
type ParsedTurn struct {
	Feedback        *string
	ImprovedAnswer  *string
	NextQuestion    *string
	IsFirstQuestion bool
	Raw             string
}

// extractRule describes one labeled section of a model reply: the section
// starts right after the label and ends at the earliest terminator, or at the
// end of the text when no terminator follows.
type extractRule struct {
	label       string
	terminators []string
}

// The model is prompted to use these exact headers. It usually does.
var (
	firstQuestionRule = extractRule{
		label:       "**Interview Question:**",
		terminators: []string{"**Instructions:**"},
	}
	feedbackRule = extractRule{
		label:       "**Feedback on Your Previous Answer:**",
		terminators: []string{"**Improved Answer Suggestion:**"},
	}
	improvedAnswerRule = extractRule{
		label:       "**Improved Answer Suggestion:**",
		terminators: []string{"**Next Interview Question:**"},
	}
	nextQuestionRule = extractRule{
		label: "**Next Interview Question:**",
	}
)

// Looser patterns for replies that drift from the prompted format. Evaluated
// in order, first match wins.
var (
	questionFallbacks = []extractRule{
		{label: "Question:", terminators: []string{"\n\n"}},
		{label: "**Question:**", terminators: []string{"\n\n"}},
		{label: "Next Question:", terminators: []string{"\n\n"}},
	}
	improvedAnswerFallbacks = []extractRule{
		{label: "Improved Answer:", terminators: []string{"**Next", "Next", "Question"}},
		{label: "**Improved Answer:**", terminators: []string{"**Next", "Next", "Question"}},
		{label: "Better Response:", terminators: []string{"**Next", "Next", "Question"}},
	}
)

// Parse extracts the structured interview fields from a raw model reply. It
// never fails: a reply matching nothing yields a turn with only Raw set, and
// the caller decides how to degrade.
func Parse(raw string) *ParsedTurn {
	turn := &ParsedTurn{Raw: raw}

	// An opening reply carries a single question and nothing else.
	if body, ok := firstQuestionRule.extract(raw); ok {
		turn.IsFirstQuestion = true
		turn.NextQuestion = &body
		return turn
	}

	if body, ok := feedbackRule.extract(raw); ok {
		turn.Feedback = &body
	}

	if body, ok := improvedAnswerRule.extract(raw); ok {
		turn.ImprovedAnswer = &body
	}

	if body, ok := nextQuestionRule.extract(raw); ok {
		turn.NextQuestion = &body
	}

	if turn.NextQuestion == nil {
		for _, rule := range questionFallbacks {
			if body, ok := rule.extract(raw); ok {
				turn.NextQuestion = &body
				break
			}
		}
	}

	if turn.ImprovedAnswer == nil {
		for _, rule := range improvedAnswerFallbacks {
			if body, ok := rule.extract(raw); ok {
				turn.ImprovedAnswer = &body
				break
			}
		}
	}

	return turn
}

// Normalized returns a copy of the turn with every extracted field cleaned up
// by Normalize. Raw is kept untouched for diagnostics.
func (t *ParsedTurn) Normalized() *ParsedTurn {
	return &ParsedTurn{
		Feedback:        Normalize(t.Feedback),
		ImprovedAnswer:  Normalize(t.ImprovedAnswer),
		NextQuestion:    Normalize(t.NextQuestion),
		IsFirstQuestion: t.IsFirstQuestion,
		Raw:             t.Raw,
	}
}

// extract looks the rule's label up case-insensitively and returns the trimmed
// section body. The second return value reports whether the label was present
// at all; a present label with an empty body yields ("", true).
func (r extractRule) extract(text string) (string, bool) {
	lower := strings.ToLower(text)
	idx := strings.Index(lower, strings.ToLower(r.label))
	if idx == -1 {
		return "", false
	}

	body := text[idx+len(r.label):]
	end := len(body)
	bodyLower := strings.ToLower(body)
	for _, term := range r.terminators {
		if i := strings.Index(bodyLower, strings.ToLower(term)); i != -1 && i < end {
			end = i
		}
	}

	return strings.TrimSpace(body[:end]), true
}
