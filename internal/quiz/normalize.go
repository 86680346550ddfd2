package quiz

import (
	"sort"
	"strings"
)

// InputKind describes the interaction a question type needs from the learner
type InputKind string

const (
	InputFreeText    InputKind = "free_text"
	InputMultiSelect InputKind = "multi_select"
	InputOrdered     InputKind = "ordered_drop"
	InputCanvas      InputKind = "canvas"
)

// Answer is the pending, type-specific answer state accumulated while Answering
type Answer struct {
	Text     string   `json:"text,omitempty"`
	Selected []string `json:"selected,omitempty"`
	Dropped  []string `json:"dropped,omitempty"`
	Drawn    bool     `json:"drawn,omitempty"`
}

func (a Answer) clone() Answer {
	out := a
	out.Selected = append([]string(nil), a.Selected...)
	out.Dropped = append([]string(nil), a.Dropped...)
	return out
}

// Normalizer converts a type-specific answer into the comparable answer string space
type Normalizer interface {
	Input() InputKind
	Normalize(q Question, a Answer) (string, error)
	Matches(q Question, normalized string) bool
}

var normalizers = map[QuestionType]Normalizer{
	TypeText:  textNormalizer{},
	TypeClick: clickNormalizer{},
	TypeDrag:  dragNormalizer{},
	TypeDraw:  freehandNormalizer{},
	TypePaint: freehandNormalizer{},
}

// NormalizerFor returns the normalizer registered for t
func NormalizerFor(t QuestionType) (Normalizer, error) {
	n, ok := normalizers[t]
	if !ok {
		return nil, ErrUnsupportedType
	}
	return n, nil
}

// Evaluate normalizes a and checks it against the question's canonical answer
func Evaluate(q Question, a Answer) (normalized string, correct bool, err error) {
	n, err := NormalizerFor(q.Type)
	if err != nil {
		return "", false, err
	}
	normalized, err = n.Normalize(q, a)
	if err != nil {
		return "", false, err
	}
	return normalized, n.Matches(q, normalized), nil
}

type textNormalizer struct{}

func (textNormalizer) Input() InputKind { return InputFreeText }

func (textNormalizer) Normalize(_ Question, a Answer) (string, error) {
	return strings.TrimSpace(a.Text), nil
}

func (textNormalizer) Matches(q Question, normalized string) bool {
	return strings.EqualFold(normalized, strings.TrimSpace(q.CorrectAnswer))
}

type clickNormalizer struct{}

func (clickNormalizer) Input() InputKind { return InputMultiSelect }

func (clickNormalizer) Normalize(q Question, a Answer) (string, error) {
	texts, err := optionTexts(q, a.Selected)
	if err != nil {
		return "", err
	}
	sort.Strings(texts)
	return strings.Join(texts, ","), nil
}

func (clickNormalizer) Matches(q Question, normalized string) bool {
	return normalized != "" && normalized == canonicalList(q.CorrectAnswer)
}

type dragNormalizer struct{}

func (dragNormalizer) Input() InputKind { return InputOrdered }

func (dragNormalizer) Normalize(q Question, a Answer) (string, error) {
	texts, err := optionTexts(q, a.Dropped)
	if err != nil {
		return "", err
	}
	return strings.Join(texts, ","), nil
}

func (dragNormalizer) Matches(q Question, normalized string) bool {
	return normalized != "" && normalized == canonicalList(q.CorrectAnswer)
}

// freehandNormalizer covers draw and paint. The canvas is never compared; an explicit
// submission is accepted under the author's canonical label.
type freehandNormalizer struct{}

func (freehandNormalizer) Input() InputKind { return InputCanvas }

func (freehandNormalizer) Normalize(q Question, _ Answer) (string, error) {
	return strings.TrimSpace(q.CorrectAnswer), nil
}

func (freehandNormalizer) Matches(Question, string) bool { return true }

func optionTexts(q Question, ids []string) ([]string, error) {
	texts := make([]string, 0, len(ids))
	for _, id := range ids {
		opt, ok := q.OptionByID(id)
		if !ok {
			return nil, ErrUnknownOption
		}
		texts = append(texts, strings.TrimSpace(opt.Text))
	}
	return texts, nil
}

// canonicalList trims every comma-separated item without reordering
func canonicalList(s string) string {
	parts := strings.Split(strings.TrimSpace(s), ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return strings.Join(parts, ",")
}
