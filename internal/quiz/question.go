package quiz

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// QuestionType determines the answer-capture input and the normalization rule
type QuestionType string

const (
	TypeText  QuestionType = "text"
	TypeClick QuestionType = "click"
	TypeDrag  QuestionType = "drag"
	TypeDraw  QuestionType = "draw"
	TypePaint QuestionType = "paint"
)

// QuestionTypes lists every supported type in a stable order
var QuestionTypes = []QuestionType{TypeText, TypeClick, TypeDrag, TypeDraw, TypePaint}

// IsValid reports whether t is a known question type
func (t QuestionType) IsValid() bool {
	for _, known := range QuestionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Option is a single choice item of a click/drag question
type Option struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// UnmarshalJSON accepts numeric or string ids and both is_correct / isCorrect spellings.
func (o *Option) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID         json.RawMessage `json:"id"`
		Text       string          `json:"text"`
		IsCorrect  *bool           `json:"is_correct"`
		IsCorrect2 *bool           `json:"isCorrect"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	id, err := decodeID(raw.ID)
	if err != nil {
		return err
	}

	o.ID = id
	o.Text = raw.Text
	o.IsCorrect = false
	if raw.IsCorrect != nil {
		o.IsCorrect = *raw.IsCorrect
	} else if raw.IsCorrect2 != nil {
		o.IsCorrect = *raw.IsCorrect2
	}
	return nil
}

func decodeID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return strings.TrimSpace(s), nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("option id must be a string or number: %w", err)
	}
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10), nil
	}
	return n.String(), nil
}

// Question is one item of a topic's ordered question list
type Question struct {
	ID               uint         `json:"id"`
	TopicID          uint         `json:"topic_id"`
	SectionID        *uint        `json:"section_id,omitempty"`
	Type             QuestionType `json:"type"`
	Content          string       `json:"content"`
	Options          []Option     `json:"options"`
	CorrectAnswer    string       `json:"correct_answer"`
	Explanation      string       `json:"explanation,omitempty"`
	Images           []string     `json:"images"`
	ExplanationImage string       `json:"explanation_image,omitempty"`

	// Degraded is set when options or images could not be decoded and were replaced by
	// empty lists.
	Degraded bool `json:"degraded,omitempty"`
}

// UnmarshalJSON decodes options and images whether they arrive as JSON arrays or as
// JSON-encoded strings. Malformed values become empty lists and mark the question Degraded.
func (q *Question) UnmarshalJSON(data []byte) error {
	type alias Question
	var raw struct {
		alias
		Options          json.RawMessage `json:"options"`
		Images           json.RawMessage `json:"images"`
		CorrectAnswer2   *string         `json:"correctAnswer"`
		ExplanationImage string          `json:"explanation_image"`
		ExplanationImg2  string          `json:"explanationImage"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*q = Question(raw.alias)
	if q.CorrectAnswer == "" && raw.CorrectAnswer2 != nil {
		q.CorrectAnswer = *raw.CorrectAnswer2
	}
	q.ExplanationImage = raw.ExplanationImage
	if q.ExplanationImage == "" {
		q.ExplanationImage = raw.ExplanationImg2
	}

	options, err := DecodeOptions(raw.Options)
	if err != nil {
		q.Degraded = true
	}
	q.Options = options

	images, err := DecodeImages(raw.Images)
	if err != nil {
		q.Degraded = true
	}
	q.Images = images
	return nil
}

// DecodeOptions parses an options payload that is either a JSON array or a string holding
// a JSON array. It always returns a non-nil slice; on error the slice is empty.
func DecodeOptions(raw []byte) ([]Option, error) {
	options := []Option{}
	payload, err := unwrapEncoded(raw)
	if err != nil || payload == nil {
		return options, err
	}
	if err := json.Unmarshal(payload, &options); err != nil {
		return []Option{}, fmt.Errorf("invalid options: %w", err)
	}
	return options, nil
}

// DecodeImages parses an images payload with the same rules as DecodeOptions. A bare
// non-JSON string is treated as a single image reference.
func DecodeImages(raw []byte) ([]string, error) {
	images := []string{}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return images, fmt.Errorf("invalid images: %w", err)
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return images, nil
		}
		if !strings.HasPrefix(s, "[") {
			return []string{s}, nil
		}
		trimmed = []byte(s)
	}
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return images, nil
	}
	if err := json.Unmarshal(trimmed, &images); err != nil {
		return []string{}, fmt.Errorf("invalid images: %w", err)
	}
	return images, nil
}

// unwrapEncoded returns the JSON array bytes, unwrapping one level of string encoding.
// A nil result means "no value".
func unwrapEncoded(raw []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return nil, nil
	}
	if trimmed[0] != '"' {
		return trimmed, nil
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return nil, fmt.Errorf("invalid encoded value: %w", err)
	}
	s = strings.TrimSpace(s)
	if s == "" || s == "null" {
		return nil, nil
	}
	return []byte(s), nil
}

// OptionByID returns the option with the given id
func (q Question) OptionByID(id string) (Option, bool) {
	for _, opt := range q.Options {
		if opt.ID == id {
			return opt, true
		}
	}
	return Option{}, false
}
