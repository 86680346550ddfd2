package validator

import (
	"fmt"
	"strings"

	"github.com/edu-platform/quiz-service/internal/models"
	"github.com/edu-platform/quiz-service/internal/quiz"
)

// QuestionValidator handles question-specific validation
type QuestionValidator struct{}

// NewQuestionValidator creates a new question validator
func NewQuestionValidator() *QuestionValidator {
	return &QuestionValidator{}
}

// ValidateQuestion checks that a stored question can be answered in a session
func (v *QuestionValidator) ValidateQuestion(question *models.Question) error {
	if question.TopicID == 0 {
		return fmt.Errorf("topic_id is required")
	}
	return v.ValidateContent(question)
}

// ValidateContent checks a question before it is attached to a topic. Unlike the read path,
// authoring rejects options that do not decode.
func (v *QuestionValidator) ValidateContent(question *models.Question) error {
	if !question.Type.IsValid() {
		return fmt.Errorf("unsupported question type: %s", question.Type)
	}
	if strings.TrimSpace(question.Content) == "" && len(question.Images) == 0 {
		return fmt.Errorf("question content or images are required")
	}
	if _, err := quiz.DecodeImages(question.Images); err != nil {
		return fmt.Errorf("images: %w", err)
	}

	options, err := quiz.DecodeOptions(question.Options)
	if err != nil {
		return fmt.Errorf("options: %w", err)
	}

	switch question.Type {
	case quiz.TypeText:
		return v.validateTextContent(question)
	case quiz.TypeClick:
		return v.validateClickContent(question, options)
	case quiz.TypeDrag:
		return v.validateDragContent(question, options)
	case quiz.TypeDraw, quiz.TypePaint:
		return v.validateCanvasContent(question, options)
	}
	return nil
}

// ValidateBatch checks the content of a batch of questions that may not have ids yet
func (v *QuestionValidator) ValidateBatch(questions []*models.Question) error {
	if len(questions) == 0 {
		return fmt.Errorf("question batch cannot be empty")
	}

	for i, question := range questions {
		if err := v.ValidateContent(question); err != nil {
			return fmt.Errorf("validation failed for question %d: %w", i+1, err)
		}
	}

	return nil
}

func (v *QuestionValidator) validateTextContent(q *models.Question) error {
	if strings.TrimSpace(q.CorrectAnswer) == "" {
		return fmt.Errorf("text question requires a correct answer")
	}
	return nil
}

func (v *QuestionValidator) validateClickContent(q *models.Question, options []quiz.Option) error {
	if len(options) < 2 {
		return fmt.Errorf("click question requires at least 2 options")
	}
	return v.validateAnswerInOptions(q, options)
}

func (v *QuestionValidator) validateDragContent(q *models.Question, options []quiz.Option) error {
	if len(options) < 2 {
		return fmt.Errorf("drag question requires at least 2 items")
	}
	return v.validateAnswerInOptions(q, options)
}

func (v *QuestionValidator) validateCanvasContent(q *models.Question, options []quiz.Option) error {
	if len(options) > 0 {
		return fmt.Errorf("%s question must not have options", q.Type)
	}
	return nil
}

// validateAnswerInOptions requires every comma-separated answer part to be an option text
func (v *QuestionValidator) validateAnswerInOptions(q *models.Question, options []quiz.Option) error {
	texts := make(map[string]bool, len(options))
	ids := make(map[string]bool, len(options))
	for _, o := range options {
		if o.ID == "" {
			return fmt.Errorf("option ids are required")
		}
		if ids[o.ID] {
			return fmt.Errorf("duplicate option id %q", o.ID)
		}
		ids[o.ID] = true
		texts[strings.TrimSpace(o.Text)] = true
	}

	if strings.TrimSpace(q.CorrectAnswer) == "" {
		return fmt.Errorf("%s question requires a correct answer", q.Type)
	}
	for _, part := range strings.Split(q.CorrectAnswer, ",") {
		if !texts[strings.TrimSpace(part)] {
			return fmt.Errorf("correct answer %q is not an option", strings.TrimSpace(part))
		}
	}
	return nil
}
