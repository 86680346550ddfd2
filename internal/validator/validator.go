package validator

import (
	"reflect"
	"strings"

	apperrors "github.com/edu-platform/quiz-service/internal/errors"
	"github.com/edu-platform/quiz-service/internal/models"
	"github.com/edu-platform/quiz-service/internal/quiz"
	"github.com/go-playground/validator/v10"
)

// Validator pairs tag-based request validation with the content rules for authored questions
type Validator struct {
	structs   *validator.Validate
	questions *QuestionValidator
}

func New() *Validator {
	v := validator.New()
	v.RegisterValidation("question_type", func(fl validator.FieldLevel) bool {
		return quiz.QuestionType(fl.Field().String()).IsValid()
	})
	v.RegisterValidation("summary_period", func(fl validator.FieldLevel) bool {
		return models.SummaryPeriod(fl.Field().String()).IsValid()
	})
	// report fields by their wire name
	v.RegisterTagNameFunc(wireName)

	return &Validator{
		structs:   v,
		questions: NewQuestionValidator(),
	}
}

// Validate checks struct tags. Field failures come back as errors.ValidationErrors.
func (v *Validator) Validate(s interface{}) error {
	err := v.structs.Struct(s)
	if err == nil {
		return nil
	}
	if errs := apperrors.ToValidationErrors(err); len(errs) > 0 {
		return errs
	}
	return err
}

func (v *Validator) Question() *QuestionValidator {
	return v.questions
}

func wireName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}
