package services

import (
	"errors"
	"fmt"

	apperrors "github.com/edu-platform/quiz-service/internal/errors"
)

var (
	ErrTopicNotFound    = errors.New("topic not found")
	ErrSectionNotFound  = errors.New("section not found")
	ErrInvalidTopicID   = errors.New("topic id must be positive")
	ErrInvalidSectionID = errors.New("section id must be positive")

	ErrLearnerRequired  = errors.New("learner id is required")
	ErrInvalidDateRange = errors.New("from must be before to")
)

type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// BusinessRuleError rejects a well-formed request that conflicts with stored data,
// such as progress for a question outside the claimed topic
type BusinessRuleError struct {
	Rule    string                 `json:"rule"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func (e *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule violation (%s): %s", e.Rule, e.Message)
}

func NewBusinessRuleError(rule, message string, context map[string]interface{}) *BusinessRuleError {
	return &BusinessRuleError{Rule: rule, Message: message, Context: context}
}

func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrTopicNotFound) || errors.Is(err, ErrSectionNotFound)
}

func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrLearnerRequired)
}

// IsValidation covers bad ids, bad ranges and field-level validation failures
func IsValidation(err error) bool {
	for _, target := range []error{ErrInvalidTopicID, ErrInvalidSectionID, ErrInvalidDateRange} {
		if errors.Is(err, target) {
			return true
		}
	}
	var many apperrors.ValidationErrors
	var one *apperrors.ValidationError
	return errors.As(err, &many) || errors.As(err, &one)
}

func IsBusinessRule(err error) bool {
	var bre *BusinessRuleError
	return errors.As(err, &bre)
}
