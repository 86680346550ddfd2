package quiz

import "errors"

var (
	ErrNoQuestions       = errors.New("quiz has no questions")
	ErrUnsupportedType   = errors.New("unsupported question type")
	ErrUnknownOption     = errors.New("option does not belong to the current question")
	ErrWrongQuestionType = errors.New("interaction not supported by the current question type")
	ErrAlreadySubmitted  = errors.New("answer already submitted")
	ErrNotSubmitted      = errors.New("current question has not been submitted")
	ErrSessionComplete   = errors.New("session is complete")
	ErrSessionClosed     = errors.New("session is closed")
)
