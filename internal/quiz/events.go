package quiz

import (
	"context"
	"time"
)

// QuizCompleteEvent is raised once when a session reaches Complete
type QuizCompleteEvent struct {
	LearnerID      string    `json:"learner_id"`
	TopicID        uint      `json:"topic_id"`
	TotalQuestions int       `json:"total_questions"`
	CorrectCount   int       `json:"correct_count"`
	FinalScore     int       `json:"final_score"`
	RecordsFlushed bool      `json:"records_flushed"`
	CompletedAt    time.Time `json:"completed_at"`
}

// CompletionNotifier receives the quizComplete signal
type CompletionNotifier interface {
	QuizComplete(ctx context.Context, event QuizCompleteEvent) error
}

// NotifierFunc adapts a function to CompletionNotifier
type NotifierFunc func(ctx context.Context, event QuizCompleteEvent) error

func (f NotifierFunc) QuizComplete(ctx context.Context, event QuizCompleteEvent) error {
	return f(ctx, event)
}
