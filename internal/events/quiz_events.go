package events

import (
	"time"

	"github.com/edu-platform/quiz-service/internal/quiz"
	"github.com/google/uuid"
)

// EventType represents different types of quiz domain events
type EventType string

const (
	EventProgressRecorded EventType = "progress.recorded"
	EventQuizCompleted    EventType = "quiz.completed"
	EventSummaryRefreshed EventType = "summary.refreshed"
)

const (
	eventSource  = "quiz-service"
	eventVersion = "1.0"
)

// Event is the envelope every published event travels in
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

type ProgressRecordedEvent struct {
	RecordID   uint      `json:"record_id"`
	LearnerID  string    `json:"learner_id"`
	TopicID    uint      `json:"topic_id"`
	QuestionID uint      `json:"question_id"`
	IsCorrect  bool      `json:"is_correct"`
	TimeSpent  int       `json:"time_spent"`
	Score      int       `json:"score"`
	TimedOut   bool      `json:"timed_out"`
	RecordedAt time.Time `json:"recorded_at"`
}

type SummaryRefreshedEvent struct {
	Buckets     int       `json:"buckets"`
	Since       time.Time `json:"since"`
	RefreshedAt time.Time `json:"refreshed_at"`
}

func newEvent(eventType EventType, data interface{}) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}

func NewProgressRecordedEvent(data ProgressRecordedEvent) *Event {
	return newEvent(EventProgressRecorded, data)
}

func NewQuizCompletedEvent(data quiz.QuizCompleteEvent) *Event {
	return newEvent(EventQuizCompleted, data)
}

func NewSummaryRefreshedEvent(data SummaryRefreshedEvent) *Event {
	return newEvent(EventSummaryRefreshed, data)
}
