package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/edu-platform/quiz-service/internal/quiz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestQuizBus_DeliversAndForwards(t *testing.T) {
	logger := testLogger()
	forward := NewMockEventPublisher(logger)
	bus := NewQuizBus(logger, forward)
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	completions, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	event := quiz.QuizCompleteEvent{
		LearnerID:      "learner-1",
		TopicID:        4,
		TotalQuestions: 3,
		CorrectCount:   2,
		FinalScore:     15,
		RecordsFlushed: true,
	}
	require.NoError(t, bus.QuizComplete(ctx, event))

	select {
	case got := <-completions:
		assert.Equal(t, event.LearnerID, got.LearnerID)
		assert.Equal(t, 15, got.FinalScore)
		assert.True(t, got.RecordsFlushed)
	case <-time.After(2 * time.Second):
		t.Fatal("completion was not delivered")
	}

	published := forward.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, EventQuizCompleted, published[0].Type)
	assert.NotEmpty(t, published[0].ID)
}

func TestQuizBus_ForwardFailureIsNotFatal(t *testing.T) {
	logger := testLogger()
	forward := NewMockEventPublisher(logger)
	forward.Err = errors.New("broker down")
	bus := NewQuizBus(logger, forward)
	defer bus.Close()

	err := bus.QuizComplete(context.Background(), quiz.QuizCompleteEvent{LearnerID: "learner-1"})
	assert.NoError(t, err)
}

func TestWatermillEventPublisher_Envelope(t *testing.T) {
	logger := testLogger()
	pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 1}, watermill.NewSlogLogger(logger))
	defer pubSub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	messages, err := pubSub.Subscribe(ctx, "progress")
	require.NoError(t, err)

	publisher := NewGoChannelEventPublisher(pubSub, "progress", logger)
	event := NewProgressRecordedEvent(ProgressRecordedEvent{RecordID: 9, LearnerID: "ana", QuestionID: 3, IsCorrect: true, Score: 10})
	require.NoError(t, publisher.Publish(ctx, event))

	select {
	case msg := <-messages:
		msg.Ack()
		assert.Equal(t, event.ID, msg.UUID)
		assert.Equal(t, string(EventProgressRecorded), msg.Metadata.Get("event_type"))
		assert.Equal(t, "quiz-service", msg.Metadata.Get("source"))

		var decoded struct {
			Type EventType             `json:"type"`
			Data ProgressRecordedEvent `json:"data"`
		}
		require.NoError(t, json.Unmarshal(msg.Payload, &decoded))
		assert.Equal(t, EventProgressRecorded, decoded.Type)
		assert.Equal(t, uint(9), decoded.Data.RecordID)
	case <-time.After(2 * time.Second):
		t.Fatal("message was not delivered")
	}
}

func TestMockEventPublisher_KeepsCopies(t *testing.T) {
	m := NewMockEventPublisher(testLogger())
	require.NoError(t, m.Publish(context.Background(), NewSummaryRefreshedEvent(SummaryRefreshedEvent{Buckets: 2})))

	published := m.GetPublishedEvents()
	require.Len(t, published, 1)
	published[0].Type = EventQuizCompleted
	assert.Equal(t, EventSummaryRefreshed, m.GetPublishedEvents()[0].Type)

	m.Err = errors.New("broker down")
	assert.Error(t, m.Publish(context.Background(), NewSummaryRefreshedEvent(SummaryRefreshedEvent{})))
	assert.Len(t, m.GetPublishedEvents(), 1)
}
