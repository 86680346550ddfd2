package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/edu-platform/quiz-service/internal/quiz"
)

const quizCompleteTopic = "quiz.complete"

// QuizBus carries quizComplete notifications between the session and in-process listeners.
// It satisfies quiz.CompletionNotifier. When a forward publisher is set the event is also
// sent there.
type QuizBus struct {
	pubSub    *gochannel.GoChannel
	publisher *WatermillEventPublisher
	forward   EventPublisher
	logger    *slog.Logger
}

func NewQuizBus(logger *slog.Logger, forward EventPublisher) *QuizBus {
	pubSub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 16,
	}, watermill.NewSlogLogger(logger))

	return &QuizBus{
		pubSub:    pubSub,
		publisher: NewGoChannelEventPublisher(pubSub, quizCompleteTopic, logger),
		forward:   forward,
		logger:    logger,
	}
}

// QuizComplete publishes event to every current subscriber
func (b *QuizBus) QuizComplete(ctx context.Context, event quiz.QuizCompleteEvent) error {
	envelope := NewQuizCompletedEvent(event)
	if err := b.publisher.Publish(ctx, envelope); err != nil {
		return err
	}
	if b.forward != nil {
		if err := b.forward.Publish(ctx, envelope); err != nil {
			b.logger.Warn("Failed to forward quiz completion", "learner_id", event.LearnerID, "error", err)
		}
	}
	return nil
}

// Subscribe delivers completions published after the call until ctx is done or the bus closes
func (b *QuizBus) Subscribe(ctx context.Context) (<-chan quiz.QuizCompleteEvent, error) {
	messages, err := b.pubSub.Subscribe(ctx, quizCompleteTopic)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to quiz completions: %w", err)
	}

	out := make(chan quiz.QuizCompleteEvent)
	go func() {
		defer close(out)
		for msg := range messages {
			var envelope struct {
				Data quiz.QuizCompleteEvent `json:"data"`
			}
			if err := json.Unmarshal(msg.Payload, &envelope); err != nil {
				b.logger.Error("Dropping malformed quiz completion", "message_id", msg.UUID, "error", err)
				msg.Ack()
				continue
			}
			select {
			case out <- envelope.Data:
				msg.Ack()
			case <-ctx.Done():
				msg.Nack()
				return
			}
		}
	}()
	return out, nil
}

func (b *QuizBus) Close() error {
	return b.pubSub.Close()
}
