package config

import (
	"log/slog"
	"strings"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/edu-platform/quiz-service/internal/events"
)

// EventConfig selects where progress and summary events go
type EventConfig struct {
	Enabled       bool   // EVENTS_ENABLED
	Publisher     string // EVENTS_PUBLISHER: kafka, gochannel or mock
	KafkaBrokers  string // KAFKA_BROKERS, comma separated
	ProgressTopic string // PROGRESS_TOPIC
}

func (c *EventConfig) GetKafkaBrokers() []string {
	var brokers []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// CreateEventPublisher builds the configured publisher. Disabled or unknown publishers
// fall back to the in-memory mock so the service still starts.
func (c *EventConfig) CreateEventPublisher(logger *slog.Logger) (events.EventPublisher, error) {
	kind := c.Publisher
	if !c.Enabled {
		kind = "mock"
	}
	logger = logger.With("publisher", kind, "topic", c.ProgressTopic)

	switch kind {
	case "kafka":
		logger.Info("Publishing events to Kafka", "brokers", c.KafkaBrokers)
		return events.NewKafkaEventPublisher(events.PublisherConfig{
			KafkaBrokers: c.GetKafkaBrokers(),
			TopicName:    c.ProgressTopic,
			Logger:       logger,
		})
	case "gochannel":
		logger.Info("Publishing events in process")
		pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewSlogLogger(logger))
		return events.NewGoChannelEventPublisher(pubSub, c.ProgressTopic, logger), nil
	case "mock":
		logger.Info("Event publishing disabled, keeping events in memory")
	default:
		logger.Warn("Unknown event publisher, keeping events in memory")
	}
	return events.NewMockEventPublisher(logger), nil
}
