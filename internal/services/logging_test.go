package services

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeForLogging(t *testing.T) {
	values := SanitizeForLogging(map[string]interface{}{
		"question_id": uint(4),
		"answer":      "2,4,6",
		"api_token":   "abc",
	})

	assert.Equal(t, uint(4), values["question_id"])
	assert.Equal(t, "[REDACTED]", values["answer"])
	assert.Equal(t, "[REDACTED]", values["api_token"])
	assert.Nil(t, SanitizeForLogging(nil))
}

func TestOutcome(t *testing.T) {
	cases := []struct {
		err    error
		level  slog.Level
		status string
	}{
		{nil, slog.LevelInfo, "success"},
		{ErrInvalidTopicID, slog.LevelWarn, "invalid"},
		{NewBusinessRuleError("question_exists", "missing", nil), slog.LevelWarn, "rejected"},
		{ErrLearnerRequired, slog.LevelWarn, "unauthorized"},
		{ErrTopicNotFound, slog.LevelInfo, "not_found"},
		{errors.New("boom"), slog.LevelError, "error"},
	}
	for _, tc := range cases {
		level, status := outcome(tc.err)
		assert.Equal(t, tc.level, level, tc.status)
		assert.Equal(t, tc.status, status)
	}
}

func TestOperationLogger_LogsRejectedRule(t *testing.T) {
	var buf bytes.Buffer
	logger := NewServiceLogger(slog.New(slog.NewTextHandler(&buf, nil)), LogConfig{Service: "quiz-service", Component: "progress"})

	op := logger.WithOperation(context.Background(), "record_progress", "learner-1")
	op.LogResult(0, "progress", NewBusinessRuleError("question_in_topic", "question does not belong to topic",
		map[string]interface{}{"topic_id": uint(2)}))

	out := buf.String()
	assert.Contains(t, out, "record_progress rejected")
	assert.Contains(t, out, "rule=question_in_topic")
	assert.Contains(t, out, "topic_id=2")
	assert.Contains(t, out, "component=progress")
}
