package client

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/edu-platform/quiz-service/internal/quiz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(server.URL+"/api/v1", "token-1", 2*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestClient_QuestionsByTopic(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/questions/topic/3", r.URL.Path)
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[
			{"id": 1, "topic_id": 3, "type": "click", "content": "evens",
			 "options": "[{\"id\":1,\"text\":\"2\"},{\"id\":2,\"text\":\"3\"}]", "correctAnswer": "2"},
			{"id": 2, "topic_id": 3, "type": "paint", "content": "fill", "options": "[{oops", "images": "shape.png"}
		]`)
	})

	questions, err := c.QuestionsByTopic(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, questions, 2)

	assert.Equal(t, []quiz.Option{{ID: "1", Text: "2"}, {ID: "2", Text: "3"}}, questions[0].Options)
	assert.Equal(t, "2", questions[0].CorrectAnswer)
	assert.Empty(t, questions[1].Options)
	assert.True(t, questions[1].Degraded)
	assert.Equal(t, []string{"shape.png"}, questions[1].Images)
}

func TestClient_KeepsServerDegradedFlag(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[{"id": 4, "topic_id": 3, "type": "paint", "content": "fill", "options": [], "images": [], "degraded": true}]`)
	})

	questions, err := c.QuestionsBySection(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.True(t, questions[0].Degraded)
}

func TestClient_QuestionsBySectionErrors(t *testing.T) {
	status := http.StatusUnauthorized
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/questions/section/9", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, `{"message": "Section not found"}`)
	})

	_, err := c.QuestionsBySection(context.Background(), 9)
	assert.ErrorIs(t, err, ErrUnauthorized)

	status = http.StatusNotFound
	_, err = c.QuestionsBySection(context.Background(), 9)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "Section not found", apiErr.Message)
}

func TestClient_Record(t *testing.T) {
	var got map[string]interface{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/quizzes/progress", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{}`)
	})

	var recorder quiz.Recorder = c
	err := recorder.Record(context.Background(), quiz.ProgressEntry{
		LearnerID:  "learner-1",
		TopicID:    3,
		QuestionID: 12,
		IsCorrect:  false,
		TimeSpent:  300,
		ScoreDelta: -5,
		TimedOut:   true,
	})
	require.NoError(t, err)

	assert.Equal(t, float64(3), got["topic_id"])
	assert.Equal(t, float64(12), got["question_id"])
	assert.Equal(t, false, got["is_correct"])
	assert.Equal(t, float64(-5), got["score"])
	assert.Equal(t, true, got["timed_out"])
	assert.NotContains(t, got, "learner_id")
}

func TestClient_RecordFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	err := c.Record(context.Background(), quiz.ProgressEntry{TopicID: 1, QuestionID: 1})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
}
