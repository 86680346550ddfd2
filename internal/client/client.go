package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/edu-platform/quiz-service/internal/quiz"
	"github.com/go-resty/resty/v2"
)

// ErrUnauthorized is returned for 401 and 403 responses so callers can send the learner to login
var ErrUnauthorized = errors.New("not authorized")

// APIError is a non-2xx answer from the quiz API
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("quiz api returned %d: %s", e.StatusCode, e.Message)
}

// Client talks to the quiz API on behalf of one learner. It serves questions to sessions and
// records their progress.
type Client struct {
	http   *resty.Client
	logger *slog.Logger
}

// New builds a client for baseURL (including the /api/v1 prefix) authenticated with token
func New(baseURL, token string, timeout time.Duration, logger *slog.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if token != "" {
		httpClient.SetAuthToken(token)
	}
	return &Client{http: httpClient, logger: logger}
}

func (c *Client) QuestionsByTopic(ctx context.Context, topicID uint) ([]quiz.Question, error) {
	return c.questions(ctx, "/questions/topic/{id}", topicID)
}

func (c *Client) QuestionsBySection(ctx context.Context, sectionID uint) ([]quiz.Question, error) {
	return c.questions(ctx, "/questions/section/{id}", sectionID)
}

func (c *Client) questions(ctx context.Context, path string, id uint) ([]quiz.Question, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", strconv.FormatUint(uint64(id), 10)).
		Get(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}
	if err := checkResponse(resp); err != nil {
		return nil, err
	}

	questions := []quiz.Question{}
	if err := json.Unmarshal(resp.Body(), &questions); err != nil {
		return nil, fmt.Errorf("failed to decode questions: %w", err)
	}
	for _, q := range questions {
		if q.Degraded {
			c.logger.Warn("Question arrived with malformed options or images", "question_id", q.ID)
		}
	}
	return questions, nil
}

type progressBody struct {
	TopicID    uint   `json:"topic_id"`
	QuestionID uint   `json:"question_id"`
	IsCorrect  bool   `json:"is_correct"`
	TimeSpent  int    `json:"time_spent"`
	Score      int    `json:"score"`
	Answer     string `json:"answer"`
	TimedOut   bool   `json:"timed_out"`
}

// Record posts entry to /quizzes/progress. The learner is taken from the token server side.
func (c *Client) Record(ctx context.Context, entry quiz.ProgressEntry) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(progressBody{
			TopicID:    entry.TopicID,
			QuestionID: entry.QuestionID,
			IsCorrect:  entry.IsCorrect,
			TimeSpent:  entry.TimeSpent,
			Score:      entry.ScoreDelta,
			Answer:     entry.Answer,
			TimedOut:   entry.TimedOut,
		}).
		Post("/quizzes/progress")
	if err != nil {
		return fmt.Errorf("failed to record progress: %w", err)
	}
	return checkResponse(resp)
}

func checkResponse(resp *resty.Response) error {
	if !resp.IsError() {
		return nil
	}
	if resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusForbidden {
		return fmt.Errorf("%w: %s", ErrUnauthorized, resp.Status())
	}

	var body struct {
		Message string `json:"message"`
	}
	message := resp.Status()
	if err := json.Unmarshal(resp.Body(), &body); err == nil && body.Message != "" {
		message = body.Message
	}
	return &APIError{StatusCode: resp.StatusCode(), Message: message}
}
