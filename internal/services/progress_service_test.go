package services

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/edu-platform/quiz-service/internal/events"
	"github.com/edu-platform/quiz-service/internal/models"
	"github.com/edu-platform/quiz-service/internal/quiz"
	"github.com/edu-platform/quiz-service/internal/repositories"
	"github.com/edu-platform/quiz-service/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type progressFixture struct {
	repo      repositories.Repository
	publisher *events.MockEventPublisher
	svc       *progressService
	topic     *models.Topic
	questions []*models.Question
	clock     time.Time
}

func newProgressFixture(t *testing.T) *progressFixture {
	t.Helper()
	ctx := context.Background()

	repo := newTestRepository(t)
	topic := &models.Topic{Name: "Arithmetic"}
	require.NoError(t, repo.Topic().Create(ctx, topic))
	questions := []*models.Question{
		{TopicID: topic.ID, Type: quiz.TypeText, Content: "1+1", CorrectAnswer: "2"},
		{TopicID: topic.ID, Type: quiz.TypeText, Content: "2+2", CorrectAnswer: "4"},
		{TopicID: topic.ID, Type: quiz.TypeDraw, Content: "draw a square"},
	}
	require.NoError(t, repo.Question().CreateBatch(ctx, questions))

	publisher := events.NewMockEventPublisher(newTestLogger())
	f := &progressFixture{
		repo:      repo,
		publisher: publisher,
		svc:       NewProgressService(repo, publisher, validator.New(), newTestLogger(), 300).(*progressService),
		topic:     topic,
		questions: questions,
		clock:     time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC), // a Wednesday
	}
	f.svc.now = func() time.Time { return f.clock }
	return f
}

func (f *progressFixture) record(t *testing.T, learnerID string, question int, correct bool, spent, score int) *models.ProgressRecord {
	t.Helper()
	rec, err := f.svc.Record(context.Background(), learnerID, &RecordProgressRequest{
		TopicID:    f.topic.ID,
		QuestionID: f.questions[question].ID,
		IsCorrect:  &correct,
		TimeSpent:  spent,
		Score:      score,
	})
	require.NoError(t, err)
	return rec
}

func TestProgressService_RecordClampsAndPublishes(t *testing.T) {
	f := newProgressFixture(t)

	rec := f.record(t, "learner-1", 0, true, 999, 10)
	assert.NotZero(t, rec.ID)
	assert.Equal(t, 300, rec.TimeSpent)
	assert.Equal(t, "learner-1", rec.LearnerID)
	assert.Equal(t, f.clock, rec.CreatedAt)

	rec = f.record(t, "learner-1", 1, false, -4, -5)
	assert.Equal(t, 0, rec.TimeSpent)
	assert.Equal(t, -5, rec.Score)

	published := f.publisher.GetPublishedEvents()
	require.Len(t, published, 2)
	assert.Equal(t, events.EventProgressRecorded, published[0].Type)
	data := published[0].Data.(events.ProgressRecordedEvent)
	assert.Equal(t, "learner-1", data.LearnerID)
	assert.Equal(t, 300, data.TimeSpent)
	assert.True(t, data.IsCorrect)
}

func TestProgressService_RecordRejects(t *testing.T) {
	f := newProgressFixture(t)
	ctx := context.Background()
	yes := true

	_, err := f.svc.Record(ctx, "", &RecordProgressRequest{TopicID: f.topic.ID, QuestionID: f.questions[0].ID, IsCorrect: &yes})
	assert.ErrorIs(t, err, ErrLearnerRequired)
	assert.True(t, IsUnauthorized(err))

	_, err = f.svc.Record(ctx, "learner-1", &RecordProgressRequest{TopicID: f.topic.ID, QuestionID: f.questions[0].ID})
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	_, err = f.svc.Record(ctx, "learner-1", &RecordProgressRequest{TopicID: f.topic.ID, QuestionID: 999, IsCorrect: &yes})
	assert.True(t, IsBusinessRule(err))

	_, err = f.svc.Record(ctx, "learner-1", &RecordProgressRequest{TopicID: f.topic.ID + 1, QuestionID: f.questions[0].ID, IsCorrect: &yes})
	var rule *BusinessRuleError
	require.ErrorAs(t, err, &rule)
	assert.Equal(t, "question_in_topic", rule.Rule)

	assert.Empty(t, f.publisher.GetPublishedEvents())
}

func TestProgressService_PublishFailureDoesNotFailRecord(t *testing.T) {
	f := newProgressFixture(t)
	f.publisher.Err = errors.New("broker down")

	rec := f.record(t, "learner-1", 0, true, 12, 10)
	assert.NotZero(t, rec.ID)

	page, err := f.svc.History(context.Background(), "learner-1", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
}

func TestProgressService_History(t *testing.T) {
	f := newProgressFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		f.record(t, "learner-1", i, i%2 == 0, 10*(i+1), 10)
		f.clock = f.clock.Add(time.Minute)
	}
	f.record(t, "learner-2", 0, true, 5, 10)

	page, err := f.svc.History(ctx, "learner-1", &ProgressQuery{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 2, page.Limit)
	require.Len(t, page.Records, 2)
	assert.Equal(t, f.questions[2].ID, page.Records[0].QuestionID)
	assert.Equal(t, f.questions[1].ID, page.Records[1].QuestionID)

	page, err = f.svc.History(ctx, "learner-1", &ProgressQuery{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, page.Records, 1)
	assert.Equal(t, f.questions[0].ID, page.Records[0].QuestionID)

	from := time.Date(2024, 3, 6, 9, 1, 0, 0, time.UTC)
	page, err = f.svc.History(ctx, "learner-1", &ProgressQuery{From: &from})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, 50, page.Limit)

	to := from
	_, err = f.svc.History(ctx, "learner-1", &ProgressQuery{From: &from, To: &to})
	assert.ErrorIs(t, err, ErrInvalidDateRange)

	zero := uint(0)
	_, err = f.svc.History(ctx, "learner-1", &ProgressQuery{TopicID: &zero})
	assert.ErrorIs(t, err, ErrInvalidTopicID)
}

func TestProgressService_Export(t *testing.T) {
	f := newProgressFixture(t)

	f.record(t, "learner-1", 0, true, 20, 10)
	f.clock = f.clock.Add(time.Minute)
	f.record(t, "learner-1", 1, false, 40, -5)

	data, err := f.svc.Export(context.Background(), "learner-1", nil)
	require.NoError(t, err)

	book, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer book.Close()

	rows, err := book.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Recorded At", rows[0][0])
	assert.Equal(t, "2024-03-06T09:00:00Z", rows[1][0])
	assert.Equal(t, "TRUE", rows[1][3])
	assert.Equal(t, "-5", rows[2][6])
}

func TestProgressService_RefreshAndSummary(t *testing.T) {
	f := newProgressFixture(t)
	ctx := context.Background()

	// Monday and Wednesday of one week, then Monday of the next
	f.clock = time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	f.record(t, "learner-1", 0, true, 30, 10)
	f.record(t, "learner-1", 1, false, 50, -5)
	f.clock = time.Date(2024, 3, 6, 10, 0, 0, 0, time.UTC)
	f.record(t, "learner-1", 2, true, 60, 10)
	f.clock = time.Date(2024, 3, 11, 8, 0, 0, 0, time.UTC)
	f.record(t, "learner-1", 0, true, 10, 10)
	f.record(t, "learner-2", 0, false, 10, 0)
	f.clock = time.Date(2024, 3, 12, 12, 0, 0, 0, time.UTC)

	since := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	n, err := f.svc.RefreshSummaries(ctx, since)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = f.svc.RefreshSummaries(ctx, since)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	rows, err := f.repo.Summary().List(ctx, repositories.SummaryFilters{})
	require.NoError(t, err)
	assert.Len(t, rows, 4)

	daily, err := f.svc.Summary(ctx, "learner-1", &SummaryQuery{Period: models.PeriodDaily, From: &since})
	require.NoError(t, err)
	require.Len(t, daily.Buckets, 3)
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), daily.Buckets[0].Start.UTC())
	assert.Equal(t, 2, daily.Buckets[0].Attempts)
	assert.Equal(t, 5, daily.Buckets[0].TotalScore)
	assert.Equal(t, 80, daily.Buckets[0].TimeSpent)
	assert.InDelta(t, 0.5, daily.Buckets[0].Accuracy, 0.0001)
	assert.Equal(t, 4, daily.Totals.Attempts)
	assert.Equal(t, 3, daily.Totals.Correct)

	weekly, err := f.svc.Summary(ctx, "learner-1", &SummaryQuery{Period: models.PeriodWeekly})
	require.NoError(t, err)
	require.Len(t, weekly.Buckets, 2)
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), weekly.Buckets[0].Start.UTC())
	assert.Equal(t, 3, weekly.Buckets[0].Attempts)
	assert.Equal(t, 1, weekly.Buckets[1].Attempts)

	refreshed := 0
	for _, e := range f.publisher.GetPublishedEvents() {
		if e.Type == events.EventSummaryRefreshed {
			refreshed++
		}
	}
	assert.Equal(t, 2, refreshed)

	recent, err := f.svc.Summary(ctx, "learner-1", &SummaryQuery{Period: models.PeriodDaily})
	require.NoError(t, err)
	assert.Len(t, recent.Buckets, 2)

	_, err = f.svc.Summary(ctx, "learner-1", &SummaryQuery{Period: "hourly"})
	assert.True(t, IsValidation(err))
}

func TestStartOfWeek(t *testing.T) {
	sunday := time.Date(2024, 3, 10, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), startOfWeek(sunday))

	monday := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, monday, startOfWeek(monday))
}
