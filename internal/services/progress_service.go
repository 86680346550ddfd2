package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/edu-platform/quiz-service/internal/events"
	"github.com/edu-platform/quiz-service/internal/models"
	"github.com/edu-platform/quiz-service/internal/quiz"
	"github.com/edu-platform/quiz-service/internal/repositories"
	"github.com/edu-platform/quiz-service/internal/validator"
	"github.com/xuri/excelize/v2"
)

const (
	defaultPageSize    = 50
	exportPageSize     = 500
	exportSheet        = "Progress"
	defaultDailyRange  = 7 * 24 * time.Hour
	defaultWeeklyRange = 28 * 24 * time.Hour
)

type progressService struct {
	repo         repositories.Repository
	publisher    events.EventPublisher
	validator    *validator.Validator
	logger       *ServiceLogger
	maxTimeSpent int
	now          func() time.Time
}

// NewProgressService builds the progress service. publisher may be nil. Recorded
// time_spent is clamped to [0, maxTimeSpent].
func NewProgressService(repo repositories.Repository, publisher events.EventPublisher, validator *validator.Validator, logger *slog.Logger, maxTimeSpent int) ProgressService {
	if maxTimeSpent <= 0 {
		maxTimeSpent = quiz.DefaultTimerBudget
	}
	return &progressService{
		repo:         repo,
		publisher:    publisher,
		validator:    validator,
		logger:       NewServiceLogger(logger, LogConfig{Service: "quiz-service", Component: "progress"}),
		maxTimeSpent: maxTimeSpent,
		now:          time.Now,
	}
}

func (s *progressService) Record(ctx context.Context, learnerID string, req *RecordProgressRequest) (record *models.ProgressRecord, err error) {
	op := s.logger.WithOperation(ctx, "record_progress", learnerID)
	defer func() {
		var id uint
		if record != nil {
			id = record.ID
		}
		op.LogResult(id, "progress", err)
	}()

	if learnerID == "" {
		return nil, ErrLearnerRequired
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	question, err := s.repo.Question().GetByID(ctx, req.QuestionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewBusinessRuleError("question_exists", "question does not exist",
				map[string]interface{}{"question_id": req.QuestionID})
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	if question.TopicID != req.TopicID {
		return nil, NewBusinessRuleError("question_in_topic", "question does not belong to topic",
			map[string]interface{}{"question_id": req.QuestionID, "topic_id": req.TopicID})
	}

	record = &models.ProgressRecord{
		LearnerID:  learnerID,
		TopicID:    req.TopicID,
		QuestionID: req.QuestionID,
		IsCorrect:  *req.IsCorrect,
		TimeSpent:  quiz.ClampTimeSpent(req.TimeSpent, s.maxTimeSpent),
		Score:      req.Score,
		Answer:     req.Answer,
		TimedOut:   req.TimedOut,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.repo.Progress().Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to record progress: %w", err)
	}

	op.LogAudit(AuditEventCreate, record.ID, "progress", map[string]interface{}{
		"question_id": record.QuestionID,
		"is_correct":  record.IsCorrect,
		"time_spent":  record.TimeSpent,
		"answer":      record.Answer,
	})

	s.publish(ctx, events.NewProgressRecordedEvent(events.ProgressRecordedEvent{
		RecordID:   record.ID,
		LearnerID:  record.LearnerID,
		TopicID:    record.TopicID,
		QuestionID: record.QuestionID,
		IsCorrect:  record.IsCorrect,
		TimeSpent:  record.TimeSpent,
		Score:      record.Score,
		TimedOut:   record.TimedOut,
		RecordedAt: record.CreatedAt,
	}))

	return record, nil
}

func (s *progressService) History(ctx context.Context, learnerID string, query *ProgressQuery) (*ProgressPage, error) {
	filters, err := s.progressFilters(learnerID, query)
	if err != nil {
		return nil, err
	}

	records, total, err := s.repo.Progress().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}

	limit := filters.Limit
	switch {
	case limit <= 0:
		limit = defaultPageSize
	case limit > exportPageSize:
		limit = exportPageSize
	}
	return &ProgressPage{Records: records, Total: total, Limit: limit, Offset: filters.Offset}, nil
}

// Export renders every matching record, oldest first, as an xlsx workbook
func (s *progressService) Export(ctx context.Context, learnerID string, query *ProgressQuery) (data []byte, err error) {
	op := s.logger.WithOperation(ctx, "export_progress", learnerID)
	defer func() { op.LogResult(0, "progress", err) }()

	filters, err := s.progressFilters(learnerID, query)
	if err != nil {
		return nil, err
	}
	filters.SortOrder = "asc"
	filters.Limit = exportPageSize

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to remove default sheet: %w", err)
	}

	headers := []string{"Recorded At", "Topic ID", "Question ID", "Correct", "Timed Out", "Time Spent (s)", "Score", "Answer"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(exportSheet, cell, header)
	}

	row := 2
	for filters.Offset = 0; ; filters.Offset += exportPageSize {
		records, total, err := s.repo.Progress().List(ctx, filters)
		if err != nil {
			return nil, fmt.Errorf("failed to list progress: %w", err)
		}
		for _, r := range records {
			values := []interface{}{
				r.CreatedAt.UTC().Format(time.RFC3339), r.TopicID, r.QuestionID,
				r.IsCorrect, r.TimedOut, r.TimeSpent, r.Score, r.Answer,
			}
			for i, v := range values {
				cell, _ := excelize.CoordinatesToCellName(i+1, row)
				f.SetCellValue(exportSheet, cell, v)
			}
			row++
		}
		if len(records) < exportPageSize || int64(filters.Offset+len(records)) >= total {
			break
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	op.LogAudit(AuditEventExport, 0, "progress", map[string]interface{}{"rows": row - 2})
	return buf.Bytes(), nil
}

func (s *progressService) Summary(ctx context.Context, learnerID string, query *SummaryQuery) (*PracticeSummaryResponse, error) {
	if learnerID == "" {
		return nil, ErrLearnerRequired
	}
	if err := s.validator.Validate(query); err != nil {
		return nil, err
	}

	to := s.now().UTC()
	if query.To != nil {
		to = query.To.UTC()
	}
	span := defaultDailyRange
	if query.Period == models.PeriodWeekly {
		span = defaultWeeklyRange
	}
	from := startOfDay(to.Add(-span))
	if query.From != nil {
		from = startOfDay(query.From.UTC())
	}
	if query.Period == models.PeriodWeekly {
		from = startOfWeek(from)
	}
	if !from.Before(to) {
		return nil, ErrInvalidDateRange
	}

	if query.Refresh {
		if _, err := s.RefreshSummaries(ctx, from); err != nil {
			return nil, err
		}
	}

	rows, err := s.repo.Summary().List(ctx, repositories.SummaryFilters{
		LearnerID: learnerID,
		TopicID:   query.TopicID,
		DateFrom:  &from,
		DateTo:    &to,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list summaries: %w", err)
	}

	resp := &PracticeSummaryResponse{
		LearnerID: learnerID,
		Period:    query.Period,
		TopicID:   query.TopicID,
		From:      from,
		To:        to,
		Buckets:   []SummaryBucket{},
	}

	byStart := make(map[time.Time]*SummaryBucket)
	for _, r := range rows {
		start := startOfDay(r.Day.UTC())
		if query.Period == models.PeriodWeekly {
			start = startOfWeek(start)
		}
		b, ok := byStart[start]
		if !ok {
			b = &SummaryBucket{Start: start}
			byStart[start] = b
		}
		addSummary(b, r)
		addSummary(&resp.Totals, r)
	}

	for _, b := range byStart {
		b.Accuracy = accuracy(b.Correct, b.Attempts)
		resp.Buckets = append(resp.Buckets, *b)
	}
	sort.Slice(resp.Buckets, func(i, j int) bool { return resp.Buckets[i].Start.Before(resp.Buckets[j].Start) })
	resp.Totals.Start = from
	resp.Totals.Accuracy = accuracy(resp.Totals.Correct, resp.Totals.Attempts)

	return resp, nil
}

// RefreshSummaries recomputes every daily bucket from the UTC day containing since onward.
// Recomputing the same window twice yields the same rows.
func (s *progressService) RefreshSummaries(ctx context.Context, since time.Time) (int, error) {
	dayStart := startOfDay(since.UTC())

	records, err := s.repo.Progress().ListSince(ctx, dayStart)
	if err != nil {
		return 0, fmt.Errorf("failed to load progress since %s: %w", dayStart.Format(time.RFC3339), err)
	}

	type bucketKey struct {
		learnerID string
		topicID   uint
		day       time.Time
	}
	now := s.now().UTC()
	buckets := make(map[bucketKey]*models.PracticeSummary)
	var order []bucketKey
	for _, r := range records {
		key := bucketKey{learnerID: r.LearnerID, topicID: r.TopicID, day: startOfDay(r.CreatedAt.UTC())}
		row, ok := buckets[key]
		if !ok {
			row = &models.PracticeSummary{LearnerID: key.learnerID, TopicID: key.topicID, Day: key.day, UpdatedAt: now}
			buckets[key] = row
			order = append(order, key)
		}
		row.Attempts++
		if r.IsCorrect {
			row.Correct++
		}
		if r.TimedOut {
			row.TimedOut++
		}
		row.TotalScore += r.Score
		row.TimeSpent += r.TimeSpent
	}

	rows := make([]*models.PracticeSummary, 0, len(order))
	for _, key := range order {
		rows = append(rows, buckets[key])
	}
	if err := s.repo.Summary().Upsert(ctx, rows); err != nil {
		return 0, fmt.Errorf("failed to store summaries: %w", err)
	}

	s.logger.Logger().InfoContext(ctx, "Practice summaries refreshed", "since", dayStart, "buckets", len(rows))
	s.publish(ctx, events.NewSummaryRefreshedEvent(events.SummaryRefreshedEvent{
		Buckets:     len(rows),
		Since:       dayStart,
		RefreshedAt: now,
	}))
	return len(rows), nil
}

func (s *progressService) progressFilters(learnerID string, query *ProgressQuery) (repositories.ProgressFilters, error) {
	if learnerID == "" {
		return repositories.ProgressFilters{}, ErrLearnerRequired
	}
	if query == nil {
		query = &ProgressQuery{}
	}
	if query.TopicID != nil && *query.TopicID == 0 {
		return repositories.ProgressFilters{}, ErrInvalidTopicID
	}
	if query.From != nil && query.To != nil && !query.From.Before(*query.To) {
		return repositories.ProgressFilters{}, ErrInvalidDateRange
	}
	return repositories.ProgressFilters{
		LearnerID: learnerID,
		TopicID:   query.TopicID,
		DateFrom:  query.From,
		DateTo:    query.To,
		Limit:     query.Limit,
		Offset:    query.Offset,
		SortOrder: "desc",
	}, nil
}

// publish sends event when a publisher is configured. Failures are logged only.
func (s *progressService) publish(ctx context.Context, event *events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Logger().WarnContext(ctx, "Failed to publish event", "event_type", event.Type, "event_id", event.ID, "error", err)
	}
}

func addSummary(b *SummaryBucket, r *models.PracticeSummary) {
	b.Attempts += r.Attempts
	b.Correct += r.Correct
	b.TimedOut += r.TimedOut
	b.TotalScore += r.TotalScore
	b.TimeSpent += r.TimeSpent
}

func accuracy(correct, attempts int) float64 {
	if attempts == 0 {
		return 0
	}
	return float64(correct) / float64(attempts)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// startOfWeek returns the Monday starting the week of day
func startOfWeek(day time.Time) time.Time {
	offset := (int(day.Weekday()) + 6) % 7
	return startOfDay(day).AddDate(0, 0, -offset)
}
