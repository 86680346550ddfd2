package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/edu-platform/quiz-service/internal/cache"
	"github.com/edu-platform/quiz-service/internal/models"
	"github.com/edu-platform/quiz-service/internal/quiz"
	"github.com/edu-platform/quiz-service/internal/repositories"
	"github.com/edu-platform/quiz-service/internal/repositories/postgres"
	"github.com/edu-platform/quiz-service/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRepository(t *testing.T) repositories.Repository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	return postgres.NewRepository(db)
}

// MockQuestionRepository is a mock implementation of QuestionRepository
type MockQuestionRepository struct {
	mock.Mock
}

func (m *MockQuestionRepository) Create(ctx context.Context, question *models.Question) error {
	args := m.Called(ctx, question)
	return args.Error(0)
}

func (m *MockQuestionRepository) CreateBatch(ctx context.Context, questions []*models.Question) error {
	args := m.Called(ctx, questions)
	return args.Error(0)
}

func (m *MockQuestionRepository) GetByID(ctx context.Context, id uint) (*models.Question, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Question), args.Error(1)
}

func (m *MockQuestionRepository) GetByTopic(ctx context.Context, topicID uint) ([]*models.Question, error) {
	args := m.Called(ctx, topicID)
	return args.Get(0).([]*models.Question), args.Error(1)
}

func (m *MockQuestionRepository) GetBySection(ctx context.Context, sectionID uint) ([]*models.Question, error) {
	args := m.Called(ctx, sectionID)
	return args.Get(0).([]*models.Question), args.Error(1)
}

// mockedQuestions swaps the question repository of an otherwise real Repository
type mockedQuestions struct {
	repositories.Repository
	questions *MockQuestionRepository
}

func (m mockedQuestions) Question() repositories.QuestionRepository { return m.questions }

func seedTopic(t *testing.T, repo repositories.Repository) (*models.Topic, *models.Section) {
	t.Helper()
	ctx := context.Background()

	topic := &models.Topic{Name: "Arithmetic"}
	require.NoError(t, repo.Topic().Create(ctx, topic))
	section := &models.Section{TopicID: topic.ID, Name: "Sums"}
	require.NoError(t, repo.Topic().CreateSection(ctx, section))

	require.NoError(t, repo.Question().CreateBatch(ctx, []*models.Question{
		{TopicID: topic.ID, Type: quiz.TypeText, Content: "2+2", CorrectAnswer: "4", OrderIndex: 2},
		{TopicID: topic.ID, SectionID: &section.ID, Type: quiz.TypeClick, Content: "evens", CorrectAnswer: "2,4", OrderIndex: 1,
			Options: datatypes.JSON(`"[{\"id\":1,\"text\":\"2\"},{\"id\":2,\"text\":\"3\"},{\"id\":3,\"text\":\"4\"}]"`)},
		{TopicID: topic.ID, Type: quiz.TypePaint, Content: "colour it", OrderIndex: 3,
			Images: datatypes.JSON(`"shape.png"`), Options: datatypes.JSON(`"[{broken"`)},
	}))
	return topic, section
}

func TestQuestionBankService_QuestionsByTopic(t *testing.T) {
	repo := newTestRepository(t)
	topic, section := seedTopic(t, repo)
	svc := NewQuestionBankService(repo, nil, 0, validator.New(), newTestLogger())
	ctx := context.Background()

	questions, err := svc.QuestionsByTopic(ctx, topic.ID)
	require.NoError(t, err)
	require.Len(t, questions, 3)

	assert.Equal(t, quiz.TypeClick, questions[0].Type)
	assert.Equal(t, &section.ID, questions[0].SectionID)
	assert.Equal(t, []quiz.Option{{ID: "1", Text: "2"}, {ID: "2", Text: "3"}, {ID: "3", Text: "4"}}, questions[0].Options)
	assert.False(t, questions[0].Degraded)

	assert.Equal(t, "2+2", questions[1].Content)
	assert.Equal(t, []quiz.Option{}, questions[1].Options)
	assert.Equal(t, []string{}, questions[1].Images)

	assert.Equal(t, []string{"shape.png"}, questions[2].Images)
	assert.Equal(t, []quiz.Option{}, questions[2].Options)
	assert.True(t, questions[2].Degraded)

	bySection, err := svc.QuestionsBySection(ctx, section.ID)
	require.NoError(t, err)
	require.Len(t, bySection, 1)
	assert.Equal(t, "evens", bySection[0].Content)
}

func TestQuestionBankService_MissingAndEmpty(t *testing.T) {
	repo := newTestRepository(t)
	svc := NewQuestionBankService(repo, nil, 0, validator.New(), newTestLogger())
	ctx := context.Background()

	_, err := svc.QuestionsByTopic(ctx, 0)
	assert.ErrorIs(t, err, ErrInvalidTopicID)
	assert.True(t, IsValidation(err))

	_, err = svc.QuestionsByTopic(ctx, 99)
	assert.ErrorIs(t, err, ErrTopicNotFound)
	assert.True(t, IsNotFound(err))

	_, err = svc.QuestionsBySection(ctx, 99)
	assert.ErrorIs(t, err, ErrSectionNotFound)

	empty := &models.Topic{Name: "Empty"}
	require.NoError(t, repo.Topic().Create(ctx, empty))
	questions, err := svc.QuestionsByTopic(ctx, empty.ID)
	require.NoError(t, err)
	assert.NotNil(t, questions)
	assert.Empty(t, questions)
}

func TestQuestionBankService_ServesFromCache(t *testing.T) {
	questions := new(MockQuestionRepository)
	questions.On("GetByTopic", mock.Anything, uint(7)).Return([]*models.Question{
		{ID: 70, TopicID: 7, Type: quiz.TypeText, Content: "cached", CorrectAnswer: "yes"},
		{ID: 71, TopicID: 7, Type: quiz.TypePaint, Content: "fill", Options: datatypes.JSON(`"[{broken"`)},
	}, nil).Once()

	repo := mockedQuestions{Repository: newTestRepository(t), questions: questions}
	svc := NewQuestionBankService(repo, cache.NewMemoryCache(), time.Minute, validator.New(), newTestLogger())
	ctx := context.Background()

	first, err := svc.QuestionsByTopic(ctx, 7)
	require.NoError(t, err)
	second, err := svc.QuestionsByTopic(ctx, 7)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, uint(70), second[0].ID)
	assert.True(t, second[1].Degraded)
	questions.AssertExpectations(t)
}

func TestQuestionBankService_Import(t *testing.T) {
	repo := newTestRepository(t)
	memory := cache.NewMemoryCache()
	svc := NewQuestionBankService(repo, memory, time.Minute, validator.New(), newTestLogger())
	ctx := context.Background()

	result, err := svc.Import(ctx, &ImportRequest{
		Topic: ImportTopic{Name: "Fractions"},
		Loose: []ImportQuestion{
			{Type: quiz.TypeText, Content: "1/2 + 1/2", CorrectAnswer: "1"},
		},
		Sections: []ImportSection{{
			Name: "Ordering",
			Questions: []ImportQuestion{{
				Type:          quiz.TypeDrag,
				Content:       "smallest first",
				Options:       []quiz.Option{{ID: "a", Text: "1/4"}, {ID: "b", Text: "1/2"}},
				CorrectAnswer: "1/4,1/2",
			}},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Questions)
	require.Len(t, result.Sections, 1)

	questions, err := svc.QuestionsByTopic(ctx, result.TopicID)
	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.Equal(t, quiz.TypeText, questions[0].Type)
	assert.Equal(t, []quiz.Option{{ID: "a", Text: "1/4"}, {ID: "b", Text: "1/2"}}, questions[1].Options)

	topics, err := svc.ListTopics(ctx)
	require.NoError(t, err)
	require.Len(t, topics, 1)
	assert.Equal(t, "Fractions", topics[0].Name)
}

func TestQuestionBankService_ImportRejectsInvalidQuestions(t *testing.T) {
	repo := newTestRepository(t)
	svc := NewQuestionBankService(repo, nil, 0, validator.New(), newTestLogger())
	ctx := context.Background()

	_, err := svc.Import(ctx, &ImportRequest{Topic: ImportTopic{}})
	assert.True(t, IsValidation(err))

	_, err = svc.Import(ctx, &ImportRequest{
		Topic: ImportTopic{Name: "Broken"},
		Loose: []ImportQuestion{{Type: quiz.TypeClick, Content: "pick", CorrectAnswer: "x"}},
	})
	assert.True(t, IsValidation(err))
	assert.Contains(t, err.Error(), "click question requires at least 2 options")

	_, err = svc.Import(ctx, &ImportRequest{
		Topic: ImportTopic{Name: "Broken"},
		Loose: []ImportQuestion{{Type: quiz.TypeText, Content: "2+2", CorrectAnswer: "4"}},
		Sections: []ImportSection{{
			Name:      "Picking",
			Questions: []ImportQuestion{{Type: quiz.TypeClick, Content: "pick", CorrectAnswer: "x"}},
		}},
	})
	assert.True(t, IsValidation(err))

	topics, err := svc.ListTopics(ctx)
	require.NoError(t, err)
	assert.Empty(t, topics)
}
