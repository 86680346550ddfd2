package quiz

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// State is a position of the per-question session state machine
type State string

const (
	StatePresented State = "presented"
	StateAnswering State = "answering"
	StateSubmitted State = "submitted"
	StateFeedback  State = "feedback"
	StateComplete  State = "complete"
	StateClosed    State = "closed"
)

// Feedback is the resolution of one question
type Feedback struct {
	QuestionID       uint   `json:"question_id"`
	Correct          bool   `json:"correct"`
	TimedOut         bool   `json:"timed_out"`
	Answer           string `json:"answer"`
	CorrectAnswer    string `json:"correct_answer,omitempty"`
	Explanation      string `json:"explanation,omitempty"`
	ExplanationImage string `json:"explanation_image,omitempty"`
	TimeSpent        int    `json:"time_spent"`
	ScoreDelta       int    `json:"score_delta"`
	Score            int    `json:"score"`
}

type config struct {
	budget        int
	rules         ScoreRules
	tickInterval  time.Duration
	recorder      Recorder
	recordTimeout time.Duration
	onRecord      func(ProgressEntry, error)
	notifier      CompletionNotifier
	onTimeout     func(Feedback)
	logger        *slog.Logger
}

// SessionOption configures a Session
type SessionOption func(*config)

// WithTimerBudget sets the per-question countdown in seconds
func WithTimerBudget(seconds int) SessionOption {
	return func(c *config) {
		if seconds > 0 {
			c.budget = seconds
		}
	}
}

func WithScoreRules(r ScoreRules) SessionOption { return func(c *config) { c.rules = r } }

// WithTickInterval sets the pacing of the owned timer; zero disables it and ticks must be
// driven through Tick.
func WithTickInterval(d time.Duration) SessionOption { return func(c *config) { c.tickInterval = d } }

// WithManualClock disables the owned timer
func WithManualClock() SessionOption { return WithTickInterval(0) }

func WithRecorder(r Recorder) SessionOption { return func(c *config) { c.recorder = r } }

func WithRecordTimeout(d time.Duration) SessionOption { return func(c *config) { c.recordTimeout = d } }

// WithRecordResultHandler observes every progress write; it must not block for long
func WithRecordResultHandler(fn func(ProgressEntry, error)) SessionOption {
	return func(c *config) { c.onRecord = fn }
}

func WithNotifier(n CompletionNotifier) SessionOption { return func(c *config) { c.notifier = n } }

// WithTimeoutHandler is called after the timer force-submits a question
func WithTimeoutHandler(fn func(Feedback)) SessionOption { return func(c *config) { c.onTimeout = fn } }

func WithLogger(l *slog.Logger) SessionOption {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// Session drives one learner through one topic's ordered question list.
// It is safe for use by a UI goroutine concurrently with its own timer.
type Session struct {
	mu sync.Mutex

	learnerID string
	topicID   uint
	questions []Question

	index     int
	state     State
	score     int
	remaining int
	paused    bool
	closed    bool
	answer    Answer
	feedback  *Feedback
	outcomes  []Feedback

	budget    int
	rules     ScoreRules
	records   *AsyncRecorder
	notifier  CompletionNotifier
	onTimeout func(Feedback)
	timer     *countdownTimer
	logger    *slog.Logger
}

// NewSession presents the first question. The owned timer starts with Start.
func NewSession(learnerID string, topicID uint, questions []Question, opts ...SessionOption) (*Session, error) {
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	for _, q := range questions {
		if !q.Type.IsValid() {
			return nil, fmt.Errorf("question %d: %w", q.ID, ErrUnsupportedType)
		}
	}

	cfg := &config{
		budget:       DefaultTimerBudget,
		rules:        DefaultScoreRules(),
		tickInterval: time.Second,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	s := &Session{
		learnerID: learnerID,
		topicID:   topicID,
		questions: append([]Question(nil), questions...),
		state:     StatePresented,
		remaining: cfg.budget,
		budget:    cfg.budget,
		rules:     cfg.rules,
		notifier:  cfg.notifier,
		onTimeout: cfg.onTimeout,
		logger:    cfg.logger.With("learner_id", learnerID, "topic_id", topicID),
	}
	if cfg.recorder != nil {
		s.records = NewAsyncRecorder(cfg.recorder, cfg.recordTimeout, s.logger, cfg.onRecord)
	}
	if cfg.tickInterval > 0 {
		s.timer = newCountdownTimer(cfg.tickInterval, s.Tick)
	}

	s.logger.Info("Quiz session created", "questions", len(questions), "timer_budget", cfg.budget)
	return s, nil
}

// Start begins ticking the owned timer, if any
func (s *Session) Start() {
	if s.timer != nil {
		s.timer.Start()
	}
}

// ===== READ ACCESS =====

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

func (s *Session) Len() int { return len(s.questions) }

func (s *Session) Current() Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.questions[s.index]
}

func (s *Session) Score() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.score
}

// Remaining returns the seconds left on the current question's countdown
func (s *Session) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining
}

func (s *Session) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// IsSubmitted reports whether the current question's answer is locked in
func (s *Session) IsSubmitted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateSubmitted || s.state == StateFeedback || s.state == StateComplete
}

// Pending returns a copy of the answer accumulated so far
func (s *Session) Pending() Answer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answer.clone()
}

// LastFeedback returns the feedback of the most recently resolved question
func (s *Session) LastFeedback() (Feedback, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.feedback == nil {
		return Feedback{}, false
	}
	return *s.feedback, true
}

// Outcomes returns every resolved question in presentation order
func (s *Session) Outcomes() []Feedback {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Feedback(nil), s.outcomes...)
}

// ===== TIMER =====

// Pause suspends the countdown only; answering stays allowed
func (s *Session) Pause() {
	s.mu.Lock()
	s.paused = true
	s.mu.Unlock()
}

func (s *Session) Resume() {
	s.mu.Lock()
	s.paused = false
	s.mu.Unlock()
}

// Tick advances the countdown by one second. Reaching zero force-submits a blank answer.
func (s *Session) Tick() {
	s.mu.Lock()
	if s.closed || s.paused || (s.state != StatePresented && s.state != StateAnswering) {
		s.mu.Unlock()
		return
	}

	if s.remaining > 0 {
		s.remaining--
	}
	if s.remaining > 0 {
		s.mu.Unlock()
		return
	}

	fb := s.resolveLocked("", false, true)
	handler := s.onTimeout
	s.mu.Unlock()

	s.logger.Info("Question timed out", "question_id", fb.QuestionID, "score", fb.Score)
	if handler != nil {
		handler(fb)
	}
}

// ===== ANSWERING =====

// SetText replaces the free-text answer of a text question
func (s *Session) SetText(text string) error {
	return s.interact(func(q Question) error {
		if q.Type != TypeText {
			return ErrWrongQuestionType
		}
		s.answer.Text = text
		return nil
	})
}

// Select adds an option to a click question's selection
func (s *Session) Select(optionID string) error {
	return s.interact(func(q Question) error {
		if q.Type != TypeClick {
			return ErrWrongQuestionType
		}
		if _, ok := q.OptionByID(optionID); !ok {
			return ErrUnknownOption
		}
		for _, id := range s.answer.Selected {
			if id == optionID {
				return nil
			}
		}
		s.answer.Selected = append(s.answer.Selected, optionID)
		return nil
	})
}

// Deselect removes an option from a click question's selection
func (s *Session) Deselect(optionID string) error {
	return s.interact(func(q Question) error {
		if q.Type != TypeClick {
			return ErrWrongQuestionType
		}
		s.answer.Selected = without(s.answer.Selected, optionID)
		return nil
	})
}

// Drop moves an item into the target zone of a drag question. Dropping an item that is
// already placed moves it to the end.
func (s *Session) Drop(optionID string) error {
	return s.interact(func(q Question) error {
		if q.Type != TypeDrag {
			return ErrWrongQuestionType
		}
		if _, ok := q.OptionByID(optionID); !ok {
			return ErrUnknownOption
		}
		s.answer.Dropped = append(without(s.answer.Dropped, optionID), optionID)
		return nil
	})
}

// ClearDrop empties the target zone of a drag question
func (s *Session) ClearDrop() error {
	return s.interact(func(q Question) error {
		if q.Type != TypeDrag {
			return ErrWrongQuestionType
		}
		s.answer.Dropped = nil
		return nil
	})
}

// Draw marks the canvas of a draw or paint question as used
func (s *Session) Draw() error {
	return s.interact(func(q Question) error {
		if q.Type != TypeDraw && q.Type != TypePaint {
			return ErrWrongQuestionType
		}
		s.answer.Drawn = true
		return nil
	})
}

func (s *Session) interact(apply func(q Question) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.answerableLocked(); err != nil {
		return err
	}
	if err := apply(s.questions[s.index]); err != nil {
		return err
	}
	s.state = StateAnswering
	return nil
}

func (s *Session) answerableLocked() error {
	switch {
	case s.closed:
		return ErrSessionClosed
	case s.state == StateComplete:
		return ErrSessionComplete
	case s.state != StatePresented && s.state != StateAnswering:
		return ErrAlreadySubmitted
	}
	return nil
}

// Submit locks in the pending answer, scores it and moves to Feedback
func (s *Session) Submit() (Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.answerableLocked(); err != nil {
		return Feedback{}, err
	}

	q := s.questions[s.index]
	normalized, correct, err := Evaluate(q, s.answer)
	if err != nil {
		return Feedback{}, fmt.Errorf("question %d: %w", q.ID, err)
	}

	fb := s.resolveLocked(normalized, correct, false)
	s.logger.Debug("Answer submitted",
		"question_id", fb.QuestionID,
		"correct", fb.Correct,
		"score", fb.Score)
	return fb, nil
}

// resolveLocked runs Submitted → Feedback for the current question and enqueues its record
func (s *Session) resolveLocked(normalized string, correct, timedOut bool) Feedback {
	q := s.questions[s.index]
	s.state = StateSubmitted

	spent := ClampTimeSpent(s.budget-s.remaining, s.budget)
	var delta int
	s.score, delta = s.rules.Apply(s.score, correct, timedOut)

	fb := Feedback{
		QuestionID:       q.ID,
		Correct:          correct,
		TimedOut:         timedOut,
		Answer:           normalized,
		Explanation:      q.Explanation,
		ExplanationImage: q.ExplanationImage,
		TimeSpent:        spent,
		ScoreDelta:       delta,
		Score:            s.score,
	}
	if !correct {
		fb.CorrectAnswer = q.CorrectAnswer
	}
	s.feedback = &fb
	s.outcomes = append(s.outcomes, fb)

	if s.records != nil {
		s.records.Enqueue(ProgressEntry{
			LearnerID:  s.learnerID,
			TopicID:    s.topicID,
			QuestionID: q.ID,
			IsCorrect:  correct,
			TimeSpent:  spent,
			ScoreDelta: delta,
			Answer:     normalized,
			TimedOut:   timedOut,
		})
	}

	s.state = StateFeedback
	return fb
}

// ===== ADVANCE / TEARDOWN =====

// Advance acknowledges the feedback and presents the next question, or completes the
// session after the last one. Completion flushes pending progress writes (bounded by ctx)
// and raises the quizComplete notification once. Advancing a complete session is a no-op.
func (s *Session) Advance(ctx context.Context) (State, error) {
	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		return StateClosed, ErrSessionClosed
	case s.state == StateComplete:
		s.mu.Unlock()
		return StateComplete, nil
	case s.state != StateFeedback:
		state := s.state
		s.mu.Unlock()
		return state, ErrNotSubmitted
	}

	s.answer = Answer{}
	s.feedback = nil
	s.remaining = s.budget

	if s.index+1 < len(s.questions) {
		s.index++
		s.state = StatePresented
		s.mu.Unlock()
		return StatePresented, nil
	}

	s.state = StateComplete
	s.remaining = 0
	event := QuizCompleteEvent{
		LearnerID:      s.learnerID,
		TopicID:        s.topicID,
		TotalQuestions: len(s.questions),
		FinalScore:     s.score,
	}
	for _, o := range s.outcomes {
		if o.Correct {
			event.CorrectCount++
		}
	}
	s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
	}
	s.complete(ctx, event)
	return StateComplete, nil
}

func (s *Session) complete(ctx context.Context, event QuizCompleteEvent) {
	event.RecordsFlushed = true
	if s.records != nil {
		if err := s.records.Flush(ctx); err != nil {
			event.RecordsFlushed = false
			s.logger.Warn("Progress flush did not finish before completion", "error", err)
		}
		s.records.Close()
	}
	event.CompletedAt = time.Now()

	s.logger.Info("Quiz session complete",
		"final_score", event.FinalScore,
		"correct", event.CorrectCount,
		"total", event.TotalQuestions)

	if s.notifier != nil {
		if err := s.notifier.QuizComplete(ctx, event); err != nil {
			s.logger.Error("Failed to raise quiz complete notification", "error", err)
		}
	}
}

// Close discards the session. The unsubmitted question, if any, is dropped without a
// record; records of already-resolved questions are still written.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.state != StateComplete {
		s.state = StateClosed
	}
	s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
	}
	if s.records != nil {
		s.records.Close()
	}
}

func without(ids []string, id string) []string {
	out := ids[:0:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
