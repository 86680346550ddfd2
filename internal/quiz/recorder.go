package quiz

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// ProgressEntry is the outcome of one resolved question as handed to a Recorder
type ProgressEntry struct {
	LearnerID  string `json:"learner_id"`
	TopicID    uint   `json:"topic_id"`
	QuestionID uint   `json:"question_id"`
	IsCorrect  bool   `json:"is_correct"`
	TimeSpent  int    `json:"time_spent"`
	ScoreDelta int    `json:"score"`
	Answer     string `json:"answer"`
	TimedOut   bool   `json:"timed_out"`
}

// Recorder persists progress entries
type Recorder interface {
	Record(ctx context.Context, entry ProgressEntry) error
}

// RecorderFunc adapts a function to the Recorder interface
type RecorderFunc func(ctx context.Context, entry ProgressEntry) error

func (f RecorderFunc) Record(ctx context.Context, entry ProgressEntry) error {
	return f(ctx, entry)
}

// AsyncRecorder writes entries in enqueue order on a single background worker.
// Enqueue never blocks; failures are reported to the result callback only.
type AsyncRecorder struct {
	recorder Recorder
	timeout  time.Duration
	logger   *slog.Logger
	onResult func(ProgressEntry, error)

	mu          sync.Mutex
	pending     []ProgressEntry
	outstanding int
	idle        []chan struct{}
	closed      bool

	wake chan struct{}
	done chan struct{}
	exit chan struct{}
}

// NewAsyncRecorder starts the worker. onResult may be nil.
func NewAsyncRecorder(recorder Recorder, timeout time.Duration, logger *slog.Logger, onResult func(ProgressEntry, error)) *AsyncRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	a := &AsyncRecorder{
		recorder: recorder,
		timeout:  timeout,
		logger:   logger,
		onResult: onResult,
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
		exit:     make(chan struct{}),
	}
	go a.run()
	return a
}

// Enqueue schedules entry for writing. Entries enqueued after Close are dropped.
func (a *AsyncRecorder) Enqueue(entry ProgressEntry) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		a.logger.Warn("Dropping progress entry after close",
			"topic_id", entry.TopicID,
			"question_id", entry.QuestionID)
		return
	}
	a.pending = append(a.pending, entry)
	a.outstanding++
	a.mu.Unlock()

	select {
	case a.wake <- struct{}{}:
	default:
	}
}

// Flush waits until every enqueued entry has been attempted or ctx is done
func (a *AsyncRecorder) Flush(ctx context.Context) error {
	a.mu.Lock()
	if a.outstanding == 0 {
		a.mu.Unlock()
		return nil
	}
	ch := make(chan struct{})
	a.idle = append(a.idle, ch)
	a.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting entries. Entries already queued are still written.
func (a *AsyncRecorder) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	a.mu.Unlock()
	close(a.done)
}

// Done is closed once the worker has exited
func (a *AsyncRecorder) Done() <-chan struct{} {
	return a.exit
}

func (a *AsyncRecorder) run() {
	defer close(a.exit)
	for {
		select {
		case <-a.wake:
			a.drain()
		case <-a.done:
			a.drain()
			return
		}
	}
}

func (a *AsyncRecorder) drain() {
	for {
		a.mu.Lock()
		if len(a.pending) == 0 {
			a.mu.Unlock()
			return
		}
		entry := a.pending[0]
		a.pending = a.pending[1:]
		a.mu.Unlock()

		err := a.write(entry)
		if a.onResult != nil {
			a.onResult(entry, err)
		}

		a.mu.Lock()
		a.outstanding--
		var waiters []chan struct{}
		if a.outstanding == 0 {
			waiters, a.idle = a.idle, nil
		}
		a.mu.Unlock()

		for _, ch := range waiters {
			close(ch)
		}
	}
}

func (a *AsyncRecorder) write(entry ProgressEntry) error {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	if err := a.recorder.Record(ctx, entry); err != nil {
		a.logger.Error("Failed to record progress",
			"learner_id", entry.LearnerID,
			"topic_id", entry.TopicID,
			"question_id", entry.QuestionID,
			"error", err)
		return err
	}
	return nil
}
