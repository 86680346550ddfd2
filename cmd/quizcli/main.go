package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edu-platform/quiz-service/internal/client"
	"github.com/edu-platform/quiz-service/internal/config"
	"github.com/edu-platform/quiz-service/internal/events"
	"github.com/edu-platform/quiz-service/internal/quiz"
	"github.com/edu-platform/quiz-service/internal/utils"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	apiURL := flag.String("api", cfg.Quiz.APIURL, "quiz API base URL including /api/v1")
	token := flag.String("token", cfg.Quiz.Token, "bearer token of the learner")
	learner := flag.String("learner", cfg.Quiz.LearnerID, "learner id shown in logs and the completion event")
	topicID := flag.Uint("topic", 0, "topic to practise")
	sectionID := flag.Uint("section", 0, "practise a single section instead of the whole topic")
	timer := flag.Int("timer", cfg.Quiz.TimerBudget, "seconds per question")
	verbose := flag.Bool("v", false, "log to stderr")
	flag.Parse()

	if *topicID == 0 && *sectionID == 0 {
		fmt.Fprintln(os.Stderr, "one of -topic or -section is required")
		flag.Usage()
		os.Exit(2)
	}

	// logs stay off the terminal unless asked; they would interleave with the prompt
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	if *verbose {
		logger = utils.NewSlog(cfg.Environment, os.Stderr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api := client.New(*apiURL, *token, cfg.Quiz.RequestTimeout, logger)
	err = run(ctx, api, runOptions{
		learnerID: *learner,
		topicID:   uint(*topicID),
		sectionID: uint(*sectionID),
		timer:     *timer,
		logger:    logger,
		in:        os.Stdin,
		out:       os.Stdout,
	})
	switch {
	case errors.Is(err, client.ErrUnauthorized):
		fmt.Fprintln(os.Stderr, "not authorized: log in again and pass a fresh -token")
		os.Exit(1)
	case errors.Is(err, quiz.ErrNoQuestions):
		fmt.Fprintln(os.Stderr, "this topic has no questions yet")
		os.Exit(1)
	case err != nil && !errors.Is(err, context.Canceled):
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

const completionWait = 2 * time.Second

// questionSource is the read side of the quiz API
type questionSource interface {
	QuestionsByTopic(ctx context.Context, topicID uint) ([]quiz.Question, error)
	QuestionsBySection(ctx context.Context, sectionID uint) ([]quiz.Question, error)
	quiz.Recorder
}

type runOptions struct {
	learnerID string
	topicID   uint
	sectionID uint
	timer     int
	logger    *slog.Logger
	in        io.Reader
	out       io.Writer
}

func run(ctx context.Context, api questionSource, opts runOptions) error {
	var (
		questions []quiz.Question
		err       error
	)
	if opts.sectionID != 0 {
		questions, err = api.QuestionsBySection(ctx, opts.sectionID)
	} else {
		questions, err = api.QuestionsByTopic(ctx, opts.topicID)
	}
	if err != nil {
		return err
	}

	topicID := opts.topicID
	if topicID == 0 && len(questions) > 0 {
		topicID = questions[0].TopicID
	}

	bus := events.NewQuizBus(opts.logger, nil)
	defer bus.Close()
	completions, err := bus.Subscribe(ctx)
	if err != nil {
		return err
	}
	// a session completes at most once
	logged := make(chan struct{})
	go func() {
		defer close(logged)
		event, ok := <-completions
		if !ok {
			return
		}
		if !event.RecordsFlushed {
			opts.logger.Warn("Some answers may not have been saved", "learner_id", event.LearnerID)
		}
		opts.logger.Info("Quiz complete",
			"topic_id", event.TopicID,
			"final_score", event.FinalScore,
			"correct", event.CorrectCount,
			"total", event.TotalQuestions)
	}()

	runner := NewRunner(opts.out)
	session, err := quiz.NewSession(opts.learnerID, topicID, questions,
		quiz.WithTimerBudget(opts.timer),
		quiz.WithRecorder(api),
		quiz.WithNotifier(bus),
		quiz.WithTimeoutHandler(runner.OnTimeout),
		quiz.WithRecordResultHandler(func(entry quiz.ProgressEntry, err error) {
			if errors.Is(err, client.ErrUnauthorized) {
				runner.out.Printf("\nProgress for question %d was not saved: session expired\n", entry.QuestionID)
			}
		}),
		quiz.WithLogger(opts.logger),
	)
	if err != nil {
		return err
	}

	err = runner.Run(ctx, session, opts.in)
	if session.State() == quiz.StateComplete {
		// the bus must stay open until the completion is logged
		select {
		case <-logged:
		case <-time.After(completionWait):
			opts.logger.Warn("Quiz completion was not delivered")
		}
	}
	return err
}
