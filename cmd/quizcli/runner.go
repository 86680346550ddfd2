package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/edu-platform/quiz-service/internal/quiz"
)

const helpText = `commands:
  text <answer>      set the answer of a text question
  select <id>        add an option to a click question
  deselect <id>      remove an option from a click question
  drop <id>          place an item of a drag question (order matters)
  clear              empty the drag target zone
  draw               mark the canvas of a draw or paint question
  submit             lock in the answer
  next               continue after feedback
  pause | resume     stop or restart the countdown
  status             show the question, timer and score
  quit               leave the quiz`

// syncWriter serializes prompts from the input loop with timeout notices from the timer
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, format, args...)
}

// Runner drives a session from line-oriented commands
type Runner struct {
	session *quiz.Session
	out     *syncWriter
}

func NewRunner(out io.Writer) *Runner {
	return &Runner{out: &syncWriter{w: out}}
}

// OnTimeout reports a question that ran out of time. It is called from the session timer.
func (r *Runner) OnTimeout(fb quiz.Feedback) {
	r.out.Printf("\nTime's up! %s\n", describeFeedback(fb))
	r.out.Printf("Type 'next' to continue.\n")
}

// Run reads commands from in until the session completes, the learner quits or input ends.
// The session is closed on every exit path.
func (r *Runner) Run(ctx context.Context, session *quiz.Session, in io.Reader) error {
	r.session = session
	defer session.Close()

	r.present()
	session.Start()

	scanner := bufio.NewScanner(in)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.out.Printf("> ")
		if !scanner.Scan() {
			r.out.Printf("\n")
			return scanner.Err()
		}

		done, err := r.handle(ctx, scanner.Text())
		if isFatal(err) {
			return err
		}
		if err != nil {
			r.out.Printf("%s\n", err)
		}
		if done {
			return nil
		}
	}
}

func (r *Runner) handle(ctx context.Context, line string) (bool, error) {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	s := r.session
	switch strings.ToLower(cmd) {
	case "":
		return false, nil
	case "help", "?":
		r.out.Printf("%s\n", helpText)
		return false, nil
	case "text":
		return false, s.SetText(arg)
	case "select":
		return false, s.Select(arg)
	case "deselect":
		return false, s.Deselect(arg)
	case "drop":
		if err := s.Drop(arg); err != nil {
			return false, err
		}
		r.out.Printf("placed: %s\n", optionLabels(s.Current(), s.Pending().Dropped))
		return false, nil
	case "clear":
		return false, s.ClearDrop()
	case "draw":
		return false, s.Draw()
	case "submit":
		fb, err := s.Submit()
		if err != nil {
			return false, err
		}
		r.out.Printf("%s\n", describeFeedback(fb))
		return false, nil
	case "next":
		state, err := s.Advance(ctx)
		if err != nil {
			return false, err
		}
		if state == quiz.StateComplete {
			r.summary()
			return true, nil
		}
		r.present()
		return false, nil
	case "pause":
		s.Pause()
		r.out.Printf("paused with %ds left\n", s.Remaining())
		return false, nil
	case "resume":
		s.Resume()
		r.out.Printf("resumed\n")
		return false, nil
	case "status":
		r.status()
		return false, nil
	case "quit", "exit":
		r.out.Printf("Leaving the quiz. Score: %d\n", s.Score())
		return true, nil
	default:
		return false, fmt.Errorf("unknown command %q, type 'help'", cmd)
	}
}

func (r *Runner) present() {
	s := r.session
	q := s.Current()
	r.out.Printf("\nQuestion %d of %d [%s] (%ds)\n%s\n", s.Index()+1, s.Len(), q.Type, s.Remaining(), q.Content)
	for _, img := range q.Images {
		r.out.Printf("  image: %s\n", img)
	}
	for _, o := range q.Options {
		r.out.Printf("  [%s] %s\n", o.ID, o.Text)
	}
	if q.Degraded {
		r.out.Printf("  (some content of this question could not be loaded)\n")
	}
}

func (r *Runner) status() {
	s := r.session
	state := s.State()
	if state == quiz.StateComplete || state == quiz.StateClosed {
		r.out.Printf("state: %s, score: %d\n", state, s.Score())
		return
	}
	pending := s.Pending()
	r.out.Printf("question %d of %d, state: %s, time left: %ds, paused: %t, score: %d\n",
		s.Index()+1, s.Len(), state, s.Remaining(), s.Paused(), s.Score())
	switch {
	case pending.Text != "":
		r.out.Printf("answer: %s\n", pending.Text)
	case len(pending.Selected) > 0:
		r.out.Printf("selected: %s\n", optionLabels(s.Current(), pending.Selected))
	case len(pending.Dropped) > 0:
		r.out.Printf("placed: %s\n", optionLabels(s.Current(), pending.Dropped))
	case pending.Drawn:
		r.out.Printf("canvas used\n")
	}
}

func (r *Runner) summary() {
	outcomes := r.session.Outcomes()
	correct := 0
	for _, o := range outcomes {
		if o.Correct {
			correct++
		}
	}
	r.out.Printf("\nQuiz complete! %d of %d correct. Final score: %d\n", correct, len(outcomes), r.session.Score())
}

func optionLabels(q quiz.Question, ids []string) string {
	labels := make([]string, 0, len(ids))
	for _, id := range ids {
		if opt, ok := q.OptionByID(id); ok {
			labels = append(labels, opt.Text)
		}
	}
	return strings.Join(labels, ", ")
}

func describeFeedback(fb quiz.Feedback) string {
	var b strings.Builder
	switch {
	case fb.TimedOut:
		b.WriteString("No answer given.")
	case fb.Correct:
		b.WriteString("Correct!")
	default:
		b.WriteString("Incorrect.")
	}
	if fb.CorrectAnswer != "" {
		fmt.Fprintf(&b, " Answer: %s.", fb.CorrectAnswer)
	}
	if fb.Explanation != "" {
		fmt.Fprintf(&b, " %s", fb.Explanation)
	}
	fmt.Fprintf(&b, " (%+d, score %d)", fb.ScoreDelta, fb.Score)
	return b.String()
}

// isFatal reports errors that should stop the runner rather than be shown as a prompt message
func isFatal(err error) bool {
	return errors.Is(err, quiz.ErrSessionClosed)
}
