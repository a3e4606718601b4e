package interview

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ErrCancelled is returned by a Prompter when the user abandons the interview.
var ErrCancelled = errors.New("interview cancelled")

// Action is the user's choice in the question menu.
type Action int

const (
	// ActionAnswer answers the question at the chosen index.
	ActionAnswer Action = iota
	// ActionSubmit ends the interview and submits the answers.
	ActionSubmit
	// ActionCancel ends the interview without submitting.
	ActionCancel
)

// Outcome tells the caller how the interview ended.
type Outcome int

const (
	// Submitted means the user chose to submit.
	Submitted Outcome = iota
	// TimedOut means the time limit passed; the answers so far should be submitted.
	TimedOut
	// Cancelled means nothing should be submitted.
	Cancelled
)

func (o Outcome) String() string {
	switch o {
	case Submitted:
		return "submitted"
	case TimedOut:
		return "timed out"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Prompter asks the user for input. Implementations return ErrCancelled on interrupt.
type Prompter interface {
	// Choose shows the question menu and returns the action and, for ActionAnswer, the question index.
	Choose(ctx context.Context, s *Session, now time.Time) (Action, int, error)
	// Answer asks for the answer to the current question, pre-filled with current.
	Answer(ctx context.Context, s *Session, current string) (string, error)
	// Confirm asks a yes/no question.
	Confirm(ctx context.Context, message string) (bool, error)
}

// Clock returns the current time.
type Clock func() time.Time

// Run drives the interview until the user submits or cancels, or the time limit passes.
// Prompts block, so the limit is checked after each one; an answer given after the limit
// is discarded.
func Run(ctx context.Context, s *Session, p Prompter, now Clock) (Outcome, error) {
	if now == nil {
		now = time.Now
	}
	if left := s.Remaining(now()); left >= 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, left)
		defer cancel()
	}

	for {
		if outcome, done := stopped(ctx, s, now); done {
			return outcome, nil
		}

		action, index, err := p.Choose(ctx, s, now())
		if err != nil {
			return cancelled(ctx, err)
		}

		switch action {
		case ActionCancel:
			return Cancelled, nil

		case ActionSubmit:
			if outcome, done := stopped(ctx, s, now); done {
				return outcome, nil
			}
			if missing := len(s.Unanswered()); missing > 0 {
				ok, err := p.Confirm(ctx, "Some questions are unanswered. Submit anyway")
				if err != nil {
					return cancelled(ctx, err)
				}
				if !ok {
					continue
				}
			}
			return Submitted, nil

		case ActionAnswer:
			if err := s.Goto(index); err != nil {
				return Cancelled, err
			}
			current, _ := s.AnswerFor(index)
			text, err := p.Answer(ctx, s, current)
			if err != nil {
				return cancelled(ctx, err)
			}
			if s.Expired(now()) {
				slog.DebugContext(ctx, "answer arrived after the time limit, discarding", "question", index+1)
				return TimedOut, nil
			}
			s.Answer(text)
			advance(s)
		}
	}
}

// stopped reports whether the interview must end before the next prompt.
func stopped(ctx context.Context, s *Session, now Clock) (Outcome, bool) {
	if s.Expired(now()) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return TimedOut, true
	}
	if ctx.Err() != nil {
		return Cancelled, true
	}
	return 0, false
}

// cancelled maps a prompt failure onto an outcome.
func cancelled(ctx context.Context, err error) (Outcome, error) {
	if errors.Is(err, ErrCancelled) {
		return Cancelled, nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return TimedOut, nil
	}
	return Cancelled, err
}

// advance moves to the next unanswered question after the current one, if any.
func advance(s *Session) {
	for _, i := range s.Unanswered() {
		if i > s.Index() {
			_ = s.Goto(i)
			return
		}
	}
	if rest := s.Unanswered(); len(rest) > 0 {
		_ = s.Goto(rest[0])
	}
}
