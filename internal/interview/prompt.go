package interview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/manifoldco/promptui"
)

const (
	menuSubmit = "Submit answers"
	menuCancel = "Cancel interview"
	// previewLen truncates question text in the menu.
	previewLen = 70
)

// Terminal is a Prompter backed by promptui. Nil streams use the process's stdin and stdout.
type Terminal struct {
	Stdin  io.ReadCloser
	Stdout io.WriteCloser
}

// Compile-time check that Terminal implements Prompter.
var _ Prompter = (*Terminal)(nil)

func (t *Terminal) Choose(_ context.Context, s *Session, now time.Time) (Action, int, error) {
	items := make([]string, 0, s.Len()+2)
	for i := range s.Len() {
		mark := " "
		if _, ok := s.AnswerFor(i); ok {
			mark = "x"
		}
		items = append(items, fmt.Sprintf("[%s] %d. %s", mark, i+1, truncate(s.Question(i).Text, previewLen)))
	}
	items = append(items, menuSubmit, menuCancel)

	label := fmt.Sprintf("%d/%d answered", s.Answered(), s.Len())
	if left := s.Remaining(now); left >= 0 {
		label += fmt.Sprintf(", %s left", left.Round(time.Second))
	}

	menu := promptui.Select{
		Label:     label,
		Items:     items,
		CursorPos: s.Index(),
		Size:      min(len(items), 10),
		Stdin:     t.Stdin,
		Stdout:    t.Stdout,
	}

	index, _, err := menu.Run()
	if err != nil {
		return ActionCancel, 0, translate(err)
	}

	switch {
	case index == s.Len():
		return ActionSubmit, 0, nil
	case index == s.Len()+1:
		return ActionCancel, 0, nil
	default:
		return ActionAnswer, index, nil
	}
}

func (t *Terminal) Answer(_ context.Context, s *Session, current string) (string, error) {
	var out io.Writer = os.Stdout
	if t.Stdout != nil {
		out = t.Stdout
	}
	_, _ = fmt.Fprintf(out, "\nQuestion %d/%d\n%s\n\n", s.Index()+1, s.Len(), s.Current().Text)

	prompt := promptui.Prompt{
		Label:     "Answer",
		Default:   current,
		AllowEdit: true,
		Stdin:     t.Stdin,
		Stdout:    t.Stdout,
	}

	text, err := prompt.Run()
	if err != nil {
		return "", translate(err)
	}
	return text, nil
}

func (t *Terminal) Confirm(_ context.Context, message string) (bool, error) {
	prompt := promptui.Prompt{
		Label:     message,
		IsConfirm: true,
		Stdin:     t.Stdin,
		Stdout:    t.Stdout,
	}

	_, err := prompt.Run()
	if errors.Is(err, promptui.ErrAbort) {
		return false, nil
	}
	if err != nil {
		return false, translate(err)
	}
	return true, nil
}

func translate(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
		return ErrCancelled
	}
	return err
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
