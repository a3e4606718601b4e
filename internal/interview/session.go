// Package interview runs a timed interview locally: question navigation, answers and the
// time limit. Questions come from and answers go to the jobboard API.
package interview

import (
	"fmt"
	"strings"
	"time"

	"github.com/florianilch/jobboard-cli/internal/jobboard"
)

// Session is the local state of one interview attempt. It is not safe for concurrent use.
type Session struct {
	interviewID int
	questions   []jobboard.Question
	// answers is keyed by question position; IDs may be absent.
	answers  map[int]string
	current  int
	deadline time.Time
}

// NewSession starts an attempt at started. A zero time limit means no deadline.
func NewSession(iv *jobboard.Interview, started time.Time) (*Session, error) {
	if iv == nil || len(iv.Questions) == 0 {
		return nil, fmt.Errorf("interview has no questions")
	}
	if iv.Submitted {
		return nil, fmt.Errorf("interview %d was already submitted", iv.ID)
	}
	seen := make(map[int]bool, len(iv.Questions))
	for _, q := range iv.Questions {
		if q.ID == 0 {
			continue
		}
		if seen[q.ID] {
			return nil, fmt.Errorf("interview %d repeats question id %d", iv.ID, q.ID)
		}
		seen[q.ID] = true
	}

	s := &Session{
		interviewID: iv.ID,
		questions:   iv.Questions,
		answers:     make(map[int]string, len(iv.Questions)),
	}
	if d := iv.Duration(); d > 0 {
		s.deadline = started.Add(d)
	}
	return s, nil
}

// Len returns the number of questions.
func (s *Session) Len() int { return len(s.questions) }

// Index returns the position of the current question.
func (s *Session) Index() int { return s.current }

// Current returns the current question.
func (s *Session) Current() jobboard.Question { return s.questions[s.current] }

// Question returns the question at i.
func (s *Session) Question(i int) jobboard.Question { return s.questions[i] }

// Next moves to the following question. It reports false on the last question.
func (s *Session) Next() bool {
	if s.current >= len(s.questions)-1 {
		return false
	}
	s.current++
	return true
}

// Prev moves to the preceding question. It reports false on the first question.
func (s *Session) Prev() bool {
	if s.current == 0 {
		return false
	}
	s.current--
	return true
}

// Goto jumps to question i.
func (s *Session) Goto(i int) error {
	if i < 0 || i >= len(s.questions) {
		return fmt.Errorf("question %d out of range 1-%d", i+1, len(s.questions))
	}
	s.current = i
	return nil
}

// Answer records text for the current question. Blank text clears the answer.
func (s *Session) Answer(text string) {
	if strings.TrimSpace(text) == "" {
		delete(s.answers, s.current)
		return
	}
	s.answers[s.current] = text
}

// AnswerFor returns the recorded answer to question i.
func (s *Session) AnswerFor(i int) (string, bool) {
	text, ok := s.answers[i]
	return text, ok
}

// Answered returns the number of answered questions.
func (s *Session) Answered() int { return len(s.answers) }

// Unanswered returns the positions of questions without an answer, in order.
func (s *Session) Unanswered() []int {
	var out []int
	for i := range s.questions {
		if _, ok := s.answers[i]; !ok {
			out = append(out, i)
		}
	}
	return out
}

// Deadline returns the time limit and whether one is set.
func (s *Session) Deadline() (time.Time, bool) {
	return s.deadline, !s.deadline.IsZero()
}

// Remaining returns the time left at now, never negative. Without a deadline it returns -1.
func (s *Session) Remaining(now time.Time) time.Duration {
	if s.deadline.IsZero() {
		return -1
	}
	return max(s.deadline.Sub(now), 0)
}

// Expired reports whether the time limit has passed at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.deadline.IsZero() && !now.Before(s.deadline)
}

// Responses returns the recorded answers in question order.
func (s *Session) Responses() []jobboard.Response {
	out := make([]jobboard.Response, 0, len(s.answers))
	for i, q := range s.questions {
		if text, ok := s.answers[i]; ok {
			out = append(out, jobboard.Response{QuestionID: q.ID, Answer: text})
		}
	}
	return out
}

// Submission packages the responses for the submit endpoint.
func (s *Session) Submission() jobboard.Submission {
	return jobboard.Submission{InterviewID: s.interviewID, Responses: s.Responses()}
}
