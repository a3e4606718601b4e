package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/florianilch/jobboard-cli/internal/interview"
	"github.com/florianilch/jobboard-cli/internal/jobboard"
)

func interviewCommand() *cli.Command {
	return &cli.Command{
		Name:  "interview",
		Usage: "take the timed interview for a post",
		Commands: []*cli.Command{
			{
				Name:      "start",
				Usage:     "generate the interview and answer it interactively",
				ArgsUsage: "POST_ID",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "resume", Usage: "continue the stored interview instead of generating one"},
				},
				Action: clientAction(func(ctx context.Context, cmd *cli.Command, c *jobboard.Client) error {
					postID, err := idArg(cmd, "POST_ID")
					if err != nil {
						return err
					}

					var iv *jobboard.Interview
					if cmd.Bool("resume") {
						iv, err = c.Interview(ctx, postID)
					} else {
						iv, err = c.SaveInterview(ctx, postID)
					}
					if err != nil {
						return err
					}
					return takeInterview(ctx, cmd, c, iv)
				}),
			},
			{
				Name:      "show",
				Usage:     "print the stored interview questions",
				ArgsUsage: "POST_ID",
				Action: clientAction(func(ctx context.Context, cmd *cli.Command, c *jobboard.Client) error {
					postID, err := idArg(cmd, "POST_ID")
					if err != nil {
						return err
					}
					iv, err := c.Interview(ctx, postID)
					if err != nil {
						return err
					}
					return render(cmd, iv, func(w io.Writer) error {
						limit := durationOrNone(iv.Duration())
						if _, err := fmt.Fprintf(w, "Interview %d (time limit %s, submitted %s)\n", iv.ID, limit, yesNo(iv.Submitted)); err != nil {
							return err
						}
						for i, q := range iv.Questions {
							if _, err := fmt.Fprintf(w, "%d. %s\n", i+1, q.Text); err != nil {
								return err
							}
						}
						return nil
					})
				}),
			},
			{
				Name:      "submit",
				Usage:     "submit answers from a JSON file holding one string per question",
				ArgsUsage: "POST_ID",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "answers", Usage: "path to the answers file, - for stdin", Required: true},
				},
				Action: clientAction(func(ctx context.Context, cmd *cli.Command, c *jobboard.Client) error {
					postID, err := idArg(cmd, "POST_ID")
					if err != nil {
						return err
					}
					answers, err := readAnswers(cmd.String("answers"))
					if err != nil {
						return err
					}
					iv, err := c.Interview(ctx, postID)
					if err != nil {
						return err
					}
					s, err := interview.NewSession(iv, time.Now())
					if err != nil {
						return err
					}
					if len(answers) > s.Len() {
						return fmt.Errorf("%d answers given for %d questions", len(answers), s.Len())
					}
					for i, text := range answers {
						if err := s.Goto(i); err != nil {
							return err
						}
						s.Answer(text)
					}
					return submit(ctx, cmd, c, s, interview.Submitted)
				}),
			},
			{
				Name:      "evaluate",
				Usage:     "score a submitted interview",
				ArgsUsage: "INTERVIEW_ID",
				Action: clientAction(func(ctx context.Context, cmd *cli.Command, c *jobboard.Client) error {
					id, err := idArg(cmd, "INTERVIEW_ID")
					if err != nil {
						return err
					}
					eval, err := c.EvaluateResponses(ctx, id)
					if err != nil {
						return err
					}
					return render(cmd, eval, func(w io.Writer) error {
						if _, err := fmt.Fprintf(w, "Score: %.1f\n", eval.Score); err != nil {
							return err
						}
						if eval.Feedback != "" {
							_, err := fmt.Fprintln(w, eval.Feedback)
							return err
						}
						return nil
					})
				}),
			},
		},
	}
}

func takeInterview(ctx context.Context, cmd *cli.Command, c *jobboard.Client, iv *jobboard.Interview) error {
	s, err := interview.NewSession(iv, time.Now())
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout(cmd), "%d questions, time limit %s\n", s.Len(), durationOrNone(iv.Duration()))
	outcome, err := interview.Run(ctx, s, &interview.Terminal{}, time.Now)
	if err != nil {
		return err
	}
	slog.DebugContext(ctx, "interview ended", "interview_id", iv.ID, "outcome", outcome.String(), "answered", s.Answered())

	if outcome == interview.Cancelled {
		_, err := fmt.Fprintln(stdout(cmd), "Interview cancelled, nothing was submitted")
		return err
	}
	return submit(ctx, cmd, c, s, outcome)
}

func submit(ctx context.Context, cmd *cli.Command, c *jobboard.Client, s *interview.Session, outcome interview.Outcome) error {
	sub := s.Submission()
	if err := c.SubmitInterview(ctx, sub); err != nil {
		return err
	}
	return render(cmd, sub, func(w io.Writer) error {
		if outcome == interview.TimedOut {
			fmt.Fprintln(w, "Time is up.")
		}
		_, err := fmt.Fprintf(w, "Submitted %d of %d answers. Run `jobboard interview evaluate %d` for your score.\n",
			s.Answered(), s.Len(), sub.InterviewID)
		return err
	})
}

func readAnswers(path string) ([]string, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening answers: %w", err)
		}
		defer f.Close()
		r = f
	}

	var answers []string
	if err := json.NewDecoder(r).Decode(&answers); err != nil {
		return nil, fmt.Errorf("decoding answers: %w", err)
	}
	return answers, nil
}
