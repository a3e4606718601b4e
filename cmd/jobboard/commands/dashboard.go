package commands

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/florianilch/jobboard-cli/internal/jobboard"
)

func dashboardCommand() *cli.Command {
	return &cli.Command{
		Name:  "dashboard",
		Usage: "show statistics for your role",
		Action: clientAction(func(ctx context.Context, cmd *cli.Command, c *jobboard.Client) error {
			stats, err := c.DashboardStats(ctx)
			if err != nil {
				return err
			}
			return render(cmd, stats, func(w io.Writer) error {
				return printStats(w, stats)
			})
		}),
	}
}

func printStats(w io.Writer, s *jobboard.Stats) error {
	n := strconv.Itoa
	switch {
	case s.Employee != nil:
		e := s.Employee
		return fields(w,
			"Applications", n(e.Applications),
			"Pending", n(e.Pending),
			"Accepted", n(e.Accepted),
			"Rejected", n(e.Rejected),
			"Completed interviews", n(e.Interviews),
			"Average score", strconv.FormatFloat(e.AverageScore, 'f', 2, 64),
		)
	case s.Employer != nil:
		e := s.Employer
		return fields(w,
			"Posts", n(e.Posts),
			"Applications", n(e.Applications),
			"Pending", n(e.Pending),
			"Accepted", n(e.Accepted),
			"Rejected", n(e.Rejected),
		)
	case s.Admin != nil:
		a := s.Admin
		return fields(w,
			"Users", n(a.Users),
			"Employees", n(a.Employees),
			"Employers", n(a.Employers),
			"Unverified", n(a.Unverified),
			"Posts", n(a.Posts),
			"Reports", n(a.Reports),
		)
	default:
		_, err := fmt.Fprintf(w, "No statistics for role %q\n", s.Role)
		return err
	}
}
