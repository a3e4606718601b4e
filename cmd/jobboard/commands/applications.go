package commands

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/florianilch/jobboard-cli/internal/jobboard"
)

func applicationsCommand() *cli.Command {
	return &cli.Command{
		Name:    "applications",
		Aliases: []string{"apps"},
		Usage:   "review applications",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "list applications visible to you",
				Action: clientAction(func(ctx context.Context, cmd *cli.Command, c *jobboard.Client) error {
					apps, err := c.Applications(ctx)
					if err != nil {
						return err
					}
					return render(cmd, apps, func(w io.Writer) error {
						if len(apps) == 0 {
							_, err := fmt.Fprintln(w, "No applications")
							return err
						}
						rows := make([][]string, 0, len(apps))
						for _, a := range apps {
							rows = append(rows, []string{
								strconv.Itoa(a.ID),
								a.PostTitle,
								a.Applicant,
								string(a.Status),
								strconv.FormatFloat(a.Score, 'f', 2, 64),
							})
						}
						return table(w, []string{"ID", "POST", "APPLICANT", "STATUS", "SCORE"}, rows)
					})
				}),
			},
			decideCommand("accept", jobboard.ApplicationAccepted),
			decideCommand("reject", jobboard.ApplicationRejected),
		},
	}
}

func decideCommand(name string, status jobboard.ApplicationStatus) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     fmt.Sprintf("mark an application as %s", status),
		ArgsUsage: "APPLICATION_ID",
		Action: clientAction(func(ctx context.Context, cmd *cli.Command, c *jobboard.Client) error {
			id, err := idArg(cmd, "APPLICATION_ID")
			if err != nil {
				return err
			}
			app, err := c.UpdateApplication(ctx, id, status)
			if err != nil {
				return err
			}
			return render(cmd, app, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Application %d %s\n", app.ID, app.Status)
				return err
			})
		}),
	}
}
