package commands

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/florianilch/jobboard-cli/internal/jobboard"
)

func postsCommand() *cli.Command {
	return &cli.Command{
		Name:  "posts",
		Usage: "browse and manage job posts",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "list all job posts",
				Action: clientAction(func(ctx context.Context, cmd *cli.Command, c *jobboard.Client) error {
					posts, err := c.ListPosts(ctx)
					if err != nil {
						return err
					}
					return renderPosts(cmd, posts)
				}),
			},
			{
				Name:  "mine",
				Usage: "list the posts you created",
				Action: clientAction(func(ctx context.Context, cmd *cli.Command, c *jobboard.Client) error {
					posts, err := c.MyPosts(ctx)
					if err != nil {
						return err
					}
					return renderPosts(cmd, posts)
				}),
			},
			{
				Name:      "show",
				Usage:     "show a single post",
				ArgsUsage: "POST_ID",
				Action: clientAction(func(ctx context.Context, cmd *cli.Command, c *jobboard.Client) error {
					id, err := idArg(cmd, "POST_ID")
					if err != nil {
						return err
					}
					post, err := c.GetPost(ctx, id)
					if err != nil {
						return err
					}
					return render(cmd, post, func(w io.Writer) error {
						return printPost(w, post)
					})
				}),
			},
			{
				Name:  "create",
				Usage: "publish a new post",
				Flags: postFlags(true),
				Action: clientAction(func(ctx context.Context, cmd *cli.Command, c *jobboard.Client) error {
					var in jobboard.PostInput
					applyPostFlags(cmd, &in)
					post, err := c.CreatePost(ctx, in)
					if err != nil {
						return err
					}
					return render(cmd, post, func(w io.Writer) error {
						_, err := fmt.Fprintf(w, "Created post %d\n", post.ID)
						return err
					})
				}),
			},
			{
				Name:      "update",
				Usage:     "edit a post, omitted fields stay unchanged",
				ArgsUsage: "POST_ID",
				Flags:     postFlags(false),
				Action: clientAction(func(ctx context.Context, cmd *cli.Command, c *jobboard.Client) error {
					id, err := idArg(cmd, "POST_ID")
					if err != nil {
						return err
					}
					current, err := c.GetPost(ctx, id)
					if err != nil {
						return err
					}

					in := jobboard.PostInput{
						Title:          current.Title,
						Description:    current.Description,
						Requirements:   current.Requirements,
						Location:       current.Location,
						EmploymentType: current.EmploymentType,
						Salary:         current.Salary,
						Company:        current.Company,
					}
					applyPostFlags(cmd, &in)

					post, err := c.UpdatePost(ctx, id, in)
					if err != nil {
						return err
					}
					return render(cmd, post, func(w io.Writer) error {
						return printPost(w, post)
					})
				}),
			},
			{
				Name:      "delete",
				Usage:     "delete a post",
				ArgsUsage: "POST_ID",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "skip confirmation"},
				},
				Action: clientAction(func(ctx context.Context, cmd *cli.Command, c *jobboard.Client) error {
					id, err := idArg(cmd, "POST_ID")
					if err != nil {
						return err
					}
					if !cmd.Bool("yes") {
						ok, err := confirm(fmt.Sprintf("Delete post %d", id))
						if err != nil || !ok {
							return err
						}
					}
					if err := c.DeletePost(ctx, id); err != nil {
						return err
					}
					_, err = fmt.Fprintf(stdout(cmd), "Post %d deleted\n", id)
					return err
				}),
			},
			{
				Name:      "report",
				Usage:     "flag a post for review",
				ArgsUsage: "POST_ID",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "reason", Usage: "why the post is inappropriate", Required: true},
				},
				Action: clientAction(func(ctx context.Context, cmd *cli.Command, c *jobboard.Client) error {
					id, err := idArg(cmd, "POST_ID")
					if err != nil {
						return err
					}
					report, err := c.ReportPost(ctx, id, cmd.String("reason"))
					if err != nil {
						return err
					}
					return render(cmd, report, func(w io.Writer) error {
						_, err := fmt.Fprintf(w, "Reported post %d\n", id)
						return err
					})
				}),
			},
		},
	}
}

func postFlags(create bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "title", Usage: "job title", Required: create},
		&cli.StringFlag{Name: "description", Usage: "job description", Required: create},
		&cli.StringFlag{Name: "requirements", Usage: "candidate requirements"},
		&cli.StringFlag{Name: "location", Usage: "work location"},
		&cli.StringFlag{Name: "employment-type", Usage: "full-time|part-time|contract|internship"},
		&cli.StringFlag{Name: "salary", Usage: "salary range"},
		&cli.StringFlag{Name: "company", Usage: "company name"},
	}
}

// applyPostFlags copies the flags that were set onto in.
func applyPostFlags(cmd *cli.Command, in *jobboard.PostInput) {
	set := func(name string, dst *string) {
		if cmd.IsSet(name) {
			*dst = cmd.String(name)
		}
	}
	set("title", &in.Title)
	set("description", &in.Description)
	set("requirements", &in.Requirements)
	set("location", &in.Location)
	set("employment-type", &in.EmploymentType)
	set("salary", &in.Salary)
	set("company", &in.Company)
}

func renderPosts(cmd *cli.Command, posts []jobboard.Post) error {
	return render(cmd, posts, func(w io.Writer) error {
		if len(posts) == 0 {
			_, err := fmt.Fprintln(w, "No posts")
			return err
		}
		rows := make([][]string, 0, len(posts))
		for _, p := range posts {
			rows = append(rows, []string{strconv.Itoa(p.ID), p.Title, p.Company, p.Location, p.EmploymentType})
		}
		return table(w, []string{"ID", "TITLE", "COMPANY", "LOCATION", "TYPE"}, rows)
	})
}

func printPost(w io.Writer, p *jobboard.Post) error {
	created := ""
	if !p.CreatedAt.IsZero() {
		created = p.CreatedAt.Format(time.DateOnly)
	}
	if err := fields(w,
		"ID", strconv.Itoa(p.ID),
		"Title", p.Title,
		"Company", p.Company,
		"Location", p.Location,
		"Type", p.EmploymentType,
		"Salary", p.Salary,
		"Created", created,
	); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%s\n", p.Description)
	if err == nil && p.Requirements != "" {
		_, err = fmt.Fprintf(w, "\nRequirements:\n%s\n", p.Requirements)
	}
	return err
}
