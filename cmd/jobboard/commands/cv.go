package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/urfave/cli/v3"

	"github.com/florianilch/jobboard-cli/internal/jobboard"
)

func cvCommand() *cli.Command {
	return &cli.Command{
		Name:  "cv",
		Usage: "apply with a CV and check how well it matches",
		Commands: []*cli.Command{
			{
				Name:      "upload",
				Usage:     "upload a CV to apply for a post",
				ArgsUsage: "POST_ID FILE",
				Action: clientAction(func(ctx context.Context, cmd *cli.Command, c *jobboard.Client) error {
					postID, err := idArg(cmd, "POST_ID")
					if err != nil {
						return err
					}
					path := cmd.Args().Get(1)
					if path == "" {
						return fmt.Errorf("missing FILE argument")
					}
					data, err := os.ReadFile(path)
					if err != nil {
						return fmt.Errorf("reading CV: %w", err)
					}

					var file openapi_types.File
					file.InitFromBytes(data, filepath.Base(path))

					cv, err := c.UploadCV(ctx, postID, file)
					if err != nil {
						return err
					}
					return render(cmd, cv, func(w io.Writer) error {
						_, err := fmt.Fprintf(w, "Uploaded CV for post %d (application %d)\n", postID, cv.ApplicationID)
						return err
					})
				}),
			},
			{
				Name:      "compare",
				Usage:     "score your uploaded CV against a post",
				ArgsUsage: "POST_ID",
				Action: clientAction(func(ctx context.Context, cmd *cli.Command, c *jobboard.Client) error {
					postID, err := idArg(cmd, "POST_ID")
					if err != nil {
						return err
					}
					match, err := c.CompareCVWithPost(ctx, postID)
					if err != nil {
						return err
					}
					return render(cmd, match, func(w io.Writer) error {
						if _, err := fmt.Fprintf(w, "Similarity: %.0f%%\n", match.Score*100); err != nil {
							return err
						}
						next := "Not eligible for the interview."
						if match.Eligible {
							next = fmt.Sprintf("Eligible. Run `jobboard interview start %d`.", postID)
						}
						_, err := fmt.Fprintln(w, next)
						return err
					})
				}),
			},
		},
	}
}
