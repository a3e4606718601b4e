package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/manifoldco/promptui"
	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/urfave/cli/v3"

	"github.com/florianilch/jobboard-cli/internal/jobboard"
)

func profileCommand() *cli.Command {
	return &cli.Command{
		Name:  "profile",
		Usage: "manage your profile",
		Commands: []*cli.Command{
			{
				Name:  "update",
				Usage: "change profile fields, omitted fields stay unchanged",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Usage: "new email"},
					&cli.BoolFlag{Name: "password", Usage: "prompt for a new password"},
					&cli.StringFlag{Name: "first-name", Usage: "new first name"},
					&cli.StringFlag{Name: "last-name", Usage: "new last name"},
				},
				Action: clientAction(func(ctx context.Context, cmd *cli.Command, c *jobboard.Client) error {
					req := jobboard.UpdateUserRequest{
						Email:     openapi_types.Email(cmd.String("email")),
						FirstName: cmd.String("first-name"),
						LastName:  cmd.String("last-name"),
					}
					if cmd.Bool("password") {
						password, err := askPassword(cmd, "", "New password")
						if err != nil {
							return err
						}
						req.Password = password
					}
					if req == (jobboard.UpdateUserRequest{}) {
						return errors.New("nothing to update")
					}

					user, err := c.UpdateUser(ctx, req)
					if err != nil {
						return err
					}
					return render(cmd, user, func(w io.Writer) error {
						return printUser(w, user)
					})
				}),
			},
		},
	}
}

func accountCommand() *cli.Command {
	return &cli.Command{
		Name:  "account",
		Usage: "manage your account",
		Commands: []*cli.Command{
			{
				Name:  "delete",
				Usage: "delete your account and log out",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "skip confirmation"},
				},
				Action: clientAction(func(ctx context.Context, cmd *cli.Command, c *jobboard.Client) error {
					if !cmd.Bool("yes") {
						ok, err := confirm("Delete your account permanently")
						if err != nil || !ok {
							return err
						}
					}
					if err := c.DeleteAccount(ctx); err != nil {
						return err
					}
					_, err := fmt.Fprintln(stdout(cmd), "Account deleted")
					return err
				}),
			},
		},
	}
}

func adminCommand() *cli.Command {
	return &cli.Command{
		Name:  "admin",
		Usage: "administrative actions",
		Commands: []*cli.Command{
			{
				Name:      "delete-user",
				Usage:     "delete another user's account",
				ArgsUsage: "USER_ID",
				Action: clientAction(func(ctx context.Context, cmd *cli.Command, c *jobboard.Client) error {
					id, err := idArg(cmd, "USER_ID")
					if err != nil {
						return err
					}
					if err := c.DeleteUser(ctx, id); err != nil {
						return err
					}
					_, err = fmt.Fprintf(stdout(cmd), "User %d deleted\n", id)
					return err
				}),
			},
			{
				Name:      "verify",
				Usage:     "mark a user as verified",
				ArgsUsage: "USER_ID",
				Action: clientAction(func(ctx context.Context, cmd *cli.Command, c *jobboard.Client) error {
					id, err := idArg(cmd, "USER_ID")
					if err != nil {
						return err
					}
					if err := c.VerifyUser(ctx, id); err != nil {
						return err
					}
					_, err = fmt.Fprintf(stdout(cmd), "User %d verified\n", id)
					return err
				}),
			},
		},
	}
}

// confirm asks a yes/no question. Declining is not an error.
func confirm(label string) (bool, error) {
	prompt := promptui.Prompt{Label: label, IsConfirm: true}
	if _, err := prompt.Run(); err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
