package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"os"
	"strconv"
	"time"

	"github.com/manifoldco/promptui"
	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/florianilch/jobboard-cli/internal/app"
	"github.com/florianilch/jobboard-cli/internal/jobboard"
	"github.com/florianilch/jobboard-cli/internal/session"
)

var errNoTerminal = errors.New("stdin is not a terminal")

func emailFlag(usage string) *cli.StringFlag {
	return &cli.StringFlag{Name: "email", Usage: usage, Sources: cli.EnvVars("JOBBOARD_EMAIL")}
}

func passwordFlag(usage string) *cli.StringFlag {
	return &cli.StringFlag{Name: "password", Usage: usage, Sources: cli.EnvVars("JOBBOARD_PASSWORD")}
}

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "sign in and cache credentials for silent renewal",
		Flags: []cli.Flag{
			emailFlag("account email"),
			passwordFlag("account password (prompted when omitted)"),
		},
		Action: clientAction(func(ctx context.Context, cmd *cli.Command, c *jobboard.Client) error {
			email, err := askEmail(cmd.String("email"))
			if err != nil {
				return err
			}
			password, err := askPassword(cmd, cmd.String("password"), "Password")
			if err != nil {
				return err
			}

			user, err := c.Login(ctx, jobboard.Credentials{Email: openapi_types.Email(email), Password: password})
			if err != nil {
				return err
			}
			return render(cmd, user, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Logged in as %s (%s)\n", user.FullName(), user.Role)
				return err
			})
		}),
	}
}

func logoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "forget tokens and cached credentials",
		Action: clientAction(func(ctx context.Context, cmd *cli.Command, c *jobboard.Client) error {
			if err := c.Logout(ctx); err != nil {
				return err
			}
			_, err := fmt.Fprintln(stdout(cmd), "Logged out")
			return err
		}),
	}
}

func registerCommand() *cli.Command {
	return &cli.Command{
		Name:  "register",
		Usage: "create an account",
		Flags: []cli.Flag{
			emailFlag("account email"),
			passwordFlag("account password, at least 8 characters (prompted when omitted)"),
			&cli.StringFlag{Name: "first-name", Usage: "first name"},
			&cli.StringFlag{Name: "last-name", Usage: "last name"},
			&cli.StringFlag{Name: "role", Usage: "account type (employee|employer|admin)"},
		},
		Action: clientAction(func(ctx context.Context, cmd *cli.Command, c *jobboard.Client) error {
			email, err := askEmail(cmd.String("email"))
			if err != nil {
				return err
			}
			password, err := askPassword(cmd, cmd.String("password"), "Password")
			if err != nil {
				return err
			}
			first, err := askText("First name", cmd.String("first-name"))
			if err != nil {
				return err
			}
			last, err := askText("Last name", cmd.String("last-name"))
			if err != nil {
				return err
			}
			role, err := askRole(cmd.String("role"))
			if err != nil {
				return err
			}

			user, err := c.Register(ctx, jobboard.RegisterRequest{
				Email:     openapi_types.Email(email),
				Password:  password,
				FirstName: first,
				LastName:  last,
				Role:      role,
			})
			if err != nil {
				return err
			}
			return render(cmd, user, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Registered %s as %s. Run `jobboard login` to sign in.\n", user.Email, user.Role)
				return err
			})
		}),
	}
}

func whoamiCommand() *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "show the signed-in user",
		Action: clientAction(func(ctx context.Context, cmd *cli.Command, c *jobboard.Client) error {
			user, err := c.CurrentUser(ctx)
			if err != nil {
				return err
			}
			return render(cmd, user, func(w io.Writer) error {
				return printUser(w, user)
			})
		}),
	}
}

func printUser(w io.Writer, u *jobboard.User) error {
	joined := ""
	if !u.DateJoined.IsZero() {
		joined = u.DateJoined.Format(time.DateOnly)
	}
	return fields(w,
		"ID", strconv.Itoa(u.ID),
		"Name", u.FullName(),
		"Email", u.Email,
		"Role", string(u.Role),
		"Verified", yesNo(u.IsVerified),
		"Joined", joined,
	)
}

type sessionStatus struct {
	Authenticated bool      `json:"authenticated"`
	Role          string    `json:"role,omitempty"`
	Email         string    `json:"email,omitempty"`
	UserID        string    `json:"user_id,omitempty"`
	ExpiresAt     time.Time `json:"expires_at,omitzero"`
	Expired       bool      `json:"expired"`
}

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "show the local session without contacting the API",
		Action: appAction(func(ctx context.Context, cmd *cli.Command, a *app.App) error {
			sess, err := a.Session()
			if err != nil {
				return err
			}

			var st sessionStatus
			st.Authenticated = sess.Authenticated(ctx)
			if st.Authenticated {
				if st.Role, err = sess.Role(ctx); err != nil {
					return err
				}
				email, _, err := sess.Credentials(ctx)
				if err != nil && !errors.Is(err, session.ErrNoCredentials) {
					return err
				}
				st.Email = email

				token, err := sess.AccessToken(ctx)
				if err != nil {
					return err
				}
				// Opaque tokens simply show no claims.
				if claims, err := session.Inspect(token); err == nil {
					st.UserID = claims.UserID
					st.ExpiresAt = claims.ExpiresAt
					st.Expired = claims.Expired(time.Now())
				}
			}

			return render(cmd, st, func(w io.Writer) error {
				if !st.Authenticated {
					_, err := fmt.Fprintln(w, "Not logged in")
					return err
				}
				expires := "unknown"
				if !st.ExpiresAt.IsZero() {
					expires = st.ExpiresAt.Local().Format(time.RFC1123)
					if st.Expired {
						expires += " (expired, renewed on next call)"
					}
				}
				return fields(w,
					"Email", st.Email,
					"Role", st.Role,
					"User ID", st.UserID,
					"Access token expires", expires,
				)
			})
		}),
	}
}

func askText(label, value string) (string, error) {
	if value != "" {
		return value, nil
	}
	prompt := promptui.Prompt{
		Label: label,
		Validate: func(s string) error {
			if s == "" {
				return errors.New("required")
			}
			return nil
		},
	}
	return prompt.Run()
}

func askEmail(value string) (string, error) {
	if value != "" {
		return value, nil
	}
	prompt := promptui.Prompt{
		Label: "Email",
		Validate: func(s string) error {
			_, err := mail.ParseAddress(s)
			return err
		},
	}
	return prompt.Run()
}

// askPassword reads a password without echo when it was not passed as a flag.
func askPassword(cmd *cli.Command, value, label string) (string, error) {
	if value != "" {
		return value, nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("--password is required: %w", errNoTerminal)
	}
	fmt.Fprintf(cmd.Root().ErrWriter, "%s: ", label)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.Root().ErrWriter)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(b), nil
}

func askRole(value string) (jobboard.Role, error) {
	if value != "" {
		return jobboard.Role(value), nil
	}
	roles := []jobboard.Role{jobboard.RoleEmployee, jobboard.RoleEmployer, jobboard.RoleAdmin}
	sel := promptui.Select{Label: "Account type", Items: roles}
	i, _, err := sel.Run()
	if err != nil {
		return "", err
	}
	return roles[i], nil
}
