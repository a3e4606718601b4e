package jobboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/florianilch/jobboard-cli/internal/session"
)

// Login exchanges credentials for a token pair and establishes the session: tokens, encrypted
// credentials for silent renewal and the user's role. A failed login leaves no session behind.
func (c *Client) Login(ctx context.Context, creds Credentials) (*User, error) {
	if err := c.check(creds); err != nil {
		return nil, err
	}
	email := string(creds.Email)

	tok, err := c.issuer.PasswordToken(ctx, email, creds.Password)
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}

	user, err := c.establish(ctx, session.TokenPair{Access: tok.AccessToken, Refresh: tok.RefreshToken}, email, creds.Password)
	if err != nil {
		if clearErr := c.session.Clear(ctx); clearErr != nil {
			slog.ErrorContext(ctx, "failed to clear partial session", "error", clearErr)
		}
		return nil, err
	}

	if c.prompt != nil {
		c.prompt.Reset()
	}
	slog.InfoContext(ctx, "logged in", "user_id", user.ID, "role", user.Role)
	return user, nil
}

func (c *Client) establish(ctx context.Context, pair session.TokenPair, email, password string) (*User, error) {
	if err := c.session.SetTokens(ctx, pair); err != nil {
		return nil, fmt.Errorf("storing tokens: %w", err)
	}
	if err := c.session.SaveCredentials(ctx, email, password); err != nil {
		return nil, fmt.Errorf("storing credentials: %w", err)
	}

	user, err := c.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching current user: %w", err)
	}
	if err := c.session.SetRole(ctx, string(user.Role)); err != nil {
		return nil, fmt.Errorf("storing role: %w", err)
	}
	return user, nil
}

// Logout tears down the local session. The server keeps no session to end.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.session.Clear(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	slog.InfoContext(ctx, "logged out")
	return nil
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	if err := c.check(req); err != nil {
		return nil, err
	}

	var user User
	if err := c.post(ctx, pathRegister, req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CurrentUser returns the authenticated user's profile.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var user User
	if err := c.get(ctx, pathCurrentUser, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser changes profile fields. A changed email or password also replaces the cached
// credential so later renewals authenticate with the new values.
func (c *Client) UpdateUser(ctx context.Context, req UpdateUserRequest) (*User, error) {
	if err := c.check(req); err != nil {
		return nil, err
	}

	var user User
	if err := c.api.Do(ctx, http.MethodPut, pathUpdateUser, req, &user); err != nil {
		return nil, err
	}

	if err := c.rememberCredentials(ctx, req); err != nil {
		return nil, fmt.Errorf("profile updated but caching new credentials failed: %w", err)
	}
	if user.Role != "" {
		if err := c.session.SetRole(ctx, string(user.Role)); err != nil {
			return nil, err
		}
	}
	return &user, nil
}

func (c *Client) rememberCredentials(ctx context.Context, req UpdateUserRequest) error {
	if req.Email == "" && req.Password == "" {
		return nil
	}
	if req.Email == "" {
		return c.session.UpdatePassword(ctx, req.Password)
	}

	_, password, err := c.session.Credentials(ctx)
	if err != nil && !errors.Is(err, session.ErrNoCredentials) {
		return err
	}
	if req.Password != "" {
		password = req.Password
	}
	if password == "" {
		// Nothing to pair the new email with; renewal will require a fresh login.
		return nil
	}
	return c.session.SaveCredentials(ctx, string(req.Email), password)
}

// DeleteAccount deletes the authenticated user's own account and ends the session.
func (c *Client) DeleteAccount(ctx context.Context) error {
	if err := c.api.Do(ctx, http.MethodDelete, pathDeleteUser, nil, nil); err != nil {
		return err
	}
	return c.Logout(ctx)
}

// DeleteUser deletes another account. Admin only.
func (c *Client) DeleteUser(ctx context.Context, userID int) error {
	if userID <= 0 {
		return &ValidationError{Err: errors.New("user id must be positive")}
	}
	return c.api.Do(ctx, http.MethodDelete, pathDeleteUser, map[string]int{"user_id": userID}, nil)
}

// VerifyUser marks an account as verified. Admin only.
func (c *Client) VerifyUser(ctx context.Context, userID int) error {
	path, err := idPath(pathVerifyUser, userID)
	if err != nil {
		return err
	}
	return c.post(ctx, path, nil, nil)
}
