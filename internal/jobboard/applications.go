package jobboard

import (
	"context"
	"fmt"
	"net/http"
)

// Applications lists applications visible to the user: their own for employees, those
// received on their posts for employers.
func (c *Client) Applications(ctx context.Context) ([]Application, error) {
	var apps []Application
	if err := c.get(ctx, pathApplications, &apps); err != nil {
		return nil, err
	}
	return apps, nil
}

// UpdateApplication accepts or rejects an application.
func (c *Client) UpdateApplication(ctx context.Context, applicationID int, status ApplicationStatus) (*Application, error) {
	if status != ApplicationAccepted && status != ApplicationRejected {
		return nil, &ValidationError{Err: fmt.Errorf("status must be %q or %q, got %q", ApplicationAccepted, ApplicationRejected, status)}
	}

	body := struct {
		ApplicationID int               `json:"application_id"`
		Status        ApplicationStatus `json:"status"`
	}{applicationID, status}

	var app Application
	if err := c.api.Do(ctx, http.MethodPatch, pathUpdateApplication, body, &app); err != nil {
		return nil, err
	}
	return &app, nil
}
