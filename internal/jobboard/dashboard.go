package jobboard

import (
	"context"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// EmployeeStats summarizes an employee's applications.
type EmployeeStats struct {
	Applications int     `mapstructure:"total_applications"`
	Pending      int     `mapstructure:"pending_applications"`
	Accepted     int     `mapstructure:"accepted_applications"`
	Rejected     int     `mapstructure:"rejected_applications"`
	Interviews   int     `mapstructure:"completed_interviews"`
	AverageScore float64 `mapstructure:"average_score"`
}

// EmployerStats summarizes an employer's posts and the applications they received.
type EmployerStats struct {
	Posts        int `mapstructure:"total_posts"`
	Applications int `mapstructure:"total_applications"`
	Pending      int `mapstructure:"pending_applications"`
	Accepted     int `mapstructure:"accepted_applications"`
	Rejected     int `mapstructure:"rejected_applications"`
}

// AdminStats summarizes the whole platform.
type AdminStats struct {
	Users      int `mapstructure:"total_users"`
	Employees  int `mapstructure:"total_employees"`
	Employers  int `mapstructure:"total_employers"`
	Unverified int `mapstructure:"unverified_users"`
	Posts      int `mapstructure:"total_posts"`
	Reports    int `mapstructure:"total_reports"`
}

// Stats holds the dashboard statistics for Role. Exactly one of the role fields is set.
type Stats struct {
	Role     Role
	Employee *EmployeeStats
	Employer *EmployerStats
	Admin    *AdminStats
}

// DashboardStats fetches role-dependent statistics. The payload shape follows the "role" field
// of the response, falling back to the role cached at login.
func (c *Client) DashboardStats(ctx context.Context) (*Stats, error) {
	var raw map[string]any
	if err := c.get(ctx, pathDashboardStats, &raw); err != nil {
		return nil, err
	}

	role, _ := raw["role"].(string)
	if role == "" {
		cached, err := c.session.Role(ctx)
		if err != nil {
			return nil, err
		}
		role = cached
	}

	stats := &Stats{Role: Role(role)}
	var target any
	switch stats.Role {
	case RoleEmployee:
		stats.Employee = &EmployeeStats{}
		target = stats.Employee
	case RoleEmployer:
		stats.Employer = &EmployerStats{}
		target = stats.Employer
	case RoleAdmin:
		stats.Admin = &AdminStats{}
		target = stats.Admin
	default:
		return nil, fmt.Errorf("dashboard stats: unknown role %q", role)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           target,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("decoding %s stats: %w", role, err)
	}
	return stats, nil
}
