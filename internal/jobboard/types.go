package jobboard

import (
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"
)

// Role is the account type. It decides which dashboard and actions are available.
type Role string

const (
	RoleEmployee Role = "employee"
	RoleEmployer Role = "employer"
	RoleAdmin    Role = "admin"
)

// ApplicationStatus is the employer's decision on an application.
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationAccepted ApplicationStatus = "accepted"
	ApplicationRejected ApplicationStatus = "rejected"
)

// User is an account as returned by the current-user endpoint.
type User struct {
	ID         int       `json:"id"`
	Email      string    `json:"email"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Role       Role      `json:"role"`
	IsVerified bool      `json:"is_verified"`
	DateJoined time.Time `json:"date_joined,omitzero"`
}

// FullName joins first and last name.
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}

// Credentials are the login inputs.
type Credentials struct {
	Email    openapi_types.Email `json:"email" validate:"required,email"`
	Password string              `json:"password" validate:"required"`
}

// RegisterRequest creates a new account.
type RegisterRequest struct {
	Email     openapi_types.Email `json:"email" validate:"required,email"`
	Password  string              `json:"password" validate:"required,min=8"`
	FirstName string              `json:"first_name" validate:"required"`
	LastName  string              `json:"last_name" validate:"required"`
	Role      Role                `json:"role" validate:"required,oneof=employee employer admin"`
}

// UpdateUserRequest changes profile fields. Empty fields are left unchanged.
type UpdateUserRequest struct {
	Email     openapi_types.Email `json:"email,omitempty" validate:"omitempty,email"`
	Password  string              `json:"password,omitempty" validate:"omitempty,min=8"`
	FirstName string              `json:"first_name,omitempty"`
	LastName  string              `json:"last_name,omitempty"`
}

// Post is a job post.
type Post struct {
	ID             int       `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Requirements   string    `json:"requirements"`
	Location       string    `json:"location"`
	EmploymentType string    `json:"employment_type"`
	Salary         string    `json:"salary"`
	Company        string    `json:"company"`
	CreatedBy      int       `json:"created_by"`
	CreatedAt      time.Time `json:"created_at,omitzero"`
}

// PostInput is the writable part of a Post.
type PostInput struct {
	Title          string `json:"title" validate:"required,max=200"`
	Description    string `json:"description" validate:"required"`
	Requirements   string `json:"requirements"`
	Location       string `json:"location"`
	EmploymentType string `json:"employment_type" validate:"omitempty,oneof=full-time part-time contract internship"`
	Salary         string `json:"salary"`
	Company        string `json:"company"`
}

// Report flags a post for admin review.
type Report struct {
	ID     int    `json:"id"`
	PostID int    `json:"post"`
	Reason string `json:"reason"`
}

// CV is an uploaded curriculum vitae attached to an application.
type CV struct {
	ID            int    `json:"id"`
	PostID        int    `json:"post_id"`
	File          string `json:"file"`
	ApplicationID int    `json:"application_id"`
}

// MatchResult is the server-computed similarity between a CV and a post.
type MatchResult struct {
	PostID int     `json:"post_id"`
	Score  float64 `json:"similarity_score"`
	// Eligible reports whether the score unlocks the interview step.
	Eligible bool `json:"eligible"`
}

// Question is one interview question.
type Question struct {
	ID   int    `json:"id"`
	Text string `json:"question"`
}

// Interview is the question set generated for a post.
type Interview struct {
	ID        int        `json:"id"`
	PostID    int        `json:"post_id"`
	Questions []Question `json:"questions"`
	// TimeLimit is the allowed answering time in seconds.
	TimeLimit int  `json:"time_limit"`
	Submitted bool `json:"submitted"`
}

// Duration returns the time limit, or zero when unlimited.
func (i Interview) Duration() time.Duration {
	return time.Duration(i.TimeLimit) * time.Second
}

// Response is the answer to a single question.
type Response struct {
	QuestionID int    `json:"question_id"`
	Answer     string `json:"answer"`
}

// Submission carries all answers of an interview.
type Submission struct {
	InterviewID int        `json:"interview_id" validate:"required"`
	Responses   []Response `json:"responses" validate:"dive"`
}

// Evaluation is the server's assessment of submitted responses.
type Evaluation struct {
	InterviewID int     `json:"interview_id"`
	Score       float64 `json:"score"`
	Feedback    string  `json:"feedback"`
}

// Application is an employee's application to a post.
type Application struct {
	ID        int               `json:"id"`
	PostID    int               `json:"post_id"`
	PostTitle string            `json:"post_title"`
	Applicant string            `json:"applicant"`
	Status    ApplicationStatus `json:"status"`
	Score     float64           `json:"score"`
	CreatedAt time.Time         `json:"created_at,omitzero"`
}
