package jobboard_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/florianilch/jobboard-cli/internal/apiclient"
	"github.com/florianilch/jobboard-cli/internal/credstore"
	"github.com/florianilch/jobboard-cli/internal/devserver"
	"github.com/florianilch/jobboard-cli/internal/jobboard"
	"github.com/florianilch/jobboard-cli/internal/kvstore"
	"github.com/florianilch/jobboard-cli/internal/session"
	"github.com/florianilch/jobboard-cli/internal/tokensource"
)

// exchange is one request as seen on the wire.
type exchange struct {
	Path   string
	Auth   string
	Status int
}

// recorder captures every API request sent by the client under test.
type recorder struct {
	mu        sync.Mutex
	exchanges []exchange
}

func (r *recorder) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := http.DefaultTransport.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.exchanges = append(r.exchanges, exchange{Path: req.URL.Path, Auth: req.Header.Get("Authorization"), Status: resp.StatusCode})
	r.mu.Unlock()
	return resp, nil
}

func (r *recorder) take() []exchange {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.exchanges
	r.exchanges = nil
	return out
}

type fixture struct {
	server  *devserver.Server
	kv      *kvstore.MemoryStore
	cipher  *credstore.Cipher
	session *session.Session
	prompt  *apiclient.LoginPrompt
	wire    *recorder
	client  *jobboard.Client
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		server: devserver.New(),
		kv:     kvstore.NewMemoryStore(),
		wire:   &recorder{},
	}
	srv := httptest.NewServer(f.server)
	t.Cleanup(srv.Close)

	var err error
	f.cipher, err = credstore.NewCipher("build-time-key")
	require.NoError(t, err)
	f.session, err = session.New(f.kv, f.cipher)
	require.NoError(t, err)

	issuer, err := tokensource.NewIssuer(srv.URL)
	require.NoError(t, err)

	f.prompt = &apiclient.LoginPrompt{}
	renewer, err := apiclient.NewCredentialRenewer(f.session, issuer, f.prompt)
	require.NoError(t, err)

	api, err := apiclient.New(srv.URL, f.session,
		apiclient.WithRenewer(renewer),
		apiclient.WithTransport(f.wire),
	)
	require.NoError(t, err)

	f.client, err = jobboard.New(api, f.session, issuer, f.prompt)
	require.NoError(t, err)
	return f
}

func (f *fixture) user(t *testing.T, email, role string) {
	t.Helper()
	_, err := f.server.AddUser(email, "secret123", "Test", "User", role)
	require.NoError(t, err)
}

func (f *fixture) login(t *testing.T, email string) *jobboard.User {
	t.Helper()
	u, err := f.client.Login(context.Background(), jobboard.Credentials{Email: openapi_types.Email(email), Password: "secret123"})
	require.NoError(t, err)
	f.wire.take()
	return u
}

func (f *fixture) decrypted(t *testing.T, key string) string {
	t.Helper()
	raw, err := f.kv.Get(context.Background(), key)
	require.NoError(t, err)
	plain, err := f.cipher.Decrypt(raw, []byte(key))
	require.NoError(t, err)
	return plain
}

func TestScenarioLoginPersistsSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.user(t, "a@b.com", "employee")

	u, err := f.client.Login(ctx, jobboard.Credentials{Email: "a@b.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, jobboard.RoleEmployee, u.Role)

	access, err := f.session.AccessToken(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, access)
	refresh, err := f.session.RefreshToken(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, refresh)
	role, err := f.session.Role(ctx)
	require.NoError(t, err)
	assert.Equal(t, "employee", role)

	rawPassword, err := f.kv.Get(ctx, session.KeyUserPassword)
	require.NoError(t, err)
	assert.NotContains(t, rawPassword, "secret123", "only ciphertext is persisted")
	assert.Equal(t, "a@b.com", f.decrypted(t, session.KeyUserEmail))
	assert.Equal(t, "secret123", f.decrypted(t, session.KeyUserPassword))

	f.wire.take()
	_, err = f.client.ListPosts(ctx)
	require.NoError(t, err)

	wire := f.wire.take()
	require.Len(t, wire, 1)
	assert.Equal(t, "Bearer "+access, wire[0].Auth)
	assert.Equal(t, http.StatusOK, wire[0].Status)
}

func TestScenarioSilentRenewal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.user(t, "a@b.com", "employee")
	f.login(t, "a@b.com")

	before, err := f.session.AccessToken(ctx)
	require.NoError(t, err)

	f.server.ExpireTokens()

	me, err := f.client.CurrentUser(ctx)
	require.NoError(t, err, "the caller never sees the 401")
	assert.Equal(t, "a@b.com", me.Email)

	after, err := f.session.AccessToken(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, before, after)

	wire := f.wire.take()
	require.Len(t, wire, 2)
	assert.Equal(t, http.StatusUnauthorized, wire[0].Status)
	assert.Equal(t, "Bearer "+before, wire[0].Auth)
	assert.Equal(t, http.StatusOK, wire[1].Status)
	assert.Equal(t, "Bearer "+after, wire[1].Auth)
	assert.False(t, f.prompt.AtLogin())
}

func TestScenarioPasswordChangeUpdatesCredentials(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.user(t, "a@b.com", "employee")
	f.login(t, "a@b.com")

	_, err := f.client.UpdateUser(ctx, jobboard.UpdateUserRequest{Password: "newsecret456"})
	require.NoError(t, err)
	assert.Equal(t, "newsecret456", f.decrypted(t, session.KeyUserPassword))
	assert.Equal(t, "a@b.com", f.decrypted(t, session.KeyUserEmail))

	f.server.ExpireTokens()
	_, err = f.client.CurrentUser(ctx)
	require.NoError(t, err, "renewal authenticates with the new password")
}

func TestEmailChangeUpdatesCredentials(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.user(t, "a@b.com", "employee")
	f.login(t, "a@b.com")

	u, err := f.client.UpdateUser(ctx, jobboard.UpdateUserRequest{Email: "c@d.com", FirstName: "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "c@d.com", u.Email)
	assert.Equal(t, "Ada", u.FirstName)
	assert.Equal(t, "c@d.com", f.decrypted(t, session.KeyUserEmail))
	assert.Equal(t, "secret123", f.decrypted(t, session.KeyUserPassword))

	f.server.ExpireTokens()
	_, err = f.client.CurrentUser(ctx)
	require.NoError(t, err)
}

func TestScenarioLogoutClearsEverything(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.user(t, "a@b.com", "employee")
	f.login(t, "a@b.com")
	require.Equal(t, 5, f.kv.Len())

	require.NoError(t, f.client.Logout(ctx))
	assert.Equal(t, 0, f.kv.Len())

	_, err := f.client.CurrentUser(ctx)
	require.ErrorIs(t, err, apiclient.ErrLoginRequired)

	wire := f.wire.take()
	require.Len(t, wire, 1, "no renewal request without credentials")
	assert.Empty(t, wire[0].Auth)
	assert.True(t, f.prompt.AtLogin())
}

func TestLoginFailures(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.user(t, "a@b.com", "employee")

	_, err := f.client.Login(ctx, jobboard.Credentials{Email: "not-an-email", Password: "x"})
	var validationErr *jobboard.ValidationError
	require.ErrorAs(t, err, &validationErr)

	_, err = f.client.Login(ctx, jobboard.Credentials{Email: "a@b.com", Password: "wrong-password"})
	var issueErr *tokensource.IssueError
	require.ErrorAs(t, err, &issueErr)
	assert.Equal(t, "No active account found with the given credentials", issueErr.Detail())

	assert.Equal(t, 0, f.kv.Len(), "failed logins leave no session")
	assert.Empty(t, f.wire.take(), "validation and issuance bypass the API client")
}

func TestLoginRearmsPrompt(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.user(t, "a@b.com", "employee")

	f.prompt.RedirectToLogin(ctx)
	require.True(t, f.prompt.AtLogin())

	f.login(t, "a@b.com")
	assert.False(t, f.prompt.AtLogin())
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	req := jobboard.RegisterRequest{
		Email: "new@b.com", Password: "long-enough", FirstName: "New", LastName: "User", Role: jobboard.RoleEmployer,
	}
	u, err := f.client.Register(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "New User", u.FullName())
	assert.False(t, u.IsVerified)

	_, err = f.client.Register(ctx, req)
	var statusErr *apiclient.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
	assert.Equal(t, "email: user with this email already exists.", statusErr.Detail())

	req.Role = "pirate"
	_, err = f.client.Register(ctx, req)
	var validationErr *jobboard.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestEmployerPostsAndApplications(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.user(t, "boss@b.com", "employer")
	f.user(t, "dev@b.com", "employee")

	f.login(t, "boss@b.com")
	post, err := f.client.CreatePost(ctx, jobboard.PostInput{
		Title:          "Go engineer",
		Description:    "Kubernetes and PostgreSQL",
		EmploymentType: "full-time",
	})
	require.NoError(t, err)

	_, err = f.client.CreatePost(ctx, jobboard.PostInput{Title: "No description"})
	var validationErr *jobboard.ValidationError
	require.ErrorAs(t, err, &validationErr)

	updated, err := f.client.UpdatePost(ctx, post.ID, jobboard.PostInput{Title: "Senior Go engineer", Description: post.Description})
	require.NoError(t, err)
	assert.Equal(t, "Senior Go engineer", updated.Title)

	mine, err := f.client.MyPosts(ctx)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	f.login(t, "dev@b.com")
	var cv openapi_types.File
	cv.InitFromBytes([]byte("Senior Go engineer, Kubernetes, PostgreSQL"), "cv.txt")
	uploaded, err := f.client.UploadCV(ctx, post.ID, cv)
	require.NoError(t, err)
	assert.Equal(t, post.ID, uploaded.PostID)

	match, err := f.client.CompareCVWithPost(ctx, post.ID)
	require.NoError(t, err)
	assert.True(t, match.Eligible)

	stats, err := f.client.DashboardStats(ctx)
	require.NoError(t, err)
	require.NotNil(t, stats.Employee)
	assert.Equal(t, 1, stats.Employee.Applications)
	assert.Equal(t, 1, stats.Employee.Pending)

	_, err = f.client.ReportPost(ctx, post.ID, "  ")
	require.ErrorAs(t, err, &validationErr)
	report, err := f.client.ReportPost(ctx, post.ID, "duplicate listing")
	require.NoError(t, err)
	assert.Equal(t, post.ID, report.PostID)

	f.login(t, "boss@b.com")
	apps, err := f.client.Applications(ctx)
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, jobboard.ApplicationPending, apps[0].Status)

	_, err = f.client.UpdateApplication(ctx, apps[0].ID, jobboard.ApplicationPending)
	require.ErrorAs(t, err, &validationErr)
	app, err := f.client.UpdateApplication(ctx, apps[0].ID, jobboard.ApplicationAccepted)
	require.NoError(t, err)
	assert.Equal(t, jobboard.ApplicationAccepted, app.Status)

	stats, err = f.client.DashboardStats(ctx)
	require.NoError(t, err)
	require.NotNil(t, stats.Employer)
	assert.Equal(t, 1, stats.Employer.Posts)
	assert.Equal(t, 1, stats.Employer.Accepted)

	require.NoError(t, f.client.DeletePost(ctx, post.ID))
	_, err = f.client.GetPost(ctx, post.ID)
	var statusErr *apiclient.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
}

func TestInterviewLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.user(t, "boss@b.com", "employer")
	f.user(t, "dev@b.com", "employee")

	f.login(t, "boss@b.com")
	post, err := f.client.CreatePost(ctx, jobboard.PostInput{Title: "Go engineer", Description: "APIs"})
	require.NoError(t, err)

	f.login(t, "dev@b.com")
	var cv openapi_types.File
	cv.InitFromBytes([]byte("APIs in Go"), "cv.pdf")
	_, err = f.client.UploadCV(ctx, post.ID, cv)
	require.NoError(t, err)

	saved, err := f.client.SaveInterview(ctx, post.ID)
	require.NoError(t, err)
	require.NotEmpty(t, saved.Questions)
	assert.Positive(t, saved.Duration())

	fetched, err := f.client.Interview(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, fetched.ID)

	_, err = f.client.EvaluateResponses(ctx, saved.ID)
	var statusErr *apiclient.StatusError
	require.ErrorAs(t, err, &statusErr, "evaluation requires a submission")

	sub := jobboard.Submission{InterviewID: saved.ID}
	for _, q := range saved.Questions {
		sub.Responses = append(sub.Responses, jobboard.Response{QuestionID: q.ID, Answer: "answer"})
	}
	require.NoError(t, f.client.SubmitInterview(ctx, sub))

	eval, err := f.client.EvaluateResponses(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, eval.InterviewID)
	assert.NotEmpty(t, eval.Feedback)
}

func TestAdminOperations(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.user(t, "root@b.com", "admin")

	employer, err := f.client.Register(ctx, jobboard.RegisterRequest{
		Email: "boss@b.com", Password: "secret123", FirstName: "B", LastName: "O", Role: jobboard.RoleEmployer,
	})
	require.NoError(t, err)

	f.login(t, "root@b.com")
	stats, err := f.client.DashboardStats(ctx)
	require.NoError(t, err)
	require.NotNil(t, stats.Admin)
	assert.Equal(t, 2, stats.Admin.Users)
	assert.Equal(t, 1, stats.Admin.Unverified)

	require.NoError(t, f.client.VerifyUser(ctx, employer.ID))
	stats, err = f.client.DashboardStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Admin.Unverified)

	require.NoError(t, f.client.DeleteUser(ctx, employer.ID))
	stats, err = f.client.DashboardStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Admin.Users)

	var validationErr *jobboard.ValidationError
	require.ErrorAs(t, f.client.DeleteUser(ctx, 0), &validationErr)
}

func TestDeleteAccountEndsSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.user(t, "a@b.com", "employee")
	f.login(t, "a@b.com")

	require.NoError(t, f.client.DeleteAccount(ctx))
	assert.Equal(t, 0, f.kv.Len())

	_, err := f.client.Login(ctx, jobboard.Credentials{Email: "a@b.com", Password: "secret123"})
	require.Error(t, err)
}

func TestEmployeeCannotCreatePosts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.user(t, "dev@b.com", "employee")
	f.login(t, "dev@b.com")

	_, err := f.client.CreatePost(ctx, jobboard.PostInput{Title: "t", Description: "d"})
	var statusErr *apiclient.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusForbidden, statusErr.StatusCode)
	assert.False(t, errors.Is(err, apiclient.ErrLoginRequired))
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := jobboard.New(nil, nil, nil, nil)
	require.Error(t, err)
}
