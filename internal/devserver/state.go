package devserver

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Roles known to the API.
const (
	roleEmployee = "employee"
	roleEmployer = "employer"
	roleAdmin    = "admin"
)

type user struct {
	ID         int       `json:"id"`
	Email      string    `json:"email"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Role       string    `json:"role"`
	IsVerified bool      `json:"is_verified"`
	DateJoined time.Time `json:"date_joined"`

	passwordHash []byte
}

type post struct {
	ID             int       `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Requirements   string    `json:"requirements"`
	Location       string    `json:"location"`
	EmploymentType string    `json:"employment_type"`
	Salary         string    `json:"salary"`
	Company        string    `json:"company"`
	CreatedBy      int       `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
}

type report struct {
	ID     int    `json:"id"`
	PostID int    `json:"post"`
	Reason string `json:"reason"`

	reporter int
}

type application struct {
	ID        int       `json:"id"`
	PostID    int       `json:"post_id"`
	PostTitle string    `json:"post_title"`
	Applicant string    `json:"applicant"`
	Status    string    `json:"status"`
	Score     float64   `json:"score"`
	CreatedAt time.Time `json:"created_at"`

	userID int
	cv     []byte
}

type question struct {
	ID   int    `json:"id"`
	Text string `json:"question"`
}

type answer struct {
	QuestionID int    `json:"question_id"`
	Answer     string `json:"answer"`
}

type interview struct {
	ID        int        `json:"id"`
	PostID    int        `json:"post_id"`
	Questions []question `json:"questions"`
	TimeLimit int        `json:"time_limit"`
	Submitted bool       `json:"submitted"`

	userID    int
	responses []answer
}

// state is the whole in-memory backend. Handlers hold mu for their full duration.
type state struct {
	mu sync.Mutex

	nextID     int
	users      map[int]*user
	access     map[string]int
	refresh    map[string]int
	posts      map[int]*post
	reports    []*report
	apps       map[int]*application
	interviews map[int]*interview

	now func() time.Time
}

func newState() *state {
	return &state{
		users:      make(map[int]*user),
		access:     make(map[string]int),
		refresh:    make(map[string]int),
		posts:      make(map[int]*post),
		apps:       make(map[int]*application),
		interviews: make(map[int]*interview),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// id returns the next identifier. Callers hold mu.
func (s *state) id() int {
	s.nextID++
	return s.nextID
}

// addUser stores a new account. Callers hold mu.
func (s *state) addUser(email, password, firstName, lastName, role string, verified bool) (*user, error) {
	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &user{
		ID:           s.id(),
		Email:        email,
		FirstName:    firstName,
		LastName:     lastName,
		Role:         role,
		IsVerified:   verified,
		DateJoined:   s.now(),
		passwordHash: hash,
	}
	s.users[u.ID] = u
	return u, nil
}

// userByEmail finds an account. Callers hold mu.
func (s *state) userByEmail(email string) *user {
	for _, u := range s.users {
		if u.Email == email {
			return u
		}
	}
	return nil
}

func (s *state) userByAccessToken(token string) (user, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.access[token]
	if !ok {
		return user{}, false
	}
	u, ok := s.users[id]
	if !ok {
		return user{}, false
	}
	return *u, true
}

// issue creates a fresh token pair for u. Callers hold mu.
func (s *state) issue(u *user) (access, refresh string) {
	access, refresh = uuid.NewString(), uuid.NewString()
	s.access[access] = u.ID
	s.refresh[refresh] = u.ID
	return access, refresh
}

// deleteUser removes the account and its tokens. Callers hold mu.
func (s *state) deleteUser(userID int) {
	delete(s.users, userID)
	for token, id := range s.access {
		if id == userID {
			delete(s.access, token)
		}
	}
	for token, id := range s.refresh {
		if id == userID {
			delete(s.refresh, token)
		}
	}
}

func hashPassword(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
}

func checkPassword(u *user, password string) bool {
	return bcrypt.CompareHashAndPassword(u.passwordHash, []byte(password)) == nil
}
