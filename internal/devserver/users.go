package devserver

import (
	"net/http"
	"net/mail"
	"strconv"
	"strings"
)

// minPasswordLength matches the backend's password validator.
const minPasswordLength = 8

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !readJSON(w, r, &in) {
		return
	}

	fields := map[string][]string{}
	if in.Email == "" {
		fields["email"] = []string{"This field is required."}
	}
	if in.Password == "" {
		fields["password"] = []string{"This field is required."}
	}
	if len(fields) > 0 {
		writeFieldErrors(ctx, w, fields)
		return
	}

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	u := s.state.userByEmail(in.Email)
	if u == nil || !checkPassword(u, in.Password) {
		writeDetail(ctx, w, "No active account found with the given credentials", http.StatusUnauthorized)
		return
	}

	access, refresh := s.state.issue(u)
	writeJSON(ctx, w, map[string]string{
		"access":  access,
		"refresh": refresh,
		"role":    u.Role,
	}, http.StatusOK)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var in struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Role      string `json:"role"`
	}
	if !readJSON(w, r, &in) {
		return
	}

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	fields := map[string][]string{}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		fields["email"] = []string{"Enter a valid email address."}
	} else if s.state.userByEmail(in.Email) != nil {
		fields["email"] = []string{"user with this email already exists."}
	}
	if len(in.Password) < minPasswordLength {
		fields["password"] = []string{"Ensure this field has at least 8 characters."}
	}
	switch in.Role {
	case roleEmployee, roleEmployer, roleAdmin:
	default:
		fields["role"] = []string{`"` + in.Role + `" is not a valid choice.`}
	}
	if len(fields) > 0 {
		writeFieldErrors(ctx, w, fields)
		return
	}

	// Employers and admins need manual verification.
	u, err := s.state.addUser(in.Email, in.Password, in.FirstName, in.LastName, in.Role, in.Role == roleEmployee)
	if err != nil {
		writeDetail(ctx, w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(ctx, w, u, http.StatusCreated)
}

func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	u := userFrom(r.Context())
	writeJSON(r.Context(), w, u, http.StatusOK)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var in struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	if !readJSON(w, r, &in) {
		return
	}

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	u, ok := s.state.users[userFrom(ctx).ID]
	if !ok {
		writeDetail(ctx, w, "User not found.", http.StatusNotFound)
		return
	}

	fields := map[string][]string{}
	if in.Email != "" && in.Email != u.Email {
		if _, err := mail.ParseAddress(in.Email); err != nil {
			fields["email"] = []string{"Enter a valid email address."}
		} else if s.state.userByEmail(in.Email) != nil {
			fields["email"] = []string{"user with this email already exists."}
		}
	}
	if in.Password != "" && len(in.Password) < minPasswordLength {
		fields["password"] = []string{"Ensure this field has at least 8 characters."}
	}
	if len(fields) > 0 {
		writeFieldErrors(ctx, w, fields)
		return
	}

	if in.Password != "" {
		hash, err := hashPassword(in.Password)
		if err != nil {
			writeDetail(ctx, w, err.Error(), http.StatusInternalServerError)
			return
		}
		u.passwordHash = hash
	}
	if in.Email != "" {
		u.Email = in.Email
	}
	if in.FirstName != "" {
		u.FirstName = strings.TrimSpace(in.FirstName)
	}
	if in.LastName != "" {
		u.LastName = strings.TrimSpace(in.LastName)
	}

	writeJSON(ctx, w, u, http.StatusOK)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := userFrom(ctx)

	var in struct {
		UserID int `json:"user_id"`
	}
	if !readJSON(w, r, &in) {
		return
	}

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	target := caller.ID
	if in.UserID != 0 && in.UserID != caller.ID {
		if caller.Role != roleAdmin {
			writeDetail(ctx, w, "You do not have permission to perform this action.", http.StatusForbidden)
			return
		}
		if _, ok := s.state.users[in.UserID]; !ok {
			writeDetail(ctx, w, "User not found.", http.StatusNotFound)
			return
		}
		target = in.UserID
	}

	s.state.deleteUser(target)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleVerifyUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeDetail(ctx, w, "Invalid user id.", http.StatusBadRequest)
		return
	}

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	u, ok := s.state.users[id]
	if !ok {
		writeDetail(ctx, w, "User not found.", http.StatusNotFound)
		return
	}
	u.IsVerified = true
	writeDetail(ctx, w, "User verified successfully.", http.StatusOK)
}

func (s *Server) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := userFrom(ctx)

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	stats := map[string]any{"role": caller.Role}
	switch caller.Role {
	case roleEmployee:
		var total, pending, accepted, rejected, interviews int
		var scoreSum float64
		for _, app := range s.state.apps {
			if app.userID != caller.ID {
				continue
			}
			total++
			scoreSum += app.Score
			switch app.Status {
			case statusPending:
				pending++
			case statusAccepted:
				accepted++
			case statusRejected:
				rejected++
			}
		}
		for _, iv := range s.state.interviews {
			if iv.userID == caller.ID && iv.Submitted {
				interviews++
			}
		}
		stats["total_applications"] = total
		stats["pending_applications"] = pending
		stats["accepted_applications"] = accepted
		stats["rejected_applications"] = rejected
		stats["completed_interviews"] = interviews
		if total > 0 {
			stats["average_score"] = scoreSum / float64(total)
		} else {
			stats["average_score"] = 0.0
		}

	case roleEmployer:
		var posts, total, pending, accepted, rejected int
		for _, p := range s.state.posts {
			if p.CreatedBy == caller.ID {
				posts++
			}
		}
		for _, app := range s.state.apps {
			p, ok := s.state.posts[app.PostID]
			if !ok || p.CreatedBy != caller.ID {
				continue
			}
			total++
			switch app.Status {
			case statusPending:
				pending++
			case statusAccepted:
				accepted++
			case statusRejected:
				rejected++
			}
		}
		stats["total_posts"] = posts
		stats["total_applications"] = total
		stats["pending_applications"] = pending
		stats["accepted_applications"] = accepted
		stats["rejected_applications"] = rejected

	case roleAdmin:
		var employees, employers, unverified int
		for _, u := range s.state.users {
			switch u.Role {
			case roleEmployee:
				employees++
			case roleEmployer:
				employers++
			}
			if !u.IsVerified {
				unverified++
			}
		}
		stats["total_users"] = len(s.state.users)
		stats["total_employees"] = employees
		stats["total_employers"] = employers
		stats["unverified_users"] = unverified
		stats["total_posts"] = len(s.state.posts)
		stats["total_reports"] = len(s.state.reports)
	}

	writeJSON(ctx, w, stats, http.StatusOK)
}
