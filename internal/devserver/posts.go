package devserver

import (
	"cmp"
	"net/http"
	"slices"
	"strconv"
	"strings"
)

type postInput struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	Requirements   string `json:"requirements"`
	Location       string `json:"location"`
	EmploymentType string `json:"employment_type"`
	Salary         string `json:"salary"`
	Company        string `json:"company"`
}

func (in postInput) validate() map[string][]string {
	fields := map[string][]string{}
	if strings.TrimSpace(in.Title) == "" {
		fields["title"] = []string{"This field may not be blank."}
	}
	if strings.TrimSpace(in.Description) == "" {
		fields["description"] = []string{"This field may not be blank."}
	}
	return fields
}

func (in postInput) apply(p *post) {
	p.Title = in.Title
	p.Description = in.Description
	p.Requirements = in.Requirements
	p.Location = in.Location
	p.EmploymentType = in.EmploymentType
	p.Salary = in.Salary
	p.Company = in.Company
}

// sortedPosts returns posts matching keep, newest first. Callers hold mu.
func (s *state) sortedPosts(keep func(*post) bool) []*post {
	out := make([]*post, 0, len(s.posts))
	for _, p := range s.posts {
		if keep(p) {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b *post) int { return cmp.Compare(b.ID, a.ID) })
	return out
}

// postFromPath resolves the {id} wildcard. On failure it writes the error response.
// Callers hold mu.
func (s *Server) postFromPath(w http.ResponseWriter, r *http.Request) (*post, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeDetail(r.Context(), w, "Invalid post id.", http.StatusBadRequest)
		return nil, false
	}
	p, ok := s.state.posts[id]
	if !ok {
		writeDetail(r.Context(), w, "No Post matches the given query.", http.StatusNotFound)
		return nil, false
	}
	return p, true
}

// canEdit reports whether u may change p.
func canEdit(u user, p *post) bool {
	return u.Role == roleAdmin || p.CreatedBy == u.ID
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var in postInput
	if !readJSON(w, r, &in) {
		return
	}
	if fields := in.validate(); len(fields) > 0 {
		writeFieldErrors(ctx, w, fields)
		return
	}

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	p := &post{
		ID:        s.state.id(),
		CreatedBy: userFrom(ctx).ID,
		CreatedAt: s.state.now(),
	}
	in.apply(p)
	s.state.posts[p.ID] = p

	writeJSON(ctx, w, p, http.StatusCreated)
}

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	posts := s.state.sortedPosts(func(*post) bool { return true })
	writeJSON(r.Context(), w, posts, http.StatusOK)
}

func (s *Server) handleMyPosts(w http.ResponseWriter, r *http.Request) {
	caller := userFrom(r.Context())

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	posts := s.state.sortedPosts(func(p *post) bool { return p.CreatedBy == caller.ID })
	writeJSON(r.Context(), w, posts, http.StatusOK)
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	p, ok := s.postFromPath(w, r)
	if !ok {
		return
	}
	writeJSON(r.Context(), w, p, http.StatusOK)
}

func (s *Server) handleUpdatePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var in postInput
	if !readJSON(w, r, &in) {
		return
	}
	if fields := in.validate(); len(fields) > 0 {
		writeFieldErrors(ctx, w, fields)
		return
	}

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	p, ok := s.postFromPath(w, r)
	if !ok {
		return
	}
	if !canEdit(userFrom(ctx), p) {
		writeDetail(ctx, w, "You do not have permission to perform this action.", http.StatusForbidden)
		return
	}

	in.apply(p)
	writeJSON(ctx, w, p, http.StatusOK)
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	p, ok := s.postFromPath(w, r)
	if !ok {
		return
	}
	if !canEdit(userFrom(ctx), p) {
		writeDetail(ctx, w, "You do not have permission to perform this action.", http.StatusForbidden)
		return
	}

	delete(s.state.posts, p.ID)
	for id, app := range s.state.apps {
		if app.PostID == p.ID {
			delete(s.state.apps, id)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReportPost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var in struct {
		Reason string `json:"reason"`
	}
	if !readJSON(w, r, &in) {
		return
	}
	if strings.TrimSpace(in.Reason) == "" {
		writeFieldErrors(ctx, w, map[string][]string{"reason": {"This field may not be blank."}})
		return
	}

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	p, ok := s.postFromPath(w, r)
	if !ok {
		return
	}

	rep := &report{
		ID:       s.state.id(),
		PostID:   p.ID,
		Reason:   in.Reason,
		reporter: userFrom(ctx).ID,
	}
	s.state.reports = append(s.state.reports, rep)
	writeJSON(ctx, w, rep, http.StatusCreated)
}
