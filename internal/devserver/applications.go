package devserver

import (
	"cmp"
	"io"
	"net/http"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"unicode"
)

// Application statuses.
const (
	statusPending  = "pending"
	statusAccepted = "accepted"
	statusRejected = "rejected"
)

const (
	// maxUploadBytes bounds CV uploads.
	maxUploadBytes = 10 << 20
	// eligibleScore is the similarity needed to unlock the interview.
	eligibleScore = 0.3
	// interviewTimeLimit is the answering time in seconds.
	interviewTimeLimit = 600
	// placeholderScore is returned by the evaluation endpoint for every interview.
	placeholderScore = 5.0
)

// applicationFor finds the caller's application to postID. Callers hold mu.
func (s *state) applicationFor(userID, postID int) *application {
	for _, app := range s.apps {
		if app.userID == userID && app.PostID == postID {
			return app
		}
	}
	return nil
}

func (s *Server) handleUploadCV(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := userFrom(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeDetail(ctx, w, "Invalid multipart upload.", http.StatusBadRequest)
		return
	}

	postID, err := strconv.Atoi(r.FormValue("post_id"))
	if err != nil {
		writeFieldErrors(ctx, w, map[string][]string{"post_id": {"A valid integer is required."}})
		return
	}

	file, header, err := r.FormFile("cv")
	if err != nil {
		writeFieldErrors(ctx, w, map[string][]string{"cv": {"No file was submitted."}})
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		writeDetail(ctx, w, "Reading upload failed.", http.StatusBadRequest)
		return
	}

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	p, ok := s.state.posts[postID]
	if !ok {
		writeDetail(ctx, w, "No Post matches the given query.", http.StatusNotFound)
		return
	}

	app := s.state.applicationFor(caller.ID, postID)
	if app == nil {
		app = &application{
			ID:        s.state.id(),
			PostID:    postID,
			PostTitle: p.Title,
			Applicant: caller.Email,
			Status:    statusPending,
			CreatedAt: s.state.now(),
			userID:    caller.ID,
		}
		s.state.apps[app.ID] = app
	}
	app.cv = data

	writeJSON(ctx, w, map[string]any{
		"id":             s.state.id(),
		"post_id":        postID,
		"file":           "/media/cvs/" + filepath.Base(header.Filename),
		"application_id": app.ID,
	}, http.StatusCreated)
}

func (s *Server) handleCompareCV(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := userFrom(ctx)

	var in struct {
		PostID int `json:"post_id"`
	}
	if !readJSON(w, r, &in) {
		return
	}

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	p, ok := s.state.posts[in.PostID]
	if !ok {
		writeDetail(ctx, w, "No Post matches the given query.", http.StatusNotFound)
		return
	}
	app := s.state.applicationFor(caller.ID, in.PostID)
	if app == nil || len(app.cv) == 0 {
		writeDetail(ctx, w, "Upload a CV for this post first.", http.StatusBadRequest)
		return
	}

	app.Score = overlap(string(app.cv), p.Title+" "+p.Description+" "+p.Requirements)
	writeJSON(ctx, w, map[string]any{
		"post_id":          p.ID,
		"similarity_score": app.Score,
		"eligible":         app.Score >= eligibleScore,
	}, http.StatusOK)
}

// overlap is the share of distinct post keywords that also occur in the CV.
func overlap(cv, post string) float64 {
	have := make(map[string]struct{})
	for _, w := range keywords(cv) {
		have[w] = struct{}{}
	}

	want := make(map[string]struct{})
	for _, w := range keywords(post) {
		want[w] = struct{}{}
	}
	if len(want) == 0 {
		return 0
	}

	var hits int
	for w := range want {
		if _, ok := have[w]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(want))
}

func keywords(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#'
	})
	return slices.DeleteFunc(words, func(w string) bool { return len(w) < 3 })
}

func (s *Server) handleSaveInterview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := userFrom(ctx)

	var in struct {
		PostID int `json:"post_id"`
	}
	if !readJSON(w, r, &in) {
		return
	}

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	p, ok := s.state.posts[in.PostID]
	if !ok {
		writeDetail(ctx, w, "No Post matches the given query.", http.StatusNotFound)
		return
	}
	if s.state.applicationFor(caller.ID, in.PostID) == nil {
		writeDetail(ctx, w, "Apply to this post before starting the interview.", http.StatusBadRequest)
		return
	}
	if iv := s.state.interviewFor(caller.ID, in.PostID); iv != nil {
		writeJSON(ctx, w, iv, http.StatusOK)
		return
	}

	iv := &interview{
		ID:        s.state.id(),
		PostID:    p.ID,
		TimeLimit: interviewTimeLimit,
		userID:    caller.ID,
	}
	for _, text := range []string{
		"Describe your experience relevant to the " + p.Title + " role.",
		"Which of the listed requirements do you meet best, and how?",
		"Tell us about a difficult problem you solved recently.",
		"Why do you want to work as " + p.Title + "?",
	} {
		iv.Questions = append(iv.Questions, question{ID: s.state.id(), Text: text})
	}
	s.state.interviews[iv.ID] = iv

	writeJSON(ctx, w, iv, http.StatusCreated)
}

// interviewFor finds the caller's interview for postID. Callers hold mu.
func (s *state) interviewFor(userID, postID int) *interview {
	for _, iv := range s.interviews {
		if iv.userID == userID && iv.PostID == postID {
			return iv
		}
	}
	return nil
}

func (s *Server) handleInterview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var in struct {
		PostID int `json:"post_id"`
	}
	if !readJSON(w, r, &in) {
		return
	}

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	iv := s.state.interviewFor(userFrom(ctx).ID, in.PostID)
	if iv == nil {
		writeDetail(ctx, w, "No interview found for this post.", http.StatusNotFound)
		return
	}
	writeJSON(ctx, w, iv, http.StatusOK)
}

func (s *Server) handleSubmitInterview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var in struct {
		InterviewID int      `json:"interview_id"`
		Responses   []answer `json:"responses"`
	}
	if !readJSON(w, r, &in) {
		return
	}

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	iv, ok := s.state.interviews[in.InterviewID]
	if !ok || iv.userID != userFrom(ctx).ID {
		writeDetail(ctx, w, "No interview found.", http.StatusNotFound)
		return
	}
	if iv.Submitted {
		writeDetail(ctx, w, "Interview already submitted.", http.StatusBadRequest)
		return
	}

	known := make(map[int]bool, len(iv.Questions))
	for _, q := range iv.Questions {
		known[q.ID] = true
	}
	for _, a := range in.Responses {
		if !known[a.QuestionID] {
			writeFieldErrors(ctx, w, map[string][]string{"responses": {"Unknown question " + strconv.Itoa(a.QuestionID) + "."}})
			return
		}
	}

	iv.responses = in.Responses
	iv.Submitted = true
	writeDetail(ctx, w, "Responses submitted successfully.", http.StatusOK)
}

func (s *Server) handleEvaluateResponses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := userFrom(ctx)

	var in struct {
		InterviewID int `json:"interview_id"`
	}
	if !readJSON(w, r, &in) {
		return
	}

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	iv, ok := s.state.interviews[in.InterviewID]
	if !ok {
		writeDetail(ctx, w, "No interview found.", http.StatusNotFound)
		return
	}
	if iv.userID != caller.ID && caller.Role == roleEmployee {
		writeDetail(ctx, w, "You do not have permission to perform this action.", http.StatusForbidden)
		return
	}
	if !iv.Submitted {
		writeDetail(ctx, w, "Interview has not been submitted.", http.StatusBadRequest)
		return
	}

	writeJSON(ctx, w, map[string]any{
		"interview_id": iv.ID,
		"score":        placeholderScore,
		"feedback":     "Evaluation is not available on the development server.",
	}, http.StatusOK)
}

func (s *Server) handleApplications(w http.ResponseWriter, r *http.Request) {
	caller := userFrom(r.Context())

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	out := make([]*application, 0)
	for _, app := range s.state.apps {
		switch caller.Role {
		case roleEmployee:
			if app.userID != caller.ID {
				continue
			}
		case roleEmployer:
			p, ok := s.state.posts[app.PostID]
			if !ok || p.CreatedBy != caller.ID {
				continue
			}
		}
		out = append(out, app)
	}
	slices.SortFunc(out, func(a, b *application) int { return cmp.Compare(a.ID, b.ID) })

	writeJSON(r.Context(), w, out, http.StatusOK)
}

func (s *Server) handleUpdateApplication(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var in struct {
		ApplicationID int    `json:"application_id"`
		Status        string `json:"status"`
	}
	if !readJSON(w, r, &in) {
		return
	}
	if in.Status != statusAccepted && in.Status != statusRejected {
		writeFieldErrors(ctx, w, map[string][]string{"status": {`"` + in.Status + `" is not a valid choice.`}})
		return
	}

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	app, ok := s.state.apps[in.ApplicationID]
	if !ok {
		writeDetail(ctx, w, "Application not found.", http.StatusNotFound)
		return
	}
	p, ok := s.state.posts[app.PostID]
	if !ok || !canEdit(userFrom(ctx), p) {
		writeDetail(ctx, w, "You do not have permission to perform this action.", http.StatusForbidden)
		return
	}

	app.Status = in.Status
	writeJSON(ctx, w, app, http.StatusOK)
}
