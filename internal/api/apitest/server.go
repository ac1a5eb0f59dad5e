// Package apitest provides an in-memory fake of the learning API for tests.
// It keeps accounts, the curriculum and per-user progress, aggregates
// milestone completion the way the real backend does, and lets tests
// inject failures and expire sessions.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/pywhiz/pywhiz/internal/domain"
)

// Default fixture credentials
const (
	DefaultEmail    = "ada@example.com"
	DefaultUsername = "ada"
	DefaultPassword = "correct-horse"
)

const (
	// PointsPerMilestone is awarded when a milestone is completed
	PointsPerMilestone = 10

	signingKey = "apitest-secret"
	csrfToken  = "apitest-csrf"
)

// MilestoneFixture is one milestone with its content and answers
type MilestoneFixture struct {
	Milestone domain.Milestone
	Learn     []domain.LearnContent
	Code      []domain.CodeQuestion
	Quiz      []domain.MCQQuestion

	// Solutions maps a code question id to the code the judge accepts
	Solutions map[string]string
}

type account struct {
	user     domain.User
	password string
	verified bool
	otp      string
	progress *domain.Progress
	attempts map[string]int
	// exercises keyed by id, in creation order
	exercises []*domain.PersonalizedExercise
}

type failure struct {
	status int
	times  int
}

// Server is a fake learning API backed by httptest
type Server struct {
	srv *httptest.Server

	mu         sync.Mutex
	accounts   map[string]*account
	nextUserID int
	milestones []MilestoneFixture
	generation int
	revoked    bool
	failures   map[string]*failure
	calls      map[string]int
	lastHeader map[string]http.Header
	checkCSRF  bool
	learnRoute string
}

// NewServer starts a fake API and closes it when the test ends
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		accounts:   make(map[string]*account),
		nextUserID: 1,
		failures:   make(map[string]*failure),
		calls:      make(map[string]int),
		lastHeader: make(map[string]http.Header),
		checkCSRF:  true,
		learnRoute: "learn-contents",
	}

	api := http.NewServeMux()
	s.routes(api)

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", s.intercept(api)))

	s.srv = httptest.NewServer(root)
	t.Cleanup(s.srv.Close)
	return s
}

// URL returns the API base URL, including the /api prefix
func (s *Server) URL() string {
	return s.srv.URL + "/api"
}

// Client returns an http.Client configured for the server
func (s *Server) Client() *http.Client {
	return s.srv.Client()
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /auth/login/{$}", s.handleLogin)
	mux.HandleFunc("POST /auth/register/{$}", s.handleRegister)
	mux.HandleFunc("POST /auth/verify-email/{$}", s.handleVerifyEmail)
	mux.HandleFunc("POST /auth/logout/{$}", s.authed(s.handleLogout))
	mux.HandleFunc("POST /auth/token/refresh/{$}", s.handleRefresh)
	mux.HandleFunc("GET /auth/user/{$}", s.authed(s.handleUser))
	mux.HandleFunc("POST /auth/password-reset-request/{$}", s.handlePasswordResetRequest)
	mux.HandleFunc("POST /auth/password-reset/{$}", s.handlePasswordReset)
	mux.HandleFunc("POST /auth/reset-progress/{$}", s.authed(s.handleResetProgress))

	mux.HandleFunc("GET /learn/milestones/{$}", s.authed(s.handleMilestones))
	mux.HandleFunc("GET /learn/milestones/{id}/learn-contents/{$}", s.authed(s.handleLearnContents))
	mux.HandleFunc("GET /learn/milestones/{id}/learn/{$}", s.authed(s.handleLearnContents))
	mux.HandleFunc("GET /learn/milestones/{id}/questions/{$}", s.authed(s.handleCodeQuestions))
	mux.HandleFunc("GET /learn/milestones/{id}/mcq-questions/{$}", s.authed(s.handleMCQQuestions))
	mux.HandleFunc("POST /learn/questions/{id}/submit/{$}", s.authed(s.handleSubmitCode))
	mux.HandleFunc("POST /learn/mcq-questions/{id}/submit/{$}", s.authed(s.handleSubmitMCQ))

	mux.HandleFunc("GET /learn/progress/{$}", s.authed(s.handleProgress))
	mux.HandleFunc("POST /learn/progress/update-milestone/{$}", s.authed(s.handleUpdateMilestone))
	mux.HandleFunc("POST /learn/milestones/{id}/mark-video-watched/{$}", s.authed(s.markHandler(domain.UnitVideo)))
	mux.HandleFunc("POST /learn/milestones/{id}/mark-code-completed/{$}", s.authed(s.markHandler(domain.UnitCode)))
	mux.HandleFunc("POST /learn/milestones/{id}/mark-exercise-completed/{$}", s.authed(s.markHandler(domain.UnitExercise)))

	mux.HandleFunc("GET /learn/personalized-exercises/{$}", s.authed(s.handleListExercises))
	mux.HandleFunc("POST /learn/personalized-exercises/{$}", s.authed(s.handleCreateExercise))
	mux.HandleFunc("POST /learn/personalized-exercises/{id}/submit/{$}", s.authed(s.handleSubmitExercise))
}

// -----------------------------------------------------------------------------
// Fixtures
// -----------------------------------------------------------------------------

// AddUser creates a verified account and returns its user
func (s *Server) AddUser(email, username, password string) domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct := s.newAccount(email, username, password)
	acct.verified = true
	return acct.user
}

func (s *Server) newAccount(email, username, password string) *account {
	acct := &account{
		user:     domain.User{ID: s.nextUserID, Username: username, Email: email},
		password: password,
		progress: domain.NewProgress(),
		attempts: make(map[string]int),
	}
	s.nextUserID++
	s.accounts[strings.ToLower(email)] = acct
	if first := s.firstMilestone(); first != nil {
		acct.progress.CurrentMilestone = first
	}
	return acct
}

// AddMilestone appends a milestone to the curriculum
func (s *Server) AddMilestone(f MilestoneFixture) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f.Solutions == nil {
		f.Solutions = make(map[string]string)
	}
	s.milestones = append(s.milestones, f)
	sort.SliceStable(s.milestones, func(i, j int) bool {
		return s.milestones[i].Milestone.Order < s.milestones[j].Milestone.Order
	})
	for _, acct := range s.accounts {
		if acct.progress.CurrentMilestone == nil {
			acct.progress.CurrentMilestone = s.firstMilestone()
		}
	}
}

// SeedCurriculum installs three milestones. m1 has lesson v1, code
// question c1 (solution "print('Hello, World!')") and a two question quiz
// with correct keys A and B.
func (s *Server) SeedCurriculum() {
	for i, title := range []string{"Hello Python", "Variables", "Loops"} {
		id := fmt.Sprintf("m%d", i+1)
		s.AddMilestone(MilestoneFixture{
			Milestone: domain.Milestone{
				ID:          id,
				Title:       title,
				Description: title + " basics",
				Order:       i + 1,
				IsActive:    true,
			},
			Learn: []domain.LearnContent{{
				ID:        i + 1,
				Milestone: id,
				Title:     title,
				VideoURL:  "https://videos.example.com/" + id + ".mp4",
				Order:     1,
			}},
			Code: []domain.CodeQuestion{{
				ID:          codeID(i),
				Milestone:   id,
				Question:    "Print a greeting",
				ExampleCode: "print('...')",
				Hint:        "Use print()",
			}},
			Quiz: []domain.MCQQuestion{
				{ID: fmt.Sprintf("q%d-1", i+1), Milestone: id, QuestionText: "Which function prints?", Options: map[string]string{"A": "print", "B": "echo", "C": "say"}, CorrectAnswer: "A", Order: 1},
				{ID: fmt.Sprintf("q%d-2", i+1), Milestone: id, QuestionText: "Which symbol starts a comment?", Options: map[string]string{"A": "//", "B": "#", "C": "--"}, CorrectAnswer: "B", Order: 2},
			},
			Solutions: map[string]string{codeID(i): "print('Hello, World!')"},
		})
	}
}

func codeID(i int) string {
	return fmt.Sprintf("c%d", i+1)
}

// SeedDefault installs the curriculum and the default verified user
func (s *Server) SeedDefault() domain.User {
	s.SeedCurriculum()
	return s.AddUser(DefaultEmail, DefaultUsername, DefaultPassword)
}

// OTP returns the last one-time code mailed to email
func (s *Server) OTP(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if acct, ok := s.accounts[strings.ToLower(email)]; ok {
		return acct.otp
	}
	return ""
}

// ProgressOf returns a copy of the server-side progress of a user
func (s *Server) ProgressOf(email string) *domain.Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[strings.ToLower(email)]
	if !ok {
		return nil
	}
	return s.progressView(acct)
}

// MarkUnit changes server-side progress directly, as another device would
func (s *Server) MarkUnit(email string, kind domain.UnitKind, milestoneID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if acct, ok := s.accounts[strings.ToLower(email)]; ok {
		s.mark(acct, kind, milestoneID, false)
	}
}

// -----------------------------------------------------------------------------
// Failure injection and inspection
// -----------------------------------------------------------------------------

// Fail makes the next n requests to route (e.g. "GET /auth/user/") answer
// with status. n < 0 fails until ClearFailures.
func (s *Server) Fail(route string, status, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = &failure{status: status, times: n}
}

// ClearFailures removes all injected failures
func (s *Server) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = make(map[string]*failure)
}

// ExpireSessions invalidates every access token issued so far
func (s *Server) ExpireSessions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
}

// RevokeRefresh makes token refresh fail
func (s *Server) RevokeRefresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked = true
}

// ServeLessonsAt selects which lesson route answers: "learn-contents"
// (default) or "learn". The other one returns 404.
func (s *Server) ServeLessonsAt(route string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.learnRoute = route
}

// DisableCSRF stops the server from checking the CSRF header
func (s *Server) DisableCSRF() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkCSRF = false
}

// Calls returns how many requests reached route, e.g. "POST /auth/token/refresh/"
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// LastHeader returns the headers of the last request to route
func (s *Server) LastHeader(route string) http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastHeader[route].Clone()
}

// intercept counts calls, applies injected failures and checks CSRF
func (s *Server) intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.Method + " " + r.URL.Path

		s.mu.Lock()
		s.calls[route]++
		s.lastHeader[route] = r.Header.Clone()
		f := s.failures[route]
		var status int
		if f != nil && f.times != 0 {
			status = f.status
			if f.times > 0 {
				f.times--
			}
		}
		checkCSRF := s.checkCSRF
		s.mu.Unlock()

		if status != 0 {
			writeError(w, status, "detail", "injected failure")
			return
		}

		if checkCSRF && r.Method != http.MethodGet {
			if ck, err := r.Cookie("csrftoken"); err == nil && r.Header.Get("X-CSRFToken") != ck.Value {
				writeError(w, http.StatusForbidden, "detail", "CSRF Failed: CSRF token missing.")
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// -----------------------------------------------------------------------------
// Tokens
// -----------------------------------------------------------------------------

func (s *Server) issueToken(email, kind string, ttl time.Duration) string {
	claims := jwt.MapClaims{
		"email": email,
		"type":  kind,
		"gen":   s.generation,
		"jti":   uuid.New().String(),
		"exp":   time.Now().Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, _ := token.SignedString([]byte(signingKey))
	return signed
}

func (s *Server) parseToken(raw, kind string) (string, bool) {
	token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(signingKey), nil
	})
	if err != nil || !token.Valid {
		return "", false
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["type"] != kind {
		return "", false
	}
	if kind == "access" {
		gen, _ := claims["gen"].(float64)
		if int(gen) != s.generation {
			return "", false
		}
	}
	email, _ := claims["email"].(string)
	return email, email != ""
}

func (s *Server) setSessionCookies(w http.ResponseWriter, email string, withRefresh bool) {
	http.SetCookie(w, &http.Cookie{Name: "access_token", Value: s.issueToken(email, "access", 5*time.Minute), Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode})
	if withRefresh {
		http.SetCookie(w, &http.Cookie{Name: "refresh_token", Value: s.issueToken(email, "refresh", 24*time.Hour), Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode})
		http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: csrfToken, Path: "/", SameSite: http.SameSiteLaxMode})
	}
}

type authedHandler func(w http.ResponseWriter, r *http.Request, acct *account)

// authed resolves the account from the access_token cookie. The handler
// runs with s.mu held.
func (s *Server) authed(h authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()

		ck, err := r.Cookie("access_token")
		if err != nil {
			writeError(w, http.StatusUnauthorized, "detail", "Authentication credentials were not provided.")
			return
		}
		email, ok := s.parseToken(ck.Value, "access")
		if !ok {
			writeError(w, http.StatusUnauthorized, "detail", "Given token not valid for any token type")
			return
		}
		acct, ok := s.accounts[strings.ToLower(email)]
		if !ok {
			writeError(w, http.StatusUnauthorized, "detail", "User not found")
			return
		}
		h(w, r, acct)
	}
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, field, message string) {
	writeJSON(w, status, map[string]string{field: message})
}

func decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func (s *Server) milestonesLocked() []domain.Milestone {
	out := make([]domain.Milestone, len(s.milestones))
	for i, f := range s.milestones {
		out[i] = f.Milestone
	}
	return out
}

func (s *Server) fixture(id string) (*MilestoneFixture, bool) {
	for i := range s.milestones {
		if s.milestones[i].Milestone.ID == id {
			return &s.milestones[i], true
		}
	}
	return nil, false
}

func (s *Server) firstMilestone() *domain.Milestone {
	ms := domain.ActiveMilestones(s.milestonesLocked())
	if len(ms) == 0 {
		return nil
	}
	m := ms[0]
	return &m
}

func (s *Server) progressView(acct *account) *domain.Progress {
	p := acct.progress.Clone()
	u := acct.user
	p.User = &u
	return p
}
