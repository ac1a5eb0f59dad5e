package session

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/pywhiz/pywhiz/internal/api"
	"github.com/pywhiz/pywhiz/internal/api/apitest"
	"github.com/pywhiz/pywhiz/internal/cache"
	"github.com/pywhiz/pywhiz/internal/domain"
)

const (
	userRoute    = "GET /auth/user/"
	refreshRoute = "POST /auth/token/refresh/"
)

type fixture struct {
	srv    *apitest.Server
	client *api.Client
	cache  cache.Store
	store  *Store
}

func newFixture(t *testing.T, creds CredentialStore) *fixture {
	t.Helper()
	srv := apitest.NewServer(t)
	srv.SeedDefault()

	client, err := api.New(api.Config{BaseURL: srv.URL(), HTTPClient: srv.Client()})
	if err != nil {
		t.Fatalf("api.New() error = %v", err)
	}
	flags := cache.NewMemoryStore()
	store := New(Config{Remote: client, Cache: flags, Credentials: creds})
	t.Cleanup(store.Wait)
	return &fixture{srv: srv, client: client, cache: flags, store: store}
}

func (f *fixture) login(t *testing.T) {
	t.Helper()
	if err := f.store.Login(context.Background(), apitest.DefaultEmail, apitest.DefaultPassword); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
}

func TestBootstrap_ExistingSession(t *testing.T) {
	f := newFixture(t, nil)
	if err := f.client.Login(context.Background(), apitest.DefaultEmail, apitest.DefaultPassword); err != nil {
		t.Fatalf("client Login() error = %v", err)
	}

	f.store.Bootstrap(context.Background())

	if !f.store.IsAuthenticated() {
		t.Fatal("IsAuthenticated() = false")
	}
	if f.store.Progress() == nil {
		t.Error("Progress() = nil after bootstrap")
	}
	if got := f.srv.Calls(refreshRoute); got != 0 {
		t.Errorf("refresh calls = %d, want 0", got)
	}
}

func TestBootstrap_RefreshesOnceThenRetries(t *testing.T) {
	f := newFixture(t, nil)
	f.client.Login(context.Background(), apitest.DefaultEmail, apitest.DefaultPassword)
	f.srv.ExpireSessions()

	f.store.Bootstrap(context.Background())

	if !f.store.IsAuthenticated() {
		t.Fatal("IsAuthenticated() = false after refresh")
	}
	if got := f.srv.Calls(userRoute); got != 2 {
		t.Errorf("user fetches = %d, want 2", got)
	}
	if got := f.srv.Calls(refreshRoute); got != 1 {
		t.Errorf("refresh calls = %d, want 1", got)
	}
}

func TestBootstrap_RefreshFailureSettlesAnonymous(t *testing.T) {
	f := newFixture(t, nil)
	f.client.Login(context.Background(), apitest.DefaultEmail, apitest.DefaultPassword)
	f.srv.ExpireSessions()
	f.srv.RevokeRefresh()

	f.store.Bootstrap(context.Background())

	if f.store.IsAuthenticated() {
		t.Fatal("IsAuthenticated() = true after failed refresh")
	}
	if f.store.CurrentUser() != nil || f.store.Progress() != nil {
		t.Error("anonymous session still holds user or progress")
	}
	if got := f.srv.Calls(userRoute); got != 1 {
		t.Errorf("user fetches = %d, want 1", got)
	}
	if got := f.srv.Calls(refreshRoute); got != 1 {
		t.Errorf("refresh calls = %d, want 1", got)
	}
}

func TestBootstrap_RefreshGuard(t *testing.T) {
	f := newFixture(t, nil)
	f.client.Login(context.Background(), apitest.DefaultEmail, apitest.DefaultPassword)
	f.srv.Fail(userRoute, http.StatusUnauthorized, -1)

	f.store.Bootstrap(context.Background())
	if f.store.IsAuthenticated() {
		t.Fatal("IsAuthenticated() = true")
	}
	if got := f.srv.Calls(userRoute); got != 2 {
		t.Errorf("user fetches = %d, want 2", got)
	}

	f.store.Bootstrap(context.Background())
	if got := f.srv.Calls(refreshRoute); got != 1 {
		t.Errorf("refresh calls after second bootstrap = %d, want 1", got)
	}
	if got := f.srv.Calls(userRoute); got != 3 {
		t.Errorf("user fetches after second bootstrap = %d, want 3", got)
	}
}

func TestBootstrap_ServerDown(t *testing.T) {
	f := newFixture(t, nil)
	f.client.Login(context.Background(), apitest.DefaultEmail, apitest.DefaultPassword)
	f.srv.Fail(userRoute, http.StatusServiceUnavailable, -1)

	f.store.Bootstrap(context.Background())

	if f.store.IsAuthenticated() {
		t.Error("IsAuthenticated() = true while server is down")
	}
	if got := f.srv.Calls(refreshRoute); got != 0 {
		t.Errorf("refresh calls = %d, want 0 for a non-auth failure", got)
	}
}

func TestBootstrap_RestoresSavedCredentials(t *testing.T) {
	creds, err := NewFileCredentials(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCredentials() error = %v", err)
	}
	f := newFixture(t, creds)
	f.login(t)

	client, _ := api.New(api.Config{BaseURL: f.srv.URL(), HTTPClient: f.srv.Client()})
	next := New(Config{Remote: client, Cache: cache.NewMemoryStore(), Credentials: creds})
	next.Bootstrap(context.Background())

	if user := next.CurrentUser(); user == nil || user.Email != apitest.DefaultEmail {
		t.Errorf("CurrentUser() after restore = %+v", user)
	}
}

func TestLogin(t *testing.T) {
	f := newFixture(t, nil)
	f.login(t)

	user := f.store.CurrentUser()
	if user == nil || user.Username != apitest.DefaultUsername {
		t.Fatalf("CurrentUser() = %+v", user)
	}
	p := f.store.Progress()
	if p == nil || p.CurrentMilestone == nil || p.CurrentMilestone.ID != "m1" {
		t.Errorf("Progress() = %+v", p)
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	f := newFixture(t, nil)

	err := f.store.Login(context.Background(), apitest.DefaultEmail, "nope")
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("Login() error = %v, want *AuthError", err)
	}
	if authErr.Error() != "No active account found with the given credentials" {
		t.Errorf("Error() = %q", authErr.Error())
	}
	if !errors.Is(err, domain.ErrAuth) || !errors.Is(err, domain.ErrUnauthorized) {
		t.Error("AuthError should match ErrAuth and wrap ErrUnauthorized")
	}
	if f.store.IsAuthenticated() {
		t.Error("IsAuthenticated() = true after failed login")
	}
	if got := f.srv.Calls("POST /auth/login/"); got != 1 {
		t.Errorf("login calls = %d, want 1 (no automatic retry)", got)
	}
}

func TestLogin_MissingFields(t *testing.T) {
	f := newFixture(t, nil)
	err := f.store.Login(context.Background(), "", "")
	if !errors.Is(err, domain.ErrAuth) || !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("Login() error = %v", err)
	}
}

func TestAccountFlows(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	if _, err := f.store.Signup(ctx, "grace", "grace@example.com", "123"); !errors.Is(err, domain.ErrAuth) {
		t.Errorf("Signup() with short password error = %v", err)
	}
	user, err := f.store.Signup(ctx, "grace", "grace@example.com", "hopper-1906")
	if err != nil || user == nil {
		t.Fatalf("Signup() = %+v, %v", user, err)
	}
	if _, err := f.store.VerifyEmail(ctx, "grace@example.com", "000000x"); !errors.Is(err, domain.ErrAuth) {
		t.Errorf("VerifyEmail() with wrong code error = %v", err)
	}
	if _, err := f.store.VerifyEmail(ctx, "grace@example.com", f.srv.OTP("grace@example.com")); err != nil {
		t.Fatalf("VerifyEmail() error = %v", err)
	}

	if _, err := f.store.RequestPasswordReset(ctx, "grace@example.com"); err != nil {
		t.Fatalf("RequestPasswordReset() error = %v", err)
	}
	if _, err := f.store.ResetPassword(ctx, "grace@example.com", f.srv.OTP("grace@example.com"), "new-password"); err != nil {
		t.Fatalf("ResetPassword() error = %v", err)
	}
	if err := f.store.Login(ctx, "grace@example.com", "new-password"); err != nil {
		t.Errorf("Login() with new password error = %v", err)
	}
}

func TestLogout_KeepsLocalCache(t *testing.T) {
	creds, _ := NewFileCredentials(t.TempDir())
	f := newFixture(t, creds)
	f.login(t)
	ctx := context.Background()

	f.store.MarkUnitComplete(ctx, domain.UnitVideo, "m1", "")
	f.store.Logout(ctx)

	if f.store.IsAuthenticated() || f.store.Progress() != nil {
		t.Error("session still holds state after logout")
	}
	if !cache.Flag(ctx, f.cache, domain.UnitVideo, "m1") {
		t.Error("logout removed the local cache flag")
	}
	if got := f.srv.Calls("POST /auth/logout/"); got != 1 {
		t.Errorf("logout calls = %d, want 1", got)
	}
	if saved, _ := creds.Load(); len(saved) != 0 {
		t.Errorf("saved credentials survive logout: %v", saved)
	}
}

func TestMarkUnitComplete_Idempotent(t *testing.T) {
	f := newFixture(t, nil)
	f.login(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := f.store.MarkUnitComplete(ctx, domain.UnitVideo, "m1", "v1"); err != nil {
			t.Fatalf("MarkUnitComplete() error = %v", err)
		}
	}
	f.store.Wait()
	f.store.MarkUnitComplete(ctx, domain.UnitVideo, "m1", "v1")
	f.store.Wait()

	if got := f.store.Progress().WatchedVideos.Len(); got != 1 {
		t.Errorf("watched_videos has %d entries, want 1", got)
	}
	if got := f.srv.Calls("POST /learn/milestones/m1/mark-video-watched/"); got != 1 {
		t.Errorf("remote marks = %d, want 1", got)
	}
	if f.store.Pending() != 0 {
		t.Errorf("Pending() = %d after confirmation", f.store.Pending())
	}
}

func TestMarkUnitComplete_RemoteFailureKeepsOptimisticState(t *testing.T) {
	f := newFixture(t, nil)
	f.login(t)
	ctx := context.Background()
	f.srv.Fail("POST /learn/milestones/m1/mark-code-completed/", http.StatusInternalServerError, -1)

	if err := f.store.MarkUnitComplete(ctx, domain.UnitCode, "m1", "c1"); err != nil {
		t.Fatalf("MarkUnitComplete() error = %v, want nil despite remote failure", err)
	}
	if !f.store.UnitCompleted(domain.UnitCode, "m1") {
		t.Error("unit not complete immediately after marking")
	}

	f.store.Wait()
	if err := f.store.RefreshProgress(ctx); err != nil {
		t.Fatalf("RefreshProgress() error = %v", err)
	}

	if !f.store.Progress().CompletedCode.Has("m1") {
		t.Error("optimistic completion was rolled back")
	}
	if !cache.Flag(ctx, f.cache, domain.UnitCode, "m1") {
		t.Error("cache flag missing")
	}
	if f.store.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", f.store.Pending())
	}
}

func TestMarkUnitComplete_Anonymous(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	if err := f.store.MarkUnitComplete(ctx, domain.UnitExercise, "m1", ""); err != nil {
		t.Fatalf("MarkUnitComplete() error = %v", err)
	}
	f.store.Wait()

	if !cache.Flag(ctx, f.cache, domain.UnitExercise, "m1") {
		t.Error("cache flag not written for anonymous learner")
	}
	if got := f.srv.Calls("POST /learn/milestones/m1/mark-exercise-completed/"); got != 0 {
		t.Errorf("remote marks = %d, want 0", got)
	}
}

func TestMarkUnitComplete_InvalidInput(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	if err := f.store.MarkUnitComplete(ctx, "lecture", "m1", ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("unknown kind error = %v", err)
	}
	if err := f.store.MarkUnitComplete(ctx, domain.UnitVideo, "", ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("empty milestone error = %v", err)
	}
}

func TestMarkUnitComplete_ServerCompletesMilestone(t *testing.T) {
	f := newFixture(t, nil)
	f.login(t)
	ctx := context.Background()

	for _, kind := range domain.UnitKinds {
		f.store.MarkUnitComplete(ctx, kind, "m1", "")
	}
	f.store.Wait()

	p := f.store.Progress()
	if !p.MilestoneCompleted("m1") {
		t.Error("completed_milestones does not contain m1")
	}
	if p.CurrentMilestone == nil || p.CurrentMilestone.Order != 2 {
		t.Errorf("current milestone = %+v, want order 2", p.CurrentMilestone)
	}
}

func TestResetProgress_All(t *testing.T) {
	f := newFixture(t, nil)
	f.login(t)
	ctx := context.Background()

	for _, kind := range domain.UnitKinds {
		f.store.MarkUnitComplete(ctx, kind, "m1", "")
	}
	f.store.MarkUnitComplete(ctx, domain.UnitVideo, "m2", "")
	f.cache.Set(ctx, cache.LastVisitedPageKey, "/code/m2")
	f.store.Wait()

	if err := f.store.ResetProgress(ctx, domain.ResetAll()); err != nil {
		t.Fatalf("ResetProgress() error = %v", err)
	}
	f.store.Wait()
	if err := f.store.RefreshProgress(ctx); err != nil {
		t.Fatalf("RefreshProgress() error = %v", err)
	}

	p := f.store.Progress()
	if len(p.CompletedMilestones) != 0 || p.WatchedVideos.Len() != 0 || p.CompletedCode.Len() != 0 || p.CompletedExercises.Len() != 0 {
		t.Errorf("progress not cleared: %+v", p)
	}
	if p.Score != 0 {
		t.Errorf("Score = %d, want 0", p.Score)
	}
	keys, _ := f.cache.Keys(ctx)
	if len(keys) != 0 {
		t.Errorf("cache keys after reset = %v", keys)
	}
}

func TestResetProgress_Milestone(t *testing.T) {
	f := newFixture(t, nil)
	f.login(t)
	ctx := context.Background()

	for _, id := range []string{"m1", "m2"} {
		f.store.MarkUnitComplete(ctx, domain.UnitVideo, id, "")
		f.store.MarkUnitComplete(ctx, domain.UnitCode, id, "")
	}
	f.store.Wait()

	if err := f.store.ResetProgress(ctx, domain.ResetMilestone("m1")); err != nil {
		t.Fatalf("ResetProgress() error = %v", err)
	}

	p := f.store.Progress()
	if p.WatchedVideos.Has("m1") || p.CompletedCode.Has("m1") {
		t.Error("m1 still present after milestone reset")
	}
	if !p.WatchedVideos.Has("m2") || !p.CompletedCode.Has("m2") {
		t.Error("milestone reset touched m2")
	}
	if cache.Flag(ctx, f.cache, domain.UnitVideo, "m1") || !cache.Flag(ctx, f.cache, domain.UnitVideo, "m2") {
		t.Error("cache reset did not match scope")
	}

	f.store.Wait()
	server := f.srv.ProgressOf(apitest.DefaultEmail)
	if server.WatchedVideos.Has("m1") || !server.WatchedVideos.Has("m2") {
		t.Errorf("server watched_videos = %v", server.WatchedVideos.Sorted())
	}
}

func TestResetProgress_InvalidScope(t *testing.T) {
	f := newFixture(t, nil)
	if err := f.store.ResetProgress(context.Background(), domain.ResetScope{}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("ResetProgress() error = %v", err)
	}
}

func TestSetCurrentMilestone_OnlyAdvances(t *testing.T) {
	f := newFixture(t, nil)
	f.login(t)
	ctx := context.Background()

	m3 := domain.Milestone{ID: "m3", Title: "Loops", Order: 3, IsActive: true}
	m2 := domain.Milestone{ID: "m2", Title: "Variables", Order: 2, IsActive: true}

	f.store.SetCurrentMilestone(ctx, m3)
	f.store.Wait()
	f.store.SetCurrentMilestone(ctx, m2)
	f.store.Wait()

	if got := f.store.Progress().CurrentMilestone.ID; got != "m3" {
		t.Errorf("current milestone = %s, want m3", got)
	}
	if got := f.srv.Calls("POST /learn/progress/update-milestone/"); got != 1 {
		t.Errorf("update-milestone calls = %d, want 1", got)
	}
	if v, _, _ := f.cache.Get(ctx, cache.CurrentMilestoneKey); v != "m2" {
		t.Errorf("cached current milestone = %q, want last write m2", v)
	}
}
