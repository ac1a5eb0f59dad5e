// Package session is the session and identity provider: it owns the
// logged-in user and their progress for the lifetime of the process.
//
// Progress is held in two tiers. The authoritative snapshot is the last
// progress record confirmed by the server; the overlay holds units marked
// complete locally whose remote update has not been confirmed yet. Reads
// merge the two with a boolean OR.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/felixgeelhaar/fortify/bulkhead"
	"github.com/pywhiz/pywhiz/internal/api"
	"github.com/pywhiz/pywhiz/internal/cache"
	"github.com/pywhiz/pywhiz/internal/domain"
)

// Remote is the part of the learning API the session depends on
type Remote interface {
	Login(ctx context.Context, email, password string) error
	Logout(ctx context.Context) error
	RefreshToken(ctx context.Context) error
	CurrentUser(ctx context.Context) (*domain.User, error)
	Register(ctx context.Context, req api.RegisterRequest) (*api.RegisterResponse, error)
	VerifyEmail(ctx context.Context, email, otp string) (string, error)
	RequestPasswordReset(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, email, otp, newPassword string) (string, error)

	Progress(ctx context.Context) (*domain.Progress, error)
	MarkUnit(ctx context.Context, kind domain.UnitKind, milestoneID string, reset bool) error
	ResetProgress(ctx context.Context) error
	UpdateCurrentMilestone(ctx context.Context, milestoneID string) error

	Cookies() []*http.Cookie
	RestoreCookies(cookies []*http.Cookie)
	ClearCookies() error
}

var _ Remote = (*api.Client)(nil)

// Config contains the collaborators of a Store
type Config struct {
	Remote      Remote
	Cache       cache.Store
	Credentials CredentialStore // optional
	Logger      *slog.Logger

	// MaxInFlight bounds concurrent background remote calls (default: 4)
	MaxInFlight int
}

// Store is the session/identity provider. It is safe for concurrent use.
type Store struct {
	remote   Remote
	cache    cache.Store
	creds    CredentialStore
	logger   *slog.Logger
	bulkhead bulkhead.Bulkhead[struct{}]
	wg       sync.WaitGroup

	mu               sync.RWMutex
	user             *domain.User
	authoritative    *domain.Progress
	overlay          map[domain.UnitKind]domain.IDSet
	epoch            uint64
	fetchSeq         uint64
	adoptedSeq       uint64
	refreshAttempted bool
}

// New creates a Store. Call Bootstrap before reading state.
func New(cfg Config) *Store {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxInFlight := cfg.MaxInFlight
	if maxInFlight <= 0 {
		maxInFlight = 4
	}

	return &Store{
		remote: cfg.Remote,
		cache:  cfg.Cache,
		creds:  cfg.Credentials,
		logger: logger,
		bulkhead: bulkhead.New[struct{}](bulkhead.Config{
			MaxConcurrent: maxInFlight,
			MaxQueue:      maxInFlight * 16,
			QueueTimeout:  time.Minute,
		}),
		overlay: newOverlay(),
	}
}

func newOverlay() map[domain.UnitKind]domain.IDSet {
	o := make(map[domain.UnitKind]domain.IDSet, len(domain.UnitKinds))
	for _, kind := range domain.UnitKinds {
		o[kind] = domain.NewIDSet()
	}
	return o
}

// Cache returns the local fallback cache shared with the page controllers
func (s *Store) Cache() cache.Store {
	return s.cache
}

// -----------------------------------------------------------------------------
// Reads
// -----------------------------------------------------------------------------

// CurrentUser returns the logged-in user, or nil when anonymous
func (s *Store) CurrentUser() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// IsAuthenticated reports whether a user is logged in
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

// Progress returns the merged view of authoritative and optimistic
// progress, or nil when anonymous
func (s *Store) Progress() *domain.Progress {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mergedLocked()
}

// UnitCompleted reports whether the merged view holds the unit
func (s *Store) UnitCompleted(kind domain.UnitKind, milestoneID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.overlay[kind].Has(milestoneID) {
		return true
	}
	return s.authoritative.UnitCompleted(kind, milestoneID)
}

// Pending returns the number of locally completed units awaiting confirmation
func (s *Store) Pending() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, ids := range s.overlay {
		n += ids.Len()
	}
	return n
}

func (s *Store) mergedLocked() *domain.Progress {
	if s.user == nil || s.authoritative == nil {
		return nil
	}
	p := s.authoritative.Clone()
	p.Normalize()
	for kind, ids := range s.overlay {
		units := p.Units(kind)
		for id := range ids {
			units.Add(id)
		}
	}
	return p
}

// adoptLocked installs a server snapshot and drops overlay entries the
// server now confirms
func (s *Store) adoptLocked(p *domain.Progress) {
	p.Normalize()
	if p.User == nil && s.user != nil {
		u := *s.user
		p.User = &u
	}
	s.authoritative = p
	for kind, ids := range s.overlay {
		for id := range ids {
			if p.Units(kind).Has(id) {
				ids.Remove(id)
			}
		}
	}
}

// -----------------------------------------------------------------------------
// Identity
// -----------------------------------------------------------------------------

// Bootstrap resolves the session at application start. When the user fetch
// is rejected as unauthorized it refreshes the token once and retries once;
// any remaining failure leaves the session anonymous without an error.
func (s *Store) Bootstrap(ctx context.Context) {
	s.restoreCredentials()

	user, err := s.remote.CurrentUser(ctx)
	if errors.Is(err, domain.ErrUnauthorized) && s.markRefreshAttempt() {
		if rerr := s.remote.RefreshToken(ctx); rerr != nil {
			err = rerr
		} else {
			user, err = s.remote.CurrentUser(ctx)
		}
	}
	if err != nil {
		s.logger.Info("session bootstrap fell back to anonymous", "error", err)
		s.clearIdentity()
		return
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
	s.saveCredentials()

	if err := s.RefreshProgress(ctx); err != nil {
		s.logger.Warn("progress fetch failed", "error", err)
	}
}

// markRefreshAttempt sets the refresh guard, reporting whether this call
// was the first to do so
func (s *Store) markRefreshAttempt() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refreshAttempted {
		return false
	}
	s.refreshAttempted = true
	return true
}

// Login authenticates and loads the user and their progress. Failures are
// returned as *AuthError and never retried.
func (s *Store) Login(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return authError("login", fmt.Errorf("%w: email and password are required", domain.ErrInvalidInput))
	}
	if err := s.remote.Login(ctx, email, password); err != nil {
		return authError("login", err)
	}
	user, err := s.remote.CurrentUser(ctx)
	if err != nil {
		return authError("login", err)
	}

	s.mu.Lock()
	s.user = user
	s.authoritative = nil
	s.overlay = newOverlay()
	s.epoch++
	s.refreshAttempted = false
	s.mu.Unlock()
	s.saveCredentials()

	if err := s.RefreshProgress(ctx); err != nil {
		s.logger.Warn("progress fetch failed", "error", err)
	}
	return nil
}

// Signup creates an account; the backend mails a verification code
func (s *Store) Signup(ctx context.Context, username, email, password string) (*domain.User, error) {
	resp, err := s.remote.Register(ctx, api.RegisterRequest{Username: username, Email: email, Password: password})
	if err != nil {
		return nil, authError("signup", err)
	}
	return resp.User, nil
}

// VerifyEmail confirms an address with its one-time code
func (s *Store) VerifyEmail(ctx context.Context, email, otp string) (string, error) {
	msg, err := s.remote.VerifyEmail(ctx, email, otp)
	if err != nil {
		return "", authError("verify email", err)
	}
	return msg, nil
}

// RequestPasswordReset mails a one-time code
func (s *Store) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	msg, err := s.remote.RequestPasswordReset(ctx, email)
	if err != nil {
		return "", authError("password reset request", err)
	}
	return msg, nil
}

// ResetPassword sets a new password with the mailed one-time code
func (s *Store) ResetPassword(ctx context.Context, email, otp, newPassword string) (string, error) {
	msg, err := s.remote.ResetPassword(ctx, email, otp, newPassword)
	if err != nil {
		return "", authError("password reset", err)
	}
	return msg, nil
}

// Logout clears the in-memory user and progress, then tells the server.
// The local fallback cache is left alone.
func (s *Store) Logout(ctx context.Context) {
	s.Wait()
	s.clearIdentity()

	if err := s.remote.Logout(ctx); err != nil {
		s.logger.Warn("remote logout failed", "error", err)
	}
	if err := s.remote.ClearCookies(); err != nil {
		s.logger.Warn("clear cookies failed", "error", err)
	}
	if s.creds != nil {
		if err := s.creds.Clear(); err != nil {
			s.logger.Warn("clear saved credentials failed", "error", err)
		}
	}
}

func (s *Store) clearIdentity() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.authoritative = nil
	s.overlay = newOverlay()
	s.epoch++
}

func (s *Store) restoreCredentials() {
	if s.creds == nil {
		return
	}
	cookies, err := s.creds.Load()
	if err != nil {
		s.logger.Warn("load saved credentials failed", "error", err)
		return
	}
	if len(cookies) > 0 {
		s.remote.RestoreCookies(cookies)
	}
}

func (s *Store) saveCredentials() {
	if s.creds == nil {
		return
	}
	if err := s.creds.Save(s.remote.Cookies()); err != nil {
		s.logger.Warn("save credentials failed", "error", err)
	}
}

// -----------------------------------------------------------------------------
// Progress
// -----------------------------------------------------------------------------

// RefreshProgress fetches the authoritative snapshot. A snapshot is
// discarded when it was fetched across a local reset or when a fetch
// started later has already been adopted.
func (s *Store) RefreshProgress(ctx context.Context) error {
	s.mu.Lock()
	if s.user == nil {
		s.mu.Unlock()
		return domain.ErrNotAuthenticated
	}
	s.fetchSeq++
	seq, epoch := s.fetchSeq, s.epoch
	s.mu.Unlock()

	p, err := s.remote.Progress(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		if s.authoritative == nil && s.user != nil {
			s.adoptLocked(domain.NewProgress())
		}
		return fmt.Errorf("fetch progress: %w", err)
	}
	if s.epoch != epoch || s.user == nil || seq < s.adoptedSeq {
		return nil
	}
	s.adoptedSeq = seq
	s.adoptLocked(p)
	return nil
}

// MarkUnitComplete records a completed unit. The cache flag is written
// first; for a logged-in user the unit joins the optimistic overlay and the
// server is told in the background. Remote failures are logged and never
// rolled back. unitID only annotates the log.
func (s *Store) MarkUnitComplete(ctx context.Context, kind domain.UnitKind, milestoneID, unitID string) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: unknown unit kind %q", domain.ErrInvalidInput, kind)
	}
	if milestoneID == "" {
		return fmt.Errorf("%w: milestone id is required", domain.ErrInvalidInput)
	}

	if s.cache != nil {
		if err := cache.SetFlag(ctx, s.cache, kind, milestoneID); err != nil {
			s.logger.Warn("cache write failed", "kind", kind, "milestone_id", milestoneID, "error", err)
		}
	}

	s.mu.Lock()
	if s.user == nil {
		s.mu.Unlock()
		return nil
	}
	if s.overlay[kind].Has(milestoneID) || s.authoritative.UnitCompleted(kind, milestoneID) {
		s.mu.Unlock()
		return nil
	}
	s.overlay[kind].Add(milestoneID)
	s.mu.Unlock()

	s.background(ctx, "mark unit", func(ctx context.Context) error {
		return s.remote.MarkUnit(ctx, kind, milestoneID, false)
	}, "kind", kind, "milestone_id", milestoneID, "unit_id", unitID)
	return nil
}

// ResetProgress clears progress for every milestone or for one milestone.
// A milestone reset removes only that id from the three unit sets; the
// completed milestone list is left to the server.
func (s *Store) ResetProgress(ctx context.Context, scope domain.ResetScope) error {
	if err := scope.Validate(); err != nil {
		return err
	}

	if s.cache != nil {
		var err error
		if scope.All {
			err = cache.ClearAll(ctx, s.cache)
		} else {
			err = cache.ClearMilestone(ctx, s.cache, scope.MilestoneID)
		}
		if err != nil {
			s.logger.Warn("cache reset failed", "scope", scope.String(), "error", err)
		}
	}

	s.mu.Lock()
	if s.user == nil {
		s.mu.Unlock()
		return nil
	}
	s.epoch++
	if scope.All {
		cleared := domain.NewProgress()
		if s.authoritative != nil {
			cleared.User = s.authoritative.User
		}
		s.authoritative = cleared
		s.overlay = newOverlay()
	} else {
		if s.authoritative != nil {
			s.authoritative.Normalize()
			for _, kind := range domain.UnitKinds {
				s.authoritative.Units(kind).Remove(scope.MilestoneID)
			}
		}
		for _, ids := range s.overlay {
			ids.Remove(scope.MilestoneID)
		}
	}
	s.mu.Unlock()

	if scope.All {
		s.background(ctx, "reset progress", s.remote.ResetProgress, "scope", "all")
		return nil
	}

	id := scope.MilestoneID
	s.background(ctx, "reset milestone", func(ctx context.Context) error {
		var errs []error
		for _, kind := range domain.UnitKinds {
			if err := s.remote.MarkUnit(ctx, kind, id, true); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", kind, err))
			}
		}
		return errors.Join(errs...)
	}, "scope", id)
	return nil
}

// SetCurrentMilestone records the milestone the learner moved to. The
// in-memory current milestone only ever advances.
func (s *Store) SetCurrentMilestone(ctx context.Context, m domain.Milestone) {
	if s.cache != nil {
		if err := s.cache.Set(ctx, cache.CurrentMilestoneKey, m.ID); err != nil {
			s.logger.Warn("cache write failed", "key", cache.CurrentMilestoneKey, "error", err)
		}
	}

	s.mu.Lock()
	if s.user == nil || s.authoritative == nil {
		s.mu.Unlock()
		return
	}
	current := s.authoritative.CurrentMilestone
	if current != nil && current.Order >= m.Order {
		s.mu.Unlock()
		return
	}
	next := m
	s.authoritative.CurrentMilestone = &next
	s.mu.Unlock()

	s.background(ctx, "update current milestone", func(ctx context.Context) error {
		return s.remote.UpdateCurrentMilestone(ctx, m.ID)
	}, "milestone_id", m.ID)
}

// background runs a fire-and-forget remote call bounded by the bulkhead.
// The call outlives ctx cancellation. On success the authoritative
// snapshot is re-fetched; every failure is only logged.
func (s *Store) background(ctx context.Context, op string, fn func(ctx context.Context) error, attrs ...any) {
	bctx := context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		_, err := s.bulkhead.Execute(bctx, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, fn(ctx)
		})
		if err != nil {
			s.logger.Warn(op+" failed", append(attrs, "error", err)...)
			return
		}
		s.logger.Debug(op+" confirmed", attrs...)

		if err := s.RefreshProgress(bctx); err != nil && !errors.Is(err, domain.ErrNotAuthenticated) {
			s.logger.Warn("progress refresh failed", append(attrs, "error", err)...)
		}
	}()
}

// Wait blocks until all background remote calls have finished
func (s *Store) Wait() {
	s.wg.Wait()
}
