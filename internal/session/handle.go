package session

import (
	"context"
	"sync"

	"github.com/inboxpilot/gateway/internal/logger"
)

const (
	// DefaultLandingPath is where an authenticated user lands after login
	DefaultLandingPath = "/dashboard"
	// PlanConfirmPath is the confirmation page for a remembered plan selection
	PlanConfirmPath = "/checkout/confirm"
)

// pendingRefresh is the shared handle for one in-flight token refresh.
// Late arrivals wait on done instead of triggering their own exchange.
type pendingRefresh struct {
	done chan struct{}
	err  error
}

// Handle is the injectable session-context object: the single source of
// truth for one session's state. It serializes mutations, persists the
// durable subset after every transition, and mirrors token cookies onto
// whichever response the mutation's context carries (see WithMirror).
type Handle struct {
	mu        sync.Mutex
	id        string
	state     Session
	persister Persister

	refreshMu sync.Mutex
	refresh   *pendingRefresh
}

// NewHandle creates a handle for the given session ID. Call Hydrate before
// serving reads from it.
func NewHandle(id string, persister Persister) *Handle {
	return &Handle{
		id:        id,
		persister: persister,
	}
}

// ID returns the stable session identifier
func (h *Handle) ID() string {
	return h.id
}

// Snapshot returns a copy of the current session state for reads
func (h *Handle) Snapshot() Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// AccessToken returns the current access token, empty when logged out
func (h *Handle) AccessToken() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state.Tokens.AccessToken
}

// RefreshToken returns the current refresh token, empty when absent
func (h *Handle) RefreshToken() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state.Tokens.RefreshToken
}

// Hydrate loads the persisted subset into memory. Storage is best-effort:
// HasHydrated becomes true even when the load fails, leaving the default
// empty session in place. A mutation that lands while the load is in flight
// wins: the stale blob is discarded instead of clobbering live state.
func (h *Handle) Hydrate(ctx context.Context) {
	state, err := h.persister.Load(ctx, h.id)

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state.HasHydrated {
		return
	}

	if err != nil {
		logger.Warn(logger.SESSION, "Failed to load persisted session %s: %v", h.id, err)
	} else if state != nil {
		h.state.User = state.User
		h.state.IsAuthenticated = state.IsAuthenticated && state.User != nil
		h.state.PendingPlan = state.PendingPlan
	}

	h.state.HasHydrated = true
}

// Login applies a successful exchange: state transition, cookie mirror,
// persistence
func (h *Handle) Login(ctx context.Context, tokens Tokens, user User) error {
	h.mu.Lock()
	h.state.Login(tokens, user)
	h.state.HasHydrated = true
	if mirror := mirrorFrom(ctx); mirror != nil {
		mirror.SetTokens(tokens)
	}
	h.mu.Unlock()

	return h.persist(ctx)
}

// Logout clears state, expires the mirrored cookies, and drops the
// persisted record
func (h *Handle) Logout(ctx context.Context) error {
	h.mu.Lock()
	h.state.Logout()
	h.state.HasHydrated = true
	if mirror := mirrorFrom(ctx); mirror != nil {
		mirror.ClearTokens()
	}
	h.mu.Unlock()

	return h.persister.Delete(ctx, h.id)
}

// Clear wipes local session persistence after a terminal refresh failure
func (h *Handle) Clear(ctx context.Context) error {
	return h.Logout(ctx)
}

// UpdateUser replaces the identity record after a profile edit
func (h *Handle) UpdateUser(ctx context.Context, user User) error {
	h.mu.Lock()
	h.state.UpdateUser(user)
	h.state.HasHydrated = true
	h.mu.Unlock()

	return h.persist(ctx)
}

// SetPendingPlan remembers a plan selection across the login redirect
func (h *Handle) SetPendingPlan(ctx context.Context, tier, cycle string) error {
	h.mu.Lock()
	h.state.SetPendingPlan(tier, cycle)
	h.state.HasHydrated = true
	h.mu.Unlock()

	return h.persist(ctx)
}

// ClearPendingPlan discards the remembered plan selection
func (h *Handle) ClearPendingPlan(ctx context.Context) error {
	h.mu.Lock()
	h.state.ClearPendingPlan()
	h.state.HasHydrated = true
	h.mu.Unlock()

	return h.persist(ctx)
}

// PostLoginRedirect consumes a pending plan selection and returns the path
// the user should land on after authentication
func (h *Handle) PostLoginRedirect(ctx context.Context) string {
	h.mu.Lock()
	plan := h.state.PendingPlan
	if plan != nil {
		h.state.ClearPendingPlan()
	}
	h.mu.Unlock()

	if plan == nil {
		return DefaultLandingPath
	}

	if err := h.persist(ctx); err != nil {
		logger.Warn(logger.SESSION, "Failed to persist cleared pending plan: %v", err)
	}

	return PlanConfirmPath + "?tier=" + plan.Tier + "&cycle=" + plan.Cycle
}

// RefreshWith runs at most one token exchange per session at a time.
// Concurrent callers attach to the in-flight refresh and share its outcome.
// On success the new tokens replace the old set and re-mirror onto the
// triggering request's response; the user record and persisted subset stay
// untouched.
func (h *Handle) RefreshWith(ctx context.Context, exchange func(ctx context.Context, refreshToken string) (Tokens, error)) error {
	h.refreshMu.Lock()
	if h.refresh != nil {
		pending := h.refresh
		h.refreshMu.Unlock()

		select {
		case <-pending.done:
			// Project the shared outcome onto this request's own response
			if pending.err == nil {
				if mirror := mirrorFrom(ctx); mirror != nil {
					mirror.SetTokens(h.Snapshot().Tokens)
				}
			}
			return pending.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	pending := &pendingRefresh{done: make(chan struct{})}
	h.refresh = pending
	h.refreshMu.Unlock()

	tokens, err := exchange(ctx, h.RefreshToken())
	if err == nil {
		h.mu.Lock()
		h.state.RefreshTokens(tokens)
		if mirror := mirrorFrom(ctx); mirror != nil {
			mirror.SetTokens(tokens)
		}
		h.mu.Unlock()
		logger.Info(logger.SESSION, "Token refresh succeeded for session %s", h.id)
	}

	pending.err = err
	close(pending.done)

	h.refreshMu.Lock()
	h.refresh = nil
	h.refreshMu.Unlock()

	return err
}

// persist saves the durable subset. Tokens never enter the blob.
func (h *Handle) persist(ctx context.Context) error {
	h.mu.Lock()
	state := PersistedState{
		User:            h.state.User,
		IsAuthenticated: h.state.IsAuthenticated,
		PendingPlan:     h.state.PendingPlan,
	}
	h.mu.Unlock()

	if err := h.persister.Save(ctx, h.id, state); err != nil {
		logger.Error(logger.SESSION, "Failed to persist session %s: %v", h.id, err)
		return err
	}
	return nil
}
