package service

import (
	"context"
	"net/http"

	"expenseweb/internal/api"
	"expenseweb/internal/cache"
	"expenseweb/internal/session"
)

// SessionState classifies the current-identity query. The in-flight case of
// the SPA has no server-side equivalent: a page render always awaits the
// query before classifying.
type SessionState int

const (
	StateUnauthenticated SessionState = iota
	StateAuthenticated
	StateError
)

// SessionInfo is the classified result of the me-query.
type SessionInfo struct {
	State SessionState
	Me    api.Me
	Err   error
}

// SessionService owns the login/logout flow and the single source of truth
// for "who is logged in". The me-query is issued once per session and pinned
// in the cache until login or logout invalidates it; it is never retried
// automatically, so auth state cannot flap between pages.
type SessionService interface {
	Current(ctx context.Context, sess *session.Session) SessionInfo
	Login(ctx context.Context, sess *session.Session, email, password string) error
	Logout(ctx context.Context, sess *session.Session) error
	Health(ctx context.Context, sess *session.Session) (api.Health, error)
}

type sessionService struct {
	client *api.Client
}

func NewSessionService(client *api.Client) SessionService {
	return &sessionService{client: client}
}

func (s *sessionService) Current(ctx context.Context, sess *session.Session) SessionInfo {
	me, err := cache.FetchPinned(sess.Cache(), cache.Key{Kind: cache.KindMe}, func() (api.Me, error) {
		return s.client.Me(ctx, sess.Credentials())
	})
	switch {
	case err == nil:
		return SessionInfo{State: StateAuthenticated, Me: me}
	case api.StatusCode(err) == http.StatusUnauthorized:
		return SessionInfo{State: StateUnauthenticated, Err: err}
	default:
		// Backend unreachable or misbehaving is not "not logged in"; the
		// guard renders this inline instead of redirecting.
		return SessionInfo{State: StateError, Err: err}
	}
}

func (s *sessionService) Login(ctx context.Context, sess *session.Session, email, password string) error {
	creds, err := s.client.Login(ctx, email, password)
	if err != nil {
		return err
	}
	// Installing credentials resets the whole cache, which also plays the
	// SPA's invalidateQueries(["me"]) after login.
	sess.SetCredentials(creds)
	return nil
}

func (s *sessionService) Logout(ctx context.Context, sess *session.Session) error {
	if err := s.client.Logout(ctx, sess.Credentials()); err != nil {
		return err
	}
	sess.ClearCredentials()
	return nil
}

func (s *sessionService) Health(ctx context.Context, sess *session.Session) (api.Health, error) {
	return cache.Fetch(sess.Cache(), cache.Key{Kind: cache.KindHealth}, func() (api.Health, error) {
		return s.client.Health(ctx)
	})
}
