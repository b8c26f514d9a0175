package session

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CookieName is the frontend's own session cookie. It carries a signed token
// wrapping the session id, never upstream state.
const CookieName = "ew_session"

const sessionMaxAge = 7 * 24 * time.Hour

// Store is the registry of live sessions.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	secret   []byte
	cacheTTL time.Duration
	release  bool
}

// NewStore builds the registry. release selects the cross-origin cookie
// attributes (SameSite=None + Secure) used behind a production frontend.
func NewStore(secret []byte, cacheTTL time.Duration, release bool) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		secret:   secret,
		cacheTTL: cacheTTL,
		release:  release,
	}
}

// Attach resolves the caller's session from the request cookie, creating a
// fresh one (and setting the cookie) when absent or invalid. Anonymous
// visitors get a session too: the health page and login flow use the toast
// slot before any authentication exists.
func (st *Store) Attach(c *gin.Context) *Session {
	if token, err := c.Cookie(CookieName); err == nil && token != "" {
		if id, ok := st.parseToken(token); ok {
			st.mu.Lock()
			sess, found := st.sessions[id]
			st.mu.Unlock()
			if found {
				sess.touch()
				return sess
			}
		}
	}

	sess := newSession(uuid.NewString(), st.cacheTTL)
	st.mu.Lock()
	st.sessions[sess.ID] = sess
	st.prune()
	st.mu.Unlock()

	st.setCookie(c, sess.ID)
	return sess
}

// Get looks up a session by id. Used by tests.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	sess, ok := st.sessions[id]
	return sess, ok
}

func (st *Store) setCookie(c *gin.Context, id string) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sid": id,
		"exp": time.Now().Add(sessionMaxAge).Unix(),
	})
	signed, err := token.SignedString(st.secret)
	if err != nil {
		return
	}

	// Production (cross-origin): SameSiteNoneMode + Secure=true
	// Development (same-site):   SameSiteLaxMode  + Secure=false
	sameSite := http.SameSiteLaxMode
	secure := false
	if st.release {
		sameSite = http.SameSiteNoneMode
		secure = true
	}
	c.SetSameSite(sameSite)
	c.SetCookie(CookieName, signed, int(sessionMaxAge/time.Second), "/", "", secure, true)
}

func (st *Store) parseToken(token string) (string, bool) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return st.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", false
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", false
	}
	id, ok := claims["sid"].(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// prune drops sessions idle past their lifetime. Caller holds st.mu.
func (st *Store) prune() {
	cutoff := time.Now().Add(-sessionMaxAge)
	for id, sess := range st.sessions {
		sess.mu.Lock()
		stale := sess.lastSeen.Before(cutoff)
		sess.mu.Unlock()
		if stale {
			delete(st.sessions, id)
		}
	}
}
