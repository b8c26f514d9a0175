package middleware

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"expenseweb/internal/api"
	"expenseweb/internal/service"
	"expenseweb/internal/session"
)

const (
	ctxSessionKey = "session"
	ctxMeKey      = "me"
)

// Attach resolves (or creates) the browser session for every request and
// stores it on the context. Runs before everything else, login page included.
func Attach(store *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ctxSessionKey, store.Attach(c))
		c.Next()
	}
}

// CurrentSession returns the session placed on the context by Attach.
func CurrentSession(c *gin.Context) *session.Session {
	sess, _ := c.MustGet(ctxSessionKey).(*session.Session)
	return sess
}

// CurrentMe returns the authenticated identity placed on the context by
// RequireUser, or false on unguarded pages.
func CurrentMe(c *gin.Context) (api.Me, bool) {
	v, ok := c.Get(ctxMeKey)
	if !ok {
		return api.Me{}, false
	}
	me, ok := v.(api.Me)
	return me, ok
}

// RequireUser guards a page subtree behind the session query.
// Unauthenticated visitors are redirected to the login page with the
// originally requested location preserved; a failing backend renders an
// inline error instead of redirecting, so "not logged in" and "backend
// unreachable" stay distinguishable.
func RequireUser(sessions service.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := CurrentSession(c)
		info := sessions.Current(c.Request.Context(), sess)
		switch info.State {
		case service.StateUnauthenticated:
			from := c.Request.URL.RequestURI()
			c.Redirect(http.StatusFound, "/login?from="+url.QueryEscape(from))
			c.Abort()
		case service.StateError:
			c.HTML(http.StatusBadGateway, "error.tmpl", gin.H{
				"Title":   "エラー",
				"Message": "セッションを確認できませんでした: " + api.ErrorLabel(info.Err),
			})
			c.Abort()
		default:
			c.Set(ctxMeKey, info.Me)
			c.Next()
		}
	}
}

// SafeReturnPath validates a login return target: only local absolute paths
// come back, anything else falls through to the root.
func SafeReturnPath(raw string) string {
	if raw == "" || raw[0] != '/' {
		return "/"
	}
	u, err := url.Parse(raw)
	if err != nil || u.IsAbs() || u.Host != "" {
		return "/"
	}
	return u.RequestURI()
}
