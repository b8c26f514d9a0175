package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenseweb/internal/api"
	"expenseweb/internal/cache"
)

func TestToastSingleSlot(t *testing.T) {
	s := newSession("s1", time.Minute)

	assert.Nil(t, s.PopToast())

	s.SetToast(ToastSuccess, "保存しました")
	s.SetToast(ToastError, "保存に失敗しました: HTTP 409")

	toast := s.PopToast()
	require.NotNil(t, toast)
	assert.Equal(t, ToastError, toast.Kind)
	assert.Equal(t, "保存に失敗しました: HTTP 409", toast.Message, "a new toast overwrites the previous one")

	assert.Nil(t, s.PopToast(), "toast is delivered once")
}

func TestToastExpires(t *testing.T) {
	s := newSession("s1", time.Minute)
	now := time.Unix(1000, 0)
	s.now = func() time.Time { return now }

	s.SetToast(ToastSuccess, "old news")
	now = now.Add(toastTTL + time.Second)
	assert.Nil(t, s.PopToast())
}

func TestCredentialsResetCache(t *testing.T) {
	s := newSession("s1", time.Minute)
	s.Cache().Put(cache.Key{Kind: cache.KindRequests}, "stale")

	s.SetCredentials(api.Credentials{{Name: "EWSESSION", Value: "tok"}})
	_, ok := s.Cache().Get(cache.Key{Kind: cache.KindRequests})
	assert.False(t, ok, "login must not reuse another identity's reads")
	require.Len(t, s.Credentials(), 1)

	s.Cache().Put(cache.Key{Kind: cache.KindMe}, "me")
	s.ClearCredentials()
	assert.Nil(t, s.Credentials())
	_, ok = s.Cache().Get(cache.Key{Kind: cache.KindMe})
	assert.False(t, ok)
}

func TestInflightGuard(t *testing.T) {
	s := newSession("s1", time.Minute)

	require.True(t, s.Begin("request:2"))
	assert.False(t, s.Begin("request:2"), "second mutation on the same resource is refused")
	assert.True(t, s.Begin("request:3"), "other resources are independent")

	s.End("request:2")
	assert.True(t, s.Begin("request:2"))
}

func TestAttachRoundTrip(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := NewStore([]byte("test-secret"), time.Minute, false)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	sess := store.Attach(c)
	require.NotNil(t, sess)

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	var token string
	for _, ck := range cookies {
		if ck.Name == CookieName {
			token = ck.Value
		}
	}
	require.NotEmpty(t, token, "first contact sets the session cookie")

	// Replay the cookie: same session comes back, no new cookie issued.
	w2 := httptest.NewRecorder()
	c2, _ := gin.CreateTestContext(w2)
	c2.Request = httptest.NewRequest(http.MethodGet, "/requests", nil)
	c2.Request.AddCookie(&http.Cookie{Name: CookieName, Value: token})

	again := store.Attach(c2)
	assert.Equal(t, sess.ID, again.ID)
	assert.Empty(t, w2.Result().Cookies())
}

func TestReleaseCookieAttributes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := NewStore([]byte("test-secret"), time.Minute, true)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	store.Attach(c)

	var cookie *http.Cookie
	for _, ck := range w.Result().Cookies() {
		if ck.Name == CookieName {
			cookie = ck
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteNoneMode, cookie.SameSite)
	assert.Equal(t, int(sessionMaxAge/time.Second), cookie.MaxAge)
}

func TestAttachRejectsForgedCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := NewStore([]byte("test-secret"), time.Minute, false)
	other := NewStore([]byte("other-secret"), time.Minute, false)

	// Sign a cookie with the wrong secret.
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	forged := other.Attach(c)

	var token string
	for _, ck := range w.Result().Cookies() {
		if ck.Name == CookieName {
			token = ck.Value
		}
	}
	require.NotEmpty(t, token)

	w2 := httptest.NewRecorder()
	c2, _ := gin.CreateTestContext(w2)
	c2.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c2.Request.AddCookie(&http.Cookie{Name: CookieName, Value: token})

	sess := store.Attach(c2)
	assert.NotEqual(t, forged.ID, sess.ID, "forged cookie gets a fresh session")
}
