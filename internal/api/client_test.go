package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenseweb/internal/workflow"
)

func TestGetRequestDecodesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/requests/1", r.URL.Path)
		json.NewEncoder(w).Encode(Request{ID: 1, Title: "交通費精算", Amount: 1200, Status: workflow.StatusDraft})
	}))
	defer srv.Close()

	c := New(srv.URL+"/api", time.Second)
	req, err := c.GetRequest(context.Background(), nil, "1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), req.ID)
	assert.Equal(t, "交通費精算", req.Title)
	assert.Equal(t, workflow.StatusDraft, req.Status)
}

func TestCredentialsAttachedToEveryCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("EWSESSION")
		require.NoError(t, err)
		assert.Equal(t, "abc123", cookie.Value)
		json.NewEncoder(w).Encode([]Request{})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	creds := Credentials{{Name: "EWSESSION", Value: "abc123"}}
	_, err := c.ListRequests(context.Background(), creds)
	require.NoError(t, err)
}

func TestLoginCapturesSessionCookies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "applicant@example.com", body["email"])
		http.SetCookie(w, &http.Cookie{Name: "EWSESSION", Value: "tok"})
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	creds, err := c.Login(context.Background(), "applicant@example.com", "password")
	require.NoError(t, err)
	require.Len(t, creds, 1)
	assert.Equal(t, "EWSESSION", creds[0].Name)
	assert.Equal(t, "tok", creds[0].Value)
}

func TestNon2xxBecomesError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"error": "illegal state"})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	err := c.Approve(context.Background(), nil, "2")
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, StatusCode(err))
	assert.Contains(t, err.Error(), "illegal state")
	assert.Equal(t, "HTTP 409", ErrorLabel(err))
}

func TestMeUnauthenticatedIs401(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	_, err := c.Me(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, StatusCode(err))
}

func TestTransportErrorHasNoStatus(t *testing.T) {
	c := New("http://127.0.0.1:1", 200*time.Millisecond)
	_, err := c.Health(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, StatusCode(err))
	assert.Equal(t, "通信エラー", ErrorLabel(err))
}

func TestEmptySuccessBodyIsFine(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	err := c.UpdateRequest(context.Background(), nil, "3", RequestInput{Title: "x", Amount: 10})
	assert.NoError(t, err)
}
