package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenseweb/internal/api"
	"expenseweb/internal/workflow"
)

func newTestAPI(t *testing.T) *api.Client {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHandler(NewStore()).RegisterRoutes(router.Group(""))
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return api.New(srv.URL+"/api", 2*time.Second)
}

func login(t *testing.T, client *api.Client, email string) api.Credentials {
	t.Helper()
	creds, err := client.Login(context.Background(), email, "password")
	require.NoError(t, err)
	require.NotEmpty(t, creds)
	return creds
}

func TestLoginRejectsBadPassword(t *testing.T) {
	client := newTestAPI(t)
	_, err := client.Login(context.Background(), "applicant@example.com", "wrong")
	assert.Equal(t, http.StatusUnauthorized, api.StatusCode(err))
}

func TestMeRequiresSession(t *testing.T) {
	client := newTestAPI(t)
	_, err := client.Me(context.Background(), nil)
	assert.Equal(t, http.StatusUnauthorized, api.StatusCode(err))
}

func TestApprovalLifecycle(t *testing.T) {
	client := newTestAPI(t)
	ctx := context.Background()
	applicant := login(t, client, "applicant@example.com")
	approver := login(t, client, "approver@example.com")

	created, err := client.CreateRequest(ctx, applicant, api.RequestInput{
		Title: "会議費", Amount: 800, Note: "打ち合わせ",
	})
	require.NoError(t, err)
	require.Greater(t, created.ID, int64(0))
	assert.Equal(t, workflow.StatusDraft, created.Status)

	require.NoError(t, client.SubmitRequest(ctx, applicant, "4"))

	pending, err := client.Inbox(ctx, approver)
	require.NoError(t, err)
	ids := make([]int64, 0, len(pending))
	for _, r := range pending {
		ids = append(ids, r.ID)
	}
	assert.Contains(t, ids, created.ID)

	require.NoError(t, client.Approve(ctx, approver, "4"))

	got, err := client.GetRequest(ctx, applicant, "4")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusApproved, got.Status)

	entries, err := client.History(ctx, applicant, "4")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, workflow.ActionSubmit, entries[0].Action)
	assert.Equal(t, workflow.ActionApprove, entries[1].Action)
	assert.Equal(t, "承認 花子", entries[1].ActorName)
}

func TestReturnAndResubmitKeepsComment(t *testing.T) {
	client := newTestAPI(t)
	ctx := context.Background()
	applicant := login(t, client, "applicant@example.com")
	approver := login(t, client, "approver@example.com")

	// Seeded request 2 is SUBMITTED.
	require.NoError(t, client.Return(ctx, approver, "2", "領収書を添付してください"))

	got, err := client.GetRequest(ctx, applicant, "2")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusReturned, got.Status)
	assert.Equal(t, "領収書を添付してください", got.LastReturnComment)

	// RETURNED is editable again.
	require.NoError(t, client.UpdateRequest(ctx, applicant, "2", api.RequestInput{
		Title: "出張費", Amount: 5000, Note: "領収書添付済み",
	}))
	require.NoError(t, client.SubmitRequest(ctx, applicant, "2"))

	got, err = client.GetRequest(ctx, applicant, "2")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusSubmitted, got.Status)
	// The comment survives resubmission; only its display is status-gated.
	assert.Equal(t, "領収書を添付してください", got.LastReturnComment)
}

func TestReturnWithoutCommentIs400(t *testing.T) {
	client := newTestAPI(t)
	approver := login(t, client, "approver@example.com")
	err := client.Return(context.Background(), approver, "2", "   ")
	assert.Equal(t, http.StatusBadRequest, api.StatusCode(err))

	err = client.Reject(context.Background(), approver, "2", "")
	assert.Equal(t, http.StatusBadRequest, api.StatusCode(err))
}

func TestIllegalTransitionIs409(t *testing.T) {
	client := newTestAPI(t)
	ctx := context.Background()
	applicant := login(t, client, "applicant@example.com")
	approver := login(t, client, "approver@example.com")

	// Approving a DRAFT has no legal transition.
	err := client.Approve(ctx, approver, "1")
	assert.Equal(t, http.StatusConflict, api.StatusCode(err))

	// A SUBMITTED request is no longer editable.
	err = client.UpdateRequest(ctx, applicant, "2", api.RequestInput{Title: "x", Amount: 1})
	assert.Equal(t, http.StatusConflict, api.StatusCode(err))

	// Withdrawing an APPROVED request is terminal.
	err = client.WithdrawRequest(ctx, applicant, "3")
	assert.Equal(t, http.StatusConflict, api.StatusCode(err))
}

func TestRoleChecks(t *testing.T) {
	client := newTestAPI(t)
	ctx := context.Background()
	applicant := login(t, client, "applicant@example.com")
	approver := login(t, client, "approver@example.com")

	// The inbox is approver-only.
	_, err := client.Inbox(ctx, applicant)
	assert.Equal(t, http.StatusForbidden, api.StatusCode(err))

	// Approvers cannot submit someone else's request.
	err = client.SubmitRequest(ctx, approver, "1")
	assert.Equal(t, http.StatusForbidden, api.StatusCode(err))

	// Applicants cannot approve.
	err = client.Approve(ctx, applicant, "2")
	assert.Equal(t, http.StatusForbidden, api.StatusCode(err))
}

func TestRequestsAreOwnerScoped(t *testing.T) {
	client := newTestAPI(t)
	ctx := context.Background()
	approver := login(t, client, "approver@example.com")

	// Request 1 belongs to the applicant; the owner-scoped read hides it.
	_, err := client.GetRequest(ctx, approver, "1")
	assert.Equal(t, http.StatusNotFound, api.StatusCode(err))

	// The approver-scoped detail view sees every request.
	got, err := client.InboxDetail(ctx, approver, "1")
	require.NoError(t, err)
	assert.Equal(t, "交通費精算", got.Title)
}

func TestCreateValidation(t *testing.T) {
	client := newTestAPI(t)
	applicant := login(t, client, "applicant@example.com")

	_, err := client.CreateRequest(context.Background(), applicant, api.RequestInput{Title: "  ", Amount: 10})
	assert.Equal(t, http.StatusBadRequest, api.StatusCode(err))

	_, err = client.CreateRequest(context.Background(), applicant, api.RequestInput{Title: "x", Amount: -1})
	assert.Equal(t, http.StatusBadRequest, api.StatusCode(err))
}

func TestLogoutDropsSession(t *testing.T) {
	client := newTestAPI(t)
	ctx := context.Background()
	applicant := login(t, client, "applicant@example.com")

	require.NoError(t, client.Logout(ctx, applicant))
	_, err := client.Me(ctx, applicant)
	assert.Equal(t, http.StatusUnauthorized, api.StatusCode(err))
}
