package upstream

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"expenseweb/internal/api"
	"expenseweb/internal/workflow"
	"expenseweb/pkg/response"
)

// SessionCookie is the servlet-style session cookie the stub issues.
const SessionCookie = "EWSESSION"

const ctxUserKey = "upstreamUser"

// Handler exposes the workflow API over the in-memory store.
type Handler struct {
	store *Store
}

func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes binds the API under /api, matching the documented base path.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	root := router.Group("/api")

	root.GET("/health", h.Health)
	root.POST("/auth/login", h.Login)
	root.POST("/auth/logout", h.Logout)
	root.GET("/me", h.requireUser(), h.Me)

	requests := root.Group("/requests", h.requireUser())
	{
		requests.GET("", h.ListRequests)
		requests.POST("", h.CreateRequest)
		requests.GET("/:id", h.GetRequest)
		requests.PATCH("/:id", h.UpdateRequest)
		requests.GET("/:id/history", h.History)
		requests.POST("/:id/submit", h.action(workflow.ActionSubmit))
		requests.POST("/:id/withdraw", h.action(workflow.ActionWithdraw))
		requests.POST("/:id/approve", h.action(workflow.ActionApprove))
		requests.POST("/:id/return", h.action(workflow.ActionReturn))
		requests.POST("/:id/reject", h.action(workflow.ActionReject))
	}

	inbox := root.Group("/inbox", h.requireUser(), h.requireApprover())
	{
		inbox.GET("", h.Inbox)
		inbox.GET("/:id", h.InboxDetail)
	}
}

// requireUser resolves the session cookie to a user or answers 401.
func (h *Handler) requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(SessionCookie)
		if err != nil || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "not logged in"))
			return
		}
		user, ok := h.store.SessionUser(token)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "session expired"))
			return
		}
		c.Set(ctxUserKey, user)
		c.Next()
	}
}

func (h *Handler) requireApprover() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		if user.Role != api.RoleApprover && user.Role != api.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "approver role required"))
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) User {
	user, _ := c.MustGet(ctxUserKey).(User)
	return user
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, api.Health{Status: "OK"})
}

func (h *Handler) Login(c *gin.Context) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Email == "" || body.Password == "" {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "email and password are required"))
		return
	}
	user, ok := h.store.Authenticate(body.Email, body.Password)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "invalid credentials"))
		return
	}
	token := h.store.OpenSession(user.ID)
	c.SetCookie(SessionCookie, token, 3600*24, "/", "", false, true)
	c.Status(http.StatusNoContent)
}

func (h *Handler) Logout(c *gin.Context) {
	if token, err := c.Cookie(SessionCookie); err == nil {
		h.store.CloseSession(token)
	}
	c.SetCookie(SessionCookie, "", -1, "/", "", false, true)
	c.Status(http.StatusNoContent)
}

func (h *Handler) Me(c *gin.Context) {
	user := currentUser(c)
	c.JSON(http.StatusOK, api.Me{Email: user.Email, Role: user.Role})
}

func (h *Handler) ListRequests(c *gin.Context) {
	requests := h.store.ListByApplicant(currentUser(c).ID)
	if requests == nil {
		requests = []api.Request{}
	}
	c.JSON(http.StatusOK, requests)
}

func (h *Handler) CreateRequest(c *gin.Context) {
	var in api.RequestInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid request payload"))
		return
	}
	created, err := h.store.Create(currentUser(c).ID, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) GetRequest(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	req, err := h.store.Get(currentUser(c).ID, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func (h *Handler) UpdateRequest(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var in api.RequestInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid request payload"))
		return
	}
	updated, err := h.store.Update(currentUser(c).ID, id, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) History(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	entries, err := h.store.History(currentUser(c).ID, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if entries == nil {
		entries = []api.HistoryEntry{}
	}
	c.JSON(http.StatusOK, entries)
}

func (h *Handler) Inbox(c *gin.Context) {
	pending := h.store.Pending()
	if pending == nil {
		pending = []api.Request{}
	}
	c.JSON(http.StatusOK, pending)
}

func (h *Handler) InboxDetail(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	req, err := h.store.GetAny(id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// action builds the handler for one workflow transition endpoint.
func (h *Handler) action(act workflow.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := h.pathID(c)
		if !ok {
			return
		}
		var body struct {
			Comment string `json:"comment"`
		}
		// Approve/submit/withdraw take no body; ignore parse failures there.
		_ = c.ShouldBindJSON(&body)

		updated, err := h.store.Transition(currentUser(c), id, act, body.Comment)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, updated)
	}
}

func (h *Handler) pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "request not found"))
		return 0, false
	}
	return id, true
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
	case errors.Is(err, ErrForbidden):
		c.JSON(http.StatusForbidden, response.Error(http.StatusForbidden, err.Error()))
	case errors.Is(err, ErrComment), errors.Is(err, ErrValidation):
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
	case errors.Is(err, workflow.ErrIllegalTransition):
		c.JSON(http.StatusConflict, response.Error(http.StatusConflict, err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
	}
}
