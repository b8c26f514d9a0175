package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"expenseweb/internal/api"
	"expenseweb/internal/middleware"
	"expenseweb/internal/service"
	"expenseweb/internal/session"
)

// AuthHandler owns the login form and the logout action.
type AuthHandler struct {
	sessions service.SessionService
}

func NewAuthHandler(sessions service.SessionService) *AuthHandler {
	return &AuthHandler{sessions: sessions}
}

func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/login", h.LoginPage)
	router.POST("/login", h.Login)
	router.POST("/logout", h.Logout)
}

func (h *AuthHandler) LoginPage(c *gin.Context) {
	from := middleware.SafeReturnPath(c.Query("from"))
	c.HTML(http.StatusOK, "login.tmpl", gin.H{
		"Shell": buildShell(c, h.sessions, "/login"),
		"Title": "ログイン",
		"From":  from,
		"Email": "",
	})
}

// Login establishes the upstream session and returns the user to wherever
// they originally asked for.
func (h *AuthHandler) Login(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	email := c.PostForm("email")
	password := c.PostForm("password")
	from := middleware.SafeReturnPath(c.PostForm("from"))

	if err := h.sessions.Login(c.Request.Context(), sess, email, password); err != nil {
		message := "ログインに失敗しました。"
		if api.StatusCode(err) == http.StatusUnauthorized {
			message = "メールアドレスまたはパスワードが正しくありません（401）"
		}
		c.HTML(http.StatusOK, "login.tmpl", gin.H{
			"Shell": withToast(buildShell(c, h.sessions, "/login"), session.ToastError, message),
			"Title": "ログイン",
			"From":  from,
			"Email": email,
		})
		return
	}

	sess.SetToast(session.ToastSuccess, "ログインに成功しました。")
	c.Redirect(http.StatusSeeOther, from)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	if err := h.sessions.Logout(c.Request.Context(), sess); err != nil {
		sess.SetToast(session.ToastError, "ログアウト失敗: "+api.ErrorLabel(err))
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	sess.SetToast(session.ToastSuccess, "ログアウトしました")
	c.Redirect(http.StatusSeeOther, "/login")
}
