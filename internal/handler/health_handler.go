package handler

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"expenseweb/internal/api"
	"expenseweb/internal/middleware"
	"expenseweb/internal/service"
)

// HealthHandler renders the backend-check page at /.
type HealthHandler struct {
	sessions service.SessionService
}

func NewHealthHandler(sessions service.SessionService) *HealthHandler {
	return &HealthHandler{sessions: sessions}
}

func (h *HealthHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/", h.Show)
}

// Show probes /health and /me concurrently; the two queries are independent
// and each renders its own slice of the page.
func (h *HealthHandler) Show(c *gin.Context) {
	ctx := c.Request.Context()
	sess := middleware.CurrentSession(c)

	var (
		wg        sync.WaitGroup
		health    api.Health
		healthErr error
		info      service.SessionInfo
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		health, healthErr = h.sessions.Health(ctx, sess)
	}()
	go func() {
		defer wg.Done()
		info = h.sessions.Current(ctx, sess)
	}()
	wg.Wait()

	status := "未確認"
	errorMessage := ""
	if healthErr != nil {
		status = "失敗"
		errorMessage = api.ErrorLabel(healthErr)
	} else if health.Status != "" {
		status = health.Status
	}

	meStatus := "ログイン中"
	switch info.State {
	case service.StateUnauthenticated:
		meStatus = "未ログイン(401)"
	case service.StateError:
		meStatus = "エラー"
	}

	shell := buildShell(c, h.sessions, "/")
	c.HTML(http.StatusOK, "health.tmpl", gin.H{
		"Shell":        shell,
		"Title":        "Health Check",
		"Status":       status,
		"ErrorMessage": errorMessage,
		"MeStatus":     meStatus,
	})
}
