package handler

import (
	"html/template"
	"time"

	"github.com/gin-gonic/gin"

	"expenseweb/internal/api"
	"expenseweb/internal/middleware"
	"expenseweb/internal/service"
	"expenseweb/internal/session"
	"expenseweb/internal/workflow"
)

// Shell is the data every page shares: who is logged in, which nav links are
// visible, and the pending toast.
type Shell struct {
	LoggedIn    bool
	MeDisplay   string
	IsApplicant bool
	IsApprover  bool
	SessionErr  bool
	Toast       *session.Toast
	Active      string
}

// buildShell classifies the session and pops the toast slot for this render.
// Guarded pages already carry the identity on the context; unguarded pages
// (health, login) ask the session service, which serves from the pinned
// cache entry.
func buildShell(c *gin.Context, sessions service.SessionService, active string) Shell {
	sess := middleware.CurrentSession(c)
	shell := Shell{
		MeDisplay: "Guest",
		Toast:     sess.PopToast(),
		Active:    active,
	}

	var me api.Me
	if ctxMe, ok := middleware.CurrentMe(c); ok {
		me = ctxMe
		shell.LoggedIn = true
	} else {
		info := sessions.Current(c.Request.Context(), sess)
		switch info.State {
		case service.StateAuthenticated:
			me = info.Me
			shell.LoggedIn = true
		case service.StateError:
			shell.SessionErr = true
		}
	}

	if shell.LoggedIn {
		shell.MeDisplay = me.Email
		shell.IsApplicant = me.Role == api.RoleApplicant
		shell.IsApprover = me.Role == api.RoleApprover || me.Role == api.RoleAdmin
	}
	return shell
}

// withToast overrides the shell toast for a same-request re-render (failed
// form posts render inline instead of redirecting).
func withToast(shell Shell, kind, message string) Shell {
	shell.Toast = &session.Toast{Kind: kind, Message: message}
	return shell
}

// TemplateFuncs is the function map the templates render with.
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"statusLabel": workflow.StatusLabel,
		"actionLabel": workflow.ActionLabel,
		"badgeClass":  workflow.BadgeClass,
		"reqLabel":    workflow.RequestLabel,
		"reqLabelStr": workflow.RequestLabelString,
		"yen":         workflow.FormatYen,
		"datetime": func(t time.Time) string {
			return t.Local().Format("2006-01-02 15:04")
		},
	}
}
