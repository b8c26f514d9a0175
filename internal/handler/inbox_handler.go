package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"expenseweb/internal/api"
	"expenseweb/internal/middleware"
	"expenseweb/internal/service"
	"expenseweb/internal/session"
	"expenseweb/internal/workflow"
)

// InboxHandler owns the approver-facing pages: the pending queue and the
// detail page with its three decisions.
type InboxHandler struct {
	sessions service.SessionService
	inbox    service.InboxService
}

func NewInboxHandler(sessions service.SessionService, inbox service.InboxService) *InboxHandler {
	return &InboxHandler{sessions: sessions, inbox: inbox}
}

func (h *InboxHandler) RegisterRoutes(router *gin.RouterGroup) {
	inbox := router.Group("/inbox")
	{
		inbox.GET("", h.List)
		inbox.GET("/:id", h.Detail)
		inbox.POST("/:id/approve", h.Approve)
		inbox.POST("/:id/return", h.Return)
		inbox.POST("/:id/reject", h.Reject)
	}
}

func (h *InboxHandler) List(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	shell := buildShell(c, h.sessions, "/inbox")

	items, err := h.inbox.List(c.Request.Context(), sess)
	if err != nil {
		c.HTML(http.StatusOK, "inbox_list.tmpl", gin.H{
			"Shell": shell,
			"Title": "受信箱",
			"Error": api.ErrorLabel(err),
		})
		return
	}
	c.HTML(http.StatusOK, "inbox_list.tmpl", gin.H{
		"Shell": shell,
		"Title": "受信箱",
		"Items": items,
	})
}

func (h *InboxHandler) Detail(c *gin.Context) {
	h.renderDetail(c, buildShell(c, h.sessions, "/inbox"), "", "")
}

func (h *InboxHandler) renderDetail(c *gin.Context, shell Shell, returnComment, rejectComment string) {
	id := c.Param("id")
	sess := middleware.CurrentSession(c)

	req, err := h.inbox.Get(c.Request.Context(), sess, id)
	if err != nil {
		data := gin.H{"Shell": shell, "Title": "受信箱：詳細", "ID": id}
		if api.StatusCode(err) == http.StatusNotFound {
			data["NotFound"] = true
		} else {
			data["Error"] = api.ErrorLabel(err)
		}
		c.HTML(http.StatusOK, "inbox_detail.tmpl", data)
		return
	}

	c.HTML(http.StatusOK, "inbox_detail.tmpl", gin.H{
		"Shell":         shell,
		"Title":         "受信箱：詳細",
		"ID":            id,
		"Request":       req,
		"CanDecide":     req.Status == workflow.StatusSubmitted,
		"ReturnComment": returnComment,
		"RejectComment": rejectComment,
	})
}

func (h *InboxHandler) Approve(c *gin.Context) {
	id := c.Param("id")
	sess := middleware.CurrentSession(c)

	if err := h.inbox.Approve(c.Request.Context(), sess, id); err != nil {
		sess.SetToast(session.ToastError, "承認に失敗しました: "+api.ErrorLabel(err))
		c.Redirect(http.StatusSeeOther, "/inbox/"+id)
		return
	}
	sess.SetToast(session.ToastSuccess, "承認しました")
	c.Redirect(http.StatusSeeOther, "/inbox")
}

func (h *InboxHandler) Return(c *gin.Context) {
	h.decide(c, "return")
}

func (h *InboxHandler) Reject(c *gin.Context) {
	h.decide(c, "reject")
}

// decide shares the return/reject flow: both carry a mandatory comment and
// end back at the inbox list on success.
func (h *InboxHandler) decide(c *gin.Context, kind string) {
	id := c.Param("id")
	sess := middleware.CurrentSession(c)
	comment := c.PostForm("comment")

	var (
		err     error
		done    string
		failed  string
		retForm string
		rejForm string
	)
	switch kind {
	case "return":
		err = h.inbox.Return(c.Request.Context(), sess, id, comment)
		done, failed, retForm = "差戻しました", "差戻しに失敗しました", comment
	default:
		err = h.inbox.Reject(c.Request.Context(), sess, id, comment)
		done, failed, rejForm = "却下しました", "却下に失敗しました", comment
	}

	if err != nil {
		if errors.Is(err, service.ErrCommentRequired) {
			// Keep the page as-is with an inline complaint; nothing was sent.
			shell := withToast(buildShell(c, h.sessions, "/inbox"), session.ToastError, "コメントを入力してください")
			h.renderDetail(c, shell, retForm, rejForm)
			return
		}
		sess.SetToast(session.ToastError, failed+": "+api.ErrorLabel(err))
		c.Redirect(http.StatusSeeOther, "/inbox/"+id)
		return
	}
	sess.SetToast(session.ToastSuccess, done)
	c.Redirect(http.StatusSeeOther, "/inbox")
}
