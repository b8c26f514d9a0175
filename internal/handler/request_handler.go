package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"expenseweb/internal/api"
	"expenseweb/internal/middleware"
	"expenseweb/internal/service"
	"expenseweb/internal/session"
	"expenseweb/internal/workflow"
)

// RequestHandler owns the applicant-facing pages: list, create, detail,
// edit, history and the withdraw action.
type RequestHandler struct {
	sessions service.SessionService
	requests service.RequestService
}

func NewRequestHandler(sessions service.SessionService, requests service.RequestService) *RequestHandler {
	return &RequestHandler{sessions: sessions, requests: requests}
}

func (h *RequestHandler) RegisterRoutes(router *gin.RouterGroup) {
	requests := router.Group("/requests")
	{
		requests.GET("", h.List)
		requests.GET("/new", h.CreatePage)
		requests.POST("/new", h.Create)
		requests.GET("/:id", h.Detail)
		requests.GET("/:id/edit", h.EditPage)
		requests.POST("/:id/edit", h.Edit)
		requests.POST("/:id/withdraw", h.Withdraw)
		requests.GET("/:id/history", h.History)
	}
}

// List renders the applicant's requests grouped into the fixed status
// sections; every section header renders even at zero items.
func (h *RequestHandler) List(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	shell := buildShell(c, h.sessions, "/requests")

	sections, err := h.requests.Sections(c.Request.Context(), sess)
	if err != nil {
		c.HTML(http.StatusOK, "requests_list.tmpl", gin.H{
			"Shell": shell,
			"Title": "申請一覧",
			"Error": api.ErrorLabel(err),
		})
		return
	}
	c.HTML(http.StatusOK, "requests_list.tmpl", gin.H{
		"Shell":    shell,
		"Title":    "申請一覧",
		"Sections": sections,
	})
}

func (h *RequestHandler) Detail(c *gin.Context) {
	id := c.Param("id")
	sess := middleware.CurrentSession(c)
	shell := buildShell(c, h.sessions, "/requests")

	req, err := h.requests.Get(c.Request.Context(), sess, id)
	if err != nil {
		h.renderLookupFailure(c, shell, "request_detail.tmpl", "申請詳細", id, err)
		return
	}

	c.HTML(http.StatusOK, "request_detail.tmpl", gin.H{
		"Shell":       shell,
		"Title":       "申請詳細",
		"ID":          id,
		"Request":     req,
		"CanEdit":     workflow.CanEdit(req.Status),
		"CanWithdraw": workflow.Allows(req.Status, workflow.ActionWithdraw),
		"ShowComment": req.Status == workflow.StatusReturned && req.LastReturnComment != "",
	})
}

func (h *RequestHandler) EditPage(c *gin.Context) {
	id := c.Param("id")
	sess := middleware.CurrentSession(c)
	shell := buildShell(c, h.sessions, "/requests")

	req, err := h.requests.Get(c.Request.Context(), sess, id)
	if err != nil {
		h.renderLookupFailure(c, shell, "request_edit.tmpl", "申請編集", id, err)
		return
	}

	// Pristine form: inputs show the server values.
	h.renderEdit(c, shell, id, req, editForm{
		Title:  req.Title,
		Amount: strconv.FormatInt(req.Amount, 10),
		Note:   req.Note,
	})
}

type editForm struct {
	Title  string
	Amount string
	Note   string
}

// Edit handles both buttons of the edit form: save (PATCH, status keeps) and
// submit (DRAFT or RETURNED → SUBMITTED).
func (h *RequestHandler) Edit(c *gin.Context) {
	id := c.Param("id")
	sess := middleware.CurrentSession(c)
	ctx := c.Request.Context()

	form := editForm{
		Title:  c.PostForm("title"),
		Amount: c.PostForm("amount"),
		Note:   c.PostForm("note"),
	}

	switch c.PostForm("action") {
	case "resubmit":
		label := "提出"
		if prev, err := h.requests.Get(ctx, sess, id); err == nil && prev.Status == workflow.StatusReturned {
			label = "再提出"
		}
		if err := h.requests.Submit(ctx, sess, id); err != nil {
			// Keep the typed values on screen, same as a failed save.
			shell := withToast(buildShell(c, h.sessions, "/requests"),
				session.ToastError, label+"に失敗しました: "+api.ErrorLabel(err))
			req, getErr := h.requests.Get(ctx, sess, id)
			if getErr != nil {
				h.renderLookupFailure(c, shell, "request_edit.tmpl", "申請編集", id, getErr)
				return
			}
			h.renderEdit(c, shell, id, req, form)
			return
		}
		sess.SetToast(session.ToastSuccess, label+"しました")
		c.Redirect(http.StatusSeeOther, "/requests/"+id)

	default: // save
		in := api.RequestInput{
			Title:  form.Title,
			Amount: workflow.ParseAmount(form.Amount),
			Note:   form.Note,
		}
		if err := h.requests.Update(ctx, sess, id, in); err != nil {
			// Dirty form: re-render the posted values so the user can
			// correct and retry.
			shell := withToast(buildShell(c, h.sessions, "/requests"),
				session.ToastError, "保存に失敗しました: "+api.ErrorLabel(err))
			req, getErr := h.requests.Get(ctx, sess, id)
			if getErr != nil {
				h.renderLookupFailure(c, shell, "request_edit.tmpl", "申請編集", id, getErr)
				return
			}
			h.renderEdit(c, shell, id, req, form)
			return
		}
		sess.SetToast(session.ToastSuccess, "保存しました")
		c.Redirect(http.StatusSeeOther, "/requests/"+id+"/edit")
	}
}

func (h *RequestHandler) renderEdit(c *gin.Context, shell Shell, id string, req api.Request, form editForm) {
	c.HTML(http.StatusOK, "request_edit.tmpl", gin.H{
		"Shell":       shell,
		"Title":       "申請編集",
		"ID":          id,
		"Request":     req,
		"CanEdit":     workflow.CanEdit(req.Status),
		"CanSubmit":   workflow.Allows(req.Status, workflow.ActionSubmit),
		"SubmitLabel": submitLabel(req.Status),
		"ShowComment": req.Status == workflow.StatusReturned && req.LastReturnComment != "",
		"Form":        form,
	})
}

// submitLabel distinguishes a first submission from a resubmission after a
// return.
func submitLabel(s workflow.Status) string {
	if s == workflow.StatusReturned {
		return "再提出"
	}
	return "提出"
}

func (h *RequestHandler) CreatePage(c *gin.Context) {
	c.HTML(http.StatusOK, "request_create.tmpl", gin.H{
		"Shell": buildShell(c, h.sessions, "/requests/new"),
		"Title": "申請作成",
		"Form":  editForm{},
	})
}

// Create handles both buttons of the create form: save (stays DRAFT) and
// submit (create then submit, which only runs when the create returned an id).
func (h *RequestHandler) Create(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	ctx := c.Request.Context()

	form := editForm{
		Title:  c.PostForm("title"),
		Amount: c.PostForm("amount"),
		Note:   c.PostForm("note"),
	}
	submit := c.PostForm("action") == "submit"

	if strings.TrimSpace(form.Title) == "" {
		h.renderCreateFailure(c, form, "件名を入力してください")
		return
	}

	in := api.RequestInput{
		Title:  form.Title,
		Amount: workflow.ParseAmount(form.Amount),
		Note:   form.Note,
	}

	if submit {
		created, err := h.requests.CreateAndSubmit(ctx, sess, in)
		if err != nil {
			h.renderCreateFailure(c, form, "提出に失敗しました: "+api.ErrorLabel(err))
			return
		}
		sess.SetToast(session.ToastSuccess, "提出しました: "+workflow.RequestLabel(created.ID))
		c.Redirect(http.StatusSeeOther, "/requests/"+strconv.FormatInt(created.ID, 10))
		return
	}

	created, err := h.requests.Create(ctx, sess, in)
	if err != nil {
		h.renderCreateFailure(c, form, "保存に失敗しました: "+api.ErrorLabel(err))
		return
	}
	sess.SetToast(session.ToastSuccess, "保存しました: "+workflow.RequestLabel(created.ID))
	if created.ID > 0 {
		c.Redirect(http.StatusSeeOther, "/requests/"+strconv.FormatInt(created.ID, 10))
	} else {
		c.Redirect(http.StatusSeeOther, "/requests")
	}
}

func (h *RequestHandler) renderCreateFailure(c *gin.Context, form editForm, message string) {
	c.HTML(http.StatusOK, "request_create.tmpl", gin.H{
		"Shell": withToast(buildShell(c, h.sessions, "/requests/new"), session.ToastError, message),
		"Title": "申請作成",
		"Form":  form,
	})
}

// Withdraw is a mutation with no payload; on success the list page is next.
func (h *RequestHandler) Withdraw(c *gin.Context) {
	id := c.Param("id")
	sess := middleware.CurrentSession(c)

	if err := h.requests.Withdraw(c.Request.Context(), sess, id); err != nil {
		sess.SetToast(session.ToastError, "取り下げに失敗しました: "+api.ErrorLabel(err))
		c.Redirect(http.StatusSeeOther, "/requests/"+id)
		return
	}
	sess.SetToast(session.ToastSuccess, "取り下げました")
	c.Redirect(http.StatusSeeOther, "/requests")
}

func (h *RequestHandler) History(c *gin.Context) {
	id := c.Param("id")
	sess := middleware.CurrentSession(c)
	shell := buildShell(c, h.sessions, "/requests")

	entries, err := h.requests.History(c.Request.Context(), sess, id)
	if err != nil {
		h.renderLookupFailure(c, shell, "request_history.tmpl", "操作履歴", id, err)
		return
	}
	c.HTML(http.StatusOK, "request_history.tmpl", gin.H{
		"Shell":   shell,
		"Title":   "操作履歴",
		"ID":      id,
		"Entries": entries,
	})
}

// renderLookupFailure distinguishes "no data" (404) from a real error; the
// templates render the two states differently.
func (h *RequestHandler) renderLookupFailure(c *gin.Context, shell Shell, tmpl, title, id string, err error) {
	data := gin.H{
		"Shell": shell,
		"Title": title,
		"ID":    id,
	}
	if api.StatusCode(err) == http.StatusNotFound {
		data["NotFound"] = true
	} else {
		data["Error"] = api.ErrorLabel(err)
	}
	c.HTML(http.StatusOK, tmpl, data)
}
