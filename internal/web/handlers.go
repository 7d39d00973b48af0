package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin/binding"

	"github.com/hpungsan/careerbridge/internal/errors"
	"github.com/hpungsan/careerbridge/internal/ops"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 64 << 10

// Handlers contains HTTP route handlers for the web UI and JSON API.
type Handlers struct {
	env      *ops.Env
	renderer *Renderer
}

func init() {
	binding.EnableDecoderDisallowUnknownFields = true
}

type loginRequest struct {
	ID        string `json:"id" form:"id"`
	FirstName string `json:"first_name" form:"first_name"`
	LastName  string `json:"last_name" form:"last_name"`
	Email     string `json:"email" form:"email"`
	JoinDate  string `json:"join_date" form:"join_date"`
	Token     string `json:"token" form:"token"`
}

type pointsRequest struct {
	Action string `json:"action" form:"action" binding:"omitempty,oneof=add deduct"`
	Points int    `json:"points" form:"points"`
	Reason string `json:"reason" form:"reason"`
}

type gateRequest struct {
	Password string `json:"password" form:"password"`
}

// page builds the common page fields.
func (h *Handlers) page(r *http.Request, title, nav string) PageData {
	who := ops.WhoAmI(r.Context(), h.env)
	return PageData{
		Title:   title,
		Version: h.renderer.version,
		Nav:     nav,
		Who:     who,
		Photo:   h.env.Profile.Cached(who.User),
	}
}

// HandleNotifications handles GET /notifications: the notification center.
func (h *Handlers) HandleNotifications(w http.ResponseWriter, r *http.Request) {
	input := ops.ListNotificationsInput{
		Limit:      parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset:     parseIntParam(r, "offset", 0),
		UnreadOnly: parseBoolParam(r, "unread_only"),
	}

	data := NotificationsPageData{
		PageData:   h.page(r, "Notifications", "notifications"),
		UnreadOnly: input.UnreadOnly,
	}

	// guests get the sign-in form instead of an error page
	if data.Who.User == nil && !wantsJSON(r) {
		h.renderer.renderPage(w, r, "notifications", data)
		return
	}

	result, err := ops.ListNotifications(r.Context(), h.env, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	data.Items = result.Items
	data.Unread = result.Unread
	data.Pagination = result.Pagination

	if r.Header.Get("HX-Target") == "notification-list" {
		h.renderer.renderBlock(w, http.StatusOK, "notifications", "notification-list", data)
		return
	}
	h.renderer.renderPage(w, r, "notifications", data)
}

// HandleUnreadCount handles GET /notifications/unread-count: the badge value.
func (h *Handlers) HandleUnreadCount(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusOK, ops.UnreadCount(r.Context(), h.env))
}

// HandleMarkRead handles POST /notifications/{id}/read.
func (h *Handlers) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	result, err := ops.MarkRead(r.Context(), h.env, ops.MarkReadInput{ID: r.PathValue("id")})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.respond(w, r, result, "/notifications")
}

// HandleMarkAllRead handles POST /notifications/read-all.
func (h *Handlers) HandleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	result, err := ops.MarkAllRead(r.Context(), h.env)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.respond(w, r, result, "/notifications")
}

// HandleClear handles DELETE /notifications: remove every notification.
func (h *Handlers) HandleClear(w http.ResponseWriter, r *http.Request) {
	result, err := ops.ClearNotifications(r.Context(), h.env)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.respond(w, r, result, "/notifications")
}

// HandleLogin handles POST /session/login.
func (h *Handlers) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := bind(w, r, &req); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	result, err := ops.Login(r.Context(), h.env, ops.LoginInput{
		ID:        req.ID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		JoinDate:  req.JoinDate,
		Token:     req.Token,
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.respond(w, r, result, "/notifications")
}

// HandleLogout handles POST /session/logout.
func (h *Handlers) HandleLogout(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Logout(r.Context(), h.env)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.respond(w, r, result, "/notifications")
}

// HandlePoints handles GET /points: total, level badge and recent history.
func (h *Handlers) HandlePoints(w http.ResponseWriter, r *http.Request) {
	summary, err := ops.PointsSummary(r.Context(), h.env, ops.PointsSummaryInput{
		Limit: parseIntParam(r, "limit", 0),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, summary)
		return
	}
	h.renderer.renderPage(w, r, "points", PointsPageData{
		PageData: h.page(r, "Points", "points"),
		Summary:  summary,
	})
}

// HandlePointsChange handles POST /points: add or deduct points.
func (h *Handlers) HandlePointsChange(w http.ResponseWriter, r *http.Request) {
	var req pointsRequest
	if err := bind(w, r, &req); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	input := ops.PointsInput{Points: req.Points, Reason: req.Reason}
	var (
		result *ops.PointsOutput
		err    error
	)
	switch req.Action {
	case "", "add":
		result, err = ops.AddPoints(r.Context(), h.env, input)
	case "deduct":
		result, err = ops.DeductPoints(r.Context(), h.env, input)
	default:
		err = errors.NewInvalidRequest(`action must be "add" or "deduct"`)
	}
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	summary, err := ops.PointsSummary(r.Context(), h.env, ops.PointsSummaryInput{})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.renderer.renderPage(w, r, "points", PointsPageData{
		PageData: h.page(r, "Points", "points"),
		Summary:  summary,
		Flash:    result.Entry.Description,
	})
}

// HandleGatePage handles GET /admin/gate: the admin password prompt.
func (h *Handlers) HandleGatePage(w http.ResponseWriter, r *http.Request) {
	h.env.Gate.Reset()
	h.renderer.renderPage(w, r, "gate", GatePageData{
		PageData: h.page(r, "Admin Access", "admin"),
	})
}

// HandleGate handles POST /admin/gate. A wrong password re-renders the prompt
// with the inline message; it is not an HTTP error.
func (h *Handlers) HandleGate(w http.ResponseWriter, r *http.Request) {
	var req gateRequest
	if err := bind(w, r, &req); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	result, err := ops.SubmitGate(r.Context(), h.env, ops.GateInput{Credential: req.Password})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}
	h.renderer.renderPage(w, r, "gate", GatePageData{
		PageData: h.page(r, "Admin Access", "admin"),
		Result:   result,
	})
}

// respond answers a state-changing request: JSON for API clients, an
// HX-Redirect for htmx, otherwise a 303 back to the page.
func (h *Handlers) respond(w http.ResponseWriter, r *http.Request, result any, redirect string) {
	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", redirect)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, redirect, http.StatusSeeOther)
}

// bind fills dst from a JSON body, or from form values keyed by dst's form
// tags, and validates its binding tags.
func bind(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var b binding.Binding = binding.Form
	if strings.HasPrefix(r.Header.Get("Content-Type"), binding.MIMEJSON) {
		b = binding.JSON
	}
	if err := b.Bind(r, dst); err != nil {
		return errors.NewInvalidRequest("invalid " + b.Name() + " body: " + err.Error())
	}
	return nil
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// parseBoolParam parses a boolean query parameter.
func parseBoolParam(r *http.Request, name string) bool {
	s := r.URL.Query().Get(name)
	return s == "true" || s == "1"
}
