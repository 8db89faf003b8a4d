package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"subjectview/internal/httpx"
	"subjectview/internal/page"
	"subjectview/internal/view"
)

var validate = validator.New()

// Handler serves page sessions over HTTP. Clicks arrive at
// /events/{id}?arg=... and are dispatched to the caller's session.
type Handler struct {
	sessions *Sessions
	logger   *zap.Logger
}

func NewHandler(sessions *Sessions, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{sessions: sessions, logger: logger}
}

type eventRequest struct {
	ID  string `validate:"required,max=64,printascii,excludesall=/?#"`
	Arg string `validate:"max=32,printascii"`
}

// Page renders the caller's session, opening one first when needed.
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	session := h.sessions.Open(w, r)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTmpl.Execute(w, newPageData(session.Snapshot())); err != nil {
		h.logger.Error("render page", zap.Error(err), zap.String("request_id", httpx.RequestIDFrom(r)))
	}
}

// Event dispatches one click. Browsers are redirected back to the page;
// JSON clients get the resulting state.
func (h *Handler) Event(w http.ResponseWriter, r *http.Request) {
	req := eventRequest{
		ID:  r.PathValue("id"),
		Arg: r.URL.Query().Get("arg"),
	}
	if err := validate.Struct(req); err != nil {
		httpx.JSONErrorWithRequest(r, w, http.StatusBadRequest, "invalid_event", "Invalid event", validationDetails(err))
		return
	}

	session, ok := h.sessions.Lookup(r)
	if !ok {
		if !wantsJSON(r) {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		httpx.JSONErrorWithRequest(r, w, http.StatusNotFound, "no_session", "Load the page first", nil)
		return
	}

	if err := session.Dispatch(req.ID, req.Arg); err != nil {
		switch {
		case errors.Is(err, page.ErrNoListener):
			httpx.JSONErrorWithRequest(r, w, http.StatusNotFound, "unknown_target", "Nothing listens on "+req.ID, nil)
		case errors.Is(err, view.ErrUnknownView):
			httpx.JSONErrorWithRequest(r, w, http.StatusBadRequest, "unknown_view", "No such view: "+req.Arg, nil)
		case errors.Is(err, view.ErrNoChart):
			httpx.JSONErrorWithRequest(r, w, http.StatusConflict, "no_chart", "The timeline is not available", nil)
		default:
			h.logger.Error("dispatch event", zap.Error(err), zap.String("target", req.ID))
			httpx.JSONErrorWithRequest(r, w, http.StatusInternalServerError, "internal_error", "An internal error occurred", nil)
		}
		return
	}

	if wantsJSON(r) {
		httpx.JSONSuccessWithRequest(r, w, session.Snapshot(), nil)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// State returns the caller's session snapshot as JSON.
func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	session, ok := h.sessions.Lookup(r)
	if !ok {
		httpx.JSONErrorWithRequest(r, w, http.StatusNotFound, "no_session", "Load the page first", nil)
		return
	}
	httpx.JSONSuccessWithRequest(r, w, session.Snapshot(), nil)
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func validationDetails(err error) []httpx.ErrorDetail {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	details := make([]httpx.ErrorDetail, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, httpx.ErrorDetail{
			Field:   strings.ToLower(fe.Field()),
			Message: "failed " + fe.Tag() + " check",
		})
	}
	return details
}
