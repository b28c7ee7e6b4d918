package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	appanalyses "github.com/bryanwahyu/repair-analysis/internal/application/analyses"
	domain "github.com/bryanwahyu/repair-analysis/internal/domain/analyses"
	"github.com/bryanwahyu/repair-analysis/internal/middleware"
)

// Deps for NewRouter. Metrics and Limiter are optional.
type Deps struct {
	Controller     *appanalyses.Controller
	Log            *zap.Logger
	Checks         map[string]middleware.HealthChecker
	Metrics        *middleware.Metrics
	Limiter        func(http.Handler) http.Handler
	AllowedOrigins []string
}

type Router struct {
	ctl *appanalyses.Controller
	log *zap.Logger
}

func NewRouter(d Deps) http.Handler {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	r := &Router{ctl: d.Controller, log: d.Log.Named("http")}
	mux := chi.NewRouter()

	mux.Use(chimw.RequestID)
	mux.Use(chimw.RealIP)
	mux.Use(middleware.Logging(d.Log))
	mux.Use(chimw.Recoverer)
	if d.Metrics != nil {
		mux.Use(d.Metrics.Middleware)
	}
	if d.Limiter != nil {
		mux.Use(d.Limiter)
	}
	if len(d.AllowedOrigins) > 0 {
		mux.Use(cors.Handler(cors.Options{
			AllowedOrigins: d.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
			MaxAge:         300,
		}))
	}

	mux.Get("/health", middleware.HealthHandler(d.Checks))
	mux.Get("/ready", middleware.ReadinessHandler(func() bool { return !d.Controller.Store().IsLoading() }))
	mux.Get("/live", middleware.LivenessHandler)
	if d.Metrics != nil {
		mux.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	mux.Route("/v1", func(rt chi.Router) {
		rt.Get("/state", r.wrap(r.handleState))
		rt.Put("/tab", r.wrap(r.handleSelectTab))
		rt.Put("/search", r.wrap(r.handleSearch))
		rt.Post("/refresh", r.wrap(r.handleRefresh))
		rt.Post("/export", r.wrap(r.handleExport))

		rt.Route("/form", func(rt chi.Router) {
			rt.Post("/", r.wrap(r.handleOpenForCreate))
			rt.Delete("/", r.wrap(r.handleCancel))
			rt.Patch("/draft", r.wrap(r.handleUpdateDraft))
			rt.Post("/submit", r.wrap(r.handleSubmit))
			rt.Post("/suggest", r.wrap(r.handleSuggest))
			rt.Post("/{id}", r.wrap(r.handleOpenForEdit))
		})

		rt.Post("/analyses/{id}/delete", r.wrap(r.handleRequestDelete))
		rt.Post("/analyses/{id}/delete/confirm", r.wrap(r.handleConfirmDelete))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// badRequest marks a malformed request body or parameter
type badRequest struct{ err error }

func (e badRequest) Error() string { return e.err.Error() }

type errorBody struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
}

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		status := statusFor(err)
		body := errorBody{Error: err.Error()}
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			body.Fields = ve.Fields
		}
		if status >= http.StatusInternalServerError {
			r.log.Error("request failed", zap.String("path", req.URL.Path), zap.Error(err))
		}
		writeJSON(w, status, body)
	}
}

func statusFor(err error) int {
	var br badRequest
	switch {
	case errors.As(err, &br):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, domain.ErrIOFailure):
		return http.StatusBadGateway
	case errors.Is(err, appanalyses.ErrNotConfigured):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decode(req *http.Request, v any) error {
	if err := json.NewDecoder(req.Body).Decode(v); err != nil {
		return badRequest{fmt.Errorf("invalid JSON body: %w", err)}
	}
	return nil
}

func pathID(req *http.Request) (domain.ID, error) {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateAnalysisID(id); err != nil {
		return "", badRequest{err}
	}
	return domain.ID(id), nil
}

func (r *Router) state(w http.ResponseWriter) error {
	writeJSON(w, http.StatusOK, r.ctl.State())
	return nil
}

// GET /v1/state
func (r *Router) handleState(w http.ResponseWriter, req *http.Request) error {
	return r.state(w)
}

// PUT /v1/tab
// Body: {"tab": "logical|physical|electronic"}
func (r *Router) handleSelectTab(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Tab string `json:"tab"`
	}
	if err := decode(req, &body); err != nil {
		return err
	}
	cat, err := middleware.ValidateCategory(body.Tab)
	if err != nil {
		return &domain.ValidationError{Fields: []string{domain.FieldCategory}}
	}
	if err := r.ctl.SelectTab(cat); err != nil {
		return err
	}
	return r.state(w)
}

// PUT /v1/search
// Body: {"query": "<text>"}
func (r *Router) handleSearch(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Query string `json:"query"`
	}
	if err := decode(req, &body); err != nil {
		return err
	}
	if err := middleware.ValidateQuery(body.Query); err != nil {
		return badRequest{err}
	}
	r.ctl.SetSearchQuery(middleware.SanitizeString(body.Query))
	return r.state(w)
}

// POST /v1/refresh
func (r *Router) handleRefresh(w http.ResponseWriter, req *http.Request) error {
	if err := r.ctl.Refresh(req.Context()); err != nil {
		return err
	}
	return r.state(w)
}

// POST /v1/export
func (r *Router) handleExport(w http.ResponseWriter, req *http.Request) error {
	url, err := r.ctl.Export(req.Context())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, map[string]string{"url": url})
	return nil
}

// POST /v1/form
func (r *Router) handleOpenForCreate(w http.ResponseWriter, req *http.Request) error {
	r.ctl.OpenForCreate()
	return r.state(w)
}

// POST /v1/form/{id}
func (r *Router) handleOpenForEdit(w http.ResponseWriter, req *http.Request) error {
	id, err := pathID(req)
	if err != nil {
		return err
	}
	if err := r.ctl.OpenForEdit(id); err != nil {
		return err
	}
	return r.state(w)
}

// DELETE /v1/form
func (r *Router) handleCancel(w http.ResponseWriter, req *http.Request) error {
	if err := r.ctl.Cancel(); err != nil {
		return err
	}
	return r.state(w)
}

// PATCH /v1/form/draft
// Body: {"field": "device", "value": "HD Seagate 2TB"}
func (r *Router) handleUpdateDraft(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}
	if err := decode(req, &body); err != nil {
		return err
	}
	if err := r.ctl.UpdateDraftField(body.Field, middleware.SanitizeString(body.Value)); err != nil {
		return err
	}
	return r.state(w)
}

// POST /v1/form/submit
func (r *Router) handleSubmit(w http.ResponseWriter, req *http.Request) error {
	if err := r.ctl.Submit(req.Context()); err != nil {
		return err
	}
	return r.state(w)
}

// POST /v1/form/suggest
func (r *Router) handleSuggest(w http.ResponseWriter, req *http.Request) error {
	if err := r.ctl.SuggestAnalysis(req.Context()); err != nil {
		return err
	}
	return r.state(w)
}

// POST /v1/analyses/{id}/delete
func (r *Router) handleRequestDelete(w http.ResponseWriter, req *http.Request) error {
	id, err := pathID(req)
	if err != nil {
		return err
	}
	r.ctl.RequestDelete(id)
	return r.state(w)
}

// POST /v1/analyses/{id}/delete/confirm
// Body: {"confirmed": true}
func (r *Router) handleConfirmDelete(w http.ResponseWriter, req *http.Request) error {
	id, err := pathID(req)
	if err != nil {
		return err
	}
	var body struct {
		Confirmed bool `json:"confirmed"`
	}
	if err := decode(req, &body); err != nil {
		return err
	}
	if !body.Confirmed {
		r.ctl.DeclineDelete(id)
		return r.state(w)
	}
	if err := r.ctl.ConfirmDelete(req.Context(), id); err != nil {
		return err
	}
	return r.state(w)
}
