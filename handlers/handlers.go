package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"harmonychain/models"
	"harmonychain/service"

	"github.com/gorilla/mux"
)

type CookieConfig struct {
	Name   string
	Secure bool
}

type Handler struct {
	svc    service.Service
	tokens SessionTokens
	cookie CookieConfig
	pages  *pageRenderer
	logger *slog.Logger
}

func NewHandler(
	svc service.Service,
	tokens SessionTokens,
	cookie CookieConfig,
	logger *slog.Logger,
) Handler {
	return Handler{
		svc:    svc,
		tokens: tokens,
		cookie: cookie,
		pages:  mustLoadPages(),
		logger: logger,
	}
}

// NewRouter mounts the HTML pages, form actions and JSON API.
func NewRouter(h Handler) *mux.Router {
	r := mux.NewRouter()
	r.Use(h.LoggingMiddleware)
	r.HandleFunc("/healthz", h.HealthHandler).Methods("GET")

	app := r.NewRoute().Subrouter()
	app.Use(h.SessionMiddleware)

	app.HandleFunc("/", h.IndexHandler).Methods("GET")
	app.HandleFunc("/pages/{page}", h.PageHandler).Methods("GET")
	app.HandleFunc("/actions/stream", h.StreamFormHandler).Methods("POST")
	app.HandleFunc("/actions/mine", h.MineFormHandler).Methods("POST")
	app.HandleFunc("/actions/proposal", h.ProposalFormHandler).Methods("POST")
	app.HandleFunc("/actions/profile", h.ProfileFormHandler).Methods("POST")
	app.HandleFunc("/actions/reset", h.ResetFormHandler).Methods("POST")

	api := app.PathPrefix("/api").Subrouter()
	api.HandleFunc("/state", h.StateHandler).Methods("GET")
	api.HandleFunc("/prices", h.PricesHandler).Methods("GET")
	api.HandleFunc("/cryptos", h.CryptosHandler).Methods("GET")
	api.HandleFunc("/songs", h.SongsHandler).Methods("GET")
	api.HandleFunc("/stream", h.StreamHandler).Methods("POST")
	api.HandleFunc("/mine", h.MineHandler).Methods("POST")
	api.HandleFunc("/proposals", h.ProposalHandler).Methods("POST")
	return r
}

type StreamRequest struct {
	Genre string `json:"genre"`
}

type ProposalRequest struct {
	Text string `json:"text"`
}

type StateResponse struct {
	Username    string        `json:"username"`
	Balance     models.Amount `json:"balance"`
	MiningPower int           `json:"miningPower"`
	Page        models.Page   `json:"page"`
	Proposals   []string      `json:"proposals"`
}

type ActionResponse struct {
	Balance  models.Amount `json:"balance"`
	Credited models.Amount `json:"credited"`
	Messages []string      `json:"messages"`
}

type ErrorResponse struct {
	Errors string `json:"errors"`
}

func (h Handler) IndexHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(r.Context())
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "session missing")
		return
	}
	h.renderPage(w, r, http.StatusOK, service.RenderInput{Session: sess})
}

func (h Handler) PageHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(r.Context())
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "session missing")
		return
	}
	page, err := models.ParsePage(mux.Vars(r)["page"])
	if err != nil {
		http.NotFound(w, r)
		return
	}
	res, err := h.svc.Navigate(r.Context(), sess.ID, page)
	if err != nil {
		h.failPage(w, r, service.RenderInput{Session: sess}, err)
		return
	}
	h.renderPage(w, r, http.StatusOK, service.RenderInput{Session: res.Session})
}

func (h Handler) StreamFormHandler(w http.ResponseWriter, r *http.Request) {
	genre := r.FormValue("genre")
	h.formAction(w, r, genre, func(id string) (service.Result, error) {
		return h.svc.StreamMusic(r.Context(), id, genre)
	})
}

func (h Handler) MineFormHandler(w http.ResponseWriter, r *http.Request) {
	h.formAction(w, r, r.FormValue("genre"), func(id string) (service.Result, error) {
		return h.svc.Mine(r.Context(), id)
	})
}

func (h Handler) ProposalFormHandler(w http.ResponseWriter, r *http.Request) {
	text := r.FormValue("proposal")
	h.formAction(w, r, r.FormValue("genre"), func(id string) (service.Result, error) {
		return h.svc.SubmitProposal(r.Context(), id, text)
	})
}

func (h Handler) ProfileFormHandler(w http.ResponseWriter, r *http.Request) {
	name := r.FormValue("username")
	h.formAction(w, r, r.FormValue("genre"), func(id string) (service.Result, error) {
		return h.svc.Rename(r.Context(), id, name)
	})
}

// ResetFormHandler ends the current session and starts over with defaults.
func (h Handler) ResetFormHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(r.Context())
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "session missing")
		return
	}
	current := service.RenderInput{Session: sess, Page: models.PageDashboard}
	if err := h.svc.EndSession(r.Context(), sess.ID); err != nil {
		h.failPage(w, r, current, err)
		return
	}
	fresh, err := h.svc.StartSession(r.Context())
	if err != nil {
		h.failPage(w, r, current, err)
		return
	}
	if err := h.setSessionCookie(w, fresh.ID); err != nil {
		h.failPage(w, r, service.RenderInput{Session: fresh, Page: models.PageDashboard}, err)
		return
	}
	h.renderPage(w, r, http.StatusOK, service.RenderInput{Session: fresh, Page: models.PageDashboard})
}

func (h Handler) formAction(
	w http.ResponseWriter,
	r *http.Request,
	genre string,
	apply func(id string) (service.Result, error),
) {
	sess, ok := sessionFrom(r.Context())
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "session missing")
		return
	}
	// Results are drawn on the dashboard whatever page the session is on.
	res, err := apply(sess.ID)
	if err != nil {
		h.failPage(w, r, service.RenderInput{
			Session:       sess,
			SelectedGenre: genre,
			Page:          models.PageDashboard,
		}, err)
		return
	}
	h.renderPage(w, r, http.StatusOK, service.RenderInput{
		Session:       res.Session,
		Outcome:       res.Outcome,
		SelectedGenre: genre,
		Page:          models.PageDashboard,
	})
}

// failPage re-renders in with the error for validation failures and falls
// back to a plain 500 otherwise.
func (h Handler) failPage(w http.ResponseWriter, r *http.Request, in service.RenderInput, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		http.Error(w, "internal error", code)
		return
	}
	in.Errors = []string{err.Error()}
	h.renderPage(w, r, code, in)
}

func (h Handler) renderPage(w http.ResponseWriter, r *http.Request, code int, in service.RenderInput) {
	if in.Prices == nil {
		in.Prices = h.svc.PriceSeries(in.Session)
	}
	if err := h.pages.render(w, code, service.Render(in)); err != nil {
		h.logger.ErrorContext(r.Context(), "render page", "error", err)
	}
}

func (h Handler) StateHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(r.Context())
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "session missing")
		return
	}
	respondWithJSON(w, http.StatusOK, StateResponse{
		Username:    sess.Username,
		Balance:     sess.State.Balance,
		MiningPower: sess.State.MiningPower,
		Page:        sess.Page,
		Proposals:   append([]string{}, sess.Proposals...),
	})
}

func (h Handler) PricesHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(r.Context())
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "session missing")
		return
	}
	respondWithJSON(w, http.StatusOK, h.svc.PriceSeries(sess))
}

func (h Handler) CryptosHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, service.Cryptocurrencies())
}

func (h Handler) SongsHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, service.TopSongs())
}

func (h Handler) StreamHandler(w http.ResponseWriter, r *http.Request) {
	var req StreamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.apiAction(w, r, func(id string) (service.Result, error) {
		return h.svc.StreamMusic(r.Context(), id, req.Genre)
	})
}

func (h Handler) MineHandler(w http.ResponseWriter, r *http.Request) {
	h.apiAction(w, r, func(id string) (service.Result, error) {
		return h.svc.Mine(r.Context(), id)
	})
}

func (h Handler) ProposalHandler(w http.ResponseWriter, r *http.Request) {
	var req ProposalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.apiAction(w, r, func(id string) (service.Result, error) {
		return h.svc.SubmitProposal(r.Context(), id, req.Text)
	})
}

func (h Handler) apiAction(
	w http.ResponseWriter,
	r *http.Request,
	apply func(id string) (service.Result, error),
) {
	sess, ok := sessionFrom(r.Context())
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "session missing")
		return
	}
	res, err := apply(sess.ID)
	if err != nil {
		code := statusFor(err)
		if code == http.StatusInternalServerError {
			h.logger.ErrorContext(r.Context(), "api action failed", "path", r.URL.Path, "error", err)
		}
		respondWithError(w, code, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, ActionResponse{
		Balance:  res.Session.State.Balance,
		Credited: res.Outcome.Credited,
		Messages: res.Outcome.Messages,
	})
}

func (h Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.ActiveSessions(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "sessions": n})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (h Handler) LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.logger.InfoContext(r.Context(), "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrUnknownGenre),
		errors.Is(err, models.ErrEmptyProposal),
		errors.Is(err, models.ErrInsufficientBalance):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrUnknownPage):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Errors: message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}
