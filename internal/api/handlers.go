package api

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"message-board/internal/metrics"
	"message-board/internal/model"
)

func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(a.instrument)

	r.Get("/", a.ListMessages)
	r.Get("/{id}", a.GetMessage)
	r.Post("/", a.CreateMessage)

	return r
}

// @Summary List all messages
// @Tags Messages
// @Produce json
// @Success 200 {array} model.Message
// @Router / [get]
func (a *API) ListMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := a.Service.FindMessages(r.Context())
	if err != nil {
		a.serverError(w, r, err)
		return
	}
	a.writeJSON(w, messages)
}

// @Summary List messages matching an id
// @Description Returns an array of zero or one message. An unknown id is not an error.
// @Tags Messages
// @Produce json
// @Param id path string true "Message id"
// @Success 200 {array} model.Message
// @Router /{id} [get]
func (a *API) GetMessage(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		http.Error(w, "invalid message id", http.StatusBadRequest)
		return
	}

	messages, err := a.Service.FindMessageByID(r.Context(), id)
	if err != nil {
		a.serverError(w, r, err)
		return
	}
	a.writeJSON(w, messages)
}

// @Summary Create a message
// @Description Stores the message, generating an id when none is given. A message with an existing id replaces it.
// @Tags Messages
// @Accept json
// @Param body body model.Message true "Message"
// @Success 200
// @Router / [post]
func (a *API) CreateMessage(w http.ResponseWriter, r *http.Request) {
	var body model.Message
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}

	saved, err := a.Service.Save(r.Context(), body)
	if err != nil {
		a.serverError(w, r, err)
		return
	}

	metrics.MessagesSaved.WithLabelValues("http").Inc()
	a.log.Info("API: Saved message", "id", saved.ID)
	w.WriteHeader(http.StatusOK)
}

// pathParam returns the decoded value of a route parameter. chi matches on
// r.URL.RawPath when it is set, leaving the parameter percent-encoded.
func pathParam(r *http.Request, key string) (string, error) {
	value := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return value, nil
	}
	return url.PathUnescape(value)
}

func (a *API) writeJSON(w http.ResponseWriter, messages []model.Message) {
	if messages == nil {
		messages = []model.Message{}
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(messages); err != nil {
		a.log.Error("Failed to encode response", "error", err)
	}
}

func (a *API) serverError(w http.ResponseWriter, r *http.Request, err error) {
	a.log.Error("Request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", middleware.GetReqID(r.Context()),
		"error", err,
	)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
