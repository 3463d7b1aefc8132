package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "message-board/docs"
	"message-board/internal/metrics"
)

var validate = validator.New()

// ConcurrencyConfig is the body of PUT /ingest/workers.
type ConcurrencyConfig struct {
	Workers int `json:"workers" validate:"min=1,max=256"`
}

// OpsRouter serves administration, metrics, health and API docs. It is mounted
// on its own listener so that every path on the main router stays available
// as a message id. scaler is nil when ingestion is disabled.
func (a *API) OpsRouter(scaler WorkerScaler) http.Handler {
	r := chi.NewRouter()
	r.Handle("/metrics", metrics.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Delete("/admin/messages/{id}", a.DeleteMessage)

	if scaler != nil {
		r.Get("/ingest/workers", func(w http.ResponseWriter, _ *http.Request) {
			writeConcurrency(w, scaler.Workers())
		})
		r.Put("/ingest/workers", func(w http.ResponseWriter, r *http.Request) {
			a.UpdateConcurrency(w, r, scaler)
		})
	}
	return r
}

// @Summary Delete a message
// @Tags Admin
// @Param id path string true "Message id"
// @Success 204
// @Router /admin/messages/{id} [delete]
func (a *API) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		http.Error(w, "invalid message id", http.StatusBadRequest)
		return
	}

	if err := a.Service.DeleteMessage(r.Context(), id); err != nil {
		a.serverError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// @Summary Update ingestion worker pool concurrency
// @Tags Admin
// @Accept json
// @Produce json
// @Param body body ConcurrencyConfig true "Concurrency config"
// @Success 200 {object} ConcurrencyConfig
// @Router /ingest/workers [put]
func (a *API) UpdateConcurrency(w http.ResponseWriter, r *http.Request, scaler WorkerScaler) {
	var body ConcurrencyConfig
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(body); err != nil {
		http.Error(w, "workers must be between 1 and 256", http.StatusBadRequest)
		return
	}

	scaler.SetWorkerCount(body.Workers)
	a.log.Info("API: Updated ingestion concurrency", "workers", body.Workers)
	writeConcurrency(w, scaler.Workers())
}

func writeConcurrency(w http.ResponseWriter, n int) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(ConcurrencyConfig{Workers: n})
}
