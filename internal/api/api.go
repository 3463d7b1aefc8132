package api

import (
	"context"
	"log/slog"

	"message-board/internal/model"
)

// MessageService is what the controller needs from the service layer.
type MessageService interface {
	FindMessages(ctx context.Context) ([]model.Message, error)
	FindMessageByID(ctx context.Context, id string) ([]model.Message, error)
	Save(ctx context.Context, message model.Message) (model.Message, error)
	DeleteMessage(ctx context.Context, id string) error
}

// WorkerScaler resizes the ingestion worker pool.
type WorkerScaler interface {
	Workers() int
	SetWorkerCount(n int)
}

type API struct {
	Service MessageService
	log     *slog.Logger
}

func NewAPI(svc MessageService, log *slog.Logger) *API {
	return &API{
		Service: svc,
		log:     log,
	}
}
