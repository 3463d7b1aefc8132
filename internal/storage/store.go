//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=../mocks/mock_store.go -package=mocks
package storage

import (
	"context"

	"message-board/internal/model"
)

// Store is the persistence contract shared by every backend.
// FindByID returns an empty slice, never an error, when the id is unknown.
// Save overwrites any message with the same id.
type Store interface {
	ListAll(ctx context.Context) ([]model.Message, error)
	FindByID(ctx context.Context, id string) ([]model.Message, error)
	Save(ctx context.Context, message model.Message) error
	Delete(ctx context.Context, id string) error
	Close() error
}
