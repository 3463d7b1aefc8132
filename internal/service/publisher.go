//go:generate go run go.uber.org/mock/mockgen -source=publisher.go -destination=../mocks/mock_publisher.go -package=mocks
package service

import (
	"context"

	"message-board/internal/model"
)

// Publisher is notified after a message has been stored.
type Publisher interface {
	PublishSaved(ctx context.Context, message model.Message) error
}
