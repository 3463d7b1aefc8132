package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"message-board/internal/model"
	"message-board/internal/storage"
)

type MessageService struct {
	store     storage.Store
	publisher Publisher
	log       *slog.Logger
	newID     func() string
}

// NewMessageService wires the service to its store. publisher may be nil.
func NewMessageService(store storage.Store, publisher Publisher, log *slog.Logger) *MessageService {
	return &MessageService{
		store:     store,
		publisher: publisher,
		log:       log,
		newID:     uuid.NewString,
	}
}

func (s *MessageService) FindMessages(ctx context.Context) ([]model.Message, error) {
	return s.store.ListAll(ctx)
}

func (s *MessageService) FindMessageByID(ctx context.Context, id string) ([]model.Message, error) {
	return s.store.FindByID(ctx, id)
}

// Save assigns a fresh UUID when the message has none, then stores it.
// It returns the message as stored.
func (s *MessageService) Save(ctx context.Context, message model.Message) (model.Message, error) {
	if !message.HasID() {
		message.ID = s.newID()
	}
	if err := s.store.Save(ctx, message); err != nil {
		return model.Message{}, fmt.Errorf("save message: %w", err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishSaved(ctx, message); err != nil {
			s.log.Warn("Failed to publish saved event", "id", message.ID, "error", err)
		}
	}
	return message, nil
}

// DeleteMessage removes a message by id. It backs the administrative route
// on the ops listener; the message API has no delete.
func (s *MessageService) DeleteMessage(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	s.log.Info("Message deleted", "id", id)
	return nil
}
