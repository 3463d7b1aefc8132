package storage

import (
	"context"
	"slices"

	"github.com/samber/lo"

	"message-board/internal/model"
)

var greetings = []model.Message{
	{ID: "1", Text: "Hello!"},
	{ID: "2", Text: "Bonjour!"},
	{ID: "3", Text: "Privet!"},
}

// StaticStore serves a fixed set of greetings. It is read-only: Save and
// Delete are accepted and ignored.
type StaticStore struct {
	messages []model.Message
}

func NewStaticStore() *StaticStore {
	return &StaticStore{messages: slices.Clone(greetings)}
}

func (s *StaticStore) ListAll(_ context.Context) ([]model.Message, error) {
	return slices.Clone(s.messages), nil
}

func (s *StaticStore) FindByID(_ context.Context, id string) ([]model.Message, error) {
	return lo.Filter(s.messages, func(m model.Message, _ int) bool {
		return m.ID == id
	}), nil
}

func (s *StaticStore) Save(_ context.Context, _ model.Message) error {
	return nil
}

func (s *StaticStore) Delete(_ context.Context, _ string) error {
	return nil
}

func (s *StaticStore) Close() error {
	return nil
}

var _ Store = (*StaticStore)(nil)
