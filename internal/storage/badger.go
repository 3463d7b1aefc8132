package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"message-board/internal/model"
)

const messagePrefix = "msg:"

// BadgerStore keeps messages in an embedded BadgerDB under "msg:{id}" keys,
// so ListAll returns them in id order.
type BadgerStore struct {
	db  *badger.DB
	log *slog.Logger
}

func NewBadgerStore(db *badger.DB, log *slog.Logger) *BadgerStore {
	return &BadgerStore{db: db, log: log}
}

// OpenBadgerStore opens (or creates) the database directory at path.
func OpenBadgerStore(path string, log *slog.Logger) (*BadgerStore, error) {
	db, err := badger.Open(badger.DefaultOptions(path).WithLoggingLevel(badger.ERROR))
	if err != nil {
		return nil, fmt.Errorf("failed to open badger at %s: %w", path, err)
	}
	return NewBadgerStore(db, log), nil
}

func (s *BadgerStore) ListAll(_ context.Context) ([]model.Message, error) {
	messages := make([]model.Message, 0)
	prefix := []byte(messagePrefix)
	err := s.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Prefix = prefix
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				var m model.Message
				if err := json.Unmarshal(value, &m); err != nil {
					return err
				}
				messages = append(messages, m)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return messages, nil
}

func (s *BadgerStore) FindByID(_ context.Context, id string) ([]model.Message, error) {
	messages := make([]model.Message, 0, 1)
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(messageKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			var m model.Message
			if err := json.Unmarshal(value, &m); err != nil {
				return err
			}
			messages = append(messages, m)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("find message %s: %w", id, err)
	}
	return messages, nil
}

func (s *BadgerStore) Save(_ context.Context, m model.Message) error {
	bytes, err := json.Marshal(m)
	if err != nil {
		return err
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(messageKey(m.ID), bytes)
	})
	if err != nil {
		return fmt.Errorf("failed to save message %s: %w", m.ID, err)
	}
	s.log.Debug("Message saved", "id", m.ID)
	return nil
}

func (s *BadgerStore) Delete(_ context.Context, id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(messageKey(id))
	})
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func messageKey(id string) []byte {
	return []byte(messagePrefix + id)
}

var _ Store = (*BadgerStore)(nil)
