package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"message-board/internal/config"
)

var ErrUnknownStoreKind = errors.New("unknown store kind")

// Open builds the store selected by cfg.Store.Kind.
func Open(ctx context.Context, cfg *config.Config, log *slog.Logger) (Store, error) {
	switch cfg.Store.Kind {
	case config.StoreStatic:
		log.Info("Using static message store")
		return NewStaticStore(), nil

	case config.StorePostgres:
		s, err := NewPostgresStore(cfg.Database.URL, log)
		if err != nil {
			return nil, err
		}
		if cfg.Database.Migrate {
			if err := s.Migrate(ctx); err != nil {
				_ = s.Close()
				return nil, err
			}
		}
		log.Info("PostgreSQL connected")
		return s, nil

	case config.StoreBadger:
		s, err := OpenBadgerStore(cfg.Store.BadgerPath, log)
		if err != nil {
			return nil, err
		}
		log.Info("Badger store opened", "path", cfg.Store.BadgerPath)
		return s, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownStoreKind, cfg.Store.Kind)
}
