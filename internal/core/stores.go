package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/imanix/b2b-storefront/config"
	"github.com/imanix/b2b-storefront/internal/core/domain"
	"github.com/imanix/b2b-storefront/internal/core/repository"
	"github.com/rs/zerolog/log"
)

// Stores bundles the repositories selected by configuration.
type Stores struct {
	Users    domain.UserRepository
	Sessions domain.SessionRepository

	closers []func()
}

// Close releases every connection opened by OpenStores.
func (s *Stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// OpenStores connects the profile store and the configured session backend.
// Without DATABASE_URL, profiles live in memory; this is only useful for
// local development.
func OpenStores(ctx context.Context, cfg *config.Config) (*Stores, error) {
	s := &Stores{}

	if cfg.Database.URL != "" {
		pool, err := Connect(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, pool.Close)
		s.Users = repository.NewUserRepository(pool)
		if cfg.Session.Backend == config.SessionBackendPostgres {
			s.Sessions = repository.NewSessionRepository(pool)
		}
		log.Info().Msg("Database connection pool established")
	} else {
		log.Warn().Msg("DATABASE_URL not set, using in-memory profile store")
		s.Users = repository.NewMemoryUserRepository()
	}

	switch cfg.Session.Backend {
	case config.SessionBackendPostgres:
		if s.Sessions == nil {
			s.Close()
			return nil, errors.New("postgres session backend requires DATABASE_URL")
		}
	case config.SessionBackendRedis:
		client, err := ConnectRedis(ctx, cfg.Redis)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.closers = append(s.closers, func() { _ = client.Close() })
		s.Sessions = repository.NewRedisSessionRepository(client)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("Redis session store connected")
	case config.SessionBackendMemory:
		s.Sessions = repository.NewMemorySessionRepository()
	default:
		s.Close()
		return nil, fmt.Errorf("unknown session backend %q", cfg.Session.Backend)
	}

	return s, nil
}
