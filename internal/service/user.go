package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/listenupapp/readinglists-server/internal/domain"
	"github.com/listenupapp/readinglists-server/internal/store"
)

// UserService records the identities that have logged in.
type UserService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewUserService creates a new user service.
func NewUserService(s *store.Store, logger *slog.Logger) *UserService {
	return &UserService{store: s, logger: logger}
}

// Ensure creates the user for subject on first sight. Repeat calls are no-ops.
func (s *UserService) Ensure(ctx context.Context, subject string) (*domain.User, error) {
	created, err := s.store.Users.Insert(ctx, subject, store.Document{})
	if err != nil {
		return nil, fmt.Errorf("ensure user: %w", err)
	}
	if created {
		s.logger.Info("user registered", "id", subject)
	}
	return &domain.User{ID: subject}, nil
}

// List returns one page of users in key order.
func (s *UserService) List(ctx context.Context, limit, offset int) (*store.Page[domain.User], error) {
	return s.store.Users.QueryPage(ctx, store.Query[domain.User]{Limit: limit, Offset: offset})
}
