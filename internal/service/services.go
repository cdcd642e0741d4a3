package service

import (
	"log/slog"

	"github.com/listenupapp/readinglists-server/internal/store"
)

// Services bundles everything the HTTP layer calls into.
type Services struct {
	Resolver     *Resolver
	Gate         Gate
	Relations    *RelationshipManager
	Books        *BookService
	ReadingLists *ReadingListService
	Users        *UserService
}

// New wires the services over one store.
func New(s *store.Store, logger *slog.Logger) *Services {
	relations := NewRelationshipManager(s, logger)
	return &Services{
		Resolver:     NewResolver(s),
		Relations:    relations,
		Books:        NewBookService(s, relations, logger),
		ReadingLists: NewReadingListService(s, logger),
		Users:        NewUserService(s, logger),
	}
}
