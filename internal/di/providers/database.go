package providers

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/readinglists-server/internal/config"
	"github.com/listenupapp/readinglists-server/internal/logger"
	"github.com/listenupapp/readinglists-server/internal/store"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the document store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	path := cfg.Store.Path
	if cfg.Store.InMemory {
		path = ""
	}

	db, err := store.New(path, log.Logger)
	if err != nil {
		return nil, err
	}

	if path == "" {
		log.Warn("Store is in memory; data will be lost on exit")
	} else {
		log.Info("Store initialized", "path", path)
	}

	return &StoreHandle{Store: db}, nil
}
