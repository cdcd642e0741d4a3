package providers

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/readinglists-server/internal/logger"
	"github.com/listenupapp/readinglists-server/internal/service"
)

// ProvideServices provides the business services over the shared store.
func ProvideServices(i do.Injector) (*service.Services, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.New(storeHandle.Store, log.Logger), nil
}
