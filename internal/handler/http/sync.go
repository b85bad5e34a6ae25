package http

import (
	"net/http"

	"github.com/cmlabs-hris/attendance-engine-go/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-engine-go/internal/service/devicesync"
)

type SyncHandler interface {
	Trigger(w http.ResponseWriter, r *http.Request)
}

type syncHandlerImpl struct {
	syncService *devicesync.Service
}

func NewSyncHandler(syncService *devicesync.Service) SyncHandler {
	return &syncHandlerImpl{
		syncService: syncService,
	}
}

// Trigger implements SyncHandler. Kicks one sync cycle outside the schedule,
// e.g. after a device comes back online.
func (h *syncHandlerImpl) Trigger(w http.ResponseWriter, r *http.Request) {
	if err := h.syncService.Sync(r.Context()); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Device sync completed", nil)
}
