package api

import (
	"context"
	"net/http"
	"time"

	"MacroPulse/internal/domain/models"
	drepo "MacroPulse/internal/domain/repository"
	"MacroPulse/internal/publisher"
	"MacroPulse/internal/scheduler"
	"MacroPulse/internal/usecase"
	xhttp "MacroPulse/pkg/http"
	xlogger "MacroPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// DashboardHandler serves the aggregated snapshot and the manual refresh
// trigger.
type DashboardHandler struct {
	store     drepo.SnapshotStore
	trigger   *scheduler.Trigger
	hub       *publisher.Hub
	collector *xlogger.Collector
	logger    *xlogger.Logger
}

func NewDashboardHandler(
	store drepo.SnapshotStore,
	trigger *scheduler.Trigger,
	hub *publisher.Hub,
	collector *xlogger.Collector,
	logger *xlogger.Logger,
) *DashboardHandler {
	return &DashboardHandler{
		store:     store,
		trigger:   trigger,
		hub:       hub,
		collector: collector,
		logger:    logger,
	}
}

var _ xhttp.Handler = (*DashboardHandler)(nil)

func (h *DashboardHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	e.GET("/ws", h.hub.ServeWS)

	g := e.Group("/api")
	g.GET("/data", h.GetData)
	g.POST("/update", h.TriggerUpdate)
	g.GET("/logs", h.GetLogs)
}

// GetData returns the latest snapshot, or one section of it when
// ?section=portfolio|macro|news|tweets is given.
func (h *DashboardHandler) GetData(c echo.Context) error {
	req := &models.DataRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	snap, ok := h.store.Current()
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("no snapshot published yet"))
	}

	switch req.Section {
	case "portfolio":
		return xhttp.SuccessResponse(c, snap.Portfolio)
	case "macro":
		return xhttp.SuccessResponse(c, snap.Macro)
	case "news":
		return xhttp.SuccessResponse(c, snap.News)
	case "tweets":
		return xhttp.SuccessResponse(c, snap.Tweets)
	default:
		return xhttp.SuccessResponse(c, snap)
	}
}

// TriggerUpdate runs a refresh out of schedule. Concurrent triggers coalesce
// onto the run already in flight.
func (h *DashboardHandler) TriggerUpdate(c echo.Context) error {
	req := &models.UpdateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	if !req.WaitForResult() {
		go func() {
			if _, err := h.trigger.Fire(context.Background(), usecase.TriggerManual); err != nil {
				h.logger.Error("manual refresh failed", xlogger.Error(err))
			}
		}()
		return xhttp.DataResponse(c, http.StatusAccepted, map[string]string{"status": "started"})
	}

	snap, err := h.trigger.Fire(c.Request().Context(), usecase.TriggerManual)
	if err != nil {
		h.logger.Error("manual refresh failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("refresh failed").WithError(err))
	}
	return xhttp.SuccessResponse(c, snap)
}

// GetLogs returns recent warn/error entries retained in memory.
func (h *DashboardHandler) GetLogs(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.collector.Recent())
}

func (h *DashboardHandler) Health(c echo.Context) error {
	status := map[string]interface{}{"status": "ok"}
	if snap, ok := h.store.Current(); ok {
		status["snapshot_age_seconds"] = int(time.Since(snap.Timestamp).Seconds())
		status["next_update"] = snap.NextUpdate
	}
	return xhttp.SuccessResponse(c, status)
}
