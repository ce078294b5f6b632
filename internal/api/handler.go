// internal/api/handler.go
package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tamzrod/connect-client/internal/device"
	"github.com/tamzrod/connect-client/internal/status"
)

// OnlineSource reports the link status.
type OnlineSource interface {
	Status() status.Online
}

// DeviceSource reports the printer side.
type DeviceSource interface {
	Telemetry() device.Telemetry
	PrinterInfo() device.PrinterInfo
}

// Handler serves the local read-only surface.
type Handler struct {
	online   OnlineSource
	device   DeviceSource
	gatherer prometheus.Gatherer
}

func NewHandler(online OnlineSource, dev DeviceSource, gatherer prometheus.Gatherer) *Handler {
	return &Handler{online: online, device: dev, gatherer: gatherer}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	v1 := e.Group("/v1")
	v1.GET("/status", h.getStatus)
	v1.GET("/telemetry", h.getTelemetry)

	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))
}

type statusResponse struct {
	Link      status.Link        `json:"link"`
	Code      status.Code        `json:"code"`
	LastError string             `json:"last_error,omitempty"`
	LastOK    *time.Time         `json:"last_ok,omitempty"`
	Since     time.Time          `json:"since"`
	Printer   device.PrinterInfo `json:"printer"`
}

func (h *Handler) getStatus(c echo.Context) error {
	on := h.online.Status()
	resp := statusResponse{
		Link:      on.Link,
		Code:      on.Code,
		LastError: on.LastError,
		Since:     on.Since,
		Printer:   h.device.PrinterInfo(),
	}
	if !on.LastOK.IsZero() {
		resp.LastOK = &on.LastOK
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) getTelemetry(c echo.Context) error {
	return c.JSON(http.StatusOK, h.device.Telemetry())
}
