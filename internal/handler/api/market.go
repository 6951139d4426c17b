package api

import (
	"ForexPulse/internal/domain/models"
	"ForexPulse/internal/usecase"
	xhttp "ForexPulse/pkg/http"
	xlogger "ForexPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// MarketHandler serves the read API. List endpoints return bare JSON arrays.
type MarketHandler struct {
	logger *xlogger.Logger
	query  *usecase.QueryService
}

func NewMarketHandler(logger *xlogger.Logger, query *usecase.QueryService) *MarketHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &MarketHandler{logger: logger, query: query}
}

func (h *MarketHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
	g := e.Group("/api")
	g.GET("/news", h.News)
	g.GET("/events", h.Events)
	g.GET("/forecast", h.Forecast)
	g.GET("/signals", h.Signals)
	g.GET("/status", h.Status)
}

func (h *MarketHandler) Health(c echo.Context) error {
	return xhttp.RawResponse(c, h.query.Health())
}

func (h *MarketHandler) News(c echo.Context) error {
	req := &models.NewsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return xhttp.RawResponse(c, h.query.News(req.Limit))
}

func (h *MarketHandler) Events(c echo.Context) error {
	req := &models.EventsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		h.logger.Debug("events bad request", xlogger.String("day", c.QueryParam("day")))
		return xhttp.BadRequestResponse(c, verr)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return xhttp.RawResponse(c, h.query.Events(req.Day))
}

func (h *MarketHandler) Forecast(c echo.Context) error {
	return xhttp.RawResponse(c, h.query.Forecast())
}

func (h *MarketHandler) Signals(c echo.Context) error {
	return xhttp.RawResponse(c, h.query.Signals())
}

// Status is the operations view, wrapped in the standard envelope.
func (h *MarketHandler) Status(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.query.Status())
}
