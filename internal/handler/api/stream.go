package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"ForexPulse/internal/service/metrics"
	"ForexPulse/internal/usecase"
	xhttp "ForexPulse/pkg/http"
	xlogger "ForexPulse/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	transportSSE = "sse"
	transportWS  = "ws"
	writeWait    = 10 * time.Second
)

// StreamHandler pushes news batches over Server-Sent Events and WebSocket.
// Each connection is one notifier subscription; the connection closing unsubscribes it.
type StreamHandler struct {
	logger    *xlogger.Logger
	notifier  *usecase.Notifier
	metrics   *metrics.StreamMetrics
	heartbeat time.Duration
	upgrader  websocket.Upgrader
}

func NewStreamHandler(logger *xlogger.Logger, n *usecase.Notifier, m *metrics.StreamMetrics, heartbeat time.Duration) *StreamHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &StreamHandler{
		logger:    logger,
		notifier:  n,
		metrics:   m,
		heartbeat: heartbeat,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (h *StreamHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/stream", h.SSE)
	g.GET("/ws", h.WebSocket)
}

func (h *StreamHandler) heartbeatC() (<-chan time.Time, func()) {
	if h.heartbeat <= 0 {
		return nil, func() {}
	}
	t := time.NewTicker(h.heartbeat)
	return t.C, t.Stop
}

// SSE writes one "data:" event per batch and a comment line on every heartbeat.
func (h *StreamHandler) SSE(c echo.Context) error {
	sub, err := h.notifier.Subscribe()
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("stream is shutting down"))
	}
	defer sub.Close()

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set(echo.HeaderCacheControl, "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	h.metrics.Opened(transportSSE)
	defer h.metrics.Closed(transportSSE)
	h.logger.Debug("sse subscriber connected", xlogger.String("id", sub.ID), xlogger.String("remote", c.RealIP()))

	hb, stop := h.heartbeatC()
	defer stop()
	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-hb:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return nil
			}
			w.Flush()
		case batch, ok := <-sub.C:
			if !ok {
				return nil
			}
			b, err := json.Marshal(batch.Items)
			if err != nil {
				h.logger.Error("encode news batch", xlogger.Error(err))
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", b); err != nil {
				h.metrics.Failed(transportSSE)
				return nil
			}
			w.Flush()
			h.metrics.Sent(transportSSE)
		}
	}
}

// WebSocket sends each batch as one JSON text frame. Client frames are read
// only to notice the close.
func (h *StreamHandler) WebSocket(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", xlogger.Error(err))
		return nil
	}
	defer conn.Close()

	sub, err := h.notifier.Subscribe()
	if err != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(writeWait))
		return nil
	}
	defer sub.Close()

	h.metrics.Opened(transportWS)
	defer h.metrics.Closed(transportWS)
	h.logger.Debug("ws subscriber connected", xlogger.String("id", sub.ID), xlogger.String("remote", c.RealIP()))

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	hb, stop := h.heartbeatC()
	defer stop()
	for {
		select {
		case <-gone:
			return nil
		case <-hb:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return nil
			}
		case batch, ok := <-sub.C:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(writeWait))
				return nil
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(batch.Items); err != nil {
				h.metrics.Failed(transportWS)
				h.logger.Debug("ws write failed", xlogger.String("id", sub.ID), xlogger.Error(err))
				return nil
			}
			h.metrics.Sent(transportWS)
		}
	}
}
