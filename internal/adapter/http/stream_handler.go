package http

import (
	"context"
	"net/http"
	"time"

	"p2p-lending-backend/internal/adapter/events"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const streamWriteTimeout = 5 * time.Second

// EventSource opens confirmed subscriptions to committed loan events.
type EventSource interface {
	Subscribe(ctx context.Context) (*events.Subscription, error)
}

type StreamHandler struct {
	src      EventSource
	upgrader websocket.Upgrader
}

func NewStreamHandler(src EventSource) *StreamHandler {
	return &StreamHandler{src: src}
}

// Stream: GET /events/stream relays every committed event as a text frame.
func (h *StreamHandler) Stream(c echo.Context) error {
	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	sub, err := h.src.Subscribe(ctx)
	if err != nil {
		logrus.WithError(err).Warn("event stream: subscribe")
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "event stream unavailable"})
	}
	defer sub.Close()

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// the upgrader has already replied
		return nil
	}
	defer conn.Close()

	// drain client frames so close and ping are processed
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		payload, err := sub.Next(ctx)
		if err != nil {
			return nil
		}
		_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return nil
		}
	}
}
