package server

import (
	"context"
	"encoding/json"

	"vibefeed/internal/dispatch"
	"vibefeed/internal/featureflags"
	"vibefeed/internal/models"
	"vibefeed/internal/notifications"
	"vibefeed/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// Events pushed to websocket clients.
const (
	EventFeed          = "feed"
	EventNotifications = "notifications"
	EventProfile       = "profile"
	EventSearch        = "search"
	EventResult        = "result"
	EventCompleted     = "completed"
	EventError         = "error"
)

// WebSocketUpgrade rejects plain HTTP requests and sessions with realtime push disabled.
func (s *Server) WebSocketUpgrade(c *fiber.Ctx) error {
	if !s.flag(featureflags.RealtimePush) {
		return respondError(c, models.NewNotFoundError("Feature", featureflags.RealtimePush))
	}
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return c.Next()
}

// WebsocketHandler serves GET /ws. Inbound frames are actions; outbound
// frames are {event, view} envelopes.
func (s *Server) WebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		ctx := context.Background()

		client, err := s.hub.Register(ctx, conn)
		if err != nil {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"error","view":{"error":"`+err.Error()+`"}}`))
			_ = conn.Close()
			return
		}
		ctx = observability.WithCorrelationID(ctx, client.ID)

		debouncer := dispatch.NewDebouncer(s.config.SearchDebounce())
		defer debouncer.Cancel()

		client.IncomingHandler = func(c *notifications.Client, message []byte) {
			var a dispatch.Action
			if err := json.Unmarshal(message, &a); err != nil {
				s.hub.Logger().LogError(ctx, c.ID, err, "decode")
				_ = s.hub.SendTo(c, EventError, models.ErrorResponse{
					Error: "Invalid action frame",
					Code:  models.CodeValidation,
				})
				return
			}
			if a.Type == dispatch.ActionSearch {
				debouncer.Trigger(func() { s.pushSearch(ctx, c, a.Text) })
				return
			}
			s.handleAction(ctx, c, a)
		}

		if feed, err := s.projector.Feed(ctx); err == nil {
			_ = s.hub.SendTo(client, EventFeed, feed)
		}

		go client.WritePump()
		client.ReadPump(ctx, s.hub.Logger())
	})
}

func (s *Server) handleAction(ctx context.Context, c *notifications.Client, a dispatch.Action) {
	if a.Type == dispatch.ActionLoadMore && !s.flag(featureflags.LoadMore) {
		_ = s.hub.SendTo(c, EventError, models.ErrorResponse{
			Error: "Load more is disabled",
			Code:  models.CodeNotFound,
		})
		return
	}
	res, err := s.dispatcher.Dispatch(ctx, a)
	if err != nil {
		_ = s.hub.SendTo(c, EventError, res)
		return
	}
	_ = s.hub.SendTo(c, EventResult, res)
}

func (s *Server) pushSearch(ctx context.Context, c *notifications.Client, query string) {
	res, err := s.dispatcher.Dispatch(ctx, dispatch.Action{Type: dispatch.ActionSearch, Text: query})
	if err != nil {
		_ = s.hub.SendTo(c, EventError, res)
		return
	}
	results, _ := res.Value.([]models.Post)
	_ = s.hub.SendTo(c, EventSearch, s.projector.Search(ctx, query, results))
}
