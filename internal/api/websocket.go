package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

func accept(w http.ResponseWriter, r *http.Request) (*websocket.Conn, context.Context, error) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		return nil, nil, err
	}
	return c, r.Context(), nil
}

// StreamEvents pushes every link event to the client, starting with an up
// event for each interface currently up. A non-empty filter limits the
// stream to one interface.
func StreamEvents(s *Service, filter string, w http.ResponseWriter, r *http.Request) {
	c, ctx, err := accept(w, r)
	if err != nil {
		log.WithError(err).Error("Failed to accept client")
		return
	}
	defer c.Close(websocket.StatusNormalClosure, "closing")

	// Clients only listen; CloseRead cancels ctx once they go away.
	ctx = c.CloseRead(ctx)

	session := uuid.NewString()
	logger := log.WithFields(log.Fields{
		"session": session,
		"filter":  filter,
	})
	logger.Info("Event stream client connected")
	defer logger.Info("Event stream client disconnected")

	ch, unsub := s.monitor.Subscribe()
	defer unsub()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			c.Close(websocket.StatusGoingAway, "server shutting down")
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if filter != "" && ev.InterfaceName != filter {
				continue
			}
			b, err := json.Marshal(WebSocketEvent{
				Session:   session,
				Interface: ev.InterfaceName,
				Up:        ev.Up,
				State:     ev.State(),
			})
			if err != nil {
				logger.WithError(err).Error("Failed to encode event")
				return
			}
			if err := c.Write(ctx, websocket.MessageText, b); err != nil {
				logger.WithError(err).Debug("Event stream write failed")
				return
			}
		}
	}
}
