// internal/handlers/live.go
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// liveSnapshot is one push frame on the /public/live feed.
type liveSnapshot struct {
	Timestamp time.Time `json:"timestamp"`
	Stats     any       `json:"stats"`
	Lobbies   any       `json:"lobbies"`
}

const livePushInterval = 2 * time.Second

// handleLive streams periodic stats and lobby snapshots over a websocket.
// Read-only: incoming frames are drained and ignored.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.Log.Warnf("websocket accept error: %v", err)
		return
	}
	defer c.Close(websocket.StatusInternalError, "handler finished")

	ctx := c.CloseRead(r.Context())

	ticker := time.NewTicker(livePushInterval)
	defer ticker.Stop()

	if err := s.pushSnapshot(ctx, c); err != nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			c.Close(websocket.StatusNormalClosure, "bye")
			return
		case <-ticker.C:
			if err := s.pushSnapshot(ctx, c); err != nil {
				return
			}
		}
	}
}

func (s *Server) pushSnapshot(ctx context.Context, c *websocket.Conn) error {
	stats, err := s.Engine.Stats(ctx)
	if err != nil {
		return err
	}
	lobbies, err := s.Engine.PublicLobbies(ctx)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return wsjson.Write(writeCtx, c, liveSnapshot{
		Timestamp: time.Now().UTC(),
		Stats:     stats,
		Lobbies:   lobbies,
	})
}
