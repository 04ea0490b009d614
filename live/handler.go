package live

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Origins are enforced by the CORS middleware in front of the router.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Greeter queues the first message for a client the hub already knows
// about, so no broadcast can fall between the two.
type Greeter func(c *Client)

// Handler upgrades HTTP requests to hub clients. The pumps run on ctx, not
// on the request context.
func (h *Hub) Handler(ctx context.Context, d Dispatcher, greet Greeter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			fmt.Printf("⚠️  WebSocket upgrade error: %v\n", err)
			return
		}

		c := NewClient(uuid.New().String(), conn, h, d)
		h.Register(c)
		if greet != nil {
			greet(c)
		}

		go c.WritePump(ctx)
		go c.ReadPump(ctx)

		fmt.Printf("✓ WebSocket connection established: %s\n", c.ID)
	}
}
