package http

import (
	"net/http"

	"github.com/coder/websocket"
	"github.com/tabvault/tabvault/internal/logger"
	"github.com/tabvault/tabvault/internal/utils"
)

// feed upgrades the request to a websocket and parks it in the hub until
// the client goes away. The server never expects frames from the client;
// the read loop exists only to detect disconnection.
func (h *Handler) feed(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	userID, found := utils.GetUserIDFromContext(r.Context())
	if !found {
		http.Error(w, "no user in context", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Msg("feed upgrade failed")
		return
	}

	h.hub.Register(userID, conn)
	defer h.hub.Unregister(userID, conn)

	ctx := conn.CloseRead(r.Context())
	<-ctx.Done()
	_ = conn.Close(websocket.StatusNormalClosure, "")
}
