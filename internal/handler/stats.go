package handler

import (
	"net/http"

	"github.com/Wisaacj/Supervisor/internal/logger"
	"github.com/Wisaacj/Supervisor/internal/service/websocket"
	ws "github.com/gorilla/websocket"
)

// Upgrader upgrades HTTP connections to WebSocket; CheckOrigin allows all origins.
var Upgrader = ws.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// StatsWebsocketHandler registers viewers in the hub so they receive every
// status update.
func StatsWebsocketHandler(hub *websocket.HubService, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("WebSocket upgrade error: %v", err)
			return
		}

		hub.Register(connection)
		defer hub.Unregister(connection)

		// Viewers only listen; reading detects when they leave.
		for {
			if _, _, err := connection.ReadMessage(); err != nil {
				if ws.IsCloseError(err, ws.CloseNormalClosure, ws.CloseGoingAway) {
					logger.Info("Stats viewer left normally")
				} else {
					logger.Warning("Stats viewer left with error: %v", err)
				}
				return
			}
		}
	}
}
