package events

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler upgrades the request and subscribes the socket until the peer
// closes it.
func WSHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		if err := ws.WriteMessage(websocket.TextMessage, welcome("websocket")); err != nil {
			_ = ws.Close()
			return
		}

		hub.addWS(ws)
		hub.logger.Debug().Str("remote", c.Request.RemoteAddr).Msg("ws subscriber connected")

		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				break
			}
		}
		hub.removeWS(ws)
	}
}
