// Websocket handshake handler.
//
// GET /ws upgrades the connection and hands it to the realtime hub. The
// upgrade is open to unauthenticated clients for protocol compatibility,
// but when the handshake carries a valid bearer token (Authorization header
// or ?token= query parameter) the verified identity overrides whatever user
// id the client later claims in its join event.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/SravanamCharan20/EcoBites2/internal/http/middleware"
	"github.com/SravanamCharan20/EcoBites2/internal/realtime"
)

// TokenParser validates a bearer token and returns its subject.
type TokenParser interface {
	Parse(token string) (string, error)
}

// WSHandler upgrades websocket handshakes and runs client pumps.
type WSHandler struct {
	hub      *realtime.Hub
	tokens   TokenParser
	upgrader websocket.Upgrader
}

// NewWSHandler builds the handshake handler. allowedOrigins restricts
// cross-origin upgrades; empty means same-origin plus non-browser clients.
func NewWSHandler(hub *realtime.Hub, tokens TokenParser, allowedOrigins []string) *WSHandler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	wildcard := false
	for _, o := range allowedOrigins {
		if o == "*" {
			wildcard = true
			continue
		}
		allowed[strings.ToLower(o)] = struct{}{}
	}

	return &WSHandler{
		hub:    hub,
		tokens: tokens,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || wildcard {
					return true
				}
				if _, okOrigin := allowed[strings.ToLower(origin)]; okOrigin {
					return true
				}
				// Same-origin requests pass.
				return strings.EqualFold(origin, "http://"+r.Host) ||
					strings.EqualFold(origin, "https://"+r.Host)
			},
		},
	}
}

// Serve godoc
// @ID          wsConnect
// @Summary     Open the realtime notification socket
// @Description Upgrades to a websocket. Clients send join/sendMessage events
// @Description and receive newMessage notifications for their chats.
// @Tags        Realtime
//
// @Success     101  {string}  string  "Switching Protocols"
// @Failure     400  {object}  handlers.ErrorResponse  "Upgrade failed"
// @Router      /ws [get]
func (h *WSHandler) Serve(c *gin.Context) {
	tokenUserID := h.identify(c)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote its own error response; just log.
		middleware.LoggerFrom(c).Debug().Err(err).Msg("ws upgrade failed")
		return
	}

	client := realtime.NewClient(h.hub, conn, tokenUserID)
	client.Run()
}

// identify extracts a verified user id from the handshake, or "" when the
// client connected anonymously.
func (h *WSHandler) identify(c *gin.Context) string {
	if h.tokens == nil {
		return ""
	}
	raw := c.Query("token")
	if raw == "" {
		if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
			raw = strings.TrimPrefix(header, "Bearer ")
		}
	}
	if raw == "" {
		return ""
	}
	uid, err := h.tokens.Parse(raw)
	if err != nil {
		middleware.LoggerFrom(c).Debug().Msg("ws handshake token rejected")
		return ""
	}
	return uid
}
