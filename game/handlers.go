package game

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

type GameHandler struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

func NewGameHandler(hub *Hub) *GameHandler {
	return &GameHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Cross-origin policy is enforced by the router middleware.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ConnectHandler upgrades the request and binds the connection to the
// identity the auth middleware verified. A user already connected elsewhere
// is rejected before any pump starts.
func (gh *GameHandler) ConnectHandler(ctx *gin.Context) {
	username := ctx.GetString("username")
	if username == "" {
		log.Error().
			Str("ip", ctx.ClientIP()).
			Str("user_agent", ctx.Request.UserAgent()).
			Msg("no identity on an authenticated route, middleware misconfigured")
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "unknown-error"})
		return
	}

	conn, err := gh.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		log.Warn().Err(err).Str("username", username).Msg("websocket upgrade failed")
		return
	}

	session := NewWebsocketConnection(conn)
	client := NewClient(username, session, gh.hub)

	if err := gh.hub.Connect(ctx.Request.Context(), client); err != nil {
		if errors.Is(err, ErrAlreadyConnected) {
			session.Close(ErrAlreadyConnected.Error())
			return
		}
		session.Close("unknown-error")
		return
	}

	go client.WritePump()
	go client.ReadPump()
}

// RoomsHandler serves the room list over plain HTTP for clients that want it
// before opening a socket. The read round-trips through the hub loop like any
// other directory access.
func (gh *GameHandler) RoomsHandler(ctx *gin.Context) {
	rooms := gh.hub.ListRooms(ctx.Request.Context())
	if rooms == nil {
		rooms = []RoomSummary{}
	}
	ctx.JSON(http.StatusOK, gin.H{"rooms": rooms})
}
