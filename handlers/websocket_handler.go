package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Dosada05/calcetto/live"
	"github.com/Dosada05/calcetto/services"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin уже ограничен CORS для REST; сокет только читает обновления.
		return true
	},
}

type WebSocketHandler struct {
	errorResponder
	hub          *live.Hub
	matchService services.MatchService
}

func NewWebSocketHandler(hub *live.Hub, ms services.MatchService, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		errorResponder: newErrorResponder(logger),
		hub:            hub,
		matchService:   ms,
	}
}

// ServeMatchesWs подписывает клиента на обновления всех матчей.
// Клиент подключается к /ws/matches
func (h *WebSocketHandler) ServeMatchesWs(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, live.RoomMatches)
}

// ServeMatchWs подписывает клиента на один матч.
// Клиент подключается к /ws/matches/{matchID}
func (h *WebSocketHandler) ServeMatchWs(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	if _, err := h.matchService.GetByID(r.Context(), matchID); err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	h.serve(w, r, live.MatchRoom(matchID))
}

func (h *WebSocketHandler) serve(w http.ResponseWriter, r *http.Request, roomID string) {
	if h.hub.Stopped() {
		h.serviceUnavailableResponse(w, r, "live updates are not available, server is shutting down")
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader.Upgrade сам отправляет HTTP ошибку клиенту
		h.logger.Warn("failed to upgrade websocket connection", slog.String("room", roomID), slog.Any("error", err))
		return
	}

	client := &live.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256),
		Room: roomID,
	}
	if !h.hub.Join(client) {
		// хаб остановился между проверкой и апгрейдом
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()

	h.logger.Debug("websocket client registered", slog.String("room", roomID))
}
