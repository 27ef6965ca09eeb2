package handlers

import (
	"log"
	"net/http"

	"github.com/Dosada05/matchmaking-system/matchmaking"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// В продакшене здесь должна быть проверка Origin.
		return true
	},
}

type WebSocketHandler struct {
	hub *matchmaking.Hub
}

func NewWebSocketHandler(hub *matchmaking.Hub) *WebSocketHandler {
	return &WebSocketHandler{
		hub: hub,
	}
}

// ServeWs подписывает клиента на события очереди конкретного режима.
// Клиент подключается к /ws/queue/{gameMode} и получает пуш, когда матч
// в этом режиме собран.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	gameMode := chi.URLParam(r, "gameMode")
	if gameMode == "" {
		http.Error(w, "Missing gameMode", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader.Upgrade сам отправляет HTTP-ошибку клиенту.
		log.Printf("failed to upgrade connection for mode %q: %v", gameMode, err)
		return
	}

	client := &matchmaking.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256),
		Room: gameMode,
	}
	client.Hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
