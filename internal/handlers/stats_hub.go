package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Для разработки разрешаем все источники
	},
}

// GlobalStatsHub - единственный экземпляр хаба для всего приложения.
// Рассылает открытым консолям свежий срез дашборда после каждой записи.
var GlobalStatsHub = NewStatsHub()

type statsClient struct {
	hub    *StatsHub
	conn   *websocket.Conn
	send   chan []byte
	userID uint
}

type StatsHub struct {
	clients    map[uint]*statsClient
	broadcast  chan []byte
	register   chan *statsClient
	unregister chan *statsClient
	mu         sync.Mutex
}

func NewStatsHub() *StatsHub {
	return &StatsHub{
		broadcast:  make(chan []byte),
		register:   make(chan *statsClient),
		unregister: make(chan *statsClient),
		clients:    make(map[uint]*statsClient),
	}
}

func (h *StatsHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.userID] = client
			h.mu.Unlock()
			slog.Info("Stats client registered", "userID", client.userID)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.userID]; ok {
				delete(h.clients, client.userID)
				close(client.send)
			}
			h.mu.Unlock()
			slog.Info("Stats client unregistered", "userID", client.userID)

		case messageData := <-h.broadcast:
			h.mu.Lock()
			for userID, client := range h.clients {
				select {
				case client.send <- messageData:
				default:
					close(client.send)
					delete(h.clients, userID)
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastDashboardUpdate собирает свежий срез дашборда и рассылает его
// всем подключенным консолям. Вызывается после любой записи пациента.
func BroadcastDashboardUpdate() {
	h := GlobalStatsHub
	h.mu.Lock()
	empty := len(h.clients) == 0
	h.mu.Unlock()
	if empty {
		return
	}

	snapshot, err := buildDashboardSnapshot()
	if err != nil {
		return
	}

	message, err := json.Marshal(gin.H{"type": "dashboardUpdate", "payload": snapshot})
	if err != nil {
		slog.Error("Failed to marshal dashboard update", "error", err)
		return
	}
	h.broadcast <- message
}

func (c *statsClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	for {
		// Входящие сообщения не обрабатываются, поток нужен только чтобы
		// заметить закрытие соединения.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("Unexpected websocket close error", "error", err)
			}
			break
		}
	}
}

func (c *statsClient) writePump() {
	defer func() {
		c.conn.Close()
	}()
	for message := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			slog.Error("Failed to write message to websocket", "error", err)
			return
		}
	}
}

// StatsWSEndpoint поднимает websocket-соединение для живого дашборда.
func StatsWSEndpoint(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}

	client := &statsClient{
		hub:    GlobalStatsHub,
		conn:   conn,
		send:   make(chan []byte, 256),
		userID: userID.(uint),
	}
	client.hub.register <- client

	go client.writePump()
	go client.readPump()
}
