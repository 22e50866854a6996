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

const wsWriteTimeout = 200 * time.Millisecond

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub веб-сокет клиенты панели мониторинга
type Hub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]string // соединение -> фильтр устройства

	writeMu sync.Mutex // gorilla не допускает параллельной записи в соединение
}

// NewHub создает пустой хаб
func NewHub() *Hub {
	return &Hub{conns: make(map[*websocket.Conn]string)}
}

func (h *Hub) add(c *websocket.Conn, deviceID string) {
	h.mu.Lock()
	h.conns[c] = deviceID
	h.mu.Unlock()
}

func (h *Hub) remove(c *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, c)
	h.mu.Unlock()
}

func (h *Hub) snapshot(deviceID string) []*websocket.Conn {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients := make([]*websocket.Conn, 0, len(h.conns))
	for c, filter := range h.conns {
		if filter == "" || filter == deviceID {
			clients = append(clients, c)
		}
	}
	return clients
}

// Count количество подключённых клиентов
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Broadcast отправляет обновление JSON-текстом; отвалившиеся клиенты удаляются
func (h *Hub) Broadcast(update *LiveUpdate) {
	clients := h.snapshot(update.DeviceID)
	if len(clients) == 0 {
		return
	}
	b, err := json.Marshal(update)
	if err != nil {
		slog.Error("Ошибка сериализации обновления", "error", err)
		return
	}

	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	for _, c := range clients {
		_ = c.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			_ = c.Close()
			h.remove(c)
		}
	}
}

// ServeWS подключает клиента; ?device_id= ограничивает поток одним устройством
func (h *Hub) ServeWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	h.add(conn, c.Query("device_id"))
	defer func() {
		h.remove(conn)
		_ = conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// CloseAll закрывает все соединения при остановке, включая клиентов с фильтром устройства
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.conns {
		_ = c.Close()
		delete(h.conns, c)
	}
}
