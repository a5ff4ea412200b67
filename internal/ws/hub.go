package ws

import (
	"encoding/json"
	"runtime/debug"
	"sync"

	"github.com/ignatzorin/marketplace-bot/internal/logger"
)

// Hub управляет всеми WebSocket клиентами ops панели. Событий немного,
// адресации нет: каждое событие жизненного цикла уходит всем подключённым.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
}

// NewHub создаёт новый хаб.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 32),
	}
}

// Run запускает главный цикл хаба.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case payload := <-h.broadcast:
			h.send(payload)
		}
	}
}

// Register добавляет клиента.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister удаляет клиента.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Publish рассылает событие всем подключённым клиентам.
// Сообщение следует контракту WebSocket API: поле "type" содержит имя
// события, "data" — полезную нагрузку.
func (h *Hub) Publish(event string, data interface{}) {
	payload := map[string]interface{}{
		"type": event,
		"data": data,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		logger.Component("ws").WithError(err).Error("не удалось сериализовать событие")
		return
	}

	h.broadcast <- raw
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = struct{}{}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, client)
}

func (h *Hub) send(payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		select {
		case client.send <- payload:
		default:
			// Медленный клиент отключается, чтобы не копить очередь
			go func(c *Client) {
				defer func() {
					if r := recover(); r != nil {
						logger.Component("ws").Errorf("паника при закрытии клиента: %v\n%s", r, debug.Stack())
					}
				}()
				c.Close()
			}(client)
		}
	}
}
