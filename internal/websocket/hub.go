package websocket

import (
	"encoding/json"
	"sync"
)

type BalanceUpdate struct {
	Balance string `json:"balance"`
}

type SmsDelivered struct {
	PurchaseID string `json:"purchase_id"`
	Number     string `json:"number"`
	Code       string `json:"code"`
}

type event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Hub fans out account events to every open connection of a user.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
	}
}

func (h *Hub) Register(userID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*Client]struct{})
	}
	h.clients[userID][client] = struct{}{}
}

func (h *Hub) Unregister(userID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		return
	}
	delete(h.clients[userID], client)
	if len(h.clients[userID]) == 0 {
		delete(h.clients, userID)
	}
}

func (h *Hub) BroadcastBalance(userID string, update BalanceUpdate) {
	h.broadcast(userID, event{Type: "balance", Data: update})
}

func (h *Hub) BroadcastSms(userID string, update SmsDelivered) {
	h.broadcast(userID, event{Type: "sms", Data: update})
}

func (h *Hub) broadcast(userID string, evt event) {
	payload, _ := json.Marshal(evt)
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[userID] {
		select {
		case client.send <- payload:
		default:
		}
	}
}
