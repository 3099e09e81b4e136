package statusfeed

import (
	"sync"

	"github.com/google/uuid"
	"github.com/linemk/gamekeys-shop/internal/domain/models"
)

// размер буфера подписчика; медленный подписчик теряет промежуточные статусы, но не тормозит публикацию
const subscriberBuffer = 4

// Hub раздаёт изменения статуса заказа подписчикам внутри процесса.
type Hub struct {
	mu   sync.Mutex
	subs map[uuid.UUID]map[chan models.OrderStatusView]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[uuid.UUID]map[chan models.OrderStatusView]struct{})}
}

// Subscribe подписывает на изменения заказа. Вызывающий обязан вызвать cancel.
func (h *Hub) Subscribe(orderID uuid.UUID) (<-chan models.OrderStatusView, func()) {
	ch := make(chan models.OrderStatusView, subscriberBuffer)

	h.mu.Lock()
	if h.subs[orderID] == nil {
		h.subs[orderID] = make(map[chan models.OrderStatusView]struct{})
	}
	h.subs[orderID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if set, ok := h.subs[orderID]; ok {
				delete(set, ch)
				if len(set) == 0 {
					delete(h.subs, orderID)
				}
			}
			close(ch)
		})
	}
	return ch, cancel
}

// Publish отправляет новый статус всем подписчикам заказа, не блокируясь.
func (h *Hub) Publish(view models.OrderStatusView) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs[view.ID] {
		select {
		case ch <- view:
		default:
		}
	}
}

// Subscribers возвращает число подписчиков заказа.
func (h *Hub) Subscribers(orderID uuid.UUID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[orderID])
}
