package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/linemk/gamekeys-shop/internal/domain/models"
	"github.com/linemk/gamekeys-shop/internal/service"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// origin проверяет CORS-слой витрины, статус заказа публичный
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// OrderStatusWSHandler обрабатывает GET /api/orders/{id}/ws.
// Сразу отправляет текущий статус, затем каждое изменение; после completed закрывает соединение.
func OrderStatusWSHandler(log *slog.Logger, statusService service.StatusService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.OrderStatusWSHandler"
		logger := log.With(slog.String("op", op))

		id, ok := orderID(r)
		if !ok {
			writeError(w, http.StatusNotFound, "order_not_found", service.ErrOrderNotFound.Error())
			return
		}

		current, updates, cancel, err := statusService.Subscribe(r.Context(), id)
		if err != nil {
			writeServiceError(logger, w, err)
			return
		}
		defer cancel()

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade уже ответил клиенту
			logger.Warn("websocket upgrade failed", slog.Any("error", err))
			return
		}
		defer conn.Close()

		// читаем только control-фреймы, чтобы заметить закрытие со стороны клиента
		closed := make(chan struct{})
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		go func() {
			defer close(closed)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		send := func(view models.OrderStatusView) bool {
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(view); err != nil {
				logger.Warn("websocket write failed", slog.Any("error", err))
				return false
			}
			if view.Status == models.OrderStatusCompleted {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "order completed"),
					time.Now().Add(wsWriteWait))
				return false
			}
			return true
		}

		if !send(*current) {
			return
		}

		ticker := time.NewTicker(wsPingPeriod)
		defer ticker.Stop()

		for {
			select {
			case <-closed:
				return
			case <-r.Context().Done():
				return
			case view, ok := <-updates:
				if !ok || !send(view) {
					return
				}
			case <-ticker.C:
				_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}
}
