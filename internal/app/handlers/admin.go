package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/linemk/gamekeys-shop/internal/domain/models"
	"github.com/linemk/gamekeys-shop/internal/service"
	"github.com/tealeg/xlsx"
)

const xlsxTimeLayout = "2006-01-02 15:04:05"

// statusFilter разбирает ?status=; пустое значение - без фильтра
func statusFilter(r *http.Request) (*models.OrderStatus, bool) {
	raw := r.URL.Query().Get("status")
	if raw == "" {
		return nil, true
	}
	st, err := models.ParseOrderStatus(raw)
	if err != nil {
		return nil, false
	}
	return &st, true
}

// AdminListOrdersHandler обрабатывает GET /api/admin/orders?status=
func AdminListOrdersHandler(log *slog.Logger, adminService service.AdminService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.AdminListOrdersHandler"
		logger := log.With(slog.String("op", op))

		status, ok := statusFilter(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid status")
			return
		}

		orders, err := adminService.ListOrders(r.Context(), sessionFrom(r), status)
		if err != nil {
			writeServiceError(logger, w, err)
			return
		}
		writeJSON(w, http.StatusOK, orders)
	}
}

// CompleteOrderHandler обрабатывает PUT /api/admin/orders/{id}/complete
func CompleteOrderHandler(log *slog.Logger, adminService service.AdminService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CompleteOrderHandler"
		logger := log.With(slog.String("op", op))

		id, ok := orderID(r)
		if !ok {
			writeError(w, http.StatusNotFound, "order_not_found", service.ErrOrderNotFound.Error())
			return
		}

		order, err := adminService.CompleteOrder(r.Context(), sessionFrom(r), id)
		if err != nil {
			writeServiceError(logger, w, err)
			return
		}
		writeJSON(w, http.StatusOK, order)
	}
}

// ExportOrdersHandler обрабатывает GET /api/admin/orders/export - выгрузка заказов в xlsx для сверки переводов
func ExportOrdersHandler(log *slog.Logger, adminService service.AdminService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ExportOrdersHandler"
		logger := log.With(slog.String("op", op))

		status, ok := statusFilter(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid status")
			return
		}

		orders, err := adminService.ListOrders(r.Context(), sessionFrom(r), status)
		if err != nil {
			writeServiceError(logger, w, err)
			return
		}

		file, err := ordersWorkbook(orders)
		if err != nil {
			logger.Error("failed to build workbook", slog.Any("error", err))
			writeError(w, http.StatusInternalServerError, "internal", "failed to create excel file")
			return
		}

		w.Header().Set("Content-Disposition", "attachment; filename=orders.xlsx")
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Transfer-Encoding", "binary")
		w.Header().Set("Expires", "0")

		if err := file.Write(w); err != nil {
			logger.Error("failed to write excel file", slog.Any("error", err))
			return
		}
	}
}

func ordersWorkbook(orders []*models.Order) (*xlsx.File, error) {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Orders")
	if err != nil {
		return nil, err
	}

	headers := []string{
		"ID", "UserID", "Name", "Email", "Address", "City", "Zip",
		"Total", "TransactionID", "Status", "CreatedAt", "PaidAt", "CompletedAt",
	}
	headerRow := sheet.AddRow()
	for _, h := range headers {
		headerRow.AddCell().SetString(h)
	}

	for _, o := range orders {
		row := sheet.AddRow()
		row.AddCell().SetString(o.ID.String())
		row.AddCell().SetInt64(o.UserID)
		row.AddCell().SetString(o.Billing.Name)
		row.AddCell().SetString(o.Billing.Email)
		row.AddCell().SetString(o.Billing.Address)
		row.AddCell().SetString(o.Billing.City)
		row.AddCell().SetString(o.Billing.Zip)
		row.AddCell().SetString(o.TotalAmount.StringFixed(2))

		txID := ""
		if o.TransactionID != nil {
			txID = *o.TransactionID
		}
		row.AddCell().SetString(txID)
		row.AddCell().SetString(string(o.Status))
		row.AddCell().SetString(o.CreatedAt.Format(xlsxTimeLayout))
		row.AddCell().SetString(formatTime(o.PaidAt))
		row.AddCell().SetString(formatTime(o.CompletedAt))
	}
	return file, nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(xlsxTimeLayout)
}
