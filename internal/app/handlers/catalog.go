package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/linemk/gamekeys-shop/internal/domain/models"
	"github.com/linemk/gamekeys-shop/internal/pricing"
	"github.com/linemk/gamekeys-shop/internal/service"
	"github.com/linemk/gamekeys-shop/internal/storage"
	"github.com/shopspring/decimal"
)

// GameResponse - игра каталога со скидкой относительно steam_price
type GameResponse struct {
	*models.Game
	pricing.Discount
}

func newGameResponse(g *models.Game) GameResponse {
	return GameResponse{Game: g, Discount: pricing.DiscountOfPtr(g.ReferencePrice, g.Price)}
}

// GameRequest - тело создания и изменения игры
type GameRequest struct {
	Title       string           `json:"title" validate:"required,max=200"`
	Description string           `json:"description" validate:"max=5000"`
	Price       decimal.Decimal  `json:"price"`
	SteamPrice  *decimal.Decimal `json:"steam_price"`
	ImageURL    string           `json:"image_url" validate:"omitempty,url"`
	CategoryID  int64            `json:"category_id" validate:"required,gt=0"`
	Rating      decimal.Decimal  `json:"rating"`
}

func (req GameRequest) toModel(id int64) *models.Game {
	return &models.Game{
		ID:             id,
		Title:          req.Title,
		Description:    req.Description,
		Price:          req.Price,
		ReferencePrice: req.SteamPrice,
		ImageURL:       req.ImageURL,
		CategoryID:     req.CategoryID,
		Rating:         req.Rating,
	}
}

func gameID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

// ListGamesHandler обрабатывает GET /api/games?category_id=&limit=
func ListGamesHandler(log *slog.Logger, catalogService service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListGamesHandler"
		logger := log.With(slog.String("op", op))

		var filter storage.GameFilter
		q := r.URL.Query()
		if v := q.Get("category_id"); v != "" {
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_request", "invalid category_id")
				return
			}
			filter.CategoryID = &id
		}
		if v := q.Get("limit"); v != "" {
			limit, err := strconv.Atoi(v)
			if err != nil || limit < 0 {
				writeError(w, http.StatusBadRequest, "invalid_request", "invalid limit")
				return
			}
			filter.Limit = limit
		}

		games, err := catalogService.ListGames(r.Context(), filter)
		if err != nil {
			writeServiceError(logger, w, err)
			return
		}

		resp := make([]GameResponse, 0, len(games))
		for _, g := range games {
			resp = append(resp, newGameResponse(g))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// GetGameHandler обрабатывает GET /api/games/{id}
func GetGameHandler(log *slog.Logger, catalogService service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetGameHandler"
		logger := log.With(slog.String("op", op))

		id, ok := gameID(r)
		if !ok {
			writeError(w, http.StatusNotFound, "not_found", service.ErrNotFound.Error())
			return
		}

		game, err := catalogService.GetGame(r.Context(), id)
		if err != nil {
			writeServiceError(logger, w, err)
			return
		}
		writeJSON(w, http.StatusOK, newGameResponse(game))
	}
}

func ListCategoriesHandler(log *slog.Logger, catalogService service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListCategoriesHandler"
		logger := log.With(slog.String("op", op))

		categories, err := catalogService.ListCategories(r.Context())
		if err != nil {
			writeServiceError(logger, w, err)
			return
		}
		if categories == nil {
			categories = []*models.Category{}
		}
		writeJSON(w, http.StatusOK, categories)
	}
}

// CreateGameHandler обрабатывает POST /api/admin/games
func CreateGameHandler(log *slog.Logger, catalogService service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CreateGameHandler"
		logger := log.With(slog.String("op", op))

		var req GameRequest
		if !decodeAndValidate(logger, w, r, &req) {
			return
		}

		game, err := catalogService.CreateGame(r.Context(), sessionFrom(r), req.toModel(0))
		if err != nil {
			writeServiceError(logger, w, err)
			return
		}
		writeJSON(w, http.StatusCreated, newGameResponse(game))
	}
}

// UpdateGameHandler обрабатывает PUT /api/admin/games/{id}
func UpdateGameHandler(log *slog.Logger, catalogService service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdateGameHandler"
		logger := log.With(slog.String("op", op))

		id, ok := gameID(r)
		if !ok {
			writeError(w, http.StatusNotFound, "not_found", service.ErrNotFound.Error())
			return
		}

		var req GameRequest
		if !decodeAndValidate(logger, w, r, &req) {
			return
		}

		game, err := catalogService.UpdateGame(r.Context(), sessionFrom(r), req.toModel(id))
		if err != nil {
			writeServiceError(logger, w, err)
			return
		}
		writeJSON(w, http.StatusOK, newGameResponse(game))
	}
}

// DeleteGameHandler обрабатывает DELETE /api/admin/games/{id}
func DeleteGameHandler(log *slog.Logger, catalogService service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.DeleteGameHandler"
		logger := log.With(slog.String("op", op))

		id, ok := gameID(r)
		if !ok {
			writeError(w, http.StatusNotFound, "not_found", service.ErrNotFound.Error())
			return
		}

		if err := catalogService.DeleteGame(r.Context(), sessionFrom(r), id); err != nil {
			writeServiceError(logger, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
