package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/linemk/gamekeys-shop/internal/domain/models"
	"github.com/linemk/gamekeys-shop/internal/storage"
)

// CatalogService - чтение каталога и его правка администратором
type CatalogService interface {
	ListGames(ctx context.Context, filter storage.GameFilter) ([]*models.Game, error)
	GetGame(ctx context.Context, id int64) (*models.Game, error)
	ListCategories(ctx context.Context) ([]*models.Category, error)
	CreateGame(ctx context.Context, sess *models.Session, game *models.Game) (*models.Game, error)
	UpdateGame(ctx context.Context, sess *models.Session, game *models.Game) (*models.Game, error)
	DeleteGame(ctx context.Context, sess *models.Session, id int64) error
}

type catalogService struct {
	log      *slog.Logger
	gameRepo storage.GameStorage
}

func NewCatalogService(log *slog.Logger, gameRepo storage.GameStorage) CatalogService {
	return &catalogService{log: log, gameRepo: gameRepo}
}

func (s *catalogService) ListGames(ctx context.Context, filter storage.GameFilter) ([]*models.Game, error) {
	const op = "service.CatalogService.ListGames"
	games, err := s.gameRepo.ListGames(ctx, filter)
	if err != nil {
		s.log.Error("failed to list games", slog.String("op", op), slog.Any("error", err))
		return nil, persistenceErr(op, err)
	}
	return games, nil
}

func (s *catalogService) GetGame(ctx context.Context, id int64) (*models.Game, error) {
	const op = "service.CatalogService.GetGame"
	game, err := s.gameRepo.GetGameByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrGameNotFound) {
			return nil, fmt.Errorf("%s: %w: game %d", op, ErrNotFound, id)
		}
		s.log.Error("failed to get game", slog.String("op", op), slog.Any("error", err))
		return nil, persistenceErr(op, err)
	}
	return game, nil
}

func (s *catalogService) ListCategories(ctx context.Context) ([]*models.Category, error) {
	const op = "service.CatalogService.ListCategories"
	categories, err := s.gameRepo.ListCategories(ctx)
	if err != nil {
		s.log.Error("failed to list categories", slog.String("op", op), slog.Any("error", err))
		return nil, persistenceErr(op, err)
	}
	return categories, nil
}

// validateGame - цены проверяются на границе каталога, PricingEngine их не чинит
func validateGame(game *models.Game) error {
	if game.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	}
	if game.ReferencePrice != nil && game.ReferencePrice.IsNegative() {
		return fmt.Errorf("%w: steam_price must not be negative", ErrInvalidInput)
	}
	return nil
}

func (s *catalogService) CreateGame(ctx context.Context, sess *models.Session, game *models.Game) (*models.Game, error) {
	const op = "service.CatalogService.CreateGame"
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	if err := validateGame(game); err != nil {
		return nil, err
	}

	created, err := s.gameRepo.CreateGame(ctx, game)
	if err != nil {
		s.log.Error("failed to create game", slog.String("op", op), slog.Any("error", err))
		return nil, persistenceErr(op, err)
	}
	s.log.Info("game created", slog.String("op", op), slog.Int64("gameID", created.ID))
	return created, nil
}

func (s *catalogService) UpdateGame(ctx context.Context, sess *models.Session, game *models.Game) (*models.Game, error) {
	const op = "service.CatalogService.UpdateGame"
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	if err := validateGame(game); err != nil {
		return nil, err
	}

	if err := s.gameRepo.UpdateGame(ctx, game); err != nil {
		if errors.Is(err, storage.ErrGameNotFound) {
			return nil, fmt.Errorf("%s: %w: game %d", op, ErrNotFound, game.ID)
		}
		s.log.Error("failed to update game", slog.String("op", op), slog.Any("error", err))
		return nil, persistenceErr(op, err)
	}
	return game, nil
}

func (s *catalogService) DeleteGame(ctx context.Context, sess *models.Session, id int64) error {
	const op = "service.CatalogService.DeleteGame"
	if err := requireAdmin(sess); err != nil {
		return err
	}

	if err := s.gameRepo.DeleteGame(ctx, id); err != nil {
		if errors.Is(err, storage.ErrGameNotFound) {
			return fmt.Errorf("%s: %w: game %d", op, ErrNotFound, id)
		}
		s.log.Error("failed to delete game", slog.String("op", op), slog.Any("error", err))
		return persistenceErr(op, err)
	}
	return nil
}
