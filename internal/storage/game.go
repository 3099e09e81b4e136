package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/linemk/gamekeys-shop/internal/domain/models"
	"github.com/shopspring/decimal"
)

// GameStorage описывает методы для работы с каталогом игр.
type GameStorage interface {
	// ListGames возвращает игры каталога с необязательным фильтром по категории.
	ListGames(ctx context.Context, filter GameFilter) ([]*models.Game, error)
	// GetGameByID ищет игру по идентификатору.
	GetGameByID(ctx context.Context, id int64) (*models.Game, error)
	CreateGame(ctx context.Context, game *models.Game) (*models.Game, error)
	UpdateGame(ctx context.Context, game *models.Game) error
	DeleteGame(ctx context.Context, id int64) error
	ListCategories(ctx context.Context) ([]*models.Category, error)
}

// GameFilter - параметры выборки каталога
type GameFilter struct {
	CategoryID *int64
	Limit      int
}

// gameRepository — конкретная реализация интерфейса GameStorage.
type gameRepository struct {
	db *sql.DB
}

// NewGameRepository создаёт новый репозиторий каталога.
func NewGameRepository(db *sql.DB) GameStorage {
	return &gameRepository{db: db}
}

const gameColumns = "id, title, description, price, steam_price, image_url, category_id, rating, created_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGame(row rowScanner) (*models.Game, error) {
	game := &models.Game{}
	var ref decimal.NullDecimal
	if err := row.Scan(&game.ID, &game.Title, &game.Description, &game.Price, &ref,
		&game.ImageURL, &game.CategoryID, &game.Rating, &game.CreatedAt); err != nil {
		return nil, err
	}
	game.ReferencePrice = decimalPtr(ref)
	return game, nil
}

func decimalPtr(n decimal.NullDecimal) *decimal.Decimal {
	if !n.Valid {
		return nil
	}
	v := n.Decimal
	return &v
}

func nullDecimal(p *decimal.Decimal) decimal.NullDecimal {
	if p == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*p)
}

// ListGames возвращает игры, новые первыми.
func (r *gameRepository) ListGames(ctx context.Context, filter GameFilter) ([]*models.Game, error) {
	var (
		conds []string
		args  []any
	)
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		conds = append(conds, fmt.Sprintf("category_id = $%d", len(args)))
	}

	query := "SELECT " + gameColumns + " FROM games"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query games: %w", err)
	}
	defer rows.Close()

	var games []*models.Game
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		games = append(games, game)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return games, nil
}

// GetGameByID ищет игру в таблице games.
func (r *gameRepository) GetGameByID(ctx context.Context, id int64) (*models.Game, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+gameColumns+" FROM games WHERE id = $1", id)
	game, err := scanGame(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, err
	}
	return game, nil
}

func (r *gameRepository) CreateGame(ctx context.Context, game *models.Game) (*models.Game, error) {
	query := `INSERT INTO games (title, description, price, steam_price, image_url, category_id, rating)
	          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query,
		game.Title, game.Description, game.Price, nullDecimal(game.ReferencePrice),
		game.ImageURL, game.CategoryID, game.Rating,
	).Scan(&game.ID, &game.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}
	return game, nil
}

func (r *gameRepository) UpdateGame(ctx context.Context, game *models.Game) error {
	query := `UPDATE games SET title = $1, description = $2, price = $3, steam_price = $4,
	          image_url = $5, category_id = $6, rating = $7 WHERE id = $8`
	res, err := r.db.ExecContext(ctx, query,
		game.Title, game.Description, game.Price, nullDecimal(game.ReferencePrice),
		game.ImageURL, game.CategoryID, game.Rating, game.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrGameNotFound
	}
	return nil
}

func (r *gameRepository) DeleteGame(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM games WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete game: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrGameNotFound
	}
	return nil
}

func (r *gameRepository) ListCategories(ctx context.Context) ([]*models.Category, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name FROM categories ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []*models.Category
	for rows.Next() {
		c := &models.Category{}
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return categories, nil
}
