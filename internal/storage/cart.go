package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/linemk/gamekeys-shop/internal/domain/models"
	"github.com/shopspring/decimal"
)

// CartStorage описывает методы для работы с корзиной пользователя.
// Все методы ограничены user_id: чужую строку корзины нельзя ни прочитать, ни изменить.
type CartStorage interface {
	// ListCartLines возвращает строки корзины вместе со снимком игры (JOIN с games).
	ListCartLines(ctx context.Context, userID int64) ([]models.CartLine, error)
	// GetCartItemByGameTx ищет строку корзины по паре (user, game) внутри транзакции.
	GetCartItemByGameTx(ctx context.Context, tx *sql.Tx, userID, gameID int64) (*models.CartItem, error)
	// InsertCartItemTx создаёт новую строку корзины.
	InsertCartItemTx(ctx context.Context, tx *sql.Tx, userID, gameID int64, quantity int) (int64, error)
	// SetCartItemQuantityTx выставляет количество в строке корзины внутри транзакции.
	SetCartItemQuantityTx(ctx context.Context, tx *sql.Tx, userID, cartItemID int64, quantity int) error
	// SetCartItemQuantity выставляет количество в строке корзины.
	SetCartItemQuantity(ctx context.Context, userID, cartItemID int64, quantity int) error
	// DeleteCartItem удаляет строку корзины.
	DeleteCartItem(ctx context.Context, userID, cartItemID int64) error
	// ClearCart удаляет все строки корзины пользователя.
	ClearCart(ctx context.Context, userID int64) error
}

// cartRepository — конкретная реализация CartStorage.
type cartRepository struct {
	db *sql.DB
}

// NewCartRepository создаёт новый репозиторий корзины.
func NewCartRepository(db *sql.DB) CartStorage {
	return &cartRepository{db: db}
}

// ListCartLines возвращает корзину в порядке добавления.
func (r *cartRepository) ListCartLines(ctx context.Context, userID int64) ([]models.CartLine, error) {
	query := `
		SELECT c.id, c.game_id, c.quantity, g.id, g.title, g.price, g.steam_price, g.image_url
		FROM cart c
		JOIN games g ON c.game_id = g.id
		WHERE c.user_id = $1
		ORDER BY c.id`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart: %w", err)
	}
	defer rows.Close()

	lines := make([]models.CartLine, 0)
	for rows.Next() {
		var (
			line models.CartLine
			ref  decimal.NullDecimal
		)
		if err := rows.Scan(&line.ID, &line.GameID, &line.Quantity,
			&line.Game.ID, &line.Game.Title, &line.Game.Price, &ref, &line.Game.ImageURL); err != nil {
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}
		line.Game.ReferencePrice = decimalPtr(ref)
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *cartRepository) GetCartItemByGameTx(ctx context.Context, tx *sql.Tx, userID, gameID int64) (*models.CartItem, error) {
	item := &models.CartItem{}
	row := tx.QueryRowContext(ctx,
		"SELECT id, user_id, game_id, quantity FROM cart WHERE user_id = $1 AND game_id = $2", userID, gameID)
	if err := row.Scan(&item.ID, &item.UserID, &item.GameID, &item.Quantity); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCartItemNotFound
		}
		return nil, err
	}
	return item, nil
}

func (r *cartRepository) InsertCartItemTx(ctx context.Context, tx *sql.Tx, userID, gameID int64, quantity int) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx,
		"INSERT INTO cart (user_id, game_id, quantity) VALUES ($1, $2, $3) RETURNING id",
		userID, gameID, quantity,
	).Scan(&id)
	if err != nil {
		switch {
		case IsUniqueViolation(err):
			return 0, ErrCartItemExists
		case isPQCode(err, pqForeignKeyViolation):
			return 0, ErrGameNotFound
		}
		return 0, fmt.Errorf("failed to insert cart item: %w", err)
	}
	return id, nil
}

func (r *cartRepository) SetCartItemQuantityTx(ctx context.Context, tx *sql.Tx, userID, cartItemID int64, quantity int) error {
	res, err := tx.ExecContext(ctx, "UPDATE cart SET quantity = $1 WHERE id = $2 AND user_id = $3", quantity, cartItemID, userID)
	return checkCartAffected(res, err)
}

func (r *cartRepository) SetCartItemQuantity(ctx context.Context, userID, cartItemID int64, quantity int) error {
	res, err := r.db.ExecContext(ctx, "UPDATE cart SET quantity = $1 WHERE id = $2 AND user_id = $3", quantity, cartItemID, userID)
	return checkCartAffected(res, err)
}

func (r *cartRepository) DeleteCartItem(ctx context.Context, userID, cartItemID int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM cart WHERE id = $1 AND user_id = $2", cartItemID, userID)
	return checkCartAffected(res, err)
}

func (r *cartRepository) ClearCart(ctx context.Context, userID int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM cart WHERE user_id = $1", userID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

func checkCartAffected(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCartItemNotFound
	}
	return nil
}
