package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/linemk/gamekeys-shop/internal/domain/models"
	"github.com/linemk/gamekeys-shop/internal/pricing"
	"github.com/linemk/gamekeys-shop/internal/storage"
)

// addAttempts - сколько раз пробуем добавить позицию, если параллельный запрос
// успел вставить ту же (user, game) между чтением и записью
const addAttempts = 2

// CartStore - корзина одной сессии.
// Хранит последнюю загруженную из БД версию корзины; итоги считаются при каждом обращении.
// Все мутации идут в БД и заканчиваются перечитыванием, оптимистичных правок нет
// (кроме ClearCart, после которого корзина заведомо пуста).
type CartStore struct {
	log  *slog.Logger
	db   *sql.DB
	repo storage.CartStorage
	sess *models.Session

	mu    sync.Mutex
	items []models.CartLine
	count int
	// started - номер последней начатой загрузки, applied - номер последней применённой.
	// Загрузка применяется, только если она новее применённой.
	started uint64
	applied uint64
}

func NewCartStore(log *slog.Logger, db *sql.DB, repo storage.CartStorage, sess *models.Session) *CartStore {
	return &CartStore{
		log:   log,
		db:    db,
		repo:  repo,
		sess:  sess,
		items: []models.CartLine{},
	}
}

func (c *CartStore) userID() (int64, error) {
	if c.sess == nil {
		return 0, ErrUnauthenticated
	}
	return c.sess.UserID, nil
}

// Load перечитывает корзину из БД.
// При параллельных вызовах побеждает загрузка, начатая последней.
func (c *CartStore) Load(ctx context.Context) error {
	const op = "service.CartStore.Load"
	userID, err := c.userID()
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.started++
	seq := c.started
	c.mu.Unlock()

	lines, err := c.repo.ListCartLines(ctx, userID)
	if err != nil {
		c.log.Error("failed to load cart", slog.String("op", op), slog.Int64("userID", userID), slog.Any("error", err))
		return persistenceErr(op, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq <= c.applied {
		c.log.Debug("stale cart load dropped", slog.String("op", op), slog.Uint64("seq", seq))
		return nil
	}
	c.applied = seq
	c.items = lines
	c.count = countOf(lines)
	return nil
}

// AddToCart добавляет игру в корзину: если строка уже есть, увеличивает количество.
func (c *CartStore) AddToCart(ctx context.Context, gameID int64, quantity int) error {
	const op = "service.CartStore.AddToCart"
	userID, err := c.userID()
	if err != nil {
		return err
	}
	if quantity < 1 {
		return fmt.Errorf("%s: %w: quantity must be positive", op, ErrInvalidInput)
	}

	logger := c.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.Int64("gameID", gameID))

	for attempt := 1; ; attempt++ {
		err = c.addOnce(ctx, userID, gameID, quantity)
		if errors.Is(err, storage.ErrCartItemExists) && attempt < addAttempts {
			logger.Warn("cart item inserted concurrently, retrying", slog.Int("attempt", attempt))
			continue
		}
		break
	}
	if err != nil {
		if errors.Is(err, storage.ErrGameNotFound) {
			return fmt.Errorf("%s: %w: game %d", op, ErrNotFound, gameID)
		}
		logger.Error("failed to add to cart", slog.Any("error", err))
		return persistenceErr(op, err)
	}

	logger.Info("cart item added", slog.Int("quantity", quantity))
	return c.Load(ctx)
}

// addOnce - одна попытка read-then-write внутри транзакции
func (c *CartStore) addOnce(ctx context.Context, userID, gameID int64, quantity int) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	item, err := c.repo.GetCartItemByGameTx(ctx, tx, userID, gameID)
	switch {
	case err == nil:
		err = c.repo.SetCartItemQuantityTx(ctx, tx, userID, item.ID, item.Quantity+quantity)
	case errors.Is(err, storage.ErrCartItemNotFound):
		_, err = c.repo.InsertCartItemTx(ctx, tx, userID, gameID, quantity)
	}
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			c.log.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// UpdateCartItem выставляет количество; quantity < 1 означает удаление строки.
func (c *CartStore) UpdateCartItem(ctx context.Context, cartItemID int64, quantity int) error {
	const op = "service.CartStore.UpdateCartItem"
	userID, err := c.userID()
	if err != nil {
		return err
	}
	if quantity < 1 {
		return c.RemoveFromCart(ctx, cartItemID)
	}

	if err := c.repo.SetCartItemQuantity(ctx, userID, cartItemID, quantity); err != nil {
		if errors.Is(err, storage.ErrCartItemNotFound) {
			return fmt.Errorf("%s: %w: cart item %d", op, ErrNotFound, cartItemID)
		}
		c.log.Error("failed to update cart item", slog.String("op", op), slog.Any("error", err))
		return persistenceErr(op, err)
	}
	return c.Load(ctx)
}

// RemoveFromCart удаляет строку корзины. Для отсутствующей строки возвращает ErrNotFound,
// состояние корзины при этом не меняется.
func (c *CartStore) RemoveFromCart(ctx context.Context, cartItemID int64) error {
	const op = "service.CartStore.RemoveFromCart"
	userID, err := c.userID()
	if err != nil {
		return err
	}

	if err := c.repo.DeleteCartItem(ctx, userID, cartItemID); err != nil {
		if errors.Is(err, storage.ErrCartItemNotFound) {
			return fmt.Errorf("%s: %w: cart item %d", op, ErrNotFound, cartItemID)
		}
		c.log.Error("failed to remove cart item", slog.String("op", op), slog.Any("error", err))
		return persistenceErr(op, err)
	}
	return c.Load(ctx)
}

// ClearCart удаляет все строки пользователя и обнуляет корзину без перечитывания.
func (c *CartStore) ClearCart(ctx context.Context) error {
	const op = "service.CartStore.ClearCart"
	userID, err := c.userID()
	if err != nil {
		return err
	}

	if err := c.repo.ClearCart(ctx, userID); err != nil {
		c.log.Error("failed to clear cart", slog.String("op", op), slog.Any("error", err))
		return persistenceErr(op, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// загрузки, начатые до очистки, уже устарели
	c.started++
	c.applied = c.started
	c.items = []models.CartLine{}
	c.count = 0
	return nil
}

// Items возвращает копию строк корзины
func (c *CartStore) Items() []models.CartLine {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.CartLine, len(c.items))
	copy(out, c.items)
	return out
}

func (c *CartStore) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// Totals считает итоги по текущему содержимому корзины
func (c *CartStore) Totals() pricing.Totals {
	return pricing.CartTotals(pricingLines(c.Items()))
}

// Snapshot - согласованный срез корзины вместе с итогами
func (c *CartStore) Snapshot() models.Cart {
	c.mu.Lock()
	items := make([]models.CartLine, len(c.items))
	copy(items, c.items)
	count := c.count
	c.mu.Unlock()

	totals := pricing.CartTotals(pricingLines(items))
	return models.Cart{
		Items:          items,
		Count:          count,
		Subtotal:       totals.Subtotal,
		ReferenceTotal: totals.ReferenceTotal,
		Savings:        totals.Savings,
	}
}

func pricingLines(items []models.CartLine) []pricing.Line {
	lines := make([]pricing.Line, 0, len(items))
	for _, it := range items {
		lines = append(lines, pricing.Line{
			Price:     it.Game.Price,
			Reference: it.Game.ReferencePrice,
			Quantity:  it.Quantity,
		})
	}
	return lines
}

func countOf(items []models.CartLine) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}
