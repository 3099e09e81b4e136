package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/linemk/gamekeys-shop/internal/domain/models"
	"github.com/linemk/gamekeys-shop/internal/storage"
)

// CartService - обёртка над CartStore для HTTP: на каждый запрос своя корзина сессии.
type CartService interface {
	GetCart(ctx context.Context, sess *models.Session) (*models.Cart, error)
	AddToCart(ctx context.Context, sess *models.Session, gameID int64, quantity int) (*models.Cart, error)
	UpdateCartItem(ctx context.Context, sess *models.Session, cartItemID int64, quantity int) (*models.Cart, error)
	RemoveFromCart(ctx context.Context, sess *models.Session, cartItemID int64) (*models.Cart, error)
	ClearCart(ctx context.Context, sess *models.Session) error
}

type cartService struct {
	log  *slog.Logger
	db   *sql.DB
	repo storage.CartStorage
}

func NewCartService(log *slog.Logger, db *sql.DB, repo storage.CartStorage) CartService {
	return &cartService{log: log, db: db, repo: repo}
}

func (s *cartService) store(sess *models.Session) *CartStore {
	return NewCartStore(s.log, s.db, s.repo, sess)
}

func (s *cartService) GetCart(ctx context.Context, sess *models.Session) (*models.Cart, error) {
	store := s.store(sess)
	if err := store.Load(ctx); err != nil {
		return nil, err
	}
	cart := store.Snapshot()
	return &cart, nil
}

func (s *cartService) AddToCart(ctx context.Context, sess *models.Session, gameID int64, quantity int) (*models.Cart, error) {
	store := s.store(sess)
	if err := store.AddToCart(ctx, gameID, quantity); err != nil {
		return nil, err
	}
	cart := store.Snapshot()
	return &cart, nil
}

func (s *cartService) UpdateCartItem(ctx context.Context, sess *models.Session, cartItemID int64, quantity int) (*models.Cart, error) {
	store := s.store(sess)
	if err := store.UpdateCartItem(ctx, cartItemID, quantity); err != nil {
		// удаление через quantity=0 так же идемпотентно, как RemoveFromCart
		if quantity < 1 && errors.Is(err, ErrNotFound) {
			return s.GetCart(ctx, sess)
		}
		return nil, err
	}
	cart := store.Snapshot()
	return &cart, nil
}

// RemoveFromCart идемпотентен: удаление уже удалённой строки возвращает текущую корзину.
func (s *cartService) RemoveFromCart(ctx context.Context, sess *models.Session, cartItemID int64) (*models.Cart, error) {
	store := s.store(sess)
	if err := store.RemoveFromCart(ctx, cartItemID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return s.GetCart(ctx, sess)
		}
		return nil, err
	}
	cart := store.Snapshot()
	return &cart, nil
}

func (s *cartService) ClearCart(ctx context.Context, sess *models.Session) error {
	return s.store(sess).ClearCart(ctx)
}
