package service_test

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/linemk/gamekeys-shop/internal/domain/models"
	"github.com/linemk/gamekeys-shop/internal/service"
	"github.com/linemk/gamekeys-shop/internal/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

// ---------- users ----------

type fakeUserRepo struct {
	users map[string]*models.User // ключ — email
}

var _ storage.UserStorage = (*fakeUserRepo)(nil)

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*models.User)}
}

func (f *fakeUserRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user, ok := f.users[email]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	if _, ok := f.users[user.Email]; ok {
		return nil, storage.ErrUserExists
	}
	user.ID = int64(len(f.users) + 1)
	f.users[user.Email] = user
	return user, nil
}

func (f *fakeUserRepo) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

// ---------- cart ----------

type fakeCartRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   []*models.CartItem
	games  map[int64]models.GameSnapshot

	listErr  error
	writeErr error

	listCalls int
	// listHook вызывается после снятия снимка строк, может блокировать
	listHook func(call int)
	// afterRead вызывается после чтения строки в AddToCart
	afterRead func()
}

var _ storage.CartStorage = (*fakeCartRepo)(nil)

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{games: make(map[int64]models.GameSnapshot)}
}

func (f *fakeCartRepo) addGame(id int64, title, price string, reference *decimal.Decimal) {
	f.games[id] = models.GameSnapshot{ID: id, Title: title, Price: dec(price), ReferencePrice: reference}
}

// put кладёт строку напрямую, минуя сервис
func (f *fakeCartRepo) put(userID, gameID int64, quantity int) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.rows = append(f.rows, &models.CartItem{ID: f.nextID, UserID: userID, GameID: gameID, Quantity: quantity})
	return f.nextID
}

func (f *fakeCartRepo) quantity(userID, gameID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.UserID == userID && r.GameID == gameID {
			return r.Quantity
		}
	}
	return 0
}

func (f *fakeCartRepo) rowCount(userID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.rows {
		if r.UserID == userID {
			n++
		}
	}
	return n
}

func (f *fakeCartRepo) ListCartLines(ctx context.Context, userID int64) ([]models.CartLine, error) {
	f.mu.Lock()
	f.listCalls++
	call := f.listCalls
	if f.listErr != nil {
		f.mu.Unlock()
		return nil, f.listErr
	}
	lines := make([]models.CartLine, 0)
	for _, r := range f.rows {
		if r.UserID != userID {
			continue
		}
		lines = append(lines, models.CartLine{ID: r.ID, GameID: r.GameID, Quantity: r.Quantity, Game: f.games[r.GameID]})
	}
	hook := f.listHook
	f.mu.Unlock()

	if hook != nil {
		hook(call)
	}
	return lines, nil
}

func (f *fakeCartRepo) GetCartItemByGameTx(ctx context.Context, tx *sql.Tx, userID, gameID int64) (*models.CartItem, error) {
	f.mu.Lock()
	var found *models.CartItem
	for _, r := range f.rows {
		if r.UserID == userID && r.GameID == gameID {
			cp := *r
			found = &cp
			break
		}
	}
	hook := f.afterRead
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	if found == nil {
		return nil, storage.ErrCartItemNotFound
	}
	return found, nil
}

func (f *fakeCartRepo) InsertCartItemTx(ctx context.Context, tx *sql.Tx, userID, gameID int64, quantity int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	if _, ok := f.games[gameID]; !ok {
		return 0, storage.ErrGameNotFound
	}
	for _, r := range f.rows {
		if r.UserID == userID && r.GameID == gameID {
			return 0, storage.ErrCartItemExists
		}
	}
	f.nextID++
	f.rows = append(f.rows, &models.CartItem{ID: f.nextID, UserID: userID, GameID: gameID, Quantity: quantity})
	return f.nextID, nil
}

func (f *fakeCartRepo) SetCartItemQuantityTx(ctx context.Context, tx *sql.Tx, userID, cartItemID int64, quantity int) error {
	return f.SetCartItemQuantity(ctx, userID, cartItemID, quantity)
}

func (f *fakeCartRepo) SetCartItemQuantity(ctx context.Context, userID, cartItemID int64, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	for _, r := range f.rows {
		if r.ID == cartItemID && r.UserID == userID {
			r.Quantity = quantity
			return nil
		}
	}
	return storage.ErrCartItemNotFound
}

func (f *fakeCartRepo) DeleteCartItem(ctx context.Context, userID, cartItemID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	for i, r := range f.rows {
		if r.ID == cartItemID && r.UserID == userID {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return storage.ErrCartItemNotFound
}

func (f *fakeCartRepo) ClearCart(ctx context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	kept := f.rows[:0]
	for _, r := range f.rows {
		if r.UserID != userID {
			kept = append(kept, r)
		}
	}
	f.rows = kept
	return nil
}

// ---------- orders ----------

type fakeOrderRepo struct {
	mu        sync.Mutex
	orders    map[uuid.UUID]*models.Order
	createErr error
	getErr    error

	confirmCalls int
}

var _ storage.OrderStorage = (*fakeOrderRepo)(nil)

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[uuid.UUID]*models.Order)}
}

func cloneOrder(o *models.Order) *models.Order {
	cp := *o
	if o.TransactionID != nil {
		tx := *o.TransactionID
		cp.TransactionID = &tx
	}
	cp.Items = append([]models.OrderItem(nil), o.Items...)
	return &cp
}

// seed кладёт заказ напрямую
func (f *fakeOrderRepo) seed(o *models.Order) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders[o.ID] = cloneOrder(o)
}

func (f *fakeOrderRepo) get(id uuid.UUID) *models.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil
	}
	return cloneOrder(o)
}

func (f *fakeOrderRepo) CreateOrderTx(ctx context.Context, tx *sql.Tx, order *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	order.CreatedAt = time.Now()
	f.orders[order.ID] = cloneOrder(order)
	return nil
}

func (f *fakeOrderRepo) CreateOrderItemsTx(ctx context.Context, tx *sql.Tx, orderID uuid.UUID, items []models.OrderItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return storage.ErrOrderNotFound
	}
	o.Items = append([]models.OrderItem(nil), items...)
	return nil
}

func (f *fakeOrderRepo) GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	o := f.get(id)
	if o == nil {
		return nil, storage.ErrOrderNotFound
	}
	o.Items = nil
	return o, nil
}

func (f *fakeOrderRepo) GetOrderItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	o := f.get(orderID)
	if o == nil {
		return []models.OrderItem{}, nil
	}
	return o.Items, nil
}

// ConfirmPayment повторяет условный UPDATE ... WHERE status = 'pending' AND transaction_id IS NULL
func (f *fakeOrderRepo) ConfirmPayment(ctx context.Context, id uuid.UUID, userID int64, transactionID string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirmCalls++

	o, ok := f.orders[id]
	if !ok || o.UserID != userID || o.Status != models.OrderStatusPending || o.TransactionID != nil {
		return nil, storage.ErrOrderNotPending
	}
	for _, other := range f.orders {
		if other.TransactionID != nil && *other.TransactionID == transactionID {
			return nil, storage.ErrTransactionIDInUse
		}
	}
	tx := transactionID
	now := time.Now()
	o.TransactionID = &tx
	o.Status = models.OrderStatusPaid
	o.PaidAt = &now
	return cloneOrder(o), nil
}

func (f *fakeOrderRepo) CompleteOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok || o.Status != models.OrderStatusPaid {
		return nil, storage.ErrOrderNotPaid
	}
	now := time.Now()
	o.Status = models.OrderStatusCompleted
	o.CompletedAt = &now
	return cloneOrder(o), nil
}

func (f *fakeOrderRepo) ListOrdersByUserID(ctx context.Context, userID int64) ([]*models.Order, error) {
	var res []*models.Order
	for _, o := range f.listSorted() {
		if o.UserID == userID {
			res = append(res, o)
		}
	}
	return res, nil
}

func (f *fakeOrderRepo) ListOrders(ctx context.Context, status *models.OrderStatus) ([]*models.Order, error) {
	var res []*models.Order
	for _, o := range f.listSorted() {
		if status == nil || o.Status == *status {
			res = append(res, o)
		}
	}
	return res, nil
}

func (f *fakeOrderRepo) listSorted() []*models.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	res := make([]*models.Order, 0, len(f.orders))
	for _, o := range f.orders {
		res = append(res, cloneOrder(o))
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	return res
}

// ---------- games ----------

type fakeGameRepo struct {
	games map[int64]*models.Game
}

var _ storage.GameStorage = (*fakeGameRepo)(nil)

func newFakeGameRepo() *fakeGameRepo {
	return &fakeGameRepo{games: make(map[int64]*models.Game)}
}

func (f *fakeGameRepo) ListGames(ctx context.Context, filter storage.GameFilter) ([]*models.Game, error) {
	res := make([]*models.Game, 0)
	for _, g := range f.games {
		if filter.CategoryID != nil && g.CategoryID != *filter.CategoryID {
			continue
		}
		res = append(res, g)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	if filter.Limit > 0 && len(res) > filter.Limit {
		res = res[:filter.Limit]
	}
	return res, nil
}

func (f *fakeGameRepo) GetGameByID(ctx context.Context, id int64) (*models.Game, error) {
	g, ok := f.games[id]
	if !ok {
		return nil, storage.ErrGameNotFound
	}
	return g, nil
}

func (f *fakeGameRepo) CreateGame(ctx context.Context, game *models.Game) (*models.Game, error) {
	game.ID = int64(len(f.games) + 1)
	f.games[game.ID] = game
	return game, nil
}

func (f *fakeGameRepo) UpdateGame(ctx context.Context, game *models.Game) error {
	if _, ok := f.games[game.ID]; !ok {
		return storage.ErrGameNotFound
	}
	f.games[game.ID] = game
	return nil
}

func (f *fakeGameRepo) DeleteGame(ctx context.Context, id int64) error {
	if _, ok := f.games[id]; !ok {
		return storage.ErrGameNotFound
	}
	delete(f.games, id)
	return nil
}

func (f *fakeGameRepo) ListCategories(ctx context.Context) ([]*models.Category, error) {
	return []*models.Category{{ID: 1, Name: "Action"}}, nil
}

// ---------- notifier / publisher ----------

type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
	err      error
}

var _ service.Notifier = (*fakeNotifier)(nil)

func (f *fakeNotifier) NotifyHuman(ctx context.Context, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, message)
	return f.err
}

func (f *fakeNotifier) Link(message string) string {
	return "https://wa.me/919876543210?text=" + message
}

func (f *fakeNotifier) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

type fakePublisher struct {
	mu    sync.Mutex
	views []models.OrderStatusView
}

func (f *fakePublisher) Publish(view models.OrderStatusView) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.views = append(f.views, view)
}

// ---------- auth ----------

func TestAuthService_Signup_And_Login(t *testing.T) {
	t.Setenv("JWT_SECRET", "testsecret")

	fakeRepo := newFakeUserRepo()
	authSvc := service.NewAuthService(testLogger(), fakeRepo, 60*time.Minute)
	ctx := context.Background()

	email := "newuser@example.com"
	password := "password123"

	token, err := authSvc.Signup(ctx, " NewUser@Example.com ", password, "New User")
	require.NoError(t, err, "Signup should succeed for a new user")
	assert.NotEmpty(t, token, "Token should not be empty")

	user, err := fakeRepo.GetUserByEmail(ctx, email)
	require.NoError(t, err, "User should exist after signup")
	assert.Equal(t, models.RoleUser, user.Role, "New users are plain customers")
	// Проверяем, что пароль хэширован (не равен исходному паролю)
	assert.NotEqual(t, password, string(user.PassHash), "Password should be hashed")

	token, err = authSvc.Login(ctx, email, password)
	assert.NoError(t, err, "Login should succeed with correct password")
	assert.NotEmpty(t, token)
}

func TestAuthService_Signup_Duplicate(t *testing.T) {
	t.Setenv("JWT_SECRET", "testsecret")

	authSvc := service.NewAuthService(testLogger(), newFakeUserRepo(), time.Hour)
	ctx := context.Background()

	_, err := authSvc.Signup(ctx, "dup@example.com", "password123", "")
	require.NoError(t, err)

	_, err = authSvc.Signup(ctx, "dup@example.com", "password123", "")
	assert.ErrorIs(t, err, service.ErrUserExists)
}

func TestAuthService_Login_ExistingUser_WrongPassword(t *testing.T) {
	t.Setenv("JWT_SECRET", "testsecret")

	fakeRepo := newFakeUserRepo()
	authSvc := service.NewAuthService(testLogger(), fakeRepo, 60*time.Minute)
	ctx := context.Background()

	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	require.NoError(t, err)
	_, err = fakeRepo.CreateUser(ctx, &models.User{Email: "existing@example.com", PassHash: hashed, Role: models.RoleAdmin})
	require.NoError(t, err)

	token, err := authSvc.Login(ctx, "existing@example.com", "wrongpassword")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials, "Login should fail with incorrect password")
	assert.Empty(t, token, "Token should be empty on failed login")
}

func TestAuthService_Login_UnknownUser(t *testing.T) {
	t.Setenv("JWT_SECRET", "testsecret")

	authSvc := service.NewAuthService(testLogger(), newFakeUserRepo(), time.Hour)

	_, err := authSvc.Login(context.Background(), "ghost@example.com", "password123")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestAuthService_Login_StorageFailure(t *testing.T) {
	t.Setenv("JWT_SECRET", "testsecret")

	authSvc := service.NewAuthService(testLogger(), failingUserRepo{}, time.Hour)

	_, err := authSvc.Login(context.Background(), "user@example.com", "password123")
	assert.ErrorIs(t, err, service.ErrPersistence)
}

type failingUserRepo struct{}

func (failingUserRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return nil, errors.New("connection refused")
}

func (failingUserRepo) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return nil, errors.New("connection refused")
}

func (failingUserRepo) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	return nil, errors.New("connection refused")
}
