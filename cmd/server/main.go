package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/linemk/gamekeys-shop/internal/app"
	"github.com/linemk/gamekeys-shop/internal/app/handlers"
	"github.com/linemk/gamekeys-shop/internal/config"
	"github.com/linemk/gamekeys-shop/internal/domain/models"
	"github.com/linemk/gamekeys-shop/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/gamekeys-shop/internal/lib/logger"
	"github.com/linemk/gamekeys-shop/internal/lib/logger/handlers/urllog"
	"github.com/linemk/gamekeys-shop/internal/notify"
	"github.com/linemk/gamekeys-shop/internal/service"
	"github.com/linemk/gamekeys-shop/internal/statusfeed"
	"github.com/linemk/gamekeys-shop/internal/storage"
	"github.com/pkg/errors"
)

func main() {
	// загрузка конфигурации
	cfg := config.MustLoad()

	// инициализация логгера, зависит от настройки окружения
	log := logger.SetupLogger(cfg.Env)
	log.Info("starting app", slog.String("env", cfg.Env))

	// загружаем объект приложения, конфигом и подключением к БД
	application, err := app.NewApp(log, cfg)
	if err != nil {
		log.Error("failed to initialize app", slog.Any("error", err))
		panic(errors.Wrap(err, "failed to initialize app"))
	}
	defer application.DB.Close()

	router := chi.NewRouter()
	// настройка middleware
	router.Use(middleware.RequestID)
	router.Use(urllog.CustomLoggerMiddleware(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// реализация слоев по работе с БД по каждому направлению
	userRepo := storage.NewUserRepository(application.DB)
	gameRepo := storage.NewGameRepository(application.DB)
	cartRepo := storage.NewCartRepository(application.DB)
	orderRepo := storage.NewOrderRepository(application.DB)

	// живые статусы заказов и канал уведомления оператора
	hub := statusfeed.NewHub()
	whatsapp := notify.NewWhatsApp(log, cfg.Notify)

	authService := service.NewAuthService(log, userRepo, time.Duration(cfg.JWT.TokenTTL)*time.Minute)
	catalogService := service.NewCatalogService(log, gameRepo)
	cartService := service.NewCartService(log, application.DB, cartRepo)
	orderService := service.NewOrderService(log, application.DB, orderRepo, cartRepo, whatsapp, hub, cfg.Payment.MinTransactionIDLength)
	statusService := service.NewStatusService(log, orderRepo, hub)
	adminService := service.NewAdminService(log, orderRepo, hub)

	// публичные эндпоинты
	router.Post("/api/auth/signup", handlers.SignupHandler(log, authService))
	router.Post("/api/auth/login", handlers.AuthHandler(log, authService))
	router.Get("/api/games", handlers.ListGamesHandler(log, catalogService))
	router.Get("/api/games/{id}", handlers.GetGameHandler(log, catalogService))
	router.Get("/api/categories", handlers.ListCategoriesHandler(log, catalogService))
	// статус заказа доступен по ссылке-квитанции без входа
	router.Get("/api/orders/{id}", handlers.OrderStatusHandler(log, statusService))
	router.Get("/api/orders/{id}/ws", handlers.OrderStatusWSHandler(log, statusService))

	router.Group(func(r chi.Router) {
		r.Use(jwtmiddleware.NewJWTMiddleware())

		r.Get("/api/cart", handlers.GetCartHandler(log, cartService))
		r.Post("/api/cart", handlers.AddToCartHandler(log, cartService))
		r.Put("/api/cart/{id}", handlers.UpdateCartItemHandler(log, cartService))
		r.Delete("/api/cart/{id}", handlers.RemoveFromCartHandler(log, cartService))
		r.Delete("/api/cart", handlers.ClearCartHandler(log, cartService))

		r.Post("/api/orders", handlers.CreateOrderHandler(log, orderService, cfg.Payment))
		r.Put("/api/orders/{id}", handlers.ConfirmPaymentHandler(log, orderService))
		r.Get("/api/orders", handlers.ListOrdersHandler(log, orderService))

		r.Group(func(r chi.Router) {
			r.Use(jwtmiddleware.RequireRole(models.RoleAdmin))

			r.Post("/api/admin/games", handlers.CreateGameHandler(log, catalogService))
			r.Put("/api/admin/games/{id}", handlers.UpdateGameHandler(log, catalogService))
			r.Delete("/api/admin/games/{id}", handlers.DeleteGameHandler(log, catalogService))

			r.Get("/api/admin/orders", handlers.AdminListOrdersHandler(log, adminService))
			r.Get("/api/admin/orders/export", handlers.ExportOrdersHandler(log, adminService))
			r.Put("/api/admin/orders/{id}/complete", handlers.CompleteOrderHandler(log, adminService))
		})
	})

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("starting server", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", slog.Any("error", err))
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	stopSign := <-stop
	log.Info("received shutdown signal", slog.String("signal", stopSign.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", slog.Any("error", err))
	}
	log.Info("server gracefully stopped")
}
