package app

import (
	"context"

	"cmspanel/internal/config"
	"cmspanel/internal/db"
	"cmspanel/internal/handlers"
	"cmspanel/internal/logger"
	"cmspanel/internal/repository"
	"cmspanel/internal/routes"
	"cmspanel/internal/services"
	"cmspanel/internal/storage"

	"github.com/go-redis/redis/v9"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

func InitApp(cfg *config.Config) (*mux.Router, error) {
	// Сначала проверяем конфиг: фатально неполный должен падать
	// до миграций и открытия соединений.
	warnings, err := cfg.Validate()
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		logger.Log.Warn("Проблема конфигурации", zap.String("warning", w))
	}

	if err := db.ApplyMigrations(cfg); err != nil {
		return nil, err
	}

	conn, err := db.NewPostgresConnection(cfg)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})

	// Репозитории
	userRepo := repository.NewUserRepository(conn)
	resetRepo := repository.NewPasswordResetRepository(conn)
	navRepo := repository.NewNavigationRepo(conn)
	themeRepo := repository.NewThemeRepo(conn)

	// Объектное хранилище — опционально, без S3 работает всё кроме загрузок темы
	var uploader storage.Uploader
	if cfg.S3Bucket != "" {
		s3Store, err := storage.NewS3Storage(context.Background(), cfg)
		if err != nil {
			return nil, err
		}
		uploader = s3Store
	}

	// Сервисы
	authService := services.NewAuthService(userRepo, cfg)
	emailService := services.NewEmailService(cfg)
	passwordService := services.NewPasswordService(resetRepo, services.QueueMailer{}, cfg.FrontendURL, cfg.PasswordResetTTL())
	navService := services.NewNavigationService(navRepo)
	themeService := services.NewThemeService(themeRepo, uploader)
	limiter := services.NewRateLimiter(rdb)

	// Хендлеры
	authHandler := handlers.NewAuthHandler(authService, cfg.JWTSecret)
	passwordHandler := handlers.NewPasswordHandler(passwordService, userRepo, limiter, cfg.ForgotLimit())
	navHandler := handlers.NewNavigationHandler(navService)
	themeHandler := handlers.NewThemeHandler(themeService)

	// Чистка протухших токенов сброса
	services.StartTokenSweeper(resetRepo)

	// Воркеры отправки писем
	for i := 0; i < 3; i++ {
		services.StartEmailWorker(emailService)
	}

	// Маршруты
	router := mux.NewRouter()
	routes.InitRoutes(router, cfg.JWTSecret, authHandler, passwordHandler, navHandler, themeHandler)

	return router, nil
}
