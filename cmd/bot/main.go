package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/marketplace-bot/internal/bot"
	"github.com/ignatzorin/marketplace-bot/internal/config"
	"github.com/ignatzorin/marketplace-bot/internal/db"
	"github.com/ignatzorin/marketplace-bot/internal/goroutine"
	httpHandlers "github.com/ignatzorin/marketplace-bot/internal/http/handlers"
	httpRouter "github.com/ignatzorin/marketplace-bot/internal/http/router"
	"github.com/ignatzorin/marketplace-bot/internal/logger"
	"github.com/ignatzorin/marketplace-bot/internal/messaging/discord"
	"github.com/ignatzorin/marketplace-bot/internal/repository"
	"github.com/ignatzorin/marketplace-bot/internal/service"
	"github.com/ignatzorin/marketplace-bot/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация логгера
	logLevel := "info"
	if cfg.Env == "development" {
		logLevel = "debug"
		logger.Init(logLevel)
		logger.SetTextFormatter()
	} else {
		logger.Init(logLevel)
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	// Сессия Discord.
	session, err := discordgo.New("Bot " + cfg.DiscordBotToken)
	if err != nil {
		log.Fatalf("main: ошибка создания сессии discord: %v", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages

	if err := session.Open(); err != nil {
		log.Fatalf("main: не удалось открыть сессию discord: %v", err)
	}
	defer session.Close()

	// Ядро: репозиторий, шлюз, движок жизненного цикла.
	listingRepo := repository.NewListingRepository(dbConn)
	gateway := discord.NewGateway(session, cfg.GuildID)
	lifecycle := service.NewLifecycleService(listingRepo, gateway, cfg.SaleChannels, cfg.AdminRoleIDs)

	// Вебсокеты ops панели: события жизненного цикла уходят наблюдателям.
	hub := ws.NewHub()
	goroutine.SafeGo(hub.Run)
	lifecycle.SetNotifier(hub)

	// Фронтенд бота и периодический статус.
	front := bot.New(session, lifecycle, cfg.GuildID, cfg.AdminRoleIDs)
	if err := front.Start(); err != nil {
		log.Fatalf("main: не удалось зарегистрировать команды: %v", err)
	}
	presence := discord.NewPresenceUpdater(session, cfg.PresencePeriod)
	goroutine.SafeGoWithContext(ctx, presence.Run)

	// Ops API.
	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL)
	opsAuth := service.NewOpsAuthService(cfg.OpsPasswordHash, tokenManager)

	authHandler := httpHandlers.NewAuthHandler(opsAuth)
	listingHandler := httpHandlers.NewListingHandler(lifecycle, listingRepo)
	wsHandler := httpHandlers.NewWSHandler(hub, tokenManager)
	healthHandler := httpHandlers.NewHealthHandler(dbConn)

	engine := httpRouter.SetupRouter(cfg, authHandler, listingHandler, wsHandler, healthHandler, tokenManager)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	log.Printf("main: бот запущен, HTTP сервер на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(dbConn *sqlx.DB) {
	if err := dbConn.Close(); err != nil {
		log.Printf("main: ошибка закрытия соединения с базой: %v", err)
	}
}
