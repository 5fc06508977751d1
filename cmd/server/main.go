package main // Entry point package

import (
    "context"
    "errors"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/concert-booking/internal/config"
    "github.com/iliyamo/concert-booking/internal/database"
    "github.com/iliyamo/concert-booking/internal/handler"
    "github.com/iliyamo/concert-booking/internal/logging"
    "github.com/iliyamo/concert-booking/internal/middleware"
    "github.com/iliyamo/concert-booking/internal/notifier"
    "github.com/iliyamo/concert-booking/internal/queue"
    "github.com/iliyamo/concert-booking/internal/repository"
    "github.com/iliyamo/concert-booking/internal/router"
    "github.com/iliyamo/concert-booking/internal/service"
)

func main() {
    cfg := config.Load() // Load environment config
    log := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: os.Stdout})

    ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
    defer stop()

    db, err := database.Open(ctx, database.Options{
        User: cfg.DBUser,
        Pass: cfg.DBPass,
        Host: cfg.DBHost,
        Port: cfg.DBPort,
        Name: cfg.DBName,
    })
    if err != nil {
        log.Fatal().Err(err).Msg("open database")
    }
    defer db.Close()

    if cfg.MigrateOnStart {
        if err := database.Migrate(db); err != nil {
            log.Fatal().Err(err).Msg("migrate database")
        }
    }

    // Repositories
    concerts := repository.NewConcertRepo(db)
    performers := repository.NewPerformerRepo(db)
    seats := repository.NewSeatRepo(db)
    bookings := repository.NewBookingRepo(db)
    users := repository.NewUserRepo(db)
    sessions := repository.NewSessionRepo(db)

    n := notifier.New(seats, log)

    // booking.created events are optional; without a broker the booking
    // flow simply skips publishing.
    var events service.EventPublisher
    if cfg.EventsEnabled {
        pub := queue.NewPublisher(cfg.RabbitURL)
        defer pub.Close()
        events = pub
    }
    if cfg.ConsumerEnabled {
        consumer := queue.NewConsumer(cfg.RabbitURL, queue.DefaultLogPath, log)
        go func() {
            if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
                log.Error().Err(err).Msg("booking consumer stopped")
            }
        }()
    }

    rdb, err := config.NewRedisClient(ctx, config.LoadRedisConfig())
    if err != nil {
        log.Warn().Err(err).Msg("redis unavailable; cache and rate limit disabled")
    } else {
        defer rdb.Close()
    }

    authSvc := service.NewAuthService(db, users, sessions, cfg.JWTSecret, time.Duration(cfg.SessionTTLMin)*time.Minute, log)
    bookingSvc := service.NewBookingService(db, concerts, seats, bookings, n, events, log)

    e := echo.New()
    e.HideBanner = true
    e.HidePort = true
    e.Use(middleware.RequestLogging(log), middleware.Recovery(log))

    guards := router.Guards{
        Cache:     middleware.NewRedisCache(config.LoadCacheConfig(), rdb, log),
        RateLimit: middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log),
        Auth:      middleware.SessionAuth(authSvc),
    }
    router.RegisterRoutes(e, handler.Health(db))
    router.RegisterPublic(e, handler.NewCatalogHandler(concerts, performers), handler.NewSeatHandler(seats, concerts), guards)
    router.RegisterAuth(e, handler.NewAuthHandler(authSvc, cfg.Env == "prod"), guards)
    router.RegisterBooking(e, handler.NewBookingHandler(bookingSvc), handler.NewSubscriptionHandler(n, concerts, cfg.SubscribeTimeout), guards)

    // Subscription requests stay open up to SubscribeTimeout, so the
    // write deadline has to outlast it.
    e.Server.ReadHeaderTimeout = 10 * time.Second
    e.Server.WriteTimeout = cfg.SubscribeTimeout + 30*time.Second

    addr := ":" + cfg.Port
    go func() {
        log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
        if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
            log.Fatal().Err(err).Msg("server failed")
        }
    }()

    <-ctx.Done()
    log.Info().Msg("shutting down")

    // Parked subscribers answer 503 before the server stops accepting.
    n.Close()
    shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
    defer cancel()
    if err := e.Shutdown(shutdownCtx); err != nil {
        log.Error().Err(err).Msg("graceful shutdown failed")
    }
}
