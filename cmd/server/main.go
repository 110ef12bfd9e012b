package main // Entry point package

import (
    "context" // Cancellation for the balance subscriber
    "log"     // Logging library

    "github.com/joho/godotenv"    // Loads .env files into the environment
    "github.com/labstack/echo/v4" // Echo web framework

    "github.com/iliyamo/room-booking-basket/internal/basket"     // In-memory basket store
    "github.com/iliyamo/room-booking-basket/internal/config"     // Internal config loader
    "github.com/iliyamo/room-booking-basket/internal/credit"     // Credit balance provider
    "github.com/iliyamo/room-booking-basket/internal/database"   // MySQL connection helper
    "github.com/iliyamo/room-booking-basket/internal/handler"    // HTTP handlers
    "github.com/iliyamo/room-booking-basket/internal/middleware" // Response cache and rate limiting
    "github.com/iliyamo/room-booking-basket/internal/payment"    // Checkout dispatcher
    "github.com/iliyamo/room-booking-basket/internal/queue"      // RabbitMQ booking consumer
    "github.com/iliyamo/room-booking-basket/internal/repository" // DB repositories
    "github.com/iliyamo/room-booking-basket/internal/router"     // Route registration
    queue_publisher "github.com/iliyamo/room-booking-basket/internal/service"
    "github.com/iliyamo/room-booking-basket/internal/webhook" // External payment rail clients
)

func main() {
    // Load .env if present; real deployments set the environment directly.
    _ = godotenv.Load()

    cfg := config.Load() // Load environment config

    // Open MySQL for the client directory, credits and pending baskets.
    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database: %v", err)
    }
    defer db.Close()

    // Redis backs the balance pub/sub rail plus the response cache and
    // rate limiter. It may come back nil; those features then degrade.
    rdb := config.NewRedisClient()
    if rdb == nil {
        log.Println("redis unavailable: balance updates, cache and rate limiting disabled")
    }

    // Repositories
    clients := repository.NewClientRepo(db)
    credits := repository.NewCreditRepo(db)
    pending := repository.NewPendingBasketRepo(db)
    admins := repository.NewAdminRepo(db)
    tokens := repository.NewTokenRepo(db)

    // Credit provider: DB-seeded cache kept fresh over pub/sub.
    creditProvider := credit.NewProvider(credits)
    ctx, cancel := context.WithCancel(context.Background())
    defer cancel()
    go creditProvider.Listen(ctx, rdb)

    // Background consumer logging settled bookings from RabbitMQ.
    go func() {
        if err := queue.StartBookingConsumer(rdb); err != nil {
            log.Printf("booking consumer stopped: %v", err)
        }
    }()

    // Checkout dispatcher and its external rails.
    dispatcher := payment.NewDispatcher(
        webhook.NewSettlementClient(cfg.SettlementURL),
        webhook.NewCheckoutClient(cfg.CheckoutURL),
        pending,
        creditProvider,
        queue_publisher.SettledEventPublisher{},
        cfg.SuccessURL,
        cfg.CancelURL,
    )

    baskets := basket.NewStore()

    // Handlers
    authH := handler.NewAuthHandler(cfg, admins, tokens)
    sessionH := handler.NewSessionHandler(cfg, clients, creditProvider)
    basketH := handler.NewBasketHandler(baskets)
    checkoutH := handler.NewCheckoutHandler(baskets, creditProvider, dispatcher)
    adminH := handler.NewAdminClientHandler(clients, credits, pending, rdb)

    e := echo.New() // Create Echo instance

    // Ambient middleware: token bucket rate limiting and GET response
    // caching, both Redis-backed and disabled cleanly when Redis is down.
    e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
    e.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))

    router.RegisterRoutes(e) // Health check
    router.RegisterAuth(e, authH, cfg.JWTSecret)
    router.RegisterSession(e, sessionH, cfg.JWTSecret)
    router.RegisterBasket(e, basketH, checkoutH, cfg.JWTSecret)
    router.RegisterAdmin(e, adminH, cfg.JWTSecret)

    addr := ":" + cfg.Port                                // Address string with port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

    if err := e.Start(addr); err != nil { // Start HTTP server
        log.Fatal(err) // Log and exit if server fails
    }
}
