package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/expohall/expo-reservation/internal/config"
	"github.com/expohall/expo-reservation/internal/database"
	"github.com/expohall/expo-reservation/internal/handler"
	"github.com/expohall/expo-reservation/internal/middleware"
	"github.com/expohall/expo-reservation/internal/queue"
	"github.com/expohall/expo-reservation/internal/repository"
	"github.com/expohall/expo-reservation/internal/router"
	"github.com/expohall/expo-reservation/internal/service"
)

func main() {
	// .env is optional, real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable, rate limiting and caching disabled")
	}

	// Repositories.
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	activities := repository.NewActivityRepo(db)
	rounds := repository.NewRoundRepo(db)
	tickets := repository.NewTicketRepo(db)
	checks := repository.NewActivityCheckRepo(db)

	// Services.
	events := queue.NewPublisher()
	reservations := service.NewReservationService(rounds, tickets, users, events)
	checkins := service.NewCheckInService(activities, users, checks, tickets, events)

	// Handlers.
	authH := handler.NewAuthHandler(cfg, users, tokens)
	publicH := handler.NewPublicHandler(activities, rounds)
	reserveH := handler.NewReservationHandler(reservations, tickets)
	checkinH := handler.NewCheckInHandler(checkins, checks)
	staffH := handler.NewStaffHandler(activities, rounds)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPublic(e, publicH, cache)
	router.RegisterVisitor(e, reserveH, cfg.JWTSecret)
	router.RegisterStaff(e, checkinH, staffH, cfg.JWTSecret, cache)

	// Audit trail consumer reconnects on its own until shutdown.
	queue.StartAuditConsumer()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
