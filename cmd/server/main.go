package main // Entry point for the hoarding rental API server

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/skysign/hoarding-rental/internal/config"
	"github.com/skysign/hoarding-rental/internal/database"
	"github.com/skysign/hoarding-rental/internal/handler"
	"github.com/skysign/hoarding-rental/internal/queue"
	"github.com/skysign/hoarding-rental/internal/repository"
	"github.com/skysign/hoarding-rental/internal/router"
)

func main() {
	// .env is optional; real deployments set variables directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	// Redis is optional: a nil client turns the rate limiter and the
	// response cache into pass-throughs.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable, rate limiting and response cache disabled")
	}

	tokens := repository.NewTokenRepo(db)
	hoardings := repository.NewHoardingRepo(db)
	users := repository.NewUserRepo(db)
	rents := repository.NewRentRepo(db)

	h := router.Handlers{
		Booking:    handler.NewBookingHandler(tokens, hoardings, users, cfg.TokenTTLMin),
		Design:     handler.NewDesignHandler(tokens, hoardings),
		Fitter:     handler.NewFitterHandler(tokens, hoardings, users),
		Escalation: handler.NewEscalationHandler(rents),
	}

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e, h, cfg.JWTSecret, rdb)

	// The status consumer tails token.status and appends transitions to
	// the audit log.  It reconnects on broker failures forever, so run
	// it detached from the request path.
	go func() {
		if err := queue.StartStatusConsumer(); err != nil {
			log.Printf("status consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
