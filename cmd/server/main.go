package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/salones-cra/booking-api/internal/booking"
	"github.com/salones-cra/booking-api/internal/config"
	"github.com/salones-cra/booking-api/internal/database"
	"github.com/salones-cra/booking-api/internal/handler"
	"github.com/salones-cra/booking-api/internal/queue"
	"github.com/salones-cra/booking-api/internal/repository"
	"github.com/salones-cra/booking-api/internal/router"
	queue_publisher "github.com/salones-cra/booking-api/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	rooms := repository.NewRoomRepo(db)
	materials := repository.NewMaterialRepo(db)
	inventory := repository.NewInventoryRepo(db)
	reservations := repository.NewReservationRepo(db)
	blackouts := repository.NewBlackoutRepo(db)
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)

	reservationSvc := booking.NewReservationService(db, cfg.Rules, rooms, users, inventory, reservations, blackouts)
	blackoutSvc := booking.NewBlackoutService(db, rooms, reservations, inventory, blackouts)
	blackoutSvc.Publish = func(c booking.CancelledReservation) {
		ev := queue.ReservationCancelledEvent{
			ReservationID:  c.ReservationID,
			RoomID:         c.RoomID,
			RoomCode:       c.RoomCode,
			UserID:         c.UserID,
			Date:           c.Date,
			StartTime:      c.StartTime,
			EndTime:        c.EndTime,
			BlackoutReason: c.BlackoutReason,
			CancelledAt:    time.Now().UTC().Format(time.RFC3339),
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		// Best effort: the cancellation is already committed.
		_ = queue_publisher.PublishReservationCancelled(ctx, ev)
	}

	// Background consumer that appends cancellations to logs/cancellations.log.
	go func() {
		if err := queue.StartCancellationConsumer(); err != nil {
			log.Printf("cancellation consumer stopped: %v", err)
		}
	}()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; rate limiting and response cache disabled")
	}

	e := echo.New()
	router.Register(e, router.Handlers{
		Auth:         handler.NewAuthHandler(cfg, users, tokens),
		Reservations: handler.NewReservationHandler(reservationSvc),
		Blackouts:    handler.NewBlackoutHandler(blackoutSvc),
		Rooms:        handler.NewRoomHandler(rooms),
		Materials:    handler.NewMaterialHandler(materials),
		Inventory:    handler.NewInventoryHandler(inventory),
		Reports:      handler.NewReportHandler(reservations),
	}, cfg, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
