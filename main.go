// Package main library booking API.
//
// @title           Library Booking API
// @version         1.0
// @description     library service (catalog, bookings, fines, users).
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description  Use:  Bearer <JWT>
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/VetalSh/library/app/echoServer"
	authctrl "github.com/VetalSh/library/app/echoServer/controller/auth"
	bookctrl "github.com/VetalSh/library/app/echoServer/controller/book"
	bookingctrl "github.com/VetalSh/library/app/echoServer/controller/booking"
	userctrl "github.com/VetalSh/library/app/echoServer/controller/user"
	"github.com/VetalSh/library/app/echoServer/validation"
	"github.com/VetalSh/library/config"
	bookrepo "github.com/VetalSh/library/repository/book"
	bookingrepo "github.com/VetalSh/library/repository/booking"
	sessionrepo "github.com/VetalSh/library/repository/session"
	userrepo "github.com/VetalSh/library/repository/user"
	authsvc "github.com/VetalSh/library/service/auth"
	booksvc "github.com/VetalSh/library/service/book"
	bookingsvc "github.com/VetalSh/library/service/booking"
	"github.com/VetalSh/library/service/fine"
	"github.com/VetalSh/library/service/scheduler"
	usersvc "github.com/VetalSh/library/service/user"
	"github.com/VetalSh/library/util/database"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	// logger
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// DB: *sql.DB
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	// session state lives in redis
	rdb := sessionrepo.NewClient(cfg.RedisAddr)
	defer rdb.Close()

	// repos
	br := bookrepo.New(db)
	bkr := bookingrepo.New(db)
	ur := userrepo.New(db)
	sessions := sessionrepo.New(rdb)

	// services
	as := authsvc.New(ur, sessions)
	bs := booksvc.New(br)
	bks := bookingsvc.New(bkr, br, ur, sessions, log)
	us := usersvc.New(ur, bkr)

	// periodic tasks: explicit name -> constructor registry
	sched := scheduler.New(log)
	taskRegistry := map[string]func() (scheduler.Task, time.Duration){
		fine.TaskName: func() (scheduler.Task, time.Duration) {
			return fine.New(ur, bkr, cfg.FinePerDay, log),
				time.Duration(cfg.FineUpdatePeriodMS) * time.Millisecond
		},
	}
	for _, name := range strings.Fields(cfg.Tasks) {
		build, ok := taskRegistry[name]
		if !ok {
			log.Error("unknown task in TASKS, ignoring", "task", name)
			continue
		}
		task, period := build()
		if err := sched.Schedule(task, period); err != nil {
			log.Error("task schedule failed", "task", name, "err", err)
		}
	}

	// controllers
	v := validator.New()
	authC := &authctrl.Controller{Svc: as, V: v, Log: log, Secret: cfg.JWTSecret}
	bookC := &bookctrl.Controller{Svc: bs, V: v, Log: log}
	bookingC := &bookingctrl.Controller{Svc: bks, V: v, Log: log}
	userC := &userctrl.Controller{Svc: us, V: v, Log: log}

	// echo
	e := echo.New()
	e.HideBanner = true
	echoServer.RegisterMiddlewares(e)
	e.Validator = validation.New()

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]any{
			"status":  "ok",
			"message": "Service is healthy and connected",
		})
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	echoServer.Register(e, echoServer.C{
		Auth:    authC,
		Book:    bookC,
		Booking: bookingC,
		User:    userC,

		JWTSecret: cfg.JWTSecret,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}

	go func() {
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			log.Error("server stopped", "err", err)
		}
	}()
	log.Info("server started", "port", port)

	// orderly shutdown: stop ticking tasks first, let an in-flight run finish
	stop, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()
	<-stop.Done()

	sched.CancelAll()

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", "err", err)
	}
}
