package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/bazaar/internal/config"
	"github.com/Skotchmaster/bazaar/internal/email"
	"github.com/Skotchmaster/bazaar/internal/es"
	"github.com/Skotchmaster/bazaar/internal/events"
	"github.com/Skotchmaster/bazaar/internal/handlers"
	"github.com/Skotchmaster/bazaar/internal/logging"
	loggingmw "github.com/Skotchmaster/bazaar/internal/middleware/logging"
	"github.com/Skotchmaster/bazaar/internal/repo"
	httpserver "github.com/Skotchmaster/bazaar/internal/transport/http"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}
	config.MustNonEmpty(cfg.JWT_SECRET, "JWT_SECRET")
	config.MustNonEmpty(cfg.REFRESH_SECRET, "REFRESH_SECRET")

	logger := logging.New(cfg.LOG_LEVEL)

	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	jwtSecret := []byte(cfg.JWT_SECRET)
	refreshSecret := []byte(cfg.REFRESH_SECRET)

	producer := events.Disabled()
	if cfg.KAFKA_ADDRESS != "" {
		producer = events.NewProducer([]string{cfg.KAFKA_ADDRESS})
	}

	var mail email.Sender = &email.LogSender{Log: logger}
	if cfg.SMTP_HOST != "" {
		mail = email.NewSMTP(email.Config{
			Host:     cfg.SMTP_HOST,
			Port:     cfg.SMTP_PORT,
			Username: cfg.SMTP_USER,
			Password: cfg.SMTP_PASSWORD,
			From:     cfg.SMTP_FROM,
		})
	}

	store := repo.New(db)

	deps := httpserver.Deps{
		DB:        db,
		JWTSecret: jwtSecret,
		AuthHandler: &handlers.AuthHandler{
			Repo:          store,
			JWTSecret:     jwtSecret,
			RefreshSecret: refreshSecret,
			Producer:      producer,
			Mail:          mail,
			FrontendURL:   cfg.FRONTEND_URL,
		},
		SellerHandler:   &handlers.SellerHandler{Repo: store, Producer: producer, PageSize: cfg.PAGE_SIZE},
		ProductHandler:  &handlers.ProductHandler{Repo: store, Producer: producer, PageSize: cfg.PAGE_SIZE},
		CategoryHandler: &handlers.CategoryHandler{Repo: store, Producer: producer, PageSize: cfg.PAGE_SIZE},
		BasketHandler:   &handlers.BasketHandler{Repo: store, Producer: producer},
	}

	if cfg.ES_URL != "" {
		esClient, err := es.NewClient(cfg)
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
		deps.SearchHandler = &handlers.SearchHandler{ES: esClient, Index: "products"}
	}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), loggingmw.RequestLogger(logger))

	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         cfg.HTTP_ADDR,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	} else {
		log.Printf("db() error: %v", err)
	}

	if err := producer.Close(); err != nil {
		log.Printf("producer close error: %v", err)
	}

	log.Println("shutdown complete")
}
