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

	"places-api/api"
	"places-api/config"
	"places-api/geocode"
	"places-api/storage"

	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to create logger:", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mongodb := &storage.MongoStore{}
	if err := mongodb.Connect(ctx, cfg.MongoURI, cfg.DatabaseName); err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer mongodb.Close(context.Background())

	if err := mongodb.EnsureIndexes(ctx); err != nil {
		log.Fatal("Failed to create indexes:", err)
	}

	images := &storage.LocalImageStorage{Directory: cfg.UploadDir}
	geocoder := geocode.NewClient(cfg.LocationAPIKey)

	placeHandlers := &api.PlaceHandlers{
		Db:        mongodb,
		Users:     mongodb,
		Images:    images,
		Geocoder:  geocoder,
		SecretKey: cfg.JWTSecret,
		Log:       logger,
	}
	userHandlers := &api.UserHandlers{
		Db:        mongodb,
		Images:    images,
		SecretKey: cfg.JWTSecret,
		Log:       logger,
	}

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: api.NewRouter(placeHandlers, userHandlers, cfg.UploadDir, logger),
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", zap.Error(err))
		}
	}()

	log.Println("Starting server on :" + cfg.Port)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
