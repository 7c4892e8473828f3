package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/httprate"
	"github.com/ukane-philemon/srms/api"
	"github.com/ukane-philemon/srms/internal/config"
	"github.com/ukane-philemon/srms/internal/db/jsonfile"
	"github.com/ukane-philemon/srms/internal/db/mongodb"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("config.Load error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var store api.RecordDatabase
	switch cfg.Storage.Type {
	case config.StorageMongoDB:
		store, err = mongodb.New(ctx, cfg.Storage.DBName, cfg.Storage.URL)
	default:
		store, err = jsonfile.New(cfg.Storage.Path)
	}
	if err != nil {
		log.Fatalf("failed to open the %s record store: %v", cfg.Storage.Type, err)
	}

	server, err := api.NewServer(store)
	if err != nil {
		log.Fatalf("api.NewServer error: %v", err)
	}

	chiMux := chi.NewMux()
	chiMux.Use(middleware.Logger)
	chiMux.Use(httprate.LimitByIP(cfg.Limits.RequestsPerMinute, time.Minute))
	server.RegisterRoutes(chiMux)

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: chiMux,
	}

	// Ensure graceful shutdown by capturing SIGINT and SIGTERM signals.
	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-shutdownChan
		cancel()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		if err != nil {
			log.Printf("server.Shutdown error: %v", err)
		}

		err = store.Shutdown(shutdownCtx)
		if err != nil {
			log.Fatalf("store.Shutdown error: %v", err)
		}
	}()

	log.Printf("\nSRMS has started successfully, listening on http://%s", cfg.Addr())

	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		log.Printf("SRMS shutdown error: %v", err)
	} else {
		log.Println("SRMS shutdown successfully...")
	}
}
