package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	v1handlers "github.com/deepgram/assistkit/internal/api/v1/handlers"
	v1mware "github.com/deepgram/assistkit/internal/api/v1/middleware"
	"github.com/deepgram/assistkit/internal/config"
	"github.com/deepgram/assistkit/internal/dashboard"
	"github.com/deepgram/assistkit/internal/services"
	"github.com/deepgram/assistkit/pkg/httpext"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

func main() {
	svc, err := services.InitializeServices()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}

	if config.GetAssistantConfig().SweepOnStart {
		if _, err := svc.Sweep(context.Background()); err != nil {
			log.Error().Err(err).Msg("Failed to sweep leftover resources")
		}
	}

	server := &http.Server{
		Addr:              config.GetServerAddr(),
		Handler:           setupRouter(svc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("ListenAndServe error")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info().Msg("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}
	if err := svc.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Some remote resources were not deleted - see snapshots")
	}
}

func setupRouter(svc *services.Services) *mux.Router {
	r := mux.NewRouter()
	r.Use(v1mware.RequestLogger)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		httpext.JsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")

	dashboard.NewHandler(config.GetDemoModalDelay()).Register(r)
	v1handlers.RegisterV1Routes(r, svc)

	return r
}
