package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/langowen/corra/deploy/config"
	"github.com/langowen/corra/internal/correlation_service/app"
)

func main() {
	cfg := config.NewConfig()

	ctx, cancel := context.WithCancel(context.Background())

	serverDone := app.NewApp(cfg).Start(ctx)

	baseURL := "http://" + cfg.HTTPServer.Address + "/"
	slog.Info("Server is running")
	slog.Info("To begin please open browser to " + baseURL)
	slog.Info("Or send POST request with startdate and enddate to " + baseURL + "api/values")
	slog.Info(`Example: {"startdate": "2020-04-09", "enddate": "2020-05-12"}`)

	done := make(chan os.Signal, 1)

	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-done
	slog.Info("Gracefully shutting down")

	cancel()
	slog.Info("stopping server")

	<-serverDone
	slog.Info("server stopped")
}
