package main

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/perchlabs/perch/internal/server"
)

func main() {
	// .env is optional; deployments normally use the environment directly.
	_ = godotenv.Load()

	cfg := server.NewConfigFromEnv()
	log := server.NewLogger(cfg.Env)

	srv := server.New(cfg, log)
	httpServer := server.CreateServer(cfg.Addr, srv.SetupRoutes())

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.StartServer(httpServer, log)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	case sig := <-stop:
		log.Info("signal received, shutting down", "signal", sig.String())
		if err := server.ShutdownServer(httpServer, log, 10*time.Second); err != nil {
			os.Exit(1)
		}
	}
}
