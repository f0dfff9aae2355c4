package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	_ "net/http/pprof" // Registers pprof handlers on http.DefaultServeMux.
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sandruandrei/SGDemo/internal/config"
	"github.com/sandruandrei/SGDemo/internal/server"
)

var (
	addr      = flag.String("addr", "", "http service address (overrides SHOWCASE_ADDR)")
	pprofAddr = flag.String("pprof", "", "pprof http service address (overrides SHOWCASE_PPROF_ADDR)")
	logLevel  = flag.String("log-level", "", "log level: debug, info, warn or error (overrides SHOWCASE_LOG_LEVEL)")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadLobby()
	if err != nil {
		fatal(err)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *pprofAddr != "" {
		cfg.PprofAddr = *pprofAddr
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	logger, _ := config.NewLogger(os.Stdout, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := server.NewHub(logger, server.NewMetrics(prometheus.DefaultRegisterer))
	go hub.Run(ctx)

	if cfg.PprofAddr != "" {
		go func() {
			logger.Info("Starting pprof HTTP server", "address", cfg.PprofAddr)
			if err := http.ListenAndServe(cfg.PprofAddr, nil); err != nil {
				logger.Error("Pprof ListenAndServe error", "error", err)
			}
		}()
	}

	mux := http.NewServeMux()
	mux.Handle("/ws", server.Handler(hub))
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: cfg.Addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		logger.Info("Starting HTTP server", "address", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("ListenAndServe error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down lobby...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", "error", err)
	}
	logger.Info("Lobby stopped.")
}

func fatal(err error) {
	logger, _ := config.NewLogger(os.Stderr, "error")
	logger.Error("Invalid configuration", "error", err)
	os.Exit(1)
}
