package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	router "github.com/dkeye/peercall/internal/adapters/http"
	sig "github.com/dkeye/peercall/internal/adapters/signal"
	"github.com/dkeye/peercall/internal/broker"
	"github.com/dkeye/peercall/internal/config"
	"github.com/dkeye/peercall/internal/logging"
	"github.com/dkeye/peercall/internal/metrics"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	closer := logging.Setup(cfg.Log)
	defer closer.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	b := broker.New(broker.SimplePolicy{MaxStrikes: cfg.Broker.MaxStrikes}, metrics.NewBroker(reg))
	limiter := sig.NewInviteRateLimiter(clock.New(), cfg.Broker.InviteLimit, cfg.Broker.InviteWindow)
	ctl := sig.NewSignalWSController(b, limiter, cfg.Broker.ReadLimit, cfg.Broker.PingPeriod)

	r := router.SetupRouter(ctx, &cfg.Broker, ctl, b, reg)
	addr := fmt.Sprintf(":%d", cfg.Broker.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("peercall broker started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
