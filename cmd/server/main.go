package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	censushandler "decide/internal/census/handler"
	"decide/internal/census/ldapimport"
	censusmetrics "decide/internal/census/metrics"
	censusservice "decide/internal/census/service"
	jwttoken "decide/internal/jwt_token"
	"decide/internal/platform/config"
	"decide/internal/platform/httpserver"
	"decide/internal/platform/logger"
	"decide/internal/platform/metrics"
	"decide/internal/platform/middleware"
	"decide/pkg/platform/httputil"
)

const shutdownTimeout = 10 * time.Second

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("census service stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	infra, err := buildInfra(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer infra.Close()

	serviceOpts := []censusservice.Option{
		censusservice.WithLogger(log),
		censusservice.WithMetrics(censusmetrics.New(reg)),
		censusservice.WithAuditPublisher(infra.audit),
	}
	if infra.cache != nil {
		serviceOpts = append(serviceOpts, censusservice.WithCache(infra.cache))
	}
	census := censusservice.New(infra.census, infra.identities, infra.votings, serviceOpts...)

	handlerOpts := []censushandler.Option{censushandler.WithMaxImportBytes(cfg.MaxImportBytes)}
	if cfg.LDAP.URL != "" {
		handlerOpts = append(handlerOpts, censushandler.WithDirectory(ldapimport.New(cfg.LDAP)))
	}
	jwtValidator := jwttoken.NewJWTServiceAdapter(jwttoken.NewJWTService(cfg.JWT.SigningKey, cfg.JWT.Issuer))

	router := chi.NewRouter()
	router.Use(middleware.Recovery(log))
	router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	router.Get("/healthz", healthHandler(infra.health))
	censushandler.New(census, log, metrics.New(reg), jwtValidator, handlerOpts...).Register(router)

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting census service", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down census service")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

type healthCheck func(ctx context.Context) error

func healthHandler(checks map[string]healthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := map[string]string{}
		healthy := true
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status[name] = err.Error()
				healthy = false
				continue
			}
			status[name] = "ok"
		}
		code := http.StatusOK
		if !healthy {
			code = http.StatusServiceUnavailable
		}
		httputil.WriteJSON(w, code, status)
	}
}
