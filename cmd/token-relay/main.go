package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/pribylovaa/token-relay/internal/config"
	relayhttp "github.com/pribylovaa/token-relay/internal/http"
	"github.com/pribylovaa/token-relay/internal/identity/clerk"
	"github.com/pribylovaa/token-relay/internal/metrics"
	"github.com/pribylovaa/token-relay/internal/service"
	"github.com/pribylovaa/token-relay/internal/storage/firebase"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("config_load_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)
	log.Info("starting token-relay", "env", cfg.Env)

	if err := run(cfg, log); err != nil {
		log.Error("service_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}

	log.Info("service_stopped")
}

func run(cfg *config.Config, log *slog.Logger) error {
	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()

	backend, err := firebase.New(rootCtx, cfg.Firebase)
	if err != nil {
		return err
	}

	defer func() {
		if cerr := backend.Close(); cerr != nil {
			log.Warn("firestore_close_failed", slog.String("err", cerr.Error()))
		}
	}()

	log.Info("firebase_initialized", slog.String("project_id", cfg.Firebase.ProjectID))

	verifier, err := clerk.NewVerifier(rootCtx, clerk.Config{
		SecretKey:         cfg.Clerk.SecretKey,
		JWKSURL:           cfg.Clerk.JWKSURL,
		Issuer:            cfg.Clerk.Issuer,
		AuthorizedParties: cfg.Clerk.AuthorizedParties,
		ClockSkew:         cfg.Clerk.ClockSkew,
	}, clerk.WithHTTPClient(&http.Client{Timeout: cfg.Timeouts.Upstream}))
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	mc := metrics.New(reg)

	opts := []service.Option{service.WithRecorder(mc)}

	whVerifier, err := clerk.NewWebhookVerifier(cfg.Clerk.WebhookSecret)
	if err != nil {
		return err
	}

	if whVerifier != nil {
		opts = append(opts, service.WithSignatureVerifier(whVerifier))
		log.Info("webhook_signature_check_enabled")
	} else {
		log.Warn("webhook_signature_check_disabled")
	}

	svc := service.New(verifier, backend.Auth, backend.Auth, backend.Profiles, cfg, opts...)

	var ready atomic.Bool // false — not ready; true — ready

	apiHandler := relayhttp.NewRouter(svc, relayhttp.Options{
		Logger:      log,
		Timeout:     cfg.Timeouts.Request,
		CORSOrigins: cfg.CORS.AllowedOrigins,
		Metrics:     mc,
		Ready:       &ready,
	})

	servers := []*namedServer{{
		name: "http",
		srv: &http.Server{
			Addr:              cfg.HTTP.Addr(),
			Handler:           apiHandler,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}}

	if !cfg.Metrics.Disabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

		servers = append(servers, &namedServer{
			name: "metrics",
			srv: &http.Server{
				Addr:              cfg.Metrics.Addr(),
				Handler:           mux,
				ReadHeaderTimeout: 5 * time.Second,
			},
		})
	}

	for _, s := range servers {
		ln, err := net.Listen("tcp", s.srv.Addr)
		if err != nil {
			log.Error("listen_failed", slog.String("server", s.name), slog.String("addr", s.srv.Addr))
			for _, opened := range servers {
				if opened.ln != nil {
					_ = opened.ln.Close()
				}
			}
			return err
		}
		s.ln = ln
		log.Info("listen_start", slog.String("server", s.name), slog.String("addr", s.srv.Addr))
	}

	g, gctx := errgroup.WithContext(rootCtx)

	for _, s := range servers {
		g.Go(func() error {
			if err := s.srv.Serve(s.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("serve_failed", slog.String("server", s.name), slog.String("err", err.Error()))
				return err
			}
			return nil
		})
	}

	ready.Store(true)
	log.Info("relay_ready")

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown_requested")

		ready.Store(false)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeouts.Shutdown)
		defer cancel()

		for _, s := range servers {
			if err := s.srv.Shutdown(shutdownCtx); err != nil {
				log.Warn("shutdown_incomplete", slog.String("server", s.name), slog.String("err", err.Error()))
			} else {
				log.Info("server_stopped", slog.String("server", s.name))
			}
		}

		return nil
	})

	return g.Wait()
}

type namedServer struct {
	name string
	srv  *http.Server
	ln   net.Listener
}

func setupLogger(env string) *slog.Logger {
	switch env {
	case envLocal:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
