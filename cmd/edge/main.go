// Command edge runs the route gate in front of an upstream web application.
// It needs only the session secret: decisions are made without storage.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-marketplace-auth/internal/config"
	jwtinfra "github.com/go-marketplace-auth/internal/infrastructure/jwt"
	"github.com/go-marketplace-auth/internal/logging"
	"github.com/go-marketplace-auth/internal/transport/http/gate"
	appmiddleware "github.com/go-marketplace-auth/internal/transport/http/middleware"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		config.Exitf("load .env: %v", err)
	}
	cfg, err := config.LoadEdge()
	if err != nil {
		config.Exitf("config: %v", err)
	}
	slog.SetDefault(logging.New(cfg.LogLevel, !cfg.IsProduction()))

	codec, err := jwtinfra.NewCodec([]byte(cfg.SessionSecret))
	if err != nil {
		config.Exitf("session codec: %v", err)
	}
	policy, err := gate.LoadPolicy(cfg.RoutePolicyFile)
	if err != nil {
		config.Exitf("%v", err)
	}
	g, err := gate.New(policy)
	if err != nil {
		config.Exitf("route gate: %v", err)
	}
	upstream, err := url.Parse(cfg.UpstreamURL)
	if err != nil {
		config.Exitf("upstream url: %v", err)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      newHandler(codec, g, upstream),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("edge gate starting", "port", cfg.Port, "upstream", upstream.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "err", err)
	}
	slog.Info("edge gate stopped")
}

func newHandler(codec appmiddleware.SessionDecoder, g *gate.Gate, upstream *url.URL) http.Handler {
	proxy := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(upstream)
			pr.SetXForwarded()
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			slog.Error("upstream request failed", "path", r.URL.Path, "err", err)
			w.WriteHeader(http.StatusBadGateway)
		},
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(appmiddleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(gate.Middleware(codec, g))
	r.Handle("/*", proxy)
	return r
}
