// Command shieldcore-demo runs an engine built from a YAML config file
// behind a small HTTP front end, exercising the whole wiring path:
// config.Build, the block cache, a remote Client, and the live
// observability feed. It is a harness for exploring shieldcore's
// behavior, not a reference adapter.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zamorofthat/shieldcore/decision"
	"github.com/zamorofthat/shieldcore/engine"
	"github.com/zamorofthat/shieldcore/feed"
	"github.com/zamorofthat/shieldcore/headers"
	"github.com/zamorofthat/shieldcore/internal/config"
	"github.com/zamorofthat/shieldcore/types"
)

func main() {
	configPath := flag.String("config", "configs/shieldcore.yaml", "path to config file")
	listen := flag.String("listen", ":8080", "address to listen on")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	hub := feed.NewHub(32)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// OnDecision is purely observational: the feed hub never influences
	// the Decision engine.Protect already committed to returning.
	eng, err := config.Build(ctx, cfg, config.WithOnDecision(hub.Broadcast))
	if err != nil {
		slog.Error("failed to build engine", "error", err)
		os.Exit(1)
	}

	mux := http.NewServeMux()
	mux.Handle("/protect", protectHandler(eng))
	mux.Handle("/feed", hub)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{Addr: *listen, Handler: mux}

	go func() {
		slog.Info("shieldcore-demo listening", "addr", *listen)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
}

// protectHandler adapts an inbound HTTP request into a types.Context
// and types.RequestDetails, runs it through the engine, and reports
// the verdict as a response header, demonstrating shieldcore's
// integration point without implementing a general adapter.
func protectHandler(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		details := &types.RequestDetails{
			IP:       clientIP(r),
			Method:   r.Method,
			Protocol: r.Proto,
			Host:     r.Host,
			Path:     r.URL.Path,
			Headers:  headers.New(flattenHeader(r.Header)),
			Cookies:  r.Header.Get("Cookie"),
			Query:    r.URL.RawQuery,
			Email:    r.URL.Query().Get("email"),
		}

		adapterCtx := types.Context{
			GetBody: func(ctx context.Context) (string, bool, error) {
				if r.Body == nil {
					return "", false, nil
				}
				buf := make([]byte, r.ContentLength)
				if r.ContentLength <= 0 {
					return "", false, nil
				}
				n, err := r.Body.Read(buf)
				if err != nil && n == 0 {
					return "", false, nil
				}
				return string(buf[:n]), true, nil
			},
		}

		d := eng.Protect(r.Context(), adapterCtx, details)

		w.Header().Set("X-Shieldcore-Conclusion", string(d.Conclusion))
		if d.Conclusion == decision.Deny {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	return r.RemoteAddr
}

func flattenHeader(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k := range h {
		out[k] = h.Get(k)
	}
	return out
}
