// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpin "github.com/AlbionAI/mememint-24-sub000/internal/adapters/in/http"
	"github.com/AlbionAI/mememint-24-sub000/internal/adapters/in/http/middleware"
	"github.com/AlbionAI/mememint-24-sub000/internal/platform/di"
)

const (
	minWriteTimeout = 3 * time.Minute
	shutdownGrace   = 25 * time.Second
)

func main() {
	mirrorLogToFile(os.Getenv("LOG_FILE"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// /healthz は DI の成否に関係なく返す（Cloud Run の起動判定用）
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	cont, err := di.NewContainer(context.Background())
	if err != nil {
		log.Printf("[boot] WARN: di init failed: %v (serving /healthz only)", err)
	} else {
		deps := cont.RouterDeps()
		log.Printf("[boot] auth required on POST routes: %t", deps.Auth != nil)
		mux.Handle("/", httpin.NewRouter(deps))
	}

	port, allowOrigin, writeTimeout := serverSettings(cont)
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      middleware.CORS(allowOrigin)(mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("[boot] listening on :%s (write timeout %s)", port, writeTimeout)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[boot] server error: %v", err)
		}
	case <-ctx.Done():
		log.Printf("[boot] shutdown requested")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[boot] server shutdown: %v", err)
	}
	// 帳簿書き込みを流し切ってからクライアントを閉じる
	if err := cont.Close(shutdownCtx); err != nil {
		log.Printf("[boot] container close: %v", err)
	}
	log.Printf("[boot] stopped")
}

// mirrorLogToFile writes log output to stdout and path when path is set.
func mirrorLogToFile(path string) {
	if path == "" {
		return
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		log.Printf("[boot] WARN: could not open %s: %v", path, err)
		return
	}
	log.SetOutput(io.MultiWriter(os.Stdout, f))
}

// serverSettings falls back to the raw env when the container failed to build.
// The write timeout must cover the fee and mint confirmation waits.
func serverSettings(cont *di.Container) (port, allowOrigin string, writeTimeout time.Duration) {
	port = os.Getenv("PORT")
	allowOrigin = os.Getenv("CORS_ALLOW_ORIGIN")
	writeTimeout = minWriteTimeout

	if cont != nil {
		if cont.Config.Port != "" {
			port = cont.Config.Port
		}
		allowOrigin = cont.Config.CORSAllowOrigin
		if t := 2*cont.Config.ConfirmTimeout + 30*time.Second; t > writeTimeout {
			writeTimeout = t
		}
	}
	if port == "" {
		port = "8080"
	}
	return port, allowOrigin, writeTimeout
}
