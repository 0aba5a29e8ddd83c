// Package health serves the liveness endpoint hosting platforms probe to
// keep the bot process alive. It carries no bot state.
package health

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"telegram-movie-bot/internal/logging"
)

// Router builds the probe routes. GET / always answers with a fixed payload.
func Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	return r
}

// Run serves the liveness endpoint until ctx is cancelled, then shuts the
// listener down gracefully.
func Run(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Log.Info().Int("port", port).Msg("liveness endpoint listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("liveness shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("liveness server: %w", err)
	}
}
