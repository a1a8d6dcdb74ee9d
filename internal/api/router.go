package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"szz/internal/logging"
	"szz/internal/middleware"

	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// NewRouter mounts h behind the standard middleware stack.
func NewRouter(h *LinkHandler, logger *logging.Logger) http.Handler {
	mux := http.NewServeMux()
	h.Register(mux)

	return middleware.Chain(
		mux,
		middleware.Recover(logger),
		middleware.Logger(logger),
		middleware.RequestID,
	)
}

// Serve listens on addr until ctx is done and then shuts down, letting
// in-flight requests finish.
func Serve(ctx context.Context, addr string, handler http.Handler, logger *logging.Logger) error {
	srv := &http.Server{Addr: addr, Handler: handler}

	errc := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("address", addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	logger.Info("shutting down server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
