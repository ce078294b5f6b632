// internal/api/server.go
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Serve runs the API on listen until ctx is done.
func Serve(ctx context.Context, listen string, h *Handler, log zerolog.Logger) error {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	h.RegisterRoutes(e)

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("listen", listen).Msg("api listening")
		serverErr <- e.Start(listen)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	case err := <-serverErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
