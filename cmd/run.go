package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"wedding/config"

	"github.com/gin-gonic/gin"
)

// runWithContext serves until ctx is done, then waits for running requests
func runWithContext(ctx context.Context, router *gin.Engine) error {
	server := &http.Server{
		Addr:    config.BIND_ADDRESS,
		Handler: router,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return ctx.Err()
}
