package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"

	"stockgpt/internal/server"
	"stockgpt/pkg/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	application, cleanup, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	e := echo.New()
	e.HideBanner = true
	handler := server.NewHandler(application.cfg, application.log, application.analyzer, application.comparer)
	handler.Register(e)

	addr := fmt.Sprintf("%s:%d", application.cfg.Server.Host, application.cfg.Server.Port)
	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	application.log.InfoContext(ctx, "http server started", logger.StringField("addr", addr))

	select {
	case err := <-errCh:
		return fmt.Errorf("http server stopped: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		application.log.ErrorContext(shutdownCtx, "http server shutdown failed", logger.ErrorField(err))
		return err
	}
	application.log.InfoContext(shutdownCtx, "http server stopped gracefully")
	return nil
}
