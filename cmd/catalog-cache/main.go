package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

func main() {
	// Connecting the data store must not hang forever
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	root, err := NewCompositionRoot(initCtx)
	initCancel()
	if err != nil {
		fmt.Printf("Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	// Ensure cleanup on exit
	defer func() {
		if err := root.Cleanup(); err != nil {
			root.Logger.Error("Failed to cleanup resources", zap.Error(err))
		}
	}()

	root.StartBackground()

	go func() {
		var err error
		if socketPath := root.Config.Server.SocketPath; socketPath != "" {
			err = root.HTTPServer.StartUnixSocket(socketPath)
		} else {
			err = root.HTTPServer.Start(root.ListenAddr())
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			root.Logger.Error("Catalog server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	root.Logger.Info("Shutting down server...")

	// Create a deadline for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), root.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := root.HTTPServer.Stop(ctx); err != nil {
		root.Logger.Error("HTTP server forced to shutdown", zap.Error(err))
	}
	root.StopBackground()

	root.Logger.Info("Server exited")
}
