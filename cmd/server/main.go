// Package main Topicfind Backend API
//
//	@title			Topicfind Backend API
//	@version		1.0.0
//	@description	Classifies free-form queries, fetches arXiv/Reddit content, and clusters it into ranked topics.
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8080
//	@BasePath	/
//	@schemes	http https
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"topicfind-backend/internal/mcp"
)

//go:generate wire

func main() {
	ctx := context.Background()

	app, cleanup, err := InitializeApplication(ctx)
	if err != nil {
		slog.Error("failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer cleanup()

	logger := app.Logger
	config := app.Config

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	if addr == ":0" {
		addr = ":8080"
	}

	server := &http.Server{
		Addr:           addr,
		Handler:        app.Router,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	mcpServer := mcp.NewSimpleMCPServer(app.DiscoveryService, logger)
	go func() {
		logger.Info("starting MCP server on stdio")
		if err := mcpServer.ServeStdio(); err != nil {
			logger.Error("mcp server failed", slog.String("error", err.Error()))
		}
	}()

	go func() {
		logger.Info("starting topicfind backend server",
			slog.String("addr", server.Addr))

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	logger.Info("topicfind backend startup complete",
		slog.String("http_addr", server.Addr),
		slog.Bool("database_connected", app.Database != nil),
		slog.Bool("messaging_connected", app.Messaging != nil && app.Messaging.IsConnected()))

	logger.Info("available endpoints",
		slog.String("health", "/health, /health/live, /health/info"),
		slog.String("discovery", "/api/v1/classify, /api/v1/query/build/{source}, /api/v1/articles, /api/v1/topics/discover"),
		slog.String("embeddings", "/api/v1/embeddings"),
		slog.String("metrics", "/metrics"))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down topicfind backend")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server forced to shutdown", slog.String("error", err.Error()))
	} else {
		logger.Info("http server shutdown gracefully")
	}

	logger.Info("topicfind backend shutdown complete")
}
