package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/bobmcallan/purelymail-mcp/internal/app"
	"github.com/bobmcallan/purelymail-mcp/internal/config"
	"github.com/bobmcallan/purelymail-mcp/internal/mcp"
	"github.com/bobmcallan/purelymail-mcp/internal/server"
)

func addServeFlags(cmd *cobra.Command, opts *options) {
	cmd.Flags().BoolVar(&opts.http, "http", false, "Serve streamable HTTP on host:port instead of stdio")
	cmd.Flags().BoolVar(&opts.stdio, "stdio", false, "Serve over stdin/stdout (default)")
	cmd.Flags().IntVarP(&opts.port, "port", "p", 0, "Server port (overrides config)")
	cmd.Flags().StringVar(&opts.host, "host", "", "Server host (overrides config)")
	cmd.MarkFlagsMutuallyExclusive("http", "stdio")
}

func newServeCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve MCP tools over stdio or streamable HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}
	addServeFlags(cmd, opts)
	return cmd
}

func runServe(cmd *cobra.Command, opts *options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	if issues := cfg.Validate(); len(issues) > 0 {
		reportIssues(cmd, issues)
		return errors.New("invalid configuration")
	}

	logger := setupLogger(cfg)

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to initialize application")
		logger.Close()
		return err
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.http {
		return serveHTTP(ctx, application)
	}

	logger.Info().Str("server", cfg.Server.Name).Msg("Serving MCP over stdio")
	err = mcp.ServeStdio(ctx, application.MCPServer, os.Stdin, os.Stdout)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("stdio server failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

// serveHTTP runs the HTTP server until ctx is cancelled or the listener fails.
func serveHTTP(ctx context.Context, application *app.App) error {
	logger := application.Logger
	srv := server.New(application)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("server failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

func reportIssues(cmd *cobra.Command, issues []string) {
	w := cmd.ErrOrStderr()
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Configuration error: mandatory fields are missing or invalid:")
	fmt.Fprintln(w, "")
	for _, issue := range issues {
		fmt.Fprintf(w, "  - %s\n", issue)
	}
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "Values can be set via %s, PURELYMAIL_* environment variables, or CLI flags.\n", configFileName)
	fmt.Fprintln(w, "")
}

// validateDocumentConfig is the subset of Validate the offline commands need.
func validateDocumentConfig(cfg *config.Config) error {
	if cfg.Document.Path == "" {
		return errors.New("[document] path must not be empty")
	}
	return nil
}
