package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bobmcallan/purelymail-mcp/internal/client"
	"github.com/bobmcallan/purelymail-mcp/internal/common"
	"github.com/bobmcallan/purelymail-mcp/internal/handlers"
	"github.com/bobmcallan/purelymail-mcp/internal/openapi"
	"github.com/bobmcallan/purelymail-mcp/internal/specfetch"
	"github.com/bobmcallan/purelymail-mcp/internal/tools"
)

func newFetchCmd(opts *options) *cobra.Command {
	var sourceURL, output string

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download the published API document and save it as JSON",
		Long: `Download the PurelyMail swagger document, keep the raw download next to the
output file and write the extracted JSON to [document] path. When the download
fails an existing document is kept.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if sourceURL != "" {
				cfg.Document.SourceURL = sourceURL
			}
			if output != "" {
				cfg.Document.Path = output
			}
			if err := validateDocumentConfig(cfg); err != nil {
				return err
			}

			logger := setupLogger(cfg)
			defer logger.Close()

			fetcher := specfetch.NewFetcher(nil, logger)
			result, err := fetcher.Fetch(cmd.Context(), cfg.Document.SourceURL, cfg.Document.Path)
			if err != nil {
				return err
			}
			if result.Fallback {
				fmt.Fprintf(cmd.ErrOrStderr(), "Fetch failed (%v); using existing %s\n", result.Cause, result.DocumentPath)
				return nil
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s (%d bytes), raw download in %s\n", result.DocumentPath, result.Bytes, result.RawPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&sourceURL, "url", "", "Source URL (overrides [document] source_url)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output path (overrides [document] path)")
	return cmd
}

func newEndpointsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "endpoints",
		Short: "Print a markdown listing of the API endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadDocument(opts)
			if err != nil {
				return err
			}
			return openapi.WriteEndpointReport(cmd.OutOrStdout(), doc)
		},
	}
}

func newToolsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "Print the generated tool catalog as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			strategy, err := tools.ParseStrategy(cfg.Tools.Strategy)
			if err != nil {
				return err
			}
			doc, err := openapi.Load(cfg.Document.Path)
			if err != nil {
				return err
			}

			// Listing never executes a tool, so no credentials are needed.
			logger := common.NewSilentLogger()
			dispatcher := tools.NewDispatcher(client.NewReplayClient(doc, logger), logger)
			registry := tools.NewAssembler(dispatcher, logger).Build(doc, strategy)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetEscapeHTML(false)
			enc.SetIndent("", "  ")
			return enc.Encode(handlers.ToolCatalog(registry))
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "purelymail-mcp version %s\n", common.GetFullVersion())
		},
	}
}

func loadDocument(opts *options) (*openapi.Document, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	if err := validateDocumentConfig(cfg); err != nil {
		return nil, err
	}
	return openapi.Load(cfg.Document.Path)
}
