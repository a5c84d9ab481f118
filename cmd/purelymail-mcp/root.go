package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bobmcallan/purelymail-mcp/internal/common"
	"github.com/bobmcallan/purelymail-mcp/internal/config"
)

const configFileName = "purelymail-mcp.toml"

// options holds flags shared by every command.
type options struct {
	configFiles []string
	mock        bool
	strategy    string

	// serve only
	port  int
	host  string
	http  bool
	stdio bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "purelymail-mcp",
		Short: "MCP server exposing the PurelyMail API as tools",
		Long: `purelymail-mcp reads the PurelyMail OpenAPI document and serves one MCP tool
per operation (or one per resource) over stdio or streamable HTTP.

Set PURELYMAIL_API_KEY to call the live API, or MOCK_MODE=true to answer
from the response examples in the document.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	root.PersistentFlags().StringArrayVarP(&opts.configFiles, "config", "c", nil, "Configuration file path (can be specified multiple times)")
	root.PersistentFlags().BoolVar(&opts.mock, "mock", false, "Answer tool calls from document examples instead of the live API")
	root.PersistentFlags().StringVar(&opts.strategy, "strategy", "", "Tool strategy: per_operation or per_resource (overrides config)")
	addServeFlags(root, opts)

	root.AddCommand(
		newServeCmd(opts),
		newFetchCmd(opts),
		newEndpointsCmd(opts),
		newToolsCmd(opts),
		newVersionCmd(),
	)

	return root
}

// loadConfig resolves configuration: defaults, TOML files, env, then flags.
func loadConfig(opts *options) (*config.Config, error) {
	files := opts.configFiles
	if len(files) == 0 {
		for _, path := range configSearchPaths() {
			if _, err := os.Stat(path); err == nil {
				files = append(files, path)
				break
			}
		}
	}

	cfg, err := config.LoadFromFiles(files...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	config.ApplyFlagOverrides(cfg, opts.port, opts.host, opts.mock)
	if opts.strategy != "" {
		cfg.Tools.Strategy = opts.strategy
	}
	return cfg, nil
}

// configSearchPaths returns TOML files to auto-discover (first match wins).
// Binary-relative paths are tried before the working directory.
func configSearchPaths() []string {
	candidates := []string{
		configFileName,
		filepath.Join("config", configFileName),
	}

	exe, err := os.Executable()
	if err != nil {
		return candidates
	}
	binDir := filepath.Dir(exe)

	paths := []string{
		filepath.Join(binDir, configFileName),
		filepath.Join(binDir, "config", configFileName),
	}
	paths = append(paths, candidates...)

	seen := make(map[string]bool, len(paths))
	deduped := make([]string, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		if seen[abs] {
			continue
		}
		seen[abs] = true
		deduped = append(deduped, p)
	}
	return deduped
}

// setupLogger creates an arbor logger based on config.
func setupLogger(cfg *config.Config) *common.Logger {
	return common.NewLoggerFromConfig(common.LoggingConfig{
		Level:      cfg.Logging.Level,
		Outputs:    cfg.Logging.Outputs,
		FilePath:   cfg.Logging.FilePath,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	})
}
