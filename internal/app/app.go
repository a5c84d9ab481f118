package app

import (
	"errors"
	"fmt"
	"strings"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/purelymail-mcp/internal/client"
	"github.com/bobmcallan/purelymail-mcp/internal/common"
	"github.com/bobmcallan/purelymail-mcp/internal/config"
	"github.com/bobmcallan/purelymail-mcp/internal/handlers"
	"github.com/bobmcallan/purelymail-mcp/internal/mcp"
	"github.com/bobmcallan/purelymail-mcp/internal/metrics"
	"github.com/bobmcallan/purelymail-mcp/internal/openapi"
	"github.com/bobmcallan/purelymail-mcp/internal/tools"
)

const (
	// ModeLive calls the REST API.
	ModeLive = "live"
	// ModeReplay answers from the API document.
	ModeReplay = "replay"
)

// App holds all application components and dependencies.
type App struct {
	Config   *config.Config
	Logger   *common.Logger
	Mode     string
	Document *openapi.Document
	Client   client.Client
	Registry *tools.Registry
	Metrics  *metrics.Collector

	MCPServer *mcpserver.MCPServer

	// HTTP handlers
	HealthHandler  *handlers.HealthHandler
	VersionHandler *handlers.VersionHandler
	ToolsHandler   *handlers.ToolsHandler
	MCPHandler     *mcp.Handler
}

// New validates cfg, loads the API document and assembles the tool registry.
// Tool assembly happens once, before any transport accepts requests.
func New(cfg *config.Config, logger *common.Logger) (*App, error) {
	if issues := cfg.Validate(); len(issues) > 0 {
		return nil, errors.New(strings.Join(issues, "; "))
	}

	strategy, err := tools.ParseStrategy(cfg.Tools.Strategy)
	if err != nil {
		return nil, err
	}

	doc, err := openapi.Load(cfg.Document.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load API document: %w", err)
	}

	a := &App{
		Config:   cfg,
		Logger:   logger,
		Document: doc,
		Metrics:  metrics.NewCollector("purelymail_mcp"),
	}

	if cfg.IsMockMode() {
		a.Mode = ModeReplay
		a.Client = client.NewReplayClient(doc, logger)
		logger.Info().Msg("Running in MOCK MODE - using test responses")
	} else {
		a.Mode = ModeLive
		a.Client = client.NewLiveClient(cfg.API, logger)
		logger.Info().Str("base_url", cfg.API.BaseURL).Msg("API connection initialized")
	}

	dispatcher := tools.NewDispatcher(a.Client, logger)
	a.Registry = tools.NewAssembler(dispatcher, logger).Build(doc, strategy)

	var registered int
	a.MCPServer, registered = mcp.NewServer(cfg, a.Registry, a.Metrics, logger)
	a.Metrics.SetToolsRegistered(registered)

	logger.Info().
		Int("tools", registered).
		Str("strategy", string(strategy)).
		Str("mode", a.Mode).
		Msgf("Registered %d tools from swagger spec", registered)

	a.initHandlers()

	return a, nil
}

// initHandlers initializes all HTTP handlers.
func (a *App) initHandlers() {
	a.HealthHandler = handlers.NewHealthHandler(a.Logger, a.Mode, a.Registry.Len())
	a.VersionHandler = handlers.NewVersionHandler(a.Logger)
	a.ToolsHandler = handlers.NewToolsHandler(a.Logger, a.Registry)
	a.MCPHandler = mcp.NewHandler(a.MCPServer, a.Logger)

	a.Logger.Debug().Msg("HTTP handlers initialized")
}

// Close releases the logger's file output. The HTTP and stdio transports
// are owned and shut down by the caller.
func (a *App) Close() error {
	if a.Logger == nil {
		return nil
	}
	return a.Logger.Close()
}
