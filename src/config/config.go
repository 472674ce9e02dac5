package config

import (
	"fmt"
	"time"

	"github.com/jiaming2012/shioaji-mcp/src/eventmodels"
	"github.com/jiaming2012/shioaji-mcp/src/logger"
	"github.com/jiaming2012/shioaji-mcp/src/utils"
)

type Backend string

const (
	BackendPaper   Backend = "paper"
	BackendGateway Backend = "gateway"
)

func (b Backend) Validate() error {
	switch b {
	case BackendPaper, BackendGateway:
		return nil
	default:
		return fmt.Errorf("invalid backend: %s", b)
	}
}

type Transport string

const (
	TransportStdio Transport = "stdio"
	TransportSSE   Transport = "sse"
)

func (t Transport) Validate() error {
	switch t {
	case TransportStdio, TransportSSE:
		return nil
	default:
		return fmt.Errorf("invalid transport: %s", t)
	}
}

type Config struct {
	Backend       Backend
	Simulation    bool
	APIKey        string
	SecretKey     string
	FetchContract bool
	GatewayURL    string
	Transport     Transport
	HTTPAddr      string
	BaseURL       string
	LogLevel      string
	LogFormat     logger.Format
	QuoteInterval time.Duration
	OtelEnabled   bool
}

// Load reads the configuration from the process environment. Call
// utils.InitEnvironmentVariables first to merge a .env file.
func Load() (Config, error) {
	cfg := Config{
		Backend:    Backend(utils.GetEnvOrDefault("SHIOAJI_BACKEND", string(BackendPaper))),
		APIKey:     utils.GetEnvOrDefault("SHIOAJI_API_KEY", ""),
		SecretKey:  utils.GetEnvOrDefault("SHIOAJI_SECRET_KEY", ""),
		GatewayURL: utils.GetEnvOrDefault("SHIOAJI_GATEWAY_URL", ""),
		Transport:  Transport(utils.GetEnvOrDefault("MCP_TRANSPORT", string(TransportStdio))),
		HTTPAddr:   utils.GetEnvOrDefault("MCP_HTTP_ADDR", ":8080"),
		BaseURL:    utils.GetEnvOrDefault("MCP_BASE_URL", ""),
		LogLevel:   utils.GetEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:  logger.Format(utils.GetEnvOrDefault("LOG_FORMAT", string(logger.FormatText))),
	}

	var err error
	if cfg.Simulation, err = utils.GetEnvBool("SHIOAJI_SIMULATION", true); err != nil {
		return Config{}, fmt.Errorf("config.Load: %w", err)
	}

	if cfg.FetchContract, err = utils.GetEnvBool("SHIOAJI_FETCH_CONTRACT", true); err != nil {
		return Config{}, fmt.Errorf("config.Load: %w", err)
	}

	if cfg.OtelEnabled, err = utils.GetEnvBool("OTEL_ENABLED", false); err != nil {
		return Config{}, fmt.Errorf("config.Load: %w", err)
	}

	interval := utils.GetEnvOrDefault("PAPER_QUOTE_INTERVAL", "1s")
	if cfg.QuoteInterval, err = time.ParseDuration(interval); err != nil {
		return Config{}, fmt.Errorf("config.Load: $PAPER_QUOTE_INTERVAL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config.Load: %w", err)
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if err := c.Backend.Validate(); err != nil {
		return err
	}

	if err := c.Transport.Validate(); err != nil {
		return err
	}

	if err := c.LogFormat.Validate(); err != nil {
		return err
	}

	if c.Backend == BackendGateway && c.GatewayURL == "" {
		return fmt.Errorf("$SHIOAJI_GATEWAY_URL is required for the gateway backend")
	}

	if c.QuoteInterval < 0 {
		return fmt.Errorf("quote interval must not be negative: %s", c.QuoteInterval)
	}

	return nil
}

// Credentials returns the login pair from the environment, if both halves
// are present.
func (c Config) Credentials() (eventmodels.Credentials, bool) {
	creds := eventmodels.Credentials{
		APIKey:        c.APIKey,
		SecretKey:     c.SecretKey,
		FetchContract: c.FetchContract,
	}

	return creds, creds.Validate() == nil
}
