package main

import (
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/shioaji-mcp/src/broker"
	"github.com/jiaming2012/shioaji-mcp/src/broker/gateway"
	"github.com/jiaming2012/shioaji-mcp/src/broker/paper"
	"github.com/jiaming2012/shioaji-mcp/src/config"
)

// newBrokerFactory builds the backend lazily on first login and hands the
// same handle to every later login.
func newBrokerFactory(cfg config.Config) func() (broker.IBroker, error) {
	var (
		once   sync.Once
		handle broker.IBroker
		err    error
	)

	return func() (broker.IBroker, error) {
		once.Do(func() {
			handle, err = newBroker(cfg)
		})

		return handle, err
	}
}

func newBroker(cfg config.Config) (broker.IBroker, error) {
	switch cfg.Backend {
	case config.BackendPaper:
		log.Infof("using paper backend, quote interval %s", cfg.QuoteInterval)
		exchange, err := paper.NewExchange(paper.Config{
			APIKey:        cfg.APIKey,
			SecretKey:     cfg.SecretKey,
			QuoteInterval: cfg.QuoteInterval,
		})
		if err != nil {
			return nil, fmt.Errorf("newBroker: %w", err)
		}
		return exchange, nil

	case config.BackendGateway:
		log.Infof("using gateway backend at %s", cfg.GatewayURL)
		client, err := gateway.NewClient(gateway.Config{BaseURL: cfg.GatewayURL})
		if err != nil {
			return nil, fmt.Errorf("newBroker: %w", err)
		}
		return client, nil

	default:
		return nil, fmt.Errorf("newBroker: unknown backend %q", cfg.Backend)
	}
}
