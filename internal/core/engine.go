package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/craybot/craybot/internal/bot"
	"github.com/craybot/craybot/internal/logger"
)

// ErrNotLoaded is returned by Run when modules were never loaded successfully
var ErrNotLoaded = errors.New("modules are not loaded")

// Transport is the gateway connection modules are registered on
type Transport interface {
	bot.Router
	Start() error
	Stop() error
}

// Engine loads modules onto a transport and runs it
type Engine struct {
	config    *Config
	transport Transport
	loader    *Loader
	ready     bool
}

// NewEngine creates a new Engine instance
func NewEngine(config *Config, transport Transport) *Engine {
	return &Engine{
		config:    config,
		transport: transport,
		loader:    NewLoader(config, transport),
	}
}

// Load registers every module built by factories. Any failure leaves the
// engine unable to Run.
func (e *Engine) Load(factories []Factory) (*LoadReport, error) {
	report := e.loader.LoadAll(factories)
	if err := report.Err(); err != nil {
		e.ready = false
		return report, err
	}
	e.ready = true
	return report, nil
}

// Run starts the transport and blocks until ctx is cancelled
func (e *Engine) Run(ctx context.Context) error {
	if !e.ready {
		return ErrNotLoaded
	}

	if err := e.transport.Start(); err != nil {
		return fmt.Errorf("failed to start transport: %w", err)
	}
	logger.GetLogger().Info("craybot-running")

	<-ctx.Done()

	logger.GetLogger().Info("craybot-shutting-down")
	if err := e.transport.Stop(); err != nil {
		return fmt.Errorf("failed to stop transport: %w", err)
	}
	return nil
}
