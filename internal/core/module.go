package core

import (
	"fmt"

	"github.com/craybot/craybot/internal/bot"
	"github.com/craybot/craybot/internal/logger"
	"github.com/sirupsen/logrus"
)

// Module is a self-contained unit of handlers
type Module interface {
	// Name identifies the module in logs and load reports
	Name() string

	// Register adds the module's handlers to r
	Register(r bot.Router) error
}

// Factory builds a Module from the process configuration
type Factory struct {
	Name string
	New  func(cfg *Config) (Module, error)
}

// LoadReport lists the outcome of every module attempted by LoadAll, in order
type LoadReport struct {
	Loaded  []string
	Skipped []string // already registered
	Failed  []ModuleFailure
}

// Err returns a *ModuleLoadError when any module failed, nil otherwise
func (r *LoadReport) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	return &ModuleLoadError{Failures: r.Failed}
}

// Loader registers modules against a router and remembers which ones it has registered
type Loader struct {
	config *Config
	router bot.Router
	loaded map[string]Module
}

// NewLoader creates a Loader that builds modules from config and registers them on router
func NewLoader(config *Config, router bot.Router) *Loader {
	return &Loader{
		config: config,
		router: router,
		loaded: make(map[string]Module),
	}
}

// LoadAll attempts every factory in order. A failure never stops the remaining
// factories from being attempted; it is recorded in the report instead.
func (l *Loader) LoadAll(factories []Factory) *LoadReport {
	report := &LoadReport{}

	logger.WithField("count", len(factories)).Info("loading-modules")

	for _, factory := range factories {
		log := logger.ForModule(factory.Name)

		if _, exists := l.loaded[factory.Name]; exists {
			log.Info("module-already-loaded")
			report.Skipped = append(report.Skipped, factory.Name)
			continue
		}

		module, err := l.load(factory)
		if err != nil {
			log.WithField("error", err).Error("module-load-failed")
			report.Failed = append(report.Failed, ModuleFailure{Module: factory.Name, Err: err})
			continue
		}

		l.loaded[factory.Name] = module
		report.Loaded = append(report.Loaded, factory.Name)
		log.Info("module-loaded")
	}

	logger.WithFields(logrus.Fields{
		"loaded":  len(report.Loaded),
		"skipped": len(report.Skipped),
		"failed":  len(report.Failed),
	}).Info("modules-load-finished")

	return report
}

// load builds and registers one module, turning panics into errors
func (l *Loader) load(factory Factory) (module Module, err error) {
	defer func() {
		if r := recover(); r != nil {
			module = nil
			err = fmt.Errorf("%w: panic: %v", ErrModuleFailed, r)
		}
	}()

	if factory.New == nil {
		return nil, ErrNoEntryPoint
	}

	module, err = factory.New(l.config)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModuleFailed, err)
	}
	if module == nil {
		return nil, ErrNoEntryPoint
	}

	if err := module.Register(l.router); err != nil {
		return nil, fmt.Errorf("%w: register: %w", ErrModuleFailed, err)
	}

	return module, nil
}
