package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoEntryPoint marks a module factory that produced no registrable module
	ErrNoEntryPoint = errors.New("module has no registration entry point")
	// ErrModuleFailed marks a module whose construction or registration failed
	ErrModuleFailed = errors.New("module failed to load")
)

// ConfigError reports a missing or malformed configuration value. It is fatal at startup.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s %s", e.Field, e.Reason)
}

// ModuleFailure is one failed entry of a LoadReport
type ModuleFailure struct {
	Module string
	Err    error
}

// ModuleLoadError aggregates every module that failed during LoadAll
type ModuleLoadError struct {
	Failures []ModuleFailure
}

func (e *ModuleLoadError) Error() string {
	names := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		names = append(names, f.Module)
	}
	return fmt.Sprintf("%d module(s) failed to load: %s", len(e.Failures), strings.Join(names, ", "))
}

// Unwrap exposes the per-module errors to errors.Is and errors.As
func (e *ModuleLoadError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}
