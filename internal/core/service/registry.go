package service

import (
	"fmt"
	"sync"

	"github.com/oluseyia/agentcore-deployer/internal/core/domain"
	"github.com/oluseyia/agentcore-deployer/internal/core/ports"
	"github.com/oluseyia/agentcore-deployer/internal/errors"
)

type ComponentRegistry struct {
	mu        sync.RWMutex
	handlers  map[domain.ResourceKind]ports.ResourceHandler
	reporters map[string]ports.Reporter
}

func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{
		handlers:  make(map[domain.ResourceKind]ports.ResourceHandler),
		reporters: make(map[string]ports.Reporter),
	}
}

func (r *ComponentRegistry) RegisterHandler(handler ports.ResourceHandler) error {
	if handler == nil {
		return errors.New(errors.CodeInternal, "attempted to register nil resource handler")
	}
	kind := handler.Kind()
	if kind == "" {
		return errors.New(errors.CodeInternal, "resource handler kind cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[kind]; exists {
		return errors.New(errors.CodeInternal, fmt.Sprintf("resource handler for kind '%s' already registered", kind))
	}
	r.handlers[kind] = handler
	return nil
}

func (r *ComponentRegistry) GetHandler(kind domain.ResourceKind) (ports.ResourceHandler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handler, exists := r.handlers[kind]
	if !exists {
		return nil, errors.New(errors.CodeNotImplemented, fmt.Sprintf("no resource handler registered for kind '%s'", kind))
	}
	return handler, nil
}

func (r *ComponentRegistry) RegisterReporter(name string, reporter ports.Reporter) error {
	if reporter == nil {
		return errors.New(errors.CodeInternal, "attempted to register nil reporter")
	}
	if name == "" {
		return errors.New(errors.CodeInternal, "reporter name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.reporters[name]; exists {
		return errors.New(errors.CodeInternal, fmt.Sprintf("reporter '%s' already registered", name))
	}
	r.reporters[name] = reporter
	return nil
}

func (r *ComponentRegistry) GetReporter(name string) (ports.Reporter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reporter, exists := r.reporters[name]
	if !exists {
		return nil, errors.New(errors.CodeValidationError, fmt.Sprintf("reporter '%s' not found", name))
	}
	return reporter, nil
}
