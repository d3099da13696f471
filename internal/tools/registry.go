// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tools exposes the search adapters and download pipelines as
// named operations that take JSON parameters and return a result envelope.
// A plugin host registers each Tool under its name; nothing here returns a
// Go error to the caller.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/pdiddy/paperfetch/internal/result"
)

// Tool is one callable operation.
type Tool struct {
	Name        string
	Label       string
	Description string
	Execute     func(ctx context.Context, params json.RawMessage) result.Envelope
}

// Registry holds tools by name.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: map[string]Tool{}}
}

// Register adds t. Names must be unique and non-empty.
func (r *Registry) Register(t Tool) error {
	if t.Name == "" || t.Execute == nil {
		return fmt.Errorf("tool %q: name and execute function are required", t.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tools[t.Name]; ok {
		return fmt.Errorf("tool %q already registered", t.Name)
	}
	r.tools[t.Name] = t
	return nil
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Names returns the registered tool names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute runs the named tool. An unknown name is reported as
// invalid_params.
func (r *Registry) Execute(ctx context.Context, name string, params json.RawMessage) result.Envelope {
	t, ok := r.Get(name)
	if !ok {
		return result.Errf(result.KindInvalidParams, "unknown tool %q", name)
	}
	return t.Execute(ctx, params)
}
