package geminisdk

import (
	"sort"
	"sync"

	"github.com/OEvortex/geminicli-sdk/client"
)

// ToolRegistry organizes tool definitions by name and optional category.
// Registering a tool under an existing name replaces it. Safe for
// concurrent use.
type ToolRegistry struct {
	mu         sync.RWMutex
	tools      map[string]client.Tool
	categories map[string]map[string]struct{}
}

// NewToolRegistry creates an empty registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{
		tools:      make(map[string]client.Tool),
		categories: make(map[string]map[string]struct{}),
	}
}

// Register adds a tool, optionally filing it under a category.
func (r *ToolRegistry) Register(tool client.Tool, category string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tools[tool.Name] = tool
	if category != "" {
		if r.categories[category] == nil {
			r.categories[category] = make(map[string]struct{})
		}
		r.categories[category][tool.Name] = struct{}{}
	}
}

// Unregister removes a tool from the registry and all categories.
func (r *ToolRegistry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.tools, name)
	for _, names := range r.categories {
		delete(names, name)
	}
}

// Get returns the tool with the given name.
func (r *ToolRegistry) Get(name string) (client.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tools[name]
	return t, ok
}

// All returns every registered tool, sorted by name.
func (r *ToolRegistry) All() []client.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]client.Tool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ByCategory returns the tools filed under a category, sorted by name.
func (r *ToolRegistry) ByCategory(category string) []client.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := r.categories[category]
	out := make([]client.Tool, 0, len(names))
	for name := range names {
		if t, ok := r.tools[name]; ok {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Categories lists all category names, sorted.
func (r *ToolRegistry) Categories() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.categories))
	for c := range r.categories {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

var defaultRegistry = NewToolRegistry()

// DefaultRegistry returns the process-wide tool registry.
func DefaultRegistry() *ToolRegistry {
	return defaultRegistry
}

// RegisterTool adds a tool to the default registry.
func RegisterTool(tool client.Tool, category string) {
	defaultRegistry.Register(tool, category)
}
