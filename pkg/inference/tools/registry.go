package tools

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/huandu/go-clone"
	"github.com/pkg/errors"
)

// ToolRegistry holds one tool instance per name.
type ToolRegistry interface {
	RegisterTool(desc ToolDescriptor, tool Tool) (*Handle, error)
	// Resolve is total: an unknown name is reported with ok=false.
	Resolve(name string) (*Handle, bool)
	// DescribeAll returns descriptors in registration order.
	DescribeAll() []ToolDescriptor
}

// Handle is the uniform reference to a registered tool.
type Handle struct {
	desc ToolDescriptor
	tool Tool
}

func (h *Handle) Descriptor() ToolDescriptor {
	return clone.Clone(h.desc).(ToolDescriptor)
}

func (h *Handle) Name() string {
	return h.desc.Name
}

func (h *Handle) Execute(ctx context.Context, args json.RawMessage) (interface{}, error) {
	return h.tool.Execute(ctx, args)
}

// InMemoryToolRegistry is a thread-safe in-memory implementation of ToolRegistry.
// Registration is expected to finish before sessions start; lookups and
// executions may then happen from any number of goroutines.
type InMemoryToolRegistry struct {
	mu      sync.RWMutex
	handles map[string]*Handle
	order   []string
}

var _ ToolRegistry = (*InMemoryToolRegistry)(nil)

func NewInMemoryToolRegistry() *InMemoryToolRegistry {
	return &InMemoryToolRegistry{
		handles: make(map[string]*Handle),
	}
}

func (r *InMemoryToolRegistry) RegisterTool(desc ToolDescriptor, tool Tool) (*Handle, error) {
	if desc.Name == "" {
		return nil, errors.New("tool name cannot be empty")
	}
	if tool == nil {
		return nil, errors.Errorf("tool %s has no implementation", desc.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handles[desc.Name]; exists {
		return nil, errors.Errorf("tool %s is already registered", desc.Name)
	}

	h := &Handle{desc: clone.Clone(desc).(ToolDescriptor), tool: tool}
	r.handles[desc.Name] = h
	r.order = append(r.order, desc.Name)
	return h, nil
}

func (r *InMemoryToolRegistry) Resolve(name string) (*Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.handles[name]
	return h, ok
}

func (r *InMemoryToolRegistry) DescribeAll() []ToolDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ret := make([]ToolDescriptor, 0, len(r.order))
	for _, name := range r.order {
		ret = append(ret, r.handles[name].Descriptor())
	}
	return ret
}

// HasTool checks if a tool exists in the registry
func (r *InMemoryToolRegistry) HasTool(name string) bool {
	_, ok := r.Resolve(name)
	return ok
}

// Count returns the number of tools in the registry
func (r *InMemoryToolRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.order)
}
