package flatconf

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Function represents a callable registered against evaluators.
type Function func(args ...any) (any, error)

type registeredFunction struct {
	name string
	fn   Function
}

// FunctionRegistry stores custom functions keyed by name. Lookups ignore
// case; Names reports the spelling used at registration.
type FunctionRegistry struct {
	mu        sync.RWMutex
	functions map[string]registeredFunction
}

// NewFunctionRegistry constructs an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{
		functions: make(map[string]registeredFunction),
	}
}

// Register stores fn under name guarding against duplicates.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	if fn == nil {
		return fmt.Errorf("flatconf: function %q is nil", name)
	}
	if name == "" {
		return fmt.Errorf("flatconf: function name must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.functions == nil {
		r.functions = make(map[string]registeredFunction)
	}
	key := strings.ToLower(name)
	if _, exists := r.functions[key]; exists {
		return fmt.Errorf("flatconf: function %q already registered", name)
	}
	r.functions[key] = registeredFunction{name: name, fn: fn}
	return nil
}

// Clone returns a shallow copy of the registry.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := &FunctionRegistry{
		functions: make(map[string]registeredFunction, len(r.functions)),
	}
	for key, entry := range r.functions {
		clone.functions[key] = entry
	}
	return clone
}

// Call executes the function registered for name.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	if r == nil {
		return nil, fmt.Errorf("flatconf: function registry is nil")
	}
	r.mu.RLock()
	entry, ok := r.functions[strings.ToLower(name)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("flatconf: function %q not registered", name)
	}
	return entry.fn(args...)
}

// Has reports whether a function is registered under name.
func (r *FunctionRegistry) Has(name string) bool {
	if r == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.functions[strings.ToLower(name)]
	return ok
}

// Names returns registered function names sorted alphabetically.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.functions))
	for _, entry := range r.functions {
		names = append(names, entry.name)
	}
	sort.Strings(names)
	return names
}

// SettingFunctions returns a registry holding the helpers every expression
// validator can call: keyNamespace(key) and parseSeverity(value).
func SettingFunctions() *FunctionRegistry {
	registry := NewFunctionRegistry()
	_ = registry.Register("keyNamespace", func(args ...any) (any, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("keyNamespace expects 1 argument, got %d", len(args))
		}
		key, ok := args[0].(string)
		if !ok {
			return nil, fmt.Errorf("keyNamespace expects a string key, got %T", args[0])
		}
		return Namespace(key), nil
	})
	_ = registry.Register("parseSeverity", func(args ...any) (any, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("parseSeverity expects 1 argument, got %d", len(args))
		}
		setting, err := ParseRuleSetting(args[0])
		if err != nil {
			return nil, err
		}
		return setting.Severity.String(), nil
	})
	return registry
}

// withDefaults returns a copy of r that also holds every SettingFunctions
// entry not already registered under the same name.
func (r *FunctionRegistry) withDefaults() *FunctionRegistry {
	out := r.Clone()
	if out == nil {
		out = NewFunctionRegistry()
	}
	defaults := SettingFunctions()
	for key, entry := range defaults.functions {
		if _, exists := out.functions[key]; exists {
			continue
		}
		out.functions[key] = entry
	}
	return out
}

// WithFunctionRegistry exposes the functions of registry to expression
// validators.
func WithFunctionRegistry(registry *FunctionRegistry) Option {
	return func(cfg *optionsConfig) {
		if registry == nil {
			return
		}
		cfg.functions = registry.Clone()
	}
}

// WithCustomFunction registers fn under name for expression validators.
func WithCustomFunction(name string, fn Function) Option {
	return func(cfg *optionsConfig) {
		if cfg.functions == nil {
			cfg.functions = NewFunctionRegistry()
		}
		_ = cfg.functions.Register(name, fn)
	}
}
