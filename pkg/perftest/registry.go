package perftest

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/ajitpratap0/modelperf/pkg/model"
	"github.com/ajitpratap0/modelperf/pkg/perferrors"
)

// Registry maps module keys to factories. It is built once per process and
// passed to the harness explicitly.
type Registry struct {
	factories map[string]Factory
	mu        sync.RWMutex
	logger    *zap.Logger
}

// NewRegistry creates an empty registry. A nil logger disables logging.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		factories: make(map[string]Factory),
		logger:    logger.With(zap.String("component", "module_registry")),
	}
}

// Register adds a factory under key. Keys are unique.
func (r *Registry) Register(key string, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if key == "" {
		return perferrors.New(perferrors.ErrorTypeConfig, "module key is empty")
	}
	if _, exists := r.factories[key]; exists {
		return perferrors.New(perferrors.ErrorTypeConfig, fmt.Sprintf("module %s already registered", key))
	}

	r.factories[key] = factory
	r.logger.Debug("module registered", zap.String("key", key))
	return nil
}

// Has checks if a module key is registered
func (r *Registry) Has(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.factories[key]
	return exists
}

// Keys returns every registered key in sorted order.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.factories))
	for key := range r.factories {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Construct builds the module registered under key.
func (r *Registry) Construct(key string, m *model.Model) (module Module, err error) {
	r.mu.RLock()
	factory, exists := r.factories[key]
	r.mu.RUnlock()

	if !exists {
		return nil, perferrors.New(perferrors.ErrorTypeConfig, fmt.Sprintf("module %s not found", key))
	}

	defer func() {
		if rec := recover(); rec != nil {
			module = nil
			err = perferrors.Newf(perferrors.ErrorTypeModule, "panic while constructing module: %v", rec)
		}
	}()

	module, err = factory(m)
	if err != nil {
		return nil, perferrors.Wrap(err, perferrors.ErrorTypeModule, fmt.Sprintf("failed to construct module %s", key))
	}
	if module == nil {
		return nil, perferrors.New(perferrors.ErrorTypeModule, fmt.Sprintf("factory for module %s returned nil", key))
	}
	return module, nil
}

// ConstructedModule is a module that was built successfully.
type ConstructedModule struct {
	Key    string
	Module Module
}

// ModuleSet is the outcome of constructing every registered module.
type ModuleSet struct {
	Modules []ConstructedModule
	// Failed maps keys of modules that could not be built to the reason
	Failed map[string]error
	// BaselineKey and BaselineLayout identify the highest-priority pair
	BaselineKey    string
	BaselineLayout Layout
}

// Instances returns the constructed modules in key order.
func (s *ModuleSet) Instances() []Module {
	out := make([]Module, len(s.Modules))
	for i, cm := range s.Modules {
		out[i] = cm.Module
	}
	return out
}

// HasBaseline reports whether any module layout is eligible as baseline.
func (s *ModuleSet) HasBaseline() bool {
	return s.BaselineKey != ""
}

// ConstructAll builds one instance per registered key, in key order. A
// failing module is logged and left out; it never fails the run.
func (r *Registry) ConstructAll(m *model.Model, logger *zap.Logger) *ModuleSet {
	if logger == nil {
		logger = r.logger
	}

	set := &ModuleSet{Failed: make(map[string]error)}
	for _, key := range r.Keys() {
		module, err := r.Construct(key, m)
		if err != nil {
			logger.Error("failed to construct module",
				zap.String("module", key),
				zap.Error(err))
			set.Failed[key] = err
			continue
		}
		set.Modules = append(set.Modules, ConstructedModule{Key: key, Module: module})
		logger.Debug("module constructed", zap.String("module", key))
	}

	if idx, layout, ok := selectBaseline(set.Instances()); ok {
		set.BaselineKey = set.Modules[idx].Key
		set.BaselineLayout = layout
	}
	return set
}

// SelectBaseline returns the name of the (module, layout) pair with the
// highest comparison priority. Layouts a module does not support are not
// eligible. Ties go to the pair seen last. Returns "" when nothing is eligible.
func SelectBaseline(modules []Module) string {
	idx, layout, ok := selectBaseline(modules)
	if !ok {
		return ""
	}
	return modules[idx].Name(layout)
}

func selectBaseline(modules []Module) (int, Layout, bool) {
	biggest := math.MinInt
	found := false
	var (
		bestIdx    int
		bestLayout Layout
	)
	for i, module := range modules {
		for _, layout := range Layouts {
			if !module.SupportsLayout(layout) {
				continue
			}
			if p := module.ComparisonPriority(layout); p >= biggest {
				biggest = p
				bestIdx = i
				bestLayout = layout
				found = true
			}
		}
	}
	return bestIdx, bestLayout, found
}
