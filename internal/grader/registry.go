package grader

import (
	"fmt"
	"sort"
	"sync"
)

// Expectations describe what a correct answer looks like for a scenario.
type Expectations struct {
	// MinRows is enforced after the pattern check passes.
	MinRows int `yaml:"min_rows" json:"min_rows"`

	// Check names a registered check. Empty means the scenario ID is
	// looked up instead.
	Check string `yaml:"check,omitempty" json:"check,omitempty"`

	Threshold    *Threshold `yaml:"threshold,omitempty" json:"threshold,omitempty"`
	Indicator    *Indicator `yaml:"indicator,omitempty" json:"indicator,omitempty"`
	Match        string     `yaml:"match,omitempty" json:"match,omitempty"`
	MatchMessage string     `yaml:"match_message,omitempty" json:"match_message,omitempty"`
}

// HasPattern reports whether exp defines any pattern part.
func (exp Expectations) HasPattern() bool {
	return exp.Threshold != nil || exp.Indicator != nil || exp.Match != ""
}

// Factory builds a check for a scenario's expectations.
type Factory func(exp Expectations) (Check, error)

// Registry maps check names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns a registry holding the built-in checks.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.Register("password-spray", func(Expectations) (Check, error) {
		return NewPasswordSprayCheck(), nil
	})
	r.Register("non-empty", func(Expectations) (Check, error) {
		return NonEmptyCheck{}, nil
	})
	return r
}

// Register adds or replaces the factory for name.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// Names returns the registered check names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve picks the check for a scenario: the check named in exp, else
// one registered under the scenario ID, else a pattern check when exp
// defines one, else NonEmptyCheck.
func (r *Registry) Resolve(scenarioID string, exp Expectations) (Check, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if exp.Check != "" {
		f, ok := r.factories[exp.Check]
		if !ok {
			return nil, fmt.Errorf("unknown check %q", exp.Check)
		}
		return f(exp)
	}
	if f, ok := r.factories[scenarioID]; ok {
		return f(exp)
	}
	if exp.HasPattern() {
		pc, err := NewPatternCheck(scenarioID, exp)
		if err != nil {
			return nil, err
		}
		return pc, nil
	}
	return NonEmptyCheck{}, nil
}
