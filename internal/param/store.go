package param

import (
	"fmt"
	"sort"
	"sync"
)

// Store holds named live parameter vectors for an optimization process.
// It stands in for a numeric framework's variable storage: loops and
// controllers read and write vectors by name through it.
//
// Thread-safety: all methods are safe for concurrent use. Returned slices
// are copies; callers can mutate them freely without affecting the store.
type Store struct {
	mu   sync.RWMutex
	vars map[string][]float64
}

// NewStore creates an empty parameter store
func NewStore() *Store {
	return &Store{
		vars: make(map[string][]float64),
	}
}

// Register adds a named vector with its initial value.
// The vector's length is fixed from this point on.
// Registering a name twice is an error.
func (s *Store) Register(name string, init []float64) error {
	if name == "" {
		return fmt.Errorf("parameter name cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.vars[name]; exists {
		return fmt.Errorf("parameter %q already registered", name)
	}
	s.vars[name] = append([]float64(nil), init...)
	return nil
}

// Read returns copies of the vectors for the given names, in order.
// Returns UnknownParamError if any name was never registered.
func (s *Store) Read(names []string) ([][]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	values := make([][]float64, len(names))
	for i, name := range names {
		v, exists := s.vars[name]
		if !exists {
			return nil, &UnknownParamError{Name: name}
		}
		values[i] = append([]float64(nil), v...)
	}
	return values, nil
}

// Write replaces the vectors for the given names; values[i] replaces names[i].
// Every name and length is validated before anything is mutated, so a failed
// write leaves all vectors untouched.
func (s *Store) Write(names []string, values [][]float64) error {
	if len(names) != len(values) {
		return fmt.Errorf("got %d values for %d names", len(values), len(names))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate everything before mutating
	for i, name := range names {
		current, exists := s.vars[name]
		if !exists {
			return &UnknownParamError{Name: name}
		}
		if len(values[i]) != len(current) {
			return fmt.Errorf("parameter %q has %d elements, got %d",
				name, len(current), len(values[i]))
		}
	}

	for i, name := range names {
		s.vars[name] = append([]float64(nil), values[i]...)
	}
	return nil
}

// Get returns a copy of a single vector and whether it exists
func (s *Store) Get(name string) ([]float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, exists := s.vars[name]
	if !exists {
		return nil, false
	}
	return append([]float64(nil), v...), true
}

// Names returns all registered names in sorted order
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.vars))
	for name := range s.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UnknownParamError is returned for a read or write against a name that
// was never registered. Use errors.Is to check for it.
type UnknownParamError struct {
	Name string
}

func (e *UnknownParamError) Error() string {
	if e.Name != "" {
		return "unknown parameter: " + e.Name
	}
	return "unknown parameter"
}

func (e *UnknownParamError) Is(target error) bool {
	_, ok := target.(*UnknownParamError)
	return ok
}
