package domain

import (
	"slices"
	"sync"

	"go.trai.ch/zerr"
)

// InputFiles is a file input property.
type InputFiles struct {
	Name          string
	Patterns      []string
	Normalization Normalization
	// Ignore lists glob patterns of entries dropped before hashing.
	Ignore []string
}

// InputValue is a value input property.
type InputValue struct {
	Name  string
	Value ValueSnapshot
}

// OutputFiles is an output property.
// Paths are files or directories relative to the project directory.
type OutputFiles struct {
	Name  string
	Paths []string
}

// Properties holds the declared inputs and outputs of a task.
// It is mutable until Finalize is called; afterwards every mutator fails with
// ErrPropertiesFinalized.
type Properties struct {
	mu        sync.RWMutex
	finalized bool
	names     map[string]struct{}
	inputs    []InputFiles
	values    []InputValue
	outputs   []OutputFiles
}

// NewProperties creates an empty, mutable property set.
func NewProperties() *Properties {
	return &Properties{names: make(map[string]struct{})}
}

// AddInputFiles declares a file input property.
func (p *Properties) AddInputFiles(in InputFiles) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.claim(in.Name); err != nil {
		return err
	}
	in.Patterns = slices.Clone(in.Patterns)
	in.Ignore = slices.Clone(in.Ignore)
	p.inputs = append(p.inputs, in)
	return nil
}

// AddInputValue declares a value input property.
func (p *Properties) AddInputValue(name string, value ValueSnapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.claim(name); err != nil {
		return err
	}
	value.Bytes = slices.Clone(value.Bytes)
	p.values = append(p.values, InputValue{Name: name, Value: value})
	return nil
}

// AddOutput declares an output property.
func (p *Properties) AddOutput(out OutputFiles) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.claim(out.Name); err != nil {
		return err
	}
	out.Paths = slices.Clone(out.Paths)
	p.outputs = append(p.outputs, out)
	return nil
}

func (p *Properties) claim(name string) error {
	if p.finalized {
		return zerr.With(ErrPropertiesFinalized, "property", name)
	}
	if p.names == nil {
		p.names = make(map[string]struct{})
	}
	if _, ok := p.names[name]; ok {
		return zerr.With(ErrDuplicateProperty, "property", name)
	}
	p.names[name] = struct{}{}
	return nil
}

// Finalize freezes the property values. It is safe to call more than once.
func (p *Properties) Finalize() {
	p.mu.Lock()
	p.finalized = true
	p.mu.Unlock()
}

// Finalized reports whether Finalize has been called.
func (p *Properties) Finalized() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.finalized
}

// InputFiles returns a copy of the file input properties in declaration order.
func (p *Properties) InputFiles() []InputFiles {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]InputFiles, len(p.inputs))
	for i, in := range p.inputs {
		in.Patterns = slices.Clone(in.Patterns)
		in.Ignore = slices.Clone(in.Ignore)
		out[i] = in
	}
	return out
}

// InputValues returns a copy of the value input properties in declaration order.
func (p *Properties) InputValues() []InputValue {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]InputValue, len(p.values))
	for i, v := range p.values {
		v.Value.Bytes = slices.Clone(v.Value.Bytes)
		out[i] = v
	}
	return out
}

// Outputs returns a copy of the output properties in declaration order.
func (p *Properties) Outputs() []OutputFiles {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]OutputFiles, len(p.outputs))
	for i, o := range p.outputs {
		o.Paths = slices.Clone(o.Paths)
		out[i] = o
	}
	return out
}
