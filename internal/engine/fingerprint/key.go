// Package fingerprint derives input fingerprints and cache keys for tasks.
package fingerprint

import (
	"slices"
	"strings"

	"go.trai.ch/kiln/internal/core/domain"
)

type keyedInput struct {
	name string
	fp   domain.FileFingerprint
}

type keyedValue struct {
	name  string
	value domain.ValueSnapshot
}

// KeyBuilder derives a CacheKey as a hash of hashes.
// Inputs, values, and output names are sorted before hashing, so declaration order
// never affects the key.
type KeyBuilder struct {
	impl    domain.ImplementationHash
	inputs  []keyedInput
	values  []keyedValue
	outputs []string
}

// NewKeyBuilder starts a key for the given implementation.
func NewKeyBuilder(impl domain.ImplementationHash) *KeyBuilder {
	return &KeyBuilder{impl: impl}
}

// InputFiles adds a file input property.
func (b *KeyBuilder) InputFiles(name string, fp domain.FileFingerprint) *KeyBuilder {
	b.inputs = append(b.inputs, keyedInput{name: name, fp: fp})
	return b
}

// InputValue adds a value input property.
func (b *KeyBuilder) InputValue(name string, value domain.ValueSnapshot) *KeyBuilder {
	b.values = append(b.values, keyedValue{name: name, value: value})
	return b
}

// Outputs adds declared output property names.
func (b *KeyBuilder) Outputs(names ...string) *KeyBuilder {
	b.outputs = append(b.outputs, names...)
	return b
}

// Build returns the CacheKey.
func (b *KeyBuilder) Build() domain.CacheKey {
	inputs := slices.Clone(b.inputs)
	slices.SortFunc(inputs, func(x, y keyedInput) int { return strings.Compare(x.name, y.name) })
	values := slices.Clone(b.values)
	slices.SortFunc(values, func(x, y keyedValue) int { return strings.Compare(x.name, y.name) })
	outputs := slices.Clone(b.outputs)
	slices.Sort(outputs)

	d := domain.NewDigest().Text(string(b.impl))

	d.Text("inputs")
	for _, in := range inputs {
		d.Text(in.name).Text(in.fp.Strategy).Text(in.fp.Hash())
	}

	d.Text("values")
	for _, v := range values {
		d.Text(v.name).Text(v.value.Hash())
	}

	d.Text("outputs")
	for _, name := range outputs {
		d.Text(name)
	}

	return domain.CacheKey(d.Hex())
}
