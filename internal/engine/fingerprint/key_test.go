package fingerprint_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/engine/fingerprint"
)

func TestKeyBuilder_DeclarationOrderIsIrrelevant(t *testing.T) {
	impl := domain.NewImplementationHash("shell", []byte("make"))
	a := domain.FileFingerprint{Strategy: "relative/directories/raw-eol", Entries: []domain.FingerprintEntry{{Identity: "a", Hash: "1"}}}
	b := domain.FileFingerprint{Strategy: "relative/directories/raw-eol", Entries: []domain.FingerprintEntry{{Identity: "b", Hash: "2"}}}
	v := domain.ValueSnapshot{Type: "string", Bytes: []byte("x")}

	k1 := fingerprint.NewKeyBuilder(impl).
		InputFiles("a", a).InputFiles("b", b).
		InputValue("v", v).
		Outputs("out", "docs").
		Build()
	k2 := fingerprint.NewKeyBuilder(impl).
		Outputs("docs", "out").
		InputValue("v", v).
		InputFiles("b", b).InputFiles("a", a).
		Build()

	assert.Equal(t, k1, k2)
	assert.Len(t, k1.String(), 64)
}

func TestKeyBuilder_EveryComponentMatters(t *testing.T) {
	impl := domain.NewImplementationHash("shell", []byte("make"))
	fp := domain.FileFingerprint{Strategy: "relative/directories/raw-eol", Entries: []domain.FingerprintEntry{{Identity: "a", Hash: "1"}}}
	base := func() *fingerprint.KeyBuilder {
		return fingerprint.NewKeyBuilder(impl).
			InputFiles("src", fp).
			InputValue("v", domain.ValueSnapshot{Type: "string", Bytes: []byte("1")}).
			Outputs("out")
	}
	reference := base().Build()

	otherStrategy := fp
	otherStrategy.Strategy = "absolute/directories/raw-eol"

	tests := []struct {
		name string
		key  domain.CacheKey
	}{
		{"implementation", fingerprint.NewKeyBuilder(domain.NewImplementationHash("shell", []byte("make all"))).
			InputFiles("src", fp).
			InputValue("v", domain.ValueSnapshot{Type: "string", Bytes: []byte("1")}).
			Outputs("out").Build()},
		{"property name", fingerprint.NewKeyBuilder(impl).
			InputFiles("sources", fp).
			InputValue("v", domain.ValueSnapshot{Type: "string", Bytes: []byte("1")}).
			Outputs("out").Build()},
		{"strategy", fingerprint.NewKeyBuilder(impl).
			InputFiles("src", otherStrategy).
			InputValue("v", domain.ValueSnapshot{Type: "string", Bytes: []byte("1")}).
			Outputs("out").Build()},
		{"value bytes", fingerprint.NewKeyBuilder(impl).
			InputFiles("src", fp).
			InputValue("v", domain.ValueSnapshot{Type: "string", Bytes: []byte("2")}).
			Outputs("out").Build()},
		{"extra output", base().Outputs("docs").Build()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, reference, tt.key)
		})
	}
}
