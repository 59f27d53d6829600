package domain_test

import (
	"encoding/json"
	"testing"

	"go.trai.ch/kiln/internal/core/domain"
)

func TestInternedString(t *testing.T) {
	is1 := domain.NewInternedString("hello")
	is2 := domain.NewInternedString("hello")

	if is1 != is2 {
		t.Errorf("Expected interned strings to be equal for identical values")
	}

	if is1.String() != "hello" {
		t.Errorf("Expected String() to return %q, got %q", "hello", is1.String())
	}

	var zero domain.InternedString
	if !zero.IsZero() || zero.String() != "" {
		t.Errorf("Expected zero value to be empty, got %q", zero.String())
	}
}

func TestInternedString_Compare(t *testing.T) {
	a := domain.NewInternedString("a")
	b := domain.NewInternedString("b")

	if a.Compare(b) >= 0 || b.Compare(a) <= 0 || a.Compare(a) != 0 {
		t.Errorf("Compare does not order by value")
	}
}

func TestInternedStringJSON(t *testing.T) {
	type TestStruct struct {
		Name domain.InternedString `json:"name"`
	}

	original := TestStruct{Name: domain.NewInternedString("compile")}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Failed to marshal struct: %v", err)
	}

	if string(data) != `{"name":"compile"}` {
		t.Errorf("Expected JSON %q, got %q", `{"name":"compile"}`, string(data))
	}

	var unmarshaled TestStruct
	if err := json.Unmarshal(data, &unmarshaled); err != nil {
		t.Fatalf("Failed to unmarshal struct: %v", err)
	}

	if unmarshaled.Name != original.Name {
		t.Errorf("Expected unmarshaled name %q, got %q", original.Name, unmarshaled.Name)
	}
}
