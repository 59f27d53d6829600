package domain_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/core/domain"
)

func noop(context.Context, *domain.ActionContext) error { return nil }

func TestTask_Builders(t *testing.T) {
	task := newTask("compile").
		DependsOn(id("gen"), id("gen")).
		MustRunAfter(id("clean")).
		ShouldRunAfter(id("lint")).
		FinalizedBy(id("report")).
		RequireResource("project", "project")

	assert.Equal(t, []domain.TaskIdentity{id("gen")}, task.Edges.Hard)
	assert.Equal(t, []domain.TaskIdentity{id("clean")}, task.Edges.MustRunAfter)
	assert.Equal(t, []domain.TaskIdentity{id("lint")}, task.Edges.ShouldRunAfter)
	assert.Equal(t, []domain.TaskIdentity{id("report")}, task.Edges.FinalizedBy)
	assert.Equal(t, []string{"project"}, task.Resources)
	assert.True(t, task.Enabled)
	assert.True(t, task.Cacheable)
}

func TestTask_ActionOrder(t *testing.T) {
	impl := domain.NewImplementationHash("test", nil)
	task := newTask("compile").
		DoLast(domain.NewAction("second", impl, noop)).
		DoFirst(domain.NewAction("first", impl, noop)).
		DoLast(domain.NewAction("third", impl, noop))

	names := make([]string, len(task.Actions))
	for i, a := range task.Actions {
		names[i] = a.Name
	}
	assert.Equal(t, []string{"first", "second", "third"}, names)
}

func TestTask_ImplementationHash(t *testing.T) {
	a := domain.NewImplementationHash("shell", []byte("go build ./..."))
	b := domain.NewImplementationHash("shell", []byte("go vet ./..."))

	t1 := newTask("x").DoLast(domain.NewAction("run", a, noop))
	t2 := newTask("x").DoLast(domain.NewAction("run", a, noop))
	t3 := newTask("x").DoLast(domain.NewAction("run", b, noop))
	t4 := newTask("x").DoLast(domain.NewAction("run", a, noop)).DoLast(domain.NewAction("run", b, noop))
	t5 := newTask("x").DoLast(domain.NewAction("run", b, noop)).DoLast(domain.NewAction("run", a, noop))

	assert.Equal(t, t1.ImplementationHash(), t2.ImplementationHash())
	assert.NotEqual(t, t1.ImplementationHash(), t3.ImplementationHash())
	assert.NotEqual(t, t4.ImplementationHash(), t5.ImplementationHash())
	assert.Len(t, string(t1.ImplementationHash()), 64)
}

func TestNewImplementationHash_Lineage(t *testing.T) {
	code := []byte("echo hi")
	assert.NotEqual(t,
		domain.NewImplementationHash("shell", code, "loader-a"),
		domain.NewImplementationHash("shell", code, "loader-b"),
	)
	assert.NotEqual(t,
		domain.NewImplementationHash("shell", []byte("ab"), "c"),
		domain.NewImplementationHash("shell", []byte("a"), "bc"),
	)
}

func TestProperties_Finalize(t *testing.T) {
	p := domain.NewProperties()
	require.NoError(t, p.AddInputFiles(domain.InputFiles{Name: "sources", Patterns: []string{"src/**"}}))
	require.NoError(t, p.AddInputValue("version", domain.ValueSnapshot{Type: "string", Bytes: []byte("1.0")}))
	require.NoError(t, p.AddOutput(domain.OutputFiles{Name: "classes", Paths: []string{"build/classes"}}))

	err := p.AddOutput(domain.OutputFiles{Name: "sources"})
	assert.ErrorContains(t, err, domain.ErrDuplicateProperty.Error())

	p.Finalize()
	assert.True(t, p.Finalized())

	err = p.AddInputFiles(domain.InputFiles{Name: "more"})
	assert.ErrorContains(t, err, domain.ErrPropertiesFinalized.Error())
	err = p.AddInputValue("other", domain.ValueSnapshot{})
	assert.ErrorContains(t, err, domain.ErrPropertiesFinalized.Error())
	err = p.AddOutput(domain.OutputFiles{Name: "jar"})
	assert.ErrorContains(t, err, domain.ErrPropertiesFinalized.Error())

	assert.Len(t, p.InputFiles(), 1)
	assert.Len(t, p.InputValues(), 1)
	assert.Len(t, p.Outputs(), 1)
}

func TestProperties_GettersReturnCopies(t *testing.T) {
	p := domain.NewProperties()
	require.NoError(t, p.AddOutput(domain.OutputFiles{Name: "out", Paths: []string{"a"}}))

	outs := p.Outputs()
	outs[0].Paths[0] = "mutated"

	assert.Equal(t, []string{"a"}, p.Outputs()[0].Paths)
}
