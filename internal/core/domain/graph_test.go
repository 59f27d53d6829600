package domain_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/core/domain"
)

func id(name string) domain.TaskIdentity {
	return domain.NewTaskIdentity("", ":app", name)
}

func newTask(name string) *domain.Task {
	return domain.NewTask(id(name), "/tmp/app")
}

func TestGraph_AddTask(t *testing.T) {
	g := domain.NewGraph()
	require.NoError(t, g.AddTask(newTask("compile")))

	err := g.AddTask(newTask("compile"))
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrTaskAlreadyExists.Error())

	got, ok := g.GetTask(id("compile"))
	require.True(t, ok)
	assert.Equal(t, ":app:compile", got.ID.Path())
	assert.Equal(t, 1, g.TaskCount())
}

func TestGraph_Cycle(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(*domain.Graph)
		wantCycle []string
	}{
		{
			name: "Simple Cycle A->A",
			setup: func(g *domain.Graph) {
				_ = g.AddTask(newTask("A").DependsOn(id("A")))
			},
			wantCycle: []string{":app:A", ":app:A"},
		},
		{
			name: "Two Node Cycle A->B->A",
			setup: func(g *domain.Graph) {
				_ = g.AddTask(newTask("A").DependsOn(id("B")))
				_ = g.AddTask(newTask("B").DependsOn(id("A")))
			},
			wantCycle: []string{":app:A", ":app:B", ":app:A"},
		},
		{
			name: "Must Run After Cycle",
			setup: func(g *domain.Graph) {
				_ = g.AddTask(newTask("A").MustRunAfter(id("B")))
				_ = g.AddTask(newTask("B").DependsOn(id("A")))
			},
			wantCycle: []string{":app:A", ":app:B", ":app:A"},
		},
		{
			name: "Finalizer Depended On By Finalized Task",
			setup: func(g *domain.Graph) {
				_ = g.AddTask(newTask("A").DependsOn(id("F")).FinalizedBy(id("F")))
				_ = g.AddTask(newTask("F"))
			},
			wantCycle: []string{":app:A", ":app:F", ":app:A"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := domain.NewGraph()
			tt.setup(g)

			err := g.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrCycleDetected)

			var cycleErr *domain.CycleError
			require.True(t, errors.As(err, &cycleErr))
			paths := make([]string, len(cycleErr.Path))
			for i, p := range cycleErr.Path {
				paths[i] = p.Path()
			}
			assert.Equal(t, tt.wantCycle, paths)
		})
	}
}

func TestGraph_Validate_ShouldRunAfterDoesNotFormCycle(t *testing.T) {
	g := domain.NewGraph()
	require.NoError(t, g.AddTask(newTask("A").ShouldRunAfter(id("B"))))
	require.NoError(t, g.AddTask(newTask("B").DependsOn(id("A"))))

	require.NoError(t, g.Validate())
}

func TestGraph_Validate_FinalizerDependingOnFinalizedTask(t *testing.T) {
	g := domain.NewGraph()
	require.NoError(t, g.AddTask(newTask("test").FinalizedBy(id("report"))))
	require.NoError(t, g.AddTask(newTask("report").DependsOn(id("test"))))

	require.NoError(t, g.Validate())
	assert.Equal(t, []domain.TaskIdentity{id("test")}, g.Finalizes(id("report")))
	assert.Equal(t, []domain.TaskIdentity{id("test")}, g.StrictPredecessors(id("report")))
}

func TestGraph_MissingDependency(t *testing.T) {
	g := domain.NewGraph()
	require.NoError(t, g.AddTask(newTask("A").MustRunAfter(id("missing"))))

	err := g.Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrMissingDependency.Error())
}

func TestGraph_Walk(t *testing.T) {
	// A -> B -> C
	// Execution order: C, B, A
	g := domain.NewGraph()
	require.NoError(t, g.AddTask(newTask("A").DependsOn(id("B"))))
	require.NoError(t, g.AddTask(newTask("B").DependsOn(id("C"))))
	require.NoError(t, g.AddTask(newTask("C")))
	require.NoError(t, g.Validate())

	var order []string
	for task := range g.Walk() {
		order = append(order, task.ID.Name.String())
	}
	assert.Equal(t, []string{"C", "B", "A"}, order)
	assert.Equal(t, []domain.TaskIdentity{id("B")}, g.Dependents(id("C")))
}

func TestGraph_WalkIsDeterministic(t *testing.T) {
	g := domain.NewGraph()
	for _, name := range []string{"d", "b", "a", "c"} {
		require.NoError(t, g.AddTask(newTask(name)))
	}
	require.NoError(t, g.Validate())

	var order []string
	for task := range g.Walk() {
		order = append(order, task.ID.Name.String())
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, order)
}
