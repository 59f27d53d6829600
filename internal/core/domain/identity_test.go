package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/core/domain"
)

func TestTaskIdentity_Path(t *testing.T) {
	tests := []struct {
		name string
		id   domain.TaskIdentity
		want string
	}{
		{"root project", domain.NewTaskIdentity("", "", "build"), ":build"},
		{"sub project", domain.NewTaskIdentity("", ":app", "compile"), ":app:compile"},
		{"nested project", domain.NewTaskIdentity("", ":libs:core", "test"), ":libs:core:test"},
		{"nested build", domain.NewTaskIdentity(":tools", ":gen", "run"), ":tools:gen:run"},
		{"nested build root project", domain.NewTaskIdentity(":tools", ":", "run"), ":tools:run"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.id.Path())
			assert.Equal(t, tt.want, tt.id.String())
		})
	}
}

func TestTaskIdentity_KeyIsStable(t *testing.T) {
	a := domain.NewTaskIdentity(":tools", ":gen", "run")
	b := domain.NewTaskIdentity(":tools", ":gen", "run")

	assert.Equal(t, a, b)
	assert.Equal(t, ":tools|:gen|run", a.Key())
	assert.NotEqual(t, a.Key(), domain.NewTaskIdentity("", ":tools:gen", "run").Key())
}

func TestParseTaskPath(t *testing.T) {
	tests := []struct {
		ref     string
		want    domain.TaskIdentity
		wantErr bool
	}{
		{ref: "compile", want: domain.NewTaskIdentity("", ":app", "compile")},
		{ref: ":compile", want: domain.NewTaskIdentity("", ":", "compile")},
		{ref: ":lib:compile", want: domain.NewTaskIdentity("", ":lib", "compile")},
		{ref: ":libs:core:test", want: domain.NewTaskIdentity("", ":libs:core", "test")},
		{ref: "", wantErr: true},
		{ref: ":", wantErr: true},
		{ref: "lib:compile", wantErr: true},
		{ref: ":lib:", wantErr: true},
		{ref: ":lib::compile", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, err := domain.ParseTaskPath("", ":app", tt.ref)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorContains(t, err, domain.ErrInvalidTaskPath.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
