package style_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/ui/style"
)

func TestForOutcome(t *testing.T) {
	labels := make(map[string]bool)
	for _, o := range domain.Outcomes() {
		m := style.ForOutcome(o)
		assert.NotEmpty(t, m.Symbol, o.String())
		assert.True(t, m.Faint || m.Color != "", "%s needs a color or must be faint", o)
		labels[m.Label] = true
	}
	assert.Len(t, labels, len(domain.Outcomes()), "labels must be distinct")

	assert.Equal(t, style.Cross, style.ForOutcome(domain.OutcomeFailed).Symbol)
	assert.Equal(t, "FROM-CACHE", style.ForOutcome(domain.OutcomeFromCache).Label)
	assert.Equal(t, style.ForOutcome(domain.OutcomeExecuted), style.ForOutcome(domain.Outcome(99)))
}
