// Package style holds the colors and marks printed next to task outcomes and log records.
package style

import (
	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/kiln/internal/core/domain"
)

// Palette.
var (
	Ember = lipgloss.Color("#E4572E")
	Ash   = lipgloss.Color("#6B7280")
	Clay  = lipgloss.Color("#B07D62")
	Moss  = lipgloss.Color("#3F9A5B")
	Sky   = lipgloss.Color("#3B82F6")
	Amber = lipgloss.Color("#F59E0B")
	Brick = lipgloss.Color("#C0392B")
)

// Marks.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
	Tilde   = "~"
	Arrow   = "↓"
	Circle  = "○"
)

// Mark is what the renderer prints for a finished task.
type Mark struct {
	Symbol string
	Label  string
	Color  lipgloss.Color
	// Faint marks are printed without a color.
	Faint bool
}

var outcomeMarks = map[domain.Outcome]Mark{
	domain.OutcomeExecuted:  {Symbol: Check, Label: "EXECUTED", Color: Moss},
	domain.OutcomeUpToDate:  {Symbol: Tilde, Label: "UP-TO-DATE", Color: Sky},
	domain.OutcomeFromCache: {Symbol: Arrow, Label: "FROM-CACHE", Color: Clay},
	domain.OutcomeSkipped:   {Symbol: Circle, Label: "SKIPPED", Faint: true},
	domain.OutcomeFailed:    {Symbol: Cross, Label: "FAILED", Color: Brick},
}

// ForOutcome returns the mark of o. Unknown outcomes get the executed mark.
func ForOutcome(o domain.Outcome) Mark {
	if m, ok := outcomeMarks[o]; ok {
		return m
	}
	return outcomeMarks[domain.OutcomeExecuted]
}
