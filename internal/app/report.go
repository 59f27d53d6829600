package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/engine/pipeline"
)

var outcomeLabels = map[domain.Outcome]string{
	domain.OutcomeExecuted:  "executed",
	domain.OutcomeUpToDate:  "up-to-date",
	domain.OutcomeFromCache: "from cache",
	domain.OutcomeSkipped:   "skipped",
	domain.OutcomeFailed:    "failed",
}

// summarize logs the outcome counts and, for failed builds, the failure report.
func (a *App) summarize(report *domain.BuildReport) {
	elapsed := report.Duration.Round(time.Millisecond)
	if err := report.Err(); err != nil {
		a.logger.Error(err)
		a.logger.Info(fmt.Sprintf("BUILD FAILED in %s (%s)", elapsed, formatCounts(report)))
		return
	}
	a.logger.Info(fmt.Sprintf("BUILD SUCCESSFUL in %s (%s)", elapsed, formatCounts(report)))
}

// formatCounts renders "3 tasks: 2 executed, 1 up-to-date", leaving out empty outcomes.
func formatCounts(report *domain.BuildReport) string {
	counts := report.Counts()
	total := 0
	parts := make([]string, 0, len(counts))
	for _, o := range domain.Outcomes() {
		n := counts[o]
		total += n
		if n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, outcomeLabels[o]))
		}
	}
	summary := english.Plural(total, "task", "tasks")
	if len(parts) == 0 {
		return summary
	}
	return summary + ": " + strings.Join(parts, ", ")
}

func formatPrune(report domain.PruneReport) string {
	return fmt.Sprintf("pruned %d of %d build cache entries, freeing %s (%s -> %s)",
		report.Removed,
		report.Entries,
		humanize.IBytes(uint64(report.RemovedBytes)),
		humanize.IBytes(uint64(report.SizeBefore)),
		humanize.IBytes(uint64(report.SizeAfter)),
	)
}

// newLogListener logs why tasks ran and why they were skipped at debug level.
func newLogListener(log ports.Logger) pipeline.Listener {
	return pipeline.ListenerFuncs{
		OnFinish: func(res domain.Result) {
			switch {
			case res.RebuildReason != domain.ReasonNone && res.Outcome != domain.OutcomeUpToDate:
				log.Debug(fmt.Sprintf("%s %s because %s", res.Task.Path(), outcomeLabels[res.Outcome], res.RebuildReason))
			case res.SkipReason != "":
				log.Debug(fmt.Sprintf("%s skipped: %s", res.Task.Path(), res.SkipReason))
			}
		},
	}
}
