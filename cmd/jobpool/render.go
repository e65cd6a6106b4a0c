package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/schollz/progressbar/v3"

	"github.com/utkarsh5026/jobpool/pool"
)

var (
	bold   = color.New(color.Bold)
	green  = color.New(color.FgGreen)
	red    = color.New(color.FgRed)
	yellow = color.New(color.FgYellow)
	blue   = color.New(color.FgBlue)
)

func kindColor(k pool.OutcomeKind) *color.Color {
	switch k {
	case pool.Completed:
		return green
	case pool.Failed:
		return red
	case pool.TimedOut:
		return yellow
	default:
		return blue
	}
}

func newProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
	)
}

func printSectionHeader(w io.Writer, title string) {
	_, _ = fmt.Fprintln(w)
	_, _ = bold.Fprintln(w, "═══════════════════════════════════════════════════════════")
	_, _ = bold.Fprintln(w, title)
	_, _ = bold.Fprintln(w, "═══════════════════════════════════════════════════════════")
}

// renderOutcomes prints one row per outcome, in slice order.
func renderOutcomes(w io.Writer, outcomes []pool.Outcome[int]) error {
	table := tablewriter.NewWriter(w)
	table.Header("#", "Job", "Outcome", "Value", "Queue wait", "Execution", "Error")

	for i, o := range outcomes {
		errText := ""
		if o.Err != nil {
			errText = o.Err.Error()
		}
		value := ""
		if o.OK() {
			value = fmt.Sprint(o.Value)
		}
		_ = table.Append(
			i,
			o.JobID,
			kindColor(o.Kind).Sprint(o.Kind),
			value,
			o.QueueWait().Round(time.Millisecond).String(),
			o.Execution().Round(time.Millisecond).String(),
			errText,
		)
	}
	return table.Render()
}

func renderSummary(w io.Writer, outcomes []pool.Outcome[int], stats pool.Stats, elapsed time.Duration) {
	counts := make(map[pool.OutcomeKind]int, 4)
	for _, o := range outcomes {
		counts[o.Kind]++
	}

	_, _ = fmt.Fprintln(w)
	_, _ = bold.Fprintf(w, "%d jobs in %s (%d slots, queue %d)\n",
		len(outcomes), elapsed.Round(time.Millisecond), stats.MaxWorkers, stats.QueueDepth)
	for _, k := range []pool.OutcomeKind{pool.Completed, pool.Failed, pool.TimedOut, pool.Rejected} {
		_, _ = kindColor(k).Fprintf(w, "  %-10s %d\n", k, counts[k])
	}
	_, _ = fmt.Fprintf(w, "  submissions %d (rejected %d)\n", stats.Submitted, stats.Rejected)
}

// dumpMetrics writes everything gathered by reg in Prometheus text format.
func dumpMetrics(w io.Writer, reg prometheus.Gatherer) error {
	mfs, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}

	printSectionHeader(w, "METRICS")
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range mfs {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("encoding %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
