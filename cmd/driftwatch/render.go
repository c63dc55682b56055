package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"driftwatch/internal/drift"
	"driftwatch/internal/preflight"
	"driftwatch/internal/reconcile"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 20
	statusIndent     = "  "
)

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := statusKindLabel(kind)
	if message != "" {
		statusText = fmt.Sprintf("[%s] %s", statusText, message)
	} else {
		statusText = fmt.Sprintf("[%s]", statusText)
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func outcomeKind(outcome drift.Outcome) statusKind {
	switch outcome {
	case drift.OutcomeInSync:
		return statusOK
	case drift.OutcomeDrift:
		return statusWarn
	default:
		return statusError
	}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// renderReport writes a human-readable check report.
func renderReport(out io.Writer, report *reconcile.Report) {
	colorize := shouldColorize(out)

	fmt.Fprintln(out, renderStatusLine("Target", statusInfo, report.Target, colorize))
	fmt.Fprintln(out, renderStatusLine("Outcome", outcomeKind(report.Outcome), report.Summary, colorize))
	if report.TrackingTableMissing {
		fmt.Fprintln(out, renderStatusLine("Tracking table", statusWarn, "absent (zero migrations applied)", colorize))
	}

	if len(report.Missing) > 0 {
		fmt.Fprintln(out)
		rows := make([][]string, 0, len(report.Missing))
		for _, missing := range report.Missing {
			rows = append(rows, []string{missing.Version, drift.DisplayTitle(missing.Name), missing.Filename})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"Version", "Name", "File"},
			rows,
			[]columnAlignment{alignRight, alignLeft, alignLeft},
		))
	}

	if len(report.Unexpected) > 0 {
		fmt.Fprintln(out)
		versions := make([]string, 0, len(report.Unexpected))
		for _, unexpected := range report.Unexpected {
			versions = append(versions, unexpected.Version)
		}
		fmt.Fprintln(out, renderStatusLine("Unexpected", statusWarn,
			fmt.Sprintf("applied but not in inventory: %s", strings.Join(versions, ", ")), colorize))
	}
}

// renderPreflightResults writes one status line per check.
func renderPreflightResults(out io.Writer, results []preflight.Result) {
	colorize := shouldColorize(out)
	for _, result := range results {
		kind := statusError
		if result.Passed {
			kind = statusOK
		}
		fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
	}
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
