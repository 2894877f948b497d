package cmd

import (
	"github.com/fatih/color"
)

var (
	colorSuccess = color.New(color.FgGreen).SprintFunc()
	colorInfo    = color.New(color.FgCyan).SprintFunc()
	colorWarn    = color.New(color.FgYellow).SprintFunc()
	colorError   = color.New(color.FgRed).SprintFunc()
	colorHeader  = color.New(color.Bold).SprintFunc()
)

// colorSeverity colors a 1-10 severity the way the audit report ranks it.
func colorSeverity(sev int, s string) string {
	switch {
	case sev >= 8:
		return colorError(s)
	case sev >= 5:
		return colorWarn(s)
	default:
		return colorInfo(s)
	}
}
