package app

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/antenna-analyzer/internal/rating"
	"github.com/roman-kulish/antenna-analyzer/internal/sweep"
)

// WriteReport renders the sweep outcome and rating as a human-readable
// summary. rated may be nil when no points were collected.
func WriteReport(w io.Writer, result *sweep.Result, rated *rating.Rating) error {
	var sb strings.Builder

	sb.WriteString("ANTENNA PERFORMANCE ANALYSIS\n")
	sb.WriteString(strings.Repeat("=", 50))
	sb.WriteString("\n\n")

	fmt.Fprintf(&sb, "Sweep:   %s - %s, %d/%d points (%s)\n",
		formatFrequency(result.StartHz), formatFrequency(result.StopHz),
		len(result.Points), result.PointCount, result.Status)

	if result.Status == sweep.StatusFaulted {
		fmt.Fprintf(&sb, "Faulted: at point %d\n", result.FaultIndex)
	}

	if rated == nil {
		sb.WriteString("\nNo measurements collected; nothing to rate.\n")
		_, err := io.WriteString(w, sb.String())
		return err
	}

	fmt.Fprintf(&sb, "\nOVERALL RATING: %s (%d/100)\n\n", rated.Grade, rated.Score)

	fmt.Fprintf(&sb, "Minimum SWR:      %.2f\n", rated.MinSWR)
	fmt.Fprintf(&sb, "Average SWR:      %.2f\n", rated.AvgSWR)
	fmt.Fprintf(&sb, "Resonance:        %s\n", formatFrequency(rated.ResonantFrequencyHz))
	fmt.Fprintf(&sb, "Usable bandwidth: %s (SWR <= %.1f)\n", formatFrequency(rated.UsableBandwidthHz), rating.UsableSWR)
	fmt.Fprintf(&sb, "Coverage:         %.0f%% of points below SWR %.1f\n", 100*rated.CoverageRatio, rating.UsableSWR)

	if len(rated.Notes) > 0 {
		sb.WriteString("\nRECOMMENDATIONS:\n")
		sb.WriteString(strings.Repeat("-", 30))
		sb.WriteString("\n")
		for _, note := range rated.Notes {
			fmt.Fprintf(&sb, "- %s\n", note)
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func formatFrequency(hz float64) string {
	value, prefix := humanize.ComputeSI(hz)
	return fmt.Sprintf("%s %sHz", humanize.Ftoa(value), prefix)
}
