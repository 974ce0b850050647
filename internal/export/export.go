// Package export writes a date range of the food log as CSV, JSON or YAML.
package export

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"foodlog-go/internal/foodlog"
)

// Format selects the output encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts csv, json, yaml and yml in any case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown export format %q (want csv, json or yaml)", s)
}

// Report is everything logged in [From, To].
type Report struct {
	From       string
	To         string
	ExportedAt time.Time
	Days       []foodlog.DaySummary
	Entries    []*foodlog.Entry
}

// Collect reads entries and per-day summaries for [from, to] through svc.
func Collect(ctx context.Context, svc *foodlog.Service, from, to string, now time.Time) (*Report, error) {
	entries, err := svc.GetEntriesInRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	days, err := svc.GetRangeSummary(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return &Report{From: from, To: to, ExportedAt: now, Days: days, Entries: entries}, nil
}

// Write encodes r to w. CSV carries entries only; use WriteDaysCSV for the
// per-day totals.
func Write(w io.Writer, format Format, r *Report) error {
	switch format {
	case FormatCSV:
		return WriteEntriesCSV(w, r.Entries)
	case FormatJSON:
		return WriteJSON(w, r)
	case FormatYAML:
		return WriteYAML(w, r)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}
