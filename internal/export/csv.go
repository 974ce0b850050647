package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"foodlog-go/internal/foodlog"
)

var entryHeader = []string{"id", "date", "timestamp", "food", "quantity", "unit", "kcal", "fat", "carbs", "protein", "method", "confidence"}

var dayHeader = []string{"date", "entries", "calories", "fat", "carbs", "protein", "offset", "net"}

// WriteEntriesCSV writes one row per entry. Timestamps are UTC RFC 3339.
func WriteEntriesCSV(w io.Writer, entries []*foodlog.Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(entryHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	for _, e := range entries {
		confidence := ""
		if e.Confidence != nil {
			confidence = num(*e.Confidence)
		}
		row := []string{
			e.ID,
			e.Date,
			e.Timestamp.UTC().Format(time.RFC3339Nano),
			e.Food,
			num(e.Quantity),
			string(e.Unit),
			num(e.Kcal),
			num(e.Fat),
			num(e.Carbs),
			num(e.Protein),
			string(e.Method),
			confidence,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row %s: %w", e.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteDaysCSV writes one row per day summary.
func WriteDaysCSV(w io.Writer, days []foodlog.DaySummary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(dayHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	for _, d := range days {
		row := []string{
			d.Date,
			strconv.Itoa(d.Entries),
			num(d.Totals.Calories),
			num(d.Totals.Fat),
			num(d.Totals.Carbs),
			num(d.Totals.Protein),
			num(d.Offset),
			num(d.Net),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row %s: %w", d.Date, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
