package foodlog

import (
	"context"
	"fmt"
	"time"
)

// MaxRangeDays bounds RangeSummary.
const MaxRangeDays = 366

// Aggregator derives per-day totals from the store on every call. Nothing
// is cached, so a total always reflects the entries stored at query time.
type Aggregator struct {
	store EntryStore
}

// NewAggregator creates an Aggregator reading from store.
func NewAggregator(store EntryStore) *Aggregator {
	return &Aggregator{store: store}
}

// SumEntries folds entries into MacroTotals.
func SumEntries(entries []*Entry) MacroTotals {
	var t MacroTotals
	for _, e := range entries {
		t = t.Add(e)
	}
	return t
}

// TotalsFor returns the summed nutrients of every entry dated dt.
func (a *Aggregator) TotalsFor(ctx context.Context, dt string) (MacroTotals, error) {
	entries, err := a.store.QueryByDate(ctx, dt)
	if err != nil {
		return MacroTotals{}, fmt.Errorf("querying entries for %s: %w", dt, err)
	}
	return SumEntries(entries), nil
}

// OffsetFor returns the calorie offset recorded for dt.
func (a *Aggregator) OffsetFor(ctx context.Context, dt string) (float64, error) {
	kcal, err := a.store.GetOffset(ctx, dt)
	if err != nil {
		return 0, fmt.Errorf("reading offset for %s: %w", dt, err)
	}
	return kcal, nil
}

// DaySummary returns totals, offset and net calories for dt.
func (a *Aggregator) DaySummary(ctx context.Context, dt string) (DaySummary, error) {
	entries, err := a.store.QueryByDate(ctx, dt)
	if err != nil {
		return DaySummary{}, fmt.Errorf("querying entries for %s: %w", dt, err)
	}
	offset, err := a.OffsetFor(ctx, dt)
	if err != nil {
		return DaySummary{}, err
	}
	return newDaySummary(dt, entries, offset), nil
}

// RangeSummary returns one DaySummary per calendar day in [from, to],
// including days with no entries.
func (a *Aggregator) RangeSummary(ctx context.Context, from, to string) ([]DaySummary, error) {
	days, err := DaysBetween(from, to)
	if err != nil {
		return nil, err
	}

	entries, err := a.store.QueryByDateRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("querying entries for %s..%s: %w", from, to, err)
	}
	offsets, err := a.store.QueryOffsets(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("reading offsets for %s..%s: %w", from, to, err)
	}

	byDate := make(map[string][]*Entry, len(days))
	for _, e := range entries {
		byDate[e.Date] = append(byDate[e.Date], e)
	}

	out := make([]DaySummary, 0, len(days))
	for _, dt := range days {
		out = append(out, newDaySummary(dt, byDate[dt], offsets[dt]))
	}
	return out, nil
}

// DaysBetween lists every calendar date from from to to inclusive.
func DaysBetween(from, to string) ([]string, error) {
	if err := ValidateDate(from); err != nil {
		return nil, err
	}
	if err := ValidateDate(to); err != nil {
		return nil, err
	}
	start, _ := time.Parse(DateLayout, from)
	end, _ := time.Parse(DateLayout, to)
	if end.Before(start) {
		return nil, invalid("range", "%s is before %s", to, from)
	}

	var days []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if len(days) == MaxRangeDays {
			return nil, invalid("range", "more than %d days", MaxRangeDays)
		}
		days = append(days, d.Format(DateLayout))
	}
	return days, nil
}

func newDaySummary(dt string, entries []*Entry, offset float64) DaySummary {
	totals := SumEntries(entries)
	return DaySummary{
		Date:    dt,
		Totals:  totals,
		Offset:  offset,
		Net:     totals.Calories + offset,
		Entries: len(entries),
	}
}
