package foodlog_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodlog-go/internal/foodlog"
	"foodlog-go/internal/testutil"
)

func newTestService(t *testing.T, store foodlog.EntryStore) *foodlog.Service {
	t.Helper()
	if store == nil {
		store = testutil.NewTestStore(t)
	}
	return foodlog.NewServiceWithStore(store, newCodec(), foodlog.NewNopLogger())
}

func apple() foodlog.RawEntry {
	return foodlog.RawEntry{
		Food:     "apple",
		Quantity: 1,
		Unit:     "piece",
		Kcal:     ptr(95),
		Fat:      ptr(0.3),
		Carbs:    ptr(25),
		Protein:  ptr(0.5),
	}
}

func TestService_AddAndTotals(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil)

	added, err := svc.AddEntry(ctx, apple(), "")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-10", added.Date)

	entries, err := svc.GetEntriesByDate(ctx, "2024-03-10")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, added.ID, entries[0].ID)

	totals, err := svc.GetMacroTotalsForDate(ctx, "2024-03-10")
	require.NoError(t, err)
	assert.Equal(t, foodlog.MacroTotals{Calories: 95, Fat: 0.3, Carbs: 25, Protein: 0.5}, totals)

	got, err := svc.GetEntry(ctx, added.ID)
	require.NoError(t, err)
	assert.Equal(t, "apple", got.Food)
}

func TestService_EntriesOrderedByTimestamp(t *testing.T) {
	ctx := context.Background()
	clock := testutil.FixedClock()
	codec := foodlog.NewCodec(clock, testutil.NewStubIDGenerator(), foodlog.WithLocation(time.UTC))
	svc := foodlog.NewServiceWithStore(testutil.NewTestStore(t), codec, nil)

	for _, food := range []string{"breakfast", "lunch", "dinner"} {
		_, err := svc.AddEntry(ctx, foodlog.RawEntry{Food: food, Quantity: 1}, "")
		require.NoError(t, err)
		clock.Advance(time.Hour)
	}

	entries, err := svc.GetEntriesByDate(ctx, "2024-03-10")
	require.NoError(t, err)
	var foods []string
	for _, e := range entries {
		foods = append(foods, e.Food)
	}
	assert.Equal(t, []string{"breakfast", "lunch", "dinner"}, foods)
}

func TestService_AddEntry_TargetDate(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil)

	_, err := svc.AddEntry(ctx, apple(), "2024-03-01")
	require.NoError(t, err)

	today, err := svc.GetEntriesByDate(ctx, svc.Today())
	require.NoError(t, err)
	assert.Empty(t, today)

	backdated, err := svc.GetEntriesByDate(ctx, "2024-03-01")
	require.NoError(t, err)
	assert.Len(t, backdated, 1)
}

func TestService_AddEntry_ValidationStoresNothing(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil)

	_, err := svc.AddEntry(ctx, foodlog.RawEntry{Food: "", Quantity: 1}, "")
	require.ErrorIs(t, err, foodlog.ErrValidation)

	entries, err := svc.GetEntriesByDate(ctx, "2024-03-10")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestService_AddParsedEntry(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil)

	resp := foodlog.ParsedFoodResponse{
		Success: true,
		Data:    &foodlog.ParsedFood{Food: "oatmeal", Quantity: 1, Unit: "cups", Kcal: ptr(150)},
	}
	e, err := svc.AddParsedEntry(ctx, resp, "voice", "")
	require.NoError(t, err)
	assert.Equal(t, foodlog.UnitCup, e.Unit)
	assert.Equal(t, foodlog.MethodVoice, e.Method)

	_, err = svc.AddParsedEntry(ctx, foodlog.ParsedFoodResponse{Error: "no food found"}, "voice", "")
	assert.ErrorIs(t, err, foodlog.ErrValidation)
}

func TestService_DeleteEntry(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil)

	e, err := svc.AddEntry(ctx, apple(), "")
	require.NoError(t, err)

	deleted, err := svc.DeleteEntry(ctx, e.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = svc.DeleteEntry(ctx, e.ID)
	require.NoError(t, err)
	assert.False(t, deleted, "second delete should report nothing removed")

	_, err = svc.GetEntry(ctx, e.ID)
	assert.ErrorIs(t, err, foodlog.ErrNotFound)

	totals, err := svc.GetMacroTotalsForDate(ctx, "2024-03-10")
	require.NoError(t, err)
	assert.Zero(t, totals.Calories)
}

func TestService_CalorieOffset(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil)

	kcal, err := svc.GetCalorieOffset(ctx, "2024-03-10")
	require.NoError(t, err)
	assert.Zero(t, kcal, "unset offset reads as zero")

	require.NoError(t, svc.SetCalorieOffset(ctx, "2024-03-10", -200))
	kcal, err = svc.GetCalorieOffset(ctx, "2024-03-10")
	require.NoError(t, err)
	assert.Equal(t, -200.0, kcal)

	require.NoError(t, svc.SetCalorieOffset(ctx, "2024-03-10", 50))
	kcal, _ = svc.GetCalorieOffset(ctx, "2024-03-10")
	assert.Equal(t, 50.0, kcal, "set overwrites")

	assert.ErrorIs(t, svc.SetCalorieOffset(ctx, "2024-03-10", math.NaN()), foodlog.ErrValidation)
	assert.ErrorIs(t, svc.SetCalorieOffset(ctx, "2024-3-10", 1), foodlog.ErrValidation)
}

func TestService_OffsetDoesNotChangeTotals(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil)

	_, err := svc.AddEntry(ctx, apple(), "")
	require.NoError(t, err)
	require.NoError(t, svc.SetCalorieOffset(ctx, "2024-03-10", -200))

	totals, err := svc.GetMacroTotalsForDate(ctx, "2024-03-10")
	require.NoError(t, err)
	assert.Equal(t, 95.0, totals.Calories)

	summary, err := svc.GetDaySummary(ctx, "2024-03-10")
	require.NoError(t, err)
	assert.Equal(t, -105.0, summary.Net)
	assert.Equal(t, 1, summary.Entries)
}

func TestService_GetRangeSummary(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil)

	_, err := svc.AddEntry(ctx, apple(), "2024-03-08")
	require.NoError(t, err)

	days, err := svc.GetRangeSummary(ctx, "2024-03-08", "2024-03-10")
	require.NoError(t, err)
	require.Len(t, days, 3)
	assert.Equal(t, 95.0, days[0].Totals.Calories)
	assert.Zero(t, days[1].Entries)

	_, err = svc.GetRangeSummary(ctx, "2024-03-10", "2024-03-08")
	assert.ErrorIs(t, err, foodlog.ErrValidation)

	entries, err := svc.GetEntriesInRange(ctx, "2024-03-01", "2024-03-31")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestService_ReadValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil)

	_, err := svc.GetEntriesByDate(ctx, "03/10/2024")
	assert.ErrorIs(t, err, foodlog.ErrValidation)
	_, err = svc.GetMacroTotalsForDate(ctx, "2024-13-01")
	assert.ErrorIs(t, err, foodlog.ErrValidation)
	_, err = svc.GetCalorieOffset(ctx, "")
	assert.ErrorIs(t, err, foodlog.ErrValidation)
	_, err = svc.GetDaySummary(ctx, "yesterday")
	assert.ErrorIs(t, err, foodlog.ErrValidation)
	_, err = svc.GetEntriesInRange(ctx, "2024-03-10", "2024-03-09")
	assert.ErrorIs(t, err, foodlog.ErrValidation)
}

func TestService_LazyOpen(t *testing.T) {
	ctx := context.Background()
	opener, calls := testutil.CountingOpener(testutil.NewTestStore(t), nil)
	svc := foodlog.NewService(opener, newCodec(), nil)

	assert.Equal(t, 0, *calls, "store must not open before first use")

	_, err := svc.GetEntriesByDate(ctx, "2024-03-10")
	require.NoError(t, err)
	_, err = svc.AddEntry(ctx, apple(), "")
	require.NoError(t, err)

	assert.Equal(t, 1, *calls)
}

func TestService_StoreUnavailable(t *testing.T) {
	ctx := context.Background()
	openErr := errors.New("disk unmounted")
	opener, calls := testutil.CountingOpener(nil, openErr)
	svc := foodlog.NewService(opener, newCodec(), nil)

	ops := map[string]func() error{
		"AddEntry": func() error { _, err := svc.AddEntry(ctx, apple(), ""); return err },
		"GetEntry": func() error { _, err := svc.GetEntry(ctx, "x"); return err },
		// Invalid input still reports the unavailable store first.
		"GetEntriesByDate": func() error { _, err := svc.GetEntriesByDate(ctx, "bad"); return err },
		"DeleteEntry":      func() error { _, err := svc.DeleteEntry(ctx, "x"); return err },
		"GetMacroTotals":   func() error { _, err := svc.GetMacroTotalsForDate(ctx, "2024-03-10"); return err },
		"GetCalorieOffset": func() error { _, err := svc.GetCalorieOffset(ctx, "2024-03-10"); return err },
		"SetCalorieOffset": func() error { return svc.SetCalorieOffset(ctx, "2024-03-10", 1) },
		"GetDaySummary":    func() error { _, err := svc.GetDaySummary(ctx, "2024-03-10"); return err },
		"GetRangeSummary":  func() error { _, err := svc.GetRangeSummary(ctx, "2024-03-10", "2024-03-11"); return err },
		"Verify":           func() error { _, err := svc.Verify(ctx); return err },
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			err := op()
			assert.ErrorIs(t, err, foodlog.ErrStoreUnavailable)
			assert.ErrorIs(t, err, openErr)
		})
	}

	assert.Equal(t, 1, *calls, "a failed open is not retried")
}

func TestService_CancelledOpenIsNotCached(t *testing.T) {
	opener, calls := testutil.CountingOpener(testutil.NewTestStore(t), nil)
	svc := foodlog.NewService(opener, newCodec(), nil)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.GetEntriesByDate(cancelled, "2024-03-10")
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, foodlog.ErrStoreUnavailable)

	ctx := context.Background()
	_, err = svc.AddEntry(ctx, apple(), "2024-03-10")
	require.NoError(t, err)
	entries, err := svc.GetEntriesByDate(ctx, "2024-03-10")
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	assert.Equal(t, 2, *calls)
}

func TestService_NoOpener(t *testing.T) {
	svc := foodlog.NewService(nil, newCodec(), nil)
	_, err := svc.GetEntriesByDate(context.Background(), "2024-03-10")
	assert.ErrorIs(t, err, foodlog.ErrStoreUnavailable)
}

func TestService_Close(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil)

	require.NoError(t, svc.Close())
	_, err := svc.GetEntriesByDate(ctx, "2024-03-10")
	assert.ErrorIs(t, err, foodlog.ErrStoreUnavailable)
	assert.NoError(t, svc.Close(), "closing twice is harmless")
}

func TestService_Verify(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil)
	_, err := svc.AddEntry(ctx, apple(), "")
	require.NoError(t, err)
	require.NoError(t, svc.SetCalorieOffset(ctx, "2024-03-10", 10))

	report, err := svc.Verify(ctx)
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Equal(t, 1, report.Entries)
	assert.Equal(t, 1, report.Offsets)
}

func TestService_ConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	codec := foodlog.NewCodec(testutil.FixedClock(), foodlog.UUIDGenerator{}, foodlog.WithLocation(time.UTC))
	svc := foodlog.NewServiceWithStore(testutil.NewTestStore(t), codec, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AddEntry(ctx, apple(), "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	totals, err := svc.GetMacroTotalsForDate(ctx, "2024-03-10")
	require.NoError(t, err)
	assert.InDelta(t, 20*95.0, totals.Calories, 1e-9)
}
