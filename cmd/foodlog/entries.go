package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"foodlog-go/internal/app"
	"foodlog-go/internal/foodlog"
)

var entryCmd = &cobra.Command{
	Use:   "entry",
	Short: "Add, list and delete food entries",
}

var entryAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Log a food item",
	RunE: func(cmd *cobra.Command, args []string) error {
		date, _ := cmd.Flags().GetString("date")
		parsedPath, _ := cmd.Flags().GetString("parsed-json")

		return runWithApp(cmd, "entry add", func(ctx context.Context, a *app.FoodLogApp) error {
			var (
				e   *foodlog.Entry
				err error
			)
			if parsedPath != "" {
				resp, readErr := readParsed(cmd, parsedPath)
				if readErr != nil {
					return readErr
				}
				method, _ := cmd.Flags().GetString("method")
				if method == "" {
					method = string(foodlog.MethodText)
				}
				e, err = a.Service().AddParsedEntry(ctx, resp, method, date)
			} else {
				e, err = a.Service().AddEntry(ctx, rawEntryFromFlags(cmd.Flags()), date)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s: %s (%s kcal) on %s\n", e.ID, e.Food, num(e.Kcal), e.Date)
			return nil
		})
	},
}

func readParsed(cmd *cobra.Command, path string) (foodlog.ParsedFoodResponse, error) {
	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return foodlog.ParsedFoodResponse{}, fmt.Errorf("opening %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}
	return foodlog.DecodeParsedFood(r)
}

func addEntryFlags(flags *pflag.FlagSet) {
	flags.String("food", "", "Food name")
	flags.Float64("qty", 1, "Quantity")
	flags.String("unit", "", "Unit (g, ml, cup, tbsp, tsp, piece, slice)")
	flags.Float64("kcal", 0, "Calories")
	flags.Float64("fat", 0, "Fat in grams")
	flags.Float64("carbs", 0, "Carbohydrates in grams")
	flags.Float64("protein", 0, "Protein in grams")
	flags.String("method", "", "Capture method (barcode, voice, text)")
	flags.Float64("confidence", 0, "Recognition confidence between 0 and 1")
	flags.String("date", "", "Log for this date (YYYY-MM-DD) instead of today")
	flags.String("parsed-json", "", "Read a parsed-food response from a file, or - for stdin")
}

// rawEntryFromFlags builds codec input. Nutrient flags that were not given
// stay nil so the codec can tell "absent" from zero.
func rawEntryFromFlags(flags *pflag.FlagSet) foodlog.RawEntry {
	food, _ := flags.GetString("food")
	qty, _ := flags.GetFloat64("qty")
	unit, _ := flags.GetString("unit")
	method, _ := flags.GetString("method")
	return foodlog.RawEntry{
		Food:       food,
		Quantity:   qty,
		Unit:       unit,
		Kcal:       optionalFloat(flags, "kcal"),
		Fat:        optionalFloat(flags, "fat"),
		Carbs:      optionalFloat(flags, "carbs"),
		Protein:    optionalFloat(flags, "protein"),
		Method:     method,
		Confidence: optionalFloat(flags, "confidence"),
	}
}

func optionalFloat(flags *pflag.FlagSet, name string) *float64 {
	if !flags.Changed(name) {
		return nil
	}
	v, err := flags.GetFloat64(name)
	if err != nil {
		return nil
	}
	return &v
}

var entryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the entries for a day",
	RunE: func(cmd *cobra.Command, args []string) error {
		date, _ := cmd.Flags().GetString("date")

		return runWithApp(cmd, "entry list", func(ctx context.Context, a *app.FoodLogApp) error {
			if date == "" {
				date = a.Today()
			}
			entries, err := a.Service().GetEntriesByDate(ctx, date)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No entries for %s.\n", date)
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tID\tFOOD\tQTY\tKCAL\tFAT\tCARBS\tPROTEIN")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s %s\t%s\t%s\t%s\t%s\n",
					e.Timestamp.In(a.Service().Location()).Format("15:04"),
					e.ID, e.Food, num(e.Quantity), e.Unit,
					num(e.Kcal), num(e.Fat), num(e.Carbs), num(e.Protein))
			}
			return w.Flush()
		})
	},
}

var entryShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show one entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithApp(cmd, "entry show", func(ctx context.Context, a *app.FoodLogApp) error {
			e, err := a.Service().GetEntry(ctx, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:         %s\n", e.ID)
			fmt.Fprintf(out, "Date:       %s\n", e.Date)
			fmt.Fprintf(out, "Logged at:  %s\n", e.Timestamp.In(a.Service().Location()).Format("2006-01-02 15:04:05"))
			fmt.Fprintf(out, "Food:       %s\n", e.Food)
			fmt.Fprintf(out, "Quantity:   %s %s\n", num(e.Quantity), e.Unit)
			fmt.Fprintf(out, "Calories:   %s\n", num(e.Kcal))
			fmt.Fprintf(out, "Fat:        %s g\n", num(e.Fat))
			fmt.Fprintf(out, "Carbs:      %s g\n", num(e.Carbs))
			fmt.Fprintf(out, "Protein:    %s g\n", num(e.Protein))
			fmt.Fprintf(out, "Method:     %s\n", e.Method)
			if e.Confidence != nil {
				fmt.Fprintf(out, "Confidence: %s\n", num(*e.Confidence))
			}
			return nil
		})
	},
}

var entryDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete an entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithApp(cmd, "entry delete", func(ctx context.Context, a *app.FoodLogApp) error {
			deleted, err := a.Service().DeleteEntry(ctx, args[0])
			if err != nil {
				return err
			}
			if !deleted {
				fmt.Fprintf(cmd.OutOrStdout(), "No entry with id %s.\n", args[0])
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s.\n", args[0])
			return nil
		})
	},
}

var totalsCmd = &cobra.Command{
	Use:   "totals",
	Short: "Show macro totals for a day",
	RunE: func(cmd *cobra.Command, args []string) error {
		date, _ := cmd.Flags().GetString("date")

		return runWithApp(cmd, "totals", func(ctx context.Context, a *app.FoodLogApp) error {
			if date == "" {
				date = a.Today()
			}
			s, err := a.Service().GetDaySummary(ctx, date)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%d entries)\n", s.Date, s.Entries)
			fmt.Fprintf(out, "Calories: %s\n", num(s.Totals.Calories))
			fmt.Fprintf(out, "Fat:      %s g\n", num(s.Totals.Fat))
			fmt.Fprintf(out, "Carbs:    %s g\n", num(s.Totals.Carbs))
			fmt.Fprintf(out, "Protein:  %s g\n", num(s.Totals.Protein))
			if s.Offset != 0 {
				fmt.Fprintf(out, "Offset:   %s\n", num(s.Offset))
				fmt.Fprintf(out, "Net:      %s\n", num(s.Net))
			}
			return nil
		})
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show daily totals over a date range",
	RunE: func(cmd *cobra.Command, args []string) error {
		from, _ := cmd.Flags().GetString("from")
		to, _ := cmd.Flags().GetString("to")

		return runWithApp(cmd, "summary", func(ctx context.Context, a *app.FoodLogApp) error {
			from, to, err := defaultRange(a, from, to)
			if err != nil {
				return err
			}
			days, err := a.Service().GetRangeSummary(ctx, from, to)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "DATE\tENTRIES\tKCAL\tFAT\tCARBS\tPROTEIN\tOFFSET\tNET")
			for _, d := range days {
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
					d.Date, d.Entries, num(d.Totals.Calories), num(d.Totals.Fat),
					num(d.Totals.Carbs), num(d.Totals.Protein), num(d.Offset), num(d.Net))
			}
			return w.Flush()
		})
	},
}

var offsetCmd = &cobra.Command{
	Use:   "offset",
	Short: "Manage the daily calorie offset",
}

var offsetSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set the calorie offset for a day (negative for exercise)",
	RunE: func(cmd *cobra.Command, args []string) error {
		date, _ := cmd.Flags().GetString("date")
		kcal, _ := cmd.Flags().GetFloat64("kcal")

		return runWithApp(cmd, "offset set", func(ctx context.Context, a *app.FoodLogApp) error {
			if date == "" {
				date = a.Today()
			}
			if err := a.Service().SetCalorieOffset(ctx, date, kcal); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Offset for %s set to %s kcal.\n", date, num(kcal))
			return nil
		})
	},
}

var offsetGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show the calorie offset for a day",
	RunE: func(cmd *cobra.Command, args []string) error {
		date, _ := cmd.Flags().GetString("date")

		return runWithApp(cmd, "offset get", func(ctx context.Context, a *app.FoodLogApp) error {
			if date == "" {
				date = a.Today()
			}
			kcal, err := a.Service().GetCalorieOffset(ctx, date)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s kcal\n", date, num(kcal))
			return nil
		})
	},
}

func init() {
	addEntryFlags(entryAddCmd.Flags())

	entryListCmd.Flags().String("date", "", "Date (YYYY-MM-DD), default today")
	totalsCmd.Flags().String("date", "", "Date (YYYY-MM-DD), default today")
	summaryCmd.Flags().String("from", "", "First date, default six days before --to")
	summaryCmd.Flags().String("to", "", "Last date, default today")

	offsetSetCmd.Flags().String("date", "", "Date (YYYY-MM-DD), default today")
	offsetSetCmd.Flags().Float64("kcal", 0, "Offset in kcal")
	offsetSetCmd.MarkFlagRequired("kcal")
	offsetGetCmd.Flags().String("date", "", "Date (YYYY-MM-DD), default today")

	entryCmd.AddCommand(entryAddCmd)
	entryCmd.AddCommand(entryListCmd)
	entryCmd.AddCommand(entryShowCmd)
	entryCmd.AddCommand(entryDeleteCmd)
	offsetCmd.AddCommand(offsetSetCmd)
	offsetCmd.AddCommand(offsetGetCmd)
}
