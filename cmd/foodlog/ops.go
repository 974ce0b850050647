package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"foodlog-go/internal/app"
	"foodlog-go/internal/export"
	"foodlog-go/internal/foodlog"
)

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// defaultRange fills in a missing bound: to defaults to today and from to
// six days before to.
func defaultRange(a *app.FoodLogApp, from, to string) (string, string, error) {
	if to == "" {
		to = a.Today()
	}
	if from == "" {
		end, err := time.Parse(foodlog.DateLayout, to)
		if err != nil {
			return "", "", foodlog.ValidateDate(to)
		}
		from = end.AddDate(0, 0, -6).Format(foodlog.DateLayout)
	}
	return from, to, nil
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the entry store for unreadable records",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithApp(cmd, "doctor", func(ctx context.Context, a *app.FoodLogApp) error {
			report, err := a.Doctor(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Entries: %d\n", report.Entries)
			fmt.Fprintf(out, "Offsets: %d\n", report.Offsets)
			if report.OK() {
				fmt.Fprintln(out, "No problems found.")
				return nil
			}
			for _, p := range report.Problems {
				fmt.Fprintf(out, "  %s\n", p)
			}
			return fmt.Errorf("%d problem(s) found", len(report.Problems))
		})
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export entries and daily totals",
	RunE: func(cmd *cobra.Command, args []string) error {
		from, _ := cmd.Flags().GetString("from")
		to, _ := cmd.Flags().GetString("to")
		formatName, _ := cmd.Flags().GetString("format")
		days, _ := cmd.Flags().GetBool("days")
		output, _ := cmd.Flags().GetString("output")

		format, err := export.ParseFormat(formatName)
		if err != nil {
			return err
		}

		return runWithApp(cmd, "export", func(ctx context.Context, a *app.FoodLogApp) error {
			from, to, err := defaultRange(a, from, to)
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("creating %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}
			return a.Export(ctx, w, format, from, to, days)
		})
	},
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Encrypted snapshots of the food log",
}

var backupInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the backup key pair and check the vault",
	RunE: func(cmd *cobra.Command, args []string) error {
		passphrase, err := readPassphrase("New passphrase: ")
		if err != nil {
			return err
		}
		if os.Getenv("FOODLOG_PASSPHRASE") == "" {
			confirm, err := readPassphrase("Repeat passphrase: ")
			if err != nil {
				return err
			}
			if confirm != passphrase {
				return fmt.Errorf("passphrases do not match")
			}
		}

		return runWithApp(cmd, "backup init", func(ctx context.Context, a *app.FoodLogApp) error {
			if err := a.SetupBackup(ctx, passphrase); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Backup keys created. Keep the passphrase safe: it is needed to restore.")
			return nil
		})
	},
}

var backupPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Upload an encrypted snapshot to the vault",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithApp(cmd, "backup push", func(ctx context.Context, a *app.FoodLogApp) error {
			res, err := a.BackupPush(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pushed snapshot version %d (%d bytes, sha256 %s)\n", res.Version, res.Size, res.Checksum[:12])
			return nil
		})
	},
}

var backupPullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Restore the food log from the vault",
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		passphrase, err := readPassphrase("Passphrase: ")
		if err != nil {
			return err
		}

		return runWithApp(cmd, "backup pull", func(ctx context.Context, a *app.FoodLogApp) error {
			res, err := a.BackupPull(ctx, passphrase, force)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored snapshot version %d (sha256 %s)\n", res.Version, res.Checksum[:12])
			return nil
		})
	},
}

var backupStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the snapshot version held by the vault",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithApp(cmd, "backup status", func(ctx context.Context, a *app.FoodLogApp) error {
			version, err := a.BackupStatus(ctx)
			if err != nil {
				return err
			}
			if version == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No snapshot in vault.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Snapshot version %d (%s)\n", version, time.Unix(version, 0).Format(time.RFC3339))
			return nil
		})
	},
}

func init() {
	exportCmd.Flags().String("from", "", "First date, default six days before --to")
	exportCmd.Flags().String("to", "", "Last date, default today")
	exportCmd.Flags().String("format", "csv", "Output format: csv, json or yaml")
	exportCmd.Flags().Bool("days", false, "CSV only: one row per day instead of per entry")
	exportCmd.Flags().StringP("output", "o", "", "Write to file instead of stdout")

	backupPullCmd.Flags().Bool("force", false, "Replace an existing database")

	backupCmd.AddCommand(backupInitCmd)
	backupCmd.AddCommand(backupPushCmd)
	backupCmd.AddCommand(backupPullCmd)
	backupCmd.AddCommand(backupStatusCmd)
}
