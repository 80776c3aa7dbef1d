/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/segmentio/ksuid"
	"github.com/spf13/cobra"

	"github.com/ssargent/aerobonkers/pkg/di"
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect recorded randomization runs",
	Long: `Read the run ledger written by runs started with --ledger-dir.

Examples:
  aerobonkers history list --ledger-dir ./runs
  aerobonkers history show 2Cxv1ePqI8AYtVnRGsMOOF7Scqj --ledger-dir ./runs
  aerobonkers history delete 2Cxv1ePqI8AYtVnRGsMOOF7Scqj --ledger-dir ./runs`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs, oldest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		l, err := openLedger()
		if err != nil {
			return err
		}
		defer l.Close()

		runs, err := l.List()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(runs) == 0 {
			fmt.Fprintln(out, "No runs recorded.")
			return nil
		}
		for _, run := range runs {
			fmt.Fprintf(out, "%s  %s  seed=%d  changes=%d\n",
				run.ID, run.CreatedAt.Format("2006-01-02T15:04:05Z07:00"), run.Seed, len(run.Changes))
		}
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show every change a run made",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := ksuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid run id %q: %w", args[0], err)
		}

		l, err := openLedger()
		if err != nil {
			return err
		}
		defer l.Close()

		run, err := l.Get(id)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Run:   %s\n", run.ID)
		fmt.Fprintf(out, "Seed:  %d\n", run.Seed)
		fmt.Fprintf(out, "Flags: %s\n", formatFlags(run.Flags))
		fmt.Fprintf(out, "Order: %s\n", strings.Join(run.Order, ", "))
		for _, c := range run.Changes {
			fmt.Fprintf(out, "  %s[%d].%s: %s -> %s\n", c.Family, c.Index, c.Attr, c.Old, c.New)
		}
		return nil
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete a recorded run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := ksuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid run id %q: %w", args[0], err)
		}

		l, err := openLedger()
		if err != nil {
			return err
		}
		defer l.Close()

		if err := l.Delete(id); err != nil {
			return fmt.Errorf("failed to delete run %s: %w", id, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Successfully deleted run %s\n", id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyDeleteCmd)
}

func openLedger() (di.RunLedger, error) {
	if container == nil {
		return nil, errNoContainer
	}
	if settings == nil || settings.Ledger.Dir == "" {
		return nil, fmt.Errorf("no ledger directory configured, use --ledger-dir")
	}
	return container.OpenLedger(settings.Ledger.Dir)
}

func formatFlags(flags map[string]bool) string {
	names := make([]string, 0, len(flags))
	for name := range flags {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s=%t", name, flags[name])
	}
	return strings.Join(parts, " ")
}
