package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fibron-net/fibron/pkg/ledger"
	"github.com/fibron-net/fibron/pkg/util"
)

var changesCmd = &cobra.Command{
	Use:   "changes",
	Short: "Inspect the change ledger",
	Long: `Inspect the in-process change ledger.

The ledger is held in memory for the lifetime of the process; the audit
log is the durable record (see: fibron audit list).

Examples:
  fibron changes list
  fibron -d olt-ny-01 changes list --status applied
  fibron changes show chg-20260824T101500.000-1a2b3c4d`,
}

var (
	changesStatus string
	changesLimit  int
)

var changesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ledger entries, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := ledger.ListFilter{
			Device: deviceName,
			Status: ledger.Status(changesStatus),
			Limit:  changesLimit,
		}

		entries := eng.Ledger().List(filter)
		if len(entries) == 0 {
			fmt.Println("No ledger entries.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintln(w, "CHANGE\tDEVICE\tACTION\tSTATUS\tACTOR\tCREATED")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				e.ID, e.Device, e.Action, e.Status, e.Actor,
				e.CreatedAt.Format("2006-01-02 15:04:05"))
		}
		return w.Flush()
	},
}

var changesShowCmd = &cobra.Command{
	Use:   "show <change-id>",
	Short: "Show one ledger entry in full",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := eng.Ledger().Get(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Change:   %s\n", e.ID)
		fmt.Printf("Device:   %s (%s)\n", e.Device, e.Vendor)
		fmt.Printf("Action:   %s (%s)\n", e.Action, e.Category)
		fmt.Printf("Actor:    %s\n", e.Actor)
		fmt.Printf("Status:   %s\n", e.Status)
		fmt.Printf("Created:  %s\n", e.CreatedAt.Format("2006-01-02 15:04:05 MST"))
		if !e.ResolvedAt.IsZero() {
			fmt.Printf("Resolved: %s\n", e.ResolvedAt.Format("2006-01-02 15:04:05 MST"))
		}
		if e.Error != "" {
			fmt.Printf("Error:    %s\n", util.Truncate(e.Error, 200))
		}
		fmt.Println("\nCommands:")
		for i, c := range e.Commands {
			fmt.Printf("%3d  %s\n", i+1, c)
		}
		if e.Reversible() {
			fmt.Println("\nRollback:")
			for i, c := range e.Rollback {
				fmt.Printf("%3d  %s\n", i+1, c)
			}
		}
		return nil
	},
}

func init() {
	changesListCmd.Flags().StringVar(&changesStatus, "status", "", "Filter by status (dry-run, in-progress, applied, failed, rolled-back, rollback-failed)")
	changesListCmd.Flags().IntVar(&changesLimit, "limit", 50, "Maximum entries to show")
	changesCmd.AddCommand(changesListCmd, changesShowCmd)
}
