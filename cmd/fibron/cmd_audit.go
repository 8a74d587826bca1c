package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/fibron-net/fibron/pkg/audit"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "View audit logs",
	Long: `View audit logs of command executions.

Every execution is logged with:
  - Timestamp
  - Actor who requested the change
  - Device and action
  - Run mode (simulate, dry-run, live)
  - Success/failure status

Examples:
  fibron audit list --device olt-ny-01
  fibron audit list --last 24h
  fibron audit list --actor alice --failures`,
}

var (
	auditDevice   string
	auditActor    string
	auditRunMode  string
	auditLast     string
	auditLimit    int
	auditFailures bool
	auditJSON     bool
)

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List audit events",
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := audit.Filter{
			Device:      auditDevice,
			Actor:       auditActor,
			RunMode:     auditRunMode,
			Limit:       auditLimit,
			FailureOnly: auditFailures,
		}
		if filter.Device == "" {
			filter.Device = deviceName
		}

		// Parse --last duration
		if auditLast != "" {
			duration, err := time.ParseDuration(auditLast)
			if err != nil {
				return fmt.Errorf("invalid duration: %s", auditLast)
			}
			filter.StartTime = time.Now().Add(-duration)
		}

		events, err := auditLogger.Query(filter)
		if err != nil {
			return fmt.Errorf("querying audit log: %w", err)
		}
		if len(events) == 0 {
			fmt.Println("No audit events.")
			return nil
		}

		if auditJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(events)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tACTOR\tDEVICE\tACTION\tMODE\tRESULT")
		for _, e := range events {
			result := "ok"
			if !e.Success {
				result = "FAILED"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				e.Timestamp.Format("2006-01-02 15:04:05"),
				e.Actor, e.Device, e.Action, e.RunMode, result)
		}
		return w.Flush()
	},
}

func init() {
	auditListCmd.Flags().StringVar(&auditDevice, "device", "", "Filter by device")
	auditListCmd.Flags().StringVar(&auditActor, "actor", "", "Filter by actor")
	auditListCmd.Flags().StringVar(&auditRunMode, "mode", "", "Filter by run mode")
	auditListCmd.Flags().StringVar(&auditLast, "last", "", "Only events in the last duration (e.g. 24h)")
	auditListCmd.Flags().IntVar(&auditLimit, "limit", 50, "Maximum events to show")
	auditListCmd.Flags().BoolVar(&auditFailures, "failures", false, "Only failed executions")
	auditListCmd.Flags().BoolVar(&auditJSON, "json", false, "Output as JSON")
	auditCmd.AddCommand(auditListCmd)
}
