package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fibron-net/fibron/pkg/settings"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage persistent settings",
	Long: `Manage persistent settings stored in ~/.fibron/settings.json.

Settings provide defaults for flags:
  - default_actor:   Used when --actor is not specified
  - inventory_path:  Device inventory location
  - audit_log_path:  Audit log location
  - redis_addr:      Idempotency lock backend

Examples:
  fibron settings show
  fibron settings set actor noc-team
  fibron settings set redis 10.1.1.5:6379
  fibron settings clear`,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := settings.Load()
		if err != nil {
			return fmt.Errorf("loading settings: %w", err)
		}

		fmt.Printf("Settings file: %s\n\n", settings.DefaultSettingsPath())

		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintln(w, "SETTING\tVALUE")
		printSetting := func(name, value string) {
			if value == "" {
				value = "(not set)"
			}
			fmt.Fprintf(w, "%s\t%s\n", name, value)
		}

		printSetting("default_actor", s.DefaultActor)
		printSetting("inventory_path", s.InventoryPath)
		printSetting("audit_log_path", s.AuditLogPath)
		printSetting("redis_addr", s.RedisAddr)

		return w.Flush()
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <setting> <value>",
	Short: "Set a setting value",
	Long: `Set a persistent setting value.

Available settings:
  actor      - Default actor for the ledger and audit log
  inventory  - Device inventory path (--inventory flag default)
  audit-log  - Audit log path
  redis      - Lock backend address

Examples:
  fibron settings set actor noc-team
  fibron settings set inventory /srv/fibron/inventory.yaml`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		setting := args[0]
		value := args[1]

		s, err := settings.Load()
		if err != nil {
			s = &settings.Settings{}
		}

		switch setting {
		case "actor":
			s.DefaultActor = value
		case "inventory":
			s.InventoryPath = value
		case "audit-log":
			s.AuditLogPath = value
		case "redis":
			s.RedisAddr = value
		default:
			return fmt.Errorf("unknown setting %q (use: actor, inventory, audit-log, redis)", setting)
		}

		if err := s.Save(); err != nil {
			return fmt.Errorf("saving settings: %w", err)
		}
		fmt.Printf("Set %s = %s\n", setting, value)
		return nil
	},
}

var settingsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Reset all settings to defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		s := &settings.Settings{}
		if err := s.Save(); err != nil {
			return fmt.Errorf("saving settings: %w", err)
		}
		fmt.Println("Settings cleared.")
		return nil
	},
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd, settingsClearCmd)
}
