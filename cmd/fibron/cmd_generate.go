package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var generateJSON bool

var generateCmd = &cobra.Command{
	Use:   "generate <action> [key=value ...]",
	Short: "Generate commands for an action without executing",
	Long: `Generate the vendor command sequence for an action, plus its
rollback sequence when the action is reversible. Nothing touches the
device.

Examples:
  fibron -d olt-ny-01 generate authorize_onu frame=1 slot=1 pon=1 onu=5 serial=AB12CD34 vlan=120
  fibron -d rtr-ny-01 generate set_queue_limit user=sub-1042 rate=100M/20M --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireDevice(); err != nil {
			return err
		}

		payload, err := parsePayload(args[1:])
		if err != nil {
			return err
		}

		dev, set, err := eng.Generate(deviceName, args[0], payload)
		if err != nil {
			return err
		}

		if generateJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(set)
		}

		fmt.Printf("Commands for %s (%s, category %s):\n", dev.Name, dev.Vendor, set.Category)
		for i, c := range set.Commands {
			fmt.Printf("%3d  %s\n", i+1, c)
		}
		if set.Reversible() {
			fmt.Println("\nRollback:")
			for i, c := range set.Rollback {
				fmt.Printf("%3d  %s\n", i+1, c)
			}
		} else if !set.ReadOnly() {
			fmt.Println("\nNot reversible: no rollback will be available.")
		}
		return nil
	},
}

func init() {
	generateCmd.Flags().BoolVar(&generateJSON, "json", false, "Output as JSON")
}
