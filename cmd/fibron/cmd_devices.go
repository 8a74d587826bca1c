package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fibron-net/fibron/pkg/command"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "Inspect the device inventory",
}

var devicesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List inventory devices",
	RunE: func(cmd *cobra.Command, args []string) error {
		devices := loader.Devices()

		names := make([]string, 0, len(devices))
		for name := range devices {
			names = append(names, name)
		}
		sort.Strings(names)

		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tVENDOR\tADDRESS\tTRANSPORT\tENABLED")
		for _, name := range names {
			d := devices[name]
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%v\n",
				d.Name, d.Vendor, d.Addr(), d.Transport, d.Enabled)
		}
		return w.Flush()
	},
}

var devicesActionsCmd = &cobra.Command{
	Use:   "actions",
	Short: "List supported actions for the selected device",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireDevice(); err != nil {
			return err
		}
		dev, err := loader.Device(deviceName)
		if err != nil {
			return err
		}
		builder, err := command.ForVendor(dev.Vendor)
		if err != nil {
			return err
		}
		for _, a := range builder.Actions() {
			fmt.Println(a)
		}
		return nil
	},
}

func init() {
	devicesCmd.AddCommand(devicesListCmd, devicesActionsCmd)
}
