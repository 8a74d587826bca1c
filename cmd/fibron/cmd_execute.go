package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/fibron-net/fibron/pkg/command"
	"github.com/fibron-net/fibron/pkg/device"
	"github.com/fibron-net/fibron/pkg/engine"
	"github.com/fibron-net/fibron/pkg/util"
)

var (
	executeMode  bool // -x, --execute
	yesFlag      bool // --yes
	simulateFlag bool // --simulate
)

// parsePayload converts key=value arguments into a payload. Values stay
// strings; the builders coerce numerics.
func parsePayload(args []string) (command.Payload, error) {
	p := command.Payload{}
	for _, arg := range args {
		key, value, found := strings.Cut(arg, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("argument %q is not key=value", arg)
		}
		p[key] = value
	}
	return p, nil
}

func requireDevice() error {
	if deviceName == "" {
		return fmt.Errorf("no device selected: use -d <device>")
	}
	return nil
}

// promptCredentials fills in a password interactively when the
// inventory carries none for the device. Never echoed, never logged.
func promptCredentials() error {
	dev, err := loader.Device(deviceName)
	if err != nil {
		return err
	}
	if _, err := dev.ResolveCredentials(); err == nil {
		return nil
	}

	fmt.Fprintf(os.Stderr, "Password for %s: ", deviceName)
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}
	dev.SetInlineCredentials(device.Credentials{Username: os.Getenv("USER"), Password: string(pw)})
	return nil
}

var executeCmd = &cobra.Command{
	Use:   "execute <action> [key=value ...]",
	Short: "Execute a vendor action on a device",
	Long: `Execute a vendor action on the selected device.

Runs as a dry-run by default: the device is probed for reachability and
the generated commands are listed, but nothing is sent. Use -x --yes to
execute live. Use --simulate to skip even the reachability probe.

Examples:
  fibron -d olt-ny-01 execute authorize_onu frame=1 slot=1 pon=1 onu=5 serial=AB12CD34 vlan=120
  fibron -d olt-ny-01 execute onu_status frame=1 slot=1 pon=1 onu=5 -x --yes
  fibron -d rtr-ny-01 execute disable_pppoe_user user=sub-1042 -x --yes`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireDevice(); err != nil {
			return err
		}
		if executeMode && !yesFlag {
			return fmt.Errorf("live execution requires --yes alongside -x")
		}
		if executeMode && simulateFlag {
			return fmt.Errorf("--simulate and -x are mutually exclusive")
		}

		payload, err := parsePayload(args[1:])
		if err != nil {
			return err
		}

		mode := engine.RunModeDryRun
		switch {
		case simulateFlag:
			mode = engine.RunModeSimulate
		case executeMode:
			mode = engine.RunModeLive
			if err := promptCredentials(); err != nil {
				return err
			}
		}

		res, err := eng.Execute(context.Background(), engine.Request{
			Device:      deviceName,
			Action:      args[0],
			Payload:     payload,
			RunMode:     mode,
			Actor:       actorName,
			LiveConfirm: executeMode && yesFlag,
		})
		if err != nil {
			if errors.Is(err, util.ErrLockBusy) {
				fmt.Printf("Skipped: %v\n", err)
				return nil
			}
			return err
		}

		printResult(res)
		return nil
	},
}

func printResult(res *engine.Result) {
	switch res.RunMode {
	case engine.RunModeSimulate:
		fmt.Printf("Simulation for %s (%s):\n%s", res.Device, res.Action, res.Transcript)
	case engine.RunModeDryRun:
		fmt.Printf("Dry-run for %s (%s), change %s:\n%s", res.Device, res.Action, res.ChangeID, res.Transcript)
		fmt.Println("\nRe-run with -x --yes to execute.")
	case engine.RunModeLive:
		status := "FAILED"
		switch {
		case res.Applied:
			status = "applied"
		case res.RolledBack:
			status = "rolled back"
		}
		fmt.Printf("Change %s on %s: %s (%d commands in %s)\n",
			res.ChangeID, res.Device, status, len(res.Commands), res.Duration.Round(0))
		if res.Unprotected {
			fmt.Println("WARNING: executed without idempotency protection (lock backend unavailable)")
		}
		if verbose && res.Transcript != "" {
			fmt.Println(res.Transcript)
		}
	}
}

var rollbackCmd = &cobra.Command{
	Use:   "rollback <change-id>",
	Short: "Roll back an applied change",
	Long: `Roll back a previously applied change by executing its stored
rollback commands live on the device.

Examples:
  fibron -d olt-ny-01 rollback chg-20260824T101500.000-1a2b3c4d --yes`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireDevice(); err != nil {
			return err
		}
		if !yesFlag {
			return fmt.Errorf("rollback executes live: confirm with --yes")
		}
		if err := promptCredentials(); err != nil {
			return err
		}

		res, err := eng.Rollback(context.Background(), deviceName, args[0], actorName)
		if err != nil {
			return err
		}
		fmt.Printf("Change %s on %s rolled back (%d commands in %s)\n",
			res.ChangeID, res.Device, len(res.Commands), res.Duration.Round(0))
		return nil
	},
}

func init() {
	executeCmd.Flags().BoolVarP(&executeMode, "execute", "x", false, "Execute live (requires --yes)")
	executeCmd.Flags().BoolVar(&yesFlag, "yes", false, "Confirm live execution")
	executeCmd.Flags().BoolVar(&simulateFlag, "simulate", false, "Render commands without any device contact")
	rollbackCmd.Flags().BoolVar(&yesFlag, "yes", false, "Confirm live rollback")
}
