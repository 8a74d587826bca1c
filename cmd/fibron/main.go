// Fibron - ISP Access Network Orchestration Tool
//
// A CLI tool for driving subscriber-facing changes on access network
// equipment (OLTs and RouterOS routers) with:
//   - Vendor-abstracted command generation (huawei-olt, zte-olt, vsol-olt, routeros)
//   - Dry-run by default (preview commands, require -x --yes to execute)
//   - Change ledger with rollback
//   - Redis-backed idempotency locks
//   - Audit logging of all executions
//
// Context flags select the device; verbs act on it:
//
//	fibron -d <device> generate <action> [key=value ...]
//	fibron -d <device> execute <action> [key=value ...] [-x --yes]
//	fibron -d <device> rollback <change-id> --yes
//	fibron changes list
//	fibron devices list
//
// Examples:
//
//	fibron -d olt-ny-01 execute authorize_onu frame=1 slot=1 pon=1 onu=5 serial=AB12CD34 vlan=120
//	fibron -d rtr-ny-01 execute disable_pppoe_user user=sub-1042 -x --yes
//	fibron changes list --status applied
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fibron-net/fibron/pkg/audit"
	"github.com/fibron-net/fibron/pkg/engine"
	"github.com/fibron-net/fibron/pkg/ledger"
	"github.com/fibron-net/fibron/pkg/lock"
	"github.com/fibron-net/fibron/pkg/pool"
	"github.com/fibron-net/fibron/pkg/settings"
	"github.com/fibron-net/fibron/pkg/spec"
	"github.com/fibron-net/fibron/pkg/transport"
	"github.com/fibron-net/fibron/pkg/util"
	"github.com/fibron-net/fibron/pkg/version"
)

var (
	// Context flags
	deviceName string // -d, --device

	// Option flags (global)
	inventoryPath string
	actorName     string
	verbose       bool
	jsonLog       bool

	// Global state
	userSettings *settings.Settings
	loader       *spec.Loader
	eng          *engine.Engine
	auditLogger  audit.Logger
	lockManager  *lock.Manager
	connPool     *pool.Pool
)

func main() {
	err := rootCmd.Execute()
	cleanup()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func cleanup() {
	if connPool != nil {
		connPool.DrainAll()
	}
	if lockManager != nil {
		lockManager.Close()
	}
	if auditLogger != nil {
		auditLogger.Close()
	}
}

var rootCmd = &cobra.Command{
	Use:               "fibron",
	Short:             "ISP Access Network Orchestration Tool",
	SilenceUsage:      true,
	SilenceErrors:     true,
	CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
	Long: `Fibron drives subscriber-facing changes on access network equipment.

Write commands preview by default — use -x --yes to execute live.

  fibron -d <device> execute <action> [key=value ...] [-x --yes]`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if isSettingsOrHelp(cmd) {
			return nil
		}

		// Load user settings
		var err error
		userSettings, err = settings.Load()
		if err != nil {
			util.Warnf("Could not load settings: %v", err)
			userSettings = &settings.Settings{}
		}

		// Apply defaults from settings
		if inventoryPath == "" {
			inventoryPath = userSettings.GetInventoryPath()
		}
		if actorName == "" {
			actorName = userSettings.GetActor()
		}

		// Set log level: quiet by default, verbose on -v
		if verbose {
			util.SetLogLevel("debug")
		} else {
			util.SetLogLevel("warn")
		}
		if jsonLog {
			util.SetJSONFormat()
		}

		// Load device inventory
		loader = spec.NewLoader(inventoryPath)
		if err := loader.Load(); err != nil {
			return fmt.Errorf("loading inventory: %w", err)
		}

		// Initialize audit logging; fall back to in-memory if the log
		// path is not writable.
		fileLogger, err := audit.NewFileLogger(userSettings.GetAuditLogPath(), audit.RotationConfig{
			MaxSize:    10 * 1024 * 1024, // 10MB
			MaxBackups: 10,
		})
		if err != nil {
			util.Warnf("Could not initialize audit logging: %v", err)
			auditLogger = audit.NewMemoryLogger(0)
		} else {
			auditLogger = fileLogger
		}

		lockManager = lock.NewManager(userSettings.GetRedisAddr(), 0)

		connPool = pool.New(pool.DefaultConfig(), pool.DefaultDialer(transport.Config{}))
		eng = engine.New(loader, connPool, ledger.New(0), lockManager, auditLogger)

		return nil
	},
}

func isSettingsOrHelp(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "settings", "help", "version", "completion":
			return true
		}
	}
	return false
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&deviceName, "device", "d", "", "Device name (object selector)")
	rootCmd.PersistentFlags().StringVar(&inventoryPath, "inventory", "", "Inventory file path")
	rootCmd.PersistentFlags().StringVar(&actorName, "actor", "", "Actor recorded in the ledger and audit log")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonLog, "json-log", false, "Log in JSON format")

	rootCmd.AddCommand(
		generateCmd, executeCmd, rollbackCmd,
		changesCmd, devicesCmd, auditCmd,
		settingsCmd, versionCmd,
	)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Info())
	},
}
