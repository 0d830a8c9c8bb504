// Command impairctl is the operator-facing command-line front end over
// pkg/controller.MainController: one rootCmd in main.go with persistent
// flags, one file per subcommand group registering itself from init().
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
	version = "dev"
)

var rootCmd = &cobra.Command{
	Use:     "impairctl",
	Short:   "Control plane for a network-impairment emulator chassis",
	Long:    `impairctl manages testers, reservations, shadow filters, and impairments on an impairment chassis over its control-plane SDK.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is./impairctl.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(testerCmd)
	rootCmd.AddCommand(reserveCmd)
	rootCmd.AddCommand(filterCmd)
	rootCmd.AddCommand(impairmentCmd)
}

// Commands are defined in separate files:
// - testerCmd in tester.go
// - reserveCmd in reserve.go
// - filterCmd in filter.go
// - impairmentCmd in impairment.go

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
