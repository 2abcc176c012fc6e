// cmd/unaat/main.go
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "unaat",
		Short: "UNA AT half-duplex bus master and node tool",
		Long: `unaat drives UNA AT nodes over a half-duplex serial bus.
It can scan the bus, read and write node registers, act as a node,
and mirror node registers into Modbus TCP holding registers.`,
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&g.configPath, "config", "c", "", "YAML configuration file")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "Enable debug logging")
	pf.StringVar(&g.device, "device", "", "Serial device (overrides bus.device)")
	pf.StringVar(&g.driver, "driver", "", "Serial driver: goburrow or bugst (overrides bus.driver)")
	pf.IntVar(&g.baudRate, "baud", 0, "Baud rate (overrides bus.baud_rate)")

	rootCmd.AddCommand(newScanCmd(g))
	rootCmd.AddCommand(newReadCmd(g))
	rootCmd.AddCommand(newWriteCmd(g))
	rootCmd.AddCommand(newSendCmd(g))
	rootCmd.AddCommand(newSlaveCmd(g))
	rootCmd.AddCommand(newMirrorCmd(g))
	rootCmd.AddCommand(newPortsCmd())

	return rootCmd
}
