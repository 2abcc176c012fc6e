// cmd/unaat/access.go
package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tamzrod/una-at/internal/una"
)

func newScanCmd(g *globalFlags) *cobra.Command {
	var maxNodes int

	cmd := &cobra.Command{
		Use:     "scan",
		Short:   "Discover the nodes present on the bus",
		Example: `  unaat scan --device /dev/ttyUSB0 --max 16`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			m, err := openMaster(cfg, newLogger(g.verbose))
			if err != nil {
				return err
			}
			defer m.Close()

			ctx, cancel := signalContext()
			defer cancel()

			nodes, err := m.Scan(ctx, maxNodes)
			for _, n := range nodes {
				fmt.Fprintf(cmd.OutOrStdout(), "0x%02X\tboard %d\n", n.Address, n.BoardID)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d node(s) found\n", len(nodes))
			return nil
		},
	}

	cmd.Flags().IntVar(&maxNodes, "max", int(una.NodeAddressLast)+1, "Stop after this many nodes")
	return cmd
}

func newReadCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "read <node> <register>",
		Short:   "Read one node register",
		Example: `  unaat read 0x05 0x00`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			node, err := parseNode(args[0])
			if err != nil {
				return err
			}
			reg, err := parseRegister(args[1])
			if err != nil {
				return err
			}

			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			m, err := openMaster(cfg, newLogger(g.verbose))
			if err != nil {
				return err
			}
			defer m.Close()

			ctx, cancel := signalContext()
			defer cancel()

			params := accessParams(cfg, node, reg, una.ReplyValue)
			v, st, err := m.ReadRegister(ctx, params)
			if err != nil {
				return err
			}
			if err := statusError(params, st); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "0x%08X\n", v)
			return nil
		},
	}
	return cmd
}

func newWriteCmd(g *globalFlags) *cobra.Command {
	var noReply bool

	cmd := &cobra.Command{
		Use:   "write <node> <register> <value> [mask]",
		Short: "Write one node register, optionally under a bit mask",
		Example: `  unaat write 0x05 0x06 0x1234
  unaat write 0x05 0x06 0x10 0x00FF`,
		Args: cobra.RangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			node, err := parseNode(args[0])
			if err != nil {
				return err
			}
			reg, err := parseRegister(args[1])
			if err != nil {
				return err
			}
			value, err := parseUint("value", args[2], 32)
			if err != nil {
				return err
			}
			mask := uint64(una.RegisterMaskAll)
			if len(args) == 4 {
				if mask, err = parseUint("mask", args[3], 32); err != nil {
					return err
				}
			}

			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			m, err := openMaster(cfg, newLogger(g.verbose))
			if err != nil {
				return err
			}
			defer m.Close()

			ctx, cancel := signalContext()
			defer cancel()

			reply := una.ReplyOK
			if noReply {
				reply = una.ReplyNone
			}
			params := accessParams(cfg, node, reg, reply)
			st, err := m.WriteRegister(ctx, params, uint32(value), uint32(mask))
			if err != nil {
				return err
			}
			return statusError(params, st)
		},
	}

	cmd.Flags().BoolVar(&noReply, "no-reply", false, "Do not wait for the node acknowledgement")
	return cmd
}

func newSendCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "send <node> <command...>",
		Short:   "Send a raw command line to a node without waiting for a reply",
		Example: `  unaat send 0x05 AT$RST`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			node, err := parseNode(args[0])
			if err != nil {
				return err
			}

			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			m, err := openMaster(cfg, newLogger(g.verbose))
			if err != nil {
				return err
			}
			defer m.Close()

			ctx, cancel := signalContext()
			defer cancel()

			return m.SendCommand(ctx, una.CommandParameters{
				NodeAddress: node,
				Command:     strings.Join(args[1:], " "),
			})
		},
	}
	return cmd
}
