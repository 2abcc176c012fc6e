// cmd/unaat/slave.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tamzrod/una-at/internal/slave"
	"github.com/tamzrod/una-at/internal/transport"
	"github.com/tamzrod/una-at/internal/una"
)

func newSlaveCmd(g *globalFlags) *cobra.Command {
	var (
		address int
		boardID int
	)

	cmd := &cobra.Command{
		Use:   "slave",
		Short: "Serve a register file as a node on the bus",
		Long: `Act as an UNA AT node. The node answers AT$W= and AT$R= from the
master and serves the registers seeded in slave.registers. Register 0x00
always holds the node identity.`,
		Example: `  unaat slave --device /dev/ttyUSB1 --address 0x05 --board-id 9`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("address") {
				if address < 0 || address > int(una.NodeAddressLast) {
					return fmt.Errorf("node address %d out of range", address)
				}
				cfg.Slave.Address = uint8(address)
			}
			if cmd.Flags().Changed("board-id") {
				if boardID < 0 || boardID > 0xFF {
					return fmt.Errorf("board id %d out of range", boardID)
				}
				cfg.Slave.BoardID = uint8(boardID)
			}

			ctx, cancel := signalContext()
			defer cancel()
			return runSlave(ctx, cfg.Slave.Address, cfg.Slave.BoardID, cfg.Bus.Transport(),
				cfg.Slave.Registers, cfg.SlaveOptions(), newLogger(g.verbose))
		},
	}

	cmd.Flags().IntVar(&address, "address", 0, "Node address (overrides slave.address)")
	cmd.Flags().IntVar(&boardID, "board-id", 0, "Board identifier (overrides slave.board_id)")
	return cmd
}

func runSlave(
	ctx context.Context,
	addr una.NodeAddress,
	boardID uint8,
	tc transport.Config,
	seed map[uint8]uint32,
	opts []slave.Option,
	logger *slog.Logger,
) error {
	node, err := transport.OpenNode(tc, addr)
	if err != nil {
		return err
	}

	regs := newRegisterFile(una.Node{Address: addr, BoardID: boardID}, seed)

	opts = append(opts,
		slave.WithLogger(logger),
		slave.WithRegisterCallbacks(regs.Write, regs.Read),
	)
	s, err := slave.New(node, opts...)
	if err != nil {
		return err
	}
	if err := s.RegisterCommand(regs.dumpCommand(s.Turnaround)); err != nil {
		return err
	}

	logger.Info("node listening", "device", tc.Device, "addr", fmt.Sprintf("0x%02X", addr), "board_id", boardID)

	return serveNode(ctx, node, s)
}

// serveNode feeds the slave from the node port until ctx is done or the port fails.
// Cancellation is a clean stop.
func serveNode(ctx context.Context, node *transport.Node, s *slave.Slave) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// A dead port stops the command loop too.
	errc := make(chan error, 1)
	go func() {
		errc <- node.Run(ctx, s.Feed)
		cancel()
	}()

	runErr := s.Run(ctx)
	if err := <-errc; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}
