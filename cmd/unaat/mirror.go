// cmd/unaat/mirror.go
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/tamzrod/una-at/internal/config"
	"github.com/tamzrod/una-at/internal/poller"
	"github.com/tamzrod/una-at/internal/status"
	"github.com/tamzrod/una-at/internal/writer"
)

func newMirrorCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "mirror",
		Short: "Poll node registers and mirror them into Modbus TCP memory",
		Long: `Poll the registers listed in mirror.units on the bus and deliver them
into holding register memories, together with a per-node status block.`,
		Example: `  unaat mirror --config una.yaml`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if g.configPath == "" {
				return errors.New("mirror requires --config")
			}
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			if len(cfg.Mirror.Units) == 0 {
				return errors.New("mirror: no units configured")
			}

			ctx, cancel := signalContext()
			defer cancel()
			return runMirror(ctx, cfg, newLogger(g.verbose))
		},
	}
}

func runMirror(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	m, err := openMaster(cfg, logger)
	if err != nil {
		return err
	}
	defer m.Close()

	// ---- writer clients (DATA + STATUS), shared by all units ----
	clients, closeWriters, err := writer.BuildEndpointClients(cfg.Mirror)
	if err != nil {
		return err
	}
	defer closeWriters()

	// --------------------
	// Build per-unit pipelines
	// --------------------

	for _, unit := range cfg.Mirror.Units {
		p, err := poller.Build(unit, m)
		if err != nil {
			log.Printf("poller build failed (unit=%s): %v", unit.ID, err)
			return err
		}

		plan, err := writer.BuildPlan(unit, cfg.Mirror.StatusMemory)
		if err != nil {
			log.Printf("writer plan failed (unit=%s): %v", unit.ID, err)
			return err
		}

		dataWriter := writer.New(plan, clients)
		statusWriter, statusEnabled := writer.NewDeviceStatusWriter(plan, clients)

		// ---- channel between poller and orchestrator ----
		out := make(chan poller.PollResult)

		go orchestrate(ctx, unit.ID, out, dataWriter, statusWriter, statusEnabled)
		go p.Run(ctx, out)
	}

	log.Printf("mirror running: %d unit(s)", len(cfg.Mirror.Units))
	<-ctx.Done()
	return nil
}

// orchestrate owns the unit status state and the 1Hz seconds ticker.
func orchestrate(
	ctx context.Context,
	unitID string,
	in <-chan poller.PollResult,
	dataWriter writer.Writer,
	statusWriter writer.StatusWriter,
	statusEnabled bool,
) {
	tracker := status.NewTracker()

	secTicker := time.NewTicker(time.Second)
	defer secTicker.Stop()

	writeStatus := func(what string) {
		if err := statusWriter.WriteStatus(tracker.Snapshot()); err != nil {
			log.Printf("status %s failed (unit=%s): %v", what, unitID, err)
		}
	}

	// Full block write on start (identity re-assert) if enabled.
	if statusEnabled {
		writeStatus("write on start")
	}

	for {
		select {
		case <-ctx.Done():
			return

		case res := <-in:
			// --- data delivery ---
			if err := dataWriter.Write(res); err != nil {
				log.Printf("writer error (unit=%s): %v", unitID, err)
			}
			if res.Err != nil {
				log.Printf("poll failed (unit=%s): %v", unitID, res.Err)
			}

			// --- status update (node-level truth) ---
			if statusEnabled && tracker.Observe(res.Err) {
				writeStatus("write")
			}

		case <-secTicker.C:
			// Tick 1 Hz while not OK.
			if statusEnabled && tracker.Tick() {
				writeStatus("seconds tick write")
			}
		}
	}
}
