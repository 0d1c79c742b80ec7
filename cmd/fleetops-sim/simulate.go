package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"fleetops-sim/internal/alert"
	"fleetops-sim/internal/config"
	"fleetops-sim/internal/conflict"
	"fleetops-sim/internal/logging"
	"fleetops-sim/internal/sim"
	"fleetops-sim/internal/web"
)

var version = "dev"

var (
	simPrintOnly  bool
	simConfigPath string
	simSchemaPath string
	simTick       time.Duration
	simLogFile    string
	simListen     string
	simSeed       int64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the real-time fleet simulator",
	Long:  "simulate starts the warehouse fleet simulator, serving the operations API and streaming state to the configured sinks.",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logging.New()

		cfg, err := config.Load(simConfigPath, simSchemaPath)
		if err != nil {
			return err
		}
		if simSeed != 0 {
			cfg.Seed = simSeed
		}

		writer, alertWriter, cleanup, err := newWriters(simPrintOnly, simLogFile)
		if err != nil {
			return err
		}
		defer cleanup()

		fleetID := os.Getenv("FLEET_ID")
		if fleetID == "" {
			fleetID = cfg.FleetID
		}

		tickInterval := simTick
		if envTick := os.Getenv("TICK_INTERVAL"); envTick != "" {
			d, err := time.ParseDuration(envTick)
			if err != nil {
				return err
			}
			tickInterval = d
		}

		ctx, cancel := context.WithCancel(logging.NewContext(context.Background(), log))
		defer cancel()

		layout := sim.BuildLayout(cfg.Facility)
		simulator := sim.NewSimulator(fleetID, cfg, layout, writer, alertWriter, tickInterval)

		store := alert.NewStore(alert.Options{
			MaxActive:    cfg.Engine.MaxActiveAlerts,
			ResolveAfter: cfg.Engine.ResolveAfterTicks,
			RetainTicks:  cfg.Engine.ResolvedRetainTicks,
		})
		engine := conflict.NewEngine(engineConfig(cfg.Engine), layout, store, log)
		simulator.SetEvaluator(engine)
		simulator.SetAlertSource(store)

		srv := web.NewServer(simulator, store, simListen, version)
		simulator.AddBroadcaster(srv.Hub())
		go func() {
			if err := srv.Start(ctx); err != nil && err != http.ErrServerClosed {
				log.Error("api server failed", "error", err)
				cancel()
			}
		}()

		go simulator.Run(ctx)

		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-sigs:
		case <-ctx.Done():
		}

		cancel()
		log.Info("fleet simulation stopped")
		return nil
	},
}

func engineConfig(ec config.EngineConfig) conflict.Config {
	cfg := conflict.DefaultConfig()
	if ec.ProximityRadius > 0 {
		cfg.ProximityRadius = ec.ProximityRadius
	}
	if ec.CollisionHorizonS > 0 {
		cfg.CollisionHorizonS = ec.CollisionHorizonS
	}
	if ec.CollisionStepS > 0 {
		cfg.CollisionStepS = ec.CollisionStepS
	}
	if ec.CollisionThreshold > 0 {
		cfg.CollisionThreshold = ec.CollisionThreshold
	}
	if ec.DeadlockDistance > 0 {
		cfg.DeadlockDistance = ec.DeadlockDistance
	}
	if ec.DeadlockGraceTicks > 0 {
		cfg.DeadlockGraceTicks = ec.DeadlockGraceTicks
	}
	if ec.CongestionDensity > 0 {
		cfg.CongestionDensity = ec.CongestionDensity
	}
	if ec.BlockageLookahead > 0 {
		cfg.BlockageLookahead = ec.BlockageLookahead
	}
	if ec.CorridorWidth > 0 {
		cfg.CorridorWidth = ec.CorridorWidth
	}
	if ec.BatteryWarn > 0 {
		cfg.BatteryWarn = ec.BatteryWarn
	}
	if ec.BatteryCritical > 0 {
		cfg.BatteryCritical = ec.BatteryCritical
	}
	return cfg
}

func init() {
	simulateCmd.Flags().BoolVar(&simPrintOnly, "print-only", false, "Print state rows to STDOUT instead of writing to DB")
	simulateCmd.Flags().StringVar(&simConfigPath, "config", "config/simulation.yaml", "Path to simulation configuration YAML")
	simulateCmd.Flags().StringVar(&simSchemaPath, "schema", "schemas/simulation.cue", "Path to CUE schema file")
	simulateCmd.Flags().DurationVar(&simTick, "tick", 500*time.Millisecond, "Simulation tick interval (e.g. 500ms, 2s)")
	simulateCmd.Flags().StringVar(&simLogFile, "log-file", "", "Path to export state/alert logs (JSONL)")
	simulateCmd.Flags().StringVar(&simListen, "listen", ":8000", "Listen address for the operations API")
	simulateCmd.Flags().Int64Var(&simSeed, "seed", 0, "Random seed (0 uses the config value or the clock)")
}
