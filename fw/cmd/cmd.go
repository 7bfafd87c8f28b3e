package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/named-data/kite/fw/core"
	"github.com/named-data/kite/fw/fw"
	"github.com/named-data/kite/fw/metrics"
	"github.com/named-data/kite/std/utils"
	"github.com/spf13/cobra"
)

// CmdKite is the root command of the kite tool.
var CmdKite = &cobra.Command{
	Use:          "kite",
	Short:        "KITE trace forwarding for mobile producers",
	Version:      utils.KiteVersion,
	SilenceUsage: true,
}

var profiles ProfileFiles

var cmdRun = &cobra.Command{
	Use:   "run SCENARIO-FILE",
	Short: "Play a scenario against the forwarder and print what it sent",
	Args:  cobra.ExactArgs(1),
	RunE:  run,
}

var cmdStrategies = &cobra.Command{
	Use:   "strategies",
	Short: "List the available forwarding strategies",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		printStrategies(cmd)
	},
}

func init() {
	cobra.EnableCommandSorting = false
	CmdKite.CompletionOptions.HiddenDefaultCmd = true

	cmdRun.Flags().StringVar(&profiles.Cpu, "cpu-profile", "", "Write CPU profile to file")
	cmdRun.Flags().StringVar(&profiles.Mem, "mem-profile", "", "Write memory profile to file")
	cmdRun.Flags().StringVar(&profiles.Block, "block-profile", "", "Write block profile to file")

	CmdKite.AddCommand(cmdRun)
	CmdKite.AddCommand(cmdStrategies)
}

func run(cmd *cobra.Command, args []string) error {
	scenario, err := LoadScenario(args[0])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return runScenario(ctx, cmd, scenario)
}

func runScenario(ctx context.Context, cmd *cobra.Command, scenario *Scenario) error {
	runner, err := NewRunner(scenario)
	if err != nil {
		return err
	}
	if err = core.OpenLogger(); err != nil {
		return err
	}
	defer core.CloseLogger()

	profiler := NewProfiler(profiles)
	if err = profiler.Start(); err != nil {
		return err
	}
	defer func() {
		if err := profiler.Stop(); err != nil {
			core.Log.Error(profiler, "Unable to write profiles", "err", err)
		}
	}()

	var service *metrics.Service
	if listen := core.C.Metrics.Listen; runner.Metrics() != nil && listen != "" {
		service, err = metrics.NewService("tcp", listen, runner.Metrics())
		if err != nil {
			return fmt.Errorf("metrics listener: %w", err)
		}
		defer service.Close()

		go func() {
			if err := service.Serve(); err != nil {
				core.Log.Error(service, "Metrics service stopped", "err", err)
			}
		}()
		core.Log.Info(service, "Serving metrics", "addr", service.Addr())
	}

	if err = runner.Run(ctx); err != nil {
		return err
	}
	runner.Report(cmd.OutOrStdout())

	if service != nil {
		// keep serving the final counters until interrupted
		<-ctx.Done()
		core.Log.Info(runner, "Received signal - exit")
	}
	return nil
}

func printStrategies(cmd *cobra.Command) {
	for _, name := range fw.StrategyNames() {
		versions := make([]string, 0, len(fw.StrategyVersions[name]))
		for _, v := range fw.StrategyVersions[name] {
			versions = append(versions, fmt.Sprintf("v=%d", v))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", name, strings.Join(versions, " "))
	}
}
