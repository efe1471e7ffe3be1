package cmd

import (
	"fmt"
	"log"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sarchlab/shiba/examples/counter"
	"github.com/sarchlab/shiba/examples/toggler"
	"github.com/sarchlab/shiba/hdl"
	"github.com/sarchlab/shiba/simulation"
)

var runCmd = &cobra.Command{
	Use:   "run [counter|toggler]",
	Short: "Run one of the bundled example simulations",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cmd.SilenceUsage = true

		builder := simulation.MakeBuilder()

		noMonitor, _ := cmd.Flags().GetBool("no-monitor")
		if noMonitor {
			builder = builder.WithoutMonitoring()
		}

		monitorPort, _ := cmd.Flags().GetInt("monitor-port")
		if monitorPort != 0 {
			builder = builder.WithMonitorPort(monitorPort)
		}

		noWave, _ := cmd.Flags().GetBool("no-wave")
		if noWave {
			builder = builder.WithoutWaveCapture()
		}

		output, _ := cmd.Flags().GetString("output")
		if output != "" {
			builder = builder.WithOutputFileName(output)
		}

		s := builder.Build()
		registerDesign(s, args[0])

		err := s.Kernel().Run()
		if err != nil {
			log.Fatalf("Error running simulation: %v", err)
		}

		fmt.Printf("Simulation ended at tick %s\n",
			humanize.Comma(int64(s.Kernel().CurrentTime())))

		s.Terminate()
	},
}

func registerDesign(s *simulation.Simulation, name string) {
	var signals []*hdl.Signal

	switch name {
	case "counter":
		d := counter.Build(s.Kernel())
		signals = []*hdl.Signal{d.Clk, d.Reset, d.Enable, d.Count}
	case "toggler":
		d := toggler.Build(s.Kernel())
		signals = []*hdl.Signal{d.Out}
	default:
		log.Fatalf("Error: unknown design %s", name)
	}

	for _, sig := range signals {
		s.RegisterSignal(sig)
	}
}

func init() {
	runCmd.Flags().Bool("no-monitor", false,
		"disable the monitoring server")
	runCmd.Flags().Int("monitor-port", 0,
		"port for the monitoring server")
	runCmd.Flags().Bool("no-wave", false,
		"do not record signal changes")
	runCmd.Flags().String("output", "",
		"output file name for the recording database")

	rootCmd.AddCommand(runCmd)
}
