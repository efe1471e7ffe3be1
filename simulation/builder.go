package simulation

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/xid"

	"github.com/sarchlab/shiba/datarecording"
	"github.com/sarchlab/shiba/hdl"
	"github.com/sarchlab/shiba/monitoring"
	"github.com/sarchlab/shiba/wave"
)

// Builder can be used to build a simulation.
type Builder struct {
	monitorOn      bool
	monitorPort    int
	waveOn         bool
	outputFileName string
}

// MakeBuilder creates a new builder.
func MakeBuilder() Builder {
	return Builder{
		monitorOn: true,
		waveOn:    true,
	}
}

// WithoutMonitoring sets the simulation to not use monitoring.
func (b Builder) WithoutMonitoring() Builder {
	b.monitorOn = false
	return b
}

// WithMonitorPort sets the port number for the monitoring server.
func (b Builder) WithMonitorPort(port int) Builder {
	b.monitorPort = port
	return b
}

// WithoutWaveCapture sets the simulation to not record signal changes.
func (b Builder) WithoutWaveCapture() Builder {
	b.waveOn = false
	return b
}

// WithOutputFileName sets the custom output file name for the data recorder.
func (b Builder) WithOutputFileName(filename string) Builder {
	b.outputFileName = filename
	return b
}

func (b Builder) parametersMustBeValid() {
	if !b.monitorOn && b.monitorPort != 0 {
		panic("monitor port cannot be set when monitoring is disabled")
	}
}

// withEnvOverrides applies settings from the environment, optionally loaded
// from a .env file. SHIBA_MONITOR_PORT overrides the monitoring port and
// SHIBA_WAVE_FILE overrides the output file name.
func (b Builder) withEnvOverrides() Builder {
	_ = godotenv.Load()

	if portString := os.Getenv("SHIBA_MONITOR_PORT"); portString != "" {
		port, err := strconv.Atoi(portString)
		if err != nil {
			panic(err)
		}

		b.monitorPort = port
	}

	if name := os.Getenv("SHIBA_WAVE_FILE"); name != "" {
		b.outputFileName = name
	}

	return b
}

// Build builds the simulation.
func (b Builder) Build() *Simulation {
	b.parametersMustBeValid()
	b = b.withEnvOverrides()

	s := &Simulation{
		signalNameIndex: make(map[string]int),
	}

	s.id = xid.New().String()
	s.kernel = hdl.NewKernel()

	outputPath := b.outputFileName
	if outputPath == "" {
		outputPath = "shiba_wave_" + s.id
	}
	s.dataRecorder = datarecording.New(outputPath)

	if b.waveOn {
		s.waveTracer = wave.NewDBTracer(s.dataRecorder)
		wave.Capture(s.kernel, s.waveTracer)
	}

	if b.monitorOn {
		s.monitor = monitoring.NewMonitor()
		if b.monitorPort > 0 {
			s.monitor.WithPortNumber(b.monitorPort)
		}
		s.monitor.RegisterKernel(s.kernel)
		s.monitor.StartServer()
	}

	return s
}
