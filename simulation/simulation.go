// Package simulation assembles the kernel with the recording and monitoring
// services that a full simulation needs.
package simulation

import (
	"github.com/sarchlab/shiba/datarecording"
	"github.com/sarchlab/shiba/hdl"
	"github.com/sarchlab/shiba/monitoring"
	"github.com/sarchlab/shiba/wave"
)

// A Simulation provides the services required to define a simulation.
type Simulation struct {
	id     string
	kernel *hdl.Kernel

	dataRecorder datarecording.DataRecorder
	monitor      *monitoring.Monitor
	waveTracer   *wave.DBTracer

	signals         []*hdl.Signal
	signalNameIndex map[string]int
}

// ID returns the unique ID of the simulation.
func (s *Simulation) ID() string {
	return s.id
}

// Kernel returns the kernel that drives the simulation.
func (s *Simulation) Kernel() *hdl.Kernel {
	return s.kernel
}

// DataRecorder returns the data recorder used in the simulation.
func (s *Simulation) DataRecorder() datarecording.DataRecorder {
	return s.dataRecorder
}

// Monitor returns the monitor used in the simulation. It is nil when
// monitoring is disabled.
func (s *Simulation) Monitor() *monitoring.Monitor {
	return s.monitor
}

// WaveTracer returns the tracer that records signal changes. It is nil when
// wave capturing is disabled.
func (s *Simulation) WaveTracer() *wave.DBTracer {
	return s.waveTracer
}

// RegisterSignal registers a signal with the simulation so that it can be
// looked up by name and watched through the monitor.
func (s *Simulation) RegisterSignal(sig *hdl.Signal) {
	name := sig.Name()
	if _, ok := s.signalNameIndex[name]; ok {
		panic("signal " + name + " already registered")
	}

	s.signals = append(s.signals, sig)
	s.signalNameIndex[name] = len(s.signals) - 1

	if s.monitor != nil {
		s.monitor.RegisterSignal(sig)
	}
}

// GetSignalByName returns the signal with the given name, or nil if no signal
// with that name is registered.
func (s *Simulation) GetSignalByName(name string) *hdl.Signal {
	idx, ok := s.signalNameIndex[name]
	if !ok {
		return nil
	}

	return s.signals[idx]
}

// Signals returns all the registered signals in registration order.
func (s *Simulation) Signals() []*hdl.Signal {
	return s.signals
}

// Terminate terminates the simulation.
func (s *Simulation) Terminate() {
	s.dataRecorder.Close()
	s.kernel.Dispose()
}
