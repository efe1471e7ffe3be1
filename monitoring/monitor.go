// Package monitoring provides a web interface for inspecting and controlling
// a running simulation.
package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"time"

	// Enable profiling
	_ "net/http/pprof"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sarchlab/shiba/hdl"
)

// Kernel is the view of the simulation kernel that the monitor needs.
type Kernel interface {
	CurrentTime() hdl.VTimeInTicks
	Pause()
	Continue()
	Run() error
	Processes() []*hdl.Process
}

// Monitor can turn a simulation into a server and allows external monitoring
// and controlling of the simulation.
type Monitor struct {
	kernel     Kernel
	signals    []*hdl.Signal
	portNumber int
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// RegisterKernel registers the kernel that drives the simulation.
func (m *Monitor) RegisterKernel(k Kernel) {
	m.kernel = k
}

// RegisterSignal registers a signal to be monitored.
func (m *Monitor) RegisterSignal(s *hdl.Signal) {
	m.signals = append(m.signals, s)
}

// StartServer starts the monitor as a web server with a custom port if wanted.
func (m *Monitor) StartServer() {
	r := mux.NewRouter()

	r.HandleFunc("/api/pause", m.pauseKernel)
	r.HandleFunc("/api/continue", m.continueKernel)
	r.HandleFunc("/api/now", m.now)
	r.HandleFunc("/api/run", m.run)
	r.HandleFunc("/api/processes", m.listProcesses)
	r.HandleFunc("/api/process/{name}", m.listProcessDetails)
	r.HandleFunc("/api/signals", m.listSignals)
	r.HandleFunc("/api/signal/{name}", m.listSignalDetails)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	http.Handle("/", r)

	actualPort := ":0"
	if m.portNumber >= 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	fmt.Fprintf(
		os.Stderr,
		"Monitoring simulation with http://localhost:%d\n",
		listener.Addr().(*net.TCPAddr).Port)

	go func() {
		err = http.Serve(listener, nil)
		dieOnErr(err)
	}()
}

func (m *Monitor) pauseKernel(w http.ResponseWriter, _ *http.Request) {
	m.kernel.Pause()
	_, err := w.Write(nil)
	dieOnErr(err)
}

func (m *Monitor) continueKernel(w http.ResponseWriter, _ *http.Request) {
	m.kernel.Continue()
	_, err := w.Write(nil)
	dieOnErr(err)
}

func (m *Monitor) now(w http.ResponseWriter, _ *http.Request) {
	now := m.kernel.CurrentTime()
	fmt.Fprintf(w, "{\"now\":%d}", now)
}

func (m *Monitor) run(_ http.ResponseWriter, _ *http.Request) {
	go func() {
		err := m.kernel.Run()
		if err != nil {
			panic(err)
		}
	}()
}

func (m *Monitor) listProcesses(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprint(w, "[")
	for i, p := range m.kernel.Processes() {
		if i > 0 {
			fmt.Fprint(w, ",")
		}

		fmt.Fprintf(w, "\"%s\"", p.Name())
	}
	fmt.Fprint(w, "]")
}

func (m *Monitor) listProcessDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	process := m.findProcessOr404(w, name)
	if process == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(process)
	serializer.SetMaxDepth(1)
	err := serializer.Serialize(w)

	dieOnErr(err)
}

func (m *Monitor) listSignals(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprint(w, "[")
	for i, s := range m.signals {
		if i > 0 {
			fmt.Fprint(w, ",")
		}

		fmt.Fprintf(w, "{\"name\":\"%s\",\"value\":%d}", s.Name(), s.Value())
	}
	fmt.Fprint(w, "]")
}

func (m *Monitor) listSignalDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	signal := m.findSignalOr404(w, name)
	if signal == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(signal)
	serializer.SetMaxDepth(1)
	err := serializer.Serialize(w)

	dieOnErr(err)
}

func (m *Monitor) findProcessOr404(
	w http.ResponseWriter,
	name string,
) *hdl.Process {
	var process *hdl.Process
	for _, p := range m.kernel.Processes() {
		if p.Name() == name {
			process = p
		}
	}

	if process == nil {
		w.WriteHeader(http.StatusNotFound)
		_, err := w.Write([]byte("Process not found"))
		dieOnErr(err)
	}

	return process
}

func (m *Monitor) findSignalOr404(
	w http.ResponseWriter,
	name string,
) *hdl.Signal {
	var signal *hdl.Signal
	for _, s := range m.signals {
		if s.Name() == name {
			signal = s
		}
	}

	if signal == nil {
		w.WriteHeader(http.StatusNotFound)
		_, err := w.Write([]byte("Signal not found"))
		dieOnErr(err)
	}

	return signal
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	rsp := resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	}

	bytes, err := json.Marshal(rsp)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	dieOnErr(err)

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	bytes, err := json.Marshal(prof)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
