package wave

import (
	"github.com/sarchlab/shiba/datarecording"
	"github.com/tebeka/atexit"
)

// ChangeTableName is the table that holds the recorded signal changes.
const ChangeTableName = "signal_changes"

// DBTracer stores signal changes into a database through a DataRecorder, so
// that a finished run can be inspected change by change.
type DBTracer struct {
	backend datarecording.DataRecorder
}

// NewDBTracer creates a DBTracer on the given backend and prepares the
// signal-change table.
func NewDBTracer(backend datarecording.DataRecorder) *DBTracer {
	t := &DBTracer{backend: backend}

	backend.CreateTable(ChangeTableName, SignalChange{})

	atexit.Register(func() {
		t.Terminate()
	})

	return t
}

// OnCommit records one committed change.
func (t *DBTracer) OnCommit(c SignalChange) {
	t.backend.InsertData(ChangeTableName, c)
}

// Terminate flushes the records that are still buffered.
func (t *DBTracer) Terminate() {
	t.backend.Flush()
}
