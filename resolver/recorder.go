package resolver

import (
	"time"

	"github.com/lokireturns/loki-jsonschema-resolver/pointer"
)

// Recorder receives run progress for metrics collection.
type Recorder interface {
	// PassCompleted is called after each pass with the number of files
	// still deferred.
	PassCompleted(pass, deferred int)
	// ReferenceResolved is called once per bound reference.
	ReferenceResolved(kind pointer.Kind)
	// FileFinished is called with the state of a file at the end of each
	// visit.
	FileFinished(state FileState)
	// RunFinished is called once with the run outcome.
	RunFinished(result *Result, err error, elapsed time.Duration)
}

// NopRecorder discards everything.
type NopRecorder struct{}

// PassCompleted implements Recorder.
func (NopRecorder) PassCompleted(int, int) {}

// ReferenceResolved implements Recorder.
func (NopRecorder) ReferenceResolved(pointer.Kind) {}

// FileFinished implements Recorder.
func (NopRecorder) FileFinished(FileState) {}

// RunFinished implements Recorder.
func (NopRecorder) RunFinished(*Result, error, time.Duration) {}

var _ Recorder = NopRecorder{}
