package harvest

import "time"

// Recorder receives run and entity measurements.
type Recorder interface {
	RunFinished(outcome string, duration time.Duration)
	EntityProcessed(kind, outcome string)
	ObjectsDeleted(n int)
}

type nopRecorder struct{}

func (nopRecorder) RunFinished(string, time.Duration) {}
func (nopRecorder) EntityProcessed(string, string) {}
func (nopRecorder) ObjectsDeleted(int) {}
