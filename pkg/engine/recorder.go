package engine

import "time"

// Recorder receives run statistics. Implementations must not affect the run.
type Recorder interface {
	ObserveFamily(family string, randomized bool, elapsed time.Duration)
	CountChanges(family string, phase string, n int)
	ObserveRun(outcome Stage, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveFamily(string, bool, time.Duration) {}
func (nopRecorder) CountChanges(string, string, int)          {}
func (nopRecorder) ObserveRun(Stage, time.Duration)           {}
