// Package metrics aggregates per-step training statistics.
package metrics

import "time"

// Window accumulates loss, accuracy and timing across the steps of one
// reporting interval.
type Window struct {
	steps   int
	lossSum float64
	correct int
	data    time.Duration
	compute time.Duration
}

// Record adds one training step to the window.
func (w *Window) Record(loss float32, correct bool, dataTime, computeTime time.Duration) {
	w.steps++
	w.lossSum += float64(loss)
	if correct {
		w.correct++
	}
	w.data += dataTime
	w.compute += computeTime
}

// Steps returns the number of steps recorded since the last snapshot.
func (w *Window) Steps() int {
	return w.steps
}

// Snapshot returns aggregated metrics and resets the window.
func (w *Window) Snapshot() Snapshot {
	snap := Snapshot{
		Steps:   w.steps,
		Correct: w.correct,
	}
	if w.steps > 0 {
		snap.AvgLoss = w.lossSum / float64(w.steps)
		snap.AvgDataMS = (w.data.Seconds() * 1000) / float64(w.steps)
		snap.AvgComputeMS = (w.compute.Seconds() * 1000) / float64(w.steps)
	}
	if total := w.data + w.compute; total > 0 {
		snap.ImagesPerSec = float64(w.steps) / total.Seconds()
	}

	*w = Window{}
	return snap
}

// Snapshot represents loggable metrics for one window.
type Snapshot struct {
	Steps        int
	AvgLoss      float64
	Correct      int // Steps whose prediction matched the label
	ImagesPerSec float64
	AvgDataMS    float64
	AvgComputeMS float64
}

// Total accumulates window snapshots over a whole run.
type Total struct {
	Steps   int
	Correct int
}

// Add folds a snapshot into the total.
func (t *Total) Add(s Snapshot) {
	t.Steps += s.Steps
	t.Correct += s.Correct
}

// Accuracy returns Correct / n as a fraction. It returns 0 when n is not
// positive.
func (t *Total) Accuracy(n int) float64 {
	if n <= 0 {
		return 0
	}
	return float64(t.Correct) / float64(n)
}
