// Package tank derives volume and consumption figures from tank level readings.
package tank

import (
	"math"
	"sync"
)

// Volume returns the liquid volume of a cylindrical tank.
func Volume(diameter, level float64) float64 {
	radius := diameter / 2
	return math.Pi * radius * radius * level
}

// Tracker remembers the last level reported for each tank.
type Tracker struct {
	mu             sync.Mutex
	previousLevels map[string]float64
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{previousLevels: make(map[string]float64)}
}

// Record computes the volume for level and the consumption added since the
// previous level of the same tank, then stores level as the new baseline.
// The first observation of a tank yields zero consumption.
//
// apply, if non-nil, receives the results while the tracker is still locked
// so writes for one tank happen in baseline order.
func (t *Tracker) Record(tankName string, diameter, level float64, apply func(volume, added float64) error) (volume, added float64, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	volume = Volume(diameter, level)
	if prev, ok := t.previousLevels[tankName]; ok {
		added = volume - Volume(diameter, prev)
	}
	t.previousLevels[tankName] = level

	if apply != nil {
		err = apply(volume, added)
	}
	return volume, added, err
}

// PreviousLevel returns the stored baseline for tankName.
func (t *Tracker) PreviousLevel(tankName string) (float64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	level, ok := t.previousLevels[tankName]
	return level, ok
}
