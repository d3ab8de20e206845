package app

import "time"

// Timing controls the cosmetic animations of draws and groupings
type Timing struct {
	SpinDuration     time.Duration // total spin length before the winner is committed
	SpinInitialDelay time.Duration // delay between the first ticks
	SpinSlowdownStep time.Duration // added to the delay per tick in the last 30% of the spin
	GroupingDelay    time.Duration
}

// DefaultTiming returns the default animation timing
func DefaultTiming() Timing {
	return Timing{
		SpinDuration:     2500 * time.Millisecond,
		SpinInitialDelay: 50 * time.Millisecond,
		SpinSlowdownStep: 15 * time.Millisecond,
		GroupingDelay:    600 * time.Millisecond,
	}
}

// normalize replaces values that would make the spin unbounded
func (t Timing) normalize() Timing {
	def := DefaultTiming()
	if t.SpinDuration <= 0 {
		t.SpinDuration = def.SpinDuration
	}
	if t.SpinInitialDelay <= 0 {
		t.SpinInitialDelay = def.SpinInitialDelay
	}
	if t.SpinSlowdownStep < 0 {
		t.SpinSlowdownStep = 0
	}
	if t.GroupingDelay < 0 {
		t.GroupingDelay = 0
	}
	return t
}

// SpinSchedule returns the delay before each animation tick. The first tick
// fires immediately and the last one commits the winner. Each tick advances
// the elapsed time by the current delay; past 70% of SpinDuration the delay
// grows by SpinSlowdownStep so the spin visibly slows down.
func (t Timing) SpinSchedule() []time.Duration {
	t = t.normalize()

	delays := []time.Duration{0}
	elapsed := time.Duration(0)
	speed := t.SpinInitialDelay
	for {
		elapsed += speed
		if elapsed >= t.SpinDuration {
			return delays
		}
		if elapsed*10 > t.SpinDuration*7 {
			speed += t.SpinSlowdownStep
		}
		delays = append(delays, speed)
	}
}

// Total returns the sum of a schedule
func Total(schedule []time.Duration) time.Duration {
	var total time.Duration
	for _, d := range schedule {
		total += d
	}
	return total
}
