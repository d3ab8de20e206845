package domain

import (
	"slices"
	"time"
)

// DrawSettings holds the operator-controlled draw options
type DrawSettings struct {
	AllowDuplicates bool `json:"allowDuplicates"`
}

// DrawEngine tracks the pool of participants still eligible to win and the
// winners log. A draw is split into Begin and Commit so a spinning display
// can run in between; at most one draw may be in flight.
type DrawEngine struct {
	registry []Participant
	pool     []Participant
	winners  []Winner // most recent first
	settings DrawSettings
	busy     bool
	rng      RNG
}

// NewDrawEngine creates an engine with an empty registry
func NewDrawEngine(rng RNG) *DrawEngine {
	return &DrawEngine{
		registry: make([]Participant, 0),
		pool:     make([]Participant, 0),
		winners:  make([]Winner, 0),
		rng:      rng,
	}
}

// Reset refills the pool from registry and clears the winners log
func (d *DrawEngine) Reset(registry []Participant) {
	d.registry = slices.Clone(registry)
	d.pool = slices.Clone(registry)
	d.winners = make([]Winner, 0)
}

// Restart refills the pool from the current registry
func (d *DrawEngine) Restart() {
	d.Reset(d.registry)
}

// SetAllowDuplicates switches between drawing from the pool and the full registry
func (d *DrawEngine) SetAllowDuplicates(allow bool) {
	d.settings.AllowDuplicates = allow
}

// Settings returns the current draw options
func (d *DrawEngine) Settings() DrawSettings {
	return d.settings
}

// Busy reports whether a draw is in flight
func (d *DrawEngine) Busy() bool {
	return d.busy
}

// universe is the set a draw samples from
func (d *DrawEngine) universe() []Participant {
	if d.settings.AllowDuplicates {
		return d.registry
	}
	return d.pool
}

// Begin marks a draw as in flight after checking there is someone to draw
func (d *DrawEngine) Begin() error {
	if d.busy {
		return ErrDrawInProgress
	}
	if len(d.universe()) == 0 {
		return ErrEmptyPool
	}
	d.busy = true
	return nil
}

// Glimpse returns a random candidate for the spinning display.
// It has no effect on which participant is committed.
func (d *DrawEngine) Glimpse() (Participant, bool) {
	u := d.universe()
	if len(u) == 0 {
		return Participant{}, false
	}
	return u[d.rng.IntN(len(u))], true
}

// Commit picks the winner uniformly from the universe and records it,
// beginning a draw first if none is in flight.
func (d *DrawEngine) Commit(prize string, now time.Time) (Winner, error) {
	if !d.busy {
		if err := d.Begin(); err != nil {
			return Winner{}, err
		}
	}
	defer func() { d.busy = false }()

	u := d.universe()
	if len(u) == 0 {
		return Winner{}, ErrEmptyPool
	}

	picked := u[d.rng.IntN(len(u))]
	winner := NewWinner(picked, prize, now)
	d.winners = slices.Insert(d.winners, 0, winner)

	if !d.settings.AllowDuplicates {
		d.removeFromPool(picked.ID)
	}

	return winner, nil
}

// Abort clears the in-flight flag without recording a winner
func (d *DrawEngine) Abort() {
	d.busy = false
}

// Draw runs Begin and Commit back to back
func (d *DrawEngine) Draw(prize string, now time.Time) (Winner, error) {
	if err := d.Begin(); err != nil {
		return Winner{}, err
	}
	return d.Commit(prize, now)
}

// removeFromPool drops exactly one occurrence of id
func (d *DrawEngine) removeFromPool(id string) {
	idx := slices.IndexFunc(d.pool, func(p Participant) bool {
		return p.ID == id
	})
	if idx >= 0 {
		d.pool = slices.Delete(d.pool, idx, idx+1)
	}
}

// Pool returns a copy of the participants not yet drawn
func (d *DrawEngine) Pool() []Participant {
	return slices.Clone(d.pool)
}

// Winners returns a copy of the winners log, most recent first
func (d *DrawEngine) Winners() []Winner {
	return slices.Clone(d.winners)
}

// Latest returns the most recent winner
func (d *DrawEngine) Latest() (Winner, bool) {
	if len(d.winners) == 0 {
		return Winner{}, false
	}
	return d.winners[0], true
}

// Remaining returns the pool size; limited is false when duplicates are allowed
func (d *DrawEngine) Remaining() (count int, limited bool) {
	if d.settings.AllowDuplicates {
		return len(d.registry), false
	}
	return len(d.pool), true
}
