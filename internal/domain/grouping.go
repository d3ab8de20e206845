package domain

import "slices"

// GroupingEngine holds the latest grouping result. Each commit replaces it.
type GroupingEngine struct {
	size    int
	pending int
	groups  []Group
	busy    bool
	rng     RNG
}

// NewGroupingEngine creates an engine with the default group size
func NewGroupingEngine(rng RNG) *GroupingEngine {
	return &GroupingEngine{
		size:   DefaultGroupSize,
		groups: make([]Group, 0),
		rng:    rng,
	}
}

// Busy reports whether a grouping is in flight
func (g *GroupingEngine) Busy() bool {
	return g.busy
}

// Size returns the last requested group size
func (g *GroupingEngine) Size() int {
	return g.size
}

// Groups returns a copy of the current result
func (g *GroupingEngine) Groups() []Group {
	return slices.Clone(g.groups)
}

// Clear drops the current result
func (g *GroupingEngine) Clear() {
	g.groups = make([]Group, 0)
}

// Begin validates the request and marks a grouping as in flight
func (g *GroupingEngine) Begin(participants []Participant, size int) error {
	if g.busy {
		return ErrGroupingInProgress
	}
	if len(participants) == 0 {
		return ErrEmptyRegistry
	}
	if err := ValidateGroupSize(size); err != nil {
		return err
	}
	g.busy = true
	g.pending = size
	return nil
}

// Commit partitions participants with the size given to Begin and stores the result
func (g *GroupingEngine) Commit(participants []Participant, label LabelFunc) ([]Group, error) {
	size := g.pending
	defer func() {
		g.busy = false
		g.pending = 0
	}()

	if size == 0 {
		size = g.size
	}

	groups, err := Partition(participants, size, g.rng, label)
	if err != nil {
		return nil, err
	}

	g.size = size
	g.groups = groups
	return slices.Clone(groups), nil
}

// Abort clears the in-flight flag without touching the result
func (g *GroupingEngine) Abort() {
	g.busy = false
	g.pending = 0
}

// Group runs Begin and Commit back to back
func (g *GroupingEngine) Group(participants []Participant, size int, label LabelFunc) ([]Group, error) {
	if err := g.Begin(participants, size); err != nil {
		return nil, err
	}
	return g.Commit(participants, label)
}
