package domain

import (
	"fmt"
	"slices"
)

// DefaultGroupSize is used until the operator picks a size
const DefaultGroupSize = 3

// MinGroupSize is the smallest allowed group size
const MinGroupSize = 2

// Group is one chunk of a grouping result
type Group struct {
	ID      int           `json:"id"`   // 1-based
	Name    string        `json:"name"` // derived from ID
	Members []Participant `json:"members"`
}

// LabelFunc derives a group label from its 1-based ID
type LabelFunc func(id int) string

// DefaultLabel is the label used when no localized one is supplied
func DefaultLabel(id int) string {
	return fmt.Sprintf("Group %d", id)
}

// ValidateGroupSize checks a requested group size
func ValidateGroupSize(size int) error {
	if size < MinGroupSize {
		return ErrInvalidGroupSize
	}
	return nil
}

// Partition shuffles a copy of participants and cuts it into groups of size.
// The final group holds the remainder when the count is not divisible by size.
func Partition(participants []Participant, size int, rng RNG, label LabelFunc) ([]Group, error) {
	if len(participants) == 0 {
		return nil, ErrEmptyRegistry
	}
	if err := ValidateGroupSize(size); err != nil {
		return nil, err
	}
	if label == nil {
		label = DefaultLabel
	}

	shuffled := slices.Clone(participants)
	shuffle(shuffled, rng)

	chunks := slices.Collect(slices.Chunk(shuffled, size))
	groups := make([]Group, len(chunks))
	for i, members := range chunks {
		groups[i] = Group{
			ID:      i + 1,
			Name:    label(i + 1),
			Members: members,
		}
	}

	return groups, nil
}

// GroupCount returns ceil(total / size)
func GroupCount(total, size int) int {
	if size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}
