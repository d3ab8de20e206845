package domain

import (
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Participant is one entry of the imported name list.
// Two participants may share a name; they are told apart by ID.
type Participant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// NewParticipant creates a participant with a fresh ID
func NewParticipant(name string) Participant {
	return Participant{
		ID:   uuid.NewString(),
		Name: name,
	}
}

// RosterEntry is a participant annotated for display
type RosterEntry struct {
	Participant
	Duplicate bool `json:"duplicate"`
}

// Rebuild turns raw names into a fresh participant list. Entries are trimmed,
// blank entries dropped, and repeated names kept as distinct participants.
func Rebuild(names []string) ([]Participant, error) {
	cleaned := NormalizeNames(names)
	if len(cleaned) == 0 {
		return nil, ErrEmptyInput
	}

	return lo.Map(cleaned, func(name string, _ int) Participant {
		return NewParticipant(name)
	}), nil
}

// NormalizeNames trims every entry and drops the empty ones, preserving order
func NormalizeNames(names []string) []string {
	return lo.FilterMap(names, func(name string, _ int) (string, bool) {
		trimmed := strings.TrimSpace(name)
		return trimmed, trimmed != ""
	})
}

// Deduplicate keeps the first participant seen for each distinct name
func Deduplicate(participants []Participant) []Participant {
	return lo.UniqBy(participants, func(p Participant) string {
		return p.Name
	})
}

// Names returns the participant names in order
func Names(participants []Participant) []string {
	return lo.Map(participants, func(p Participant, _ int) string {
		return p.Name
	})
}

// DuplicateNames lists names that occur more than once, in first-seen order
func DuplicateNames(participants []Participant) []string {
	counts := lo.CountValuesBy(participants, func(p Participant) string {
		return p.Name
	})

	return lo.Uniq(lo.FilterMap(participants, func(p Participant, _ int) (string, bool) {
		return p.Name, counts[p.Name] > 1
	}))
}

// Annotate flags every participant whose name is shared with another one
func Annotate(participants []Participant) []RosterEntry {
	dupes := lo.Keyify(DuplicateNames(participants))

	return lo.Map(participants, func(p Participant, _ int) RosterEntry {
		_, dup := dupes[p.Name]
		return RosterEntry{Participant: p, Duplicate: dup}
	})
}
