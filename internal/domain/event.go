package domain

import (
	"slices"
	"time"
)

// EventSettings holds configurable event parameters
type EventSettings struct {
	MaxParticipants int `json:"maxParticipants"` // 0 means unlimited
}

// DefaultEventSettings returns the default event settings
func DefaultEventSettings() EventSettings {
	return EventSettings{
		MaxParticipants: 5000,
	}
}

// Event is one operator's working set: the participant registry plus the
// draw and grouping views derived from it. Replacing the registry resets both.
type Event struct {
	Code      string        `json:"code"`
	Settings  EventSettings `json:"settings"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`

	participants []Participant
	draw         *DrawEngine
	grouping     *GroupingEngine
}

// NewEvent creates an empty event with the given code
func NewEvent(code string, rng RNG) *Event {
	now := time.Now()
	return &Event{
		Code:         code,
		Settings:     DefaultEventSettings(),
		CreatedAt:    now,
		UpdatedAt:    now,
		participants: make([]Participant, 0),
		draw:         NewDrawEngine(rng),
		grouping:     NewGroupingEngine(rng),
	}
}

// Participants returns a copy of the registry
func (e *Event) Participants() []Participant {
	return slices.Clone(e.participants)
}

// ParticipantCount returns the registry size
func (e *Event) ParticipantCount() int {
	return len(e.participants)
}

// Activity reports what is currently in flight
func (e *Event) Activity() Activity {
	switch {
	case e.draw.Busy():
		return ActivityDrawing
	case e.grouping.Busy():
		return ActivityGrouping
	default:
		return ActivityIdle
	}
}

// SetParticipants rebuilds the registry from raw names
func (e *Event) SetParticipants(names []string) ([]Participant, error) {
	if !e.Activity().IsIdle() {
		return nil, ErrEventBusy
	}

	participants, err := Rebuild(names)
	if err != nil {
		return nil, err
	}

	if e.Settings.MaxParticipants > 0 && len(participants) > e.Settings.MaxParticipants {
		return nil, ErrTooManyParticipants
	}

	e.replace(participants)
	return e.Participants(), nil
}

// Deduplicate rebuilds the registry with one participant per distinct name
func (e *Event) Deduplicate() ([]Participant, error) {
	if !e.Activity().IsIdle() {
		return nil, ErrEventBusy
	}
	if len(e.participants) == 0 {
		return nil, ErrEmptyRegistry
	}

	return e.SetParticipants(Names(Deduplicate(e.participants)))
}

// Clear empties the registry
func (e *Event) Clear() error {
	if !e.Activity().IsIdle() {
		return ErrEventBusy
	}

	e.replace(make([]Participant, 0))
	return nil
}

// replace swaps the registry and resets the derived views
func (e *Event) replace(participants []Participant) {
	e.participants = participants
	e.draw.Reset(participants)
	e.grouping.Clear()
	e.touch()
}

// SetAllowDuplicates changes the draw mode
func (e *Event) SetAllowDuplicates(allow bool) error {
	if e.draw.Busy() {
		return ErrDrawInProgress
	}
	e.draw.SetAllowDuplicates(allow)
	e.touch()
	return nil
}

// DrawSettings returns the current draw options
func (e *Event) DrawSettings() DrawSettings {
	return e.draw.Settings()
}

// BeginDraw marks a draw as in flight
func (e *Event) BeginDraw() error {
	if err := e.draw.Begin(); err != nil {
		return err
	}
	e.touch()
	return nil
}

// DrawGlimpse returns a cosmetic random candidate for the spinning display
func (e *Event) DrawGlimpse() (Participant, bool) {
	return e.draw.Glimpse()
}

// CommitDraw finishes the in-flight draw
func (e *Event) CommitDraw(prize string, now time.Time) (Winner, error) {
	w, err := e.draw.Commit(prize, now)
	if err != nil {
		return Winner{}, err
	}
	e.touch()
	return w, nil
}

// AbortDraw releases the draw without recording a winner
func (e *Event) AbortDraw() {
	e.draw.Abort()
}

// ResetDraw refills the pool and clears the winners log
func (e *Event) ResetDraw() error {
	if e.draw.Busy() {
		return ErrDrawInProgress
	}
	e.draw.Restart()
	e.touch()
	return nil
}

// Winners returns the winners log, most recent first
func (e *Event) Winners() []Winner {
	return e.draw.Winners()
}

// BeginGrouping validates size and marks a grouping as in flight
func (e *Event) BeginGrouping(size int) error {
	if err := e.grouping.Begin(e.participants, size); err != nil {
		return err
	}
	e.touch()
	return nil
}

// CommitGrouping finishes the in-flight grouping
func (e *Event) CommitGrouping(label LabelFunc) ([]Group, error) {
	groups, err := e.grouping.Commit(e.participants, label)
	if err != nil {
		return nil, err
	}
	e.touch()
	return groups, nil
}

// AbortGrouping releases the grouping without changing the result
func (e *Event) AbortGrouping() {
	e.grouping.Abort()
}

// Groups returns the current grouping result
func (e *Event) Groups() []Group {
	return e.grouping.Groups()
}

func (e *Event) touch() {
	e.UpdatedAt = time.Now()
}

// DrawState is the draw part of a snapshot
type DrawState struct {
	Settings  DrawSettings   `json:"settings"`
	Remaining int            `json:"remaining"`
	Limited   bool           `json:"limited"`
	Winners   []RankedWinner `json:"winners"`
	Latest    *Winner        `json:"latest,omitempty"`
	Drawing   bool           `json:"drawing"`
}

// GroupingState is the grouping part of a snapshot
type GroupingState struct {
	Size     int     `json:"size"`
	Groups   []Group `json:"groups"`
	Grouping bool    `json:"grouping"`
}

// Snapshot is the full read model of an event
type Snapshot struct {
	Code           string        `json:"eventCode"`
	Activity       Activity      `json:"activity"`
	Participants   []RosterEntry `json:"participants"`
	DuplicateNames []string      `json:"duplicateNames"`
	Draw           DrawState     `json:"draw"`
	Grouping       GroupingState `json:"grouping"`
	CreatedAt      time.Time     `json:"createdAt"`
}

// Snapshot returns the current state for broadcasting
func (e *Event) Snapshot() *Snapshot {
	remaining, limited := e.draw.Remaining()

	var latest *Winner
	if w, ok := e.draw.Latest(); ok {
		latest = &w
	}

	return &Snapshot{
		Code:           e.Code,
		Activity:       e.Activity(),
		Participants:   Annotate(e.participants),
		DuplicateNames: DuplicateNames(e.participants),
		Draw: DrawState{
			Settings:  e.draw.Settings(),
			Remaining: remaining,
			Limited:   limited,
			Winners:   Rank(e.draw.Winners()),
			Latest:    latest,
			Drawing:   e.draw.Busy(),
		},
		Grouping: GroupingState{
			Size:     e.grouping.Size(),
			Groups:   e.grouping.Groups(),
			Grouping: e.grouping.Busy(),
		},
		CreatedAt: e.CreatedAt,
	}
}
