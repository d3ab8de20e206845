package domain

import "time"

// Winner records a participant picked by the draw
type Winner struct {
	Participant
	Prize     string    `json:"prize,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewWinner creates a new winner record
func NewWinner(p Participant, prize string, at time.Time) Winner {
	return Winner{
		Participant: p,
		Prize:       prize,
		Timestamp:   at,
	}
}

// RankedWinner is a winner with its 1-based position in draw order
type RankedWinner struct {
	Winner
	Rank int `json:"rank"`
}

// Rank numbers a most-recent-first winners log so the first draw is rank 1
func Rank(winners []Winner) []RankedWinner {
	ranked := make([]RankedWinner, len(winners))
	for i, w := range winners {
		ranked[i] = RankedWinner{Winner: w, Rank: len(winners) - i}
	}
	return ranked
}
