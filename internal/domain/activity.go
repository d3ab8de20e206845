package domain

// Activity represents what an event is currently doing
type Activity string

const (
	ActivityIdle     Activity = "IDLE"     // Ready for input, draws or groupings
	ActivityDrawing  Activity = "DRAWING"  // Spin animation running
	ActivityGrouping Activity = "GROUPING" // Grouping delay running
)

// String returns the string representation of the activity
func (a Activity) String() string {
	return string(a)
}

// IsIdle returns true when nothing is in flight
func (a Activity) IsIdle() bool {
	return a == ActivityIdle
}
