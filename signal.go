package crossing

// Phase is the state of a traffic light, either red or green.
type Phase string

const (
	PhaseRed   Phase = "red"
	PhaseGreen Phase = "green"
)

// Toggle returns the other phase. Red and green are the only two states and
// the only transition is between them.
func (p Phase) Toggle() Phase {
	if p == PhaseGreen {
		return PhaseRed
	}
	return PhaseGreen
}
