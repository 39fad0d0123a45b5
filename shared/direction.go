package shared

// Direction represents the direction of a signal or position.
type Direction int

const (
	NeutralDirection Direction = iota
	Long
	Short
)

// String stringifies the provided direction.
func (d Direction) String() string {
	switch d {
	case Long:
		return "long"
	case Short:
		return "short"
	default:
		return "neutral"
	}
}

// Opposite returns the opposing direction.
func (d Direction) Opposite() Direction {
	switch d {
	case Long:
		return Short
	case Short:
		return Long
	default:
		return NeutralDirection
	}
}
