package shared

// TrendContext represents the prevailing trend surrounding a candlestick.
type TrendContext int

const (
	UnknownTrend TrendContext = iota
	Uptrend
	Downtrend
	Sideways
)

// String stringifies the provided trend context.
func (t TrendContext) String() string {
	switch t {
	case Uptrend:
		return "uptrend"
	case Downtrend:
		return "downtrend"
	case Sideways:
		return "sideways"
	default:
		return "unknown"
	}
}
