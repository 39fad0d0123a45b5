package shared

import "fmt"

// Timeframe represents the market data time period.
type Timeframe int

const (
	OneMinute Timeframe = iota
	FiveMinute
	FifteenMinute
	OneHour
	OneDay
)

// String stringifies the provided timeframe.
func (t Timeframe) String() string {
	switch t {
	case OneMinute:
		return "1m"
	case FiveMinute:
		return "5m"
	case FifteenMinute:
		return "15m"
	case OneHour:
		return "1H"
	case OneDay:
		return "1D"
	default:
		return "unknown"
	}
}

// ParseTimeframe parses the provided timeframe string.
func ParseTimeframe(timeframe string) (Timeframe, error) {
	switch timeframe {
	case "1m":
		return OneMinute, nil
	case "5m":
		return FiveMinute, nil
	case "15m":
		return FifteenMinute, nil
	case "1H":
		return OneHour, nil
	case "1D":
		return OneDay, nil
	default:
		return 0, fmt.Errorf("unknown timeframe: %q", timeframe)
	}
}
