package syncer

// NetworkQuality is a coarse classification of the current connection,
// used to tune debounce delays and reconnect behaviour.
type NetworkQuality string

const (
	NetworkExcellent NetworkQuality = "excellent"
	NetworkGood      NetworkQuality = "good"
	NetworkFair      NetworkQuality = "fair"
	NetworkPoor      NetworkQuality = "poor"
	NetworkOffline   NetworkQuality = "offline"
)

// delayFactor scales the debounce base delay per quality level. Excellent
// connections react fast; poor ones batch aggressively.
func (q NetworkQuality) delayFactor() float64 {
	switch q {
	case NetworkExcellent:
		return 0.5
	case NetworkGood:
		return 1.0
	case NetworkFair:
		return 2.0
	case NetworkPoor:
		return 4.0
	case NetworkOffline:
		return 8.0
	default:
		return 1.0
	}
}

// UserActivity describes whether the user is actively looking at the app.
// Foreground activity shortens debounce delays so remote changes show up
// quickly; background activity lets events batch longer.
type UserActivity string

const (
	ActivityForeground UserActivity = "foreground"
	ActivityBackground UserActivity = "background"
)
