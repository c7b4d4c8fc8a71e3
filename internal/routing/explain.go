package routing

import (
	"fmt"
	"math"
)

// Explain returns the one-sentence summary for a route.
func Explain(profile Profile, burdenScore, durationMinutes float64) string {
	d := int(math.Round(durationMinutes))
	pct := int(math.Round(burdenScore * 100))

	switch profile {
	case ProfileFastest:
		switch {
		case burdenScore < 0.4:
			return fmt.Sprintf("Quick route with minimal stress. Takes you directly to your destination in %d minutes with low environmental burden.", d)
		case burdenScore < 0.6:
			return fmt.Sprintf("Fastest path available. May pass through some busy areas but saves %d minutes of travel time. Best for time-sensitive visits.", d)
		default:
			return fmt.Sprintf("Shortest route (%d min) but passes through high-traffic zones. Recommended if speed is your priority over comfort.", d)
		}
	case ProfileLowStress:
		switch {
		case burdenScore < 0.3:
			return fmt.Sprintf("Most peaceful route with %d%% burden. Passes through parks and quiet streets. Ideal for reducing anxiety before your appointment.", pct)
		case burdenScore < 0.5:
			return fmt.Sprintf("Calming route that prioritizes green spaces and avoids crowds. Takes %d minutes with moderate comfort. Good for mental preparation.", d)
		default:
			return fmt.Sprintf("Low-stress path that seeks quieter areas. Slightly longer at %d minutes but provides a more relaxed journey.", d)
		}
	default:
		switch {
		case burdenScore < 0.4:
			return fmt.Sprintf("Well-balanced option: %d minutes with low burden. Offers a good compromise between speed and comfort.", d)
		case burdenScore < 0.6:
			return fmt.Sprintf("Balanced route taking %d minutes. Moderately comfortable while still being reasonably fast. Good default choice.", d)
		default:
			return fmt.Sprintf("Compromise route: %d minutes with moderate burden. Faster than low-stress but more comfortable than fastest.", d)
		}
	}
}
