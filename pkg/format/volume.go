package format

import (
	"fmt"
	"math"
)

// Percent formats a session volume fraction as a whole percentage.
// Example: 0.4531 -> "45%"
func Percent(f float64) string {
	return fmt.Sprintf("%d%%", int(math.Round(f*100)))
}

// Level formats a device volume level against its maximum.
// Example: 11, 25 -> "11/25"
func Level(level, max int) string {
	return fmt.Sprintf("%d/%d", level, max)
}
