package value

import (
	"math"
	"strconv"
)

// formatFloat renders f using the shortest decimal string that round-trips
// back to f, per spec.md §6 ("double → shortest round-trippable decimal").
// Integral values print without a trailing ".0" (e.g. Float(4) -> "4"),
// which strconv's 'g' verb with shortest precision already does.
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
