package aerobiz

import (
	"math/rand"
	"strings"
)

// nameParts are the fragments airline names are rebuilt from
var nameParts = []string{
	"A", "J", "O", "Q", "X", "Z",
	"AE", "AL", "GO", "JO", "OK", "SU", "UP", "ZA",
	"AIR", "ARC", "BIG", "FLY", "JET", "SKY", "SUN", "TOP", "ZIP", "ACE",
	"AERO", "BLUE", "BOLT", "FAST", "GOLD", "HAWK", "KING", "NOVA", "STAR", "WIND", "WING", "ZOOM",
	"ALPHA", "CLOUD", "EAGLE", "FLASH", "GLOBE", "METRO", "NORTH", "ORBIT", "POLAR", "SOUTH", "SWIFT", "TRANS",
	"AIRWAY", "ATLAS", "BREEZE", "CONDOR", "FALCON", "GLOBAL", "IMPACT", "JETSET", "PACIFIC", "ROCKET", "SUMMIT", "ZENITH",
	"AIRLINE", "CARRIER", "COMPASS", "CRUISER", "EXPRESS", "HORIZON", "MERIDIAN", "OVERSEAS", "PEGASUS", "STRATOS",
	"AIRLINES", "AVIATION", "CONTINENT", "DIRIGIBLE", "FRONTIER", "SKYLINER", "SUPERSONIC",
	"AIRWAYS", "BONKERS", "TRANSWORLD", "ATMOSPHERE",
	"INTERNATIONAL",
}

// pickPart returns a random part exactly n bytes long. When no part has that
// length a longer part is cut down, and when none is long enough parts are
// joined.
func pickPart(r *rand.Rand, n int) string {
	if n <= 0 {
		return ""
	}

	var exact, longer []string
	longest := ""
	for _, p := range nameParts {
		switch {
		case len(p) == n:
			exact = append(exact, p)
		case len(p) > n:
			longer = append(longer, p)
		}
		if len(p) > len(longest) {
			longest = p
		}
	}

	switch {
	case len(exact) > 0:
		return exact[r.Intn(len(exact))]
	case len(longer) > 0:
		return longer[r.Intn(len(longer))][:n]
	default:
		var b strings.Builder
		b.WriteString(longest)
		b.WriteString(pickPart(r, n-len(longest)))
		return b.String()
	}
}
