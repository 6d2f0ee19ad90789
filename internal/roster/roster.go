// Package roster holds the lineup slot policy: QB, RB x2, WR x2, TE, one
// FLEX from RB/WR/TE, K, DEF. The draft engine does not enforce it; slot
// eligibility is an advisory check for clients and the HTTP surface, while
// turn order and double-pick protection stay authoritative server-side.
package roster

// Size is the total number of lineup slots.
const Size = 9

// limits are the dedicated (non-FLEX) slots per position.
var limits = map[string]int{
	"QB":  1,
	"RB":  2,
	"WR":  2,
	"TE":  1,
	"K":   1,
	"DEF": 1,
}

// CanAdd reports whether a player at the given position still fits a lineup
// holding the given positions. RB/WR/TE overflow into the single FLEX slot.
func CanAdd(lineup []string, position string) bool {
	if len(lineup) >= Size {
		return false
	}

	counts := map[string]int{}
	for _, p := range lineup {
		counts[p]++
	}

	limit, ok := limits[position]
	if !ok {
		return false
	}

	if counts[position] < limit {
		return true
	}

	switch position {
	case "RB", "WR", "TE":
		return flexOpen(counts)
	default:
		return false
	}
}

// Fits reports whether the given positions form a legal partial or complete
// lineup. The policy is count-based, so checking each position against the
// ones before it covers every ordering.
func Fits(positions []string) bool {
	lineup := make([]string, 0, len(positions))
	for _, p := range positions {
		if !CanAdd(lineup, p) {
			return false
		}
		lineup = append(lineup, p)
	}
	return true
}

// flexOpen reports whether the FLEX slot is still unclaimed: no RB/WR/TE
// count exceeds its dedicated slots.
func flexOpen(counts map[string]int) bool {
	return counts["RB"] <= limits["RB"] && counts["WR"] <= limits["WR"] && counts["TE"] <= limits["TE"]
}
