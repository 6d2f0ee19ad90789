package engine

import "math/rand"

// completedWeeks caps the drawable week per season at the last week we know
// has full stat coverage upstream. Maintained by hand when a season wraps up.
var completedWeeks = map[int]int{
	2021: 18,
	2022: 18,
	2023: 18,
	2024: 18,
}

var candidateSeasons = []int{2021, 2022, 2023, 2024}

// MatchWeek draws the (season, week) pair a new session is scored against.
// The week never exceeds the season's completed-games cap.
func MatchWeek(r *rand.Rand) (season, week int) {
	season = candidateSeasons[r.Intn(len(candidateSeasons))]
	week = 1 + r.Intn(completedWeeks[season])
	return season, week
}
