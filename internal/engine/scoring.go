package engine

// ApplyScores rewrites every lineup slot with the resolved weekly points and
// sets each participant's total. Players missing from the map score zero.
// Deterministic: re-applying the same map yields the same session.
func ApplyScores(s Session, points map[string]float64) Session {
	ns := s.Clone()
	for i := range ns.Players {
		total := 0.0
		for j := range ns.Players[i].Lineup {
			pts := points[ns.Players[i].Lineup[j].PlayerID]
			ns.Players[i].Lineup[j].Points = pts
			total += pts
		}
		score := total
		ns.Players[i].Score = &score
	}
	return ns
}
