package engine

// Man of the match is picked from the winning team only. Batting impact
// rewards runs scored quickly; bowling impact rewards cheap wickets. In a
// tied match the caller passes the first-innings batting team.

func battingImpact(record *BatterInnings) float64 {
	if record.Balls == 0 {
		return 0.0
	}
	return float64(record.Runs) * (1 + (record.StrikeRate()-100)/200)
}

func bowlingImpact(spell *BowlerSpell) float64 {
	return float64(spell.Wickets) * 25 * (1 + (6-spell.Economy())/6)
}

// ManOfTheMatch returns the winning team's highest total-impact player ID.
// Ties break by presentation order, batting impact first, so the result is
// deterministic.
func ManOfTheMatch(innings1, innings2 *InningsState, winningTeamID uint) uint {
	impacts := make(map[uint]float64)
	var order []uint

	add := func(id uint, impact float64) {
		if _, seen := impacts[id]; !seen {
			order = append(order, id)
		}
		impacts[id] += impact
	}

	for _, innings := range []*InningsState{innings1, innings2} {
		if innings == nil {
			continue
		}
		if innings.BattingTeamID == winningTeamID {
			for _, id := range innings.BattingOrder {
				if record, ok := innings.BatterRecords[id]; ok {
					add(id, battingImpact(record))
				}
			}
		}
		if innings.BowlingTeamID == winningTeamID {
			for _, p := range innings.BowlingTeam {
				if spell, ok := innings.BowlerSpells[p.ID]; ok {
					add(p.ID, bowlingImpact(spell))
				}
			}
		}
	}

	var bestID uint
	bestImpact := -1.0
	for _, id := range order {
		if impacts[id] > bestImpact {
			bestImpact = impacts[id]
			bestID = id
		}
	}
	return bestID
}
