package engine

import (
	"fmt"

	"github.com/rsumit123/willow-leather-api/internal/models"
)

// generateCommentary turns a ball outcome into a line of text.
func generateCommentary(batter, bowler *models.Player, outcome *BallOutcome) string {
	bn := batter.Name
	wn := bowler.Name

	if outcome.IsWide {
		return fmt.Sprintf("Wide ball from %s, 1 run added", wn)
	}
	if outcome.IsNoBall {
		return fmt.Sprintf("No ball! %d runs", outcome.Runs)
	}

	if outcome.IsWicket {
		switch outcome.DismissalType {
		case "bowled":
			return fmt.Sprintf("WICKET! %s cleans up %s! The stumps are shattered!", wn, bn)
		case "lbw":
			return fmt.Sprintf("WICKET! %s traps %s in front! Plumb LBW!", wn, bn)
		case "caught":
			return fmt.Sprintf("OUT! %s caught in the deep off %s!", bn, wn)
		case "caught_behind":
			return fmt.Sprintf("OUT! Edge and taken! %s caught behind off %s!", bn, wn)
		case "stumped":
			return fmt.Sprintf("STUMPED! %s beaten in the flight by %s!", bn, wn)
		case "top_edge":
			return fmt.Sprintf("OUT! Top edge from %s off the bouncer, taken at fine leg!", bn)
		case "hit_wicket":
			return fmt.Sprintf("WICKET! %s hit wicket trying to pull %s!", bn, wn)
		case "run_out":
			return fmt.Sprintf("RUN OUT! %s is short of the crease!", bn)
		}
		return fmt.Sprintf("WICKET! %s dismissed by %s!", bn, wn)
	}

	if outcome.IsSix {
		if outcome.ContactQuality == ContactPerfect {
			return fmt.Sprintf("MASSIVE SIX! %s smashes %s into the stands! Perfect connection!", bn, wn)
		}
		return fmt.Sprintf("SIX! %s launches it over the boundary off %s!", bn, wn)
	}
	if outcome.IsBoundary {
		switch outcome.ContactQuality {
		case ContactPerfect:
			return fmt.Sprintf("FOUR! Perfectly timed by %s, races to the boundary!", bn)
		case ContactGood:
			return fmt.Sprintf("FOUR! Beautiful shot by %s off %s!", bn, wn)
		}
		return fmt.Sprintf("FOUR! %s finds the gap off %s!", bn, wn)
	}

	switch outcome.Runs {
	case 0:
		switch outcome.ContactQuality {
		case ContactBeaten:
			return fmt.Sprintf("Beaten! %s beats %s all ends up with the %s!", wn, bn, outcome.DeliveryName)
		case ContactDefended:
			return fmt.Sprintf("%s defends solidly.", bn)
		}
		return fmt.Sprintf("Dot ball. %s keeps it tight.", wn)
	case 1:
		return fmt.Sprintf("%s works it away for a single.", bn)
	case 2:
		return fmt.Sprintf("Good running! %s picks up 2 runs.", bn)
	case 3:
		return "Excellent running between the wickets! 3 runs."
	}

	return fmt.Sprintf("%s gets %d off %s.", bn, outcome.Runs, wn)
}
