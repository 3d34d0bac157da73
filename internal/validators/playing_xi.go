package validators

import (
	"fmt"

	"github.com/rsumit123/willow-leather-api/internal/models"
)

// XIBreakdown is the role composition of a candidate eleven.
type XIBreakdown struct {
	Batsmen       int `json:"batsmen"`
	Bowlers       int `json:"bowlers"`
	AllRounders   int `json:"all_rounders"`
	WicketKeepers int `json:"wicket_keepers"`
	Overseas      int `json:"overseas"`
}

// XIValidation is the result of checking a playing XI.
type XIValidation struct {
	Valid     bool        `json:"valid"`
	Errors    []string    `json:"errors,omitempty"`
	Breakdown XIBreakdown `json:"breakdown"`
}

// ValidatePlayingXI checks a candidate eleven against selection rules:
// exactly 11 players, at least one wicket-keeper, at most 4 overseas, and
// either 5 bowlers or 4 bowlers plus an all-rounder.
func ValidatePlayingXI(players []*models.Player) XIValidation {
	var breakdown XIBreakdown
	for _, p := range players {
		switch p.Role {
		case models.RoleBatsman:
			breakdown.Batsmen++
		case models.RoleBowler:
			breakdown.Bowlers++
		case models.RoleAllRounder:
			breakdown.AllRounders++
		case models.RoleWicketKeeper:
			breakdown.WicketKeepers++
		}
		if p.IsOverseas {
			breakdown.Overseas++
		}
	}

	var errors []string
	if len(players) != 11 {
		errors = append(errors, fmt.Sprintf("must select exactly 11 players, got %d", len(players)))
	}
	if breakdown.WicketKeepers == 0 {
		errors = append(errors, "must include at least 1 wicket keeper")
	}
	if breakdown.Overseas > 4 {
		errors = append(errors, fmt.Sprintf("max 4 overseas players allowed, got %d", breakdown.Overseas))
	}
	if !(breakdown.Bowlers >= 5 || (breakdown.Bowlers >= 4 && breakdown.AllRounders >= 1)) {
		errors = append(errors, fmt.Sprintf(
			"need 5 bowlers or 4 bowlers plus 1 all-rounder, got %d bowlers and %d all-rounders",
			breakdown.Bowlers, breakdown.AllRounders))
	}

	return XIValidation{
		Valid:     len(errors) == 0,
		Errors:    errors,
		Breakdown: breakdown,
	}
}
