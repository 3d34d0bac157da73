package validators

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsumit123/willow-leather-api/internal/models"
)

func buildXI(batsmen, keepers, allRounders, bowlers, overseas int) []*models.Player {
	var players []*models.Player
	add := func(role models.PlayerRole, n int) {
		for i := 0; i < n; i++ {
			players = append(players, &models.Player{Role: role})
		}
	}
	add(models.RoleBatsman, batsmen)
	add(models.RoleWicketKeeper, keepers)
	add(models.RoleAllRounder, allRounders)
	add(models.RoleBowler, bowlers)
	for i := 0; i < overseas && i < len(players); i++ {
		players[i].IsOverseas = true
	}
	return players
}

func TestValidatePlayingXI(t *testing.T) {
	tests := []struct {
		name    string
		players []*models.Player
		valid   bool
		errHint string
	}{
		{
			name:    "five specialist bowlers",
			players: buildXI(5, 1, 0, 5, 4),
			valid:   true,
		},
		{
			name:    "four bowlers backed by an all-rounder",
			players: buildXI(5, 1, 1, 4, 0),
			valid:   true,
		},
		{
			name:    "only ten players",
			players: buildXI(4, 1, 1, 4, 0),
			valid:   false,
			errHint: "exactly 11",
		},
		{
			name:    "twelve players",
			players: buildXI(6, 1, 1, 4, 0),
			valid:   false,
			errHint: "exactly 11",
		},
		{
			name:    "no wicket keeper",
			players: buildXI(6, 0, 1, 4, 0),
			valid:   false,
			errHint: "wicket keeper",
		},
		{
			name:    "five overseas players",
			players: buildXI(5, 1, 0, 5, 5),
			valid:   false,
			errHint: "overseas",
		},
		{
			name:    "four bowlers with no all-rounder",
			players: buildXI(6, 1, 0, 4, 0),
			valid:   false,
			errHint: "bowlers",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidatePlayingXI(tt.players)
			assert.Equal(t, tt.valid, result.Valid)
			if tt.valid {
				assert.Empty(t, result.Errors)
			} else {
				require.NotEmpty(t, result.Errors)
				found := false
				for _, e := range result.Errors {
					if strings.Contains(e, tt.errHint) {
						found = true
					}
				}
				assert.True(t, found, "no error mentioning %q in %v", tt.errHint, result.Errors)
			}
		})
	}
}

func TestValidatePlayingXIBreakdown(t *testing.T) {
	result := ValidatePlayingXI(buildXI(4, 1, 2, 4, 3))
	assert.True(t, result.Valid)
	assert.Equal(t, 4, result.Breakdown.Batsmen)
	assert.Equal(t, 1, result.Breakdown.WicketKeepers)
	assert.Equal(t, 2, result.Breakdown.AllRounders)
	assert.Equal(t, 4, result.Breakdown.Bowlers)
	assert.Equal(t, 3, result.Breakdown.Overseas)
}
