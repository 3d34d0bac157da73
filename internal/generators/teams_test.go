package generators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTeams(t *testing.T) {
	teams := CreateTeams(3, 2)
	require.Len(t, teams, 8)

	userTeams := 0
	names := make(map[string]bool)
	grounds := make(map[string]bool)
	for i, team := range teams {
		require.NotNil(t, team.CareerID)
		assert.Equal(t, uint(3), *team.CareerID)
		assert.Equal(t, int64(900000000), team.Budget)
		assert.Equal(t, team.Budget, team.RemainingBudget)
		assert.NotEmpty(t, team.HomeGround)
		assert.False(t, names[team.Name], "duplicate team name %s", team.Name)
		names[team.Name] = true
		assert.False(t, grounds[team.HomeGround], "shared home ground %s", team.HomeGround)
		grounds[team.HomeGround] = true
		if team.IsUserTeam {
			userTeams++
			assert.Equal(t, 2, i)
		}
	}
	assert.Equal(t, 1, userTeams)
}

func TestTeamChoicesMatchFranchiseOrder(t *testing.T) {
	choices := TeamChoices()
	require.Len(t, choices, len(Franchises))
	for i, c := range choices {
		assert.Equal(t, i, c.Index)
		assert.Equal(t, Franchises[i].Name, c.Name)
		assert.Equal(t, Franchises[i].ShortName, c.ShortName)
		assert.Equal(t, Franchises[i].City, c.City)
	}
}
