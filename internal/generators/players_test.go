package generators

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsumit123/willow-leather-api/internal/engine"
	"github.com/rsumit123/willow-leather-api/internal/models"
)

func TestGeneratePoolComposition(t *testing.T) {
	g := NewPlayerGenerator(rand.New(rand.NewSource(42)))
	pool := g.GeneratePool(7)
	require.Len(t, pool, 230)

	indian, overseas := 0, 0
	for _, p := range pool {
		require.NotNil(t, p.CareerID)
		assert.Equal(t, uint(7), *p.CareerID)
		assert.NotEmpty(t, p.Name)
		assert.NotEmpty(t, p.Nationality)
		if p.IsOverseas {
			overseas++
			assert.NotEqual(t, "India", p.Nationality)
		} else {
			indian++
			assert.Equal(t, "India", p.Nationality)
		}
	}
	assert.Equal(t, 150, indian)
	assert.Equal(t, 80, overseas)
}

func TestGeneratedPlayersMeetMinimumRating(t *testing.T) {
	g := NewPlayerGenerator(rand.New(rand.NewSource(7)))
	pool := g.GeneratePool(1)
	for _, p := range pool {
		assert.GreaterOrEqual(t, p.OverallRating(), 55, "player %s (%s)", p.Name, p.Role)
	}
}

func TestGeneratedPlayersHaveConsistentRoles(t *testing.T) {
	g := NewPlayerGenerator(rand.New(rand.NewSource(13)))
	pool := g.GeneratePool(1)
	for _, p := range pool {
		switch p.Role {
		case models.RoleBowler, models.RoleAllRounder:
			assert.NotEqual(t, models.BowlingNone, p.BowlingType, "player %s", p.Name)
		case models.RoleBatsman, models.RoleWicketKeeper:
			assert.Equal(t, models.BowlingNone, p.BowlingType, "player %s", p.Name)
		default:
			t.Fatalf("unknown role %q", p.Role)
		}

		// Intent guards: declared style must be backed by the attributes
		if p.BattingIntent == models.IntentPowerHitter {
			assert.GreaterOrEqual(t, p.Power, 55, "player %s", p.Name)
		}
		if p.BattingIntent == models.IntentAnchor {
			assert.GreaterOrEqual(t, p.Technique, 45, "player %s", p.Name)
		}
		if p.Role == models.RoleBowler {
			assert.Equal(t, models.IntentAccumulator, p.BattingIntent)
		}
	}
}

func TestGeneratedDNAIsParseable(t *testing.T) {
	g := NewPlayerGenerator(rand.New(rand.NewSource(99)))
	pool := g.GeneratePool(1)
	for _, p := range pool {
		require.NotEmpty(t, p.BatterDNA, "player %s has no batter DNA", p.Name)
		var batter engine.BatterDNA
		require.NoError(t, json.Unmarshal(p.BatterDNA, &batter))
		assert.GreaterOrEqual(t, len(batter.Weaknesses), 1)
		assert.LessOrEqual(t, len(batter.Weaknesses), 2)

		if p.CanBowl() {
			require.NotEmpty(t, p.BowlerDNA, "bowler %s has no bowler DNA", p.Name)
			bowler, err := engine.ParseBowlerDNA(p.BowlerDNA)
			require.NoError(t, err)
			if p.BowlingType.IsSpin() {
				_, ok := bowler.(engine.SpinnerDNA)
				assert.True(t, ok, "spinner %s parsed as %T", p.Name, bowler)
			} else {
				pacer, ok := bowler.(engine.PacerDNA)
				require.True(t, ok, "pacer %s parsed as %T", p.Name, bowler)
				assert.GreaterOrEqual(t, pacer.Speed, 120)
				assert.LessOrEqual(t, pacer.Speed, 155)
			}
		} else {
			assert.Empty(t, p.BowlerDNA, "non-bowler %s carries bowler DNA", p.Name)
		}
	}
}

func TestGeneratePlayerTierShapesPriceAndAge(t *testing.T) {
	g := NewPlayerGenerator(rand.New(rand.NewSource(3)))
	for i := 0; i < 50; i++ {
		elite := g.GeneratePlayer(TierElite, "India")
		assert.GreaterOrEqual(t, elite.BasePrice, int64(15000000))
		assert.LessOrEqual(t, elite.BasePrice, int64(20000000))
		assert.Zero(t, elite.BasePrice%100000, "price not rounded to a lakh")
		assert.GreaterOrEqual(t, elite.Age, 26)
		assert.LessOrEqual(t, elite.Age, 34)

		solid := g.GeneratePlayer(TierSolid, "India")
		assert.LessOrEqual(t, solid.BasePrice, int64(4000000))
	}
}

func TestSeededGenerationIsDeterministic(t *testing.T) {
	poolA := NewPlayerGenerator(rand.New(rand.NewSource(555))).GeneratePool(1)
	poolB := NewPlayerGenerator(rand.New(rand.NewSource(555))).GeneratePool(1)
	require.Equal(t, len(poolA), len(poolB))
	for i := range poolA {
		assert.Equal(t, poolA[i].Name, poolB[i].Name)
		assert.Equal(t, poolA[i].Role, poolB[i].Role)
		assert.Equal(t, poolA[i].Batting, poolB[i].Batting)
		assert.Equal(t, poolA[i].BasePrice, poolB[i].BasePrice)
	}
}
