package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/statecraft/internal/entropy"
)

func TestDrawTraitsRanges(t *testing.T) {
	src := entropy.NewSeeded(11)
	for i := 0; i < 200; i++ {
		tr := DrawTraits(src)
		for _, v := range []float64{tr.Aggression, tr.EconomicFocus, tr.RiskAppetite, tr.Innovation} {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.Less(t, v, 1.0)
		}
		assert.GreaterOrEqual(t, tr.DiplomaticBias, -1.0)
		assert.Less(t, tr.DiplomaticBias, 1.0)
	}
}

func TestDrawTraitsDeterministic(t *testing.T) {
	assert.Equal(t, DrawTraits(entropy.NewSeeded(5)), DrawTraits(entropy.NewSeeded(5)))
}

func TestSetRelationClamps(t *testing.T) {
	c := &Country{Name: "A"}
	c.SetRelation("B", 1.7)
	c.SetRelation("C", -0.2)
	assert.Equal(t, 1.0, c.Relation("B"))
	assert.Equal(t, 0.0, c.Relation("C"))
}

func TestCloneIsDeep(t *testing.T) {
	c := &Country{
		Name:          "A",
		Sectors:       map[string]float64{"technology": 0.3},
		Relationships: map[string]float64{"B": 0.5},
		Borders:       []string{"B"},
	}
	cp := c.Clone()
	cp.Sectors["technology"] = 0.9
	cp.Relationships["B"] = 0.1
	cp.Borders[0] = "Z"
	cp.Remember("x")

	assert.Equal(t, 0.3, c.Sectors["technology"])
	assert.Equal(t, 0.5, c.Relationships["B"])
	assert.Equal(t, "B", c.Borders[0])
	assert.Empty(t, c.Memory.Actions)
}

func TestSortedNames(t *testing.T) {
	m := map[string]*Country{"Chile": {}, "Albania": {}, "Brazil": {}}
	assert.Equal(t, []string{"Albania", "Brazil", "Chile"}, SortedNames(m))
}

func TestTerrainModifiers(t *testing.T) {
	assert.Equal(t, 1.0, TerrainPlains.Modifiers().DefenseBonus)
	assert.Equal(t, 3.0, TerrainMountain.Modifiers().DefenseBonus)
	assert.Equal(t, 1.0, Terrain(99).Modifiers().DefenseBonus)

	tr, ok := ParseTerrain("urban")
	require.True(t, ok)
	assert.Equal(t, TerrainUrban, tr)
	_, ok = ParseTerrain("lava")
	assert.False(t, ok)
}

func TestGDPPerCapitaZeroPopulation(t *testing.T) {
	c := &Country{GDP: 100}
	assert.Equal(t, 0.0, c.GDPPerCapita())
}
