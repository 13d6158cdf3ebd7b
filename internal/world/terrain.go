package world

// Terrain is the dominant terrain of a country, used for battle modifiers.
type Terrain uint8

const (
	TerrainPlains   Terrain = iota // Open ground, no defensive bonus
	TerrainForest                  // Cover slows attackers
	TerrainMountain                // Strongest natural defence
	TerrainUrban                   // Dense cities favour defenders
	TerrainCoast                   // Amphibious approaches
	TerrainDesert                  // Long, exposed supply lines
)

// TerrainModifiers are the combat effects of a terrain type.
type TerrainModifiers struct {
	DefenseBonus    float64
	MovementPenalty float64
}

var terrainModifiers = map[Terrain]TerrainModifiers{
	TerrainPlains:   {DefenseBonus: 1.0, MovementPenalty: 1.0},
	TerrainForest:   {DefenseBonus: 1.8, MovementPenalty: 0.7},
	TerrainMountain: {DefenseBonus: 3.0, MovementPenalty: 0.3},
	TerrainUrban:    {DefenseBonus: 2.5, MovementPenalty: 0.5},
	TerrainCoast:    {DefenseBonus: 1.3, MovementPenalty: 0.8},
	TerrainDesert:   {DefenseBonus: 1.1, MovementPenalty: 0.6},
}

// Modifiers returns the combat modifiers for t, falling back to plains.
func (t Terrain) Modifiers() TerrainModifiers {
	if m, ok := terrainModifiers[t]; ok {
		return m
	}
	return terrainModifiers[TerrainPlains]
}

// Complexity is how hard the terrain is to supply through, 0–1.
func (t Terrain) Complexity() float64 {
	return 1 - t.Modifiers().MovementPenalty
}

var terrainNames = map[Terrain]string{
	TerrainPlains:   "plains",
	TerrainForest:   "forest",
	TerrainMountain: "mountain",
	TerrainUrban:    "urban",
	TerrainCoast:    "coast",
	TerrainDesert:   "desert",
}

// TerrainName returns a human-readable name for a terrain type.
func TerrainName(t Terrain) string {
	if n, ok := terrainNames[t]; ok {
		return n
	}
	return "unknown"
}

// ParseTerrain maps a name back to a terrain type.
func ParseTerrain(name string) (Terrain, bool) {
	for t, n := range terrainNames {
		if n == name {
			return t, true
		}
	}
	return TerrainPlains, false
}
