package ai

import (
	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/statecraft/internal/gamemath"
	"github.com/talgya/statecraft/internal/world"
)

// Drift moves political stability and the environmental index along smooth
// noise curves so AI countries are not frozen between shocks.
type Drift struct {
	stability   opensimplex.Noise
	environment opensimplex.Noise
}

// NewDrift creates drift noise from seed.
func NewDrift(seed int64) *Drift {
	return &Drift{
		stability:   opensimplex.New(seed),
		environment: opensimplex.New(seed + 1),
	}
}

// Apply advances c's conditions for month. idx separates countries in noise
// space.
func (d *Drift) Apply(c *world.Country, idx, month int) {
	x := float64(month) * 0.15
	y := float64(idx) * 10
	c.Conditions.PoliticalStability = gamemath.Clamp(c.Conditions.PoliticalStability+d.stability.Eval2(x, y)*1.5, 0, 100)
	c.Conditions.EnvironmentalIndex = gamemath.Clamp(c.Conditions.EnvironmentalIndex+d.environment.Eval2(x, y)*1.0, 0, 100)
}
