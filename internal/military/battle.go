package military

import (
	"math"

	"github.com/talgya/statecraft/internal/events"
	"github.com/talgya/statecraft/internal/world"
)

// BattleInput is everything a battle resolution needs.
type BattleInput struct {
	AttackerPower  float64
	DefenderPower  float64
	AttackerSupply float64
	DefenderSupply float64
	TechAdvantage  float64
	Terrain        world.Terrain
}

// Outcome is the result of resolving a battle.
type Outcome struct {
	AttackerWins      bool    `json:"attacker_wins"`
	AttackerEffective float64 `json:"attacker_effective"`
	DefenderEffective float64 `json:"defender_effective"`
	AttackerLosses    float64 `json:"attacker_losses"`
	DefenderLosses    float64 `json:"defender_losses"`
	DurationDays      int     `json:"duration_days"`
}

// ResolveBattle applies terrain to the defender, tech advantage to the
// attacker and supply to both, then takes losses from the square root of
// the opponent's effective strength.
func ResolveBattle(in BattleInput) Outcome {
	defender := in.DefenderPower * in.Terrain.Modifiers().DefenseBonus
	o := Outcome{
		AttackerEffective: in.AttackerPower * (1 + in.TechAdvantage) * in.AttackerSupply,
		DefenderEffective: defender * in.DefenderSupply,
	}
	o.AttackerWins = o.AttackerEffective > o.DefenderEffective
	o.AttackerLosses = math.Sqrt(math.Max(o.DefenderEffective, 0)) * 0.1
	o.DefenderLosses = math.Sqrt(math.Max(o.AttackerEffective, 0)) * 0.1
	o.DurationDays = BattleDuration(o.AttackerEffective, o.DefenderEffective)
	return o
}

// BattleDuration bands the strength ratio into days. An undefended
// position falls in the shortest band.
func BattleDuration(attacker, defender float64) int {
	if defender <= 0 {
		if attacker > 0 {
			return 7
		}
		return 60
	}
	ratio := attacker / defender
	switch {
	case ratio > 3:
		return 7
	case ratio > 1.5:
		return 14
	case ratio > 1:
		return 30
	default:
		return 60
	}
}

// BattleResult is a recorded battle between two countries.
type BattleResult struct {
	Outcome
	Attacker string `json:"attacker"`
	Defender string `json:"defender"`
	Victor   string `json:"victor"`
	Terrain  string `json:"terrain"`
	Month    int    `json:"month"`
}

// SimulateBattle fights attacker against defender on terrain and records
// the result.
func (e *Engine) SimulateBattle(attacker, defender *world.Country, terrain world.Terrain) BattleResult {
	out := ResolveBattle(BattleInput{
		AttackerPower:  e.CombatPower(attacker),
		DefenderPower:  e.CombatPower(defender),
		AttackerSupply: e.supply(attacker.Name),
		DefenderSupply: e.supply(defender.Name),
		TechAdvantage:  e.tech(attacker.Name) - e.tech(defender.Name),
		Terrain:        terrain,
	})
	res := BattleResult{
		Outcome:  out,
		Attacker: attacker.Name,
		Defender: defender.Name,
		Victor:   defender.Name,
		Terrain:  world.TerrainName(terrain),
		Month:    e.month,
	}
	if out.AttackerWins {
		res.Victor = attacker.Name
	}

	e.battles = append(e.battles, res)
	if len(e.battles) > maxBattles {
		e.battles = e.battles[len(e.battles)-maxBattles:]
	}
	attacker.Memory.PastConflicts = append(attacker.Memory.PastConflicts, defender.Name)
	defender.Memory.PastConflicts = append(defender.Memory.PastConflicts, attacker.Name)

	if e.bus != nil {
		e.bus.Publish(events.Battle, e.month, map[string]any{
			"attacker": res.Attacker,
			"defender": res.Defender,
			"victor":   res.Victor,
			"terrain":  res.Terrain,
			"days":     res.DurationDays,
		})
	}
	return res
}

// Battles returns the recorded battle history, oldest first.
func (e *Engine) Battles() []BattleResult {
	return append([]BattleResult(nil), e.battles...)
}
