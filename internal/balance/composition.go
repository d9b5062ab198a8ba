package balance

import "math"

// Team score weights per role group
const (
	tankWeight    = 0.30
	damageWeight  = 0.40
	supportWeight = 0.30
)

// Position fit contribution per slot
const (
	primaryMatchBonus = 0.20
	fitSkillWeight    = 0.16
)

// Assignment pairs a player with the role they play in a composition
type Assignment struct {
	Player *PlayerSkill `json:"player"`
	Role   Role         `json:"role"`
}

// TeamComposition is one five-player team with a fixed role assignment.
// Damage1/Damage2 and Support1/Support2 are unordered pairs for scoring.
type TeamComposition struct {
	Tank     *PlayerSkill `json:"tank"`
	Damage1  *PlayerSkill `json:"damage1"`
	Damage2  *PlayerSkill `json:"damage2"`
	Support1 *PlayerSkill `json:"support1"`
	Support2 *PlayerSkill `json:"support2"`

	teamScore   *float64
	positionFit *float64
}

// Assignments lists the five slots in tank, damage, support order
func (c *TeamComposition) Assignments() []Assignment {
	return []Assignment{
		{Player: c.Tank, Role: RoleTank},
		{Player: c.Damage1, Role: RoleDamage},
		{Player: c.Damage2, Role: RoleDamage},
		{Player: c.Support1, Role: RoleSupport},
		{Player: c.Support2, Role: RoleSupport},
	}
}

// Players returns the five players in slot order
func (c *TeamComposition) Players() []*PlayerSkill {
	return []*PlayerSkill{c.Tank, c.Damage1, c.Damage2, c.Support1, c.Support2}
}

// Valid reports whether all five slots hold distinct players
func (c *TeamComposition) Valid() bool {
	seen := make(map[*PlayerSkill]struct{}, TeamSize)
	for _, p := range c.Players() {
		if p == nil {
			return false
		}
		if _, dup := seen[p]; dup {
			return false
		}
		seen[p] = struct{}{}
	}
	return true
}

// TeamScore is the role-weighted skill of the team in [0, 1]. The value is memoized.
func (c *TeamComposition) TeamScore() float64 {
	if c.teamScore != nil {
		return *c.teamScore
	}
	score := tankWeight*c.Tank.Tank +
		damageWeight*(c.Damage1.Damage+c.Damage2.Damage)/2 +
		supportWeight*(c.Support1.Support+c.Support2.Support)/2
	score = clamp01(score)
	c.teamScore = &score
	return score
}

// PositionFit measures how well players sit in their preferred, strongest roles.
// The raw sum can reach 1.8; it is clamped to [0, 1]. The value is memoized.
func (c *TeamComposition) PositionFit() float64 {
	if c.positionFit != nil {
		return *c.positionFit
	}
	fit := 0.0
	for _, a := range c.Assignments() {
		if a.Player.PrimaryRole == a.Role {
			fit += primaryMatchBonus
		}
		fit += fitSkillWeight * a.Player.SkillAt(a.Role)
	}
	fit = clamp01(fit)
	c.positionFit = &fit
	return fit
}

// FinalScore blends team skill and position fit
func (c *TeamComposition) FinalScore() float64 {
	return 0.8*c.TeamScore() + 0.2*c.PositionFit()
}

// ScoreTeam returns the composition's weighted team skill
func ScoreTeam(c *TeamComposition) float64 {
	return c.TeamScore()
}

// ScorePositionFit returns the composition's position fit
func ScorePositionFit(c *TeamComposition) float64 {
	return c.PositionFit()
}

// ScoreBalance is 1 minus the absolute team score gap, clamped to [0, 1].
// Ranking uses the win probability based score from Evaluate instead.
func ScoreBalance(a, b *TeamComposition) float64 {
	return clamp01(1.0 - math.Abs(a.TeamScore()-b.TeamScore()))
}
