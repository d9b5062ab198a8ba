package balance

// PlayerSkill is a snapshot annotated with confidence-adjusted skill scores in [0, 1]
type PlayerSkill struct {
	PlayerSnapshot
	Tank    float64 `json:"tankSkill"`
	Damage  float64 `json:"damageSkill"`
	Support float64 `json:"supportSkill"`
	Overall float64 `json:"overallSkill"`
}

// SkillAt returns the player's score for a role, or the overall score for RoleUnset
func (p *PlayerSkill) SkillAt(role Role) float64 {
	switch role {
	case RoleTank:
		return p.Tank
	case RoleDamage:
		return p.Damage
	case RoleSupport:
		return p.Support
	default:
		return p.Overall
	}
}

const (
	neutralPrior        = 0.5
	unplayedRoleFactor  = 0.8
	lowSampleThreshold  = 5
	lowSampleRoleWeight = 0.3
	primaryRoleWeight   = 0.6
)

// EstimateSkill derives per-role and overall skill from a player's history.
// It is total over non-negative inputs.
func EstimateSkill(p PlayerSnapshot) PlayerSkill {
	skill := PlayerSkill{PlayerSnapshot: p}
	skill.Tank = roleSkill(p.Tank, p.Overall)
	skill.Damage = roleSkill(p.Damage, p.Overall)
	skill.Support = roleSkill(p.Support, p.Overall)

	others := 0.0
	switch p.PrimaryRole {
	case RoleTank:
		others = (skill.Damage + skill.Support) / 2
	case RoleDamage:
		others = (skill.Tank + skill.Support) / 2
	case RoleSupport:
		others = (skill.Tank + skill.Damage) / 2
	default:
		skill.Overall = clamp01((skill.Tank + skill.Damage + skill.Support) / 3)
		return skill
	}
	skill.Overall = clamp01(primaryRoleWeight*skill.SkillAt(p.PrimaryRole) + (1-primaryRoleWeight)*others)
	return skill
}

// EstimateAll runs EstimateSkill over a lobby, preserving order
func EstimateAll(players []PlayerSnapshot) []*PlayerSkill {
	out := make([]*PlayerSkill, len(players))
	for i, p := range players {
		s := EstimateSkill(p)
		out[i] = &s
	}
	return out
}

func roleSkill(role, overall RoleRecord) float64 {
	if role.Games <= 0 {
		if overall.Games <= 0 {
			return neutralPrior
		}
		return clamp01(unplayedRoleFactor * overall.WinRate())
	}

	adjusted := role.WinRate()
	if role.Games < lowSampleThreshold && overall.Games > 0 {
		adjusted = lowSampleRoleWeight*adjusted + (1-lowSampleRoleWeight)*overall.WinRate()
	}
	return clamp01(adjusted * confidenceFactor(role.Games))
}

// confidenceFactor discounts small samples
func confidenceFactor(games int) float64 {
	switch {
	case games < 3:
		return 0.6
	case games < 5:
		return 0.75
	case games < 10:
		return 0.9
	default:
		return 1.0
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
