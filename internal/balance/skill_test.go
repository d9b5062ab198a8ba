package balance

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func TestEstimateSkill_ZeroGames(t *testing.T) {
	skill := EstimateSkill(PlayerSnapshot{ID: "new"})

	for _, role := range Roles {
		if got := skill.SkillAt(role); got != 0.5 {
			t.Errorf("Expected neutral prior 0.5 for %s, got %f", role, got)
		}
	}
	if skill.Overall != 0.5 {
		t.Errorf("Expected overall 0.5, got %f", skill.Overall)
	}
}

func TestEstimateSkill_UnplayedRoleExtrapolates(t *testing.T) {
	skill := EstimateSkill(PlayerSnapshot{
		ID:      "flex",
		Overall: RoleRecord{Games: 10, Wins: 5},
	})

	if skill.Tank != 0.4 {
		t.Errorf("Expected tank skill 0.4, got %v", skill.Tank)
	}
	if skill.Damage != 0.4 || skill.Support != 0.4 {
		t.Errorf("Expected damage/support 0.4, got %v/%v", skill.Damage, skill.Support)
	}
}

func TestEstimateSkill_ConfidenceAndBlend(t *testing.T) {
	tests := []struct {
		name     string
		role     RoleRecord
		overall  RoleRecord
		expected float64
	}{
		// 2 games: blend then 0.6 confidence
		{"two games", RoleRecord{Games: 2, Wins: 2}, RoleRecord{Games: 20, Wins: 10}, (0.3*1.0 + 0.7*0.5) * 0.6},
		// 4 games: blend then 0.75 confidence
		{"four games", RoleRecord{Games: 4, Wins: 1}, RoleRecord{Games: 10, Wins: 6}, (0.3*0.25 + 0.7*0.6) * 0.75},
		// 8 games: no blend, 0.9 confidence
		{"eight games", RoleRecord{Games: 8, Wins: 6}, RoleRecord{Games: 30, Wins: 10}, 0.75 * 0.9},
		// 10 games: full confidence
		{"ten games", RoleRecord{Games: 10, Wins: 7}, RoleRecord{Games: 40, Wins: 20}, 0.7},
		// role games without overall games is not blended
		{"no overall", RoleRecord{Games: 3, Wins: 3}, RoleRecord{}, 0.75},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			skill := EstimateSkill(PlayerSnapshot{Tank: test.role, Overall: test.overall})
			if !almostEqual(skill.Tank, test.expected) {
				t.Errorf("Expected %f, got %f", test.expected, skill.Tank)
			}
		})
	}
}

func TestEstimateSkill_OverallWeighting(t *testing.T) {
	p := PlayerSnapshot{
		PrimaryRole: RoleSupport,
		Tank:        RoleRecord{Games: 10, Wins: 2},
		Damage:      RoleRecord{Games: 10, Wins: 4},
		Support:     RoleRecord{Games: 10, Wins: 8},
		Overall:     RoleRecord{Games: 30, Wins: 14},
	}
	skill := EstimateSkill(p)
	expected := 0.6*0.8 + 0.4*(0.2+0.4)/2
	if !almostEqual(skill.Overall, expected) {
		t.Errorf("Expected overall %f, got %f", expected, skill.Overall)
	}

	p.PrimaryRole = RoleUnset
	skill = EstimateSkill(p)
	expected = (0.2 + 0.4 + 0.8) / 3
	if !almostEqual(skill.Overall, expected) {
		t.Errorf("Expected unweighted overall %f, got %f", expected, skill.Overall)
	}
}

func TestEstimateSkill_Bounds(t *testing.T) {
	for games := 0; games <= 12; games++ {
		for wins := 0; wins <= games; wins++ {
			for _, overall := range []RoleRecord{{}, {Games: games, Wins: wins}, {Games: 50, Wins: 50}, {Games: 50}} {
				for _, primary := range []Role{RoleUnset, RoleTank, RoleDamage, RoleSupport} {
					skill := EstimateSkill(PlayerSnapshot{
						PrimaryRole: primary,
						Tank:        RoleRecord{Games: games, Wins: wins},
						Damage:      RoleRecord{Games: games, Wins: games - wins},
						Overall:     overall,
					})
					for _, v := range []float64{skill.Tank, skill.Damage, skill.Support, skill.Overall} {
						if v < 0 || v > 1 {
							t.Fatalf("Skill %f out of bounds for games=%d wins=%d overall=%+v", v, games, wins, overall)
						}
					}
				}
			}
		}
	}
}

func TestConfidenceFactor(t *testing.T) {
	tests := []struct {
		games    int
		expected float64
	}{
		{1, 0.6}, {2, 0.6}, {3, 0.75}, {4, 0.75}, {5, 0.9}, {9, 0.9}, {10, 1.0}, {500, 1.0},
	}
	for _, test := range tests {
		if got := confidenceFactor(test.games); got != test.expected {
			t.Errorf("For %d games, expected %f, got %f", test.games, test.expected, got)
		}
	}
}

func TestParseRoleAndMode(t *testing.T) {
	if ParseRole("DPS") != RoleDamage {
		t.Error("Expected DPS to parse as damage")
	}
	if ParseRole("jungle") != RoleUnset {
		t.Error("Expected unknown role to parse as unset")
	}

	for _, m := range Modes {
		parsed, err := ParseMode(m.String())
		if err != nil || parsed != m {
			t.Errorf("Expected %s to round trip, got %v (%v)", m, parsed, err)
		}
	}
	if m, err := ParseMode("heuristic"); err != nil || m != ModeQuick {
		t.Errorf("Expected heuristic to parse as quick, got %v (%v)", m, err)
	}
	if _, err := ParseMode("random"); err == nil {
		t.Error("Expected error for unknown mode")
	}
}
