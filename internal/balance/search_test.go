package balance

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"strings"
	"testing"
)

func identicalLobby() []PlayerSnapshot {
	players := make([]PlayerSnapshot, LobbySize)
	for i := range players {
		players[i] = PlayerSnapshot{
			ID:          fmt.Sprintf("p%d", i),
			Name:        fmt.Sprintf("Player %d", i),
			PrimaryRole: RoleTank,
			Tank:        RoleRecord{Games: 500, Wins: 250},
			Damage:      RoleRecord{Games: 500, Wins: 250},
			Support:     RoleRecord{Games: 500, Wins: 250},
			Overall:     RoleRecord{Games: 500, Wins: 250},
		}
	}
	return players
}

func mixedLobby() []PlayerSnapshot {
	primaries := []Role{RoleTank, RoleTank, RoleDamage, RoleDamage, RoleDamage, RoleDamage, RoleSupport, RoleSupport, RoleSupport, RoleUnset}
	players := make([]PlayerSnapshot, LobbySize)
	for i := range players {
		tankGames, dmgGames, supGames := 3+i, 12-i, 2*i
		players[i] = PlayerSnapshot{
			ID:          fmt.Sprintf("p%d", i),
			Name:        fmt.Sprintf("Player %d", i),
			PrimaryRole: primaries[i],
			Tank:        RoleRecord{Games: tankGames, Wins: (tankGames * (i + 2)) / 12},
			Damage:      RoleRecord{Games: dmgGames, Wins: (dmgGames * (10 - i)) / 12},
			Support:     RoleRecord{Games: supGames, Wins: supGames / 2},
		}
		players[i].Overall = RoleRecord{
			Games: tankGames + dmgGames + supGames,
			Wins:  players[i].Tank.Wins + players[i].Damage.Wins + players[i].Support.Wins,
		}
	}
	return players
}

func assertValidComposition(t *testing.T, c *TeamComposition) {
	t.Helper()
	if !c.Valid() {
		t.Fatalf("Expected five distinct players, got %+v", c.Players())
	}
	counts := map[Role]int{}
	for _, a := range c.Assignments() {
		counts[a.Role]++
	}
	if counts[RoleTank] != 1 || counts[RoleDamage] != 2 || counts[RoleSupport] != 2 {
		t.Errorf("Expected 1/2/2 role split, got %v", counts)
	}
}

func TestGenerateRoleAssignments(t *testing.T) {
	skills := EstimateAll(identicalLobby()[:5])

	comps, err := GenerateRoleAssignments(skills)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(comps) != 30 {
		t.Fatalf("Expected 30 assignments, got %d", len(comps))
	}

	seen := map[string]bool{}
	for _, c := range comps {
		assertValidComposition(t, c)
		key := fmt.Sprintf("%s|%v", c.Tank.ID, map[string]bool{c.Damage1.ID: true, c.Damage2.ID: true})
		if seen[key] {
			t.Errorf("Duplicate tank/damage assignment %s", key)
		}
		seen[key] = true
	}
}

func TestGenerateRoleAssignments_WrongSize(t *testing.T) {
	skills := EstimateAll(identicalLobby()[:4])
	if _, err := GenerateRoleAssignments(skills); !errors.Is(err, ErrInvalidPlayerCount) {
		t.Errorf("Expected ErrInvalidPlayerCount, got %v", err)
	}
}

func TestGenerateSplitCandidates_Exhaustive(t *testing.T) {
	skills := EstimateAll(mixedLobby())
	splits, err := GenerateSplitCandidates(skills, ModeExhaustive, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(splits) != 252 {
		t.Fatalf("Expected 252 splits, got %d", len(splits))
	}

	seen := map[string]bool{}
	for _, split := range splits {
		assertValidComposition(t, split[0])
		assertValidComposition(t, split[1])
		var key string
		members := map[string]bool{}
		for _, p := range split[0].Players() {
			members[p.ID] = true
		}
		for _, p := range split[1].Players() {
			if members[p.ID] {
				t.Fatalf("Player %s on both teams", p.ID)
			}
		}
		key = fmt.Sprint(members)
		if seen[key] {
			t.Errorf("Duplicate team A %s", key)
		}
		seen[key] = true
	}
}

func TestGenerateSplitCandidates_Quick(t *testing.T) {
	skills := EstimateAll(mixedLobby())
	first, err := GenerateSplitCandidates(skills, ModeQuick, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(first) == 0 || len(first) > 5 {
		t.Fatalf("Expected 1-5 quick splits, got %d", len(first))
	}

	second, _ := GenerateSplitCandidates(skills, ModeQuick, nil)
	for i := range first {
		if first[i][0].Tank.ID != second[i][0].Tank.ID || first[i][1].Support2.ID != second[i][1].Support2.ID {
			t.Errorf("Expected quick mode to be deterministic at split %d", i)
		}
	}

	// the first split is straight alternation by overall skill
	ranked := rankBy(skills, allIndices(len(skills)), func(p *PlayerSkill) float64 { return p.Overall })
	members := map[string]bool{}
	for _, p := range first[0][0].Players() {
		members[p.ID] = true
	}
	for rank, idx := range ranked {
		if members[skills[idx].ID] != (rank%2 == 0) {
			t.Errorf("Expected rank %d on team A=%v", rank, rank%2 == 0)
		}
	}
}

func TestGenerateSplitCandidates_Experimental(t *testing.T) {
	skills := EstimateAll(mixedLobby())
	splits, err := GenerateSplitCandidates(skills, ModeExperimental, rand.New(rand.NewPCG(7, 11)))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	quick, _ := GenerateSplitCandidates(skills, ModeQuick, nil)
	if len(splits) < len(quick) || len(splits) > len(quick)+2+randomSplitCount {
		t.Errorf("Expected between %d and %d splits, got %d", len(quick), len(quick)+2+randomSplitCount, len(splits))
	}
	for _, split := range splits {
		assertValidComposition(t, split[0])
		assertValidComposition(t, split[1])
	}
}

func TestGenerateSplitCandidates_WrongSize(t *testing.T) {
	skills := EstimateAll(mixedLobby()[:9])
	if _, err := GenerateSplitCandidates(skills, ModeQuick, nil); !errors.Is(err, ErrInvalidPlayerCount) {
		t.Errorf("Expected ErrInvalidPlayerCount, got %v", err)
	}
}

func TestStratifiedSide_SplitsTopTanks(t *testing.T) {
	lobby := mixedLobby()
	lobby[3].Tank = RoleRecord{Games: 100, Wins: 95}
	lobby[8].Tank = RoleRecord{Games: 100, Wins: 93}
	skills := EstimateAll(lobby)

	side := stratifiedSide(skills, []bool{true, false, true, false}, []bool{false, true, false, true})
	if len(side) != TeamSize {
		t.Fatalf("Expected %d players, got %d", TeamSize, len(side))
	}
	inA := map[int]bool{}
	for _, idx := range side {
		inA[idx] = true
	}
	if inA[3] == inA[8] {
		t.Errorf("Expected the two best tanks on opposite teams")
	}
}

func TestScorePositionFit_Clamped(t *testing.T) {
	star := &PlayerSkill{PlayerSnapshot: PlayerSnapshot{PrimaryRole: RoleDamage}, Tank: 1, Damage: 1, Support: 1, Overall: 1}
	c := &TeamComposition{Tank: star, Damage1: star, Damage2: star, Support1: star, Support2: star}
	if got := ScorePositionFit(c); got != 1.0 {
		t.Errorf("Expected clamped fit 1.0, got %f", got)
	}
	if got := ScoreTeam(c); !almostEqual(got, 1.0) {
		t.Errorf("Expected team score 1.0, got %f", got)
	}
}

func TestScoreTeam_Weights(t *testing.T) {
	p := func(tank, dmg, sup float64) *PlayerSkill {
		return &PlayerSkill{Tank: tank, Damage: dmg, Support: sup}
	}
	c := &TeamComposition{
		Tank:     p(0.6, 0, 0),
		Damage1:  p(0, 0.5, 0),
		Damage2:  p(0, 0.7, 0),
		Support1: p(0, 0, 0.4),
		Support2: p(0, 0, 0.2),
	}
	expected := 0.3*0.6 + 0.4*0.6 + 0.3*0.3
	if got := ScoreTeam(c); !almostEqual(got, expected) {
		t.Errorf("Expected %f, got %f", expected, got)
	}

	// memoized value survives later mutation of the players
	c.Tank.Tank = 0
	if got := ScoreTeam(c); !almostEqual(got, expected) {
		t.Errorf("Expected memoized %f, got %f", expected, got)
	}

	other := &TeamComposition{Tank: p(0.1, 0, 0), Damage1: p(0, 0.1, 0), Damage2: p(0, 0.1, 0), Support1: p(0, 0, 0.1), Support2: p(0, 0, 0.1)}
	if got := ScoreBalance(c, other); !almostEqual(got, 1-(expected-0.1)) {
		t.Errorf("Expected balance %f, got %f", 1-(expected-0.1), got)
	}
}

func TestFindOptimalBalance_IdenticalPlayers(t *testing.T) {
	for _, mode := range Modes {
		results, err := NewBalancer(WithSeed(1)).FindOptimalBalance(identicalLobby(), mode)
		if err != nil {
			t.Fatalf("Unexpected error for %s: %v", mode, err)
		}
		if len(results) == 0 {
			t.Fatalf("Expected results for %s", mode)
		}
		for _, r := range results {
			if math.Abs(r.BalanceScore-1.0) > epsilon {
				t.Errorf("Expected balance 1.0 for %s, got %f", mode, r.BalanceScore)
			}
		}
	}

	skills := EstimateAll(identicalLobby())
	splits, _ := GenerateSplitCandidates(skills, ModeExhaustive, nil)
	for _, split := range splits {
		if r := Evaluate(split[0], split[1]); math.Abs(r.BalanceScore-1.0) > epsilon {
			t.Fatalf("Expected every split to balance to 1.0, got %f", r.BalanceScore)
		}
	}
}

func TestFindOptimalBalance_Deterministic(t *testing.T) {
	first, err := FindOptimalBalance(mixedLobby(), ModeExhaustive)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	second, _ := FindOptimalBalance(mixedLobby(), ModeExhaustive)

	if len(first) != TopResults || len(second) != TopResults {
		t.Fatalf("Expected %d results, got %d and %d", TopResults, len(first), len(second))
	}
	for i := range first {
		if math.Abs(first[i].BalanceScore-second[i].BalanceScore) > epsilon ||
			math.Abs(first[i].SkillDifference-second[i].SkillDifference) > epsilon {
			t.Errorf("Result %d differs between runs", i)
		}
		if first[i].TeamA.Tank.ID != second[i].TeamA.Tank.ID {
			t.Errorf("Result %d tank differs between runs", i)
		}
	}
}

func TestFindOptimalBalance_RankingOrder(t *testing.T) {
	for _, mode := range Modes {
		results, err := NewBalancer(WithSeed(42)).FindOptimalBalance(mixedLobby(), mode)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		for i := 1; i < len(results); i++ {
			prev, cur := results[i-1], results[i]
			if cur.BalanceScore > prev.BalanceScore {
				t.Errorf("%s: balance increased at %d", mode, i)
			}
			if cur.BalanceScore == prev.BalanceScore && cur.SkillDifference < prev.SkillDifference {
				t.Errorf("%s: skill difference decreased at %d", mode, i)
			}
		}
		for _, r := range results {
			assertValidComposition(t, r.TeamA)
			assertValidComposition(t, r.TeamB)
			if r.BalanceScore < 0 || r.BalanceScore > 1 {
				t.Errorf("Balance score out of range: %f", r.BalanceScore)
			}
			if r.Rationale.Overall == "" || r.Rationale.Tank == "" || r.Rationale.Damage == "" || r.Rationale.Support == "" {
				t.Errorf("Expected all rationale fields, got %+v", r.Rationale)
			}
		}
	}
}

func TestFindOptimalBalance_ExhaustiveBeatsQuick(t *testing.T) {
	exhaustive, _ := FindOptimalBalance(mixedLobby(), ModeExhaustive)
	quick, _ := FindOptimalBalance(mixedLobby(), ModeQuick)
	if exhaustive[0].BalanceScore < quick[0].BalanceScore-epsilon {
		t.Errorf("Expected exhaustive best %f >= quick best %f", exhaustive[0].BalanceScore, quick[0].BalanceScore)
	}
}

func TestFindOptimalBalance_InvalidSize(t *testing.T) {
	for _, n := range []int{9, 11} {
		players := make([]PlayerSnapshot, n)
		results, err := FindOptimalBalance(players, ModeQuick)
		if !errors.Is(err, ErrInvalidPlayerCount) {
			t.Errorf("Expected ErrInvalidPlayerCount for %d players, got %v", n, err)
		}
		if results != nil {
			t.Errorf("Expected no results for %d players", n)
		}
	}
}

func TestEvaluate_Symmetry(t *testing.T) {
	skills := EstimateAll(mixedLobby())
	splits, _ := GenerateSplitCandidates(skills, ModeExhaustive, nil)

	for _, split := range splits[:40] {
		ab := Evaluate(split[0], split[1])
		ba := Evaluate(split[1], split[0])
		if math.Abs(ab.BalanceScore-ba.BalanceScore) > epsilon {
			t.Errorf("Expected symmetric balance, got %f and %f", ab.BalanceScore, ba.BalanceScore)
		}
		if math.Abs(ab.SkillDifference-ba.SkillDifference) > epsilon {
			t.Errorf("Expected symmetric gap, got %f and %f", ab.SkillDifference, ba.SkillDifference)
		}
		if math.Abs(ab.WinProbabilityA-(1-ba.WinProbabilityA)) > epsilon {
			t.Errorf("Expected complementary win probability, got %f and %f", ab.WinProbabilityA, ba.WinProbabilityA)
		}
	}
}

func TestWinProbability(t *testing.T) {
	if got := WinProbability(0); got != 0.5 {
		t.Errorf("Expected 0.5 for even teams, got %f", got)
	}
	if got := WinProbability(0.3); got < 0.95 || got > 1 {
		t.Errorf("Expected a large favorite for a 0.3 gap, got %f", got)
	}
	if got := WinProbability(0.05); got < 0.6 || got > 0.7 {
		t.Errorf("Expected a modest edge for a 0.05 gap, got %f", got)
	}
}

func TestDescribeDelta(t *testing.T) {
	tests := []struct {
		delta    float64
		expected string
	}{
		{0.01, "Even tank matchup"},
		{0.05, "Team A has a slight tank advantage (+0.05)"},
		{-0.1, "Team B has a clear tank advantage (-0.10)"},
		{0.3, "Team A has a strong tank advantage (+0.30)"},
	}
	for _, test := range tests {
		if got := describeDelta("tank", test.delta); got != test.expected {
			t.Errorf("For %f, expected '%s', got '%s'", test.delta, test.expected, got)
		}
	}
}

// bipartitionKey names a split by its two sorted rosters, order independent
func bipartitionKey(r BalanceResult) string {
	roster := func(c *TeamComposition) string {
		ids := make([]string, 0, TeamSize)
		for _, p := range c.Players() {
			ids = append(ids, p.ID)
		}
		sort.Strings(ids)
		return strings.Join(ids, ",")
	}
	a, b := roster(r.TeamA), roster(r.TeamB)
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}

func TestFindOptimalBalance_DistinctBipartitions(t *testing.T) {
	for _, lobby := range [][]PlayerSnapshot{mixedLobby(), identicalLobby()} {
		for _, mode := range Modes {
			results, err := NewBalancer(WithSeed(3)).FindOptimalBalance(lobby, mode)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if mode == ModeExhaustive && len(results) != TopResults {
				t.Errorf("Expected %d exhaustive results, got %d", TopResults, len(results))
			}
			seen := map[string]int{}
			for i, r := range results {
				key := bipartitionKey(r)
				if prev, ok := seen[key]; ok {
					t.Errorf("%s: result %d repeats result %d with teams swapped", mode, i+1, prev+1)
				}
				seen[key] = i
			}
		}
	}
}

func TestGenerateSplitCandidates_ExperimentalRequiresRand(t *testing.T) {
	skills := EstimateAll(mixedLobby())
	splits, err := GenerateSplitCandidates(skills, ModeExperimental, nil)
	if !errors.Is(err, ErrNoRandSource) {
		t.Errorf("Expected ErrNoRandSource, got %v", err)
	}
	if splits != nil {
		t.Errorf("Expected no splits, got %d", len(splits))
	}
}
