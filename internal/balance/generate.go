package balance

import (
	"fmt"
	"math/rand/v2"
	"sort"
)

// randomSplitCount is the number of random splits added in experimental mode
const randomSplitCount = 10

// Split is one candidate pairing, each side already reduced to its best role assignment
type Split [2]*TeamComposition

// GenerateRoleAssignments returns every way to seat five players as
// one tank, two damage and two support: 5 * C(4,2) = 30 compositions.
func GenerateRoleAssignments(players []*PlayerSkill) ([]*TeamComposition, error) {
	if len(players) != TeamSize {
		return nil, fmt.Errorf("%w: role assignment needs %d players, got %d", ErrInvalidPlayerCount, TeamSize, len(players))
	}

	comps := make([]*TeamComposition, 0, 30)
	for t := range players {
		rest := make([]*PlayerSkill, 0, TeamSize-1)
		for i, p := range players {
			if i != t {
				rest = append(rest, p)
			}
		}
		for i := 0; i < len(rest); i++ {
			for j := i + 1; j < len(rest); j++ {
				var supports []*PlayerSkill
				for k, p := range rest {
					if k != i && k != j {
						supports = append(supports, p)
					}
				}
				comps = append(comps, &TeamComposition{
					Tank:     players[t],
					Damage1:  rest[i],
					Damage2:  rest[j],
					Support1: supports[0],
					Support2: supports[1],
				})
			}
		}
	}
	return comps, nil
}

// BestAssignment picks the composition with the highest team score plus position fit.
// Ties keep the first generated composition.
func BestAssignment(players []*PlayerSkill) (*TeamComposition, bool) {
	comps, err := GenerateRoleAssignments(players)
	if err != nil || len(comps) == 0 {
		return nil, false
	}
	best := comps[0]
	bestValue := best.TeamScore() + best.PositionFit()
	for _, c := range comps[1:] {
		if v := c.TeamScore() + c.PositionFit(); v > bestValue {
			best, bestValue = c, v
		}
	}
	return best, true
}

// GenerateSplitCandidates produces candidate splits of a ten player lobby for a mode.
// rng is only consulted in experimental mode, which fails with ErrNoRandSource when it is nil.
func GenerateSplitCandidates(players []*PlayerSkill, mode Mode, rng *rand.Rand) ([]Split, error) {
	if len(players) != LobbySize {
		return nil, fmt.Errorf("%w: need %d players, got %d", ErrInvalidPlayerCount, LobbySize, len(players))
	}

	var sides [][]int
	switch mode {
	case ModeExhaustive:
		sides = exhaustiveSides()
	case ModeQuick:
		sides = quickSides(players)
	case ModeExperimental:
		if rng == nil {
			return nil, ErrNoRandSource
		}
		sides = experimentalSides(players, rng)
	default:
		return nil, fmt.Errorf("%w: %d", ErrInvalidMode, int(mode))
	}

	splits := make([]Split, 0, len(sides))
	for _, sideA := range sides {
		if split, ok := buildSplit(players, sideA); ok {
			splits = append(splits, split)
		}
	}
	return splits, nil
}

// buildSplit seats sideA (lobby indices) against the complement
func buildSplit(players []*PlayerSkill, sideA []int) (Split, bool) {
	inA := make([]bool, len(players))
	for _, idx := range sideA {
		inA[idx] = true
	}
	var a, b []*PlayerSkill
	for i, p := range players {
		if inA[i] {
			a = append(a, p)
		} else {
			b = append(b, p)
		}
	}

	teamA, ok := BestAssignment(a)
	if !ok {
		return Split{}, false
	}
	teamB, ok := BestAssignment(b)
	if !ok {
		return Split{}, false
	}
	return Split{teamA, teamB}, true
}

// exhaustiveSides lists all C(10,5) = 252 choices of team A in lexicographic order
func exhaustiveSides() [][]int {
	var out [][]int
	combo := make([]int, 0, TeamSize)
	var walk func(start int)
	walk = func(start int) {
		if len(combo) == TeamSize {
			out = append(out, append([]int(nil), combo...))
			return
		}
		for i := start; i <= LobbySize-(TeamSize-len(combo)); i++ {
			combo = append(combo, i)
			walk(i + 1)
			combo = combo[:len(combo)-1]
		}
	}
	walk(0)
	return out
}

// quickRankPatterns are team A's positions in the overall skill ranking.
// The first is straight alternation, the second a snake draft, and the rest
// split the top four two-and-two with the remainder alternated.
var quickRankPatterns = [][]int{
	{0, 2, 4, 6, 8},
	{0, 3, 4, 7, 8},
	{0, 3, 4, 6, 8},
	{0, 3, 5, 7, 9},
	{0, 1, 5, 7, 9},
}

func quickSides(players []*PlayerSkill) [][]int {
	ranked := rankBy(players, allIndices(len(players)), func(p *PlayerSkill) float64 { return p.Overall })

	seen := make(map[uint16]bool)
	var out [][]int
	for _, pattern := range quickRankPatterns {
		side := make([]int, len(pattern))
		for i, rank := range pattern {
			side[i] = ranked[rank]
		}
		out = appendUnique(out, seen, side)
	}
	return out
}

func experimentalSides(players []*PlayerSkill, rng *rand.Rand) [][]int {
	seen := make(map[uint16]bool)
	var out [][]int
	for _, side := range quickSides(players) {
		out = appendUnique(out, seen, side)
	}

	// role-stratified: alternate the best tanks, then damage, then support
	for _, order := range [][2][]bool{
		{{true, false, true, false}, {false, true, false, true}},
		{{true, false, false, true}, {false, true, true, false}},
	} {
		out = appendUnique(out, seen, stratifiedSide(players, order[0], order[1]))
	}

	for i := 0; i < randomSplitCount; i++ {
		perm := rng.Perm(LobbySize)
		out = appendUnique(out, seen, perm[:TeamSize])
	}
	return out
}

// stratifiedSide builds team A by role: the top two tanks are split, then the
// top four damage players and last four supports follow the given A/B patterns.
func stratifiedSide(players []*PlayerSkill, damageToA, supportToA []bool) []int {
	remaining := allIndices(len(players))
	var side []int

	tanks := rankBy(players, remaining, func(p *PlayerSkill) float64 { return p.Tank })
	side = append(side, tanks[0])
	remaining = without(remaining, tanks[:2])

	damage := rankBy(players, remaining, func(p *PlayerSkill) float64 { return p.Damage })
	for i, toA := range damageToA {
		if toA {
			side = append(side, damage[i])
		}
	}
	remaining = without(remaining, damage[:4])

	support := rankBy(players, remaining, func(p *PlayerSkill) float64 { return p.Support })
	for i, toA := range supportToA {
		if toA {
			side = append(side, support[i])
		}
	}
	return side
}

// rankBy sorts lobby indices by score descending, ties by lobby order
func rankBy(players []*PlayerSkill, indices []int, score func(*PlayerSkill) float64) []int {
	out := append([]int(nil), indices...)
	sort.SliceStable(out, func(i, j int) bool {
		return score(players[out[i]]) > score(players[out[j]])
	})
	return out
}

func allIndices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func without(indices, drop []int) []int {
	skip := make(map[int]bool, len(drop))
	for _, d := range drop {
		skip[d] = true
	}
	var out []int
	for _, i := range indices {
		if !skip[i] {
			out = append(out, i)
		}
	}
	return out
}

// appendUnique adds side unless it, or its mirror, was already emitted
func appendUnique(out [][]int, seen map[uint16]bool, side []int) [][]int {
	if len(side) != TeamSize {
		return out
	}
	var mask uint16
	for _, idx := range side {
		mask |= 1 << idx
	}
	mirror := ^mask & (1<<LobbySize - 1)
	if seen[mask] || seen[mirror] {
		return out
	}
	seen[mask] = true
	return append(out, append([]int(nil), side...))
}
