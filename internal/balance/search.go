package balance

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"time"
)

// TopResults is the number of ranked results a search returns
const TopResults = 5

// winCurveSlope keeps realistic skill gaps inside roughly [0.15, 0.85] win probability
const winCurveSlope = 5.0

// Rationale is a short per-role commentary on a split
type Rationale struct {
	Overall string `json:"overall"`
	Tank    string `json:"tank"`
	Damage  string `json:"damage"`
	Support string `json:"support"`
}

// BalanceResult is one evaluated pairing
type BalanceResult struct {
	TeamA           *TeamComposition `json:"teamA"`
	TeamB           *TeamComposition `json:"teamB"`
	BalanceScore    float64          `json:"balanceScore"`
	SkillDifference float64          `json:"skillDifference"`
	WinProbabilityA float64          `json:"winProbabilityA"`
	Rationale       Rationale        `json:"rationale"`
}

// Balancer runs balance searches. A Balancer is not safe for concurrent use
// because it owns its random source; construct one per goroutine.
type Balancer struct {
	rng *rand.Rand
}

// Option configures a Balancer
type Option func(*Balancer)

// WithRand sets the random source used by experimental mode
func WithRand(rng *rand.Rand) Option {
	return func(b *Balancer) {
		if rng != nil {
			b.rng = rng
		}
	}
}

// WithSeed makes experimental mode reproducible
func WithSeed(seed uint64) Option {
	return WithRand(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

// NewBalancer creates a Balancer with a time seeded random source
func NewBalancer(opts ...Option) *Balancer {
	now := uint64(time.Now().UnixNano())
	b := &Balancer{rng: rand.New(rand.NewPCG(now, now>>1))}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// FindOptimalBalance estimates skills, generates candidates for the mode,
// scores every candidate and returns the best TopResults ranked by
// balance score, then skill gap, then distance from a 50/50 prediction.
// An empty slice with a nil error means no candidate could be built.
func (b *Balancer) FindOptimalBalance(players []PlayerSnapshot, mode Mode) ([]BalanceResult, error) {
	if len(players) != LobbySize {
		return nil, fmt.Errorf("%w: need %d players, got %d", ErrInvalidPlayerCount, LobbySize, len(players))
	}

	skills := EstimateAll(players)
	splits, err := GenerateSplitCandidates(skills, mode, b.rng)
	if err != nil {
		return nil, err
	}

	results := make([]BalanceResult, 0, len(splits))
	for _, split := range splits {
		results = append(results, Evaluate(split[0], split[1]))
	}
	Rank(results)
	return distinctTop(results, skills, TopResults), nil
}

// distinctTop keeps the first n results that seat a different bipartition of
// the lobby. A split and its A/B mirror count once.
func distinctTop(ranked []BalanceResult, lobby []*PlayerSkill, n int) []BalanceResult {
	index := make(map[*PlayerSkill]uint, len(lobby))
	for i, p := range lobby {
		index[p] = uint(i)
	}

	seen := make(map[uint16]bool, n)
	out := make([]BalanceResult, 0, n)
	for _, r := range ranked {
		if len(out) == n {
			break
		}
		var mask uint16
		for _, p := range r.TeamA.Players() {
			mask |= 1 << index[p]
		}
		mirror := ^mask & (1<<LobbySize - 1)
		if seen[mask] || seen[mirror] {
			continue
		}
		seen[mask] = true
		out = append(out, r)
	}
	return out
}

// Evaluate scores one pairing
func Evaluate(a, b *TeamComposition) BalanceResult {
	scoreA, scoreB := a.FinalScore(), b.FinalScore()
	winA := WinProbability(scoreA - scoreB)
	return BalanceResult{
		TeamA:           a,
		TeamB:           b,
		BalanceScore:    clamp01(1.0 - 2*math.Abs(winA-0.5)),
		SkillDifference: math.Abs(scoreA - scoreB),
		WinProbabilityA: winA,
		Rationale:       buildRationale(a, b, winA),
	}
}

// WinProbability maps a final score gap to team A's predicted win chance
func WinProbability(gap float64) float64 {
	return 1.0 / (1.0 + math.Pow(10, -winCurveSlope*gap))
}

// Rank orders results in place, best first
func Rank(results []BalanceResult) {
	sort.SliceStable(results, func(i, j int) bool {
		ri, rj := results[i], results[j]
		if ri.BalanceScore != rj.BalanceScore {
			return ri.BalanceScore > rj.BalanceScore
		}
		if ri.SkillDifference != rj.SkillDifference {
			return ri.SkillDifference < rj.SkillDifference
		}
		return math.Abs(ri.WinProbabilityA-0.5) < math.Abs(rj.WinProbabilityA-0.5)
	})
}

// FindOptimalBalance runs a search with a fresh Balancer
func FindOptimalBalance(players []PlayerSnapshot, mode Mode) ([]BalanceResult, error) {
	return NewBalancer().FindOptimalBalance(players, mode)
}

func buildRationale(a, b *TeamComposition, winA float64) Rationale {
	tank := a.Tank.Tank - b.Tank.Tank
	damage := (a.Damage1.Damage+a.Damage2.Damage)/2 - (b.Damage1.Damage+b.Damage2.Damage)/2
	support := (a.Support1.Support+a.Support2.Support)/2 - (b.Support1.Support+b.Support2.Support)/2

	overall := fmt.Sprintf("Predicted %.0f%% / %.0f%%", winA*100, (1-winA)*100)
	switch {
	case math.Abs(winA-0.5) < 0.02:
		overall += ", a coin flip"
	case winA > 0.5:
		overall += ", Team A favored"
	default:
		overall += ", Team B favored"
	}

	return Rationale{
		Overall: overall,
		Tank:    describeDelta("tank", tank),
		Damage:  describeDelta("damage", damage),
		Support: describeDelta("support", support),
	}
}

func describeDelta(role string, delta float64) string {
	mag := math.Abs(delta)
	var strength string
	switch {
	case mag < 0.02:
		return fmt.Sprintf("Even %s matchup", role)
	case mag < 0.08:
		strength = "slight"
	case mag < 0.15:
		strength = "clear"
	default:
		strength = "strong"
	}
	side := "A"
	if delta < 0 {
		side = "B"
	}
	return fmt.Sprintf("Team %s has a %s %s advantage (%+.2f)", side, strength, role, delta)
}
