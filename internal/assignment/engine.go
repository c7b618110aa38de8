package assignment

import (
	"fmt"
	"sort"

	"github.com/hey-coffee/maintenance-service/internal/domain"
)

// Strategy names a fixed weighting scheme. The set is closed so that
// scoring stays reproducible; free-form weight configuration is deliberately
// not supported.
type Strategy string

const (
	StrategySkillMatch  Strategy = "skill_match"
	StrategyLeastLoaded Strategy = "least_loaded"
	StrategyRoundRobin  Strategy = "round_robin"
)

// DefaultStrategy is used when the caller does not name one.
const DefaultStrategy = StrategySkillMatch

// Weights combines the three candidate factors into a composite score.
type Weights struct {
	SkillMatch   float64
	Workload     float64
	Availability float64
}

var strategyWeights = map[Strategy]Weights{
	StrategySkillMatch:  {SkillMatch: 0.5, Workload: 0.3, Availability: 0.2},
	StrategyLeastLoaded: {SkillMatch: 0.2, Workload: 0.6, Availability: 0.2},
}

// ParseStrategy resolves a strategy name, defaulting on empty input.
func ParseStrategy(name string) (Strategy, error) {
	switch Strategy(name) {
	case "":
		return DefaultStrategy, nil
	case StrategySkillMatch, StrategyLeastLoaded, StrategyRoundRobin:
		return Strategy(name), nil
	}
	return "", fmt.Errorf("unknown assignment strategy %q", name)
}

// Weights returns the factor weights for scoring strategies. Round robin
// carries no weights; it rotates instead of scoring.
func (s Strategy) Weights() Weights {
	return strategyWeights[s]
}

// Seed is the roster row fed into ranking: one technician with declared
// skills, current load, and an externally supplied availability signal.
type Seed struct {
	ProfileID       string
	Name            string
	BranchID        *string
	Active          bool
	Skills          []domain.TechnicianSkill
	CurrentWorkload int
	MaxWorkload     int
	Availability    float64
}

// Request carries the assignment-relevant fields of a maintenance request.
// An empty BranchID means the request does not constrain the branch.
type Request struct {
	Category string
	BranchID string
}

// Factors are the per-candidate scoring inputs, each in [0,1].
type Factors struct {
	SkillMatch   float64 `json:"skill_match"`
	Workload     float64 `json:"workload"`
	Availability float64 `json:"availability"`
}

// Candidate is a scored roster entry. Computed fresh on every query and
// never persisted.
type Candidate struct {
	ProfileID       string
	Name            string
	CurrentWorkload int
	MaxWorkload     int
	SkillLevel      int
	Score           float64
	Factors         Factors
}

// Recommendation is the ranked output plus the suggested top choice.
type Recommendation struct {
	Candidates    []Candidate
	RecommendedID *string
	Strategy      Strategy
}

// Eligible reports whether the technician may appear in the candidate list.
// Skill match is deliberately not part of eligibility; it only influences
// ranking.
func Eligible(seed Seed, req Request) bool {
	if !seed.Active {
		return false
	}
	if seed.MaxWorkload <= 0 || seed.CurrentWorkload >= seed.MaxWorkload {
		return false
	}
	if req.BranchID != "" && seed.BranchID != nil && *seed.BranchID != req.BranchID {
		return false
	}
	return true
}

// Rank filters the roster to eligible technicians, scores them under the
// strategy, and returns the ranked list. rotation is the round-robin cursor
// (count of prior rotations); it is ignored by the scoring strategies. An
// empty result is a valid answer, not an error.
func Rank(req Request, seeds []Seed, strategy Strategy, rotation uint64) Recommendation {
	eligible := make([]Seed, 0, len(seeds))
	for _, seed := range seeds {
		if Eligible(seed, req) {
			eligible = append(eligible, seed)
		}
	}
	// Stable base order for deterministic ties and rotation.
	sort.Slice(eligible, func(i, j int) bool {
		return eligible[i].ProfileID < eligible[j].ProfileID
	})

	rec := Recommendation{Strategy: strategy, Candidates: make([]Candidate, 0, len(eligible))}
	if len(eligible) == 0 {
		return rec
	}

	if strategy == StrategyRoundRobin {
		start := int(rotation % uint64(len(eligible)))
		for i := range eligible {
			seed := eligible[(start+i)%len(eligible)]
			rec.Candidates = append(rec.Candidates, newCandidate(seed, req, Weights{}))
		}
	} else {
		weights := strategy.Weights()
		for _, seed := range eligible {
			rec.Candidates = append(rec.Candidates, newCandidate(seed, req, weights))
		}
		sort.SliceStable(rec.Candidates, func(i, j int) bool {
			a, b := rec.Candidates[i], rec.Candidates[j]
			if a.Score != b.Score {
				return a.Score > b.Score
			}
			if a.SkillLevel != b.SkillLevel {
				return a.SkillLevel > b.SkillLevel
			}
			if a.CurrentWorkload != b.CurrentWorkload {
				return a.CurrentWorkload < b.CurrentWorkload
			}
			return a.ProfileID < b.ProfileID
		})
	}

	id := rec.Candidates[0].ProfileID
	rec.RecommendedID = &id
	return rec
}

func newCandidate(seed Seed, req Request, weights Weights) Candidate {
	level := matchingSkillLevel(seed.Skills, req.Category)
	factors := Factors{
		SkillMatch:   float64(level) / 5.0,
		Workload:     workloadFactor(seed.CurrentWorkload, seed.MaxWorkload),
		Availability: clampUnit(seed.Availability),
	}
	return Candidate{
		ProfileID:       seed.ProfileID,
		Name:            seed.Name,
		CurrentWorkload: seed.CurrentWorkload,
		MaxWorkload:     seed.MaxWorkload,
		SkillLevel:      level,
		Score: weights.SkillMatch*factors.SkillMatch +
			weights.Workload*factors.Workload +
			weights.Availability*factors.Availability,
		Factors: factors,
	}
}

func matchingSkillLevel(skills []domain.TechnicianSkill, category string) int {
	best := 0
	for _, skill := range skills {
		if skill.Category == category && skill.SkillLevel > best {
			best = skill.SkillLevel
		}
	}
	if best > 5 {
		best = 5
	}
	return best
}

func workloadFactor(current, max int) float64 {
	if max <= 0 {
		return 0
	}
	f := 1 - float64(current)/float64(max)
	return clampUnit(f)
}

func clampUnit(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
