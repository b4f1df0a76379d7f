package matching

import "sort"

// Candidate carries the per-pair matching factors computed for one requester
// and one potential partner.
type Candidate struct {
	ID               string
	OverlapMinutes   int
	OverlapWindows   int
	SharedFocusAreas int
	SkillLevelDiff   int
}

// Weights combines the three ranking factors into one score. Overlap minutes
// and shared focus areas contribute positively, skill-level distance is
// subtracted, so the score is strictly monotonic in each factor taken alone.
type Weights struct {
	OverlapMinute      float64
	SharedFocusArea    float64
	SkillLevelDistance float64
}

// DefaultWeights values one shared focus area like 45 minutes of overlap and
// one level of skill distance like 20 lost minutes.
var DefaultWeights = Weights{
	OverlapMinute:      1,
	SharedFocusArea:    45,
	SkillLevelDistance: 20,
}

// Score evaluates a candidate under the configured weights.
func (w Weights) Score(c Candidate) float64 {
	return float64(c.OverlapMinutes)*w.OverlapMinute +
		float64(c.SharedFocusAreas)*w.SharedFocusArea -
		float64(c.SkillLevelDiff)*w.SkillLevelDistance
}

// Scored pairs a candidate with its computed score.
type Scored struct {
	Candidate
	Score float64
}

// Rank orders candidates by score descending with ties broken by candidate id
// ascending, so repeated calls over unchanged inputs produce identical
// output. A non-positive limit returns the full ranking.
func Rank(candidates []Candidate, weights Weights, limit int) []Scored {
	ranked := make([]Scored, 0, len(candidates))
	for _, c := range candidates {
		ranked = append(ranked, Scored{Candidate: c, Score: weights.Score(c)})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].ID < ranked[j].ID
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// SharedCount returns how many values the two sets have in common. Duplicate
// entries within one set are counted once.
func SharedCount(a, b []string) int {
	set := make(map[string]struct{}, len(a))
	for _, v := range a {
		set[v] = struct{}{}
	}
	seen := make(map[string]struct{}, len(b))
	count := 0
	for _, v := range b {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		if _, ok := set[v]; ok {
			count++
		}
	}
	return count
}

// Distance returns the absolute difference between two skill-level ordinals.
func Distance(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}
