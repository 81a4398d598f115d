// Package recommend holds the catalog heuristics behind the combined
// recommendation: scent filtering, rating order and loose name matching.
package recommend

import (
	"cmp"
	"slices"
	"strings"

	"github.com/edgard/weatherscent/internal/ai"
	"github.com/edgard/weatherscent/internal/model"
)

// MaxResults caps every list produced by this package.
const MaxResults = 3

// MatchesScent reports whether the perfume's category or any note contains
// one of the scents, ignoring case.
func MatchesScent(p model.Perfume, scents []string) bool {
	category := strings.ToLower(p.Category)
	for _, scent := range scents {
		s := strings.ToLower(strings.TrimSpace(scent))
		if s == "" {
			continue
		}
		if strings.Contains(category, s) {
			return true
		}
		for _, note := range p.Notes {
			if strings.Contains(strings.ToLower(note), s) {
				return true
			}
		}
	}
	return false
}

// ScentFilter keeps the perfumes matching any scent. With no scents, or no
// match, the input is returned unchanged.
func ScentFilter(all []model.Perfume, scents []string) []model.Perfume {
	if len(scents) == 0 {
		return all
	}
	filtered := make([]model.Perfume, 0, len(all))
	for _, p := range all {
		if MatchesScent(p, scents) {
			filtered = append(filtered, p)
		}
	}
	if len(filtered) == 0 {
		return all
	}
	return filtered
}

// ByRating returns a copy of perfumes sorted by rating, highest first. Ties
// keep their input order.
func ByRating(perfumes []model.Perfume) []model.Perfume {
	sorted := slices.Clone(perfumes)
	slices.SortStableFunc(sorted, func(a, b model.Perfume) int {
		return cmp.Compare(b.Rating, a.Rating)
	})
	return sorted
}

// TopRated returns the n highest-rated perfumes.
func TopRated(perfumes []model.Perfume, n int) []model.Perfume {
	sorted := ByRating(perfumes)
	return sorted[:min(n, len(sorted))]
}

// PrepareCandidates is the list offered to the model: the scent-filtered
// catalog ordered by rating.
func PrepareCandidates(all []model.Perfume, scents []string) []model.Perfume {
	return ByRating(ScentFilter(all, scents))
}

// MatchPicks resolves picks against the catalog. Every perfume whose name
// contains the pick name (or the reverse) or whose brand equals the pick
// brand is taken, in catalog order. Each perfume appears once and carries
// the reason of the first pick that matched it.
func MatchPicks(picks []ai.Pick, all []model.Perfume) []model.ScoredPerfume {
	var out []model.ScoredPerfume
	seen := make(map[int64]bool)
	add := func(p model.Perfume, reason string) {
		if seen[p.ID] {
			return
		}
		seen[p.ID] = true
		out = append(out, model.ScoredPerfume{Perfume: p, Reason: reason})
	}

	for _, pick := range picks {
		name := strings.ToLower(strings.TrimSpace(pick.Name))
		brand := strings.TrimSpace(pick.Brand)
		for _, p := range all {
			stored := strings.ToLower(p.Name)
			nameHit := name != "" && (strings.Contains(stored, name) || strings.Contains(name, stored))
			brandHit := brand != "" && strings.EqualFold(p.Brand, brand)
			if nameHit || brandHit {
				add(p, pick.Reason)
			}
		}
	}
	return out
}

// Select turns the model's picks into at most MaxResults perfumes. When no
// pick matches, it falls back to the scent-filtered catalog and then to the
// top-rated perfumes, reusing the default reason.
func Select(picks []ai.Pick, all []model.Perfume, scents []string, defaultReason func(model.Perfume) string) []model.ScoredPerfume {
	matched := MatchPicks(picks, all)
	if len(matched) > 0 {
		return matched[:min(MaxResults, len(matched))]
	}

	source := ScentFilter(all, scents)
	out := make([]model.ScoredPerfume, 0, MaxResults)
	for _, p := range TopRated(source, MaxResults) {
		out = append(out, model.ScoredPerfume{Perfume: p, Reason: defaultReason(p)})
	}
	return out
}

// Similar returns up to MaxResults other perfumes of the same category,
// highest rated first.
func Similar(target model.Perfume, all []model.Perfume) []model.Perfume {
	same := make([]model.Perfume, 0, len(all))
	for _, p := range all {
		if p.ID != target.ID && strings.EqualFold(p.Category, target.Category) {
			same = append(same, p)
		}
	}
	return TopRated(same, MaxResults)
}
