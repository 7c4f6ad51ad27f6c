package threats

import (
	"math"
	"sort"
	"strings"

	"github.com/ethanolivertroy/threat-modeler/internal/models"
)

// Context carries per-entity facts that adjust scoring
type Context struct {
	Exposed bool
}

// ClassifyComponent returns the sorted STRIDE categories for a component name.
// The result is never empty.
func ClassifyComponent(name string) []models.Category {
	name = strings.ToLower(name)
	set := make(map[models.Category]bool)

	for _, r := range componentRules {
		if strings.Contains(name, r.Keyword) {
			addAll(set, r.Categories)
		}
	}
	for _, o := range componentOverlays {
		if containsAny(name, o.Keywords) {
			addAll(set, o.Categories)
		}
	}
	if len(set) == 0 {
		addAll(set, componentDefault)
	}

	return sorted(set)
}

// ClassifyFlow returns the sorted STRIDE categories for a flow. The result is
// never empty.
func ClassifyFlow(src, dst string) []models.Category {
	src = strings.ToLower(src)
	dst = strings.ToLower(dst)
	set := make(map[models.Category]bool)

	if containsAny(src, untrustedSources) || containsAny(dst, publicDestinations) {
		addAll(set, boundaryCategories)
	}
	if containsAny(dst, storageDestinations) {
		addAll(set, storageCategories)
	}
	if len(set) == 0 {
		addAll(set, flowDefault)
	}

	return sorted(set)
}

// Score assigns each category its base severity, plus the exposure boost when
// ctx.Exposed, clamped to [0, 10]
func Score(categories []models.Category, ctx Context) map[models.Category]float64 {
	scores := make(map[models.Category]float64, len(categories))
	for _, c := range categories {
		s := BaseSeverity(c)
		if ctx.Exposed {
			s += exposureBoost
		}
		scores[c] = math.Max(0, math.Min(maxSeverity, s))
	}
	return scores
}

// IsExposed reports whether a component name marks it as externally reachable
func IsExposed(name string) bool {
	return containsAny(strings.ToLower(name), exposureMarkers)
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func addAll(set map[models.Category]bool, categories []models.Category) {
	for _, c := range categories {
		set[c] = true
	}
}

func sorted(set map[models.Category]bool) []models.Category {
	out := make([]models.Category, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
