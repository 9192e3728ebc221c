package rank

import (
	"slices"
	"strings"
)

const (
	tagMatchPoints       = 3
	subcategoryPoints    = 3
	extraTagMatchPoints  = 2
	samePricePoints      = 2
	adjacentPricePoints  = 1
	sameBrandPenalty     = -1
	popularityPoints     = 1
	popularityMinMention = 3
)

// Features is the flattened view of a catalog item used for comparison.
// LensTags, BodyTags and Subcategory are only populated by domains that define them.
type Features struct {
	Tags         []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	Brand        string   `json:"brand,omitempty" yaml:"brand,omitempty"`
	PriceRange   string   `json:"price_range,omitempty" yaml:"priceRange,omitempty"`
	MentionCount int      `json:"mention_count" yaml:"mentionCount"`
	Subcategory  string   `json:"subcategory,omitempty" yaml:"subcategory,omitempty"`
	LensTags     []string `json:"lens_tags,omitempty" yaml:"lensTags,omitempty"`
	BodyTags     []string `json:"body_tags,omitempty" yaml:"bodyTags,omitempty"`
}

// Result is the outcome of a similarity comparison. MatchedTagCount counts
// matches across the tag dimensions only and is meant for relevance cutoffs.
type Result struct {
	Score           int `json:"score" yaml:"score"`
	MatchedTagCount int `json:"matched_tag_count" yaml:"matchedTagCount"`
}

// Similarity scores candidate against source. Every dimension is evaluated
// independently and missing fields contribute nothing. The popularity bonus
// only looks at the candidate, so the score is not symmetric.
func Similarity(source, candidate *Features, priceRangeOrder []string) Result {
	if source == nil {
		source = &Features{}
	}
	if candidate == nil {
		candidate = &Features{}
	}

	var res Result
	n := overlap(source.Tags, candidate.Tags)
	res.Score += n * tagMatchPoints
	res.MatchedTagCount += n

	if source.Subcategory != "" && candidate.Subcategory != "" && source.Subcategory == candidate.Subcategory {
		res.Score += subcategoryPoints
	}

	n = overlap(source.LensTags, candidate.LensTags)
	res.Score += n * extraTagMatchPoints
	res.MatchedTagCount += n

	n = overlap(source.BodyTags, candidate.BodyTags)
	res.Score += n * extraTagMatchPoints
	res.MatchedTagCount += n

	res.Score += pricePoints(source.PriceRange, candidate.PriceRange, priceRangeOrder)

	if source.Brand != "" && candidate.Brand != "" && strings.EqualFold(source.Brand, candidate.Brand) {
		res.Score += sameBrandPenalty
	}

	if candidate.MentionCount >= popularityMinMention {
		res.Score += popularityPoints
	}

	return res
}

// overlap counts distinct candidate entries present in source.
func overlap(source, candidate []string) int {
	if len(source) == 0 || len(candidate) == 0 {
		return 0
	}

	set := make(map[string]struct{}, len(source))
	for _, s := range source {
		set[s] = struct{}{}
	}

	seen := make(map[string]struct{}, len(candidate))
	n := 0
	for _, c := range candidate {
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		if _, ok := set[c]; ok {
			n++
		}
	}
	return n
}

func pricePoints(a, b string, order []string) int {
	if a == "" || b == "" {
		return 0
	}

	i := slices.Index(order, a)
	j := slices.Index(order, b)
	if i < 0 || j < 0 {
		return 0
	}

	switch d := abs(i - j); d {
	case 0:
		return samePricePoints
	case 1:
		return adjacentPricePoints
	default:
		return 0
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
