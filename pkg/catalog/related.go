package catalog

import (
	"sort"

	"github.com/mchmarny/gearpulse/pkg/config"
	"github.com/mchmarny/gearpulse/pkg/data"
	"github.com/mchmarny/gearpulse/pkg/rank"
)

const (
	relatedLimitDefault   = 6
	minMatchedTagsDefault = 1
)

// RelatedProduct is a scored recommendation for another product.
type RelatedProduct struct {
	*data.Product
	Score           int `json:"score" yaml:"score"`
	MatchedTagCount int `json:"matched_tag_count" yaml:"matched_tag_count"`
}

// Features converts a product into similarity scoring input.
func Features(p *data.Product) *rank.Features {
	if p == nil {
		return nil
	}
	return &rank.Features{
		Tags:         p.Tags,
		Brand:        p.Brand,
		PriceRange:   p.PriceRange,
		MentionCount: p.MentionCount,
		Subcategory:  p.Subcategory,
		LensTags:     p.LensTags,
		BodyTags:     p.BodyTags,
	}
}

// Related scores candidates against source and returns the best matches.
// Candidates sharing fewer than the domain's minimum matched tags are dropped.
// Ties on score fall back to mention count, then name.
func Related(source *data.Product, candidates []*data.Product, d *config.Domain) []*RelatedProduct {
	limit, minMatched, order := relatedLimitDefault, minMatchedTagsDefault, []string(nil)
	if d != nil {
		if d.RelatedLimit > 0 {
			limit = d.RelatedLimit
		}
		minMatched = d.MinMatchedTags
		order = d.PriceRanges
	}

	list := make([]*RelatedProduct, 0, len(candidates))
	if source == nil {
		return list
	}

	src := Features(source)
	for _, c := range candidates {
		if c == nil || c.ID == source.ID {
			continue
		}
		r := rank.Similarity(src, Features(c), order)
		if r.MatchedTagCount < minMatched {
			continue
		}
		list = append(list, &RelatedProduct{
			Product:         c,
			Score:           r.Score,
			MatchedTagCount: r.MatchedTagCount,
		})
	}

	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.MentionCount != b.MentionCount {
			return a.MentionCount > b.MentionCount
		}
		return a.Name < b.Name
	})

	if len(list) > limit {
		list = list[:limit]
	}

	return list
}
