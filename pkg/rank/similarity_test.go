package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarity_TagOverlap(t *testing.T) {
	src := &Features{Tags: []string{"A", "B"}}
	cand := &Features{Tags: []string{"A", "C"}, MentionCount: 0}

	res := Similarity(src, cand, []string{})
	assert.Equal(t, 3, res.Score)
	assert.Equal(t, 1, res.MatchedTagCount)
}

func TestSimilarity_DuplicateTagsCollapse(t *testing.T) {
	src := &Features{Tags: []string{"A", "A", "B"}}
	cand := &Features{Tags: []string{"A", "A", "B", "B"}}

	res := Similarity(src, cand, nil)
	assert.Equal(t, 6, res.Score)
	assert.Equal(t, 2, res.MatchedTagCount)
}

func TestSimilarity_BrandPenaltyAndPopularity(t *testing.T) {
	src := &Features{Brand: "X", Tags: []string{}}
	cand := &Features{Brand: "x", Tags: []string{}, MentionCount: 5}

	res := Similarity(src, cand, nil)
	assert.Equal(t, 0, res.Score)
	assert.Equal(t, 0, res.MatchedTagCount)
}

func TestSimilarity_PriceProximity(t *testing.T) {
	order := []string{"a", "b", "c"}
	src := &Features{PriceRange: "a"}

	tests := []struct {
		price string
		want  int
	}{
		{"c", 0},
		{"b", 1},
		{"a", 2},
		{"z", 0},
		{"", 0},
	}

	for _, tt := range tests {
		t.Run(tt.price, func(t *testing.T) {
			res := Similarity(src, &Features{PriceRange: tt.price}, order)
			assert.Equal(t, tt.want, res.Score)
			assert.Equal(t, 0, res.MatchedTagCount)
		})
	}
}

func TestSimilarity_PriceUnresolvableSource(t *testing.T) {
	order := []string{"a", "b"}
	res := Similarity(&Features{PriceRange: "missing"}, &Features{PriceRange: "a"}, order)
	assert.Equal(t, 0, res.Score)

	res = Similarity(&Features{}, &Features{PriceRange: "a"}, order)
	assert.Equal(t, 0, res.Score)
}

func TestSimilarity_Subcategory(t *testing.T) {
	res := Similarity(&Features{Subcategory: "mirrorless"}, &Features{Subcategory: "mirrorless"}, nil)
	assert.Equal(t, 3, res.Score)
	assert.Equal(t, 0, res.MatchedTagCount)

	res = Similarity(&Features{Subcategory: "mirrorless"}, &Features{Subcategory: "Mirrorless"}, nil)
	assert.Equal(t, 0, res.Score)

	res = Similarity(&Features{}, &Features{}, nil)
	assert.Equal(t, 0, res.Score)
}

func TestSimilarity_LensAndBodyTags(t *testing.T) {
	src := &Features{
		LensTags: []string{"wide", "prime"},
		BodyTags: []string{"full-frame", "compact"},
	}
	cand := &Features{
		LensTags: []string{"prime", "zoom"},
		BodyTags: []string{"full-frame", "compact", "weather-sealed"},
	}

	res := Similarity(src, cand, nil)
	assert.Equal(t, 2+2+2, res.Score)
	assert.Equal(t, 3, res.MatchedTagCount)
}

func TestSimilarity_AllDimensions(t *testing.T) {
	order := []string{"under_5000", "5000_10000", "10000_30000"}
	src := &Features{
		Tags:        []string{"minimal", "white"},
		Brand:       "Logitech",
		PriceRange:  "5000_10000",
		Subcategory: "mouse",
		LensTags:    []string{"x"},
		BodyTags:    []string{"y"},
	}
	cand := &Features{
		Tags:         []string{"white", "minimal", "rgb"},
		Brand:        "LOGITECH",
		PriceRange:   "10000_30000",
		Subcategory:  "mouse",
		LensTags:     []string{"x"},
		BodyTags:     []string{"z"},
		MentionCount: 3,
	}

	res := Similarity(src, cand, order)
	// tags 2*3 + subcategory 3 + lens 2 + price 1 - brand 1 + popularity 1
	assert.Equal(t, 12, res.Score)
	assert.Equal(t, 3, res.MatchedTagCount)
}

func TestSimilarity_Asymmetric(t *testing.T) {
	a := &Features{Tags: []string{"t"}, MentionCount: 0}
	b := &Features{Tags: []string{"t"}, MentionCount: 10}

	ab := Similarity(a, b, nil)
	ba := Similarity(b, a, nil)
	assert.Equal(t, 4, ab.Score)
	assert.Equal(t, 3, ba.Score)
	assert.Equal(t, ab.MatchedTagCount, ba.MatchedTagCount)
}

func TestSimilarity_NilInputs(t *testing.T) {
	assert.Equal(t, Result{}, Similarity(nil, nil, nil))
	assert.Equal(t, Result{Score: 1}, Similarity(nil, &Features{MentionCount: 4}, nil))
	assert.Equal(t, Result{}, Similarity(&Features{MentionCount: 9}, nil, nil))
}

func TestSimilarity_PopularityThreshold(t *testing.T) {
	assert.Equal(t, 0, Similarity(&Features{}, &Features{MentionCount: 2}, nil).Score)
	assert.Equal(t, 1, Similarity(&Features{}, &Features{MentionCount: 3}, nil).Score)
}
