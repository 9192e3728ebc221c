// Package rank assigns popularity ranks to mention-sorted listings and scores
// product similarity for related-product recommendations.
package rank

import (
	"slices"
)

const (
	pageDefault  = 1
	limitDefault = 20
)

// Rankable is anything carrying a mention count.
type Rankable interface {
	GetMentionCount() int
}

// Options describes the pagination window a slice of items represents.
type Options struct {
	Page         int  `json:"page,omitempty" yaml:"page,omitempty"`
	Limit        int  `json:"limit,omitempty" yaml:"limit,omitempty"`
	OnlyIfSorted bool `json:"only_if_sorted,omitempty" yaml:"onlyIfSorted,omitempty"`
}

// Ranked wraps an item with its global rank. Rank is nil when ranking was skipped.
type Ranked[T Rankable] struct {
	Item T    `json:"item" yaml:"item"`
	Rank *int `json:"rank,omitempty" yaml:"rank,omitempty"`
}

func (o *Options) window() (page, limit int) {
	page, limit = pageDefault, limitDefault
	if o == nil {
		return page, limit
	}
	if o.Page > 0 {
		page = o.Page
	}
	if o.Limit > 0 {
		limit = o.Limit
	}
	return page, limit
}

// AssignRanks returns the items with competition-style ranks reflecting their
// global position across pages. Items are expected in descending mention count
// order. Tied items share the rank of the first item in the run and the next
// distinct count resumes at its one-based global position, so [10, 10, 7] on
// page 1 ranks as [1, 1, 3].
//
// With OnlyIfSorted set, unsorted input yields every item unranked.
func AssignRanks[T Rankable](items []T, opts *Options) []Ranked[T] {
	out := make([]Ranked[T], len(items))
	for i, it := range items {
		out[i] = Ranked[T]{Item: it}
	}

	if len(items) == 0 {
		return out
	}

	if opts != nil && opts.OnlyIfSorted && !IsSorted(items) {
		return out
	}

	page, limit := opts.window()
	offset := (page - 1) * limit

	var current, prev int
	for i, it := range items {
		count := it.GetMentionCount()
		if i == 0 || count != prev {
			current = offset + i + 1
		}
		r := current
		out[i].Rank = &r
		prev = count
	}

	return out
}

// IsSorted reports whether items are in non-increasing mention count order.
func IsSorted[T Rankable](items []T) bool {
	for i := 1; i < len(items); i++ {
		if items[i].GetMentionCount() > items[i-1].GetMentionCount() {
			return false
		}
	}
	return true
}

// CategoryRank returns the 1-based rank of target within the full, unpaginated
// collection of a category, using the same tie policy as AssignRanks. The input
// order does not matter. Returns 0 when no item has the target count.
func CategoryRank[T Rankable](target int, items []T) int {
	counts := make([]int, len(items))
	for i, it := range items {
		counts[i] = it.GetMentionCount()
	}
	return CategoryRankOf(target, counts)
}

// CategoryRankOf is CategoryRank over bare mention counts.
func CategoryRankOf(target int, counts []int) int {
	sorted := slices.Clone(counts)
	slices.SortFunc(sorted, func(a, b int) int { return b - a })

	if i := slices.Index(sorted, target); i >= 0 {
		return i + 1
	}
	return 0
}
