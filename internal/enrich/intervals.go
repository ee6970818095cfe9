// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"sort"

	"github.com/pdiddy/legal-translator/internal/textmatch"
)

// intervalSet holds disjoint spans sorted by start.
type intervalSet struct {
	spans []textmatch.Span
}

// overlaps reports whether s shares a byte with any claimed span.
func (is *intervalSet) overlaps(s textmatch.Span) bool {
	// First claimed span that ends after s starts.
	i := sort.Search(len(is.spans), func(i int) bool { return is.spans[i].End > s.Start })
	return i < len(is.spans) && is.spans[i].Start < s.End
}

// claim adds s if it overlaps nothing and reports whether it was added.
func (is *intervalSet) claim(s textmatch.Span) bool {
	if s.End <= s.Start || is.overlaps(s) {
		return false
	}
	i := sort.Search(len(is.spans), func(i int) bool { return is.spans[i].Start >= s.End })
	is.spans = append(is.spans, textmatch.Span{})
	copy(is.spans[i+1:], is.spans[i:])
	is.spans[i] = s
	return true
}

// gaps returns the unclaimed sub-ranges of s.
func (is *intervalSet) gaps(s textmatch.Span) []textmatch.Span {
	var out []textmatch.Span
	cur := s.Start
	i := sort.Search(len(is.spans), func(i int) bool { return is.spans[i].End > s.Start })
	for ; i < len(is.spans) && is.spans[i].Start < s.End; i++ {
		if is.spans[i].Start > cur {
			out = append(out, textmatch.Span{Start: cur, End: is.spans[i].Start})
		}
		if is.spans[i].End > cur {
			cur = is.spans[i].End
		}
	}
	if cur < s.End {
		out = append(out, textmatch.Span{Start: cur, End: s.End})
	}
	return out
}
