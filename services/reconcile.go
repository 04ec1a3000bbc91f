package services

import (
	"sort"

	"immo-tracker/models"
)

// LinkSet is a set of listing links.
type LinkSet map[string]struct{}

// Has reports whether link is in the set.
func (s LinkSet) Has(link string) bool {
	_, ok := s[link]
	return ok
}

// Sorted returns the links in lexical order.
func (s LinkSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for link := range s {
		out = append(out, link)
	}
	sort.Strings(out)
	return out
}

// Comparison partitions the union of two snapshots' links. The three sets
// are pairwise disjoint.
type Comparison struct {
	New       LinkSet
	Closed    LinkSet
	Unchanged LinkSet
}

// Counts returns the sizes of the three sets.
func (c Comparison) Counts() (newCount, closed, unchanged int) {
	return len(c.New), len(c.Closed), len(c.Unchanged)
}

// MergeOptions adjusts Merge.
type MergeOptions struct {
	// SkipClosures leaves closed_date untouched, used when the crawl that
	// produced incoming did not reach every page.
	SkipClosures bool
}

func links(rows []*models.Listing) LinkSet {
	set := make(LinkSet, len(rows))
	for _, r := range rows {
		set[r.Link] = struct{}{}
	}
	return set
}

// Compare computes new = I−E, closed = E−I and unchanged = E∩I by link.
func Compare(existing, incoming []*models.Listing) Comparison {
	e, i := links(existing), links(incoming)
	cmp := Comparison{New: LinkSet{}, Closed: LinkSet{}, Unchanged: LinkSet{}}

	for link := range i {
		if e.Has(link) {
			cmp.Unchanged[link] = struct{}{}
		} else {
			cmp.New[link] = struct{}{}
		}
	}
	for link := range e {
		if !i.Has(link) {
			cmp.Closed[link] = struct{}{}
		}
	}
	return cmp
}

// Merge folds incoming into existing and manages lifecycle dates only.
//
// With an empty existing snapshot every incoming row is created today.
// Otherwise existing rows in cmp.Closed that are still open get closed today,
// existing rows are otherwise carried forward as they are, and incoming rows
// in cmp.New are appended with created_date today. Inputs are not modified.
func Merge(existing, incoming []*models.Listing, cmp Comparison, today models.Date, opts MergeOptions) []*models.Listing {
	if len(existing) == 0 {
		merged := make([]*models.Listing, 0, len(incoming))
		seen := make(LinkSet, len(incoming))
		for _, r := range incoming {
			if seen.Has(r.Link) {
				continue
			}
			seen[r.Link] = struct{}{}
			l := r.Clone()
			l.CreatedDate = today.Ptr()
			merged = append(merged, l)
		}
		return merged
	}

	merged := make([]*models.Listing, 0, len(existing)+len(cmp.New))
	seen := make(LinkSet, len(existing)+len(cmp.New))

	for _, r := range existing {
		if seen.Has(r.Link) {
			continue
		}
		seen[r.Link] = struct{}{}
		l := r.Clone()
		if !opts.SkipClosures && cmp.Closed.Has(l.Link) && l.ClosedDate == nil {
			l.ClosedDate = today.Ptr()
		}
		if l.CreatedDate == nil {
			l.CreatedDate = today.Ptr()
		}
		merged = append(merged, l)
	}

	for _, r := range incoming {
		if !cmp.New.Has(r.Link) || seen.Has(r.Link) {
			continue
		}
		seen[r.Link] = struct{}{}
		l := r.Clone()
		l.CreatedDate = today.Ptr()
		merged = append(merged, l)
	}
	return merged
}
