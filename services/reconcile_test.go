package services

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"immo-tracker/models"
)

func TestCompareScenario(t *testing.T) {
	existing := []*models.Listing{listing("A"), listing("B")}
	incoming := []*models.Listing{listing("A"), listing("C")}

	cmp := Compare(existing, incoming)

	assert.Equal(t, []string{"C"}, cmp.New.Sorted())
	assert.Equal(t, []string{"B"}, cmp.Closed.Sorted())
	assert.Equal(t, []string{"A"}, cmp.Unchanged.Sorted())

	n, c, u := cmp.Counts()
	assert.Equal(t, []int{1, 1, 1}, []int{n, c, u})
}

func TestComparePartitionProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	pool := make([]string, 30)
	for i := range pool {
		pool[i] = fmt.Sprintf("https://www.immowelt.de/expose/%d", i)
	}
	sample := func() []*models.Listing {
		var rows []*models.Listing
		for _, link := range pool {
			if rng.Intn(2) == 0 {
				rows = append(rows, listing(link))
			}
		}
		return rows
	}

	for iter := 0; iter < 200; iter++ {
		existing, incoming := sample(), sample()
		cmp := Compare(existing, incoming)

		union := LinkSet{}
		for _, r := range existing {
			union[r.Link] = struct{}{}
		}
		for _, r := range incoming {
			union[r.Link] = struct{}{}
		}

		got := LinkSet{}
		for _, set := range []LinkSet{cmp.New, cmp.Closed, cmp.Unchanged} {
			for link := range set {
				_, dup := got[link]
				require.False(t, dup, "link %s appears in more than one partition", link)
				got[link] = struct{}{}
			}
		}
		require.Equal(t, union, got, "partitions must cover the union exactly")
	}
}

func TestMergeScenario(t *testing.T) {
	today := day(t, "2026-10-15")
	created := day(t, "2026-09-01")
	a := listing("A")
	a.CreatedDate = created.Ptr()
	b := listing("B")
	b.CreatedDate = created.Ptr()
	existing := []*models.Listing{a, b}
	incoming := []*models.Listing{listing("A"), listing("C")}

	merged := Merge(existing, incoming, Compare(existing, incoming), today, MergeOptions{})
	require.Len(t, merged, 3)

	rows := indexByLink(merged)
	assert.True(t, rows["A"].CreatedDate.Equal(created))
	assert.Nil(t, rows["A"].ClosedDate)
	require.NotNil(t, rows["B"].ClosedDate)
	assert.True(t, rows["B"].ClosedDate.Equal(today))
	require.NotNil(t, rows["C"].CreatedDate)
	assert.True(t, rows["C"].CreatedDate.Equal(today))
	assert.Nil(t, rows["C"].ClosedDate)

	assert.Nil(t, b.ClosedDate, "inputs must not be modified")
}

func TestMergeFirstRun(t *testing.T) {
	today := day(t, "2026-10-15")
	incoming := []*models.Listing{listing("A"), listing("B")}

	merged := Merge(nil, incoming, Compare(nil, incoming), today, MergeOptions{})
	require.Len(t, merged, 2)
	for _, l := range merged {
		require.NotNil(t, l.CreatedDate)
		assert.True(t, l.CreatedDate.Equal(today))
		assert.Nil(t, l.ClosedDate)
	}
}

func TestMergeIdempotent(t *testing.T) {
	today := day(t, "2026-10-15")
	created := day(t, "2026-09-01")
	a := listing("A")
	a.CreatedDate = created.Ptr()
	b := listing("B")
	b.CreatedDate = created.Ptr()
	existing := []*models.Listing{a, b}
	incoming := []*models.Listing{listing("A"), listing("C")}

	once := Merge(existing, incoming, Compare(existing, incoming), today, MergeOptions{})
	twice := Merge(once, incoming, Compare(once, incoming), today, MergeOptions{})

	require.Len(t, twice, len(once))
	first := indexByLink(once)
	for _, l := range twice {
		prev := first[l.Link]
		require.NotNil(t, prev)
		assert.Equal(t, fmt.Sprint(prev.CreatedDate), fmt.Sprint(l.CreatedDate), "created_date of %s", l.Link)
		assert.Equal(t, fmt.Sprint(prev.ClosedDate), fmt.Sprint(l.ClosedDate), "closed_date of %s", l.Link)
	}
}

func TestMergeNeverOverwritesClosedDate(t *testing.T) {
	closed := day(t, "2026-05-01")
	today := day(t, "2026-10-15")
	b := listing("B")
	b.CreatedDate = day(t, "2026-01-01").Ptr()
	b.ClosedDate = closed.Ptr()
	existing := []*models.Listing{listing("A"), b}
	existing[0].CreatedDate = day(t, "2026-01-01").Ptr()
	incoming := []*models.Listing{listing("A")}

	merged := Merge(existing, incoming, Compare(existing, incoming), today, MergeOptions{})
	assert.True(t, indexByLink(merged)["B"].ClosedDate.Equal(closed))
}

func TestMergeReappearedListingStaysClosed(t *testing.T) {
	closed := day(t, "2026-05-01")
	b := listing("B")
	b.CreatedDate = day(t, "2026-01-01").Ptr()
	b.ClosedDate = closed.Ptr()
	existing := []*models.Listing{b}
	incoming := []*models.Listing{listing("B")}

	cmp := Compare(existing, incoming)
	assert.True(t, cmp.Unchanged.Has("B"))

	merged := Merge(existing, incoming, cmp, day(t, "2026-10-15"), MergeOptions{})
	require.Len(t, merged, 1)
	assert.True(t, merged[0].ClosedDate.Equal(closed))
}

func TestMergeSkipClosures(t *testing.T) {
	a := listing("A")
	a.CreatedDate = day(t, "2026-01-01").Ptr()
	existing := []*models.Listing{a}

	merged := Merge(existing, nil, Compare(existing, nil), day(t, "2026-10-15"), MergeOptions{SkipClosures: true})
	require.Len(t, merged, 1)
	assert.Nil(t, merged[0].ClosedDate)
}
