package wordcount

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCounter_CountsInFirstSeenOrder(t *testing.T) {
	c := New()
	for _, w := range []string{"the", "a", "the", "of", "a", "the"} {
		c.Add(w)
	}

	assert.Equal(t, 3, c.Len())
	assert.Equal(t, 3, c.Count("the"))
	assert.Equal(t, 0, c.Count("missing"))
	assert.Equal(t, []Entry{{"the", 3}, {"a", 2}, {"of", 1}}, c.Entries())
}

func TestCounter_SortedBreaksTiesByFirstSeen(t *testing.T) {
	c := New()
	for _, w := range []string{"zeta", "alpha", "beta", "alpha", "beta", "gamma"} {
		c.Add(w)
	}

	assert.Equal(t, []Entry{{"alpha", 2}, {"beta", 2}, {"zeta", 1}, {"gamma", 1}}, c.Sorted())
	assert.Equal(t, []Entry{{"alpha", 2}, {"beta", 2}}, c.Top(2))
	assert.Len(t, c.Top(0), 4)
	assert.Len(t, c.Top(10), 4)

	// sorting is on demand and leaves insertion order alone
	assert.Equal(t, "zeta", c.Entries()[0].Word)
}

func TestCounter_ZeroValue(t *testing.T) {
	var c Counter
	c.AddN("", 2)
	c.Add("")
	assert.Equal(t, 3, c.Count(""))
	assert.Equal(t, []Entry{{"", 3}}, c.Entries())
}

func TestCounter_EntriesIsACopy(t *testing.T) {
	c := New()
	c.Add("x")
	e := c.Entries()
	e[0].Count = 100
	assert.Equal(t, 1, c.Count("x"))
}

func TestSortEntries(t *testing.T) {
	in := []Entry{{"a", 1}, {"b", 3}, {"c", 1}, {"d", 3}}
	assert.Equal(t, []Entry{{"b", 3}, {"d", 3}, {"a", 1}, {"c", 1}}, SortEntries(in))
	assert.Empty(t, SortEntries(nil))
}
