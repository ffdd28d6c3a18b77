// Package wordcount keeps insertion-ordered word tallies.
package wordcount

import "sort"

// Entry is one word and how many times it was seen.
type Entry struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// Counter counts words and remembers the order in which they first
// appeared. The zero value is ready to use. A Counter is not safe for
// concurrent use.
type Counter struct {
	index   map[string]int
	entries []Entry
}

// New returns an empty Counter.
func New() *Counter {
	return &Counter{index: make(map[string]int)}
}

// Add increments the count of word by one.
func (c *Counter) Add(word string) {
	c.AddN(word, 1)
}

// AddN increments the count of word by n.
func (c *Counter) AddN(word string, n int) {
	if c.index == nil {
		c.index = make(map[string]int)
	}
	if i, ok := c.index[word]; ok {
		c.entries[i].Count += n
		return
	}
	c.index[word] = len(c.entries)
	c.entries = append(c.entries, Entry{Word: word, Count: n})
}

// Count returns how many times word was added.
func (c *Counter) Count(word string) int {
	if i, ok := c.index[word]; ok {
		return c.entries[i].Count
	}
	return 0
}

// Len is the number of distinct words.
func (c *Counter) Len() int { return len(c.entries) }

// Entries returns a copy of the tallies in first-seen order.
func (c *Counter) Entries() []Entry {
	return append([]Entry(nil), c.entries...)
}

// Sorted returns the tallies by descending count; equal counts keep their
// first-seen order.
func (c *Counter) Sorted() []Entry {
	return SortEntries(c.Entries())
}

// SortEntries orders entries in place by descending count, keeping the
// relative order of equal counts, and returns them.
func SortEntries(entries []Entry) []Entry {
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Count > entries[j].Count })
	return entries
}

// Top returns at most n entries of Sorted. n <= 0 returns all of them.
func (c *Counter) Top(n int) []Entry {
	out := c.Sorted()
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out
}
