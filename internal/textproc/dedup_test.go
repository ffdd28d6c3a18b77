package textproc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRemoveDuplicates(t *testing.T) {
	assert.Empty(t, RemoveDuplicates([]string{}))
	assert.Equal(t, []string{"only"}, RemoveDuplicates([]string{"only"}))

	got := RemoveDuplicates([]string{"Hello", "World", "hey", "hello", "my", "world", "beautiful"})
	assert.Equal(t, []string{"Hello", "World", "hey", "my", "beautiful"}, got)

	got = RemoveDuplicates([]string{
		"COLLYWOBBLES, SNOLLYGOSTERS, AND 86 OTHER {{{SURPRISINGLY USEFUL}}} TERMS WORTH RESURRECTING   Introduction 1",
		"collywobbles, snollygosters, and 86 other {{{surprisingly useful}}} terms worth resurrecting / Joe Gillard. Description:",
	})
	assert.Len(t, got, 1)
	assert.Contains(t, got[0], "COLLYWOBBLES", "first member of the class is kept")
}

func TestRemoveDuplicates_DoesNotMutateInput(t *testing.T) {
	in := []string{"alpha", "Alpha", "beta"}
	out := RemoveDuplicates(in)
	assert.Equal(t, []string{"alpha", "beta"}, out)
	assert.Equal(t, []string{"alpha", "Alpha", "beta"}, in)
}

func TestRemoveDuplicatesFunc(t *testing.T) {
	type item struct {
		id   int
		text string
	}
	items := []item{{1, "the pie was dry"}, {2, "The pie was dry."}, {3, "completely different"}}
	got := RemoveDuplicatesFunc(DefaultMatcher, items, func(i item) string { return i.text })
	assert.Equal(t, []item{{1, "the pie was dry"}, {3, "completely different"}}, got)
}

func TestRemoveCrossDuplicates(t *testing.T) {
	first := []string{
		"to moisten the pie. The Thanksgiving pie, {{{which was really}}} too dry .1>^ Perhaps she'll die. Vt .M^^",
	}
	second := []string{
		"down goes a jug of cider to moisten the pie ({{{which was really}}} too dry), then an entire squash, followed",
		"to moisten the pie, The Thanksgiving pie, {{{which was really}}} too dry. Perhaps she'll die. I know an old",
	}
	secondCopy := append([]string(nil), second...)

	RemoveCrossDuplicates(&first, second)

	assert.Empty(t, first)
	assert.Equal(t, secondCopy, second, "second must not be mutated")
}

func TestRemoveCrossDuplicates_KeepsUnmatched(t *testing.T) {
	first := []string{"apple pie recipe", "banana bread", "cherry tart"}
	second := []string{"Banana  bread", "something else"}

	RemoveCrossDuplicates(&first, second)

	assert.Equal(t, []string{"apple pie recipe", "cherry tart"}, first)
	for _, f := range first {
		for _, s := range second {
			assert.False(t, IsSimilar(f, s))
		}
	}
}

func TestRemoveCrossDuplicates_EmptyInputs(t *testing.T) {
	first := []string{"a"}
	RemoveCrossDuplicates(&first, nil)
	assert.Equal(t, []string{"a"}, first)

	var empty []string
	RemoveCrossDuplicates(&empty, []string{"a"})
	assert.Empty(t, empty)

	RemoveCrossDuplicates(nil, []string{"a"})
}
