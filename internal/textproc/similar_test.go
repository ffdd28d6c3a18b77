package textproc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClean(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  padded  ", "padded"},
		{"line\nbreak", "line break"},
		{"many   spaces\t here", "many spaces here"},
		{"dash-wrap-\n ped word", "dashwrapped word"},
		{"negation¬ sign", "negationsign"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Clean(tt.in), "Clean(%q)", tt.in)
	}
}

func TestIsSimilar_Reflexive(t *testing.T) {
	for _, s := range []string{"", "a", "The quick brown fox", "ÆØÅ æøå"} {
		assert.True(t, IsSimilar(s, s), "%q", s)
	}
}

func TestIsSimilar_IgnoresCaseAndWhitespace(t *testing.T) {
	assert.True(t, IsSimilar("Hello World", "hello world"))
	assert.True(t, IsSimilar("hello\nworld", "hello   world"))
	assert.True(t, IsSimilar("com-\nputer supported", "computer supported"))
}

func TestIsSimilar_RecognizesNearDuplicates(t *testing.T) {
	tests := []struct {
		name string
		s, t string
	}{
		{"typos", "hey brother, whatsupp", "hi brother whatsupp"},
		{
			"ocr noise",
			"1987)  326. Semistructured  messages  are  {{{surprisingly  useful}}}  for  computersupported  coordination.",
			"HCI0206  f Semistructured  messages  are {{{surprisingly  useful}}}  for computersupported coordination.  HCI0290",
		},
		{
			"letter case",
			"COLLYWOBBLES, SNOLLYGOSTERS, AND 86 OTHER {{{SURPRISINGLY USEFUL}}} TERMS WORTH RESURRECTING   Introduction 1",
			"collywobbles, snollygosters, and 86 other {{{surprisingly useful}}} terms worth resurrecting / Joe Gillard. Description:",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, IsSimilar(tt.s, tt.t))
			assert.True(t, IsSimilar(tt.t, tt.s))
		})
	}
}

func TestIsSimilar_RejectsDifferentText(t *testing.T) {
	assert.False(t, IsSimilar("hey", "hello"))
	assert.False(t, IsSimilar("", "something"))
	assert.False(t, IsSimilar(
		"It was the best of times, it was the worst of times",
		"Call me Ishmael. Some years ago, never mind how long",
	))
}

func TestMatcher_Threshold(t *testing.T) {
	// distance 1, shorter length 3: normalized 0.33
	strict := Matcher{Threshold: 0.3}
	loose := Matcher{Threshold: 0.4}
	assert.False(t, strict.IsSimilar("cat", "cast"))
	assert.True(t, loose.IsSimilar("cat", "cast"))

	// zero value falls back to the default
	assert.Equal(t, IsSimilar("kitten", "sitting"), Matcher{}.IsSimilar("kitten", "sitting"))
}

func TestMatcher_EarlyExitAgreesWithFullDistance(t *testing.T) {
	pairs := [][2]string{
		{"the quick brown fox jumps", "the quick brown fix jumps"},
		{"the quick brown fox jumps", "a slow green turtle walks"},
		{"abcdefghij", "abcdefghxx"},
		{"abcdefghij", "jihgfedcba"},
	}
	m := DefaultMatcher
	for _, p := range pairs {
		want := float64(Distance(p[0], p[1])) < m.Threshold*float64(min(len(p[0]), len(p[1])))
		assert.Equal(t, want, m.IsSimilar(p[0], p[1]), "%q vs %q", p[0], p[1])
	}
}

func TestNewMatcher(t *testing.T) {
	_, err := NewMatcher(0)
	assert.Error(t, err)
	_, err = NewMatcher(1.5)
	assert.Error(t, err)

	m, err := NewMatcher(0.3)
	require.NoError(t, err)
	assert.Equal(t, 0.3, m.Threshold)
}
