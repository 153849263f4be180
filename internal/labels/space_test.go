package labels

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateWildcard(t *testing.T) {
	p, err := ParsePattern("ab*")
	require.NoError(t, err)

	got, err := Generate(p, 3, 4, "xy")
	require.NoError(t, err)
	assert.Equal(t, []string{"abx", "aby", "abxx", "abxy", "abyx", "abyy"}, got)
}

func TestGenerateEdgeCases(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		min     int
		max     int
		charset string
		want    []string
	}{
		{
			name:    "exact literal",
			pattern: "hello",
			min:     5,
			max:     5,
			charset: "ab",
			want:    []string{"hello"},
		},
		{
			name:    "wildcard with zero suffix yields prefix",
			pattern: "ab*",
			min:     2,
			max:     3,
			charset: "xy",
			want:    []string{"ab", "abx", "aby"},
		},
		{
			name:    "lengths shorter than prefix are skipped",
			pattern: "abc*",
			min:     1,
			max:     4,
			charset: "z",
			want:    []string{"abc", "abcz"},
		},
		{
			name:    "literal with wrong length yields nothing",
			pattern: "abc",
			min:     4,
			max:     4,
			charset: "z",
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParsePattern(tt.pattern)
			require.NoError(t, err)
			got, err := Generate(p, tt.min, tt.max, tt.charset)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPatternSpaceContains(t *testing.T) {
	p, err := ParsePattern("ab*")
	require.NoError(t, err)
	s, err := NewPatternSpace(p, 3, 4, "xy")
	require.NoError(t, err)

	for _, label := range Collect(s) {
		assert.True(t, s.Contains(label), label)
	}
	assert.False(t, s.Contains("ab"), "shorter than min")
	assert.False(t, s.Contains("abz"), "outside charset")
	assert.False(t, s.Contains("bax"), "wrong prefix")
	assert.False(t, s.Contains("abxxx"), "longer than max")
}

func TestPatternSpaceTooLarge(t *testing.T) {
	p, err := ParsePattern("a*")
	require.NoError(t, err)
	_, err = NewPatternSpace(p, 1, 40, "abcdefghijklmnopqrstuvwxyz0123456789-")
	assert.True(t, errors.Is(err, ErrSpaceTooLarge))
}

func TestFromWords(t *testing.T) {
	got := FromWords([]string{"ab", "xyz", "qrs", "hello"}, 2, 3)
	assert.Equal(t, []string{"ab", "xyz", "qrs"}, got)
}

func TestWordSpace(t *testing.T) {
	s := NewWordSpace([]string{"ab", "xyz", "ab", "hello", "qrs"}, 2, 3)
	assert.Equal(t, int64(3), s.Len())
	assert.Equal(t, []string{"ab", "xyz", "qrs"}, Collect(s))
	assert.True(t, s.Contains("xyz"))
	assert.False(t, s.Contains("hello"))
}

func TestWordSpaceKeepsFirstOccurrence(t *testing.T) {
	s := NewWordSpace([]string{"b", "a", "b", "c", "a"}, 1, 1)
	assert.Equal(t, []string{"b", "a", "c"}, Collect(s))
	assert.Equal(t, int64(3), s.Len())
}

func TestParsePattern(t *testing.T) {
	tests := []struct {
		in      string
		want    Pattern
		wantErr bool
	}{
		{in: "ab*", want: Pattern{Prefix: "ab", Wildcard: true}},
		{in: "AbC", want: Pattern{Prefix: "abc"}},
		{in: "a-1*", want: Pattern{Prefix: "a-1", Wildcard: true}},
		{in: "a**", wantErr: true},
		{in: "a*b", wantErr: true},
		{in: "*", wantErr: true},
		{in: "", wantErr: true},
		{in: "a_b", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePattern(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeCharset(t *testing.T) {
	cs, err := NormalizeCharset("XyX1")
	require.NoError(t, err)
	assert.Equal(t, "xy1", cs)

	_, err = NormalizeCharset("")
	assert.Error(t, err)

	_, err = NormalizeCharset("ab_.")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "._")
}
