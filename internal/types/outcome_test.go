package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFQN(t *testing.T) {
	tests := []struct {
		label, suffix, want string
	}{
		{"abc", "com", "abc.com"},
		{"abc", "COM", "abc.com"},
		{"a-1", "Io", "a-1.io"},
	}
	for _, tt := range tests {
		got := FQN(tt.label, tt.suffix)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.label+"."+"com", FQN(tt.label, "com"))

		label, ok := SplitFQN(got, tt.suffix)
		assert.True(t, ok)
		assert.Equal(t, tt.label, label)
	}
}

func TestSplitFQNRejectsForeignSuffix(t *testing.T) {
	_, ok := SplitFQN("abc.net", "com")
	assert.False(t, ok)

	_, ok = SplitFQN(".com", "com")
	assert.False(t, ok)
}

func TestValidLabel(t *testing.T) {
	assert.True(t, ValidLabel("abc-123"))
	assert.False(t, ValidLabel(""))
	assert.False(t, ValidLabel("ABC"))
	assert.False(t, ValidLabel("a_b"))
	assert.False(t, ValidLabel("a.b"))
}

func TestCountsString(t *testing.T) {
	c := Counts{Available: 1, Registered: 2, Errors: 3, Completed: 6}
	assert.Equal(t, "Available: 1, registered: 2, errors: 3", c.String())
}
