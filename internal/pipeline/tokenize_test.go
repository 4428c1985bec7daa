package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{"a;;b;", []string{"a", "", "b", ""}},
		{"", []string{""}},
		{"abc", []string{"abc"}},
		{";", []string{"", ""}},
		{`"x";"y z";`, []string{`"x"`, `"y z"`, ""}},
	}
	for _, tt := range tests {
		got, err := Split(tt.line, ";")
		require.NoError(t, err, tt.line)
		assert.Equal(t, tt.want, got, tt.line)
	}
}

func TestSplitMultiByteDelimiter(t *testing.T) {
	got, err := Split("a::b:::c", "::")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", ":c"}, got)
}

func TestSplitInvalidDelimiter(t *testing.T) {
	got, err := Split("a;b", "")
	assert.ErrorIs(t, err, ErrInvalidDelimiter)
	assert.Nil(t, got)
}

func TestStripQuotes(t *testing.T) {
	assert.Equal(t, "x", StripQuotes(`"x"`))
	assert.Equal(t, "x", StripQuotes("x"))
	assert.Equal(t, `"`, StripQuotes(`"`))
	assert.Equal(t, "", StripQuotes(`""`))
	assert.Equal(t, `"x`, StripQuotes(`"x`))
	assert.Equal(t, `x"`, StripQuotes(`x"`))
	assert.Equal(t, `"a"`, StripQuotes(`""a""`))
}
