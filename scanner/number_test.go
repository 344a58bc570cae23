package scanner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumberSuffixes(t *testing.T) {
	tests := []struct {
		in   string
		want uint32
		next string
	}{
		{"0e7fH x", 0x0e7f, "x"},
		{"123d x", 123, "x"},
		{"123h x", 0x123, "x"},
		{"123dh x", 0x123d, "x"},
		{"123 x", 123, "x"},
		{"4294967295 x", 4294967295, "x"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			s, err := Open(strings.NewReader(tt.in))
			require.NoError(t, err)
			s.Next()
			n, err := s.Number()
			require.NoError(t, err)
			assert.Equal(t, tt.want, n)
			assert.Equal(t, Ident, s.Next())
			assert.Equal(t, tt.next, s.Text())
		})
	}
}

func TestNumberErrors(t *testing.T) {
	for _, in := range []string{"abc", "0e7f", "4294967296", "\"12\""} {
		s, err := Open(strings.NewReader(in))
		require.NoError(t, err)
		s.Next()
		_, err = s.Number()
		assert.ErrorIs(t, err, ErrNotNumber, in)
	}
}

func TestUnquoted(t *testing.T) {
	s, err := Open(strings.NewReader("\"LOG.TXT\" \"open"))
	require.NoError(t, err)
	s.Next()
	assert.Equal(t, "LOG.TXT", s.Unquoted())
	s.Next()
	assert.Equal(t, "open", s.Unquoted())
}
