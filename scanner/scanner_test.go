package scanner

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tok struct {
	typ  TokenType
	text string
}

func scanAll(t *testing.T, input string) []tok {
	t.Helper()
	s, err := Open(strings.NewReader(input))
	require.NoError(t, err)
	var out []tok
	for i := 0; i < 10000; i++ {
		typ := s.Next()
		if typ == EOF {
			return out
		}
		out = append(out, tok{typ, s.Text()})
	}
	t.Fatal("scanner did not reach EOF")
	return nil
}

func TestTokenClasses(t *testing.T) {
	got := scanAll(t, "FileName \"cap.txt\" 42 0e7f , $x_1\n")
	assert.Equal(t, []tok{
		{Ident, "FileName"},
		{String, "\"cap.txt\""},
		{Number, "42"},
		{HexNumber, "0e7f"},
		{Symbol, ","},
		{Ident, "$x_1"},
		{EOL, "\n"},
	}, got)
}

func TestComments(t *testing.T) {
	input := "# header\n" +
		"A 1 // trailing\n" +
		"/* block\n spanning */ B 2\n" +
		"C / 3\n"
	got := scanAll(t, input)
	assert.Equal(t, []tok{
		{EOL, "\n"},
		{Ident, "A"}, {Number, "1"}, {EOL, "\n"},
		{Ident, "B"}, {Number, "2"}, {EOL, "\n"},
		{Ident, "C"}, {Symbol, "/"}, {Number, "3"}, {EOL, "\n"},
	}, got)
}

func TestLineNumbers(t *testing.T) {
	s, err := Open(strings.NewReader("a\n/* x\ny\n*/ b\nc"))
	require.NoError(t, err)

	assert.Equal(t, Ident, s.Next())
	assert.Equal(t, 1, s.Line())
	assert.Equal(t, EOL, s.Next())
	assert.Equal(t, Ident, s.Next())
	assert.Equal(t, "b", s.Text())
	assert.Equal(t, 4, s.Line())
	assert.Equal(t, EOL, s.Next())
	assert.Equal(t, Ident, s.Next())
	assert.Equal(t, 5, s.Line())
	assert.Equal(t, EOF, s.Next())
	assert.True(t, s.EOF())
}

func TestUnterminatedString(t *testing.T) {
	got := scanAll(t, "\"abc\nx")
	assert.Equal(t, []tok{
		{String, "\"abc"},
		{EOL, "\n"},
		{Ident, "x"},
	}, got)
}

func TestUnterminatedBlockComment(t *testing.T) {
	got := scanAll(t, "a /* never closed\n\n")
	assert.Equal(t, []tok{{Ident, "a"}}, got)
}

func TestEmptySource(t *testing.T) {
	s, err := Open(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, EOF, s.Next())
	assert.Equal(t, EOF, s.Next())
}

func TestNilSource(t *testing.T) {
	_, err := Open(nil)
	assert.ErrorIs(t, err, ErrNoSource)
}

func TestRefillAcrossWindow(t *testing.T) {
	// many short lines push the scanner through several refills
	var b strings.Builder
	for i := 0; i < 200; i++ {
		b.WriteString("Param")
		b.WriteString(strings.Repeat("x", i%7))
		b.WriteString(" 12345 \"quoted value\"\n")
	}
	got := scanAll(t, b.String())
	require.Len(t, got, 200*4)
	for i := 0; i < 200; i++ {
		line := got[i*4 : i*4+4]
		assert.Equal(t, "Param"+strings.Repeat("x", i%7), line[0].text, "line %d", i+1)
		assert.Equal(t, "12345", line[1].text, "line %d", i+1)
		assert.Equal(t, "\"quoted value\"", line[2].text, "line %d", i+1)
		assert.Equal(t, EOL, line[3].typ, "line %d", i+1)
	}
}

func TestLongCommentLine(t *testing.T) {
	input := "# " + strings.Repeat("-", 3*LineBufferSize) + "\nKey 7\n"
	got := scanAll(t, input)
	assert.Equal(t, []tok{
		{EOL, "\n"},
		{Ident, "Key"}, {Number, "7"}, {EOL, "\n"},
	}, got)
}

func TestPositionStaysInWindow(t *testing.T) {
	s, err := Open(strings.NewReader(strings.Repeat("abc def\n", 100)))
	require.NoError(t, err)
	for s.Next() != EOF {
		assert.GreaterOrEqual(t, s.Pos(), 0)
		assert.Less(t, s.Pos(), LineBufferSize)
	}
}

func TestRestart(t *testing.T) {
	s, err := Open(bytes.NewReader([]byte("one two\n")))
	require.NoError(t, err)
	s.Next()
	s.Next()
	require.NoError(t, s.Restart())
	assert.Equal(t, Ident, s.Next())
	assert.Equal(t, "one", s.Text())
	assert.Equal(t, 1, s.Line())
}

func TestSkipLine(t *testing.T) {
	s, err := Open(strings.NewReader("a b c\nd"))
	require.NoError(t, err)
	s.Next()
	s.SkipLine()
	assert.Equal(t, EOL, s.Next())
	assert.Equal(t, Ident, s.Next())
	assert.Equal(t, "d", s.Text())
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error)       { return 0, errors.New("card gone") }
func (failingReader) Seek(int64, int) (int64, error) { return 0, nil }

func TestReadError(t *testing.T) {
	_, err := Open(failingReader{})
	assert.Error(t, err)
}

func TestCheckStr(t *testing.T) {
	assert.True(t, CheckStr("FileName", "filename"))
	assert.True(t, CheckStr("", ""))
	assert.False(t, CheckStr("File", "FileName"))
	assert.False(t, CheckStr("SIO", "SI0"))
}
