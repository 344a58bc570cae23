// Package scanner tokenizes line-oriented text files through a small fixed
// window, refilling from the source as the read position nears the end.
package scanner

import (
	"errors"
	"io"

	"datalogger/core"
)

const (
	// LineBufferSize is the size of the read window.
	LineBufferSize = 128
	// LookAhead is the number of bytes guaranteed readable past the
	// current position before a refill is forced.
	LookAhead = 16
)

// TokenType classifies the current token.
type TokenType int8

const (
	EOF       TokenType = -1
	EOL       TokenType = -2
	Ident     TokenType = 1
	Number    TokenType = 2
	HexNumber TokenType = 3
	String    TokenType = 4
	Symbol    TokenType = 5
)

func (t TokenType) String() string {
	switch t {
	case EOF:
		return "EOF"
	case EOL:
		return "EOL"
	case Ident:
		return "IDENT"
	case Number:
		return "NUMBER"
	case HexNumber:
		return "HEXNUM"
	case String:
		return "STRING"
	case Symbol:
		return "SYMBOL"
	}
	return "?"
}

var (
	ErrNoSource  = errors.New("scanner: no source")
	ErrNotNumber = errors.New("scanner: number expected")
)

// Scanner is one tokenizing session over a seekable source.
//
// Positions are offsets into buf. Bytes in [0, valid) came from the
// source; once the source is drained, reaching valid is end of file.
type Scanner struct {
	src io.ReadSeeker
	buf []byte

	valid     int
	drained   bool
	err       error
	lineStart int
	pos       int
	tokStart  int
	tokLen    int
	tokType   TokenType
	line      int
	eof       bool
}

// Open starts a session at the beginning of src and fills the window.
func Open(src io.ReadSeeker) (*Scanner, error) {
	if src == nil {
		return nil, ErrNoSource
	}
	s := &Scanner{src: src, buf: make([]byte, LineBufferSize)}
	if err := s.start(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scanner) start() error {
	s.valid = 0
	s.drained = false
	s.err = nil
	s.lineStart, s.pos, s.tokStart, s.tokLen = 0, 0, 0, 0
	s.tokType = EOF
	s.line = 1
	s.eof = false
	s.fill()
	if s.err != nil {
		return s.err
	}
	core.Logger("Scanner").Debugf("read %d bytes", s.valid)
	return nil
}

// Restart rewinds the source and begins again from line 1.
func (s *Scanner) Restart() error {
	if s.buf == nil {
		return ErrNoSource
	}
	if _, err := s.src.Seek(0, io.SeekStart); err != nil {
		return err
	}
	return s.start()
}

// Close releases the window. The source is not closed.
func (s *Scanner) Close() {
	s.buf = nil
	s.valid = 0
	s.drained = true
}

// Err returns the first read error other than io.EOF.
func (s *Scanner) Err() error {
	return s.err
}

// fill reads into buf[valid:]. A short read marks the source drained.
func (s *Scanner) fill() {
	want := len(s.buf) - s.valid
	n, err := io.ReadFull(s.src, s.buf[s.valid:])
	s.valid += n
	if n < want {
		s.drained = true
	}
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		s.err = err
		s.drained = true
	}
}

// Advance moves the read position size bytes forward, sliding and
// refilling the window when fewer than LookAhead bytes would remain.
func (s *Scanner) Advance(size int) {
	if s.pos+size > len(s.buf)-LookAhead && !s.drained {
		s.slide()
	}
	s.pos += size
	if s.pos > s.valid {
		s.pos = s.valid
	}
}

// slide discards bytes before the current line (or token) and refills.
func (s *Scanner) slide() {
	keep := s.lineStart
	if s.tokStart < keep {
		keep = s.tokStart
	}
	if keep == 0 {
		// line longer than the window: give up the line start
		keep = s.tokStart
	}
	if keep == 0 {
		// token longer than the window: give up its head
		keep = s.pos
		s.tokStart = s.pos
	}
	if keep == 0 {
		return
	}

	copy(s.buf, s.buf[keep:s.valid])
	s.valid -= keep
	s.pos -= keep
	s.tokStart -= keep
	s.lineStart -= keep
	if s.lineStart < 0 {
		s.lineStart = 0
	}
	s.fill()
}

// at returns the byte at pos+k, refilling first if the window runs
// short. The second result is false past the end of the source.
func (s *Scanner) at(k int) (byte, bool) {
	if s.pos+k >= s.valid && !s.drained {
		s.slide()
	}
	if i := s.pos + k; i < s.valid {
		return s.buf[i], true
	}
	return 0, false
}

func (s *Scanner) atEOF() bool {
	return s.pos >= s.valid && s.drained
}

// lineWrap starts a new line at the current position.
func (s *Scanner) lineWrap() {
	s.line++
	s.lineStart = s.pos
}

// SkipBlanks skips spaces, tabs, carriage returns and comments. Line
// comments (# and //) stop before their newline; block comments may span
// lines. Returns the position of the first byte of the next token.
func (s *Scanner) SkipBlanks() int {
	for {
		ch, ok := s.at(0)
		if !ok {
			s.eof = s.atEOF()
			return s.pos
		}
		switch ch {
		case '\r', '\t', ' ':
			s.Advance(1)
		case '#':
			s.SkipLine()
		case '/':
			next, _ := s.at(1)
			switch next {
			case '/':
				s.SkipLine()
			case '*':
				s.Advance(2)
				s.skipBlockComment()
			default:
				return s.pos
			}
		default:
			return s.pos
		}
	}
}

func (s *Scanner) skipBlockComment() {
	for {
		ch, ok := s.at(0)
		if !ok {
			s.eof = s.atEOF()
			return
		}
		switch ch {
		case '*':
			if next, _ := s.at(1); next == '/' {
				s.Advance(2)
				return
			}
			s.Advance(1)
		case '\n':
			s.Advance(1)
			s.lineWrap()
		default:
			s.Advance(1)
		}
	}
}

// SkipLine moves to the newline ending the current line without
// consuming it.
func (s *Scanner) SkipLine() {
	for {
		ch, ok := s.at(0)
		if !ok || ch == '\n' {
			return
		}
		s.Advance(1)
	}
}

func isLetter(ch byte) bool {
	return ch >= 'A' && ch <= 'Z' || ch >= 'a' && ch <= 'z' || ch == '_' || ch == '$'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isHexLetter(ch byte) bool {
	return ch >= 'A' && ch <= 'F' || ch >= 'a' && ch <= 'f'
}

// Next scans the next token and returns its type.
func (s *Scanner) Next() TokenType {
	s.tokStart = s.SkipBlanks()
	s.tokLen = 0
	s.tokType = EOF

	ch, ok := s.at(0)
	if !ok || s.eof {
		s.eof = true
		return EOF
	}

	switch {
	case ch == '\n':
		s.Advance(1)
		s.tokLen = s.pos - s.tokStart
		s.lineWrap()
		s.tokType = EOL
		return EOL

	case isLetter(ch):
		s.tokType = Ident
		for {
			s.Advance(1)
			c, ok := s.at(0)
			if !ok || !(isLetter(c) || isDigit(c)) {
				break
			}
		}

	case isDigit(ch):
		s.tokType = Number
		for {
			s.Advance(1)
			c, ok := s.at(0)
			if !ok {
				break
			}
			if isHexLetter(c) {
				s.tokType = HexNumber
				continue
			}
			if !isDigit(c) {
				break
			}
		}

	case ch == '"':
		s.tokType = String
		for {
			s.Advance(1)
			c, ok := s.at(0)
			if !ok || c == '\n' {
				break
			}
			if c == '"' {
				s.Advance(1)
				break
			}
		}

	default:
		s.tokType = Symbol
		s.Advance(1)
	}

	s.tokLen = s.pos - s.tokStart
	return s.tokType
}

// Type returns the type of the current token.
func (s *Scanner) Type() TokenType {
	return s.tokType
}

// Text returns a copy of the current token's bytes.
func (s *Scanner) Text() string {
	return string(s.buf[s.tokStart : s.tokStart+s.tokLen])
}

// Unquoted returns a string token without its quotes, or Text for any
// other token.
func (s *Scanner) Unquoted() string {
	t := s.Text()
	if s.tokType != String {
		return t
	}
	t = t[1:]
	if n := len(t); n > 0 && t[n-1] == '"' {
		t = t[:n-1]
	}
	return t
}

// Is reports whether the current token equals str, ignoring ASCII case.
func (s *Scanner) Is(str string) bool {
	return CheckStr(s.Text(), str)
}

// Line returns the 1-based number of the line being scanned.
func (s *Scanner) Line() int {
	return s.line
}

// EOF reports whether the end of the source has been reached.
func (s *Scanner) EOF() bool {
	return s.eof
}

// Pos returns the current read offset within the window.
func (s *Scanner) Pos() int {
	return s.pos
}

// CheckStr compares a and b ignoring ASCII case.
func CheckStr(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		if upper(a[i]) != upper(b[i]) {
			return false
		}
	}
	return true
}

func upper(ch byte) byte {
	if ch >= 'a' && ch <= 'z' {
		return ch - ('a' - 'A')
	}
	return ch
}
