package scanner

import "strconv"

// Number converts the current NUMBER or HEXNUM token. Suffixes select the
// radix:
//
//	0e7fH  hex, the H following the token is consumed
//	123h   hex
//	123dh  hex
//	123d   decimal, the d is part of the token
//	123    decimal
func (s *Scanner) Number() (uint32, error) {
	if s.tokType != Number && s.tokType != HexNumber {
		return 0, ErrNotNumber
	}
	if ch, ok := s.at(0); ok && (ch == 'h' || ch == 'H') {
		n, err := s.HexValue()
		if err != nil {
			return 0, err
		}
		s.Advance(1)
		s.tokLen = s.pos - s.tokStart
		return n, nil
	}

	text := s.Text()
	if last := text[len(text)-1]; last == 'd' || last == 'D' {
		return parseUint(text[:len(text)-1], 10)
	}
	return s.DecimalValue()
}

// HexValue parses the current token as hexadecimal digits.
func (s *Scanner) HexValue() (uint32, error) {
	return parseUint(s.Text(), 16)
}

// DecimalValue parses the current token as decimal digits.
func (s *Scanner) DecimalValue() (uint32, error) {
	return parseUint(s.Text(), 10)
}

func parseUint(text string, base int) (uint32, error) {
	if text == "" {
		return 0, ErrNotNumber
	}
	n, err := strconv.ParseUint(text, base, 32)
	if err != nil {
		return 0, ErrNotNumber
	}
	return uint32(n), nil
}
