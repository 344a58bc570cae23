package core

import "errors"

// ErrBadTime is returned by ParseMillis for malformed input.
var ErrBadTime = errors.New("malformed time")

// FormatMillis renders ms as h:mm:ss.ddd. Hours are not wrapped at 24.
func FormatMillis(ms uint32) string {
	return string(AppendMillis(nil, ms))
}

// AppendMillis appends the h:mm:ss.ddd form of ms to dst.
func AppendMillis(dst []byte, ms uint32) []byte {
	frac := ms % 1000
	secs := ms / 1000
	dst = AppendUint(dst, secs/3600)
	dst = append(dst, ':')
	dst = appendPadded(dst, (secs/60)%60, 2)
	dst = append(dst, ':')
	dst = appendPadded(dst, secs%60, 2)
	dst = append(dst, '.')
	return appendPadded(dst, frac, 3)
}

// AppendUint appends the decimal form of n without going through fmt.
func AppendUint(dst []byte, n uint32) []byte {
	if n == 0 {
		return append(dst, '0')
	}
	var tmp [10]byte
	pos := len(tmp)
	for n > 0 {
		pos--
		tmp[pos] = byte('0' + n%10)
		n /= 10
	}
	return append(dst, tmp[pos:]...)
}

// AppendHex2 appends b as two lowercase hex digits.
func AppendHex2(dst []byte, b byte) []byte {
	const digits = "0123456789abcdef"
	return append(dst, digits[b>>4], digits[b&0x0f])
}

func appendPadded(dst []byte, n uint32, width int) []byte {
	var tmp [10]byte
	pos := len(tmp)
	for n > 0 || len(tmp)-pos < width {
		pos--
		tmp[pos] = byte('0' + n%10)
		n /= 10
	}
	return append(dst, tmp[pos:]...)
}

// ParseMillis accepts h:m:s, h:m:s.ddd, m:s or s(.ddd) and returns
// milliseconds. Fractions shorter than three digits are scaled, so "1.5"
// is 1500.
func ParseMillis(s string) (uint32, error) {
	if s == "" {
		return 0, ErrBadTime
	}
	var (
		total  uint64
		field  uint64
		seen   bool
		frac   uint64
		fracN  int
		inFrac bool
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			if inFrac {
				if fracN < 3 {
					frac = frac*10 + uint64(c-'0')
					fracN++
				}
				continue
			}
			field = field*10 + uint64(c-'0')
			seen = true
		case c == ':' && !inFrac:
			if !seen {
				return 0, ErrBadTime
			}
			total = (total + field) * 60
			field, seen = 0, false
		case c == '.' && !inFrac:
			inFrac = true
		default:
			return 0, ErrBadTime
		}
	}
	if !seen {
		return 0, ErrBadTime
	}
	for ; fracN < 3; fracN++ {
		frac *= 10
	}
	ms := (total+field)*1000 + frac
	if ms > 0xffffffff {
		return 0, ErrBadTime
	}
	return uint32(ms), nil
}
