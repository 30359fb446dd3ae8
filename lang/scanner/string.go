package scanner

import (
	"github.com/mna/saffron/lang/escape"
)

func (s *Scanner) longString() (lit, decoded string) {
	// '[' opening already consumed, hence the -1
	startOff := s.off - 1
	s.sb.Reset()

	var level int
	for s.advanceIf('=') {
		level++
	}
	if !s.advanceIf('[') {
		s.error(startOff, "invalid long string literal opening sequence")
		return string(s.src[startOff:s.off]), ""
	}

	closeLevel := -1
	closeStartOff := 0
	for s.cur != -1 {
		if s.advanceIf(']') {
			// maybe a closing sequence, keep start index in case it ends up not being it
			closeStartOff = s.off - 1 // -1 since we're past the initial ']' now

			// calculate the close level
			closeLevel = 0
			for s.advanceIf('=') {
				closeLevel++
			}
			if !s.advanceIf(']') {
				closeLevel = -1
			}
			if closeLevel > -1 /* a valid close sequence */ && closeLevel == level /* matching the opening level */ {
				break
			}
			closeLevel = -1
			s.sb.Write(s.src[closeStartOff:s.off])
			continue
		}
		s.sb.WriteRune(s.cur)
		s.advance()
	}

	if closeLevel == -1 {
		s.error(startOff, "long string literal not terminated")
	}
	return string(s.src[startOff:s.off]), escape.DecodeLongBracket(s.sb.String())
}

// shortString scans a single- or double-quoted string literal far enough
// to find its closing quote and delegates the actual escape decoding to
// lang/escape, once, on the raw body between the quotes.
func (s *Scanner) shortString(opening rune) (lit, decoded string) {
	// '"' / "'" opening already consumed, hence the -1
	startOff := s.off - 1

	var skipws, terminated bool
	for {
		cur := s.cur
		if (cur == '\n' && !skipws) || cur < 0 {
			s.error(startOff, "string literal not terminated")
			break
		}
		s.advance()
		if cur == opening {
			terminated = true
			break
		}
		switch {
		case cur == '\\':
			skipws = s.validateEscape()
		case skipws && isWhitespace(cur):
			// still within a \z whitespace run
		default:
			skipws = false
		}
	}

	lit = string(s.src[startOff:s.off])
	if !terminated {
		return lit, ""
	}

	body := string(s.src[startOff+1 : s.off-1])
	decoded, err := escape.Decode(body)
	if err != nil {
		if ee, ok := err.(*escape.Error); ok {
			s.error(startOff+1+ee.Offset, ee.Msg)
		} else {
			s.error(startOff, err.Error())
		}
	}
	return lit, decoded
}

// validateEscape advances past one escape sequence (the leading
// backslash already consumed), far enough to keep the raw-span walk in
// sync with the grammar lang/escape.Decode implements. It does not
// itself validate or decode: escape.Decode is the single authority for
// whether the sequence is well-formed, applied once to the whole string
// body after its span is known. It returns true for \z, whose following
// whitespace run (including newlines) must not be mistaken for an
// unterminated string.
func (s *Scanner) validateEscape() (skipws bool) {
	switch {
	case isDecimal(s.cur):
		for i := 0; i < 3 && isDecimal(s.cur); i++ {
			s.advance()
		}
	case s.cur == 'x':
		s.advance()
		for i := 0; i < 2 && isHexadecimal(s.cur); i++ {
			s.advance()
		}
	case s.cur == 'u':
		s.advance()
		if s.cur == '{' {
			s.advance()
			for s.cur != '}' && s.cur != -1 {
				s.advance()
			}
			if s.cur == '}' {
				s.advance()
			}
		}
	case s.cur == 'z':
		s.advance()
		return true
	case s.cur == -1:
		// let the caller's unterminated-string check report this
	default:
		s.advance()
	}
	return false
}
