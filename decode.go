package rfc2047

import (
	"bytes"
	"strings"

	"github.com/modfin/rfc2047/charset"
)

const lws = " \t\r\n"

// lwslen is the length of the leading folding-whitespace run in s. A
// run ending in a bare CR or LF is not folding whitespace and counts as
// zero.
func lwslen(s string) int {
	n := 0
	for n < len(s) && strings.IndexByte(lws, s[n]) >= 0 {
		n++
	}
	if n > 0 && (s[n-1] == '\r' || s[n-1] == '\n') {
		return 0
	}
	return n
}

// lwsrlen is the trailing counterpart of lwslen.
func lwsrlen(s string) int {
	n := 0
	for n < len(s) && strings.IndexByte(lws, s[len(s)-1-n]) >= 0 {
		n++
	}
	if n > 0 && (s[len(s)-n] == '\r' || s[len(s)-n] == '\n') {
		return 0
	}
	return n
}

// findEncodedWord locates the first encoded word in s and returns its
// bounds, or -1, -1 when there is none. The grammar is deliberately
// loose: words need not be set off by whitespace, and the payload may
// contain bare '?' bytes as long as a terminating "?=" follows, since
// many senders fail to escape them.
func findEncodedWord(s string) (int, int) {
	q := 0
	for {
		i := strings.Index(s[q:], "=?")
		if i < 0 {
			return -1, -1
		}
		p := q + i
		q = p + 2
		for q < len(s) && s[q] > 0x20 && s[q] < 0x7f && strings.IndexByte("()<>@,;:\"/[]?.=", s[q]) < 0 {
			q++
		}
		if q+2 >= len(s) || s[q] != '?' || strings.IndexByte("BbQq", s[q+1]) < 0 || s[q+2] != '?' {
			continue
		}
		for q += 3; q < len(s) && s[q] >= 0x20 && s[q] < 0x7f; q++ {
			if s[q] == '?' && q+1 < len(s) && s[q+1] == '=' {
				break
			}
		}
		if q+1 >= len(s) || s[q] != '?' || s[q+1] != '=' {
			q--
			continue
		}
		return p, q + 2
	}
}

func hexval(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	}
	return -1
}

const base64Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

func base64val(c byte) int {
	return strings.IndexByte(base64Alphabet, c)
}

// qDecode undoes the Q scheme: '_' is space, =XX is a hex-escaped byte,
// anything else passes through, including a stray '=' that is not
// followed by two hex digits.
func qDecode(s string) []byte {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '_':
			out = append(out, ' ')
		case s[i] == '=' && i+2 < len(s) &&
			s[i+1] < 0x80 && hexval(s[i+1]) >= 0 &&
			s[i+2] < 0x80 && hexval(s[i+2]) >= 0:
			out = append(out, byte(hexval(s[i+1])<<4|hexval(s[i+2])))
			i += 2
		default:
			out = append(out, s[i])
		}
	}
	return out
}

// bDecode undoes the B scheme with a bit accumulator. Bytes outside the
// base64 alphabet are skipped instead of failing, which keeps line
// breaks or whitespace a relay folded into the payload from corrupting
// the result. The first '=' pad stops the scan.
func bDecode(s string) []byte {
	out := make([]byte, 0, len(s)/4*3+3)
	b, k := 0, 0
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch == '=' {
			break
		}
		if ch >= 0x80 {
			continue
		}
		c := base64val(ch)
		if c < 0 {
			continue
		}
		if k+6 >= 8 {
			k -= 2
			out = append(out, byte(b|c>>k))
			b = c << (8 - k) & 0xff
		} else {
			b |= c << (k + 2)
			k += 6
		}
	}
	return out
}

// filterUnprintable strips the control bytes a failed transcode or a
// hostile payload can leave behind. Byte-level on purpose: the result
// may not be valid UTF-8.
func filterUnprintable(b []byte) []byte {
	out := make([]byte, 0, len(b))
	for _, c := range b {
		if (c < 0x20 && c != '\t') || c == 0x7f {
			continue
		}
		out = append(out, c)
	}
	return out
}

// decodeWord decodes one =?charset?X?payload?= token. ok is false on a
// structural failure such as an unknown scheme letter; the caller then
// keeps the raw token text.
func decodeWord(c Config, s string) (string, bool) {
	var out []byte
	var charsetName string
	var sch byte

	count := 0
	pp := 0
	for {
		i := strings.IndexByte(s[pp:], '?')
		if i < 0 {
			break
		}
		pp1 := pp + i
		count++

		if count == 4 {
			// non-compliant senders leave '?' unescaped in the payload:
			// seek the '?' that actually starts the "?=" terminator
			for pp1 >= 0 && (pp1+1 >= len(s) || s[pp1+1] != '=') {
				j := strings.IndexByte(s[pp1+1:], '?')
				if j < 0 {
					pp1 = -1
				} else {
					pp1 += 1 + j
				}
			}
			if pp1 < 0 {
				return "", false
			}
		}

		switch count {
		case 2:
			name := s[pp:pp1]
			// drop any RFC2231 language suffix
			if j := strings.IndexByte(name, '*'); j >= 0 {
				name = name[:j]
			}
			charsetName = name
		case 3:
			switch s[pp] {
			case 'Q', 'q':
				sch = 'Q'
			case 'B', 'b':
				sch = 'B'
			default:
				return "", false
			}
		case 4:
			payload := s[pp:pp1]
			if sch == 'Q' {
				out = qDecode(payload)
			} else {
				out = bDecode(payload)
			}
		}
		pp = pp1 + 1
	}

	if charsetName != "" {
		conv, err := charset.Convert(out, charsetName, c.Charset)
		if err == nil {
			out = conv
		} else {
			c.Log.Debug("rfc2047: keeping undecoded bytes",
				"charset", charsetName, "err", err)
		}
	}
	return string(filterUnprintable(out)), true
}

// convertNonMIME handles legacy headers carrying raw 8-bit text with no
// encoded words: each assumed charset is tried in order and the first
// that converts cleanly into the working charset wins.
func (c Config) convertNonMIME(s string) string {
	for _, name := range c.AssumedCharsets {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if out, err := charset.Convert([]byte(s), name, c.Charset); err == nil {
			return string(out)
		}
	}
	c.Log.Debug("rfc2047: no assumed charset matched")
	return s
}

// Decode rebuilds the readable text of a header value. Every token that
// looks like an encoded word is decoded; tokens that turn out to be
// malformed are kept verbatim rather than failing the whole call.
func (c Config) Decode(value string) string {
	c = c.withDefaults()
	if value == "" {
		return value
	}

	var d bytes.Buffer
	d.Grow(len(value))
	found := false
	s := value
	for len(s) > 0 {
		p, q := findEncodedWord(s)
		if p < 0 {
			if c.IgnoreLinearWhiteSpace && found {
				if m := lwslen(s); m > 0 {
					if m != len(s) {
						d.WriteByte(' ')
					}
					s = s[m:]
				}
			}
			if len(c.AssumedCharsets) > 0 && !found {
				d.WriteString(c.convertNonMIME(s))
			} else {
				d.WriteString(s)
			}
			break
		}

		if p > 0 {
			lit := s[:p]
			if c.IgnoreLinearWhiteSpace {
				if found {
					if m := lwslen(lit); m > 0 {
						if m != len(lit) {
							d.WriteByte(' ')
						}
						lit = lit[m:]
					}
				}
				if keep := len(lit) - lwsrlen(lit); keep > 0 {
					d.WriteString(lit[:keep])
					if keep != len(lit) {
						d.WriteByte(' ')
					}
				}
			} else if !found || strings.Trim(lit, lws) != "" {
				d.WriteString(lit)
			}
		}

		if word, ok := decodeWord(c, s[p:q]); ok {
			d.WriteString(word)
		} else {
			c.Log.Debug("rfc2047: malformed encoded word kept verbatim", "word", s[p:q])
			d.WriteString(s[p:q])
		}
		found = true
		s = s[q:]
	}
	return d.String()
}
