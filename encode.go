// Package rfc2047 encodes and decodes the =?charset?scheme?payload?=
// words RFC2047 defines for carrying non-ASCII text in mail headers.
//
// Encoding picks the cheapest charset from a configured candidate list,
// packs text into words of at most 75 bytes without splitting
// multi-byte characters, and folds between words. Decoding is lenient:
// it accepts the malformed words real senders produce and always
// returns a best-effort result rather than an error.
package rfc2047

import (
	"bytes"
	"strings"

	"github.com/modfin/rfc2047/charset"
)

// Status reports how faithfully Encode could honor the configured
// charsets. It is informational; Encode always produces output.
type Status int

const (
	// StatusOK means the value was transcoded and encoded cleanly.
	StatusOK Status = iota
	// StatusNoInternal means the value could not be brought into the
	// working charset; its raw bytes were encoded as-is.
	StatusNoInternal
	// StatusNoCharset means no send-charset candidate could carry the
	// value; it was encoded straight from the source charset.
	StatusNoCharset
)

// foldMarker separates consecutive encoded words across header lines.
const foldMarker = "\n\t"

// internalCharset is the representation encoding works in regardless of
// the configured working charset.
const internalCharset = "utf-8"

// Encode turns value into a sequence of literal text and encoded words
// no longer than 75 bytes each, folding between words. col is the
// column the value starts at on its header line, typically the field
// name length plus two. Pure ASCII values with nothing to encode come
// back unchanged.
func (c Config) Encode(value string, col int) (string, Status) {
	c = c.withDefaults()
	status := StatusOK

	d := []byte(value)
	icode := internalCharset
	u, err := charset.Convert(d, c.Charset, icode)
	if err != nil {
		// assume the source is ascii-compatible and carry it raw
		status = StatusNoInternal
		icode = ""
		u = d
		c.Log.Debug("rfc2047: value not convertible to working form",
			"charset", c.Charset, "err", err)
	}

	// Find the earliest and latest bytes that force encoding: 8-bit
	// data, a word-boundary "=?" that would fake an encoded word, and
	// the caller's specials.
	t0, t1 := -1, -1
	s0, s1 := -1, -1
	for i := 0; i < len(u); i++ {
		ch := u[i]
		switch {
		case ch&0x80 != 0,
			ch == '=' && i+1 < len(u) && u[i+1] == '?' && (i == 0 || hspace(u[i-1])):
			if t0 < 0 {
				t0 = i
			}
			t1 = i
		case c.Specials != "" && strings.IndexByte(c.Specials, ch) >= 0:
			if s0 < 0 {
				s0 = i
			}
			s1 = i
		}
	}
	if t0 >= 0 && s0 >= 0 && s0 < t0 {
		t0 = s0
	}
	if t1 >= 0 && s1 >= 0 && s1 > t1 {
		t1 = s1
	}
	if t0 < 0 {
		// nothing to encode
		return string(u), status
	}
	t1++ // region is [t0, t1)

	// Choose the target charset.
	tocode := c.Charset
	if icode != "" {
		if chosen, _, ok := charset.Choose(icode, c.SendCharsets, u); ok {
			tocode = chosen
		} else {
			status = StatusNoCharset
			icode = ""
			c.Log.Debug("rfc2047: no send charset fits", "candidates", c.SendCharsets)
		}
	}
	// Never label 8-bit data we could not verify as us-ascii.
	if icode == "" && charset.IsASCII(tocode) {
		tocode = "unknown-8bit"
	}

	// Keep the literal prefix short enough that the first word still
	// starts within the line budget.
	if m := encWordMax + 1 - col - encWordMin; m < t0 {
		if m < 0 {
			m = 0
		}
		t0 = m
	}

	// Align the region start to a point just after whitespace where a
	// first character still fits the line.
	for ; t0 > 0; t0-- {
		if !hspace(u[t0-1]) {
			continue
		}
		end := t0 + 1
		if icode != "" {
			for end < len(u) && continuation(u[end]) {
				end++
			}
		}
		_, wlen, over := tryBlock(u[t0:end], icode, tocode)
		if over == 0 && col+t0+wlen <= encWordMax+1 {
			break
		}
	}

	// Align the region end to whitespace where a last character still
	// fits ahead of the literal suffix.
	for ; t1 < len(u); t1++ {
		if !hspace(u[t1]) {
			continue
		}
		start := t1 - 1
		if icode != "" {
			for start > 0 && continuation(u[start]) {
				start--
			}
		}
		_, wlen, over := tryBlock(u[start:t1], icode, tocode)
		if over == 0 && 1+wlen+(len(u)-t1) <= encWordMax+1 {
			break
		}
	}

	// Absorb adjacent runs into the region while a single word covering
	// the widened span still fits the line. This keeps a short encoded
	// region from being stranded in the middle of surrounding words.
	for t0 > 0 {
		p := t0 - 1
		for p > 0 && !hspace(u[p-1]) {
			p--
		}
		_, wlen, over := tryBlock(u[p:t1], icode, tocode)
		if over != 0 || col+p+wlen > encWordMax+1 {
			break
		}
		t0 = p
	}
	for t1 < len(u) {
		p := t1 + 1
		for p < len(u) && !hspace(u[p]) {
			p++
		}
		_, wlen, over := tryBlock(u[t0:p], icode, tocode)
		if over != 0 || col+t0+wlen+(len(u)-p) > encWordMax+1 {
			break
		}
		t1 = p
	}

	var buf bytes.Buffer
	buf.Grow(2 * len(u))
	buf.Write(u[:t0])
	col += t0

	t := t0
	var sch scheme
	var wlen int
	for {
		var n int
		n, sch, wlen = chooseBlock(u[t:t1], col, icode, tocode)
		if n == t1-t {
			if col+wlen+(len(u)-t1) <= encWordMax+1 {
				// final word, the literal suffix fits alongside
				break
			}
			n = t1 - t - 1
			if icode != "" {
				for n > 0 && continuation(u[t+n]) {
					n--
				}
			}
			if n == 0 {
				if t1 >= len(u) {
					// nothing left to absorb; emit the span as the
					// final word even though the line runs long
					break
				}
				// A lone overlong unit with too much literal suffix to
				// share its line. Pull the next word into the region
				// and try again.
				for t1++; t1 < len(u) && !hspace(u[t1]); t1++ {
				}
				continue
			}
			n, sch, wlen = chooseBlock(u[t:t+n], col, icode, tocode)
		}
		encodeBlock(&buf, u[t:t+n], icode, tocode, sch)
		buf.WriteString(foldMarker)
		col = 1
		t += n
	}

	encodeBlock(&buf, u[t:t1], icode, tocode, sch)
	buf.Write(u[t1:])

	return buf.String(), status
}
