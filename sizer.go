package rfc2047

import (
	"bytes"
	"errors"
	"strings"

	"github.com/modfin/rfc2047/charset"
)

// tryBlock reports whether d fits in a single encoded word labeled
// tocode. fromcode is the charset d must be converted from first; empty
// means d is already 8-bit clean in tocode. A zero over means it fits,
// and sch/wlen carry the cheaper scheme and the exact serialized word
// length. A non-zero over is an upper bound on the length of a prefix
// of d that could still be converted; the caller shrinks below it.
func tryBlock(d []byte, fromcode, tocode string) (sch scheme, wlen int, over int) {
	capacity := encWordMax - encWordMin + 1 - len(tocode)

	conv := d
	if fromcode != "" {
		out, n, err := charset.ConvertCapped(d, fromcode, tocode, capacity)
		if err != nil {
			if !errors.Is(err, charset.ErrShortOutput) || n >= len(d) {
				return 0, 0, len(d)
			}
			return 0, 0, n + 1
		}
		conv = out
	} else if len(d) > capacity {
		return 0, 0, capacity + 1
	}

	count := 0
	for _, c := range conv {
		if c != ' ' && qSpecial(c) {
			count++
		}
	}

	base := encWordMin - 2 + len(tocode)
	lenB := base + (len(conv)+2)/3*4
	lenQ := base + len(conv) + 2*count

	// RFC1468 says ISO-2022-JP must travel in the B scheme.
	if strings.EqualFold(tocode, "ISO-2022-JP") {
		lenQ = encWordMax + 1
	}

	switch {
	case lenB < lenQ && lenB <= encWordMax:
		return schemeB, lenB, 0
	case lenQ <= encWordMax:
		return schemeQ, lenQ, 0
	default:
		return 0, 0, len(d)
	}
}

// chooseBlock finds the longest prefix of d that a single encoded word
// starting at column col can carry. When fromcode is UTF-8 the prefix
// never ends inside a multi-byte sequence.
func chooseBlock(d []byte, col int, fromcode, tocode string) (n int, sch scheme, wlen int) {
	isUTF8 := fromcode != "" && strings.EqualFold(fromcode, "utf-8")

	n = len(d)
	for {
		sch2, wlen2, over := tryBlock(d[:n], fromcode, tocode)
		if over == 0 && (col+wlen2 <= encWordMax+1 || n <= 1) {
			return n, sch2, wlen2
		}
		if n <= 1 {
			// a single unit that cannot be sized; emit it raw-escaped
			// rather than loop (cannot happen once a target charset has
			// been verified against the whole region)
			return 1, schemeQ, encWordMin - 2 + len(tocode) + 3
		}
		if over > 0 {
			n = over
		}
		n--
		if isUTF8 {
			for n > 1 && continuation(d[n]) {
				n--
			}
			if n == 1 && continuation(d[1]) {
				// the first character alone is multi-byte; emit it whole
				// even if the column budget suffers, never split it
				for n = 1; n < len(d) && continuation(d[n]); n++ {
				}
				sch2, wlen2, over = tryBlock(d[:n], fromcode, tocode)
				if over == 0 {
					return n, sch2, wlen2
				}
				return 1, schemeQ, encWordMin - 2 + len(tocode) + 3
			}
		}
	}
}

// encodeBlock converts d and appends it to buf as one encoded word.
// Conversion is the same stateless call the sizing pass used, so the
// emitted length matches what tryBlock computed.
func encodeBlock(buf *bytes.Buffer, d []byte, fromcode, tocode string, sch scheme) int {
	conv := d
	if fromcode != "" {
		out, err := charset.Convert(d, fromcode, tocode)
		if err == nil {
			conv = out
		}
	}
	if sch == schemeB {
		return bEncode(buf, tocode, conv)
	}
	return qEncode(buf, tocode, conv)
}
