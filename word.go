package rfc2047

import (
	"bytes"
	"encoding/base64"
	"strings"
)

const (
	// encWordMax is the hard cap on a serialized encoded word,
	// RFC2047 section 2.
	encWordMax = 75
	// encWordMin is the length of the shortest possible word,
	// "=?.?.?.?=" with one-byte charset, scheme and payload.
	encWordMin = 9
)

// mimeSpecials are the bytes the Q scheme must escape besides controls
// and 8-bit data. Space is not escaped, it maps to '_'.
const mimeSpecials = "@.,;:<>[]\\\"()?/= \t"

const hexUpper = "0123456789ABCDEF"

type scheme byte

const (
	schemeB scheme = 'B'
	schemeQ scheme = 'Q'
)

func hspace(c byte) bool {
	return c == ' ' || c == '\t'
}

// continuation reports a UTF-8 continuation byte, never a valid place
// to split a block.
func continuation(c byte) bool {
	return c&0xc0 == 0x80
}

func qSpecial(c byte) bool {
	return c >= 0x7f || c < 0x20 || c == '_' || strings.IndexByte(mimeSpecials, c) >= 0
}

// bEncode writes d as a single =?tocode?B?...?= word and returns the
// number of bytes written.
func bEncode(buf *bytes.Buffer, tocode string, d []byte) int {
	start := buf.Len()
	buf.WriteString("=?")
	buf.WriteString(tocode)
	buf.WriteString("?B?")
	b64 := make([]byte, base64.StdEncoding.EncodedLen(len(d)))
	base64.StdEncoding.Encode(b64, d)
	buf.Write(b64)
	buf.WriteString("?=")
	return buf.Len() - start
}

// qEncode writes d as a single =?tocode?Q?...?= word and returns the
// number of bytes written.
func qEncode(buf *bytes.Buffer, tocode string, d []byte) int {
	start := buf.Len()
	buf.WriteString("=?")
	buf.WriteString(tocode)
	buf.WriteString("?Q?")
	for _, c := range d {
		switch {
		case c == ' ':
			buf.WriteByte('_')
		case qSpecial(c):
			buf.WriteByte('=')
			buf.WriteByte(hexUpper[c>>4])
			buf.WriteByte(hexUpper[c&0x0f])
		default:
			buf.WriteByte(c)
		}
	}
	buf.WriteString("?=")
	return buf.Len() - start
}
