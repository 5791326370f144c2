package charset

import (
	"bytes"
	"errors"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/transform"
)

var (
	// ErrUnsupported means no encoding is registered for a charset name.
	ErrUnsupported = errors.New("charset: unsupported charset")
	// ErrIllegalSequence means the input bytes are not valid in the
	// source charset, or a rune has no representation in the target.
	ErrIllegalSequence = errors.New("charset: illegal byte sequence")
	// ErrShortOutput means the conversion hit the output cap before
	// consuming all input.
	ErrShortOutput = errors.New("charset: output cap exceeded")
)

var utf8Replacement = []byte("�")

// Convert transcodes b from one charset to another. A fresh transformer
// is built per call, so conversion is stateless: the same input always
// yields the same output, a property the encoded-word sizing pass
// depends on.
func Convert(b []byte, from, to string) ([]byte, error) {
	u, err := decodeToUTF8(b, from)
	if err != nil {
		return nil, err
	}
	switch {
	case isUTF8Name(to):
		return u, nil
	case isASCIIName(to):
		if !isASCIIBytes(u) {
			return nil, ErrIllegalSequence
		}
		return u, nil
	}
	e, ok := lookup(to)
	if !ok {
		return nil, ErrUnsupported
	}
	out, err := e.NewEncoder().Bytes(u)
	if err != nil {
		return nil, ErrIllegalSequence
	}
	return out, nil
}

// decodeToUTF8 brings b into UTF-8. The x/text decoders substitute
// U+FFFD instead of failing, so a replacement rune that was not already
// present in the input is treated as an illegal sequence, the way iconv
// reports EILSEQ.
func decodeToUTF8(b []byte, from string) ([]byte, error) {
	switch {
	case isUTF8Name(from):
		if !utf8.Valid(b) {
			return nil, ErrIllegalSequence
		}
		return b, nil
	case isASCIIName(from):
		if !isASCIIBytes(b) {
			return nil, ErrIllegalSequence
		}
		return b, nil
	}
	e, ok := lookup(from)
	if !ok {
		return nil, ErrUnsupported
	}
	u, err := e.NewDecoder().Bytes(b)
	if err != nil {
		return nil, ErrIllegalSequence
	}
	if bytes.Contains(u, utf8Replacement) && !bytes.Contains(b, utf8Replacement) {
		return nil, ErrIllegalSequence
	}
	return u, nil
}

// ConvertCapped converts b from one charset to another, writing at most
// max output bytes. On overflow it returns ErrShortOutput along with
// the number of source bytes that were consumed; the encoded-word sizer
// uses that count as an upper bound when shrinking a block.
func ConvertCapped(b []byte, from, to string, max int) ([]byte, int, error) {
	if max < 0 {
		max = 0
	}
	var ts []transform.Transformer
	if !isUTF8Name(from) && !isASCIIName(from) {
		e, ok := lookup(from)
		if !ok {
			return nil, 0, ErrUnsupported
		}
		ts = append(ts, e.NewDecoder())
	}
	switch {
	case isUTF8Name(to), isASCIIName(to):
		// no encoder step, validated below
	default:
		e, ok := lookup(to)
		if !ok {
			return nil, 0, ErrUnsupported
		}
		ts = append(ts, e.NewEncoder())
	}

	if len(ts) == 0 {
		n := len(b)
		if n <= max {
			if isASCIIName(to) && !isASCIIBytes(b) {
				return nil, 0, ErrIllegalSequence
			}
			return b, n, nil
		}
		n = max
		for n > 0 && b[n]&0xc0 == 0x80 {
			n--
		}
		return nil, n, ErrShortOutput
	}

	dst := make([]byte, max)
	nDst, nSrc, err := transform.Chain(ts...).Transform(dst, b, true)
	switch {
	case err == nil:
		out := dst[:nDst]
		if isASCIIName(to) && !isASCIIBytes(out) {
			return nil, 0, ErrIllegalSequence
		}
		return out, nSrc, nil
	case errors.Is(err, transform.ErrShortDst):
		return nil, nSrc, ErrShortOutput
	default:
		return nil, nSrc, ErrIllegalSequence
	}
}

// Choose picks the candidate charset producing the shortest conversion
// of b. Candidates are tried in list order and a later candidate only
// wins on a strictly smaller result, so list precedence decides ties.
// The winning name is returned in canonical form along with the
// converted bytes.
func Choose(from string, candidates []string, b []byte) (string, []byte, bool) {
	var tocode string
	var converted []byte
	best := -1
	for _, cand := range candidates {
		name := strings.TrimSpace(cand)
		if name == "" {
			continue
		}
		out, err := Convert(b, from, name)
		if err != nil {
			continue
		}
		if best < 0 || len(out) < best {
			best = len(out)
			tocode = name
			converted = out
			if best == 0 {
				break
			}
		}
	}
	if best < 0 {
		return "", nil, false
	}
	return Canonical(tocode), converted, true
}

func isASCIIBytes(b []byte) bool {
	for _, c := range b {
		if c >= 0x80 {
			return false
		}
	}
	return true
}
