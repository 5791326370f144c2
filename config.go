package rfc2047

import "log/slog"

// AddressSpecials is the set of structural characters from RFC822 that
// display-name fields should force into encoded words, so that a decoded
// name cannot be mistaken for address syntax.
const AddressSpecials = "@.,:;<>[]\\\"()"

// Config is the read-only configuration an encode or decode call runs
// under. The zero value works; withDefaults fills in the rest. A Config
// is passed by value and never mutated, so one value may serve any
// number of concurrent calls.
type Config struct {
	Log *slog.Logger

	// Charset is the working charset header values are held in between
	// calls. Defaults to utf-8.
	Charset string `json:"charset"`

	// SendCharsets is the ordered list of charsets tried when encoding.
	// The first candidate producing the shortest conversion wins.
	// Defaults to us-ascii:iso-8859-1:utf-8.
	SendCharsets []string `json:"send_charsets"`

	// AssumedCharsets are tried in order against legacy headers that
	// carry raw 8-bit text with no encoded words at all. Empty means
	// such text passes through untouched.
	AssumedCharsets []string `json:"assumed_charsets,omitempty"`

	// Specials are extra bytes that force a region into encoded words
	// even though they are plain ASCII. Address display names pass
	// AddressSpecials here.
	Specials string `json:"specials,omitempty"`

	// IgnoreLinearWhiteSpace enables the folding-whitespace
	// compatibility mode: whitespace between two encoded words is
	// dropped, and whitespace between an encoded word and literal text
	// collapses to a single space.
	IgnoreLinearWhiteSpace bool `json:"ignore_linear_white_space,omitempty"`
}

func (c Config) withDefaults() Config {
	if c.Log == nil {
		c.Log = noopLogger()
	}
	if c.Charset == "" {
		c.Charset = "utf-8"
	}
	if len(c.SendCharsets) == 0 {
		c.SendCharsets = []string{"us-ascii", "iso-8859-1", "utf-8"}
	}
	return c
}
