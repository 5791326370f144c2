package rfc2047

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var wordPattern = regexp.MustCompile(`=\?[^? ]*\?[BbQq]\?[^?]*\?=`)

func TestEncodePassthrough(t *testing.T) {
	cfg := Config{}

	t.Run("Plain ASCII", func(t *testing.T) {
		out, status := cfg.Encode("Meeting at noon", 9)
		assert.Equal(t, "Meeting at noon", out)
		assert.Equal(t, StatusOK, status)
	})

	t.Run("Empty Value", func(t *testing.T) {
		out, status := cfg.Encode("", 0)
		assert.Equal(t, "", out)
		assert.Equal(t, StatusOK, status)
	})

	t.Run("Mid Word Marker Left Alone", func(t *testing.T) {
		// "=?" not at a word boundary cannot be mistaken for an
		// encoded word, so nothing needs encoding
		out, status := cfg.Encode("price=?100", 0)
		assert.Equal(t, "price=?100", out)
		assert.Equal(t, StatusOK, status)
	})
}

func TestEncodeSingleWord(t *testing.T) {
	t.Run("UTF-8 Q Word", func(t *testing.T) {
		cfg := Config{SendCharsets: []string{"utf-8"}}
		out, status := cfg.Encode("Café is ready", 0)
		assert.Equal(t, "=?UTF-8?Q?Caf=C3=A9_is_ready?=", out)
		assert.Equal(t, StatusOK, status)
	})

	t.Run("Latin1 Beats UTF-8", func(t *testing.T) {
		// default candidates: iso-8859-1 carries é in one byte
		cfg := Config{}
		out, status := cfg.Encode("André Pirard", 0)
		assert.Equal(t, "=?ISO-8859-1?Q?Andr=E9_Pirard?=", out)
		assert.Equal(t, StatusOK, status)
	})

	t.Run("Round Trip", func(t *testing.T) {
		cfg := Config{SendCharsets: []string{"utf-8"}}
		out, _ := cfg.Encode("Café is ready", 0)
		assert.Equal(t, "Café is ready", cfg.Decode(out))
	})
}

func TestEncodeSchemeChoice(t *testing.T) {
	t.Run("Mostly 8bit Uses B", func(t *testing.T) {
		cfg := Config{SendCharsets: []string{"utf-8"}}
		out, status := cfg.Encode("Café", 0)
		assert.Equal(t, "=?UTF-8?B?Q2Fmw6k=?=", out)
		assert.Equal(t, StatusOK, status)
	})

	t.Run("ISO-2022-JP Forces B", func(t *testing.T) {
		cfg := Config{SendCharsets: []string{"iso-2022-jp"}}
		out, status := cfg.Encode("こんにちは", 0)
		require.Equal(t, StatusOK, status)
		assert.True(t, strings.HasPrefix(out, "=?ISO-2022-JP?B?"), out)
		assert.Equal(t, "こんにちは", cfg.Decode(out))
	})
}

func TestEncodeStatusFlags(t *testing.T) {
	t.Run("Source Not In Working Charset", func(t *testing.T) {
		// 0xE9 is not valid us-ascii, so the value cannot be brought
		// into the working form and must not be labeled us-ascii either
		cfg := Config{Charset: "us-ascii"}
		out, status := cfg.Encode("Caf\xe9", 0)
		assert.Equal(t, StatusNoInternal, status)
		assert.Equal(t, "=?unknown-8bit?Q?Caf=E9?=", out)
	})

	t.Run("No Candidate Fits", func(t *testing.T) {
		cfg := Config{SendCharsets: []string{"us-ascii"}}
		out, status := cfg.Encode("Café", 0)
		assert.Equal(t, StatusNoCharset, status)
		// falls back to the source charset label and the raw bytes
		assert.Equal(t, "=?utf-8?B?Q2Fmw6k=?=", out)
		assert.Equal(t, "Café", cfg.Decode(out))
	})
}

func TestEncodeSpecials(t *testing.T) {
	value := "a, " + strings.Repeat("x", 70) + " é"

	t.Run("Specials Extend The Region", func(t *testing.T) {
		cfg := Config{SendCharsets: []string{"utf-8"}, Specials: AddressSpecials}
		out, status := cfg.Encode(value, 0)
		require.Equal(t, StatusOK, status)
		assert.Contains(t, out, "=2C")
		assert.Equal(t, value, cfg.Decode(out))
	})

	t.Run("Without Specials The Comma Stays Literal", func(t *testing.T) {
		cfg := Config{SendCharsets: []string{"utf-8"}}
		out, status := cfg.Encode(value, 0)
		require.Equal(t, StatusOK, status)
		assert.True(t, strings.HasPrefix(out, "a, "), out)
		assert.NotContains(t, out, "=2C")
		assert.Equal(t, value, cfg.Decode(out))
	})

	t.Run("Specials Alone Do Not Trigger Encoding", func(t *testing.T) {
		cfg := Config{Specials: AddressSpecials}
		out, status := cfg.Encode("Dr. Smith", 0)
		assert.Equal(t, "Dr. Smith", out)
		assert.Equal(t, StatusOK, status)
	})
}

func TestEncodeFakeWordMarker(t *testing.T) {
	cfg := Config{}
	out, status := cfg.Encode("leave =?this?= alone", 0)
	require.Equal(t, StatusOK, status)
	assert.Equal(t, "=?US-ASCII?Q?leave_=3D=3Fthis=3F=3D_alone?=", out)
	assert.Equal(t, "leave =?this?= alone", cfg.Decode(out))
}

func TestEncodeFolding(t *testing.T) {
	cfg := Config{SendCharsets: []string{"utf-8"}}
	value := strings.Repeat("naïve déjà vu ", 10)

	out, status := cfg.Encode(value, 9)
	require.Equal(t, StatusOK, status)
	require.Contains(t, out, "\n\t", "long values must fold into several words")

	t.Run("Every Word Within The Cap", func(t *testing.T) {
		words := wordPattern.FindAllString(out, -1)
		require.NotEmpty(t, words)
		for _, w := range words {
			assert.LessOrEqual(t, len(w), 75, w)
		}
	})

	t.Run("Q Payloads Carry No Raw Space", func(t *testing.T) {
		for _, w := range wordPattern.FindAllString(out, -1) {
			parts := strings.Split(w, "?")
			require.Len(t, parts, 5, w)
			if parts[2] == "Q" || parts[2] == "q" {
				assert.NotContains(t, parts[3], " ", w)
			}
		}
	})

	t.Run("Round Trip", func(t *testing.T) {
		assert.Equal(t, value, cfg.Decode(out))
	})
}

func TestEncodeColumnBudget(t *testing.T) {
	cfg := Config{}

	t.Run("Offset Single Word", func(t *testing.T) {
		out, status := cfg.Encode("é", 32)
		assert.Equal(t, "=?ISO-8859-1?Q?=E9?=", out)
		assert.Equal(t, StatusOK, status)
	})

	t.Run("Large Offset Still Bounded Words", func(t *testing.T) {
		out, status := cfg.Encode("résumé attached for your review", 40)
		require.Equal(t, StatusOK, status)
		for _, w := range wordPattern.FindAllString(out, -1) {
			assert.LessOrEqual(t, len(w), 75, w)
		}
		assert.Equal(t, "résumé attached for your review", cfg.Decode(out))
	})
}
