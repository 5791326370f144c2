package charset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvert(t *testing.T) {
	t.Run("Latin1 To UTF-8", func(t *testing.T) {
		out, err := Convert([]byte("Andr\xe9"), "iso-8859-1", "utf-8")
		require.NoError(t, err)
		assert.Equal(t, []byte("André"), out)
	})

	t.Run("UTF-8 To Latin1", func(t *testing.T) {
		out, err := Convert([]byte("André"), "utf-8", "iso-8859-1")
		require.NoError(t, err)
		assert.Equal(t, []byte("Andr\xe9"), out)
	})

	t.Run("Alias Resolves", func(t *testing.T) {
		out, err := Convert([]byte("Andr\xe9"), "latin1", "utf-8")
		require.NoError(t, err)
		assert.Equal(t, []byte("André"), out)
	})

	t.Run("ASCII Source Is Strict", func(t *testing.T) {
		_, err := Convert([]byte("Caf\xe9"), "us-ascii", "utf-8")
		assert.ErrorIs(t, err, ErrIllegalSequence)
	})

	t.Run("ASCII Target Is Strict", func(t *testing.T) {
		_, err := Convert([]byte("Café"), "utf-8", "us-ascii")
		assert.ErrorIs(t, err, ErrIllegalSequence)
	})

	t.Run("Unmappable Rune", func(t *testing.T) {
		_, err := Convert([]byte("Привет"), "utf-8", "iso-8859-1")
		assert.ErrorIs(t, err, ErrIllegalSequence)
	})

	t.Run("Invalid Source Byte", func(t *testing.T) {
		// 0xA0 is not a valid Shift_JIS byte; the substitution the
		// x/text decoder makes must surface as an error, not as U+FFFD
		_, err := Convert([]byte{0xa0}, "shift_jis", "utf-8")
		assert.ErrorIs(t, err, ErrIllegalSequence)
	})

	t.Run("Unknown Charset", func(t *testing.T) {
		_, err := Convert([]byte("hi"), "x-no-such-set-9", "utf-8")
		assert.ErrorIs(t, err, ErrUnsupported)
	})

	t.Run("Deterministic", func(t *testing.T) {
		a, err := Convert([]byte("naïve"), "utf-8", "iso-8859-1")
		require.NoError(t, err)
		b, err := Convert([]byte("naïve"), "utf-8", "iso-8859-1")
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})
}

func TestConvertCapped(t *testing.T) {
	t.Run("Fits", func(t *testing.T) {
		out, n, err := ConvertCapped([]byte("héllo"), "utf-8", "utf-8", 10)
		require.NoError(t, err)
		assert.Equal(t, []byte("héllo"), out)
		assert.Equal(t, 6, n)
	})

	t.Run("Overflow Reports Consumed Bytes", func(t *testing.T) {
		_, n, err := ConvertCapped([]byte("héllo"), "utf-8", "utf-8", 3)
		assert.ErrorIs(t, err, ErrShortOutput)
		assert.Equal(t, 3, n)
	})

	t.Run("Overflow Never Stops Inside A Character", func(t *testing.T) {
		_, n, err := ConvertCapped([]byte("héllo"), "utf-8", "utf-8", 2)
		assert.ErrorIs(t, err, ErrShortOutput)
		assert.Equal(t, 1, n)
	})

	t.Run("Capped Transcode", func(t *testing.T) {
		_, n, err := ConvertCapped([]byte("ééééé"), "utf-8", "iso-8859-1", 3)
		assert.ErrorIs(t, err, ErrShortOutput)
		assert.Equal(t, 6, n)
	})
}

func TestChoose(t *testing.T) {
	candidates := []string{"us-ascii", "iso-8859-1", "utf-8"}

	t.Run("Smallest Conversion Wins", func(t *testing.T) {
		name, out, ok := Choose("utf-8", candidates, []byte("André"))
		require.True(t, ok)
		assert.Equal(t, "ISO-8859-1", name)
		assert.Equal(t, []byte("Andr\xe9"), out)
	})

	t.Run("Earlier Candidate Wins Ties", func(t *testing.T) {
		name, out, ok := Choose("utf-8", candidates, []byte("hello"))
		require.True(t, ok)
		assert.Equal(t, "US-ASCII", name)
		assert.Equal(t, []byte("hello"), out)
	})

	t.Run("No Candidate Fits", func(t *testing.T) {
		_, _, ok := Choose("utf-8", []string{"us-ascii"}, []byte("Café"))
		assert.False(t, ok)
	})
}

func TestCanonical(t *testing.T) {
	assert.Equal(t, "UTF-8", Canonical("utf-8"))
	assert.Equal(t, "US-ASCII", Canonical("ascii"))
	assert.Equal(t, "ISO-8859-1", Canonical("latin1"))
	assert.Equal(t, "Shift_JIS", Canonical("x-sjis"))
	assert.Equal(t, "x-whatever", Canonical("x-whatever"))
}

func TestIsASCII(t *testing.T) {
	assert.True(t, IsASCII("us-ascii"))
	assert.True(t, IsASCII("ANSI_X3.4-1968"))
	assert.False(t, IsASCII("utf-8"))
	assert.False(t, IsASCII("iso-8859-1"))
}
