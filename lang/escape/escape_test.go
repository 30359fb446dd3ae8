package escape_test

import (
	"testing"

	"github.com/mna/saffron/lang/escape"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSimple(t *testing.T) {
	got, err := escape.Decode(`hello\nworld`)
	require.NoError(t, err)
	assert.Equal(t, "hello\nworld", got)
}

func TestDecodeAllShortEscapes(t *testing.T) {
	got, err := escape.Decode(`\a\b\f\n\r\t\v\\\"\'`)
	require.NoError(t, err)
	assert.Equal(t, "\a\b\f\n\r\t\v\\\"'", got)
}

func TestDecodeHex(t *testing.T) {
	got, err := escape.Decode(`\x41\x42`)
	require.NoError(t, err)
	assert.Equal(t, "AB", got)
}

func TestDecodeDecimal(t *testing.T) {
	got, err := escape.Decode(`\65\066`)
	require.NoError(t, err)
	assert.Equal(t, "AB", got)
}

func TestDecodeDecimalOutOfRange(t *testing.T) {
	_, err := escape.Decode(`\999`)
	require.Error(t, err)
}

func TestDecodeUnicode(t *testing.T) {
	got, err := escape.Decode(`\u{48}\u{2603}`)
	require.NoError(t, err)
	assert.Equal(t, "H\x26\x03", got)
}

func TestDecodeUnicodeTooLarge(t *testing.T) {
	_, err := escape.Decode(`\u{80000000}`)
	require.Error(t, err)
}

func TestDecodeZSkipsWhitespace(t *testing.T) {
	got, err := escape.Decode("a\\z   \n\t  b")
	require.NoError(t, err)
	assert.Equal(t, "ab", got)
}

func TestDecodeLineContinuation(t *testing.T) {
	got, err := escape.Decode("a\\\nb")
	require.NoError(t, err)
	assert.Equal(t, "a\nb", got)
}

func TestDecodeUnknownEscape(t *testing.T) {
	_, err := escape.Decode(`\q`)
	require.Error(t, err)
}

func TestDecodeLongBracketStripsLeadingNewline(t *testing.T) {
	assert.Equal(t, "abc", escape.DecodeLongBracket("\nabc"))
	assert.Equal(t, "abc", escape.DecodeLongBracket("\r\nabc"))
	assert.Equal(t, "abc", escape.DecodeLongBracket("abc"))
}
