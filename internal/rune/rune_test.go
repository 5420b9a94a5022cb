package rune_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	pqrune "github.com/cbarrick/poqer/internal/rune"
)

func TestDecodeEncodeRoundTrip(t *testing.T) {
	cases := []rune{'a', '0', 0x7F, 0x80, 0x7FF, 0x800, 0xFFFF, 0x10000, pqrune.MaxCodePoint}
	for _, cp := range cases {
		buf := pqrune.Encode(nil, cp)
		got, size := pqrune.Decode(buf, 0)
		assert.Equal(t, cp, got)
		assert.Equal(t, len(buf), size)
	}
}

func TestDecodeInvalid(t *testing.T) {
	_, size := pqrune.Decode([]byte{0x80}, 0)
	assert.Equal(t, 0, size)

	_, size = pqrune.Decode([]byte{0xC0, 0x20}, 0)
	assert.Equal(t, 0, size)

	_, size = pqrune.Decode([]byte{0xE0, 0x80}, 0)
	assert.Equal(t, 0, size)
}

func TestIsFirstByte(t *testing.T) {
	assert.True(t, pqrune.IsFirstByte('a'))
	assert.True(t, pqrune.IsFirstByte(0xC2))
	assert.False(t, pqrune.IsFirstByte(0x80))
}

func TestClassifiers(t *testing.T) {
	assert.True(t, pqrune.Solo('('))
	assert.True(t, pqrune.Solo('.'))
	assert.False(t, pqrune.Solo('a'))

	assert.True(t, pqrune.Layout(' '))
	assert.True(t, pqrune.Layout('\n'))
	assert.False(t, pqrune.Layout('a'))

	assert.False(t, pqrune.Newline(' '))
	assert.False(t, pqrune.Newline('\t'))
	assert.True(t, pqrune.Newline('\n'))

	assert.True(t, pqrune.Alnum('_'))
	assert.True(t, pqrune.Alnum('a'))
	assert.True(t, pqrune.Alnum('5'))
	assert.False(t, pqrune.Alnum('+'))

	assert.True(t, pqrune.Lower('a'))
	assert.False(t, pqrune.Lower('A'))
	assert.False(t, pqrune.Lower('1'))

	assert.True(t, pqrune.Graphic('+'))
	assert.True(t, pqrune.Graphic('.'))
	assert.False(t, pqrune.Graphic('a'))
	assert.False(t, pqrune.Graphic('('))

	assert.True(t, pqrune.GraphicToken('\\'))

	assert.True(t, pqrune.Bin('0'))
	assert.False(t, pqrune.Bin('2'))
	assert.True(t, pqrune.Oct('7'))
	assert.False(t, pqrune.Oct('8'))
	assert.True(t, pqrune.Dec('9'))
	assert.True(t, pqrune.Hex('f'))
	assert.True(t, pqrune.Hex('F'))
	assert.False(t, pqrune.Hex('g'))

	assert.True(t, pqrune.ControlEscape('n'))
	assert.False(t, pqrune.ControlEscape('z'))
	assert.True(t, pqrune.MetaEscape('\''))
}

func TestDigitValue(t *testing.T) {
	assert.Equal(t, 0, pqrune.DigitValue('0'))
	assert.Equal(t, 10, pqrune.DigitValue('a'))
	assert.Equal(t, 15, pqrune.DigitValue('F'))
	assert.Equal(t, -1, pqrune.DigitValue('g'))
}

func TestValid(t *testing.T) {
	assert.True(t, pqrune.Valid('a'))
	assert.True(t, pqrune.Valid(pqrune.MaxCodePoint))
	assert.False(t, pqrune.Valid(pqrune.MaxCodePoint+1))
	assert.False(t, pqrune.Valid(0xD800))
}
