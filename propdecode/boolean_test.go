package propdecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeBooleans(t *testing.T) {
	// byte 0b00000101 -> bit0=1, bit1=0, bit2=1
	values, err := DecodeBooleans(3, []byte{0b00000101})

	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, true}, values)
}

func TestDecodeBooleans_SpansMultipleBytes(t *testing.T) {
	values, err := DecodeBooleans(9, []byte{0xFF, 0x01})

	require.NoError(t, err)
	assert.Len(t, values, 9)
	assert.True(t, values[8])
}

func TestDecodeBooleanArray(t *testing.T) {
	rows, err := DecodeBooleanArray(2, 3, []byte{0b00000101})

	require.NoError(t, err)
	assert.Equal(t, [][]bool{{true, false, true}, {false, false, false}}, rows)
}
