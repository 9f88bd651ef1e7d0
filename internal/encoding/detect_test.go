package encoding_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/revstay/internal/encoding"
)

func readAll(t *testing.T, input []byte) string {
	t.Helper()

	r, err := encoding.NewUTF8Reader(bytes.NewReader(input))
	require.NoError(t, err)

	got, err := io.ReadAll(r)
	require.NoError(t, err)

	return string(got)
}

func TestNewUTF8Reader(t *testing.T) {
	const want = "title,location\nCafé Résidence,Pondichéry\n"

	tests := []struct {
		name  string
		input []byte
	}{
		{name: "UTF8Passthrough", input: []byte(want)},
		{name: "UTF8BOM", input: append([]byte{0xEF, 0xBB, 0xBF}, want...)},
		{
			// "é" is 0xE9 in Windows-1252.
			name: "Windows1252",
			input: []byte{
				't', 'i', 't', 'l', 'e', ',', 'l', 'o', 'c', 'a', 't', 'i', 'o', 'n', '\n',
				'C', 'a', 'f', 0xE9, ' ', 'R', 0xE9, 's', 'i', 'd', 'e', 'n', 'c', 'e', ',',
				'P', 'o', 'n', 'd', 'i', 'c', 'h', 0xE9, 'r', 'y', '\n',
			},
		},
		{
			name: "UTF16LE",
			input: func() []byte {
				b := []byte{0xFF, 0xFE}
				for _, r := range want {
					b = append(b, byte(r), byte(r>>8))
				}

				return b
			}(),
		},
		{
			name: "UTF16BE",
			input: func() []byte {
				b := []byte{0xFE, 0xFF}
				for _, r := range want {
					b = append(b, byte(r>>8), byte(r))
				}

				return b
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, want, readAll(t, tt.input))
		})
	}
}

func TestNewUTF8Reader_Empty(t *testing.T) {
	assert.Empty(t, readAll(t, nil))
}

func TestNewUTF8Reader_LargeInput(t *testing.T) {
	// Longer than the detection window.
	var buf bytes.Buffer
	for range 600 {
		buf.WriteString("bob,Villa,Goa\n")
	}

	assert.Equal(t, buf.String(), readAll(t, buf.Bytes()))
}
