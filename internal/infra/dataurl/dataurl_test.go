package dataurl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

func TestRoundTrip(t *testing.T) {
	s := Encode("", pngHeader)
	assert.Equal(t, "data:image/png;base64,iVBORw0KGgoAAAAA", s)

	mime, data, err := Decode(s)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)
	assert.Equal(t, pngHeader, data)
	assert.True(t, IsImage(mime))
}

func TestDecodeBareBase64(t *testing.T) {
	mime, data, err := Decode("aGVsbG8=")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
	assert.Equal(t, "text/plain; charset=utf-8", mime)
	assert.False(t, IsImage(mime))
}

func TestDecodeRejects(t *testing.T) {
	for _, s := range []string{"data:image/png,raw", "data:image/png;base64", "%%%"} {
		_, _, err := Decode(s)
		assert.ErrorIs(t, err, ErrInvalid, s)
	}
}
