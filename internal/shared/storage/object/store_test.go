package object

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const contentID = "6f1c1c8e-4c0b-4e8e-9b55-2f7d2d0f4a10"

func TestSniffDetectsPNGAndPreservesBytes(t *testing.T) {
	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 600)...)

	ct, r, err := Sniff("", bytes.NewReader(png))
	require.NoError(t, err)
	assert.Equal(t, "image/png", ct)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, png, got)
}

func TestSniffKeepsExplicitType(t *testing.T) {
	ct, _, err := Sniff("image/webp", bytes.NewReader([]byte("RIFF")))
	require.NoError(t, err)
	assert.Equal(t, "image/webp", ct)
}

func TestExtensionFor(t *testing.T) {
	assert.Equal(t, ".jpg", ExtensionFor("image/jpeg"))
	assert.Equal(t, ".png", ExtensionFor("image/png; charset=binary"))
	assert.Equal(t, ".bin", ExtensionFor("application/octet-stream"))
}

func TestPrepareBuildsOwnerScopedKey(t *testing.T) {
	key, mimeType, body, err := Prepare(Media{
		Owner:     "user-1",
		ContentID: contentID,
		Body:      strings.NewReader("\x89PNG\r\n\x1a\nrest"),
	})
	require.NoError(t, err)
	assert.Equal(t, "image/png", mimeType)
	assert.Equal(t, OwnerDir("user-1")+"/"+contentID+".png", key)
	assert.NotContains(t, key, "user-1")
	assert.Len(t, OwnerDir("user-1"), 32)

	got, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG\r\n\x1a\nrest", string(got))
}

func TestPrepareRejectsBadInput(t *testing.T) {
	_, _, _, err := Prepare(Media{ContentID: contentID, Body: strings.NewReader("x")})
	assert.Error(t, err)

	_, _, _, err = Prepare(Media{Owner: "u", ContentID: "../../etc/passwd", Body: strings.NewReader("x")})
	assert.Error(t, err)

	_, _, _, err = Prepare(Media{Owner: "u", ContentID: contentID})
	assert.Error(t, err)
}

func TestCleanKey(t *testing.T) {
	for _, bad := range []string{"", "/abs/key", "../up", "a/../../b", "..", "a\\b"} {
		_, err := CleanKey(bad)
		assert.ErrorIs(t, err, ErrInvalidKey, bad)
	}
	got, err := CleanKey("abc/./def.png")
	require.NoError(t, err)
	assert.Equal(t, "abc/def.png", got)
}
